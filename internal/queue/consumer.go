package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// AuditConsumer reads QueueName and writes every event to the audit log.
type AuditConsumer struct {
	url    string
	logger *zap.Logger
}

// NewAuditConsumer returns a consumer for the broker at url. Audit lines are
// written to logger under the "audit" name.
func NewAuditConsumer(url string, logger *zap.Logger) *AuditConsumer {
	return &AuditConsumer{url: url, logger: logger.Named("audit")}
}

// Run connects, consumes and reconnects with exponential backoff until ctx
// is cancelled.
func (c *AuditConsumer) Run(ctx context.Context) {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return
		}
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.logger.Warn("dial broker failed", zap.Error(err), zap.Duration("retry_in", backoff))
			if !sleep(ctx, backoff) {
				return
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return
		}
		c.logger.Warn("consume loop ended, reconnecting", zap.Error(err))
		if !sleep(ctx, 2*time.Second) {
			return
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (c *AuditConsumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.logger.Warn("set qos failed", zap.Error(err))
	}
	if _, err := ch.QueueDeclare(QueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(QueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.Handle(d.Body); err != nil {
				c.logger.Error("handle message failed", zap.Error(err))
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// Handle decodes one message body and writes the matching audit line.
// Unknown event types are logged rather than rejected.
func (c *AuditConsumer) Handle(body []byte) error {
	var raw struct {
		Type       string          `json:"type"`
		OccurredAt time.Time       `json:"occurred_at"`
		Payload    json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return fmt.Errorf("unmarshal envelope: %w", err)
	}
	base := []zap.Field{zap.String("event", raw.Type), zap.Time("occurred_at", raw.OccurredAt)}

	switch raw.Type {
	case TypeDemoSessionCreated:
		var ev DemoSessionCreatedEvent
		if err := json.Unmarshal(raw.Payload, &ev); err != nil {
			return fmt.Errorf("unmarshal %s: %w", raw.Type, err)
		}
		c.logger.Info("demo session created", append(base,
			zap.String("session_id", ev.SessionID),
			zap.String("hospital_id", ev.HospitalID),
			zap.String("owner_id", ev.OwnerID),
			zap.String("start_date", ev.StartDate),
			zap.String("end_date", ev.EndDate),
			zap.Strings("device_ids", ev.DeviceIDs),
		)...)
	case TypeDemoSessionExpired:
		var ev DemoSessionExpiredEvent
		if err := json.Unmarshal(raw.Payload, &ev); err != nil {
			return fmt.Errorf("unmarshal %s: %w", raw.Type, err)
		}
		c.logger.Warn("demo session overdue", append(base,
			zap.String("session_id", ev.SessionID),
			zap.String("hospital_id", ev.HospitalID),
			zap.String("end_date", ev.EndDate),
			zap.Strings("in_use_serials", ev.InUseSerials),
		)...)
	case TypeProfileDecided:
		var ev ProfileDecidedEvent
		if err := json.Unmarshal(raw.Payload, &ev); err != nil {
			return fmt.Errorf("unmarshal %s: %w", raw.Type, err)
		}
		fields := append(base,
			zap.String("user_id", ev.UserID),
			zap.String("decision", ev.Decision),
			zap.String("decided_by", ev.DecidedBy),
		)
		if ev.Role != nil {
			fields = append(fields, zap.String("role", *ev.Role))
		}
		c.logger.Info("profile decided", fields...)
	default:
		c.logger.Info("unhandled event", base...)
	}
	return nil
}
