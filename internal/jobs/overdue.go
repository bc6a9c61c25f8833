// Package jobs holds the scheduled background work of the service.
package jobs

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/iliyamo/device-ops-dashboard/internal/model"
	"github.com/iliyamo/device-ops-dashboard/internal/queue"
)

// SessionLister lists demo sessions with their units.
type SessionLister interface {
	List(ctx context.Context) ([]model.DemoSession, error)
}

// Publisher sends domain events.
type Publisher interface {
	Publish(ctx context.Context, eventType string, payload any) error
}

// OverdueSweep finds past sessions whose units are still IN_USE and
// publishes one demo.session.expired event per session. With Redis
// available each session is reported once; without it every run reports
// again.
type OverdueSweep struct {
	sessions SessionLister
	pub      Publisher
	rdb      *redis.Client
	logger   *zap.Logger
	now      func() time.Time
}

// NewOverdueSweep wires a sweep. rdb may be nil.
func NewOverdueSweep(sessions SessionLister, pub Publisher, rdb *redis.Client, logger *zap.Logger) *OverdueSweep {
	return &OverdueSweep{sessions: sessions, pub: pub, rdb: rdb, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

const reportedTTL = 30 * 24 * time.Hour

// Run performs one sweep and returns how many sessions were reported.
func (s *OverdueSweep) Run(ctx context.Context) (int, error) {
	sessions, err := s.sessions.List(ctx)
	if err != nil {
		return 0, err
	}
	today := s.now()
	reported := 0
	for _, sess := range sessions {
		if !sess.InTab(model.TabPast, today) {
			continue
		}
		var inUse []string
		for _, d := range sess.Devices {
			if d.DemoStatus != nil && *d.DemoStatus == model.DemoInUse {
				serial := d.ID
				if d.SerialNumber != nil {
					serial = *d.SerialNumber
				}
				inUse = append(inUse, serial)
			}
		}
		if len(inUse) == 0 {
			continue
		}
		key := "demo:expired:" + sess.ID
		claimed := false
		if s.rdb != nil {
			first, err := s.rdb.SetNX(ctx, key, 1, reportedTTL).Result()
			if err == nil && !first {
				continue
			}
			claimed = err == nil
		}
		ev := queue.DemoSessionExpiredEvent{
			SessionID:    sess.ID,
			HospitalID:   sess.HospitalID,
			EndDate:      sess.EndDate.Format(time.DateOnly),
			InUseSerials: inUse,
		}
		if sess.HospitalName != nil {
			ev.HospitalName = *sess.HospitalName
		}
		if err := s.pub.Publish(ctx, queue.TypeDemoSessionExpired, ev); err != nil {
			s.logger.Warn("overdue event not published", zap.String("session_id", sess.ID), zap.Error(err))
			if claimed {
				// release so the next run retries
				if err := s.rdb.Del(ctx, key).Err(); err != nil {
					s.logger.Warn("overdue dedupe key not released", zap.String("session_id", sess.ID), zap.Error(err))
				}
			}
			continue
		}
		reported++
	}
	return reported, nil
}

// Schedule registers the sweep on a UTC cron scheduler. The caller starts
// and stops the returned scheduler.
func Schedule(spec string, timeout time.Duration, sweep *OverdueSweep, logger *zap.Logger) (*cron.Cron, error) {
	c := cron.New(cron.WithLocation(time.UTC))
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		n, err := sweep.Run(ctx)
		if err != nil {
			logger.Error("overdue demo sweep failed", zap.Error(err))
			return
		}
		logger.Info("overdue demo sweep finished", zap.Int("reported", n))
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}
