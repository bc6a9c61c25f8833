// Package queue defines the domain events exchanged over the message broker
// and the publisher and consumer that move them.
package queue

import "time"

// QueueName is the durable queue every operations event is routed to.
const QueueName = "ops.events"

// Event types carried in Envelope.Type.
const (
	TypeDemoSessionCreated = "demo.session.created"
	TypeDemoSessionExpired = "demo.session.expired"
	TypeProfileDecided     = "profile.decided"
)

// Envelope wraps every message so consumers can dispatch on Type before
// decoding the payload.
type Envelope struct {
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

// DemoSessionCreatedEvent is published after a session commits. It carries
// enough for downstream consumers to log or notify without querying the
// store.
type DemoSessionCreatedEvent struct {
	SessionID    string   `json:"session_id"`
	HospitalID   string   `json:"hospital_id"`
	HospitalName string   `json:"hospital_name,omitempty"`
	OwnerID      string   `json:"owner_id"`
	StartDate    string   `json:"start_date"`
	EndDate      string   `json:"end_date"`
	DeviceIDs    []string `json:"device_ids"`
	DemoStatus   string   `json:"demo_status"`
	CreatedBy    string   `json:"created_by,omitempty"`
}

// DemoSessionExpiredEvent is published by the overdue sweep for a session
// whose end date has passed while units are still in use.
type DemoSessionExpiredEvent struct {
	SessionID    string   `json:"session_id"`
	HospitalID   string   `json:"hospital_id"`
	HospitalName string   `json:"hospital_name,omitempty"`
	EndDate      string   `json:"end_date"`
	InUseSerials []string `json:"in_use_serials"`
}

// ProfileDecidedEvent is published when an admin approves, rejects,
// activates or deactivates a team member.
type ProfileDecidedEvent struct {
	UserID    string  `json:"user_id"`
	Decision  string  `json:"decision"`
	Role      *string `json:"role,omitempty"`
	Reason    *string `json:"reason,omitempty"`
	DecidedBy string  `json:"decided_by"`
}
