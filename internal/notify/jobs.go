// internal/notify/jobs.go
package notify

import (
	"time"

	"github.com/google/uuid"
)

const (
	NotificationQueue = "club_notifications"
	RepairQueue       = "membership_repair"
)

// NotificationJob is what the delivery workers (email, push) consume.
type NotificationJob struct {
	Type       string         `json:"type"`
	EventID    uuid.UUID      `json:"event_id"`
	TenantID   *uuid.UUID     `json:"tenant_id,omitempty"`
	PersonID   *uuid.UUID     `json:"person_id,omitempty"`
	ActorID    *uuid.UUID     `json:"actor_id,omitempty"`
	Payload    map[string]any `json:"payload,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

type RepairKind string

const (
	RepairCompleteProvisioning RepairKind = "complete_provisioning"
	RepairPointer              RepairKind = "repair_pointer"
)

// RepairJob asks the repair worker to re-run an idempotent operation that
// stopped part way.
type RepairJob struct {
	Kind     RepairKind `json:"kind"`
	EventID  uuid.UUID  `json:"event_id"`
	TenantID uuid.UUID  `json:"tenant_id"`
	PersonID uuid.UUID  `json:"person_id"`
}
