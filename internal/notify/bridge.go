// internal/notify/bridge.go
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/audit"
)

// JobPublisher puts a job body on a named queue.
type JobPublisher interface {
	Publish(ctx context.Context, queueName string, body []byte) error
}

// events members and owners are told about
var notifiable = map[string]string{
	audit.ActionMembershipJoined:     "member_joined",
	audit.ActionMembershipLeft:       "member_left",
	audit.ActionMembershipRemoved:    "member_removed",
	audit.ActionMembershipUpdated:    "member_updated",
	audit.ActionMembershipReassigned: "member_reassigned",
	audit.ActionTenantProvisioned:    "club_created",
	audit.ActionTenantUpdated:        "club_updated",
	audit.ActionLibraryItemAdded:     "library_item_added",
}

// Bridge translates domain events from Kafka into RabbitMQ jobs.
type Bridge struct {
	jobs JobPublisher
}

func NewBridge(jobs JobPublisher) *Bridge {
	return &Bridge{jobs: jobs}
}

// Handle has the kafka.Handler signature. A publish failure is returned so
// the offset stays uncommitted and the event is redelivered. Undecodable
// events are logged and skipped.
func (b *Bridge) Handle(ctx context.Context, key []byte, value []byte) error {
	var ev audit.AuditEvent
	if err := json.Unmarshal(value, &ev); err != nil {
		slog.ErrorContext(ctx, "dropping undecodable event", "key", string(key), "error", err)
		return nil
	}

	queue, job, ok := translate(ev)
	if !ok {
		return nil
	}
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job for %s: %w", ev.Action, err)
	}
	if err := b.jobs.Publish(ctx, queue, body); err != nil {
		return fmt.Errorf("publish %s job: %w", queue, err)
	}
	slog.InfoContext(ctx, "event bridged", "event", ev.Action, "event_id", ev.ID, "queue", queue)
	return nil
}

// translate maps an event to the queue and job it produces; ok is false for
// events nobody acts on.
func translate(ev audit.AuditEvent) (queue string, job any, ok bool) {
	switch ev.Action {
	case audit.ActionTenantProvisioningIncomplete:
		if ev.TenantID == nil {
			return "", nil, false
		}
		return RepairQueue, RepairJob{Kind: RepairCompleteProvisioning, EventID: ev.ID, TenantID: *ev.TenantID}, true
	case audit.ActionPointerStale:
		if ev.TargetID == nil {
			return "", nil, false
		}
		return RepairQueue, RepairJob{Kind: RepairPointer, EventID: ev.ID, PersonID: *ev.TargetID}, true
	}

	typ, found := notifiable[ev.Action]
	if !found {
		return "", nil, false
	}
	return NotificationQueue, NotificationJob{
		Type:       typ,
		EventID:    ev.ID,
		TenantID:   ev.TenantID,
		PersonID:   ev.TargetID,
		ActorID:    ev.ActorUserID,
		Payload:    ev.Metadata,
		OccurredAt: ev.CreatedAt,
	}, true
}
