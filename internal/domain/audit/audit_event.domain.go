// internal/domain/audit/audit_event.domain.go
package audit

import (
	"time"

	"github.com/google/uuid"
)

// Action names. They double as the event type on the domain-event topic.
const (
	ActionPersonRegistered             = "PERSON_REGISTERED"
	ActionMembershipJoined             = "MEMBERSHIP_JOINED"
	ActionMembershipLeft               = "MEMBERSHIP_LEFT"
	ActionMembershipRemoved            = "MEMBERSHIP_REMOVED"
	ActionMembershipUpdated            = "MEMBERSHIP_UPDATED"
	ActionMembershipReassigned         = "MEMBERSHIP_REASSIGNED"
	ActionPointerRepaired              = "MEMBERSHIP_POINTER_REPAIRED"
	ActionPointerStale                 = "MEMBERSHIP_POINTER_STALE"
	ActionLibraryItemAdded             = "LIBRARY_ITEM_ADDED"
	ActionTenantProvisioned            = "TENANT_PROVISIONED"
	ActionTenantProvisioningIncomplete = "TENANT_PROVISIONING_INCOMPLETE"
	ActionTenantUpdated                = "TENANT_UPDATED"
	ActionRoleGranted                  = "ADMIN_ROLE_GRANTED"
	ActionRoleRevoked                  = "ADMIN_ROLE_REVOKED"
)

// AuditEvent is an append-only record of a state change.
// It answers: who did what, to which tenant, when, and with what context.
type AuditEvent struct {
	ID          uuid.UUID      `json:"id"`
	ActorUserID *uuid.UUID     `json:"actor_id,omitempty"` // nil for system actions such as the reconciler
	TenantID    *uuid.UUID     `json:"tenant_id,omitempty"`
	Action      string         `json:"event"`
	TargetID    *uuid.UUID     `json:"target_id,omitempty"`
	Metadata    map[string]any `json:"payload,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// New stamps an event. actor may be uuid.Nil for system actions.
func New(action string, actor uuid.UUID, tenantID, targetID *uuid.UUID, meta map[string]any) *AuditEvent {
	ev := &AuditEvent{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Action:    action,
		TargetID:  targetID,
		Metadata:  meta,
		CreatedAt: time.Now().UTC(),
	}
	if actor != uuid.Nil {
		a := actor
		ev.ActorUserID = &a
	}
	return ev
}

// Key is the partition key used when the event is published: tenant first so
// a tenant's events stay ordered, then target.
func (e *AuditEvent) Key() string {
	switch {
	case e.TenantID != nil:
		return e.TenantID.String()
	case e.TargetID != nil:
		return e.TargetID.String()
	default:
		return e.ID.String()
	}
}

/*
Audit rules:
Reads, failed authorization and validation errors are never audited.
Every successful state-changing command emits exactly one event, from the
application command, not from repositories or entities.
*/
