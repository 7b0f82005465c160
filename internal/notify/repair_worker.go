// internal/notify/repair_worker.go
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/app/commands"
	domainErr "github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/errors"
)

type ProvisioningResumer interface {
	Resume(ctx context.Context, tenantID uuid.UUID) (*commands.ProvisionResult, error)
}

type PointerRepairer interface {
	Handle(ctx context.Context, personID uuid.UUID) (commands.RepairOutcome, error)
}

// RepairWorker drains membership_repair. Both operations it runs are
// idempotent, so a redelivered job is harmless.
type RepairWorker struct {
	provisioning ProvisioningResumer
	pointers     PointerRepairer
	requeueDelay time.Duration
}

func NewRepairWorker(p ProvisioningResumer, r PointerRepairer) *RepairWorker {
	return &RepairWorker{provisioning: p, pointers: r, requeueDelay: time.Second}
}

// Run processes deliveries until ctx is cancelled or the channel closes.
func (w *RepairWorker) Run(ctx context.Context, deliveries <-chan amqp.Delivery, wg *sync.WaitGroup) {
	defer wg.Done()
	for {
		select {
		case <-ctx.Done():
			slog.Info("repair worker stopping")
			return
		case d, ok := <-deliveries:
			if !ok {
				return
			}
			w.process(ctx, d)
		}
	}
}

func (w *RepairWorker) process(ctx context.Context, d amqp.Delivery) {
	var job RepairJob
	if err := json.Unmarshal(d.Body, &job); err != nil {
		slog.ErrorContext(ctx, "dropping undecodable repair job", "error", err)
		_ = d.Nack(false, false)
		return
	}

	err := w.run(ctx, job)
	switch {
	case err == nil, errors.Is(err, domainErr.ErrNotFound):
		// A vanished tenant or person leaves nothing to repair.
		if err != nil {
			slog.WarnContext(ctx, "repair target gone", "kind", job.Kind, "event_id", job.EventID, "error", err)
		}
		if ackErr := d.Ack(false); ackErr != nil {
			slog.WarnContext(ctx, "repair ack failed", "error", ackErr)
		}
	case domainErr.Retryable(err), errors.Is(err, domainErr.ErrPartialFailure):
		slog.WarnContext(ctx, "repair incomplete, requeueing", "kind", job.Kind, "event_id", job.EventID, "error", err)
		select {
		case <-ctx.Done():
		case <-time.After(w.requeueDelay):
		}
		_ = d.Nack(false, true)
	default:
		slog.ErrorContext(ctx, "repair failed permanently", "kind", job.Kind, "event_id", job.EventID, "error", err)
		_ = d.Nack(false, false)
	}
}

func (w *RepairWorker) run(ctx context.Context, job RepairJob) error {
	switch job.Kind {
	case RepairCompleteProvisioning:
		_, err := w.provisioning.Resume(ctx, job.TenantID)
		return err
	case RepairPointer:
		out, err := w.pointers.Handle(ctx, job.PersonID)
		if err == nil && out.Changed {
			slog.InfoContext(ctx, "pointer repaired from queue", "person_id", job.PersonID)
		}
		return err
	}
	return domainErr.Validationf("unknown repair kind %q", job.Kind)
}
