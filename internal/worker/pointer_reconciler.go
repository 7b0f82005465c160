// internal/worker/pointer_reconciler.go
package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/app/commands"
)

/*
Every membership change writes two records: the roster row and the person's
club pointer. When the second write fails after retries the command reports
partial_failure and a repair job is queued, but a crash between the two
writes queues nothing. This worker is the backstop: it walks every person and
recomputes the pointer from the roster. RepairPointer writes only when the
stored pointer differs, so a pass over a healthy database is read-only.
*/

// PersonLister pages through person ids in ascending order.
type PersonLister interface {
	ListPersonIDs(ctx context.Context, after uuid.UUID, limit int) ([]uuid.UUID, error)
}

type PointerRepairer interface {
	Handle(ctx context.Context, personID uuid.UUID) (commands.RepairOutcome, error)
}

type Reconciler struct {
	persons  PersonLister
	repairer PointerRepairer

	interval    time.Duration
	batchSize   int // persons fetched per page
	workerCount int // concurrent repairs per page
}

// PassStats summarises one full pass.
type PassStats struct {
	Checked  int
	Repaired int
	Failed   int
}

func NewReconciler(persons PersonLister, repairer PointerRepairer, interval time.Duration, batchSize, workerCount int) *Reconciler {
	if batchSize <= 0 {
		batchSize = 200
	}
	if workerCount <= 0 {
		workerCount = 1
	}
	return &Reconciler{
		persons:     persons,
		repairer:    repairer,
		interval:    interval,
		batchSize:   batchSize,
		workerCount: workerCount,
	}
}

// Start runs a pass immediately and then on every tick. Blocks until ctx is
// cancelled.
func (r *Reconciler) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	slog.Info("pointer reconciler started", "interval", r.interval, "batch", r.batchSize, "workers", r.workerCount)

	r.RunPass(ctx)
	for {
		select {
		case <-ctx.Done():
			slog.Info("pointer reconciler stopping")
			return
		case <-ticker.C:
			r.RunPass(ctx)
		}
	}
}

// RunPass walks every person once.
func (r *Reconciler) RunPass(ctx context.Context) PassStats {
	var stats PassStats
	started := time.Now()
	after := uuid.Nil

	for ctx.Err() == nil {
		ids, err := r.persons.ListPersonIDs(ctx, after, r.batchSize)
		if err != nil {
			slog.ErrorContext(ctx, "reconciler page read failed", "after", after, "error", err)
			break
		}
		if len(ids) == 0 {
			break
		}
		page := r.processPage(ctx, ids)
		stats.Checked += page.Checked
		stats.Repaired += page.Repaired
		stats.Failed += page.Failed

		after = ids[len(ids)-1]
		if len(ids) < r.batchSize {
			break
		}
	}

	slog.InfoContext(ctx, "reconciliation pass complete",
		"checked", stats.Checked, "repaired", stats.Repaired, "failed", stats.Failed,
		"duration", time.Since(started))
	return stats
}

func (r *Reconciler) processPage(ctx context.Context, ids []uuid.UUID) PassStats {
	jobs := make(chan uuid.UUID, len(ids))
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		stats PassStats
	)

	for w := 0; w < r.workerCount; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for personID := range jobs {
				out, err := r.repairer.Handle(ctx, personID)

				mu.Lock()
				stats.Checked++
				switch {
				case err != nil:
					stats.Failed++
				case out.Changed:
					stats.Repaired++
				}
				mu.Unlock()

				if err != nil {
					slog.WarnContext(ctx, "pointer repair failed", "worker", id, "person_id", personID, "error", err)
				}
			}
		}(w)
	}

	for _, id := range ids {
		jobs <- id
	}
	close(jobs)
	wg.Wait()
	return stats
}
