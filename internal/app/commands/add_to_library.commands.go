// internal/app/commands/add_to_library.commands.go
package commands

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/audit"
	domainErr "github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/errors"
	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/library"
	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/policy"
	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/tenant"
	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/ports/repository"
)

type AddToLibraryCmd struct {
	tenantRepo  repository.TenantStore
	libraryRepo repository.LibraryStore
	catalogRepo repository.CatalogStore
	actors      *ActorLoader
	recorder    *Recorder
}

func NewAddToLibraryCmd(
	t repository.TenantStore,
	l repository.LibraryStore,
	c repository.CatalogStore,
	a *ActorLoader,
	r *Recorder,
) *AddToLibraryCmd {
	return &AddToLibraryCmd{t, l, c, a, r}
}

type AddToLibraryParams struct {
	TenantID      uuid.UUID
	CatalogItemID uuid.UUID
}

func (h *AddToLibraryCmd) Handle(ctx context.Context, principal policy.Principal, params AddToLibraryParams) (a *library.Association, err error) {
	ctx, span := tracer.Start(ctx, "Commands.AddToLibrary")
	defer func() { endSpan(span, err) }()

	if params.TenantID == uuid.Nil || params.CatalogItemID == uuid.Nil {
		return nil, domainErr.ErrInvalidInput
	}

	var (
		actor        policy.Actor
		targetTenant *tenant.Tenant
		itemExists   bool
	)
	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		loaded, err := h.actors.Load(gctx, principal)
		actor = loaded
		return err
	})
	group.Go(func() error {
		t, err := h.tenantRepo.GetTenantByID(gctx, params.TenantID)
		targetTenant = t
		return err
	})
	group.Go(func() error {
		ok, err := h.catalogRepo.ItemExists(gctx, params.CatalogItemID)
		itemExists = ok
		return err
	})
	if err := group.Wait(); err != nil {
		return nil, err
	}

	if err := policy.CanPerform(actor, policy.ActionManageTenant, policy.Target{Tenant: targetTenant}).Err(); err != nil {
		return nil, err
	}
	if !itemExists {
		return nil, domainErr.ErrCatalogItemNotFound
	}

	a = &library.Association{
		TenantID:      params.TenantID,
		CatalogItemID: params.CatalogItemID,
		AddedBy:       actor.ID,
		AddedAt:       time.Now().UTC(),
	}
	// Conditional insert: a duplicate surfaces as ErrAlreadyInLibrary.
	if err := h.libraryRepo.AddItem(ctx, a); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "library item added", "tenant_id", params.TenantID, "catalog_item_id", params.CatalogItemID)
	tenantID, itemID := params.TenantID, params.CatalogItemID
	h.recorder.Record(ctx, audit.New(audit.ActionLibraryItemAdded, actor.ID, &tenantID, &itemID, nil))
	return a, nil
}

// LibraryQuery holds the read-only library projections.
type LibraryQuery struct {
	tenantRepo  repository.TenantStore
	libraryRepo repository.LibraryStore
}

func NewLibraryQuery(t repository.TenantStore, l repository.LibraryStore) *LibraryQuery {
	return &LibraryQuery{t, l}
}

// ListForTenant returns the tenant's library, oldest addition first.
func (q *LibraryQuery) ListForTenant(ctx context.Context, principal policy.Principal, tenantID uuid.UUID) ([]library.Association, error) {
	if !principal.Authenticated {
		return nil, domainErr.ErrForbidden
	}
	if _, err := q.tenantRepo.GetTenantByID(ctx, tenantID); err != nil {
		return nil, err
	}
	items, err := q.libraryRepo.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].AddedAt.Equal(items[j].AddedAt) {
			return items[i].AddedAt.Before(items[j].AddedAt)
		}
		return items[i].CatalogItemID.String() < items[j].CatalogItemID.String()
	})
	return items, nil
}

func (q *LibraryQuery) IsInLibrary(ctx context.Context, principal policy.Principal, tenantID, catalogItemID uuid.UUID) (bool, error) {
	if !principal.Authenticated {
		return false, domainErr.ErrForbidden
	}
	return q.libraryRepo.Exists(ctx, tenantID, catalogItemID)
}
