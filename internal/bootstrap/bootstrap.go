// internal/bootstrap/bootstrap.go
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/app/commands"
	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/infra/cache"
	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/infra/memory"
	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/infra/postgres"
	portcache "github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/ports/cache"
	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/ports/events"
	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/ports/repository"
	"github.com/Alexandr1st/libratio-abfcdf53-sub000/shared/config"
	pkgkafka "github.com/Alexandr1st/libratio-abfcdf53-sub000/shared/kafka"
)

// Stores is every persistence port the commands need.
type Stores struct {
	Persons     repository.PersonStore
	Tenants     repository.TenantStore
	Memberships repository.MemberShipStore
	Readings    repository.ReadingStore
	Library     repository.LibraryStore
	Catalog     repository.CatalogStore
	Roles       repository.AdminRoleStore
	Audit       repository.AuditStore
	Tx          repository.TransactionManager
}

// MemoryStores backs every port with one in-memory store.
func MemoryStores(s *memory.Store) Stores {
	return Stores{
		Persons:     s,
		Tenants:     s,
		Memberships: s,
		Readings:    s,
		Library:     s,
		Catalog:     s,
		Roles:       s,
		Audit:       s,
		Tx:          s,
	}
}

func postgresStores(s *postgres.Stores) Stores {
	return Stores{
		Persons:     s.Persons,
		Tenants:     s.Tenants,
		Memberships: s.Memberships,
		Readings:    s.Readings,
		Library:     s.Library,
		Catalog:     s.Catalog,
		Roles:       s.Roles,
		Audit:       s.Audit,
		Tx:          s.Tx,
	}
}

// App holds one instance of every command and query.
type App struct {
	Stores Stores

	RegisterPerson      *commands.RegisterPersonCmd
	JoinTenant          *commands.JoinTenantCmd
	LeaveTenant         *commands.LeaveTenantCmd
	RemoveMember        *commands.RemoveMemberCmd
	UpdateMember        *commands.UpdateMemberCmd
	ReassignMembership  *commands.ReassignMembershipCmd
	RepairPointer       *commands.RepairPointerCmd
	ProvisionTenant     *commands.ProvisionTenantCmd
	CompleteProvision   *commands.CompleteProvisioningCmd
	EnsureProvisioned   *commands.EnsureProvisionedCmd
	UpdateTenantProfile *commands.UpdateTenantProfileCmd
	AddToLibrary        *commands.AddToLibraryCmd
	SetReadingStatus    *commands.SetReadingStatusCmd
	RecordOpinion       *commands.RecordOpinionCmd
	DiaryEntry          *commands.DiaryEntryCmd
	GrantRole           *commands.GrantRoleCmd
	RevokeRole          *commands.RevokeRoleCmd

	Memberships *commands.MembershipQuery
	Library     *commands.LibraryQuery
	Readings    *commands.ReadingRecordQuery
}

// New wires the commands. roles and publisher may be nil.
func New(s Stores, roles portcache.RoleCache, publisher events.Publisher, retry commands.RetryPolicy) *App {
	actors := commands.NewActorLoader(s.Roles, roles)
	rec := commands.NewRecorder(s.Audit, publisher)

	provision := commands.NewProvisionTenantCmd(s.Persons, s.Tenants, s.Memberships, actors, rec, retry)
	complete := commands.NewCompleteProvisioningCmd(s.Persons, s.Tenants, s.Memberships, actors, rec, retry)

	return &App{
		Stores: s,

		RegisterPerson:      commands.NewRegisterPersonCmd(s.Persons, actors, rec),
		JoinTenant:          commands.NewJoinTenantCmd(s.Persons, s.Tenants, s.Memberships, actors, rec),
		LeaveTenant:         commands.NewLeaveTenantCmd(s.Persons, s.Tenants, s.Memberships, actors, rec, retry),
		RemoveMember:        commands.NewRemoveMemberCmd(s.Persons, s.Tenants, s.Memberships, actors, rec, retry),
		UpdateMember:        commands.NewUpdateMemberCmd(s.Tenants, s.Memberships, actors, rec),
		ReassignMembership:  commands.NewReassignMembershipCmd(s.Persons, s.Tenants, s.Memberships, actors, rec, retry),
		RepairPointer:       commands.NewRepairPointerCmd(s.Persons, s.Tenants, s.Memberships, s.Tx, rec),
		ProvisionTenant:     provision,
		CompleteProvision:   complete,
		EnsureProvisioned:   commands.NewEnsureProvisionedCmd(s.Tenants, actors, provision, complete),
		UpdateTenantProfile: commands.NewUpdateTenantProfileCmd(s.Tenants, actors, rec),
		AddToLibrary:        commands.NewAddToLibraryCmd(s.Tenants, s.Library, s.Catalog, actors, rec),
		SetReadingStatus:    commands.NewSetReadingStatusCmd(s.Readings, s.Catalog, actors),
		RecordOpinion:       commands.NewRecordOpinionCmd(s.Readings, s.Catalog, actors),
		DiaryEntry:          commands.NewDiaryEntryCmd(s.Readings, s.Catalog, actors),
		GrantRole:           commands.NewGrantRoleCmd(s.Persons, s.Roles, actors, rec),
		RevokeRole:          commands.NewRevokeRoleCmd(s.Roles, actors, rec),

		Memberships: commands.NewMembershipQuery(s.Tenants, s.Memberships),
		Library:     commands.NewLibraryQuery(s.Tenants, s.Library),
		Readings:    commands.NewReadingRecordQuery(s.Readings),
	}
}

// RetryPolicy builds the store retry policy from config.
func RetryPolicy(cfg *config.CommonConfig) commands.RetryPolicy {
	p := commands.DefaultRetryPolicy
	p.MaxRetries = cfg.STORE_RETRY_MAX
	p.InitialInterval = cfg.STORE_RETRY_INITIAL
	return p
}

// FromConfig opens the configured store, role cache and event producer and
// wires the App. The returned cleanup closes them in reverse order.
func FromConfig(ctx context.Context, cfg *config.CommonConfig) (*App, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var stores Stores
	switch cfg.STORE_DRIVER {
	case "memory":
		slog.Warn("using in-memory store; state is lost on exit")
		stores = MemoryStores(memory.NewStore())
	case "postgres":
		db, err := postgres.Open(ctx, cfg.GetDBURL())
		if err != nil {
			return nil, cleanup, err
		}
		closers = append(closers, func() { _ = db.Close() })
		if err := postgres.Migrate(ctx, db); err != nil {
			cleanup()
			return nil, func() {}, err
		}
		stores = postgresStores(postgres.NewStores(db))
	default:
		return nil, cleanup, fmt.Errorf("unknown STORE_DRIVER %q", cfg.STORE_DRIVER)
	}

	var roles portcache.RoleCache
	if cfg.REDIS_ADDR != "" {
		rdb, err := cache.NewRedisClient(ctx, cfg.REDIS_ADDR, cfg.REDIS_PASSWORD, cfg.REDIS_DB)
		if err != nil {
			cleanup()
			return nil, func() {}, err
		}
		closers = append(closers, func() { _ = rdb.Close() })
		roles = cache.NewRedisRoleCache(rdb, cfg.ROLE_CACHE_TTL)
	} else {
		roles = cache.NewLocalRoleCache(cfg.ROLE_CACHE_TTL)
	}

	var publisher events.Publisher
	if cfg.KAFKA_BROKER != "" && cfg.KAFKA_TOPIC != "" {
		producer := pkgkafka.NewKafkaProducer(cfg.KAFKA_BROKER, cfg.KAFKA_TOPIC)
		closers = append(closers, func() { _ = producer.Close() })
		publisher = producer
	}

	return New(stores, roles, publisher, RetryPolicy(cfg)), cleanup, nil
}
