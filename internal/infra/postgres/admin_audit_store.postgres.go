// internal/infra/postgres/admin_audit_store.postgres.go
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/admin"
	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/audit"
	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/ports/repository"
)

var (
	_ repository.AdminRoleStore = (*AdminRoleStore)(nil)
	_ repository.AuditStore     = (*AuditStore)(nil)
)

type AdminRoleStore struct {
	db *sql.DB
}

func NewAdminRoleStore(db *sql.DB) *AdminRoleStore {
	return &AdminRoleStore{db: db}
}

func (s *AdminRoleStore) GrantRole(ctx context.Context, g *admin.RoleGrant) (bool, error) {
	query := `
		INSERT INTO admin_role_grants (person_id, role, granted_by, granted_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (person_id, role) DO NOTHING`

	res, err := conn(ctx, s.db).ExecContext(ctx, query, g.PersonID, string(g.Role), g.GrantedBy, g.GrantedAt)
	if err != nil {
		return false, classify("grant_role", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, classify("grant_role", err)
	}
	return n == 1, nil
}

func (s *AdminRoleStore) RevokeRole(ctx context.Context, personID uuid.UUID, role admin.Role) (bool, error) {
	res, err := conn(ctx, s.db).ExecContext(ctx,
		`DELETE FROM admin_role_grants WHERE person_id = $1 AND role = $2`, personID, string(role))
	if err != nil {
		return false, classify("revoke_role", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, classify("revoke_role", err)
	}
	return n > 0, nil
}

func (s *AdminRoleStore) ListGrants(ctx context.Context, personID uuid.UUID) ([]admin.RoleGrant, error) {
	query := `
		SELECT person_id, role, granted_by, granted_at
		FROM admin_role_grants
		WHERE person_id = $1
		ORDER BY role`

	rows, err := conn(ctx, s.db).QueryContext(ctx, query, personID)
	if err != nil {
		return nil, classify("list_grants", err)
	}
	defer rows.Close()

	var out []admin.RoleGrant
	for rows.Next() {
		var (
			g    admin.RoleGrant
			role string
			by   uuid.NullUUID
		)
		if err := rows.Scan(&g.PersonID, &role, &by, &g.GrantedAt); err != nil {
			return nil, classify("list_grants", err)
		}
		g.Role = admin.Role(role)
		g.GrantedBy = uuidPtr(by)
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list_grants", err)
	}
	return out, nil
}

type AuditStore struct {
	db *sql.DB
}

func NewAuditStore(db *sql.DB) *AuditStore {
	return &AuditStore{db: db}
}

func (s *AuditStore) Append(ctx context.Context, ev *audit.AuditEvent) error {
	meta := ev.Metadata
	if meta == nil {
		meta = map[string]any{}
	}
	payload, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal audit metadata: %w", err)
	}

	query := `
		INSERT INTO audit_events (id, actor_id, tenant_id, action, target_id, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err = conn(ctx, s.db).ExecContext(ctx, query,
		ev.ID,
		ev.ActorUserID,
		ev.TenantID,
		ev.Action,
		ev.TargetID,
		payload,
		ev.CreatedAt,
	)
	return classify("append_audit_event", err)
}
