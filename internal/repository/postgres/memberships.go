package postgres

import (
	"context"
	"errors"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cevi/onlinemat-sub000/internal/core/domain"
	"github.com/cevi/onlinemat-sub000/internal/repository"
)

// MembershipRepository implements membership persistence operations. It is
// the durable source of truth for every user's tenant-role map.
type MembershipRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewMembershipRepository constructs a PostgreSQL-backed membership repository.
func NewMembershipRepository(pool *pgxpool.Pool) *MembershipRepository {
	return &MembershipRepository{
		pool:    pool,
		exec:    pool,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// WithTx returns a repository configured to execute within the provided transaction.
func (r *MembershipRepository) WithTx(tx pgx.Tx) *MembershipRepository {
	if tx == nil {
		return r
	}
	return &MembershipRepository{pool: r.pool, exec: tx, builder: r.builder}
}

// Create inserts a new membership. One membership per user and tenant.
func (r *MembershipRepository) Create(ctx context.Context, membership domain.Membership) error {
	stmt, args, err := r.builder.Insert("authz.memberships").
		Columns("id", "user_id", "tenant_id", "role", "banned", "created_at", "updated_at").
		Values(membership.ID, membership.UserID, membership.TenantID, string(membership.Role), membership.Banned, membership.CreatedAt, membership.UpdatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert membership sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return repository.ErrConflict
		}
		return fmt.Errorf("insert membership: %w", err)
	}

	return nil
}

// GetByID fetches a membership by its identifier.
func (r *MembershipRepository) GetByID(ctx context.Context, id string) (*domain.Membership, error) {
	return r.getBy(ctx, squirrel.Eq{"id": id})
}

// GetByUserAndTenant fetches the membership a user holds in a tenant.
func (r *MembershipRepository) GetByUserAndTenant(ctx context.Context, userID, tenantID string) (*domain.Membership, error) {
	return r.getBy(ctx, squirrel.Eq{"user_id": userID, "tenant_id": tenantID})
}

func (r *MembershipRepository) getBy(ctx context.Context, cond squirrel.Eq) (*domain.Membership, error) {
	stmt, args, err := r.builder.Select("id", "user_id", "tenant_id", "role", "banned", "created_at", "updated_at").
		From("authz.memberships").
		Where(cond).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select membership sql: %w", err)
	}

	var membership domain.Membership
	var role string
	row := r.exec.QueryRow(ctx, stmt, args...)
	if err := row.Scan(&membership.ID, &membership.UserID, &membership.TenantID, &role, &membership.Banned, &membership.CreatedAt, &membership.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("select membership: %w", err)
	}
	membership.Role = domain.TenantRole(role)

	return &membership, nil
}

// ListByTenant returns all memberships of a tenant.
func (r *MembershipRepository) ListByTenant(ctx context.Context, tenantID string) ([]domain.Membership, error) {
	return r.listBy(ctx, squirrel.Eq{"tenant_id": tenantID})
}

// ListByUser returns all memberships a user holds.
func (r *MembershipRepository) ListByUser(ctx context.Context, userID string) ([]domain.Membership, error) {
	return r.listBy(ctx, squirrel.Eq{"user_id": userID})
}

func (r *MembershipRepository) listBy(ctx context.Context, cond squirrel.Eq) ([]domain.Membership, error) {
	stmt, args, err := r.builder.Select("id", "user_id", "tenant_id", "role", "banned", "created_at", "updated_at").
		From("authz.memberships").
		Where(cond).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list memberships sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	defer rows.Close()

	memberships := make([]domain.Membership, 0)
	for rows.Next() {
		var membership domain.Membership
		var role string
		if err := rows.Scan(&membership.ID, &membership.UserID, &membership.TenantID, &role, &membership.Banned, &membership.CreatedAt, &membership.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan membership: %w", err)
		}
		membership.Role = domain.TenantRole(role)
		memberships = append(memberships, membership)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate memberships: %w", err)
	}

	return memberships, nil
}

// RolesByUser collapses a user's memberships into the tenant-role map the
// policy builder consumes. Banned memberships keep their role: the builder
// does not consult the flag, ban enforcement lives at the membership layer.
func (r *MembershipRepository) RolesByUser(ctx context.Context, userID string) (map[string]domain.TenantRole, error) {
	stmt, args, err := r.builder.Select("tenant_id", "role").
		From("authz.memberships").
		Where(squirrel.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build roles sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query roles: %w", err)
	}
	defer rows.Close()

	roles := make(map[string]domain.TenantRole)
	for rows.Next() {
		var tenantID, role string
		if err := rows.Scan(&tenantID, &role); err != nil {
			return nil, fmt.Errorf("scan role: %w", err)
		}
		roles[tenantID] = domain.TenantRole(role)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate roles: %w", err)
	}

	return roles, nil
}

// Update modifies role and ban flag.
func (r *MembershipRepository) Update(ctx context.Context, membership domain.Membership) error {
	stmt, args, err := r.builder.Update("authz.memberships").
		Set("role", string(membership.Role)).
		Set("banned", membership.Banned).
		Set("updated_at", membership.UpdatedAt).
		Where(squirrel.Eq{"id": membership.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update membership sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update membership: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// Delete removes a membership.
func (r *MembershipRepository) Delete(ctx context.Context, id string) error {
	stmt, args, err := r.builder.Delete("authz.memberships").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete membership sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("delete membership: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// DeleteByTenant removes every membership of a tenant. Zero affected rows is
// fine, the tenant may simply have had no members left.
func (r *MembershipRepository) DeleteByTenant(ctx context.Context, tenantID string) error {
	stmt, args, err := r.builder.Delete("authz.memberships").
		Where(squirrel.Eq{"tenant_id": tenantID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete memberships sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("delete memberships: %w", err)
	}

	return nil
}
