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

const uniqueViolation = "23505"

// TenantRepository implements tenant persistence operations.
type TenantRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewTenantRepository constructs a PostgreSQL-backed tenant repository.
func NewTenantRepository(pool *pgxpool.Pool) *TenantRepository {
	return &TenantRepository{
		pool:    pool,
		exec:    pool,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// WithTx returns a repository configured to execute within the provided transaction.
func (r *TenantRepository) WithTx(tx pgx.Tx) *TenantRepository {
	if tx == nil {
		return r
	}
	return &TenantRepository{pool: r.pool, exec: tx, builder: r.builder}
}

// Create inserts a new tenant.
func (r *TenantRepository) Create(ctx context.Context, tenant domain.Tenant) error {
	stmt, args, err := r.builder.Insert("authz.tenants").
		Columns("id", "name", "slug", "description", "created_at", "updated_at").
		Values(tenant.ID, tenant.Name, tenant.Slug, tenant.Description, tenant.CreatedAt, tenant.UpdatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert tenant sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return repository.ErrConflict
		}
		return fmt.Errorf("insert tenant: %w", err)
	}

	return nil
}

// GetByID fetches a tenant by its identifier.
func (r *TenantRepository) GetByID(ctx context.Context, id string) (*domain.Tenant, error) {
	return r.getBy(ctx, squirrel.Eq{"id": id})
}

// GetBySlug fetches a tenant by its URL slug.
func (r *TenantRepository) GetBySlug(ctx context.Context, slug string) (*domain.Tenant, error) {
	return r.getBy(ctx, squirrel.Eq{"slug": slug})
}

func (r *TenantRepository) getBy(ctx context.Context, cond squirrel.Eq) (*domain.Tenant, error) {
	stmt, args, err := r.builder.Select("id", "name", "slug", "description", "created_at", "updated_at").
		From("authz.tenants").
		Where(cond).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select tenant sql: %w", err)
	}

	var tenant domain.Tenant
	row := r.exec.QueryRow(ctx, stmt, args...)
	if err := row.Scan(&tenant.ID, &tenant.Name, &tenant.Slug, &tenant.Description, &tenant.CreatedAt, &tenant.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("select tenant: %w", err)
	}

	return &tenant, nil
}

// List returns all tenants ordered by name.
func (r *TenantRepository) List(ctx context.Context) ([]domain.Tenant, error) {
	stmt, args, err := r.builder.Select("id", "name", "slug", "description", "created_at", "updated_at").
		From("authz.tenants").
		OrderBy("name ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list tenants sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	defer rows.Close()

	tenants := make([]domain.Tenant, 0)
	for rows.Next() {
		var tenant domain.Tenant
		if err := rows.Scan(&tenant.ID, &tenant.Name, &tenant.Slug, &tenant.Description, &tenant.CreatedAt, &tenant.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan tenant: %w", err)
		}
		tenants = append(tenants, tenant)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tenants: %w", err)
	}

	return tenants, nil
}

// Update modifies tenant fields.
func (r *TenantRepository) Update(ctx context.Context, tenant domain.Tenant) error {
	stmt, args, err := r.builder.Update("authz.tenants").
		Set("name", tenant.Name).
		Set("description", tenant.Description).
		Set("updated_at", tenant.UpdatedAt).
		Where(squirrel.Eq{"id": tenant.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update tenant sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update tenant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// Delete removes a tenant. Memberships cascade via foreign key.
func (r *TenantRepository) Delete(ctx context.Context, id string) error {
	stmt, args, err := r.builder.Delete("authz.tenants").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete tenant sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("delete tenant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}
