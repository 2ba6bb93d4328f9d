package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgExecutor abstracts pgxpool.Pool and pgx.Tx so repositories can run inside
// or outside a transaction.
type pgExecutor interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repositories bundles all PostgreSQL-backed repositories over one pool.
type Repositories struct {
	Tenants     *TenantRepository
	Memberships *MembershipRepository
	Users       *UserRepository
}

// NewRepositories constructs the repository set.
func NewRepositories(pool *pgxpool.Pool) *Repositories {
	return &Repositories{
		Tenants:     NewTenantRepository(pool),
		Memberships: NewMembershipRepository(pool),
		Users:       NewUserRepository(pool),
	}
}
