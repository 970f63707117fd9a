package loader

import (
	"context"

	"github.com/jackc/pgx/v5/pgconn"
)

// Execer is the slice of the database pool the loaders need. pgxpool.Pool
// satisfies it; tests substitute a recorder.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}
