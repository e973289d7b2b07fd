package postgres

import (
	"context"
	"database/sql"
)

// DBTX is the query surface shared by *sqlx.DB and *sqlx.Tx. The
// repositories are built against it so the same code serves direct
// reads and the transaction-scoped writes produced by Repos.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
}
