package domain

import (
	"context"
	"errors"
)

// ErrTxClosed marks a commit or rollback against a transaction that has
// already been finished. The cleanup path treats it as a no-op.
var ErrTxClosed = errors.New("transaction already closed")

// TxOptions represents options for starting a transaction
type TxOptions struct {
	ReadOnly bool
}

// Pool lends dedicated database connections
type Pool interface {
	// Acquire leases a connection. It may block while the pool is at
	// capacity. The returned Conn is owned exclusively by the caller until
	// Release is called, which must happen exactly once.
	Acquire(ctx context.Context) (Conn, error)
}

// Conn is a leased database connection
type Conn interface {
	Begin(ctx context.Context, opts *TxOptions) (Tx, error)
	Release() error
}

// Tx represents a database transaction
type Tx interface {
	Query(ctx context.Context, query string, args ...interface{}) (Rows, error)
	Exec(ctx context.Context, statement string, args ...interface{}) (Result, error)
	Commit() error
	Rollback() error
}

// Rows represents database query results
type Rows interface {
	Close() error
	Columns() ([]string, error)
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

// Result represents the result of a database statement
type Result interface {
	RowsAffected() (int64, error)
	LastInsertId() (int64, error)
}
