package repository

import (
	"context"
	"database/sql"
	"errors"

	"sqlmcp/internal/domain"
	"sqlmcp/pkg/db"
)

// SQLPool adapts a db.Database to the domain.Pool interface
type SQLPool struct {
	db db.Database
}

// NewSQLPool creates a pool backed by the given database handle
func NewSQLPool(database db.Database) *SQLPool {
	return &SQLPool{db: database}
}

// Acquire leases a dedicated connection from the underlying pool
func (p *SQLPool) Acquire(ctx context.Context) (domain.Conn, error) {
	conn, err := p.db.AcquireConn(ctx)
	if err != nil {
		return nil, err
	}
	return &connAdapter{conn: conn}, nil
}

// connAdapter adapts *sql.Conn to domain.Conn
type connAdapter struct {
	conn *sql.Conn
}

// Begin starts a transaction on the leased connection
func (a *connAdapter) Begin(ctx context.Context, opts *domain.TxOptions) (domain.Tx, error) {
	txOpts := &sql.TxOptions{}
	if opts != nil {
		txOpts.ReadOnly = opts.ReadOnly
	}

	tx, err := a.conn.BeginTx(ctx, txOpts)
	if err != nil {
		return nil, err
	}
	return &txAdapter{tx: tx}, nil
}

// Release returns the connection to the pool
func (a *connAdapter) Release() error {
	return a.conn.Close()
}

// txAdapter adapts *sql.Tx to domain.Tx
type txAdapter struct {
	tx *sql.Tx
}

// Commit commits the transaction
func (a *txAdapter) Commit() error {
	if err := a.tx.Commit(); err != nil {
		if errors.Is(err, sql.ErrTxDone) {
			return domain.ErrTxClosed
		}
		return err
	}
	return nil
}

// Rollback rolls back the transaction
func (a *txAdapter) Rollback() error {
	if err := a.tx.Rollback(); err != nil {
		if errors.Is(err, sql.ErrTxDone) {
			return domain.ErrTxClosed
		}
		return err
	}
	return nil
}

// Query executes a query within the transaction
func (a *txAdapter) Query(ctx context.Context, query string, args ...interface{}) (domain.Rows, error) {
	rows, err := a.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return &rowsAdapter{rows: rows}, nil
}

// Exec executes a statement within the transaction
func (a *txAdapter) Exec(ctx context.Context, statement string, args ...interface{}) (domain.Result, error) {
	result, err := a.tx.ExecContext(ctx, statement, args...)
	if err != nil {
		return nil, err
	}
	return &resultAdapter{result: result}, nil
}

// rowsAdapter adapts *sql.Rows to domain.Rows
type rowsAdapter struct {
	rows *sql.Rows
}

func (a *rowsAdapter) Close() error {
	return a.rows.Close()
}

func (a *rowsAdapter) Columns() ([]string, error) {
	return a.rows.Columns()
}

func (a *rowsAdapter) Next() bool {
	return a.rows.Next()
}

func (a *rowsAdapter) Scan(dest ...interface{}) error {
	return a.rows.Scan(dest...)
}

func (a *rowsAdapter) Err() error {
	return a.rows.Err()
}

// resultAdapter adapts sql.Result to domain.Result
type resultAdapter struct {
	result sql.Result
}

func (a *resultAdapter) RowsAffected() (int64, error) {
	return a.result.RowsAffected()
}

func (a *resultAdapter) LastInsertId() (int64, error) {
	return a.result.LastInsertId()
}
