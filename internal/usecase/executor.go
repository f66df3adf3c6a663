package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"sqlmcp/internal/domain"
	"sqlmcp/internal/logger"
)

// UnknownToolError is returned when an invocation names a tool outside the
// fixed catalog. No connection is borrowed in that case.
type UnknownToolError struct {
	Tool string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("Unknown tool: %s", e.Tool)
}

// CallResult is the successful outcome of a tool invocation
type CallResult struct {
	Text    string
	IsError bool
}

// SQLExecutor runs tool invocations through their transaction lifecycle:
// acquire a connection, begin a transaction in the tool's isolation mode,
// execute the caller's SQL verbatim, commit or roll back per policy, and
// release the connection on every exit path.
type SQLExecutor struct {
	pool domain.Pool
}

// NewSQLExecutor creates a new executor on top of the given pool
func NewSQLExecutor(pool domain.Pool) *SQLExecutor {
	return &SQLExecutor{pool: pool}
}

// CallTool executes the named tool with the caller-supplied SQL text. The
// SQL is passed through unmodified and unvalidated; the read-only
// transaction mode is what rejects writes issued through the query tool.
func (e *SQLExecutor) CallTool(ctx context.Context, name, sqlText string) (*CallResult, error) {
	policy, ok := toolPolicies[name]
	if !ok {
		return nil, &UnknownToolError{Tool: name}
	}

	conn, err := e.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer func() {
		if relErr := conn.Release(); relErr != nil {
			logger.Warn("failed to release connection: %v", relErr)
		}
	}()

	tx, err := conn.Begin(ctx, &domain.TxOptions{ReadOnly: policy.readOnly})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	// Safety-net rollback. A no-op once the transaction is committed or
	// rolled back; its own failure is a diagnostic, never the operation's
	// result.
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, domain.ErrTxClosed) {
			logger.Warn("rollback failed during cleanup of tool %s: %v", name, rbErr)
		}
	}()

	var text string
	if name == "query" {
		text, err = runQuery(ctx, tx, sqlText)
	} else {
		_, err = tx.Exec(ctx, sqlText)
		text = policy.successMessage
	}
	if err != nil {
		return nil, err
	}

	if policy.commitOnSuccess {
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("failed to commit transaction: %w", err)
		}
	}

	return &CallResult{Text: text}, nil
}

// runQuery executes a row-returning statement and serializes the row set as
// indented JSON.
func runQuery(ctx context.Context, tx domain.Tx, sqlText string) (string, error) {
	rows, err := tx.Query(ctx, sqlText)
	if err != nil {
		return "", err
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			logger.Warn("error closing rows: %v", closeErr)
		}
	}()

	results, err := scanRowMaps(rows)
	if err != nil {
		return "", err
	}

	return marshalRows(results)
}

// scanRowMaps reads all rows into column-keyed maps, converting []byte
// values to strings for serialization.
func scanRowMaps(rows domain.Rows) ([]map[string]interface{}, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get column names: %w", err)
	}

	results := []map[string]interface{}{}
	values := make([]interface{}, len(columns))
	valuePtrs := make([]interface{}, len(columns))
	for i := range columns {
		valuePtrs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			switch v := values[i].(type) {
			case []byte:
				row[col] = string(v)
			default:
				row[col] = v
			}
		}
		results = append(results, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading rows: %w", err)
	}

	return results, nil
}

// marshalRows renders scanned rows as the human-readable payload sent over
// the wire.
func marshalRows(results []map[string]interface{}) (string, error) {
	payload, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal results: %w", err)
	}
	return string(payload), nil
}
