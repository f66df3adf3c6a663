package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"sqlmcp/internal/domain"
	"sqlmcp/internal/logger"
)

const schemaPathSuffix = "schema"

// ErrInvalidResourceURI is returned when a resource identifier does not end
// in the expected /schema suffix. The database is never touched in that case.
var ErrInvalidResourceURI = errors.New("Invalid resource identifier")

// Resource identifies one browsable table schema
type Resource struct {
	URI      string
	Name     string
	MimeType string
}

// ResourceContents is the payload returned when a resource is read
type ResourceContents struct {
	URI      string
	MimeType string
	Text     string
}

// schemaQueries provides database-specific metadata queries
type schemaQueries interface {
	listTables() (string, []interface{})
	listColumns(table string) (string, []interface{})
}

// postgresQueries implements schemaQueries for PostgreSQL
type postgresQueries struct{}

func (postgresQueries) listTables() (string, []interface{}) {
	return "SELECT table_name FROM information_schema.tables WHERE table_schema = 'public'", nil
}

func (postgresQueries) listColumns(table string) (string, []interface{}) {
	return `SELECT column_name AS "columnName", data_type AS "dataType" FROM information_schema.columns WHERE table_name = $1`,
		[]interface{}{table}
}

// mysqlQueries implements schemaQueries for MySQL
type mysqlQueries struct{}

func (mysqlQueries) listTables() (string, []interface{}) {
	return "SELECT table_name FROM information_schema.tables WHERE table_schema = DATABASE()", nil
}

func (mysqlQueries) listColumns(table string) (string, []interface{}) {
	return "SELECT column_name AS columnName, data_type AS dataType FROM information_schema.columns WHERE table_name = ? AND table_schema = DATABASE()",
		[]interface{}{table}
}

// newSchemaQueries creates the metadata queries for the given driver
func newSchemaQueries(driverName string) schemaQueries {
	switch driverName {
	case "postgres":
		return postgresQueries{}
	case "mysql":
		return mysqlQueries{}
	default:
		logger.Warn("Unknown database driver: %s, using postgres metadata queries", driverName)
		return postgresQueries{}
	}
}

// SchemaCatalog lists tables as browsable resources and answers
// schema-read requests for a single table.
type SchemaCatalog struct {
	pool    domain.Pool
	queries schemaQueries
	baseURI string
}

// NewSchemaCatalog creates a catalog for one database. baseURI must be
// credential-free; it becomes the prefix of every resource URI.
func NewSchemaCatalog(pool domain.Pool, driverName, baseURI string) *SchemaCatalog {
	return &SchemaCatalog{
		pool:    pool,
		queries: newSchemaQueries(driverName),
		baseURI: strings.TrimSuffix(baseURI, "/"),
	}
}

// ListResources builds one Resource per table visible in the default
// schema, in the engine's native order.
func (c *SchemaCatalog) ListResources(ctx context.Context) ([]Resource, error) {
	var resources []Resource

	query, args := c.queries.listTables()
	err := c.withReadOnlyTx(ctx, func(tx domain.Tx) error {
		rows, err := tx.Query(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to list tables: %w", err)
		}
		defer func() {
			if closeErr := rows.Close(); closeErr != nil {
				logger.Warn("error closing rows: %v", closeErr)
			}
		}()

		for rows.Next() {
			var tableName string
			if err := rows.Scan(&tableName); err != nil {
				return fmt.Errorf("failed to scan table name: %w", err)
			}
			resources = append(resources, Resource{
				URI:      fmt.Sprintf("%s/%s/%s", c.baseURI, tableName, schemaPathSuffix),
				Name:     fmt.Sprintf("%q database schema", tableName),
				MimeType: "application/json",
			})
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	return resources, nil
}

// ReadResource returns the column schema addressed by uri. A URI whose last
// path segment is not "schema" fails before any database access. A
// well-formed URI naming a non-existent table yields an empty column list,
// not an error.
func (c *SchemaCatalog) ReadResource(ctx context.Context, uri string) (*ResourceContents, error) {
	tableName, err := parseResourceURI(uri)
	if err != nil {
		return nil, err
	}

	var columns []map[string]interface{}

	query, args := c.queries.listColumns(tableName)
	err = c.withReadOnlyTx(ctx, func(tx domain.Tx) error {
		rows, err := tx.Query(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to read schema: %w", err)
		}
		defer func() {
			if closeErr := rows.Close(); closeErr != nil {
				logger.Warn("error closing rows: %v", closeErr)
			}
		}()

		columns, err = scanRowMaps(rows)
		return err
	})
	if err != nil {
		return nil, err
	}

	text, err := marshalRows(columns)
	if err != nil {
		return nil, err
	}

	return &ResourceContents{
		URI:      uri,
		MimeType: "application/json",
		Text:     text,
	}, nil
}

// parseResourceURI decomposes a resource URI into its table name by taking
// the last two path segments and checking the trailing suffix marker.
func parseResourceURI(uri string) (string, error) {
	parts := strings.Split(uri, "/")
	if len(parts) < 2 || parts[len(parts)-1] != schemaPathSuffix {
		return "", ErrInvalidResourceURI
	}
	tableName := parts[len(parts)-2]
	if tableName == "" {
		return "", ErrInvalidResourceURI
	}
	return tableName, nil
}

// withReadOnlyTx runs fn inside a read-only transaction on a leased
// connection. Read-only transactions are always closed by rollback, which
// discards no durable state; the connection is released on every path.
func (c *SchemaCatalog) withReadOnlyTx(ctx context.Context, fn func(domain.Tx) error) error {
	conn, err := c.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer func() {
		if relErr := conn.Release(); relErr != nil {
			logger.Warn("failed to release connection: %v", relErr)
		}
	}()

	tx, err := conn.Begin(ctx, &domain.TxOptions{ReadOnly: true})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, domain.ErrTxClosed) {
			logger.Warn("rollback failed during cleanup: %v", rbErr)
		}
	}()

	return fn(tx)
}
