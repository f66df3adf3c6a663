package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq" // PostgreSQL driver
)

// Common database errors
var (
	ErrNoDatabase = errors.New("no database connection")
)

// Config represents database connection configuration
type Config struct {
	// DSN is the connection address, either a postgres:// URL or a
	// go-sql-driver MySQL DSN (user:pass@tcp(host:port)/dbname).
	DSN string
	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// SetDefaults sets default values for the configuration if they are not set
func (c *Config) SetDefaults() {
	if c.MaxOpenConns == 0 {
		c.MaxOpenConns = 10
	}
	if c.MaxIdleConns == 0 {
		c.MaxIdleConns = 5
	}
	if c.ConnMaxLifetime == 0 {
		c.ConnMaxLifetime = 5 * time.Minute
	}
	if c.ConnMaxIdleTime == 0 {
		c.ConnMaxIdleTime = 5 * time.Minute
	}
}

// Database represents a generic database interface
type Database interface {
	// Connection management
	Connect() error
	Close() error
	Ping(ctx context.Context) error

	// AcquireConn leases a dedicated connection from the pool. The caller
	// owns it until Close is called on it, which must happen exactly once.
	AcquireConn(ctx context.Context) (*sql.Conn, error)

	// Metadata
	DriverName() string
	DatabaseName() string
	// BaseURI is the credential-free address used as the resource URI base
	// and in logs. The DSN's credential component never appears in it.
	BaseURI() string

	// DB object access (for specific DB operations)
	DB() *sql.DB
}

// database is the concrete implementation of the Database interface
type database struct {
	config     Config
	db         *sql.DB
	driverName string
	dsn        string
	dbName     string
	baseURI    string
}

// NewDatabase creates a new database handle from the provided configuration.
// The driver is inferred from the connection address.
func NewDatabase(config Config) (Database, error) {
	config.SetDefaults()

	d := &database{
		config: config,
		dsn:    config.DSN,
	}

	if strings.HasPrefix(config.DSN, "postgres://") || strings.HasPrefix(config.DSN, "postgresql://") {
		u, err := url.Parse(config.DSN)
		if err != nil {
			return nil, fmt.Errorf("invalid postgres connection address: %w", err)
		}
		d.driverName = "postgres"
		d.dbName = strings.TrimPrefix(u.Path, "/")
		// url.URL.Host carries no userinfo, so credentials cannot leak here.
		d.baseURI = fmt.Sprintf("postgres://%s/%s", u.Host, d.dbName)
		return d, nil
	}

	cfg, err := mysql.ParseDSN(config.DSN)
	if err != nil {
		return nil, fmt.Errorf("unsupported connection address: %w", err)
	}
	d.driverName = "mysql"
	d.dbName = cfg.DBName
	d.baseURI = fmt.Sprintf("mysql://%s/%s", cfg.Addr, cfg.DBName)
	return d, nil
}

// Connect establishes a connection to the database
func (d *database) Connect() error {
	db, err := sql.Open(d.driverName, d.dsn)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(d.config.MaxOpenConns)
	db.SetMaxIdleConns(d.config.MaxIdleConns)
	db.SetConnMaxLifetime(d.config.ConnMaxLifetime)
	db.SetConnMaxIdleTime(d.config.ConnMaxIdleTime)

	// Verify connection is working
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return fmt.Errorf("failed to ping database: %w (close: %v)", err, closeErr)
		}
		return fmt.Errorf("failed to ping database: %w", err)
	}

	d.db = db
	return nil
}

// Close closes the database connection
func (d *database) Close() error {
	if d.db == nil {
		return nil
	}
	return d.db.Close()
}

// Ping checks if the database connection is still alive
func (d *database) Ping(ctx context.Context) error {
	if d.db == nil {
		return ErrNoDatabase
	}
	return d.db.PingContext(ctx)
}

// AcquireConn leases a single connection from the pool. It blocks while the
// pool is at capacity.
func (d *database) AcquireConn(ctx context.Context) (*sql.Conn, error) {
	if d.db == nil {
		return nil, ErrNoDatabase
	}
	return d.db.Conn(ctx)
}

// DB returns the underlying database connection
func (d *database) DB() *sql.DB {
	return d.db
}

// DriverName returns the name of the database driver
func (d *database) DriverName() string {
	return d.driverName
}

// DatabaseName returns the database name parsed from the connection address
func (d *database) DatabaseName() string {
	return d.dbName
}

// BaseURI returns the credential-free connection address
func (d *database) BaseURI() string {
	return d.baseURI
}
