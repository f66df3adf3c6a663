package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"sqlmcp/internal/config"
	"sqlmcp/internal/logger"
	"sqlmcp/internal/mcp"
	"sqlmcp/internal/repository"
	"sqlmcp/internal/session"
	"sqlmcp/internal/transport"
	"sqlmcp/internal/usecase"
	"sqlmcp/pkg/db"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: server <database-url>")
		fmt.Fprintln(os.Stderr, "  <database-url> is a postgres:// URL or a MySQL DSN (user:pass@tcp(host:port)/dbname)")
		os.Exit(1)
	}
	dsn := os.Args[1]

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger. All logging goes to stderr; stdout carries only
	// protocol messages.
	logger.Initialize(cfg.LogLevel)

	// Open the database
	database, err := db.NewDatabase(db.Config{
		DSN:             dsn,
		MaxOpenConns:    cfg.DBConfig.MaxOpenConns,
		MaxIdleConns:    cfg.DBConfig.MaxIdleConns,
		ConnMaxLifetime: cfg.DBConfig.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.DBConfig.ConnMaxIdleTime,
	})
	if err != nil {
		logger.Error("Invalid database address: %v", err)
		os.Exit(1)
	}

	if err := database.Connect(); err != nil {
		logger.Error("Failed to connect to database: %v", err)
		os.Exit(1)
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("Failed to close database: %v", err)
		}
	}()

	logger.Info("Connected to %s database at %s", database.DriverName(), database.BaseURI())

	// Wire the core on top of the leased-connection pool
	pool := repository.NewSQLPool(database)
	executor := usecase.NewSQLExecutor(pool)
	catalog := usecase.NewSchemaCatalog(pool, database.DriverName(), database.BaseURI())

	// Create session manager and MCP handler
	sessionManager := session.NewManager()
	mcpHandler := mcp.NewHandler(executor, catalog)

	// Create STDIO transport and register all method handlers
	stdioTransport := transport.NewStdioTransport(sessionManager)
	for method, handler := range mcpHandler.GetAllMethodHandlers() {
		stdioTransport.RegisterMethodHandler(method, handler)
	}

	if err := stdioTransport.Start(); err != nil {
		logger.Error("Failed to start STDIO transport: %v", err)
		os.Exit(1)
	}

	logger.Info("MCP server running on stdio")

	// Wait for interrupt or stdin EOF
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info("Received shutdown signal")
		stdioTransport.Stop()
	case <-stdioTransport.Done():
	}

	logger.Info("Server stopped")
}
