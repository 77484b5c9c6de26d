package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Driver           string
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// DB bundles the database/sql handle with the ent dialect used to build queries.
type DB struct {
	SQL     *sql.DB
	dialect string
	pool    *pgxpool.Pool
	logger  *slog.Logger
}

// Builder returns a dialect-aware SQL builder.
func (db *DB) Builder() *entsql.DialectBuilder {
	return entsql.Dialect(db.dialect)
}

// Dialect is the ent dialect name ("postgres" or "sqlite3").
func (db *DB) Dialect() string { return db.dialect }

// Driver wraps the handle as an ent driver (used for schema migration).
func (db *DB) Driver() *entsql.Driver {
	return entsql.OpenDB(db.dialect, db.SQL)
}

// Open connects using cfg.Driver. Postgres goes through a pgx pool wrapped as *sql.DB;
// SQLite uses the pure-Go modernc driver.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch cfg.Driver {
	case DriverSQLite:
		return OpenSQLite(ctx, cfg.DSN, logger)
	case DriverPostgres, "":
		return openPostgres(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func openPostgres(ctx context.Context, cfg Config, logger *slog.Logger) (*DB, error) {
	logger.Info("connecting to database", "driver", DriverPostgres)
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		logger.Error("failed to parse database config", "error", err)
		return nil, err
	}

	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		pc.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		pc.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	pc.ConnConfig.RuntimeParams["application_name"] = "price-tracker"
	if cfg.StatementTimeout > 0 {
		pc.ConnConfig.RuntimeParams["statement_timeout"] = fmt.Sprint(cfg.StatementTimeout.Milliseconds())
	}

	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, err
	}

	logger.Info("successfully connected to database")
	return &DB{
		SQL:     stdlib.OpenDBFromPool(pool),
		dialect: dialect.Postgres,
		pool:    pool,
		logger:  logger,
	}, nil
}

// OpenSQLite opens a SQLite database. Foreign keys must be enabled in the DSN
// (e.g. "file:prices.db?_pragma=foreign_keys(1)") for schema migration to succeed.
func OpenSQLite(ctx context.Context, dsn string, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("connecting to database", "driver", DriverSQLite)
	sdb, err := sql.Open("sqlite", dsn)
	if err != nil {
		logger.Error("failed to open sqlite", "error", err)
		return nil, err
	}
	// A single connection keeps in-memory databases and transactions consistent.
	sdb.SetMaxOpenConns(1)
	if err := sdb.PingContext(ctx); err != nil {
		_ = sdb.Close()
		logger.Error("failed to connect to database", "error", err)
		return nil, err
	}
	return &DB{SQL: sdb, dialect: dialect.SQLite, logger: logger}, nil
}

// Close closes the database connections gracefully
func (db *DB) Close() error {
	db.logger.Info("closing database connections")
	err := db.SQL.Close()
	if db.pool != nil {
		db.pool.Close()
	}
	if err != nil {
		db.logger.Error("failed to close database", "error", err)
		return err
	}
	db.logger.Info("database connections closed")
	return nil
}

// HealthCheck pings using database/sql to catch DSN issues early.
func (db *DB) HealthCheck(ctx context.Context, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	db.logger.Debug("pinging database")
	if err := db.SQL.PingContext(ctx); err != nil {
		return errors.Join(errors.New("database ping failed"), err)
	}
	db.logger.Debug("database ping successful")
	return nil
}
