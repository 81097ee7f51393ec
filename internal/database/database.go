// Package database opens the KeyGuard SQL pool and provides transaction and
// error helpers shared by the PostgreSQL and MySQL repositories.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
)

// Supported driver names, as accepted by DB_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

const defaultPingTimeout = 5 * time.Second

// Config describes the connection pool.
type Config struct {
	Driver             string
	ConnectionString   string
	MaxOpenConnections int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
	// PingTimeout bounds the startup connectivity check. Zero means 5s.
	PingTimeout time.Duration
}

// ErrUnsupportedDriver is returned by Connect for drivers other than postgres and mysql.
var ErrUnsupportedDriver = errors.New("unsupported database driver")

// ErrClientFoundRows is returned by Connect for MySQL DSNs with clientFoundRows=true. The nonce
// upsert reads zero affected rows as a replay, which that flag would hide.
var ErrClientFoundRows = errors.New("mysql dsn must not set clientFoundRows")

// Connect opens the pool and verifies connectivity. The pool is closed again
// when the ping fails.
func Connect(ctx context.Context, cfg Config) (*sql.DB, error) {
	if cfg.Driver != DriverPostgres && cfg.Driver != DriverMySQL {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, cfg.Driver)
	}
	if cfg.Driver == DriverMySQL {
		dsn, err := mysql.ParseDSN(cfg.ConnectionString)
		if err != nil {
			return nil, fmt.Errorf("failed to parse database dsn: %w", err)
		}
		if dsn.ClientFoundRows {
			return nil, ErrClientFoundRows
		}
	}

	db, err := sql.Open(cfg.Driver, cfg.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConnections)
	db.SetMaxIdleConns(cfg.MaxIdleConnections)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	timeout := cfg.PingTimeout
	if timeout <= 0 {
		timeout = defaultPingTimeout
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}
