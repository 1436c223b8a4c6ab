// Package postgres loads the reference catalog into a PostgreSQL database
// through the pgx database/sql driver.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"github.com/brunocuevas/nsdb/internal/infra/catalog/sqlstore"
	"github.com/brunocuevas/nsdb/pkg/domain"
)

const (
	defaultDriver = "pgx"
	// DefaultDSN is used when no DSN is configured.
	DefaultDSN = "postgres://localhost/nsdb?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// Catalog is a sqlstore.Catalog backed by Postgres.
type Catalog struct {
	*sqlstore.Catalog
}

// Open connects with dsn (DefaultDSN when empty), drops and recreates the
// catalog tables and loads ds.
func Open(ctx context.Context, dsn string, ds domain.Dataset) (*Catalog, error) {
	if dsn == "" {
		dsn = DefaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	c := &Catalog{Catalog: sqlstore.New(db, sqlstore.Postgres)}
	if err := c.Load(ctx, ds); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("load postgres catalog: %w", err)
	}
	return c, nil
}

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a restore function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}
