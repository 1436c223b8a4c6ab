// Package sqlite opens the reference catalog in a SQLite database using the
// pure Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"modernc.org/sqlite"

	"github.com/brunocuevas/nsdb/internal/infra/catalog/sqlstore"
	"github.com/brunocuevas/nsdb/pkg/domain"
)

// DefaultPath keeps the catalog in memory for the life of the process.
const DefaultPath = ":memory:"

func init() {
	if err := sqlite.RegisterDeterministicScalarFunction(sqlstore.LowerFunc, 1, lower); err != nil {
		panic(fmt.Sprintf("register %s: %v", sqlstore.LowerFunc, err))
	}
}

// lower folds text the way strings.ToLower does, so text search ignores case
// beyond ASCII. NULL stays NULL.
func lower(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case nil:
		return nil, nil
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	default:
		return nil, fmt.Errorf("%s: unsupported argument type %T", sqlstore.LowerFunc, v)
	}
}

// Catalog is a sqlstore.Catalog backed by SQLite.
type Catalog struct {
	*sqlstore.Catalog
	path string
}

// Open creates the database at path (DefaultPath when empty), loads ds and
// returns the ready catalog.
func Open(ctx context.Context, path string, ds domain.Dataset) (*Catalog, error) {
	if path == "" {
		path = DefaultPath
	}
	if path != DefaultPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// An in-memory database lives on a single connection.
	db.SetMaxOpenConns(1)
	c := &Catalog{Catalog: sqlstore.New(db, sqlstore.SQLite), path: path}
	if err := c.Load(ctx, ds); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("load sqlite catalog: %w", err)
	}
	return c, nil
}

// Path returns the configured database path.
func (c *Catalog) Path() string { return c.path }
