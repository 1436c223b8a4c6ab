// Package sqlstore implements domain.Catalog on database/sql. Engine
// specific packages open the connection and pick a Dialect.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/brunocuevas/nsdb/pkg/domain"
)

// Compile-time contract assertion ensuring the catalog satisfies the domain interface.
var _ domain.Catalog = (*Catalog)(nil)

// Catalog answers catalog queries with parameter-bound SQL.
type Catalog struct {
	db      *sql.DB
	dialect Dialect
}

// New wraps an open database. Call Load before querying.
func New(db *sql.DB, d Dialect) *Catalog {
	return &Catalog{db: db, dialect: d}
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (c *Catalog) DB() *sql.DB { return c.db }

// Load recreates the tables and inserts ds in a single transaction.
func (c *Catalog) Load(ctx context.Context, ds domain.Dataset) (retErr error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin load: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	for _, stmt := range Schema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("execute ddl: %w", err)
		}
	}
	d := c.dialect
	if err := insertAll(ctx, tx, "INSERT INTO ref ("+refColumns+") VALUES ("+d.placeholders(8)+")", ds.Entries,
		func(_ int, e domain.Entry) []any {
			return []any{e.ID, string(e.NitrogenaseType), e.ScientificName, e.Variant, string(e.Status), e.Stoichiometry, e.Lineage, e.TaxonID}
		}); err != nil {
		return fmt.Errorf("insert ref: %w", err)
	}
	if err := insertAll(ctx, tx, "INSERT INTO chainref (seq, "+chainColumns+") VALUES ("+d.placeholders(6)+")", ds.Chains,
		func(i int, ch domain.Chain) []any {
			return []any{i, ch.EntryID, ch.Chain, ch.PLDDT, ch.Subunit, ch.Sequence}
		}); err != nil {
		return fmt.Errorf("insert chainref: %w", err)
	}
	if err := insertAll(ctx, tx, "INSERT INTO phylo (seq, x, type, y) VALUES ("+d.placeholders(4)+")", ds.Phylo,
		func(i int, r domain.PhyloRow) []any { return []any{i, r.X, r.Type, r.Y} }); err != nil {
		return fmt.Errorf("insert phylo: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit load: %w", err)
	}
	return nil
}

func insertAll[T any](ctx context.Context, tx *sql.Tx, query string, rows []T, args func(int, T) []any) error {
	if len(rows) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()
	for i, row := range rows {
		if _, err := stmt.ExecContext(ctx, args(i, row)...); err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
	}
	return nil
}

// Where renders the WHERE clause and bind arguments for a predicate.
func (c *Catalog) Where(p domain.Predicate) (string, []any, error) {
	ph := c.dialect.Placeholder
	switch p.Kind {
	case domain.MatchTaxonID:
		return "(taxon_id = " + ph(1) + " AND taxon_id <> '')", []any{p.Value}, nil
	case domain.MatchEntryID:
		return "id = " + ph(1), []any{p.Value}, nil
	case domain.MatchText:
		clause := "(" + c.dialect.Contains("scientific_name", ph(1)) + " OR " + c.dialect.Contains("lineage", ph(2)) + ")"
		return clause, []any{p.Value, p.Value}, nil
	default:
		return "", nil, fmt.Errorf("unsupported predicate kind %s", p.Kind)
	}
}

// FindEntries returns the ref rows matching p ordered by id.
func (c *Catalog) FindEntries(ctx context.Context, p domain.Predicate) ([]domain.Entry, error) {
	where, args, err := c.Where(p)
	if err != nil {
		return nil, err
	}
	rows, err := c.db.QueryContext(ctx, "SELECT "+refColumns+" FROM ref WHERE "+where+" ORDER BY id", args...)
	if err != nil {
		return nil, fmt.Errorf("query ref: %w", err)
	}
	defer func() { _ = rows.Close() }()
	out := make([]domain.Entry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ref: %w", err)
	}
	return out, nil
}

// Entry returns the ref row with id, or domain.ErrNotFound.
func (c *Catalog) Entry(ctx context.Context, id string) (domain.Entry, error) {
	row := c.db.QueryRowContext(ctx, "SELECT "+refColumns+" FROM ref WHERE id = "+c.dialect.Placeholder(1), id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Entry{}, domain.ErrNotFound{Entity: domain.EntityEntry, ID: id}
	}
	return e, err
}

// Chains returns the chainref rows of an entry ordered by chain label.
func (c *Catalog) Chains(ctx context.Context, entryID string) ([]domain.Chain, error) {
	rows, err := c.db.QueryContext(ctx, "SELECT "+chainColumns+" FROM chainref WHERE id = "+c.dialect.Placeholder(1)+" ORDER BY chain, seq", entryID)
	if err != nil {
		return nil, fmt.Errorf("query chainref: %w", err)
	}
	defer func() { _ = rows.Close() }()
	out := make([]domain.Chain, 0)
	for rows.Next() {
		var ch domain.Chain
		if err := rows.Scan(&ch.EntryID, &ch.Chain, &ch.PLDDT, &ch.Subunit, &ch.Sequence); err != nil {
			return nil, fmt.Errorf("scan chainref: %w", err)
		}
		out = append(out, ch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chainref: %w", err)
	}
	return out, nil
}

// Relatives returns (type, y) for every phylo row with x = key, in file order.
func (c *Catalog) Relatives(ctx context.Context, key string) ([]domain.Relative, error) {
	rows, err := c.db.QueryContext(ctx, "SELECT type, y FROM phylo WHERE x = "+c.dialect.Placeholder(1)+" ORDER BY seq", key)
	if err != nil {
		return nil, fmt.Errorf("query phylo: %w", err)
	}
	defer func() { _ = rows.Close() }()
	out := make([]domain.Relative, 0)
	for rows.Next() {
		var r domain.Relative
		if err := rows.Scan(&r.Type, &r.Relative); err != nil {
			return nil, fmt.Errorf("scan phylo: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate phylo: %w", err)
	}
	return out, nil
}

// Close closes the database.
func (c *Catalog) Close() error { return c.db.Close() }

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (domain.Entry, error) {
	var e domain.Entry
	var typ, status string
	err := s.Scan(&e.ID, &typ, &e.ScientificName, &e.Variant, &status, &e.Stoichiometry, &e.Lineage, &e.TaxonID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Entry{}, err
	}
	if err != nil {
		return domain.Entry{}, fmt.Errorf("scan ref: %w", err)
	}
	e.NitrogenaseType = domain.NitrogenaseType(typ)
	e.Status = domain.Tier(status)
	return e, nil
}
