// Package memory implements domain.Catalog over in-process slices.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/brunocuevas/nsdb/pkg/domain"
)

var errClosed = errors.New("memory catalog: closed")

// Compile-time contract assertion ensuring the catalog satisfies the domain interface.
var _ domain.Catalog = (*Catalog)(nil)

// Catalog evaluates predicates with domain.Predicate.Matches. It is
// read-only after construction and safe for concurrent use.
type Catalog struct {
	entries   []domain.Entry
	byID      map[string]int
	chains    map[string][]domain.Chain
	relatives map[string][]domain.Relative

	mu     sync.RWMutex
	closed bool
}

// New indexes a dataset. The input slices are copied.
func New(ds domain.Dataset) *Catalog {
	c := &Catalog{
		entries:   append([]domain.Entry(nil), ds.Entries...),
		byID:      make(map[string]int, len(ds.Entries)),
		chains:    make(map[string][]domain.Chain),
		relatives: make(map[string][]domain.Relative),
	}
	sort.SliceStable(c.entries, func(i, j int) bool { return c.entries[i].ID < c.entries[j].ID })
	for i, e := range c.entries {
		if _, dup := c.byID[e.ID]; !dup {
			c.byID[e.ID] = i
		}
	}
	for _, ch := range ds.Chains {
		c.chains[ch.EntryID] = append(c.chains[ch.EntryID], ch)
	}
	for id := range c.chains {
		rows := c.chains[id]
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].Chain < rows[j].Chain })
	}
	for _, row := range ds.Phylo {
		c.relatives[row.X] = append(c.relatives[row.X], row.Relative())
	}
	return c
}

// FindEntries returns matching entries ordered by id.
func (c *Catalog) FindEntries(ctx context.Context, p domain.Predicate) ([]domain.Entry, error) {
	if err := c.check(ctx); err != nil {
		return nil, err
	}
	out := make([]domain.Entry, 0)
	for _, e := range c.entries {
		if p.Matches(e) {
			out = append(out, e)
		}
	}
	return out, nil
}

// Entry returns one entry by id.
func (c *Catalog) Entry(ctx context.Context, id string) (domain.Entry, error) {
	if err := c.check(ctx); err != nil {
		return domain.Entry{}, err
	}
	i, ok := c.byID[id]
	if !ok {
		return domain.Entry{}, domain.ErrNotFound{Entity: domain.EntityEntry, ID: id}
	}
	return c.entries[i], nil
}

// Chains returns the chains of an entry ordered by chain label.
func (c *Catalog) Chains(ctx context.Context, entryID string) ([]domain.Chain, error) {
	if err := c.check(ctx); err != nil {
		return nil, err
	}
	return append(make([]domain.Chain, 0, len(c.chains[entryID])), c.chains[entryID]...), nil
}

// Relatives returns the relationships recorded for key in file order.
func (c *Catalog) Relatives(ctx context.Context, key string) ([]domain.Relative, error) {
	if err := c.check(ctx); err != nil {
		return nil, err
	}
	return append(make([]domain.Relative, 0, len(c.relatives[key])), c.relatives[key]...), nil
}

// Close marks the catalog closed; later calls fail.
func (c *Catalog) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *Catalog) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errClosed
	}
	return nil
}
