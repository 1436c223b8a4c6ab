package domain

import "context"

// Catalog is the read-only view over the ref, chainref and phylo tables.
// Implementations are loaded once at startup and never mutated afterwards.
type Catalog interface {
	// FindEntries returns the ref rows satisfying p, ordered by id.
	FindEntries(ctx context.Context, p Predicate) ([]Entry, error)
	// Entry returns the entry with the given id or ErrNotFound.
	Entry(ctx context.Context, id string) (Entry, error)
	// Chains returns the chainref rows of an entry, ordered by chain label.
	Chains(ctx context.Context, entryID string) ([]Chain, error)
	// Relatives returns the phylo rows whose x equals key. An empty slice
	// is a valid answer.
	Relatives(ctx context.Context, key string) ([]Relative, error)
	Close() error
}

// Dataset bundles the three reference tables as loaded from disk.
type Dataset struct {
	Entries []Entry
	Chains  []Chain
	Phylo   []PhyloRow
}
