// Package core hosts the catalog Browser service and the composition helpers
// that open its catalog, structure store and reference tree.
package core

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/brunocuevas/nsdb/internal/blob"
	"github.com/brunocuevas/nsdb/internal/phylo"
	"github.com/brunocuevas/nsdb/internal/structure"
	"github.com/brunocuevas/nsdb/pkg/domain"
)

// Operation names reported to loggers, metrics and tracers.
const (
	OpSearch        = "search"
	OpSelect        = "select"
	OpChains        = "chains"
	OpRelatives     = "relatives"
	OpStructure     = "structure"
	OpStructureURL  = "structure_url"
	OpStructureInfo = "structure_info"
	OpStructureIDs  = "structure_ids"
	OpTree          = "tree"
	OpDetail        = "detail"
)

// StructureSource yields structure files by entry id. *structure.Fetcher
// implements it.
type StructureSource interface {
	Fetch(ctx context.Context, id string) (structure.Structure, error)
	Stat(ctx context.Context, id string) (blob.Info, error)
	URL(ctx context.Context, id string, expiry time.Duration) (string, error)
	IDs(ctx context.Context) ([]string, error)
}

// Browser answers the catalog browser's questions: search with filters,
// entry selection and the per-entry detail views.
type Browser struct {
	catalog    domain.Catalog
	structures StructureSource
	annotator  *phylo.Annotator
	opts       serviceOptions
}

// NewBrowser wires a Browser. All three collaborators are required and are
// shared read-only between requests.
func NewBrowser(catalog domain.Catalog, structures StructureSource, annotator *phylo.Annotator, opts ...Option) *Browser {
	o := defaultServiceOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Browser{catalog: catalog, structures: structures, annotator: annotator, opts: o}
}

// ReferenceTree returns the tree entries are annotated against.
func (b *Browser) ReferenceTree() *phylo.Tree { return b.annotator.Tree() }

// Close releases the catalog.
func (b *Browser) Close() error { return b.catalog.Close() }

// Search runs text through the query translator and filters the matches with
// toggles. Empty text issues no query and returns nil; whitespace is a
// regular search term.
func (b *Browser) Search(ctx context.Context, text string, toggles domain.Toggles) ([]domain.Entry, error) {
	if text == "" {
		return nil, nil
	}
	var out []domain.Entry
	err := b.run(ctx, OpSearch, func(ctx context.Context) error {
		p := domain.TranslateQuery(text)
		entries, err := b.catalog.FindEntries(ctx, p)
		if err != nil {
			return err
		}
		out = toggles.Apply(entries)
		b.opts.logger.Debug("search", "kind", p.Kind.String(), "matches", len(entries), "shown", len(out))
		return nil
	})
	return out, err
}

// Select returns the entry with the given id.
func (b *Browser) Select(ctx context.Context, id string) (domain.Entry, error) {
	var e domain.Entry
	err := b.run(ctx, OpSelect, func(ctx context.Context) error {
		var err error
		e, err = b.catalog.Entry(ctx, id)
		return err
	})
	return e, err
}

// Chains returns the chain table of an entry, ordered by chain label.
func (b *Browser) Chains(ctx context.Context, id string) ([]domain.Chain, error) {
	var out []domain.Chain
	err := b.run(ctx, OpChains, func(ctx context.Context) error {
		var err error
		out, err = b.catalog.Chains(ctx, id)
		return err
	})
	return out, err
}

// Relatives returns the phylo rows keyed by the entry's relative key.
func (b *Browser) Relatives(ctx context.Context, e domain.Entry) ([]domain.Relative, error) {
	var out []domain.Relative
	err := b.run(ctx, OpRelatives, func(ctx context.Context) error {
		var err error
		out, err = b.catalog.Relatives(ctx, domain.RelativeKey(e))
		return err
	})
	return out, err
}

// Structure fetches the entry's structure file.
func (b *Browser) Structure(ctx context.Context, id string) (structure.Structure, error) {
	var s structure.Structure
	err := b.run(ctx, OpStructure, func(ctx context.Context) error {
		var err error
		s, err = b.structures.Fetch(ctx, id)
		return err
	})
	return s, err
}

// StructureInfo returns the stored metadata of the entry's structure file
// without downloading it.
func (b *Browser) StructureInfo(ctx context.Context, id string) (blob.Info, error) {
	var info blob.Info
	err := b.run(ctx, OpStructureInfo, func(ctx context.Context) error {
		var err error
		info, err = b.structures.Stat(ctx, id)
		return err
	})
	return info, err
}

// StructureIDs lists the entry ids that have a structure file.
func (b *Browser) StructureIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := b.run(ctx, OpStructureIDs, func(ctx context.Context) error {
		var err error
		ids, err = b.structures.IDs(ctx)
		return err
	})
	return ids, err
}

// StructureURL returns a presigned download link for the entry's structure.
func (b *Browser) StructureURL(ctx context.Context, id string) (string, error) {
	var url string
	err := b.run(ctx, OpStructureURL, func(ctx context.Context) error {
		var err error
		url, err = b.structures.URL(ctx, id, b.opts.urlExpiry)
		return err
	})
	return url, err
}

// Tree annotates the reference tree for e.
func (b *Browser) Tree(e domain.Entry) phylo.Annotation {
	var ann phylo.Annotation
	_ = b.run(context.Background(), OpTree, func(context.Context) error {
		ann = b.annotator.Annotate(e)
		return nil
	})
	return ann
}

// TreeSVG renders the annotated reference tree for e.
func (b *Browser) TreeSVG(w io.Writer, e domain.Entry) error {
	return phylo.RenderSVG(w, b.annotator.Tree(), b.Tree(e), phylo.DefaultSVGOptions)
}

// StructureStatus reports whether an entry's structure could be fetched.
type StructureStatus struct {
	Available bool   `json:"available" yaml:"available"`
	Filename  string `json:"filename" yaml:"filename"`
	Size      int64  `json:"size,omitempty" yaml:"size,omitempty"`
	URL       string `json:"url,omitempty" yaml:"url,omitempty"`
	Error     string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Detail is everything shown for a selected entry.
type Detail struct {
	Entry       domain.Entry      `json:"entry" yaml:"entry"`
	Chains      []domain.Chain    `json:"chains" yaml:"chains"`
	RelativeKey string            `json:"relative_key" yaml:"relative_key"`
	Relatives   []domain.Relative `json:"relatives" yaml:"relatives"`
	Tree        phylo.Annotation  `json:"tree" yaml:"tree"`
	Structure   StructureStatus   `json:"structure" yaml:"structure"`
}

// Detail gathers the entry, its chains, relatives and tree annotation and
// checks that its structure file exists. A missing or unreachable structure
// is reported in Detail.Structure and does not fail the call.
func (b *Browser) Detail(ctx context.Context, id string) (Detail, error) {
	var d Detail
	err := b.run(ctx, OpDetail, func(ctx context.Context) error {
		e, err := b.Select(ctx, id)
		if err != nil {
			return err
		}
		chains, err := b.Chains(ctx, id)
		if err != nil {
			return err
		}
		relatives, err := b.Relatives(ctx, e)
		if err != nil {
			return err
		}
		d = Detail{
			Entry:       e,
			Chains:      chains,
			RelativeKey: domain.RelativeKey(e),
			Relatives:   relatives,
			Tree:        b.Tree(e),
			Structure:   b.structureStatus(ctx, id),
		}
		return nil
	})
	return d, err
}

func (b *Browser) structureStatus(ctx context.Context, id string) StructureStatus {
	st := StructureStatus{Filename: structure.Key(id)}
	info, err := b.StructureInfo(ctx, id)
	if err != nil {
		st.Error = err.Error()
		return st
	}
	st.Available = true
	st.Size = info.Size
	url, err := b.StructureURL(ctx, id)
	switch {
	case err == nil:
		st.URL = url
	case !errors.Is(err, blob.ErrUnsupported):
		b.opts.logger.Warn("presign structure", "id", id, "error", err)
	}
	return st
}

// IsNotFound reports whether err means a missing entry or structure.
func IsNotFound(err error) bool {
	var nf domain.ErrNotFound
	return errors.As(err, &nf) || errors.Is(err, structure.ErrNotFound)
}

func (b *Browser) run(ctx context.Context, op string, fn func(context.Context) error) error {
	ctx, span := b.opts.tracer.Start(ctx, op)
	start := b.opts.clock.Now()
	err := fn(ctx)
	elapsed := b.opts.clock.Now().Sub(start)
	span.End(err)
	b.opts.metrics.Observe(ctx, op, err == nil, elapsed)
	switch {
	case err == nil:
		b.opts.logger.Debug("operation completed", "operation", op, "duration", elapsed, "request_id", RequestID(ctx))
	case IsNotFound(err), errors.Is(err, blob.ErrUnsupported):
		b.opts.logger.Info("operation failed", "operation", op, "error", err, "request_id", RequestID(ctx))
	default:
		b.opts.logger.Error("operation failed", "operation", op, "error", err, "request_id", RequestID(ctx))
	}
	return err
}
