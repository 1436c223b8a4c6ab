package core

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/brunocuevas/nsdb/internal/blob"
	"github.com/brunocuevas/nsdb/internal/config"
	"github.com/brunocuevas/nsdb/internal/infra/catalog/csvload"
	"github.com/brunocuevas/nsdb/internal/infra/catalog/memory"
	"github.com/brunocuevas/nsdb/internal/infra/catalog/postgres"
	"github.com/brunocuevas/nsdb/internal/infra/catalog/sqlite"
	"github.com/brunocuevas/nsdb/internal/logging"
	"github.com/brunocuevas/nsdb/internal/phylo"
	"github.com/brunocuevas/nsdb/internal/structure"
	"github.com/brunocuevas/nsdb/pkg/domain"
)

// CatalogDriver identifies a concrete catalog implementation.
type CatalogDriver string

const (
	CatalogMemory   CatalogDriver = "memory"   // slices in process memory
	CatalogSQLite   CatalogDriver = "sqlite"   // embedded sqlite, in memory by default
	CatalogPostgres CatalogDriver = "postgres" // PostgreSQL server
)

// OpenCatalog reads the reference CSVs named in s.Data and loads them into the
// backend selected by s.Catalog.Driver (sqlite when empty).
func OpenCatalog(ctx context.Context, s *config.Settings, logger *slog.Logger) (domain.Catalog, error) {
	logger = logging.Module(logger, "catalog")
	start := time.Now()
	ds, err := csvload.Load(csvload.Paths{
		Reference: s.Data.Reference,
		Chains:    s.Data.Chains,
		Phylo:     s.Data.Phylo,
	})
	if err != nil {
		return nil, err
	}
	driver := CatalogDriver(s.Catalog.Driver)
	if driver == "" {
		driver = CatalogSQLite
	}
	var cat domain.Catalog
	switch driver {
	case CatalogMemory:
		cat = memory.New(ds)
	case CatalogSQLite:
		cat, err = sqlite.Open(ctx, s.Catalog.SQLite.Path, ds)
	case CatalogPostgres:
		cat, err = postgres.Open(ctx, s.Catalog.Postgres.DSN, ds)
	default:
		return nil, fmt.Errorf("unknown catalog driver %s", driver)
	}
	if err != nil {
		return nil, err
	}
	logger.Info("catalog loaded",
		"driver", string(driver),
		"entries", len(ds.Entries),
		"chains", len(ds.Chains),
		"relatives", len(ds.Phylo),
		"duration", time.Since(start))
	return cat, nil
}

// OpenStructures builds the structure fetcher over the configured blob store.
func OpenStructures(ctx context.Context, s config.StructureSettings, logger *slog.Logger) (*structure.Fetcher, error) {
	store, err := blob.Open(ctx, blob.Options{
		Driver: blob.Driver(s.Driver),
		FSRoot: s.FSRoot,
		S3: blob.S3Config{
			Region:          s.Region,
			Bucket:          s.Bucket,
			Endpoint:        s.Endpoint,
			AccessKeyID:     s.AccessKeyID,
			SecretAccessKey: s.SecretAccessKey,
			PathStyle:       s.PathStyle,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("open structure store: %w", err)
	}
	logger = logging.Module(logger, "structure")
	logger.Info("structure store ready", "driver", string(store.Driver()), "bucket", s.Bucket)
	return structure.NewFetcher(store,
		structure.WithTimeout(s.Timeout),
		structure.WithRetries(s.Retries),
		structure.WithLogger(logger),
	), nil
}

// LoadAnnotator parses the reference tree at path, roots it on the outgroup
// and prepares the annotator for the configured reference sets.
func LoadAnnotator(path string, t config.TreeSettings) (*phylo.Annotator, error) {
	f, err := os.Open(path) // #nosec G304 -- operator supplied data path
	if err != nil {
		return nil, fmt.Errorf("open reference tree: %w", err)
	}
	defer func() { _ = f.Close() }()
	tree, err := phylo.LoadReferenceTree(f, t.Outgroup)
	if err != nil {
		return nil, fmt.Errorf("load reference tree %s: %w", path, err)
	}
	return phylo.NewAnnotator(tree, t.ReferenceTips, t.ReferenceNodes), nil
}

// Bootstrap opens every collaborator named by s and returns a ready Browser.
// Any failure here is a startup failure.
func Bootstrap(ctx context.Context, s *config.Settings, logger *slog.Logger, opts ...Option) (*Browser, error) {
	annotator, err := LoadAnnotator(s.Data.Tree, s.Tree)
	if err != nil {
		return nil, err
	}
	structures, err := OpenStructures(ctx, s.Structures, logger)
	if err != nil {
		return nil, err
	}
	cat, err := OpenCatalog(ctx, s, logger)
	if err != nil {
		return nil, err
	}
	base := []Option{WithLogger(logging.Module(logger, "browser"))}
	return NewBrowser(cat, structures, annotator, append(base, opts...)...), nil
}
