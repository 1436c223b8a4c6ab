package core

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/brunocuevas/nsdb/internal/blob"
	"github.com/brunocuevas/nsdb/internal/config"
	"github.com/brunocuevas/nsdb/internal/infra/catalog/memory"
	"github.com/brunocuevas/nsdb/internal/infra/catalog/sqlite"
	"github.com/brunocuevas/nsdb/internal/logging"
	"github.com/brunocuevas/nsdb/internal/phylo"
	"github.com/brunocuevas/nsdb/pkg/domain"
	"github.com/brunocuevas/nsdb/testutil/fixtures"
)

func fixtureSettings(t *testing.T) *config.Settings {
	t.Helper()
	dir := fixtures.Dir(t)
	return &config.Settings{
		Data: config.DataSettings{
			Reference: filepath.Join(dir, fixtures.ReferenceFile),
			Chains:    filepath.Join(dir, fixtures.ChainsFile),
			Phylo:     filepath.Join(dir, fixtures.PhyloFile),
			Tree:      filepath.Join(dir, fixtures.TreeFile),
		},
		Catalog: config.CatalogSettings{Driver: "memory"},
		Tree: config.TreeSettings{
			Outgroup:       fixtures.Outgroup,
			ReferenceTips:  phylo.DefaultReferenceTips,
			ReferenceNodes: phylo.DefaultReferenceNodes,
		},
		Structures: config.StructureSettings{Driver: "fs", FSRoot: dir, Timeout: time.Second, Retries: 1},
	}
}

func TestOpenCatalogDrivers(t *testing.T) {
	ctx := context.Background()
	for _, driver := range []string{"memory", "sqlite", ""} {
		t.Run("driver="+driver, func(t *testing.T) {
			s := fixtureSettings(t)
			s.Catalog.Driver = driver
			cat, err := OpenCatalog(ctx, s, logging.Discard())
			if err != nil {
				if driver != "memory" && strings.Contains(err.Error(), "sqlite") {
					t.Skipf("sqlite unavailable: %v", err)
				}
				t.Fatalf("open catalog: %v", err)
			}
			defer func() { _ = cat.Close() }()
			switch driver {
			case "memory":
				if _, ok := cat.(*memory.Catalog); !ok {
					t.Fatalf("expected *memory.Catalog, got %T", cat)
				}
			default:
				if _, ok := cat.(*sqlite.Catalog); !ok {
					t.Fatalf("expected *sqlite.Catalog, got %T", cat)
				}
			}
			got, err := cat.FindEntries(ctx, domain.TranslateQuery("taxid:322710"))
			if err != nil || len(got) != 3 {
				t.Fatalf("expected 3 entries, got %v, %v", ids(got), err)
			}
		})
	}
}

func TestOpenCatalogUnknownDriver(t *testing.T) {
	s := fixtureSettings(t)
	s.Catalog.Driver = "duckdb"
	if _, err := OpenCatalog(context.Background(), s, nil); err == nil || !strings.Contains(err.Error(), "unknown catalog driver") {
		t.Fatalf("expected unknown driver error, got %v", err)
	}
}

func TestOpenCatalogMissingFile(t *testing.T) {
	s := fixtureSettings(t)
	s.Data.Chains = filepath.Join(t.TempDir(), "missing.csv")
	_, err := OpenCatalog(context.Background(), s, nil)
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected missing file error, got %v", err)
	}
}

func TestOpenStructures(t *testing.T) {
	s := fixtureSettings(t)
	f, err := OpenStructures(context.Background(), s.Structures, logging.Discard())
	if err != nil {
		t.Fatalf("open structures: %v", err)
	}
	if f.Driver() != blob.DriverFilesystem {
		t.Fatalf("unexpected driver %s", f.Driver())
	}
	st, err := f.Fetch(context.Background(), fixtures.StructureID)
	if err != nil || st.Filename != fixtures.StructureFile {
		t.Fatalf("fetch: %+v, %v", st, err)
	}

	s.Structures.Driver = "ftp"
	if _, err := OpenStructures(context.Background(), s.Structures, nil); err == nil {
		t.Fatalf("expected unknown blob driver error")
	}
}

func TestLoadAnnotator(t *testing.T) {
	s := fixtureSettings(t)
	a, err := LoadAnnotator(s.Data.Tree, s.Tree)
	if err != nil {
		t.Fatalf("load annotator: %v", err)
	}
	for _, tip := range a.Tree().Tips() {
		if strings.Contains(tip, fixtures.Outgroup) {
			t.Fatalf("outgroup tip %q should be dropped", tip)
		}
	}

	s.Tree.Outgroup = "Chlorophyllide"
	if _, err := LoadAnnotator(s.Data.Tree, s.Tree); !errors.Is(err, phylo.ErrNoOutgroup) {
		t.Fatalf("expected ErrNoOutgroup, got %v", err)
	}
	if _, err := LoadAnnotator(filepath.Join(t.TempDir(), "none.tre"), s.Tree); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected missing tree error, got %v", err)
	}
}

func TestBootstrap(t *testing.T) {
	s := fixtureSettings(t)
	b, err := Bootstrap(context.Background(), s, logging.Discard())
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	defer func() { _ = b.Close() }()
	d, err := b.Detail(context.Background(), fixtures.StructureID)
	if err != nil {
		t.Fatalf("detail: %v", err)
	}
	if !d.Structure.Available || !strings.HasPrefix(d.Structure.URL, "http://local.blob/") {
		t.Fatalf("unexpected structure status %+v", d.Structure)
	}

	s.Data.Tree = filepath.Join(t.TempDir(), "missing.tre")
	if _, err := Bootstrap(context.Background(), s, nil); err == nil {
		t.Fatalf("expected startup failure for a missing tree")
	}
}
