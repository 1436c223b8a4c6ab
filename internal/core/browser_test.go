package core

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/brunocuevas/nsdb/internal/blob"
	"github.com/brunocuevas/nsdb/internal/phylo"
	"github.com/brunocuevas/nsdb/internal/structure"
	"github.com/brunocuevas/nsdb/pkg/domain"
	"github.com/brunocuevas/nsdb/testutil/fixtures"
)

func TestBrowserSearch(t *testing.T) {
	ctx := context.Background()
	b := newTestBrowser(t)
	noNif := domain.DefaultToggles()
	noNif.Types[domain.TypeNif] = false
	goldOnly := domain.DefaultToggles()
	goldOnly.Tiers[domain.TierSilver] = false

	cases := []struct {
		name    string
		text    string
		toggles domain.Toggles
		want    string
	}{
		{"name", "vinelandii", domain.DefaultToggles(), "nsdb-000001,nsdb-000002,nsdb-000003"},
		{"type toggle", "vinelandii", noNif, "nsdb-000002,nsdb-000003"},
		{"tier toggle", "vinelandii", goldOnly, "nsdb-000001,nsdb-000003"},
		{"taxid", "taxid:1501", domain.DefaultToggles(), "nsdb-000004"},
		{"entry id", "nsdb-000006", domain.DefaultToggles(), "nsdb-000006"},
		{"entry id is exact", "nsdb-00000", domain.DefaultToggles(), ""},
		{"lineage", "ARCHAEA", domain.DefaultToggles(), "nsdb-000005"},
		{"all toggles off", "vinelandii", domain.Toggles{}, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := b.Search(ctx, tc.text, tc.toggles)
			if err != nil {
				t.Fatalf("search %q: %v", tc.text, err)
			}
			if ids(got) != tc.want {
				t.Fatalf("search %q = %q, want %q", tc.text, ids(got), tc.want)
			}
		})
	}
}

func TestBrowserSearchEmptyIssuesNoQuery(t *testing.T) {
	metrics := &captureMetricsRecorder{}
	b := newTestBrowser(t, WithMetricsRecorder(metrics))
	got, err := b.Search(context.Background(), "", domain.DefaultToggles())
	if err != nil || got != nil {
		t.Fatalf("empty search: got %v, %v", got, err)
	}
	if len(metrics.calls) != 0 {
		t.Fatalf("empty search must not reach the catalog, recorded %+v", metrics.calls)
	}
}

func TestBrowserSearchWhitespaceIsATerm(t *testing.T) {
	metrics := &captureMetricsRecorder{}
	b := newTestBrowser(t, WithMetricsRecorder(metrics))
	got, err := b.Search(context.Background(), " ", domain.DefaultToggles())
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != len(fixtures.Dataset().Entries) {
		t.Fatalf("every fixture lineage contains a space, got %s", ids(got))
	}
	if !metrics.has(OpSearch, true) {
		t.Fatalf("expected a search to run, recorded %+v", metrics.calls)
	}
	if got, _ := b.Search(context.Background(), "\t", domain.DefaultToggles()); len(got) != 0 {
		t.Fatalf("no fixture contains a tab, got %s", ids(got))
	}
}

func TestBrowserSearchPassesRawText(t *testing.T) {
	b := newTestBrowser(t)
	got, err := b.Search(context.Background(), " taxid:1501", domain.DefaultToggles())
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("leading space disables the taxid prefix, got %s", ids(got))
	}
}

func TestBrowserSelectNotFound(t *testing.T) {
	metrics := &captureMetricsRecorder{}
	tracer := &captureTracer{}
	b := newTestBrowser(t, WithMetricsRecorder(metrics), WithTracer(tracer))
	_, err := b.Select(context.Background(), "nsdb-999999")
	var nf domain.ErrNotFound
	if !errors.As(err, &nf) || nf.ID != "nsdb-999999" {
		t.Fatalf("expected entry not found, got %v", err)
	}
	if !IsNotFound(err) {
		t.Fatalf("IsNotFound should accept %v", err)
	}
	if !metrics.has(OpSelect, false) || !tracer.has(OpSelect, false) {
		t.Fatalf("expected failed select to be observed: %+v %+v", metrics.calls, tracer.ended)
	}
}

func TestBrowserChainsAndRelatives(t *testing.T) {
	ctx := context.Background()
	b := newTestBrowser(t)
	chains, err := b.Chains(ctx, "nsdb-000001")
	if err != nil {
		t.Fatalf("chains: %v", err)
	}
	if len(chains) != 2 || chains[0].Chain != "A" || chains[1].Chain != "B" {
		t.Fatalf("expected chains A,B got %+v", chains)
	}

	extant, _ := b.Select(ctx, "nsdb-000001")
	rel, err := b.Relatives(ctx, extant)
	if err != nil {
		t.Fatalf("relatives: %v", err)
	}
	if len(rel) != 2 || rel[0].Type != "closest_extant" || rel[1].Relative != "anc_821" {
		t.Fatalf("unexpected relatives %+v", rel)
	}

	ancestral, _ := b.Select(ctx, "nsdb-000006")
	rel, err = b.Relatives(ctx, ancestral)
	if err != nil {
		t.Fatalf("ancestral relatives: %v", err)
	}
	if len(rel) != 2 || rel[0].Relative != "anc_794" {
		t.Fatalf("ancestral key should drop _map, got %+v", rel)
	}

	none, _ := b.Select(ctx, "nsdb-000005")
	rel, err = b.Relatives(ctx, none)
	if err != nil || len(rel) != 0 {
		t.Fatalf("expected no relatives, got %+v, %v", rel, err)
	}
}

func TestBrowserTreeAnnotation(t *testing.T) {
	ctx := context.Background()
	b := newTestBrowser(t)
	tips := b.ReferenceTree().Tips()
	nodes := b.ReferenceTree().NodeNames()

	e, _ := b.Select(ctx, "nsdb-000001")
	ann := b.Tree(e)
	if ann.QueryTip != "Nif_Azotobacter_vinelandii" {
		t.Fatalf("query tip %q", ann.QueryTip)
	}
	if len(ann.TipColors) != len(tips) || len(ann.NodeColors) != len(nodes) {
		t.Fatalf("annotation not aligned with tree")
	}
	for i, tip := range tips {
		if tip == ann.QueryTip && ann.TipColors[i] != phylo.ColorHighlight {
			t.Fatalf("query tip should be highlighted")
		}
	}

	anc, _ := b.Select(ctx, "nsdb-000006")
	ann = b.Tree(anc)
	if ann.QueryNode != "anc_821" {
		t.Fatalf("query node %q", ann.QueryNode)
	}
	highlighted := 0
	for i, name := range nodes {
		if ann.NodeColors[i] == phylo.ColorHighlight {
			highlighted++
			if name != "anc_821" {
				t.Fatalf("unexpected highlighted node %q", name)
			}
		}
	}
	if highlighted != 1 {
		t.Fatalf("expected one highlighted node, got %d", highlighted)
	}

	var buf bytes.Buffer
	if err := b.TreeSVG(&buf, anc); err != nil {
		t.Fatalf("svg: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "<svg") || !strings.Contains(buf.String(), "anc_821") {
		t.Fatalf("unexpected svg output %q", buf.String())
	}
}

func TestBrowserStructure(t *testing.T) {
	b := newTestBrowser(t)
	s, err := b.Structure(context.Background(), fixtures.StructureID)
	if err != nil {
		t.Fatalf("structure: %v", err)
	}
	if s.Filename != fixtures.StructureFile || s.Text != string(fixtures.Read(t, fixtures.StructureFile)) {
		t.Fatalf("unexpected structure %s (%d bytes)", s.Filename, len(s.Text))
	}
	_, err = b.Structure(context.Background(), "nsdb-000002")
	if !errors.Is(err, structure.ErrNotFound) || !IsNotFound(err) {
		t.Fatalf("expected structure not found, got %v", err)
	}
	if _, err := b.StructureURL(context.Background(), fixtures.StructureID); !errors.Is(err, blob.ErrUnsupported) {
		t.Fatalf("memory store cannot presign, got %v", err)
	}
}

func TestBrowserDetail(t *testing.T) {
	store := presignStore{MemoryStore: fixtureStore(t), url: "https://r2.example/nsdb/"}
	b := newTestBrowserWithStore(t, store)
	d, err := b.Detail(context.Background(), fixtures.StructureID)
	if err != nil {
		t.Fatalf("detail: %v", err)
	}
	if d.Entry.ID != fixtures.StructureID || d.RelativeKey != "Nif_Azotobacter_vinelandii" {
		t.Fatalf("unexpected detail header %+v", d.Entry)
	}
	if len(d.Chains) != 2 || len(d.Relatives) != 2 {
		t.Fatalf("unexpected detail tables: %d chains, %d relatives", len(d.Chains), len(d.Relatives))
	}
	if d.Tree.QueryTip != "Nif_Azotobacter_vinelandii" {
		t.Fatalf("detail tree not annotated: %+v", d.Tree)
	}
	st := d.Structure
	if !st.Available || st.Filename != fixtures.StructureFile || st.Size == 0 || st.URL != "https://r2.example/nsdb/"+fixtures.StructureFile {
		t.Fatalf("unexpected structure status %+v", st)
	}
}

func TestBrowserDetailReportsMissingStructure(t *testing.T) {
	logger := &captureLogger{}
	b := newTestBrowser(t, WithLogger(logger))
	d, err := b.Detail(context.Background(), "nsdb-000002")
	if err != nil {
		t.Fatalf("a missing structure must not fail the detail: %v", err)
	}
	if d.Structure.Available || d.Structure.Filename != "nsdb-000002.pdb" || !strings.Contains(d.Structure.Error, "not found") {
		t.Fatalf("unexpected structure status %+v", d.Structure)
	}
	if d.Entry.NitrogenaseType != domain.TypeVnf {
		t.Fatalf("detail should still carry the entry, got %+v", d.Entry)
	}
	if logger.count("error") != 0 {
		t.Fatalf("missing structure is not an error-level event: %+v", logger.records)
	}
}

func TestBrowserDetailChecksStructureWithoutDownload(t *testing.T) {
	b := newTestBrowserWithStore(t, headOnlyStore{fixtureStore(t)})
	d, err := b.Detail(context.Background(), fixtures.StructureID)
	if err != nil {
		t.Fatalf("detail: %v", err)
	}
	if want := int64(len(fixtures.Read(t, fixtures.StructureFile))); !d.Structure.Available || d.Structure.Size != want {
		t.Fatalf("expected available structure of %d bytes, got %+v", want, d.Structure)
	}
}

func TestBrowserStructureInfoAndIDs(t *testing.T) {
	ctx := context.Background()
	b := newTestBrowser(t)
	info, err := b.StructureInfo(ctx, fixtures.StructureID)
	if err != nil || info.Key != fixtures.StructureFile {
		t.Fatalf("structure info: %+v %v", info, err)
	}
	if _, err := b.StructureInfo(ctx, "nsdb-000002"); !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	got, err := b.StructureIDs(ctx)
	if err != nil || len(got) != 1 || got[0] != fixtures.StructureID {
		t.Fatalf("structure ids: %v %v", got, err)
	}
}

func TestBrowserDetailUnknownEntry(t *testing.T) {
	b := newTestBrowser(t)
	if _, err := b.Detail(context.Background(), "nsdb-424242"); !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestBrowserDetailPresignFailureIsLogged(t *testing.T) {
	logger := &captureLogger{}
	store := presignStore{MemoryStore: fixtureStore(t), err: errors.New("signer offline")}
	b := newTestBrowserWithStore(t, store, WithLogger(logger))
	d, err := b.Detail(context.Background(), fixtures.StructureID)
	if err != nil {
		t.Fatalf("detail: %v", err)
	}
	if !d.Structure.Available || d.Structure.URL != "" {
		t.Fatalf("structure should be available without url: %+v", d.Structure)
	}
	if logger.count("warn") == 0 {
		t.Fatalf("expected presign warning, got %+v", logger.records)
	}
}

func TestBrowserOperationTiming(t *testing.T) {
	metrics := &captureMetricsRecorder{}
	clock := &stubClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), step: 5 * time.Millisecond}
	b := newTestBrowser(t, WithMetricsRecorder(metrics), WithClock(clock))
	if _, err := b.Search(context.Background(), "vinelandii", domain.DefaultToggles()); err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(metrics.calls) != 1 {
		t.Fatalf("expected one observation, got %+v", metrics.calls)
	}
	if call := metrics.calls[0]; call.op != OpSearch || !call.success || call.duration != 5*time.Millisecond {
		t.Fatalf("unexpected observation %+v", call)
	}
}

func TestBrowserCanceledContext(t *testing.T) {
	tracer := &captureTracer{}
	b := newTestBrowser(t, WithTracer(tracer))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := b.Search(ctx, "vinelandii", domain.DefaultToggles()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled, got %v", err)
	}
	if !tracer.has(OpSearch, false) {
		t.Fatalf("expected failed span, got %+v", tracer.ended)
	}
}

func TestDefaultServiceOptions(t *testing.T) {
	opts := defaultServiceOptions()
	WithLogger(nil)(&opts)
	WithClock(nil)(&opts)
	WithMetricsRecorder(nil)(&opts)
	WithTracer(nil)(&opts)
	WithURLExpiry(-time.Second)(&opts)
	if _, ok := opts.logger.(noopLogger); !ok {
		t.Fatalf("nil logger should keep the default, got %T", opts.logger)
	}
	if opts.urlExpiry != DefaultURLExpiry {
		t.Fatalf("unexpected url expiry %v", opts.urlExpiry)
	}
	if now := opts.clock.Now(); now.Location() != time.UTC {
		t.Fatalf("default clock should report UTC, got %v", now.Location())
	}
	_, span := opts.tracer.Start(context.Background(), "noop")
	span.End(nil)
	opts.metrics.Observe(context.Background(), "noop", true, time.Second)
	opts.logger.Info("noop")
}
