package httpapi

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brunocuevas/nsdb/internal/blob"
	"github.com/brunocuevas/nsdb/internal/core"
	"github.com/brunocuevas/nsdb/internal/infra/catalog/memory"
	"github.com/brunocuevas/nsdb/internal/phylo"
	"github.com/brunocuevas/nsdb/internal/structure"
	"github.com/brunocuevas/nsdb/pkg/domain"
	"github.com/brunocuevas/nsdb/testutil/fixtures"
)

type testServer struct {
	e   *echo.Echo
	reg *prometheus.Registry
	log *bytes.Buffer
}

func newTestServer(t *testing.T, exposeTiers bool) *testServer {
	t.Helper()
	store := blob.NewMemory()
	store.Add(fixtures.StructureFile, fixtures.Read(t, fixtures.StructureFile), contentTypePDB)
	tree, err := phylo.LoadReferenceTree(bytes.NewReader(fixtures.Read(t, fixtures.TreeFile)), fixtures.Outgroup)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	recorder, err := core.NewPrometheusMetricsRecorder(reg)
	require.NoError(t, err)

	browser := core.NewBrowser(
		memory.New(fixtures.Dataset()),
		structure.NewFetcher(store),
		phylo.NewAnnotator(tree, phylo.DefaultReferenceTips, phylo.DefaultReferenceNodes),
		core.WithMetricsRecorder(recorder),
	)
	t.Cleanup(func() { _ = browser.Close() })

	var logs bytes.Buffer
	e := New(browser, Options{
		Logger:      slog.New(slog.NewJSONHandler(&logs, nil)),
		Gatherer:    reg,
		ExposeTiers: exposeTiers,
		Now:         func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) },
	})
	return &testServer{e: e, reg: reg, log: &logs}
}

func (s *testServer) get(t *testing.T, target string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func entryIDs(entries []domain.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

func TestSearchEntries(t *testing.T) {
	s := newTestServer(t, true)

	tests := []struct {
		name   string
		target string
		want   []string
	}{
		{"text", "/api/v1/entries?q=vinelandii", []string{"nsdb-000001", "nsdb-000002", "nsdb-000003"}},
		{"type toggle off", "/api/v1/entries?q=vinelandii&nif=false", []string{"nsdb-000002", "nsdb-000003"}},
		{"tier toggle off", "/api/v1/entries?q=vinelandii&silver=0", []string{"nsdb-000001", "nsdb-000003"}},
		{"taxid", "/api/v1/entries?q=taxid:1501", []string{"nsdb-000004"}},
		{"exact id", "/api/v1/entries?q=nsdb-000007", []string{"nsdb-000007"}},
		{"literal percent", "/api/v1/entries?q=50%25", []string{"nsdb-000008"}},
		{"empty", "/api/v1/entries?q=", []string{}},
		{"space is a term", "/api/v1/entries?q=%20&anc=false", []string{"nsdb-000001", "nsdb-000002", "nsdb-000003", "nsdb-000004", "nsdb-000005", "nsdb-000008"}},
		{"missing q", "/api/v1/entries", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.get(t, tt.target)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			body := decode[searchResponse](t, rec)
			assert.Equal(t, tt.want, entryIDs(body.Entries))
			assert.Equal(t, len(tt.want), body.Count)
		})
	}
}

func TestSearchEntriesBadToggle(t *testing.T) {
	s := newTestServer(t, true)
	rec := s.get(t, "/api/v1/entries?q=vinelandii&anf=maybe")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode[errorResponse](t, rec)
	assert.Contains(t, body.Error, "anf")
	assert.NotEmpty(t, body.RequestID)
}

func TestSearchEntriesHiddenTiers(t *testing.T) {
	s := newTestServer(t, false)
	rec := s.get(t, "/api/v1/entries?q=vinelandii&silver=false&gold=bogus")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[searchResponse](t, rec)
	assert.Equal(t, 3, body.Count, "tier parameters are ignored when tiers are not exposed")
}

func TestSearchEntriesCSV(t *testing.T) {
	s := newTestServer(t, true)
	rec := s.get(t, "/api/v1/entries?q=vinelandii&format=csv&anf=false")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get(echo.HeaderContentType))
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "nsdb-entries-20240501T120000Z.csv")

	rows, err := csv.NewReader(strings.NewReader(rec.Body.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, domain.ResultColumns, rows[0])
	assert.Equal(t, []string{"nsdb-000001", "Nif", "Azotobacter vinelandii", "NifDK", "gold", "A2B2"}, rows[1][:6])

	rec = s.get(t, "/api/v1/entries?q=vinelandii", echo.HeaderAccept, "text/csv")
	assert.Equal(t, "text/csv", rec.Header().Get(echo.HeaderContentType))

	rec = s.get(t, "/api/v1/entries?q=vinelandii&format=parquet")
	assert.Equal(t, http.StatusNotAcceptable, rec.Code)
}

func TestEntryDetail(t *testing.T) {
	s := newTestServer(t, true)
	rec := s.get(t, "/api/v1/entries/nsdb-000001")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	d := decode[core.Detail](t, rec)
	assert.Equal(t, "nsdb-000001", d.Entry.ID)
	assert.Len(t, d.Chains, 2)
	assert.Equal(t, "Nif_Azotobacter_vinelandii", d.RelativeKey)
	assert.True(t, d.Structure.Available)
	assert.Equal(t, fixtures.StructureFile, d.Structure.Filename)

	rec = s.get(t, "/api/v1/entries/nsdb-000002")
	require.Equal(t, http.StatusOK, rec.Code, "a missing structure does not fail the detail")
	d = decode[core.Detail](t, rec)
	assert.False(t, d.Structure.Available)
	assert.Contains(t, d.Structure.Error, "not found")

	rec = s.get(t, "/api/v1/entries/nsdb-999999")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEntryChainsAndRelatives(t *testing.T) {
	s := newTestServer(t, true)

	rec := s.get(t, "/api/v1/entries/nsdb-000001/chains")
	require.Equal(t, http.StatusOK, rec.Code)
	chains := decode[struct {
		ID     string         `json:"id"`
		Chains []domain.Chain `json:"chains"`
	}](t, rec)
	require.Len(t, chains.Chains, 2)
	assert.Equal(t, "A", chains.Chains[0].Chain)
	assert.InDelta(t, 93.5, chains.Chains[0].PLDDT, 1e-9)

	rec = s.get(t, "/api/v1/entries/nsdb-000005/chains")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":"nsdb-000005","chains":[]}`, rec.Body.String())

	rec = s.get(t, "/api/v1/entries/nsdb-000007/relatives")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":"nsdb-000007","key":"anc_1206","relatives":[{"type":"parent","relative":"anc_1345"}]}`, rec.Body.String())

	rec = s.get(t, "/api/v1/entries/nsdb-999999/relatives")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEntryStructureDownload(t *testing.T) {
	s := newTestServer(t, true)
	rec := s.get(t, "/api/v1/entries/nsdb-000001/structure")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, contentTypePDB, rec.Header().Get(echo.HeaderContentType))
	assert.Equal(t, `attachment; filename="nsdb-000001.pdb"`, rec.Header().Get(echo.HeaderContentDisposition))
	assert.Equal(t, string(fixtures.Read(t, fixtures.StructureFile)), rec.Body.String())

	rec = s.get(t, "/api/v1/entries/nsdb-000003/structure")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, decode[errorResponse](t, rec).Error, "nsdb-000003.pdb")
}

func TestEntryTree(t *testing.T) {
	s := newTestServer(t, true)
	rec := s.get(t, "/api/v1/entries/nsdb-000006/tree")
	require.Equal(t, http.StatusOK, rec.Code)
	ann := decode[phylo.Annotation](t, rec)
	assert.Equal(t, "anc_821", ann.QueryNode)
	assert.Contains(t, ann.NodeColors, phylo.ColorHighlight)

	rec = s.get(t, "/api/v1/entries/nsdb-000006/tree.svg")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get(echo.HeaderContentType))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "<svg"))

	rec = s.get(t, "/api/v1/entries/nsdb-999999/tree.svg")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthzMetricsAndRequestID(t *testing.T) {
	s := newTestServer(t, true)

	rec := s.get(t, "/healthz", RequestIDHeader, "req-42")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "req-42", rec.Header().Get(RequestIDHeader))

	s.get(t, "/api/v1/entries?q=vinelandii")
	rec = s.get(t, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `nsdb_browser_operations_total{operation="search",status="success"} 1`)

	rec = s.get(t, "/api/v1/nothing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
	assert.NotEmpty(t, decode[errorResponse](t, rec).Error)

	assert.Contains(t, s.log.String(), `"request_id":"req-42"`)
	assert.Contains(t, s.log.String(), `"status":404`)
}

func TestOptionalEndpoints(t *testing.T) {
	serve := func(e *echo.Echo, target string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		return rec
	}
	bare := New(nil, Options{})
	assert.Equal(t, http.StatusNotFound, serve(bare, "/metrics").Code)
	assert.Equal(t, http.StatusNotFound, serve(bare, "/debug/vars").Code)

	withVars := New(nil, Options{DebugVars: true})
	rec := serve(withVars, "/debug/vars")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "memstats")
}
