// Package catalogtest holds the behaviour suite every domain.Catalog
// implementation must pass against the fixture dataset.
package catalogtest

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/brunocuevas/nsdb/pkg/domain"
	"github.com/brunocuevas/nsdb/testutil/fixtures"
)

// Opener builds a catalog loaded with ds.
type Opener func(t *testing.T, ds domain.Dataset) domain.Catalog

// Run exercises lookups, predicate evaluation and ordering. The last subtest
// opens a second catalog, so openers that reuse one database may replace the
// fixture tables at that point.
func Run(t *testing.T, open Opener) {
	t.Helper()
	cat := open(t, fixtures.Dataset())
	t.Cleanup(func() { _ = cat.Close() })
	ctx := context.Background()

	t.Run("FindEntries", func(t *testing.T) {
		cases := []struct {
			query string
			want  []string
		}{
			{"taxid:322710", []string{"nsdb-000001", "nsdb-000002", "nsdb-000003"}},
			{"taxid:32271", nil},
			{"taxid:", nil},
			{"taxid: 1501", nil},
			{"nsdb-000004", []string{"nsdb-000004"}},
			{"nsdb-00000", nil},
			{"NSDB-000004", nil},
			{"azotobacter", []string{"nsdb-000001", "nsdb-000002", "nsdb-000003"}},
			{"METHANOTORRIS", []string{"nsdb-000005"}},
			{"pseudomonadota", []string{"nsdb-000001", "nsdb-000002", "nsdb-000003"}},
			{"clostridia", []string{"nsdb-000004"}},
			{"50%_", []string{"nsdb-000008"}},
			{"%", []string{"nsdb-000008"}},
			{"_", []string{"nsdb-000006", "nsdb-000007", "nsdb-000008"}},
			{"x' OR '1'='1", nil},
			{"no such organism", nil},
		}
		for _, tc := range cases {
			got, err := cat.FindEntries(ctx, domain.TranslateQuery(tc.query))
			if err != nil {
				t.Fatalf("%q: %v", tc.query, err)
			}
			if ids := entryIDs(got); !reflect.DeepEqual(ids, tc.want) {
				t.Fatalf("%q: got %v want %v", tc.query, ids, tc.want)
			}
		}
	})

	t.Run("FindEntriesReturnsFullRows", func(t *testing.T) {
		got, err := cat.FindEntries(ctx, domain.TranslateQuery("nsdb-000006"))
		if err != nil || len(got) != 1 {
			t.Fatalf("lookup: %v %+v", err, got)
		}
		if want := fixtures.Dataset().Entries[5]; got[0] != want {
			t.Fatalf("row mismatch: got %+v want %+v", got[0], want)
		}
	})

	t.Run("Entry", func(t *testing.T) {
		e, err := cat.Entry(ctx, "nsdb-000002")
		if err != nil || e.NitrogenaseType != domain.TypeVnf || e.TaxonID != "322710" {
			t.Fatalf("entry: %v %+v", err, e)
		}
		_, err = cat.Entry(ctx, "nsdb-999999")
		var nf domain.ErrNotFound
		if !errors.As(err, &nf) || nf.ID != "nsdb-999999" {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Chains", func(t *testing.T) {
		chains, err := cat.Chains(ctx, "nsdb-000001")
		if err != nil {
			t.Fatalf("chains: %v", err)
		}
		if len(chains) != 2 || chains[0].Chain != "A" || chains[1].Chain != "B" {
			t.Fatalf("expected chains ordered A,B got %+v", chains)
		}
		if chains[0].PLDDT != 93.5 || chains[0].Subunit != "NifD" || chains[0].EntryID != "nsdb-000001" {
			t.Fatalf("unexpected chain %+v", chains[0])
		}
		none, err := cat.Chains(ctx, "nsdb-000005")
		if err != nil || len(none) != 0 {
			t.Fatalf("expected no chains, got %v %+v", err, none)
		}
	})

	t.Run("Relatives", func(t *testing.T) {
		rel, err := cat.Relatives(ctx, "Nif_Azotobacter_vinelandii")
		if err != nil {
			t.Fatalf("relatives: %v", err)
		}
		want := []domain.Relative{
			{Type: "closest_extant", Relative: "Vnf_Azotobacter_vinelandii"},
			{Type: "closest_ancestor", Relative: "anc_821"},
		}
		if !reflect.DeepEqual(rel, want) {
			t.Fatalf("got %+v want %+v", rel, want)
		}
		anc, _ := cat.Relatives(ctx, domain.RelativeKey(fixtures.Dataset().Entries[5]))
		if len(anc) != 2 {
			t.Fatalf("expected ancestral relatives, got %+v", anc)
		}
		none, err := cat.Relatives(ctx, "Nif_Methanotorris_igneus")
		if err != nil || len(none) != 0 {
			t.Fatalf("expected empty relatives, got %v %+v", err, none)
		}
	})

	t.Run("FindEntriesFoldsUnicodeCase", func(t *testing.T) {
		uni := open(t, domain.Dataset{Entries: []domain.Entry{{
			ID:              "nsdb-000900",
			NitrogenaseType: domain.TypeNif,
			ScientificName:  "Ölandia ÉCOLI",
			Variant:         "NifDK",
			Status:          domain.TierGold,
			Stoichiometry:   "A2B2",
			Lineage:         "Bacteria; Ångströmia",
			TaxonID:         "900",
		}}})
		t.Cleanup(func() { _ = uni.Close() })
		for _, query := range []string{"écoli", "ölandia", "ÅNGSTRÖMIA", "ÖLANDIA écoli"} {
			got, err := uni.FindEntries(ctx, domain.TranslateQuery(query))
			if err != nil {
				t.Fatalf("%q: %v", query, err)
			}
			if ids := entryIDs(got); !reflect.DeepEqual(ids, []string{"nsdb-000900"}) {
				t.Fatalf("%q: got %v", query, ids)
			}
		}
		if got, _ := uni.FindEntries(ctx, domain.TranslateQuery("ecoli")); len(got) != 0 {
			t.Fatalf("accents are not folded, got %v", entryIDs(got))
		}
	})
}

func entryIDs(entries []domain.Entry) []string {
	var ids []string
	for _, e := range entries {
		ids = append(ids, e.ID)
	}
	return ids
}
