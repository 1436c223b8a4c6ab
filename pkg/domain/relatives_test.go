package domain

import "testing"

func TestRelativeKey(t *testing.T) {
	cases := []struct {
		entry Entry
		want  string
	}{
		{Entry{NitrogenaseType: TypeNif, ScientificName: "Azotobacter vinelandii"}, "Nif_Azotobacter_vinelandii"},
		{Entry{NitrogenaseType: TypeVnf, ScientificName: "Azotobacter vinelandii DJ"}, "Vnf_Azotobacter_vinelandii_DJ"},
		{Entry{NitrogenaseType: TypeAnc, ScientificName: "Anc_794_map"}, "Anc_794"},
		{Entry{NitrogenaseType: TypeAnc, ScientificName: "Anc_794_altall"}, "Anc_794"},
		{Entry{NitrogenaseType: TypeAnc, ScientificName: "Anc_794_map_altall"}, "Anc_794"},
		{Entry{NitrogenaseType: TypeAnc, ScientificName: "Anc_794"}, "Anc_794"},
		// _map is removed before _altall, so a split "_alt" + "_map" + "all" collapses too.
		{Entry{NitrogenaseType: TypeAnc, ScientificName: "Anc_1_alt_mapall"}, "Anc_1"},
		// Ancestral names keep their spaces.
		{Entry{NitrogenaseType: TypeAnc, ScientificName: "Anc 5_map"}, "Anc 5"},
	}
	for _, tc := range cases {
		if got := RelativeKey(tc.entry); got != tc.want {
			t.Fatalf("RelativeKey(%+v) = %q, want %q", tc.entry, got, tc.want)
		}
	}
}

func TestQueryLabels(t *testing.T) {
	nif := Entry{NitrogenaseType: TypeNif, ScientificName: "Azotobacter vinelandii"}
	if got := QueryTipLabel(nif); got != "Nif_Azotobacter_vinelandii" {
		t.Fatalf("tip label %q", got)
	}
	if got := QueryNodeLabel(nif); got != "azotobacter vinelandii" {
		t.Fatalf("node label %q", got)
	}
	anc := Entry{NitrogenaseType: TypeAnc, ScientificName: "Anc_794_altall"}
	if got := QueryNodeLabel(anc); got != "anc_794" {
		t.Fatalf("node label %q", got)
	}
	if got := QueryTipLabel(anc); got != "Anc_Anc_794_altall" {
		t.Fatalf("tip label %q", got)
	}
}

func TestPhyloRowRelativeRenamesY(t *testing.T) {
	r := PhyloRow{X: "Nif_A_b", Type: "sister", Y: "Nif_C_d"}.Relative()
	if r.Type != "sister" || r.Relative != "Nif_C_d" {
		t.Fatalf("unexpected projection %+v", r)
	}
}

func TestEntryRowMatchesResultColumns(t *testing.T) {
	e := Entry{ID: "nsdb-000001", NitrogenaseType: TypeNif, ScientificName: "A b", Variant: "map", Status: TierGold, Stoichiometry: "A2B2", Lineage: "Bacteria", TaxonID: "1"}
	row := e.Row()
	if len(row) != len(ResultColumns) {
		t.Fatalf("row has %d cells, want %d", len(row), len(ResultColumns))
	}
	if row[0] != "nsdb-000001" || row[4] != "gold" || row[6] != "Bacteria" {
		t.Fatalf("unexpected row %v", row)
	}
}

func TestErrNotFoundMessage(t *testing.T) {
	if got := (ErrNotFound{Entity: EntityEntry, ID: "nsdb-1"}).Error(); got != "entry nsdb-1 not found" {
		t.Fatalf("got %q", got)
	}
}
