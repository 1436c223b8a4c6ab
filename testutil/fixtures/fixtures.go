// Package fixtures ships a small, self-consistent reference dataset for
// tests: the three catalog CSVs, a reference tree and one structure file.
package fixtures

import (
	"embed"
	"os"
	"path/filepath"
	"testing"

	"github.com/brunocuevas/nsdb/pkg/domain"
)

//go:embed data
var files embed.FS

// File names inside the fixture directory.
const (
	ReferenceFile = "reference.csv"
	ChainsFile    = "chain-reference.csv"
	PhyloFile     = "phylogenetic-relationships.csv"
	TreeFile      = "reference.tre"
	StructureID   = "nsdb-000001"
	StructureFile = StructureID + ".pdb"
	Outgroup      = "BchChl"
)

// Read returns the raw bytes of a fixture file.
func Read(t testing.TB, name string) []byte {
	t.Helper()
	b, err := files.ReadFile("data/" + name)
	if err != nil {
		t.Fatalf("fixture %s: %v", name, err)
	}
	return b
}

// Dir writes every fixture file into a fresh temporary directory and
// returns its path.
func Dir(t testing.TB) string {
	t.Helper()
	dir := t.TempDir()
	entries, err := files.ReadDir("data")
	if err != nil {
		t.Fatalf("fixtures: %v", err)
	}
	for _, e := range entries {
		if err := os.WriteFile(filepath.Join(dir, e.Name()), Read(t, e.Name()), 0o644); err != nil {
			t.Fatalf("write fixture: %v", err)
		}
	}
	return dir
}

const avLineage = "Bacteria; Pseudomonadota; Gammaproteobacteria; Pseudomonadales; Pseudomonadaceae; Azotobacter"

// Dataset is the parsed form of the CSV fixtures. Chain sequences are left
// empty.
func Dataset() domain.Dataset {
	return domain.Dataset{
		Entries: []domain.Entry{
			{ID: "nsdb-000001", NitrogenaseType: domain.TypeNif, ScientificName: "Azotobacter vinelandii", Variant: "NifDK", Status: domain.TierGold, Stoichiometry: "A2B2", Lineage: avLineage, TaxonID: "322710"},
			{ID: "nsdb-000002", NitrogenaseType: domain.TypeVnf, ScientificName: "Azotobacter vinelandii", Variant: "VnfDGK", Status: domain.TierSilver, Stoichiometry: "A2B2C2", Lineage: avLineage, TaxonID: "322710"},
			{ID: "nsdb-000003", NitrogenaseType: domain.TypeAnf, ScientificName: "Azotobacter vinelandii", Variant: "AnfDGK", Status: domain.TierGold, Stoichiometry: "A2B2C2", Lineage: avLineage, TaxonID: "322710"},
			{ID: "nsdb-000004", NitrogenaseType: domain.TypeNif, ScientificName: "Clostridium pasteurianum", Variant: "NifDK", Status: domain.TierGold, Stoichiometry: "A2B2", Lineage: "Bacteria; Bacillota; Clostridia; Eubacteriales; Clostridiaceae; Clostridium", TaxonID: "1501"},
			{ID: "nsdb-000005", NitrogenaseType: domain.TypeNif, ScientificName: "Methanotorris igneus", Variant: "NifDK", Status: domain.TierSilver, Stoichiometry: "A2B2", Lineage: "Archaea; Methanobacteriota; Methanococci; Methanococcales; Methanocaldococcaceae; Methanotorris", TaxonID: "880724"},
			{ID: "nsdb-000006", NitrogenaseType: domain.TypeAnc, ScientificName: "anc_821_map", Variant: "NifDK", Status: domain.TierGold, Stoichiometry: "A2B2", Lineage: "Ancestral sequence reconstruction"},
			{ID: "nsdb-000007", NitrogenaseType: domain.TypeAnc, ScientificName: "anc_1206_altall", Variant: "NifDK", Status: domain.TierSilver, Stoichiometry: "A2B2", Lineage: "Ancestral sequence reconstruction"},
			{ID: "nsdb-000008", NitrogenaseType: domain.TypeNif, ScientificName: "Example one 50%_off", Variant: "NifDK", Status: domain.TierGold, Stoichiometry: "A2B2", Lineage: "Bacteria; Example_lineage", TaxonID: "42"},
		},
		Chains: []domain.Chain{
			{EntryID: "nsdb-000001", Chain: "B", PLDDT: 91.2, Subunit: "NifK"},
			{EntryID: "nsdb-000001", Chain: "A", PLDDT: 93.5, Subunit: "NifD"},
			{EntryID: "nsdb-000002", Chain: "A", PLDDT: 88.0, Subunit: "VnfD"},
			{EntryID: "nsdb-000003", Chain: "A", PLDDT: 85.4, Subunit: "AnfD"},
			{EntryID: "nsdb-000004", Chain: "A", PLDDT: 90.1, Subunit: "NifD"},
			{EntryID: "nsdb-000006", Chain: "A", PLDDT: 79.9, Subunit: "NifD"},
		},
		Phylo: []domain.PhyloRow{
			{X: "Nif_Azotobacter_vinelandii", Type: "closest_extant", Y: "Vnf_Azotobacter_vinelandii"},
			{X: "Nif_Azotobacter_vinelandii", Type: "closest_ancestor", Y: "anc_821"},
			{X: "Vnf_Azotobacter_vinelandii", Type: "closest_ancestor", Y: "anc_821"},
			{X: "Anf_Azotobacter_vinelandii", Type: "closest_extant", Y: "Nif_Clostridium_pasteurianum"},
			{X: "Anf_Azotobacter_vinelandii", Type: "closest_ancestor", Y: "anc_808"},
			{X: "anc_821", Type: "parent", Y: "anc_794"},
			{X: "anc_821", Type: "descendant", Y: "Nif_Azotobacter_vinelandii"},
			{X: "anc_1206", Type: "parent", Y: "anc_1345"},
		},
	}
}
