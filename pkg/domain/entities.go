// Package domain defines the catalog records, value types and the pure
// query/filter primitives used by nsdb.
package domain

import "fmt"

// EntityType identifies the kind of record a lookup refers to.
type EntityType string

// Supported entity type identifiers used in lookup errors.
const (
	// EntityEntry identifies a protein entry in the ref table.
	EntityEntry EntityType = "entry"
	// EntityStructure identifies a structure file for an entry.
	EntityStructure EntityType = "structure"
)

// NitrogenaseType classifies an entry by nitrogenase family.
type NitrogenaseType string

// Canonical nitrogenase types.
const (
	TypeNif NitrogenaseType = "Nif"
	TypeVnf NitrogenaseType = "Vnf"
	TypeAnf NitrogenaseType = "Anf"
	// TypeAnc marks an ancestral (reconstructed) variant.
	TypeAnc NitrogenaseType = "Anc"
)

// NitrogenaseTypes lists the types in display order.
var NitrogenaseTypes = []NitrogenaseType{TypeNif, TypeVnf, TypeAnf, TypeAnc}

// Tier is the dataset-quality classification of an entry.
type Tier string

// Dataset tiers. Gold entries had their MSA built from scratch; silver
// entries were realigned against another variant's alignment.
const (
	TierGold   Tier = "gold"
	TierSilver Tier = "silver"
)

// Tiers lists the dataset tiers in display order.
var Tiers = []Tier{TierGold, TierSilver}

// Entry is one cataloged protein structure record from the ref table.
type Entry struct {
	ID              string          `json:"id" yaml:"id"`
	NitrogenaseType NitrogenaseType `json:"nitrogenase_type" yaml:"nitrogenase_type"`
	ScientificName  string          `json:"scientific_name" yaml:"scientific_name"`
	Variant         string          `json:"variant" yaml:"variant"`
	Status          Tier            `json:"status" yaml:"status"`
	Stoichiometry   string          `json:"stoichiometry" yaml:"stoichiometry"`
	Lineage         string          `json:"lineage" yaml:"lineage"`
	TaxonID         string          `json:"taxon_id" yaml:"taxon_id"`
}

// ResultColumns is the projection shown in the results grid and CSV export.
var ResultColumns = []string{"id", "nitrogenase_type", "scientific_name", "variant", "status", "stoichiometry", "lineage"}

// Row returns the entry projected onto ResultColumns.
func (e Entry) Row() []string {
	return []string{e.ID, string(e.NitrogenaseType), e.ScientificName, e.Variant, string(e.Status), e.Stoichiometry, e.Lineage}
}

// Chain is one polypeptide chain of an entry's structure (chainref table).
type Chain struct {
	EntryID  string  `json:"id" yaml:"id"`
	Chain    string  `json:"chain" yaml:"chain"`
	PLDDT    float64 `json:"pLDDT" yaml:"pLDDT"`
	Subunit  string  `json:"subunit" yaml:"subunit"`
	Sequence string  `json:"sequence" yaml:"sequence"`
}

// PhyloRow is a raw row of the phylo table. X is the composite lookup key
// and Y the related taxon label.
type PhyloRow struct {
	X    string
	Type string
	Y    string
}

// Relative is a phylo row projected for display, with y renamed.
type Relative struct {
	Type     string `json:"type" yaml:"type"`
	Relative string `json:"relative" yaml:"relative"`
}

// Relative projects the row to (type, relative).
func (r PhyloRow) Relative() Relative {
	return Relative{Type: r.Type, Relative: r.Y}
}

// ErrNotFound is returned when a lookup by identifier has no match.
type ErrNotFound struct {
	Entity EntityType
	ID     string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}
