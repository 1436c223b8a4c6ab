package domain

import "strings"

// Query prefixes recognised by TranslateQuery.
const (
	TaxonIDPrefix = "taxid:"
	EntryIDPrefix = "nsdb-"
)

// PredicateKind selects which columns a Predicate compares against.
type PredicateKind int

const (
	// MatchTaxonID is an exact match on taxon_id.
	MatchTaxonID PredicateKind = iota + 1
	// MatchEntryID is an exact match on id.
	MatchEntryID
	// MatchText is a case-insensitive substring match on scientific_name or lineage.
	MatchText
)

func (k PredicateKind) String() string {
	switch k {
	case MatchTaxonID:
		return "taxon_id"
	case MatchEntryID:
		return "id"
	case MatchText:
		return "text"
	default:
		return "unknown"
	}
}

// Predicate is a structured filter over the ref table. Backends bind Value
// as a query parameter; it is never spliced into query text.
type Predicate struct {
	Kind  PredicateKind
	Value string
}

// TranslateQuery maps free-text search input onto a Predicate. Rules are
// checked in order and the first match wins:
//
//	taxid:<rest>  -> taxon_id == <rest>; entries without a taxon id never match
//	nsdb-...      -> id == <input>
//	anything else -> scientific_name or lineage contains <input>, ignoring case
//
// Unknown prefixes fall through to the text match.
func TranslateQuery(raw string) Predicate {
	switch {
	case strings.HasPrefix(raw, TaxonIDPrefix):
		return Predicate{Kind: MatchTaxonID, Value: raw[len(TaxonIDPrefix):]}
	case strings.HasPrefix(raw, EntryIDPrefix):
		return Predicate{Kind: MatchEntryID, Value: raw}
	default:
		return Predicate{Kind: MatchText, Value: raw}
	}
}

// Matches reports whether e satisfies the predicate.
func (p Predicate) Matches(e Entry) bool {
	switch p.Kind {
	case MatchTaxonID:
		return e.TaxonID != "" && e.TaxonID == p.Value
	case MatchEntryID:
		return e.ID == p.Value
	case MatchText:
		needle := strings.ToLower(p.Value)
		return strings.Contains(strings.ToLower(e.ScientificName), needle) ||
			strings.Contains(strings.ToLower(e.Lineage), needle)
	default:
		return false
	}
}
