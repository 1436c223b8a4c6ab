package domain

import "strings"

// underscored replaces spaces with underscores.
func underscored(name string) string {
	return strings.ReplaceAll(name, " ", "_")
}

// RelativeKey builds the phylo.x key for an entry. Extant entries use
// "<type>_<name>" with spaces underscored; ancestral entries use the bare
// name with "_map" and then "_altall" removed.
func RelativeKey(e Entry) string {
	if e.NitrogenaseType != TypeAnc {
		return string(e.NitrogenaseType) + "_" + underscored(e.ScientificName)
	}
	key := strings.ReplaceAll(e.ScientificName, "_map", "")
	return strings.ReplaceAll(key, "_altall", "")
}

// QueryTipLabel is the reference-tree tip label an entry would carry.
func QueryTipLabel(e Entry) string {
	return string(e.NitrogenaseType) + "_" + underscored(e.ScientificName)
}

// QueryNodeLabel is the ancestral node label derived from the first two
// underscore-separated tokens of the scientific name, lower-cased.
func QueryNodeLabel(e Entry) string {
	tokens := strings.Split(e.ScientificName, "_")
	if len(tokens) > 2 {
		tokens = tokens[:2]
	}
	return strings.ToLower(strings.Join(tokens, "_"))
}
