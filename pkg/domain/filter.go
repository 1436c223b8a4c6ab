package domain

// Toggles holds the user-selected category switches applied to a result set.
// A value missing from a map counts as switched off.
type Toggles struct {
	Types map[NitrogenaseType]bool
	Tiers map[Tier]bool
}

// DefaultToggles returns toggles with every type and tier switched on.
func DefaultToggles() Toggles {
	t := Toggles{
		Types: make(map[NitrogenaseType]bool, len(NitrogenaseTypes)),
		Tiers: make(map[Tier]bool, len(Tiers)),
	}
	for _, nt := range NitrogenaseTypes {
		t.Types[nt] = true
	}
	for _, tier := range Tiers {
		t.Tiers[tier] = true
	}
	return t
}

// Includes reports whether e passes both dimensions.
func (t Toggles) Includes(e Entry) bool {
	return t.Types[e.NitrogenaseType] && t.Tiers[e.Status]
}

// Apply returns the entries whose type and tier are both switched on, in
// input order. There is no "show all" fallback when a dimension is all off.
func (t Toggles) Apply(entries []Entry) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if t.Includes(e) {
			out = append(out, e)
		}
	}
	return out
}
