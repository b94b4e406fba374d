package taxonomy

// AttributeValue is one allowed value of a category attribute.
type AttributeValue struct {
	ID   int
	Name string
}

// AttributeSchema describes one attribute of a single category: whether the
// marketplace requires it, whether free-text values are accepted and which
// fixed values exist. Scoped to one category id.
type AttributeSchema struct {
	AttributeID  int
	Name         string
	Required     bool
	AllowsCustom bool
	Varianter    bool
	Values       []AttributeValue
}

// Usable reports whether the attribute can be filled at all. An attribute
// that disallows custom values and offers no fixed values must be skipped.
func (a AttributeSchema) Usable() bool {
	return a.AllowsCustom || len(a.Values) > 0
}

// ValueByName returns the fixed value whose normalized name matches the
// given text, either exactly or by substring containment in both directions.
func (a AttributeSchema) ValueByName(text string) (AttributeValue, bool) {
	want := NormalizeText(text)
	if want == "" {
		return AttributeValue{}, false
	}

	// Exact match first, containment second: "lacivert" must prefer the
	// value named exactly "Lacivert" over "Lacivert Melanj".
	for _, v := range a.Values {
		if NormalizeText(v.Name) == want {
			return v, true
		}
	}
	for _, v := range a.Values {
		name := NormalizeText(v.Name)
		if name == "" {
			continue
		}
		if containsWord(name, want) || containsWord(want, name) {
			return v, true
		}
	}
	return AttributeValue{}, false
}
