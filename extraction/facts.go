package extraction

// FactKey is one of the fixed fact slots the extractor can fill.
type FactKey string

const (
	FactColor  FactKey = "color"
	FactGender FactKey = "gender"
	FactAge    FactKey = "ageGroup"
	FactFabric FactKey = "fabricComposition"
	FactSize   FactKey = "size"
	FactIsSet  FactKey = "isSet"
)

// Fact is a normalized value with the confidence of the extractor that
// produced it.
type Fact struct {
	Value      string
	Confidence float64
}

// KeyValue is a raw structured pair scanned from the description text. Keys
// are stored verbatim: at extraction time the category's attribute names are
// not known yet, so matching against them happens in the assembler.
type KeyValue struct {
	Key   string
	Value string
}

// Facts is the result of one extraction pass over one product descriptor.
// It is an intermediate artifact: produced fresh per descriptor and never
// persisted. Absent keys mean "no confident signal", never a default guess.
type Facts struct {
	facts map[FactKey]Fact
	Pairs []KeyValue
}

// NewFacts returns an empty fact set.
func NewFacts() *Facts {
	return &Facts{facts: make(map[FactKey]Fact)}
}

// Get returns the fact for a key, if one was extracted.
func (f *Facts) Get(key FactKey) (Fact, bool) {
	fact, ok := f.facts[key]
	return fact, ok
}

// Value returns the fact value, or "" when absent.
func (f *Facts) Value(key FactKey) string {
	return f.facts[key].Value
}

// Set stores a fact, but only when it beats the confidence of an earlier
// guess for the same key. Equal confidence keeps the first value so stage
// order decides ties.
func (f *Facts) Set(key FactKey, value string, confidence float64) {
	if value == "" {
		return
	}
	if prev, ok := f.facts[key]; ok && prev.Confidence >= confidence {
		return
	}
	f.facts[key] = Fact{Value: value, Confidence: confidence}
}

// Boost raises the confidence of an existing fact without changing its value.
func (f *Facts) Boost(key FactKey, delta float64) {
	fact, ok := f.facts[key]
	if !ok {
		return
	}
	fact.Confidence += delta
	if fact.Confidence > 1.0 {
		fact.Confidence = 1.0
	}
	f.facts[key] = fact
}

// Len returns the number of filled fact keys.
func (f *Facts) Len() int {
	return len(f.facts)
}
