package assembly

import (
	"sort"
	"strings"

	"trendsync/extraction"
	"trendsync/taxonomy"
)

// Assignment binds one attribute to either a fixed value id or a free-text
// custom value. Exactly one of ValueID/CustomValue is set.
type Assignment struct {
	AttributeID int
	ValueID     int
	CustomValue string
}

// DefaultMaxSchemaEntries bounds how many schema entries one assemble call
// considers. The remote API rejects oversized attribute lists, so entries past
// the cap are picked up in a later round only when the remote reports them
// missing.
const DefaultMaxSchemaEntries = 30

// placeholderCustom is sent for a forced attribute that accepts only custom
// text and for which no signal exists.
const placeholderCustom = "Belirtilmemiş"

// unspecifiedNames are value names meaning "not specified". For fabric and
// pattern/fit attributes these beat blindly taking the first listed value.
var unspecifiedNames = []string{"belirtilmemis", "belirsiz", "diger"}

// attrKeywords maps attribute-name keywords (folded) to extractor fact keys.
// Matching is by keyword containment, never exact name equality, since the
// marketplace names the same concept differently across categories.
var attrKeywords = []struct {
	keyword string
	fact    extraction.FactKey
}{
	{"renk", extraction.FactColor},
	{"color", extraction.FactColor},
	{"cinsiyet", extraction.FactGender},
	{"gender", extraction.FactGender},
	{"yas grubu", extraction.FactAge},
	{"yas", extraction.FactAge},
	{"age", extraction.FactAge},
	{"kumas", extraction.FactFabric},
	{"materyal", extraction.FactFabric},
	{"material", extraction.FactFabric},
	{"beden", extraction.FactSize},
	{"size", extraction.FactSize},
}

// fabricKindKeywords flag attributes where a wrong specific value is worse
// than an explicit "unspecified" one.
var fabricKindKeywords = []string{"kumas", "materyal", "desen", "kalip", "kesim", "fit"}

// Assembler maps extracted facts onto a category's attribute schema.
type Assembler struct {
	maxSchemaEntries int
}

// NewAssembler returns an assembler with the default schema-entry cap.
func NewAssembler() *Assembler {
	return &Assembler{maxSchemaEntries: DefaultMaxSchemaEntries}
}

// Assemble builds the attribute list for one submission attempt. Rules per
// schema entry, first match wins: keep a previous assignment, match a scanned
// key:value pair, map the attribute to an extracted fact, prefer an
// "unspecified" value for fabric-kind attributes, fall back to the first
// value only when the remote explicitly asked for the attribute, else skip.
// Deterministic: identical inputs give identical output.
func (a *Assembler) Assemble(schemas []taxonomy.AttributeSchema, facts *extraction.Facts, previous []Assignment, forceInclude map[int]bool) []Assignment {
	prevByID := make(map[int]Assignment, len(previous))
	for _, p := range previous {
		prevByID[p.AttributeID] = p
	}

	var out []Assignment
	for i, schema := range schemas {
		if !schema.Usable() {
			continue
		}
		// Entries past the cap ride along only when previously assigned or
		// explicitly demanded by the remote.
		if i >= a.maxSchemaEntries && !forceInclude[schema.AttributeID] {
			if _, ok := prevByID[schema.AttributeID]; !ok {
				continue
			}
		}

		if asg, ok := a.assignOne(schema, facts, prevByID, forceInclude); ok {
			out = append(out, asg)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].AttributeID < out[j].AttributeID })
	return out
}

func (a *Assembler) assignOne(schema taxonomy.AttributeSchema, facts *extraction.Facts, prevByID map[int]Assignment, forceInclude map[int]bool) (Assignment, bool) {
	// Rule 1: never regress a field the remote already accepted.
	if prev, ok := prevByID[schema.AttributeID]; ok {
		return prev, true
	}

	attrName := taxonomy.NormalizeText(schema.Name)

	// Rule 2: a scanned key:value pair whose key names this attribute.
	if facts != nil {
		for _, pair := range facts.Pairs {
			key := taxonomy.NormalizeText(pair.Key)
			if key == "" || !nameOverlap(attrName, key) {
				continue
			}
			if v, ok := schema.ValueByName(pair.Value); ok {
				return Assignment{AttributeID: schema.AttributeID, ValueID: v.ID}, true
			}
			if schema.AllowsCustom {
				return Assignment{AttributeID: schema.AttributeID, CustomValue: pair.Value}, true
			}
		}
	}

	// Rule 3: attribute name maps to an extracted fact key.
	if facts != nil {
		if factKey, ok := factKeyFor(attrName); ok {
			if fact, ok := facts.Get(factKey); ok {
				if v, ok := schema.ValueByName(fact.Value); ok {
					return Assignment{AttributeID: schema.AttributeID, ValueID: v.ID}, true
				}
				if schema.AllowsCustom {
					return Assignment{AttributeID: schema.AttributeID, CustomValue: fact.Value}, true
				}
			}
		}
	}

	// Rule 4: fabric/pattern-kind attributes take an "unspecified" value
	// over a made-up specific one.
	if isFabricKind(attrName) {
		if v, ok := unspecifiedValue(schema); ok && (schema.Required || forceInclude[schema.AttributeID]) {
			return Assignment{AttributeID: schema.AttributeID, ValueID: v.ID}, true
		}
	}

	// Rule 5: the remote reported this attribute missing, so something must
	// be sent. First fixed value, or a placeholder when only custom text is
	// accepted.
	if forceInclude[schema.AttributeID] {
		if len(schema.Values) > 0 {
			return Assignment{AttributeID: schema.AttributeID, ValueID: schema.Values[0].ID}, true
		}
		if schema.AllowsCustom {
			return Assignment{AttributeID: schema.AttributeID, CustomValue: placeholderCustom}, true
		}
	}

	// Rule 6: no signal, not forced. Padding optional attributes with
	// guesses causes more rejections than it prevents.
	return Assignment{}, false
}

// nameOverlap reports whether two normalized names reference the same
// attribute, by substring containment either direction.
func nameOverlap(a, b string) bool {
	if len(a) < 3 || len(b) < 3 {
		return a == b
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

func factKeyFor(attrName string) (extraction.FactKey, bool) {
	for _, entry := range attrKeywords {
		if strings.Contains(attrName, entry.keyword) {
			return entry.fact, true
		}
	}
	return "", false
}

func isFabricKind(attrName string) bool {
	for _, kw := range fabricKindKeywords {
		if strings.Contains(attrName, kw) {
			return true
		}
	}
	return false
}

func unspecifiedValue(schema taxonomy.AttributeSchema) (taxonomy.AttributeValue, bool) {
	for _, v := range schema.Values {
		name := taxonomy.NormalizeText(v.Name)
		for _, u := range unspecifiedNames {
			if name == u {
				return v, true
			}
		}
	}
	return taxonomy.AttributeValue{}, false
}
