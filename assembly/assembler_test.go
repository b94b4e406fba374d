package assembly

import (
	"fmt"
	"reflect"
	"testing"

	"trendsync/extraction"
	"trendsync/taxonomy"
)

var (
	colorSchema = taxonomy.AttributeSchema{
		AttributeID: 47,
		Name:        "Renk",
		Required:    true,
		Values: []taxonomy.AttributeValue{
			{ID: 1001, Name: "Siyah"},
			{ID: 1002, Name: "Lacivert"},
		},
	}
	ageSchema = taxonomy.AttributeSchema{
		AttributeID: 60,
		Name:        "Yaş Grubu",
		Required:    true,
		Values: []taxonomy.AttributeValue{
			{ID: 2001, Name: "Bebek"},
			{ID: 2002, Name: "Çocuk"},
		},
	}
	fabricSchema = taxonomy.AttributeSchema{
		AttributeID: 70,
		Name:        "Kumaş Tipi",
		Required:    true,
		Values: []taxonomy.AttributeValue{
			{ID: 3001, Name: "Pamuklu"},
			{ID: 3002, Name: "Belirtilmemiş"},
		},
	}
	customOnlySchema = taxonomy.AttributeSchema{
		AttributeID:  80,
		Name:         "Açıklama",
		AllowsCustom: true,
	}
)

func factsWith(pairs []extraction.KeyValue, set map[extraction.FactKey]string) *extraction.Facts {
	facts := extraction.NewFacts()
	facts.Pairs = pairs
	for key, value := range set {
		facts.Set(key, value, 1.0)
	}
	return facts
}

func TestAssembleMatchesScannedPair(t *testing.T) {
	a := NewAssembler()
	facts := factsWith([]extraction.KeyValue{{Key: "renk", Value: "lacivert"}}, nil)

	got := a.Assemble([]taxonomy.AttributeSchema{colorSchema}, facts, nil, nil)

	want := []Assignment{{AttributeID: 47, ValueID: 1002}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Assemble() = %+v, want %+v", got, want)
	}
}

func TestAssembleMapsFactKeyWithCustomFallback(t *testing.T) {
	a := NewAssembler()
	schema := taxonomy.AttributeSchema{
		AttributeID:  47,
		Name:         "Renk",
		AllowsCustom: true,
		Values:       []taxonomy.AttributeValue{{ID: 1001, Name: "Siyah"}},
	}
	facts := factsWith(nil, map[extraction.FactKey]string{extraction.FactColor: "turkuaz"})

	got := a.Assemble([]taxonomy.AttributeSchema{schema}, facts, nil, nil)

	want := []Assignment{{AttributeID: 47, CustomValue: "turkuaz"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Assemble() = %+v, want %+v", got, want)
	}
}

func TestAssembleNeverEmitsCustomWhenDisallowed(t *testing.T) {
	a := NewAssembler()
	facts := factsWith(
		[]extraction.KeyValue{{Key: "renk", Value: "turuncu melanj desenli"}},
		map[extraction.FactKey]string{extraction.FactColor: "turuncu melanj desenli"},
	)

	got := a.Assemble([]taxonomy.AttributeSchema{colorSchema}, facts, nil, map[int]bool{47: true})

	for _, asg := range got {
		if asg.CustomValue != "" {
			t.Errorf("custom value %q emitted for an attribute that disallows custom", asg.CustomValue)
		}
	}
	// Forced with no textual match: first fixed value.
	want := []Assignment{{AttributeID: 47, ValueID: 1001}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Assemble() = %+v, want %+v", got, want)
	}
}

func TestAssembleSkipsUnforcedWithoutSignal(t *testing.T) {
	a := NewAssembler()

	got := a.Assemble([]taxonomy.AttributeSchema{ageSchema}, extraction.NewFacts(), nil, nil)
	if len(got) != 0 {
		t.Errorf("Assemble() = %+v, want no assignments without any signal", got)
	}
}

func TestAssembleForcedUsesFirstValueOrPlaceholder(t *testing.T) {
	a := NewAssembler()
	force := map[int]bool{60: true, 80: true}

	got := a.Assemble([]taxonomy.AttributeSchema{ageSchema, customOnlySchema}, extraction.NewFacts(), nil, force)

	want := []Assignment{
		{AttributeID: 60, ValueID: 2001},
		{AttributeID: 80, CustomValue: "Belirtilmemiş"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Assemble() = %+v, want %+v", got, want)
	}
}

func TestAssembleKeepsPreviousAssignment(t *testing.T) {
	a := NewAssembler()
	previous := []Assignment{{AttributeID: 47, ValueID: 1001}}
	// A fresh run would pick Lacivert; the previous Siyah must survive.
	facts := factsWith([]extraction.KeyValue{{Key: "renk", Value: "lacivert"}}, nil)

	got := a.Assemble([]taxonomy.AttributeSchema{colorSchema}, facts, previous, nil)

	if !reflect.DeepEqual(got, previous) {
		t.Errorf("Assemble() = %+v, want previous %+v kept", got, previous)
	}
}

func TestAssemblePrefersUnspecifiedForFabricKind(t *testing.T) {
	a := NewAssembler()

	got := a.Assemble([]taxonomy.AttributeSchema{fabricSchema}, extraction.NewFacts(), nil, nil)

	want := []Assignment{{AttributeID: 70, ValueID: 3002}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Assemble() = %+v, want the Belirtilmemiş value, not the first one", got)
	}
}

func TestAssembleIdempotent(t *testing.T) {
	a := NewAssembler()
	schemas := []taxonomy.AttributeSchema{colorSchema, ageSchema, fabricSchema, customOnlySchema}
	facts := factsWith(
		[]extraction.KeyValue{{Key: "renk", Value: "siyah"}},
		map[extraction.FactKey]string{extraction.FactAge: "Çocuk"},
	)
	force := map[int]bool{80: true}

	first := a.Assemble(schemas, facts, nil, force)
	for i := 0; i < 5; i++ {
		again := a.Assemble(schemas, facts, nil, force)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differs: %+v vs %+v", i, again, first)
		}
	}
}

func TestAssembleRoundTripIDs(t *testing.T) {
	a := NewAssembler()
	schemas := []taxonomy.AttributeSchema{colorSchema, ageSchema, fabricSchema}
	facts := factsWith(
		[]extraction.KeyValue{{Key: "renk", Value: "lacivert"}},
		map[extraction.FactKey]string{extraction.FactAge: "Bebek"},
	)

	got := a.Assemble(schemas, facts, nil, map[int]bool{47: true, 60: true, 70: true})

	valid := make(map[int]map[int]bool)
	for _, s := range schemas {
		valid[s.AttributeID] = make(map[int]bool)
		for _, v := range s.Values {
			valid[s.AttributeID][v.ID] = true
		}
	}
	for _, asg := range got {
		values, ok := valid[asg.AttributeID]
		if !ok {
			t.Errorf("assignment references unknown attribute %d", asg.AttributeID)
			continue
		}
		if asg.ValueID != 0 && !values[asg.ValueID] {
			t.Errorf("assignment %d references unknown value %d", asg.AttributeID, asg.ValueID)
		}
	}
}

func TestAssembleCapsSchemaEntries(t *testing.T) {
	a := NewAssembler()

	var schemas []taxonomy.AttributeSchema
	for i := 0; i < DefaultMaxSchemaEntries+2; i++ {
		schemas = append(schemas, taxonomy.AttributeSchema{
			AttributeID: 100 + i,
			Name:        fmt.Sprintf("Özellik %d", i),
			Values:      []taxonomy.AttributeValue{{ID: 5000 + i, Name: "Değer"}},
		})
	}
	beyondCap := schemas[DefaultMaxSchemaEntries+1].AttributeID

	// Force everything: entries past the cap stay out unless themselves
	// forced, and forcing the last one pulls exactly it back in.
	force := make(map[int]bool)
	for i := 0; i < DefaultMaxSchemaEntries; i++ {
		force[schemas[i].AttributeID] = true
	}
	got := a.Assemble(schemas, extraction.NewFacts(), nil, force)
	if len(got) != DefaultMaxSchemaEntries {
		t.Fatalf("got %d assignments, want %d", len(got), DefaultMaxSchemaEntries)
	}

	force[beyondCap] = true
	got = a.Assemble(schemas, extraction.NewFacts(), nil, force)
	found := false
	for _, asg := range got {
		if asg.AttributeID == beyondCap {
			found = true
		}
	}
	if !found {
		t.Errorf("forced beyond-cap attribute %d missing from %+v", beyondCap, got)
	}
}
