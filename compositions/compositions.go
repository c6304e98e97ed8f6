// Package compositions defines the built-in composition types: their
// component schemas, how their components are assembled into notation and
// the structural checks a parsed Bol of each type must pass.
package compositions

import (
	"embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/shreyanmitra/tabalchi"
)

//go:embed schemas/*.json
var schemaFS embed.FS

type (
	AssembleFunc  func(components any, r tabalchi.Reducer) ([]tabalchi.Part, error)
	PostCheckFunc func(bol *tabalchi.Bol) error

	// kind groups the composition types that share a schema and an assembler.
	kind struct {
		schema   string
		assemble AssembleFunc
	}
)

var (
	extensible = kind{schema: "extensible.json", assemble: assembleExtensible}
	fixed      = kind{schema: "fixed.json", assemble: assembleFixed}
	closing    = kind{schema: "closing.json", assemble: assembleClosing}
)

// builtinTypes lists the composition types known out of the box, the kind of
// components they take and the structural checks they must pass.
var builtinTypes = []struct {
	name  string
	kind  kind
	check PostCheckFunc
}{
	{"Kayda", extensible, SegmentTihai("tihai")},
	{"Rela", extensible, All(SegmentTihai("tihai"), SpeedAbove(120))},
	{"Peshkar", extensible, All(SegmentTihai("tihai"), SpeedBelow(120))},
	{"Uthaan", extensible, SegmentTihai("tihai")},
	{"GatKayda", extensible, SegmentTihai("tihai")},
	{"LadiKayda", extensible, SegmentTihai("tihai")},
	{"Tihai", fixed, Tihai(AnyGap)},
	{"BedamTihai", fixed, Tihai(NoGap)},
	{"DamdarTihai", fixed, Tihai(WithGap)},
	{"Paran", fixed, nil},
	{"Aamad", fixed, nil},
	{"Chalan", fixed, nil},
	{"GatParan", fixed, nil},
	{"Kissm", fixed, nil},
	{"Laggi", fixed, nil},
	{"Mohra", fixed, nil},
	{"Mukhda", fixed, nil},
	{"Rou", fixed, nil},
	{"Theka", fixed, nil},
	{"Gat", closing, SegmentTihai("tihai")},
	{"Tukda", closing, SegmentTihai("tihai")},
	{"GatTukda", closing, SegmentTihai("tihai")},
	{"Chakradar", closing, All(Chakradar, SegmentTihai("tihai"))},
	{"FarmaisiChakradar", closing, All(Chakradar, SegmentTihai("tihai"))},
	{"KamaaliChakradar", closing, All(Chakradar, SegmentTihai("tihai"))},
}

// Builtin returns new instances of all the built-in composition types.
func Builtin() ([]*tabalchi.CompositionType, error) {
	ret := make([]*tabalchi.CompositionType, 0, len(builtinTypes))
	for _, b := range builtinTypes {
		schema, err := schemaFS.ReadFile("schemas/" + b.kind.schema)
		if err != nil {
			return nil, fmt.Errorf("could not read schema %v: %v", b.kind.schema, err)
		}
		t, err := New(b.name, string(schema), b.kind.assemble, b.check)
		if err != nil {
			return nil, err
		}
		ret = append(ret, t)
	}
	return ret, nil
}

// SchemaURL is the stable id the schema of a composition type is compiled
// under, so that validation errors do not depend on the working directory.
func SchemaURL(name string) string {
	return "tabalchi:/compositions/" + name + ".json"
}

// New makes a composition type whose PreCheck validates the components
// against the given JSON schema.
func New(name, schema string, assemble AssembleFunc, check PostCheckFunc) (*tabalchi.CompositionType, error) {
	compiled, err := jsonschema.CompileString(SchemaURL(name), schema)
	if err != nil {
		return nil, fmt.Errorf("could not compile the schema of %v: %w", name, err)
	}
	t := &tabalchi.CompositionType{
		Name:   name,
		Schema: schema,
		PreCheck: func(components any) error {
			if err := compiled.Validate(components); err != nil {
				return &tabalchi.SchemaError{Type: name, Err: err}
			}
			return nil
		},
		Assemble:  assemble,
		PostCheck: check,
	}
	return t, t.Validate()
}

// decode converts decoded JSON components into a typed struct.
func decode(components any, v any) error {
	b, err := json.Marshal(components)
	if err != nil {
		return fmt.Errorf("could not marshal components: %w", err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("could not unmarshal components: %w", err)
	}
	return nil
}
