package parser

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/shreyanmitra/tabalchi"
)

//go:embed schemas/document.json
var documentSchemaJSON string

var documentSchema = jsonschema.MustCompileString("tabalchi:/parser/document.json", documentSchemaJSON)

// Decode reads a composition document. The document can be JSON or YAML;
// YAML documents are converted to JSON first. The document must match the
// document schema, otherwise a *tabalchi.SchemaError is returned.
func Decode(data []byte) (*tabalchi.Document, error) {
	v, err := decodeAny(data)
	if err != nil {
		return nil, err
	}
	if err := documentSchema.Validate(v); err != nil {
		return nil, &tabalchi.SchemaError{Err: err}
	}
	if m, ok := v.(map[string]any); ok {
		if n, ok := m["taal"].(json.Number); ok {
			m["taal"] = n.String()
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc tabalchi.Document
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("could not decode document: %w", err)
	}
	return &doc, nil
}

// decodeAny decodes JSON, or failing that YAML, into the generic values of
// encoding/json, with numbers as json.Number.
func decodeAny(data []byte) (any, error) {
	var v any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	jsonErr := dec.Decode(&v)
	if jsonErr == nil {
		return v, nil
	}
	if t := bytes.TrimSpace(data); len(t) > 0 && t[0] == '{' {
		return nil, fmt.Errorf("could not decode JSON document: %w", jsonErr)
	}
	var y any
	if err := yaml.Unmarshal(data, &y); err != nil {
		return nil, fmt.Errorf("could not decode document as JSON (%v) or YAML: %w", jsonErr, err)
	}
	return normalize(y), nil
}

// normalize converts the values decoded by yaml into the ones encoding/json
// would have produced.
func normalize(v any) any {
	switch v := v.(type) {
	case map[string]any:
		for k, e := range v {
			v[k] = normalize(e)
		}
		return v
	case map[any]any:
		m := make(map[string]any, len(v))
		for k, e := range v {
			m[fmt.Sprint(k)] = normalize(e)
		}
		return m
	case []any:
		for i, e := range v {
			v[i] = normalize(e)
		}
		return v
	case int:
		return json.Number(strconv.Itoa(v))
	case int64:
		return json.Number(strconv.FormatInt(v, 10))
	case uint64:
		return json.Number(strconv.FormatUint(v, 10))
	case float64:
		return json.Number(strconv.FormatFloat(v, 'f', -1, 64))
	}
	return v
}
