package tabalchi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
)

type (
	// Document is a composition as written in a .tabla file. Components is the
	// decoded JSON value of the "components" field; its shape depends on the
	// composition type.
	Document struct {
		Type         string     `json:"type"`
		Name         string     `json:"name"`
		Components   any        `json:"components"`
		Taal         string     `json:"taal"`
		Speed        RangeValue `json:"speed"`
		Jati         RangeValue `json:"jati"`
		PlayingStyle string     `json:"playingStyle,omitempty"`
		Display      string     `json:"display,omitempty"`
	}

	// RangeValue is either a single value (e.g. "Madhya" or "120") or a
	// mapping from "begin-end" beat ranges to values.
	RangeValue struct {
		Value  string
		Ranges map[string]string
	}

	// CompositionType describes one type of composition, e.g. Kayda or Tihai.
	// The parser runs PreCheck on the raw components, Assemble to get the
	// notation of the composition and, after building the Bol, PostCheck.
	CompositionType struct {
		Name string
		// Schema is the JSON schema source the components are checked against.
		Schema    string
		PreCheck  func(components any) error
		Assemble  func(components any, r Reducer) ([]Part, error)
		PostCheck func(bol *Bol) error
	}

	// Part is a named piece of notation produced by assembling a composition,
	// e.g. the bhari of a main theme.
	Part struct {
		Name     string
		Notation string
	}

	// Reducer converts notation into its reduced (khali) form, replacing the
	// resonant bass strokes with their closed counterparts.
	Reducer interface {
		Reduce(notation string) string
	}

	// Composition is the result of parsing a Document.
	Composition struct {
		Name         string
		Type         *CompositionType
		Taal         *Taal
		Speed        Resolution[Speed]
		Jati         Resolution[Jati]
		PlayingStyle string
		Display      Notation
		Notation     string // the assembled notation, beats joined with BeatDivider
		Bol          *Bol
	}
)

func (t *CompositionType) Validate() error {
	if t.Name == "" {
		return errors.New("composition type has no name")
	}
	if t.Assemble == nil {
		return fmt.Errorf("composition type %q has no assembler", t.Name)
	}
	return nil
}

func (v RangeValue) IsRanges() bool {
	return v.Ranges != nil
}

// BeatRanges parses the keys of a range mapping, sorted by begin.
func (v RangeValue) BeatRanges() ([]BeatRange, []string, error) {
	keys := make([]string, 0, len(v.Ranges))
	for k := range v.Ranges {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	ranges := make([]BeatRange, len(keys))
	for i, k := range keys {
		r, err := ParseBeatRange(k)
		if err != nil {
			return nil, nil, err
		}
		ranges[i] = r
	}
	return ranges, keys, nil
}

func (v RangeValue) MarshalJSON() ([]byte, error) {
	if v.Ranges != nil {
		return json.Marshal(v.Ranges)
	}
	return json.Marshal(v.Value)
}

func (v *RangeValue) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	*v = RangeValue{}
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		return nil
	case b[0] == '{':
		var m map[string]json.RawMessage
		if err := json.Unmarshal(b, &m); err != nil {
			return err
		}
		v.Ranges = make(map[string]string, len(m))
		for k, raw := range m {
			s, err := scalarString(raw)
			if err != nil {
				return fmt.Errorf("range %q: %w", k, err)
			}
			v.Ranges[k] = s
		}
		return nil
	default:
		s, err := scalarString(b)
		if err != nil {
			return err
		}
		v.Value = s
		return nil
	}
}

// scalarString accepts a JSON string or number and returns it as a string.
func scalarString(b json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		return n.String(), nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64), nil
	}
	return "", fmt.Errorf("expected a string or a number, got %s", b)
}
