package compositions

import (
	"fmt"
	"strings"

	"github.com/shreyanmitra/tabalchi"
)

type (
	// theme is a piece that is played in its full (bhari) form and then in its
	// reduced (khali) form. Khali can be "Infer", or left out, to derive it
	// from bhari.
	theme struct {
		Bhari string `json:"bhari"`
		Khali string `json:"khali"`
	}

	content struct {
		Content string `json:"content"`
	}

	extensibleComponents struct {
		MainTheme theme   `json:"mainTheme"`
		Paltas    []theme `json:"paltas"`
		Tihai     content `json:"tihai"`
	}

	closingComponents struct {
		Content string   `json:"content"`
		Tihai   *content `json:"tihai"`
	}
)

// Infer is the value of a khali that should be derived from the bhari.
const Infer = "Infer"

func (t theme) parts(name string, r tabalchi.Reducer) []tabalchi.Part {
	khali := strings.TrimSpace(t.Khali)
	if khali == "" || strings.EqualFold(khali, Infer) {
		khali = r.Reduce(t.Bhari)
	}
	return []tabalchi.Part{
		{Name: name + ".bhari", Notation: t.Bhari},
		{Name: name + ".khali", Notation: khali},
	}
}

// assembleExtensible lays out a kayda-like composition: the main theme, each
// palta (variation) and finally the tihai.
func assembleExtensible(components any, r tabalchi.Reducer) ([]tabalchi.Part, error) {
	var c extensibleComponents
	if err := decode(components, &c); err != nil {
		return nil, err
	}
	parts := c.MainTheme.parts("mainTheme", r)
	for i, p := range c.Paltas {
		parts = append(parts, p.parts(fmt.Sprintf("palta%d", i+1), r)...)
	}
	return append(parts, tabalchi.Part{Name: "tihai", Notation: c.Tihai.Content}), nil
}

func assembleFixed(components any, r tabalchi.Reducer) ([]tabalchi.Part, error) {
	var c content
	if err := decode(components, &c); err != nil {
		return nil, err
	}
	return []tabalchi.Part{{Name: "content", Notation: c.Content}}, nil
}

// assembleClosing lays out the content followed by the optional tihai.
func assembleClosing(components any, r tabalchi.Reducer) ([]tabalchi.Part, error) {
	var c closingComponents
	if err := decode(components, &c); err != nil {
		return nil, err
	}
	parts := []tabalchi.Part{{Name: "content", Notation: c.Content}}
	if c.Tihai != nil {
		parts = append(parts, tabalchi.Part{Name: "tihai", Notation: c.Tihai.Content})
	}
	return parts, nil
}
