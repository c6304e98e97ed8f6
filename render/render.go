// Package render writes parsed compositions out in a traditional notation
// system.
//
// The supported systems form a closed set: each tabalchi.Notation has one
// template in templates/. The beats are laid out one taal cycle (avartan)
// per line, with the vibhag dividers and the marks of the notation system
// (sam, tali, khali) aligned with the beats.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/template"
	"unicode/utf8"

	"github.com/Masterminds/sprig"
	"github.com/dustin/go-humanize"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/shreyanmitra/tabalchi"
)

//go:embed templates/*.txt
var templateFS embed.FS

type (
	// Cell is one beat of a cycle: its text and its mark, padded to the same
	// width. Divider is set for the first beat of a vibhag.
	Cell struct {
		Text    string
		Mark    string
		Divider bool
	}

	// markFunc returns the mark of a beat at a position within the taal
	// cycle, or "" if the beat is not marked.
	markFunc func(taal *tabalchi.Taal, position int, clap tabalchi.ClapType) string

	renderer struct {
		template string
		mark     markFunc
	}

	data struct {
		Name         string
		Type         string
		Taal         string
		Beats        string
		Speed        string
		Jati         string
		PlayingStyle string
		Notation     string
		Cycles       [][]Cell
	}
)

var renderers = map[tabalchi.Notation]renderer{
	tabalchi.Bhatkhande: {template: "bhatkhande.txt", mark: bhatkhandeMark},
	tabalchi.Paluskar:   {template: "paluskar.txt", mark: paluskarMark},
}

var templates = template.Must(template.New("base").Funcs(sprig.TxtFuncMap()).Funcs(template.FuncMap{
	"ordinal": humanize.Ordinal,
	"heading": func(s string) string { return cases.Title(language.English, cases.NoLower).String(s) },
	"rtrim":   func(s string) string { return strings.TrimRight(s, " ") },
}).ParseFS(templateFS, "templates/*.txt"))

// Lookup finds a notation system by name.
func Lookup(name string) (tabalchi.Notation, error) {
	n, err := tabalchi.ParseNotation(name)
	if err != nil {
		return 0, err
	}
	if _, ok := renderers[n]; !ok {
		return 0, fmt.Errorf("no renderer for notation %v", n)
	}
	return n, nil
}

// Render writes the composition in its own display notation.
func Render(w io.Writer, c *tabalchi.Composition) error {
	return RenderAs(w, c.Display, c)
}

func RenderAs(w io.Writer, n tabalchi.Notation, c *tabalchi.Composition) error {
	r, ok := renderers[n]
	if !ok {
		return fmt.Errorf("no renderer for notation %v", n)
	}
	d := data{
		Name:         c.Name,
		Taal:         c.Taal.Name,
		Beats:        c.Taal.BeatsString(),
		Speed:        describe(c.Speed),
		Jati:         describe(c.Jati),
		PlayingStyle: c.PlayingStyle,
		Notation:     n.String(),
		Cycles:       cycles(c.Bol, c.Taal, r.mark),
	}
	if c.Type != nil {
		d.Type = c.Type.Name
	}
	if err := templates.ExecuteTemplate(w, r.template, d); err != nil {
		return fmt.Errorf("could not render %v: %w", c.Name, err)
	}
	return nil
}

// String renders the composition in the given notation into a string.
func String(n tabalchi.Notation, c *tabalchi.Composition) (string, error) {
	var b bytes.Buffer
	if err := RenderAs(&b, n, c); err != nil {
		return "", err
	}
	return b.String(), nil
}

// Cycles splits the beats of a Bol into taal cycles, marking the beats as
// the notation system does.
func Cycles(bol *tabalchi.Bol, taal *tabalchi.Taal, n tabalchi.Notation) ([][]Cell, error) {
	r, ok := renderers[n]
	if !ok {
		return nil, fmt.Errorf("no renderer for notation %v", n)
	}
	return cycles(bol, taal, r.mark), nil
}

func cycles(bol *tabalchi.Bol, taal *tabalchi.Taal, mark markFunc) [][]Cell {
	var ret [][]Cell
	cycle := taal.CycleLength()
	for _, b := range bol.Beats() {
		pos := taal.Position(b.Position)
		if pos == 1 || len(ret) == 0 {
			ret = append(ret, make([]Cell, 0, cycle))
		}
		text, m := pad(b.Text, mark(taal, pos, b.Clap))
		last := len(ret) - 1
		ret[last] = append(ret[last], Cell{
			Text:    text,
			Mark:    m,
			Divider: pos == 1 || b.Clap != tabalchi.Neither,
		})
	}
	return ret
}

// pad pads the shorter of a and b with spaces so both have the same width.
func pad(a, b string) (string, string) {
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	if la < lb {
		return a + strings.Repeat(" ", lb-la), b
	}
	return a, b + strings.Repeat(" ", la-lb)
}

// bhatkhandeMark marks sam with X, khali with 0 and the other talis with
// their number. Sam counts as the first tali when it is clapped.
func bhatkhandeMark(taal *tabalchi.Taal, position int, clap tabalchi.ClapType) string {
	switch {
	case clap == tabalchi.Wave:
		return "0"
	case position == 1:
		return "X"
	case clap == tabalchi.Clap:
		n := 0
		for _, c := range taal.Claps {
			if c <= position {
				n++
			}
		}
		return strconv.Itoa(n)
	}
	return ""
}

// paluskarMark marks sam with 1, khali with + and the other talis with
// their beat number.
func paluskarMark(taal *tabalchi.Taal, position int, clap tabalchi.ClapType) string {
	switch {
	case clap == tabalchi.Wave:
		return "+"
	case position == 1:
		return "1"
	case clap == tabalchi.Clap:
		return strconv.Itoa(position)
	}
	return ""
}

func describe[T fmt.Stringer](r tabalchi.Resolution[T]) string {
	if v, ok := r.Value(); ok {
		return v.String()
	}
	parts := make([]string, 0, len(r.Pieces()))
	for _, p := range r.Pieces() {
		parts = append(parts, fmt.Sprintf("%v: %v", p.Range, p.Value))
	}
	return strings.Join(parts, ", ")
}
