// Package parser turns composition documents into validated Bols.
//
// Parsing runs in a fixed order: the composition type is looked up and its
// components checked against its schema, the components are assembled into
// notation, the total length is checked against the taal, the speed and
// jati are resolved for every beat, each beat is tokenized and checked
// against its jati, classified and finalized, and finally the Bol is built
// and checked by the composition type. Any error stops the parse; no partial
// Bol is returned.
package parser

import (
	"errors"
	"fmt"
	"math/big"
	"os"

	"github.com/shreyanmitra/tabalchi"
	"github.com/shreyanmitra/tabalchi/tokenizer"
)

type (
	// Registry is what the parser needs to look up. *registry.Registry
	// implements it.
	Registry interface {
		tokenizer.PhraseLookup
		tabalchi.Reducer
		CompositionType(name string) (*tabalchi.CompositionType, error)
		Taal(name string) (*tabalchi.Taal, error)
		Jati(name string) (tabalchi.Jati, error)
		Speed(s string) (tabalchi.Speed, error)
	}

	Parser struct {
		registry  Registry
		tokenizer *tokenizer.Tokenizer
	}

	Option func(*Parser)

	// Result is a parsed composition and the non-fatal warnings found while
	// parsing it.
	Result struct {
		Composition *tabalchi.Composition
		Warnings    []*tabalchi.SegmentAlignmentWarning
	}
)

// WithSymbols changes the control symbols of the notation.
func WithSymbols(s tokenizer.Symbols) Option {
	return func(p *Parser) { p.tokenizer = tokenizer.New(p.registry, tokenizer.WithSymbols(s)) }
}

func New(r Registry, opts ...Option) *Parser {
	p := &Parser{registry: r, tokenizer: tokenizer.New(r)}
	for _, o := range opts {
		o(p)
	}
	return p
}

// ParseFile reads and parses a JSON or YAML composition document.
func (p *Parser) ParseFile(path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read %v: %w", path, err)
	}
	return p.ParseBytes(data)
}

func (p *Parser) ParseBytes(data []byte) (*Result, error) {
	doc, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return p.Parse(doc)
}

// Parse builds the Bol of a decoded document.
func (p *Parser) Parse(doc *tabalchi.Document) (*Result, error) {
	ct, err := p.registry.CompositionType(doc.Type)
	if err != nil {
		return nil, err
	}
	if ct.PreCheck != nil {
		if err := ct.PreCheck(doc.Components); err != nil {
			return nil, err
		}
	}
	taal, err := p.registry.Taal(doc.Taal)
	if err != nil {
		return nil, err
	}
	display := tabalchi.Bhatkhande
	if doc.Display != "" {
		if display, err = tabalchi.ParseNotation(doc.Display); err != nil {
			return nil, err
		}
	}
	res := &Result{}
	texts, segments, err := p.assemble(ct, doc.Components, taal, res)
	if err != nil {
		return nil, err
	}
	total := len(texts)
	if !taal.Divides(total) {
		return nil, &tabalchi.AlignmentError{
			Taal:       taal.Name,
			TaalBeats:  taal.Beats,
			TotalBeats: total,
			Formatted:  tabalchi.FormatCycles(texts, taal.CycleLength()),
		}
	}
	speed, err := resolve("speed", doc.Speed, total, p.registry.Speed)
	if err != nil {
		return nil, err
	}
	jati, err := resolve("jati", doc.Jati, total, p.registry.Jati)
	if err != nil {
		return nil, err
	}
	beats := make([]*tabalchi.Beat, total)
	for i, text := range texts {
		if beats[i], err = p.beat(i+1, text, taal, speed, jati); err != nil {
			return nil, err
		}
	}
	bol, err := tabalchi.NewBol(beats, segments)
	if err != nil {
		return nil, err
	}
	if ct.PostCheck != nil {
		if err := ct.PostCheck(bol); err != nil {
			return nil, &tabalchi.StructuralValidationError{Type: ct.Name, Reason: err.Error()}
		}
	}
	res.Composition = &tabalchi.Composition{
		Name:         doc.Name,
		Type:         ct,
		Taal:         taal,
		Speed:        speed,
		Jati:         jati,
		PlayingStyle: doc.PlayingStyle,
		Display:      display,
		Notation:     tabalchi.JoinBeats(texts),
		Bol:          bol,
	}
	return res, nil
}

// assemble lays out the parts of the composition as beat texts and records
// a segment for each part. Parts that are not a whole number of taal cycles
// are reported as warnings.
func (p *Parser) assemble(ct *tabalchi.CompositionType, components any, taal *tabalchi.Taal, res *Result) ([]string, []tabalchi.Segment, error) {
	parts, err := ct.Assemble(components, p.registry)
	if err != nil {
		return nil, nil, fmt.Errorf("could not assemble %v: %w", ct.Name, err)
	}
	var texts []string
	var segments []tabalchi.Segment
	for _, part := range parts {
		beats := tabalchi.SplitBeats(part.Notation)
		if len(beats) == 0 {
			return nil, nil, &tabalchi.NotationError{Text: part.Notation, Reason: fmt.Sprintf("%v has no beats", part.Name)}
		}
		if !taal.Divides(len(beats)) {
			res.Warnings = append(res.Warnings, &tabalchi.SegmentAlignmentWarning{
				Segment:   part.Name,
				Beats:     len(beats),
				TaalBeats: taal.Beats,
				Formatted: tabalchi.FormatCycles(beats, taal.CycleLength()),
			})
		}
		begin := len(texts) + 1
		texts = append(texts, beats...)
		segments = append(segments, tabalchi.Segment{Name: part.Name, Range: tabalchi.BeatRange{Begin: begin, End: len(texts) + 1}})
	}
	return texts, segments, nil
}

// beat tokenizes, checks and classifies the beat at a 1-based position.
func (p *Parser) beat(position int, text string, taal *tabalchi.Taal, speed tabalchi.Resolution[tabalchi.Speed], jati tabalchi.Resolution[tabalchi.Jati]) (*tabalchi.Beat, error) {
	tokens, observed, err := p.tokenizer.Beat(text)
	if err != nil {
		var notation *tabalchi.NotationError
		if errors.As(err, &notation) {
			notation.Beat = position
			return nil, notation
		}
		return nil, fmt.Errorf("beat %d %q: %w", position, text, err)
	}
	j, err := jati.At(position)
	if err != nil {
		return nil, err
	}
	if !j.Infer() && observed.Cmp(big.NewRat(int64(j.Syllables), 1)) != 0 {
		return nil, &tabalchi.JatiMismatchError{Beat: position, Expected: j.Syllables, Observed: observed, Text: text}
	}
	s, err := speed.At(position)
	if err != nil {
		return nil, err
	}
	clap, downbeat := taal.Classify(position)
	b := &tabalchi.Beat{
		Position: position,
		Clap:     clap,
		Downbeat: downbeat,
		BPM:      s.BPM,
		Phrases:  make([]*tabalchi.Phrase, len(tokens)),
		Weights:  make([]*big.Rat, len(tokens)),
		Markers:  make([]bool, len(tokens)),
		Text:     text,
	}
	for i, t := range tokens {
		b.Phrases[i], b.Weights[i], b.Markers[i] = t.Phrase, t.Weight, t.Marked
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// resolve looks up a speed or jati given either as a single value or as a
// mapping from beat ranges to values. The ranges of a mapping must cover
// the composition contiguously.
func resolve[T any](field string, v tabalchi.RangeValue, total int, lookup func(string) (T, error)) (tabalchi.Resolution[T], error) {
	if !v.IsRanges() {
		value, err := lookup(v.Value)
		if err != nil {
			return tabalchi.Resolution[T]{}, fmt.Errorf("%v: %w", field, err)
		}
		return tabalchi.Fixed(value), nil
	}
	ranges, keys, err := v.BeatRanges()
	if err != nil {
		return tabalchi.Resolution[T]{}, fmt.Errorf("%v: %w", field, err)
	}
	pieces := make([]tabalchi.Piece[T], len(ranges))
	for i, r := range ranges {
		value, err := lookup(v.Ranges[keys[i]])
		if err != nil {
			return tabalchi.Resolution[T]{}, fmt.Errorf("%v %v: %w", field, r, err)
		}
		pieces[i] = tabalchi.Piece[T]{Range: r, Value: value}
	}
	res := tabalchi.Piecewise(pieces)
	if err := res.Validate(total); err != nil {
		var coverage *tabalchi.IntervalCoverageError
		if errors.As(err, &coverage) {
			coverage.Field = field
		}
		return tabalchi.Resolution[T]{}, err
	}
	return res, nil
}
