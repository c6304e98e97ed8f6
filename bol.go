package tabalchi

import (
	"fmt"
	"time"
)

type (
	// Bol is a fully parsed composition: an ordered sequence of beats. A Bol
	// is not modified after NewBol returns it.
	Bol struct {
		beats    []*Beat
		segments []Segment
		marked   []*Beat
	}

	// Segment is a named part of an assembled composition, e.g. the main
	// theme or the tihai of a kayda, and the beats it spans.
	Segment struct {
		Name  string
		Range BeatRange
	}
)

// NewBol validates the beats and builds a Bol of them. The beats should be
// numbered 1, 2, 3, ... in order; segments should fall inside the beats.
func NewBol(beats []*Beat, segments []Segment) (*Bol, error) {
	b := &Bol{
		beats:    append([]*Beat(nil), beats...),
		segments: append([]Segment(nil), segments...),
	}
	for i, beat := range b.beats {
		if beat == nil {
			return nil, fmt.Errorf("bol: beat #%d is nil", i+1)
		}
		if beat.Position != i+1 {
			return nil, fmt.Errorf("bol: beat #%d has position %d", i+1, beat.Position)
		}
		if err := beat.Validate(); err != nil {
			return nil, err
		}
		if beat.Marked() {
			b.marked = append(b.marked, beat)
		}
	}
	for _, s := range b.segments {
		if s.Range.Begin < 1 || s.Range.End > len(b.beats)+1 || s.Range.Begin >= s.Range.End {
			return nil, fmt.Errorf("bol: segment %q range %v outside of beats 1..%d", s.Name, s.Range, len(b.beats))
		}
	}
	return b, nil
}

func (b *Bol) Len() int {
	return len(b.beats)
}

// Beat returns the beat at a 1-based position, or nil if out of range.
func (b *Bol) Beat(position int) *Beat {
	if position < 1 || position > len(b.beats) {
		return nil
	}
	return b.beats[position-1]
}

// Beats returns the beats in order.
func (b *Bol) Beats() []*Beat {
	return append([]*Beat(nil), b.beats...)
}

// Range returns the beats of a beat range, clipped to the Bol.
func (b *Bol) Range(r BeatRange) []*Beat {
	begin, end := max(r.Begin, 1), min(r.End, len(b.beats)+1)
	if begin >= end {
		return nil
	}
	return append([]*Beat(nil), b.beats[begin-1:end-1]...)
}

func (b *Bol) Segments() []Segment {
	return append([]Segment(nil), b.segments...)
}

// Segment finds a segment by name.
func (b *Bol) Segment(name string) (Segment, bool) {
	for _, s := range b.segments {
		if s.Name == name {
			return s, true
		}
	}
	return Segment{}, false
}

// MarkedBeats returns the beats with at least one marked phrase.
func (b *Bol) MarkedBeats() []*Beat {
	return append([]*Beat(nil), b.marked...)
}

// MarkedPhrases returns the marked phrases of all marked beats, in order.
func (b *Bol) MarkedPhrases() []*Phrase {
	var ret []*Phrase
	for _, beat := range b.marked {
		ret = append(ret, beat.MarkedPhrases()...)
	}
	return ret
}

// Duration is the total playing time of the Bol.
func (b *Bol) Duration() time.Duration {
	var d time.Duration
	for _, beat := range b.beats {
		d += beat.Duration()
	}
	return d
}
