package tabalchi

import (
	"fmt"
	"sort"
)

type (
	// Resolution is either one value for the whole composition (Fixed) or a
	// piecewise mapping from beat ranges to values (Piecewise). Speeds and
	// jatis of a composition are given as Resolutions.
	Resolution[T any] struct {
		fixed     T
		pieces    []Piece[T]
		piecewise bool
	}

	// Piece assigns a value to a range of beats.
	Piece[T any] struct {
		Range BeatRange
		Value T
	}
)

func Fixed[T any](value T) Resolution[T] {
	return Resolution[T]{fixed: value}
}

// Piecewise makes a Resolution from pieces; the pieces are sorted by their
// range. Coverage is not checked here, see Resolution.Validate.
func Piecewise[T any](pieces []Piece[T]) Resolution[T] {
	sorted := make([]Piece[T], len(pieces))
	copy(sorted, pieces)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Range.Begin < sorted[j].Range.Begin })
	return Resolution[T]{pieces: sorted, piecewise: true}
}

func (r Resolution[T]) IsPiecewise() bool {
	return r.piecewise
}

// Value returns the fixed value; ok is false for piecewise resolutions.
func (r Resolution[T]) Value() (value T, ok bool) {
	return r.fixed, !r.piecewise
}

// Pieces returns the sorted pieces of a piecewise resolution.
func (r Resolution[T]) Pieces() []Piece[T] {
	return r.pieces
}

func (r Resolution[T]) Ranges() []BeatRange {
	ret := make([]BeatRange, len(r.pieces))
	for i, p := range r.pieces {
		ret[i] = p.Range
	}
	return ret
}

// Validate checks that a piecewise resolution covers beats 1..totalBeats
// contiguously. Fixed resolutions are always valid.
func (r Resolution[T]) Validate(totalBeats int) error {
	if !r.piecewise {
		return nil
	}
	if gap := CoverageGap(r.Ranges(), totalBeats); gap != "" {
		return &IntervalCoverageError{Ranges: r.Ranges(), TotalBeats: totalBeats, Reason: gap}
	}
	return nil
}

// At returns the value for a 1-based beat. The last piece also covers the
// beat at its End, so a validated resolution resolves every beat in
// 1..totalBeats.
func (r Resolution[T]) At(beat int) (T, error) {
	if !r.piecewise {
		return r.fixed, nil
	}
	for _, p := range r.pieces {
		if p.Range.Contains(beat) {
			return p.Value, nil
		}
	}
	if n := len(r.pieces); n > 0 && r.pieces[n-1].Range.End == beat {
		return r.pieces[n-1].Value, nil
	}
	var zero T
	return zero, fmt.Errorf("no beat range covers beat %d", beat)
}

// Slice returns the resolution restricted to the beats [begin, end). Pieces
// are clipped to the interval; fixed resolutions are returned as is.
func (r Resolution[T]) Slice(begin, end int) Resolution[T] {
	if !r.piecewise {
		return r
	}
	var ret []Piece[T]
	for _, p := range r.pieces {
		for _, c := range Subsequence([]BeatRange{p.Range}, begin, end) {
			ret = append(ret, Piece[T]{Range: c, Value: p.Value})
		}
	}
	return Resolution[T]{pieces: ret, piecewise: true}
}

// Map converts a Resolution of one type into another, keeping the ranges.
func Map[T, U any](r Resolution[T], f func(T) U) Resolution[U] {
	if !r.piecewise {
		return Fixed(f(r.fixed))
	}
	pieces := make([]Piece[U], len(r.pieces))
	for i, p := range r.pieces {
		pieces[i] = Piece[U]{Range: p.Range, Value: f(p.Value)}
	}
	return Resolution[U]{pieces: pieces, piecewise: true}
}
