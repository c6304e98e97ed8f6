package tabalchi

import (
	"fmt"
	"math/big"
	"strings"
)

type (
	// SchemaError is returned when a composition document, or its components,
	// do not match the schema of the composition type.
	SchemaError struct {
		Type string // composition type, or "" for the document envelope
		Err  error
	}

	// RegistryLookupError is returned when a phrase, taal, jati, speed class or
	// composition type is not registered.
	RegistryLookupError struct {
		Kind string // "phrase", "taal", "jati", "speed", "composition type", ...
		ID   string
	}

	// AlignmentError is returned when the number of beats in a composition is
	// not a multiple of the beats of its taal.
	AlignmentError struct {
		Taal       string
		TaalBeats  float64
		TotalBeats int
		Formatted  string // the composition with a line break after every cycle
	}

	// IntervalCoverageError is returned when the beat ranges of a piecewise
	// speed or jati do not cover the composition contiguously.
	IntervalCoverageError struct {
		Field      string // "speed" or "jati"
		Ranges     []BeatRange
		TotalBeats int
		Reason     string
	}

	// JatiMismatchError is returned when the syllables of a beat do not add up
	// to the jati of the beat.
	JatiMismatchError struct {
		Beat     int
		Expected int
		Observed *big.Rat
		Text     string
	}

	// StructuralValidationError is returned when a parsed Bol fails the
	// structural check of its composition type.
	StructuralValidationError struct {
		Type   string
		Reason string
	}

	// NotationError is a syntax error in the notation of a beat.
	NotationError struct {
		Beat   int // 1-based, 0 if unknown
		Text   string
		Reason string
	}

	// BeatError is returned when a beat cannot be constructed from its parts.
	BeatError struct {
		Position int
		Text     string
		Phrases  int
		Weights  int
		Markers  int
		Reason   string
	}

	// SegmentAlignmentWarning is a non-fatal warning: one assembled segment
	// of the composition is not a whole number of taal cycles, even though the
	// composition as a whole is.
	SegmentAlignmentWarning struct {
		Segment   string
		Beats     int
		TaalBeats float64
		Formatted string
	}
)

func (e *SchemaError) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("composition document does not match the schema: %v", e.Err)
	}
	return fmt.Sprintf("components do not match the schema of %v: %v", e.Type, e.Err)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

func (e *RegistryLookupError) Error() string {
	return fmt.Sprintf("%v %q is not registered", e.Kind, e.ID)
}

func (e *AlignmentError) Error() string {
	return fmt.Sprintf("composition has %d beats, which is not a multiple of the %v beats of %v. Did you miss a | somewhere?\n%v",
		e.TotalBeats, formatBeats(e.TaalBeats), e.Taal, e.Formatted)
}

func (e *IntervalCoverageError) Error() string {
	field := e.Field
	if field == "" {
		field = "beat ranges"
	}
	return fmt.Sprintf("%v %v do not cover the composition's %d beats: %v", field, e.Ranges, e.TotalBeats, e.Reason)
}

func (e *JatiMismatchError) Error() string {
	return fmt.Sprintf("beat %d has %v syllables, expected %d: %q", e.Beat, e.Observed.RatString(), e.Expected, e.Text)
}

func (e *StructuralValidationError) Error() string {
	return fmt.Sprintf("not a valid %v: %v", e.Type, e.Reason)
}

func (e *NotationError) Error() string {
	if e.Beat > 0 {
		return fmt.Sprintf("beat %d %q: %v", e.Beat, e.Text, e.Reason)
	}
	return fmt.Sprintf("%q: %v", e.Text, e.Reason)
}

func (e *BeatError) Error() string {
	return fmt.Sprintf("could not construct beat %d %q (%d phrases, %d weights, %d markers): %v",
		e.Position, e.Text, e.Phrases, e.Weights, e.Markers, e.Reason)
}

func (w *SegmentAlignmentWarning) Error() string {
	return w.String()
}

func (w *SegmentAlignmentWarning) String() string {
	return fmt.Sprintf("segment %v has %d beats, which is not a multiple of %v:\n%v",
		w.Segment, w.Beats, formatBeats(w.TaalBeats), strings.TrimRight(w.Formatted, "\n"))
}

func formatBeats(beats float64) string {
	t := Taal{Beats: beats}
	return t.BeatsString()
}
