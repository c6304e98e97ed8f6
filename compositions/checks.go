package compositions

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/shreyanmitra/tabalchi"
)

type (
	// Repetition describes a three-fold repetition P g P g P of a unit of
	// Unit beats separated by gaps of Gap beats.
	Repetition struct {
		Unit int
		Gap  int
	}

	// GapRule restricts the gaps allowed between the repetitions of a tihai.
	GapRule int
)

const (
	AnyGap  GapRule = iota
	NoGap           // bedam: the repetitions follow each other directly
	WithGap         // damdar: there is a pause between the repetitions
)

func (g GapRule) allows(r Repetition) bool {
	switch g {
	case NoGap:
		return r.Gap == 0
	case WithGap:
		return r.Gap > 0
	}
	return true
}

// beatKey identifies a beat by the set of its phrases, ignoring order and
// repetitions.
func beatKey(b *tabalchi.Beat) string {
	ids := b.PhraseIDs()
	slices.Sort(ids)
	return strings.Join(slices.Compact(ids), " ")
}

// Repetitions finds every way the beats split into three equal repetitions
// with equal gaps between them, longest unit first.
func Repetitions(beats []*tabalchi.Beat) []Repetition {
	keys := make([]string, len(beats))
	for i, b := range beats {
		keys[i] = beatKey(b)
	}
	n := len(keys)
	var ret []Repetition
	for p := n / 3; p >= 1; p-- {
		rest := n - 3*p
		if rest%2 != 0 {
			continue
		}
		g := rest / 2
		first := keys[0:p]
		if slices.Equal(first, keys[p+g:2*p+g]) && slices.Equal(first, keys[2*p+2*g:3*p+2*g]) {
			ret = append(ret, Repetition{Unit: p, Gap: g})
		}
	}
	return ret
}

// checkMarkers verifies that marked phrases, if any, come in threes and are
// all the same phrase: each repetition marks the same landing phrase.
func checkMarkers(beats []*tabalchi.Beat) error {
	var marked []string
	for _, b := range beats {
		for _, p := range b.MarkedPhrases() {
			marked = append(marked, p.ID)
		}
	}
	if len(marked) == 0 {
		return nil
	}
	if len(marked)%3 != 0 {
		return fmt.Errorf("%d marked phrases, expected a multiple of three", len(marked))
	}
	for _, id := range marked[1:] {
		if id != marked[0] {
			return fmt.Errorf("marked phrases differ: %v", marked)
		}
	}
	return nil
}

func checkTihai(beats []*tabalchi.Beat, rule GapRule) error {
	if len(beats) < 3 {
		return fmt.Errorf("%d beats is too short for a three-fold repetition", len(beats))
	}
	found := false
	for _, r := range Repetitions(beats) {
		if rule.allows(r) {
			found = true
			break
		}
	}
	if !found {
		switch rule {
		case NoGap:
			return errors.New("the beats are not three repetitions without gaps")
		case WithGap:
			return errors.New("the beats are not three repetitions separated by gaps")
		}
		return errors.New("the beats are not a three-fold repetition")
	}
	return checkMarkers(beats)
}

// Tihai checks that the whole Bol is a three-fold repetition.
func Tihai(rule GapRule) PostCheckFunc {
	return func(bol *tabalchi.Bol) error {
		return checkTihai(bol.Beats(), rule)
	}
}

// SegmentTihai checks that the named segment, if the Bol has it, is a
// three-fold repetition.
func SegmentTihai(name string) PostCheckFunc {
	return func(bol *tabalchi.Bol) error {
		s, ok := bol.Segment(name)
		if !ok {
			return nil
		}
		if err := checkTihai(bol.Range(s.Range), AnyGap); err != nil {
			return fmt.Errorf("%v (beats %v): %w", name, s.Range, err)
		}
		return nil
	}
}

// Chakradar checks that the content of the Bol is a three-fold repetition of
// a unit that itself ends in a tihai. The content is the "content" segment
// when the Bol has one, and the whole Bol otherwise.
func Chakradar(bol *tabalchi.Bol) error {
	beats := bol.Beats()
	if s, ok := bol.Segment("content"); ok {
		beats = bol.Range(s.Range)
	}
	for _, r := range Repetitions(beats) {
		unit := beats[:r.Unit]
		for l := 3; l <= len(unit); l++ {
			if len(Repetitions(unit[len(unit)-l:])) > 0 {
				return checkMarkers(beats)
			}
		}
	}
	return errors.New("the beats are not three repetitions of a phrase ending in a tihai")
}

// SpeedAbove checks that every beat is faster than bpm.
func SpeedAbove(bpm int) PostCheckFunc {
	return func(bol *tabalchi.Bol) error {
		for _, b := range bol.Beats() {
			if b.BPM <= bpm {
				return fmt.Errorf("beat %d is played at %d bpm, should be faster than %d bpm", b.Position, b.BPM, bpm)
			}
		}
		return nil
	}
}

// SpeedBelow checks that every beat is slower than bpm.
func SpeedBelow(bpm int) PostCheckFunc {
	return func(bol *tabalchi.Bol) error {
		for _, b := range bol.Beats() {
			if b.BPM >= bpm {
				return fmt.Errorf("beat %d is played at %d bpm, should be slower than %d bpm", b.Position, b.BPM, bpm)
			}
		}
		return nil
	}
}

// All runs the checks in order and returns the first error.
func All(checks ...PostCheckFunc) PostCheckFunc {
	return func(bol *tabalchi.Bol) error {
		for _, c := range checks {
			if err := c(bol); err != nil {
				return err
			}
		}
		return nil
	}
}
