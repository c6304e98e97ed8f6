package tabalchi

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
)

type (
	// Taal is a rhythmic cycle: a fixed number of beats, some of which are
	// emphasized with a clap (tali) and some de-emphasized with a wave
	// (khali). The first beat of each cycle is the sam (downbeat).
	Taal struct {
		Name    string
		Aliases []string `yaml:",omitempty" json:",omitempty"`
		// Beats is the number of beats in the cycle; integer or half-integer.
		Beats float64
		Claps []int  `yaml:",flow"`
		Waves []int  `yaml:",flow"`
		Theka string `yaml:",omitempty" json:",omitempty"` // canonical phrase pattern, for reference only
	}

	// ClapType classifies a beat as clapped, waved or neither.
	ClapType int
)

const (
	Neither ClapType = iota
	Clap
	Wave
)

var clapTypeNames = [...]string{"neither", "clap", "wave"}

func (c ClapType) String() string {
	if c < 0 || int(c) >= len(clapTypeNames) {
		return "???"
	}
	return clapTypeNames[c]
}

func (c ClapType) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *ClapType) UnmarshalText(b []byte) error {
	i := slices.Index(clapTypeNames[:], string(b))
	if i < 0 {
		return fmt.Errorf("unknown clap type %q", b)
	}
	*c = ClapType(i)
	return nil
}

func (t *Taal) halfBeats() int {
	return int(math.Round(t.Beats * 2))
}

// CycleLength is the number of whole beats after which the taal repeats:
// Beats for integer taals and 2*Beats for half-integer taals.
func (t *Taal) CycleLength() int {
	if h := t.halfBeats(); h%2 != 0 {
		return h
	}
	return t.halfBeats() / 2
}

// BeatsString formats Beats without a trailing ".0" for integer taals.
func (t *Taal) BeatsString() string {
	return strconv.FormatFloat(t.Beats, 'f', -1, 64)
}

// Divides reports if a composition of the given number of beats is a whole
// number of taal cycles, i.e. beats / t.Beats is an integer.
func (t *Taal) Divides(beats int) bool {
	h := t.halfBeats()
	return h > 0 && (2*beats)%h == 0
}

// Validate checks that the taal is well formed: Beats is a positive multiple
// of one half, and the clap and wave positions are inside the cycle,
// distinct and do not overlap each other.
func (t *Taal) Validate() error {
	if t.Name == "" {
		return errors.New("taal has no name")
	}
	if t.Beats <= 0 || float64(t.halfBeats()) != t.Beats*2 {
		return fmt.Errorf("taal %q: beats should be a positive integer or half-integer, got %v", t.Name, t.Beats)
	}
	cycle := t.CycleLength()
	seen := map[int]ClapType{}
	for _, list := range []struct {
		positions []int
		kind      ClapType
	}{{t.Claps, Clap}, {t.Waves, Wave}} {
		for _, p := range list.positions {
			if p < 1 || p > cycle {
				return fmt.Errorf("taal %q: %v position %d outside of the cycle 1..%d", t.Name, list.kind, p, cycle)
			}
			if prev, ok := seen[p]; ok {
				if prev == list.kind {
					return fmt.Errorf("taal %q: %v position %d listed twice", t.Name, list.kind, p)
				}
				return fmt.Errorf("taal %q: position %d is both a clap and a wave", t.Name, p)
			}
			seen[p] = list.kind
		}
	}
	return nil
}

// Position maps a 1-based beat of a composition to its 1-based position
// within the taal cycle.
func (t *Taal) Position(beat int) int {
	cycle := t.CycleLength()
	return ((beat-1)%cycle+cycle)%cycle + 1
}

// Classify returns the clap classification and the downbeat flag of a
// 1-based beat of a composition.
func (t *Taal) Classify(beat int) (ClapType, bool) {
	pos := t.Position(beat)
	clap := Neither
	if slices.Contains(t.Claps, pos) {
		clap = Clap
	} else if slices.Contains(t.Waves, pos) {
		clap = Wave
	}
	return clap, pos == 1
}

// Vibhag returns the 1-based index of the section (vibhag) that the position
// within the cycle belongs to. Sections begin at every clap or wave
// position; positions before the first marked position belong to section 1.
func (t *Taal) Vibhag(position int) int {
	marks := append(slices.Clone(t.Claps), t.Waves...)
	slices.Sort(marks)
	v := 0
	for _, m := range marks {
		if m <= position {
			v++
		}
	}
	if len(marks) == 0 || marks[0] != 1 {
		v++
	}
	return v
}
