package tabalchi

import (
	"math/big"
	"time"
)

// Beat is one beat of a parsed composition. Phrases, Weights and Markers are
// parallel slices: Weights[i] is the fraction of syllables Phrases[i] takes
// in this beat and Markers[i] tells if that occurrence was marked with ~ for
// structural checks. The weights of a beat sum up to the jati of the beat.
type Beat struct {
	Position int // 1-based position in the composition
	Clap     ClapType
	Downbeat bool // first beat of a taal cycle (sam)
	BPM      int
	Phrases  []*Phrase
	Weights  []*big.Rat
	Markers  []bool
	Text     string // the raw notation of the beat
}

// Validate checks that the parallel slices of the beat line up and that the
// beat has a positive position, tempo and weights. The returned error is a
// *BeatError.
func (b *Beat) Validate() error {
	fail := func(reason string) error {
		return &BeatError{Position: b.Position, Text: b.Text, Phrases: len(b.Phrases), Weights: len(b.Weights), Markers: len(b.Markers), Reason: reason}
	}
	switch {
	case b.Position < 1:
		return fail("position should be >= 1")
	case b.BPM < 1:
		return fail("bpm should be >= 1")
	case len(b.Phrases) == 0:
		return fail("beat has no phrases")
	case len(b.Weights) != len(b.Phrases):
		return fail("number of weights does not match number of phrases")
	case len(b.Markers) != len(b.Phrases):
		return fail("number of markers does not match number of phrases")
	}
	for i, p := range b.Phrases {
		if p == nil {
			return fail("nil phrase")
		}
		if b.Weights[i] == nil || b.Weights[i].Sign() <= 0 {
			return fail("phrase " + p.ID + " has a non-positive weight")
		}
	}
	return nil
}

// Syllables is the sum of the weights, i.e. the observed jati of the beat.
func (b *Beat) Syllables() *big.Rat {
	sum := new(big.Rat)
	for _, w := range b.Weights {
		sum.Add(sum, w)
	}
	return sum
}

// Marked reports if any phrase of the beat is marked.
func (b *Beat) Marked() bool {
	for _, m := range b.Markers {
		if m {
			return true
		}
	}
	return false
}

// MarkedPhrases returns the marked phrases of the beat, in order.
func (b *Beat) MarkedPhrases() []*Phrase {
	var ret []*Phrase
	for i, m := range b.Markers {
		if m {
			ret = append(ret, b.Phrases[i])
		}
	}
	return ret
}

// PhraseIDs returns the main IDs of the phrases of the beat, in order.
func (b *Beat) PhraseIDs() []string {
	ret := make([]string, len(b.Phrases))
	for i, p := range b.Phrases {
		ret[i] = p.ID
	}
	return ret
}

// Duration is the length of the beat at its BPM.
func (b *Beat) Duration() time.Duration {
	return Speed{BPM: b.BPM}.BeatDuration()
}
