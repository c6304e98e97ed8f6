package tabalchi

import (
	"errors"
	"fmt"
	"math/rand"
	"time"
)

type (
	// Speed (laya) is the tempo of a beat in beats per minute. Class is the
	// name of the speed class the BPM falls into, or "" if none does.
	Speed struct {
		BPM   int
		Class string `yaml:",omitempty" json:",omitempty"`
	}

	// SpeedClass is a named range of tempos, e.g. Vilambit (slow) or Drut
	// (fast). Contains is the predicate of the class; Random is used when a
	// document names only the class and not an exact BPM.
	SpeedClass struct {
		Name string
		Min  int // inclusive
		Max  int // exclusive
	}
)

func (s SpeedClass) Contains(bpm int) bool {
	return s.Min <= bpm && bpm < s.Max
}

// Random returns a random BPM from the class.
func (s SpeedClass) Random(r *rand.Rand) int {
	return s.Min + r.Intn(s.Max-s.Min)
}

func (s *SpeedClass) Validate() error {
	if s.Name == "" {
		return errors.New("speed class has no name")
	}
	if s.Min < 1 || s.Max <= s.Min {
		return fmt.Errorf("speed class %q: invalid bpm range [%d, %d)", s.Name, s.Min, s.Max)
	}
	return nil
}

func (s Speed) String() string {
	if s.Class == "" {
		return fmt.Sprintf("%d bpm", s.BPM)
	}
	return fmt.Sprintf("%d bpm (%v)", s.BPM, s.Class)
}

// BeatDuration is the duration of a single beat at this speed.
func (s Speed) BeatDuration() time.Duration {
	if s.BPM <= 0 {
		return 0
	}
	return time.Minute / time.Duration(s.BPM)
}
