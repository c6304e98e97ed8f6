package tabalchi

import (
	"errors"
	"fmt"
	"strings"
)

type (
	// Phrase is a playable syllable unit on the tabla, e.g. "dha" or
	// "terekite". A phrase is identified by its lowercase ID; Aliases are
	// other names under which the same phrase may appear in notation.
	Phrase struct {
		ID        string
		Aliases   []string     `yaml:",omitempty" json:",omitempty"`
		Syllables int          // number of syllables, always >= 1
		Position  DrumPosition // which drum(s) the phrase is played on
		Info      string       `yaml:",omitempty" json:",omitempty"`
		Sound     Sound        `yaml:",omitempty" json:",omitempty"`
	}

	// DrumPosition tells if a phrase is played on the left drum (baiyan), the
	// right drum (daiyan), or both drums simultaneously.
	DrumPosition int
)

const (
	Left DrumPosition = iota
	Right
	Both
)

var drumPositionNames = [...]string{"left", "right", "both"}

func (p DrumPosition) String() string {
	if p < 0 || int(p) >= len(drumPositionNames) {
		return "???"
	}
	return drumPositionNames[p]
}

// ParseDrumPosition accepts both the english names and the traditional names
// of the drums.
func ParseDrumPosition(s string) (DrumPosition, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "left", "baiyan", "bayan":
		return Left, nil
	case "right", "daiyan", "dayan":
		return Right, nil
	case "both", "both drums":
		return Both, nil
	}
	return 0, fmt.Errorf("unknown drum position %q", s)
}

func (p DrumPosition) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *DrumPosition) UnmarshalText(b []byte) error {
	v, err := ParseDrumPosition(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// IDs returns the main ID followed by all the aliases.
func (p *Phrase) IDs() []string {
	return append([]string{p.ID}, p.Aliases...)
}

// Description is a human readable description of how the phrase is played.
func (p *Phrase) Description() string {
	info := p.Info
	if info == "" {
		info = "No info provided"
	}
	return fmt.Sprintf("Phrase: %v\nPlayed on %v.\n%v\nNo. of syllables: %d", p.IDs(), p.Position, info, p.Syllables)
}

func (p *Phrase) String() string {
	return p.ID
}

// Validate checks that the phrase can be registered: it has a lowercase ID,
// at least one syllable and a known drum position.
func (p *Phrase) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return errors.New("phrase has no id")
	}
	if p.ID != strings.ToLower(p.ID) {
		return fmt.Errorf("phrase id %q should be lowercase", p.ID)
	}
	if p.Syllables < 1 {
		return fmt.Errorf("phrase %q: syllables should be >= 1, got %d", p.ID, p.Syllables)
	}
	if p.Position < Left || p.Position > Both {
		return fmt.Errorf("phrase %q: invalid drum position %d", p.ID, p.Position)
	}
	return nil
}

// Composite builds a phrase where two phrases are played at the same time,
// one on each drum. For example, dha is ge (left) played together with na
// (right). Neither component can itself be played on both drums.
func Composite(id string, a, b *Phrase, aliases ...string) (*Phrase, error) {
	if a == nil || b == nil {
		return nil, fmt.Errorf("composite phrase %q: missing component", id)
	}
	if a.Position == Both || b.Position == Both || a.Position == b.Position {
		return nil, fmt.Errorf("composite phrase %q: components %q (%v) and %q (%v) must be played on different drums and cannot be composites themselves", id, a.ID, a.Position, b.ID, b.Position)
	}
	return &Phrase{
		ID:        strings.ToLower(id),
		Aliases:   aliases,
		Syllables: max(a.Syllables, b.Syllables),
		Position:  Both,
		Info:      fmt.Sprintf("Play the following two phrases simultaneously:\n1) %v\n2) %v", a.Info, b.Info),
	}, nil
}

// Sequential builds a phrase where the components are played in succession,
// e.g. terekite = te, re, ki, te. The syllable count is the sum of the
// components' syllables.
func Sequential(id string, position DrumPosition, components []*Phrase, aliases ...string) (*Phrase, error) {
	if len(components) == 0 {
		return nil, fmt.Errorf("sequential phrase %q: no components", id)
	}
	var b strings.Builder
	b.WriteString("Play the following phrases in succession:")
	syllables := 0
	for i, c := range components {
		if c == nil {
			return nil, fmt.Errorf("sequential phrase %q: missing component #%d", id, i+1)
		}
		syllables += c.Syllables
		fmt.Fprintf(&b, "\n%d) %v", i+1, c.Info)
	}
	return &Phrase{
		ID:        strings.ToLower(id),
		Aliases:   aliases,
		Syllables: syllables,
		Position:  position,
		Info:      b.String(),
	}, nil
}
