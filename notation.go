package tabalchi

import (
	"fmt"
	"strings"
)

// BeatDivider separates beats in composition notation.
const BeatDivider = "|"

// Notation is the notation system a composition is displayed in.
type Notation int

const (
	Bhatkhande Notation = iota
	Paluskar
)

var notationNames = [...]string{"Bhatkhande", "Paluskar"}

func (n Notation) String() string {
	if n < 0 || int(n) >= len(notationNames) {
		return "???"
	}
	return notationNames[n]
}

// ParseNotation accepts the notation names case-insensitively; "Bhatkande" is
// accepted as an alternative spelling of Bhatkhande.
func ParseNotation(s string) (Notation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bhatkhande", "bhatkande":
		return Bhatkhande, nil
	case "paluskar":
		return Paluskar, nil
	}
	return 0, fmt.Errorf("unknown notation system %q", s)
}

func (n Notation) MarshalText() ([]byte, error) {
	return []byte(n.String()), nil
}

func (n *Notation) UnmarshalText(b []byte) error {
	v, err := ParseNotation(string(b))
	if err != nil {
		return err
	}
	*n = v
	return nil
}

// SplitBeats splits notation into the text of each beat. A single leading or
// trailing divider is ignored, so "dha | dha |" has two beats; other empty
// beats are kept and left for the tokenizer to reject.
func SplitBeats(s string) []string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, BeatDivider)
	s = strings.TrimSuffix(s, BeatDivider)
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, BeatDivider)
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

// JoinBeats joins beat texts with the beat divider.
func JoinBeats(beats []string) string {
	return strings.Join(beats, " "+BeatDivider+" ")
}

// FormatCycles lays out the beats with a line break after every cycleLength
// beats, so each line is one cycle of the taal.
func FormatCycles(beats []string, cycleLength int) string {
	if cycleLength < 1 {
		cycleLength = 1
	}
	var b strings.Builder
	for i := 0; i < len(beats); i += cycleLength {
		end := min(i+cycleLength, len(beats))
		b.WriteString(BeatDivider + " ")
		b.WriteString(JoinBeats(beats[i:end]))
		b.WriteString(" " + BeatDivider + "\n")
	}
	return b.String()
}
