package tabalchi

import "encoding/json"

// beatDoc and bolDoc are the serialized forms of Beat and Bol: phrases are
// written by their IDs and weights as exact fractions, e.g. "1/2".
type (
	beatDoc struct {
		Position int      `json:"position" yaml:"position"`
		Clap     string   `json:"clap" yaml:"clap"`
		Downbeat bool     `json:"downbeat,omitempty" yaml:"downbeat,omitempty"`
		BPM      int      `json:"bpm" yaml:"bpm"`
		Phrases  []string `json:"phrases" yaml:"phrases,flow"`
		Weights  []string `json:"weights" yaml:"weights,flow"`
		Markers  []bool   `json:"markers,omitempty" yaml:"markers,flow,omitempty"`
		Text     string   `json:"text" yaml:"text"`
	}

	segmentDoc struct {
		Name  string `json:"name" yaml:"name"`
		Range string `json:"range" yaml:"range"`
	}

	bolDoc struct {
		Beats    []beatDoc    `json:"beats" yaml:"beats"`
		Segments []segmentDoc `json:"segments,omitempty" yaml:"segments,omitempty"`
	}
)

func (b *Beat) doc() beatDoc {
	weights := make([]string, len(b.Weights))
	for i, w := range b.Weights {
		weights[i] = w.RatString()
	}
	var markers []bool
	if b.Marked() {
		markers = b.Markers
	}
	return beatDoc{
		Position: b.Position,
		Clap:     b.Clap.String(),
		Downbeat: b.Downbeat,
		BPM:      b.BPM,
		Phrases:  b.PhraseIDs(),
		Weights:  weights,
		Markers:  markers,
		Text:     b.Text,
	}
}

func (b *Bol) doc() bolDoc {
	ret := bolDoc{Beats: make([]beatDoc, len(b.beats))}
	for i, beat := range b.beats {
		ret.Beats[i] = beat.doc()
	}
	for _, s := range b.segments {
		ret.Segments = append(ret.Segments, segmentDoc{Name: s.Name, Range: s.Range.String()})
	}
	return ret
}

func (b *Beat) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.doc())
}

// MarshalYAML implements yaml.Marshaler.
func (b *Beat) MarshalYAML() (any, error) {
	return b.doc(), nil
}

func (b *Bol) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.doc())
}

// MarshalYAML implements yaml.Marshaler.
func (b *Bol) MarshalYAML() (any, error) {
	return b.doc(), nil
}
