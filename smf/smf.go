// Package smf exports a Bol as a Standard MIDI File: one General MIDI
// percussion track where every stroke of every phrase is a note.
package smf

import (
	"errors"
	"fmt"
	"io"
	"math"
	"math/big"

	"gitlab.com/gomidi/midi/v2"
	mf "gitlab.com/gomidi/midi/v2/smf"

	"github.com/shreyanmitra/tabalchi"
)

// Options tell how the strokes are mapped to MIDI notes. Channel is 0-based;
// General MIDI percussion is on channel 9 (10 in 1-based counting).
type Options struct {
	Name       string // written as the track name, if not empty
	Channel    uint8
	Left       uint8 // key of the baiyan strokes
	Right      uint8 // key of the daiyan strokes
	Velocity   uint8
	Accent     uint8 // velocity of marked phrases
	Resolution uint16
}

// DefaultOptions maps the baiyan to Acoustic Bass Drum and the daiyan to
// Acoustic Snare, with 960 ticks per beat.
var DefaultOptions = Options{
	Channel:    9,
	Left:       35,
	Right:      38,
	Velocity:   90,
	Accent:     120,
	Resolution: 960,
}

func (o Options) keys(p tabalchi.DrumPosition) []uint8 {
	switch p {
	case tabalchi.Left:
		return []uint8{o.Left}
	case tabalchi.Right:
		return []uint8{o.Right}
	}
	return []uint8{o.Left, o.Right}
}

// Write writes the Bol as a single track MIDI file. A beat lasts one quarter
// note and the tempo follows the BPM of the beats. A phrase takes the share
// of its beat given by its weight and its syllables split that share evenly.
func Write(w io.Writer, bol *tabalchi.Bol, opts Options) error {
	if opts.Resolution == 0 {
		return errors.New("smf: resolution should be > 0")
	}
	if opts.Channel > 15 {
		return fmt.Errorf("smf: channel %d out of range", opts.Channel)
	}
	res := big.NewRat(int64(opts.Resolution), 1)
	ticks := func(beats *big.Rat) uint32 {
		f, _ := new(big.Rat).Mul(beats, res).Float64()
		return uint32(math.Round(f))
	}
	var tr mf.Track
	var now uint32
	add := func(at uint32, msg []byte) {
		tr.Add(at-now, msg)
		now = at
	}
	if opts.Name != "" {
		add(0, mf.MetaTrackSequenceName(opts.Name))
	}
	bpm := 0
	for _, b := range bol.Beats() {
		if err := b.Validate(); err != nil {
			return err
		}
		start := big.NewRat(int64(b.Position-1), 1)
		if b.BPM != bpm {
			add(ticks(start), mf.MetaTempo(float64(b.BPM)))
			bpm = b.BPM
		}
		total := b.Syllables()
		offset := new(big.Rat)
		for i, p := range b.Phrases {
			strokes := max(p.Syllables, 1)
			each := new(big.Rat).Quo(b.Weights[i], total)
			each.Quo(each, big.NewRat(int64(strokes), 1))
			velocity := opts.Velocity
			if b.Markers[i] {
				velocity = opts.Accent
			}
			keys := opts.keys(p.Position)
			for s := 0; s < strokes; s++ {
				on := ticks(new(big.Rat).Add(start, offset))
				offset.Add(offset, each)
				off := ticks(new(big.Rat).Add(start, offset))
				for _, k := range keys {
					add(on, midi.NoteOn(opts.Channel, k, velocity))
				}
				for _, k := range keys {
					add(off, midi.NoteOff(opts.Channel, k))
				}
			}
		}
	}
	tr.Close(0)
	s := mf.New()
	s.TimeFormat = mf.MetricTicks(opts.Resolution)
	if err := s.Add(tr); err != nil {
		return fmt.Errorf("smf: %w", err)
	}
	if _, err := s.WriteTo(w); err != nil {
		return fmt.Errorf("smf: %w", err)
	}
	return nil
}
