// Package tabalchi contains the data model for tabla compositions: phrases
// (bols), taals, jatis, speeds, and the Bol, an ordered sequence of validated
// beats that a composition is parsed into.
//
// The subpackages build on this model. registry holds the named lookup tables,
// tokenizer splits the text of a single beat into phrases, compositions
// knows how each composition type is assembled and checked, and parser ties
// all of these into the pipeline that turns a composition document into a Bol.
// render and smf write a parsed composition out as notation text or as a
// MIDI file.
package tabalchi

type (
	// Sound is an opaque handle to the recording that backs a phrase, e.g. a
	// file name. The parser never looks inside it; it is passed through to
	// whatever plays or mixes the phrases.
	Sound string

	// SoundBank resolves the sound of a phrase. Implemented by audio
	// collaborators outside of this module.
	SoundBank interface {
		Sound(phrase *Phrase) (Sound, error)
	}

	// Player plays a fully parsed Bol. Like SoundBank, this is only a boundary:
	// nothing in this module calls it.
	Player interface {
		Play(bol *Bol) error
	}
)
