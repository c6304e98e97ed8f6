// Package tokenizer splits the notation of a single beat into phrases.
//
// The notation of a beat is a space separated list of phrase ids. A hyphen
// inside an id (te-re-ki-te) splits one occurrence of a phrase into that many
// syllables, overriding the registered syllable count. Brackets group several
// phrases so that together they take the time of one phrase: the weight of
// each is divided by the size of the group. A tilde before a token marks the
// occurrence for structural checks.
package tokenizer

import (
	"fmt"
	"math/big"
	"strings"
	"unicode"

	"github.com/shreyanmitra/tabalchi"
)

type (
	// Symbols are the control symbols of the notation.
	Symbols struct {
		Split      rune
		GroupOpen  rune
		GroupClose rune
		Marker     rune
	}

	// PhraseLookup resolves a phrase id or alias to a registered phrase. The
	// registry implements it.
	PhraseLookup interface {
		Phrase(id string) (*tabalchi.Phrase, error)
	}

	// Token is one occurrence of a phrase in a beat.
	Token struct {
		Phrase *tabalchi.Phrase
		Weight *big.Rat // syllables this occurrence takes in the beat
		Marked bool
	}

	Tokenizer struct {
		phrases PhraseLookup
		symbols Symbols
	}

	Option func(*Tokenizer)
)

var DefaultSymbols = Symbols{Split: '-', GroupOpen: '[', GroupClose: ']', Marker: '~'}

// placeholder stands in for spaces inside a group while the beat is split on
// spaces.
const placeholder = '\uffff'

func WithSymbols(s Symbols) Option {
	return func(t *Tokenizer) { t.symbols = s }
}

func New(phrases PhraseLookup, opts ...Option) *Tokenizer {
	t := &Tokenizer{phrases: phrases, symbols: DefaultSymbols}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Beat tokenizes the notation of one beat. It returns the tokens in order and
// the sum of their weights, which is the observed jati of the beat.
func (t *Tokenizer) Beat(text string) ([]Token, *big.Rat, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil, &tabalchi.NotationError{Text: text, Reason: "empty beat"}
	}
	if strings.ContainsRune(text, placeholder) {
		return nil, nil, &tabalchi.NotationError{Text: text, Reason: "invalid character U+FFFF"}
	}
	protected, err := t.protectGroups(text)
	if err != nil {
		return nil, nil, err
	}
	var tokens []Token
	total := new(big.Rat)
	for _, raw := range strings.Fields(protected) {
		subs, marked, err := t.expand(raw, text)
		if err != nil {
			return nil, nil, err
		}
		for _, sub := range subs {
			tok, err := t.token(sub, len(subs), text)
			if err != nil {
				return nil, nil, err
			}
			tok.Marked = tok.Marked || marked
			total.Add(total, tok.Weight)
			tokens = append(tokens, tok)
		}
	}
	return tokens, total, nil
}

// protectGroups replaces the spaces inside groups with the placeholder, so
// that a group survives splitting the beat on spaces.
func (t *Tokenizer) protectGroups(text string) (string, error) {
	var b strings.Builder
	inGroup := false
	for _, r := range text {
		switch {
		case r == t.symbols.GroupOpen:
			if inGroup {
				return "", &tabalchi.NotationError{Text: text, Reason: "nested groups are not allowed"}
			}
			inGroup = true
		case r == t.symbols.GroupClose:
			if !inGroup {
				return "", &tabalchi.NotationError{Text: text, Reason: fmt.Sprintf("unexpected %c", r)}
			}
			inGroup = false
		case inGroup && unicode.IsSpace(r):
			r = placeholder
		}
		b.WriteRune(r)
	}
	if inGroup {
		return "", &tabalchi.NotationError{Text: text, Reason: fmt.Sprintf("missing %c", t.symbols.GroupClose)}
	}
	return b.String(), nil
}

// expand turns a raw token into its sub-tokens: the members of a group, or
// the token itself. A marker in front of a group marks all of its members.
func (t *Tokenizer) expand(raw, text string) ([]string, bool, error) {
	open := strings.IndexRune(raw, t.symbols.GroupOpen)
	if open < 0 {
		return []string{raw}, false, nil
	}
	marked := false
	prefix := raw[:open]
	switch prefix {
	case "":
	case string(t.symbols.Marker):
		marked = true
	default:
		return nil, false, &tabalchi.NotationError{Text: text, Reason: fmt.Sprintf("group %q should be separated from other phrases by spaces", raw)}
	}
	closeSym := string(t.symbols.GroupClose)
	if !strings.HasSuffix(raw, closeSym) {
		return nil, false, &tabalchi.NotationError{Text: text, Reason: fmt.Sprintf("group %q should be separated from other phrases by spaces", raw)}
	}
	inner := strings.TrimSuffix(raw[open+len(string(t.symbols.GroupOpen)):], closeSym)
	inner = strings.ReplaceAll(inner, string(placeholder), " ")
	subs := strings.Fields(inner)
	if len(subs) == 0 {
		return nil, false, &tabalchi.NotationError{Text: text, Reason: "empty group"}
	}
	return subs, marked, nil
}

// token resolves one (sub-)token. groupSize is 1 for tokens outside groups.
func (t *Tokenizer) token(s string, groupSize int, text string) (Token, error) {
	marked := false
	if m := string(t.symbols.Marker); strings.HasPrefix(s, m) {
		marked = true
		s = strings.TrimPrefix(s, m)
	}
	parts := strings.Split(s, string(t.symbols.Split))
	for _, p := range parts {
		if p == "" {
			return Token{}, &tabalchi.NotationError{Text: text, Reason: fmt.Sprintf("invalid phrase %q", s)}
		}
	}
	phrase, err := t.phrases.Phrase(strings.Join(parts, ""))
	if err != nil {
		return Token{}, err
	}
	syllables := int64(phrase.Syllables)
	if len(parts) > 1 {
		syllables = int64(len(parts))
	}
	return Token{
		Phrase: phrase,
		Weight: big.NewRat(syllables, int64(groupSize)),
		Marked: marked,
	}, nil
}
