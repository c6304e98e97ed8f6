// Package registry holds the named lookup tables of tabalchi: phrases,
// taals, jatis, speed classes, composition types and the khali map used to
// derive the reduced form of a theme.
//
// A Registry is populated once from the built-in definitions and can be
// extended afterwards; registration is append-only. Lookups may run
// concurrently with each other and with registration.
package registry

import (
	"errors"
	"fmt"
	"math/rand"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/text/cases"

	"github.com/shreyanmitra/tabalchi"
)

type Registry struct {
	mu sync.RWMutex

	phrases    map[string]*tabalchi.Phrase // by folded id and alias
	phraseList []*tabalchi.Phrase
	taals      map[string]*tabalchi.Taal
	taalList   []*tabalchi.Taal
	jatis      map[string]*tabalchi.Jati
	jatiList   []*tabalchi.Jati
	speeds     []tabalchi.SpeedClass
	types      map[string]*tabalchi.CompositionType
	typeList   []*tabalchi.CompositionType
	khali      map[string]string
	reducer    *strings.Replacer // built lazily from khali, reset on RegisterKhali

	randMu sync.Mutex
	rand   *rand.Rand
}

func empty() *Registry {
	return &Registry{
		phrases: map[string]*tabalchi.Phrase{},
		taals:   map[string]*tabalchi.Taal{},
		jatis:   map[string]*tabalchi.Jati{},
		types:   map[string]*tabalchi.CompositionType{},
		khali:   map[string]string{},
	}
}

// fold normalizes an id for lookups: ids are case insensitive and ignore
// surrounding whitespace.
func fold(id string) string {
	return cases.Fold().String(strings.TrimSpace(id))
}

func (r *Registry) Phrase(id string) (*tabalchi.Phrase, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.phrase(id)
}

func (r *Registry) phrase(id string) (*tabalchi.Phrase, error) {
	if p, ok := r.phrases[fold(id)]; ok {
		return p, nil
	}
	return nil, &tabalchi.RegistryLookupError{Kind: "phrase", ID: id}
}

// Phrases returns the registered phrases in registration order.
func (r *Registry) Phrases() []*tabalchi.Phrase {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.phraseList)
}

// Taal finds a taal by name, alias or number of beats. A number of beats
// only resolves if exactly one registered taal has that many beats.
func (r *Registry) Taal(name string) (*tabalchi.Taal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if t, ok := r.taals[fold(name)]; ok {
		return t, nil
	}
	if beats, err := strconv.ParseFloat(strings.TrimSpace(name), 64); err == nil {
		var found []*tabalchi.Taal
		for _, t := range r.taalList {
			if t.Beats == beats {
				found = append(found, t)
			}
		}
		switch len(found) {
		case 1:
			return found[0], nil
		case 0:
		default:
			names := make([]string, len(found))
			for i, t := range found {
				names[i] = t.Name
			}
			return nil, fmt.Errorf("%v beats is ambiguous, it could be any of %v", name, strings.Join(names, ", "))
		}
	}
	return nil, &tabalchi.RegistryLookupError{Kind: "taal", ID: name}
}

func (r *Registry) Taals() []*tabalchi.Taal {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.taalList)
}

// Jati finds a jati by name, alias or number of syllables. "Infer" returns
// the jati that skips syllable validation. A positive number of syllables
// that no registered jati has gives an unnamed jati of that many syllables.
func (r *Registry) Jati(name string) (tabalchi.Jati, error) {
	if strings.EqualFold(strings.TrimSpace(name), tabalchi.InferJatiName) {
		return tabalchi.InferJati, nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if j, ok := r.jatis[fold(name)]; ok {
		return *j, nil
	}
	if n, err := strconv.Atoi(strings.TrimSpace(name)); err == nil && n >= 1 {
		for _, j := range r.jatiList {
			if j.Syllables == n {
				return *j, nil
			}
		}
		return tabalchi.Jati{Name: strconv.Itoa(n), Syllables: n}, nil
	}
	return tabalchi.Jati{}, &tabalchi.RegistryLookupError{Kind: "jati", ID: name}
}

func (r *Registry) Jatis() []tabalchi.Jati {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ret := make([]tabalchi.Jati, len(r.jatiList))
	for i, j := range r.jatiList {
		ret[i] = *j
	}
	return ret
}

func (r *Registry) SpeedClass(name string) (tabalchi.SpeedClass, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	key := fold(name)
	for _, c := range r.speeds {
		if fold(c.Name) == key {
			return c, nil
		}
	}
	return tabalchi.SpeedClass{}, &tabalchi.RegistryLookupError{Kind: "speed class", ID: name}
}

func (r *Registry) SpeedClasses() []tabalchi.SpeedClass {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.speeds)
}

// ClassifySpeed returns the name of the first speed class containing bpm, or
// "" if none does.
func (r *Registry) ClassifySpeed(bpm int) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.speeds {
		if c.Contains(bpm) {
			return c.Name
		}
	}
	return ""
}

// Speed resolves a speed as written in a document: either a number of beats
// per minute, or the name of a speed class, in which case a random tempo of
// the class is picked.
func (r *Registry) Speed(s string) (tabalchi.Speed, error) {
	s = strings.TrimSpace(s)
	if bpm, err := strconv.Atoi(s); err == nil {
		if bpm < 1 {
			return tabalchi.Speed{}, fmt.Errorf("speed should be at least 1 bpm, got %d", bpm)
		}
		return tabalchi.Speed{BPM: bpm, Class: r.ClassifySpeed(bpm)}, nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return tabalchi.Speed{}, fmt.Errorf("speed should be a whole number of bpm, got %v", f)
	}
	c, err := r.SpeedClass(s)
	if err != nil {
		return tabalchi.Speed{}, err
	}
	r.randMu.Lock()
	bpm := c.Random(r.rand)
	r.randMu.Unlock()
	return tabalchi.Speed{BPM: bpm, Class: c.Name}, nil
}

func (r *Registry) CompositionType(name string) (*tabalchi.CompositionType, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if t, ok := r.types[fold(name)]; ok {
		return t, nil
	}
	return nil, &tabalchi.RegistryLookupError{Kind: "composition type", ID: name}
}

func (r *Registry) CompositionTypes() []*tabalchi.CompositionType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.typeList)
}

// Khali returns the khali map: each bhari phrase id and the id it is
// replaced with in the reduced form.
func (r *Registry) Khali() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ret := make(map[string]string, len(r.khali))
	for k, v := range r.khali {
		ret[k] = v
	}
	return ret
}

// Reduce derives the khali (reduced) form of bhari notation by replacing
// every occurrence of a bhari id with its khali id. Longer ids are matched
// first, so that "dhin" is not read as "dhi" followed by "n".
func (r *Registry) Reduce(notation string) string {
	r.mu.RLock()
	rep := r.reducer
	r.mu.RUnlock()
	if rep == nil {
		r.mu.Lock()
		if r.reducer == nil {
			r.reducer = newReducer(r.khali)
		}
		rep = r.reducer
		r.mu.Unlock()
	}
	return rep.Replace(notation)
}

func newReducer(khali map[string]string) *strings.Replacer {
	keys := make([]string, 0, len(khali))
	for k := range khali {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	pairs := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		pairs = append(pairs, k, khali[k])
	}
	return strings.NewReplacer(pairs...)
}

// RegisterPhrase adds a phrase. Its id and aliases should not be taken by
// any other phrase. The id of p is lowercased.
func (r *Registry) RegisterPhrase(p *tabalchi.Phrase) error {
	if p == nil {
		return errors.New("phrase is nil")
	}
	p.ID = strings.ToLower(strings.TrimSpace(p.ID))
	if err := p.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.addPhrase(p)
}

func (r *Registry) addPhrase(p *tabalchi.Phrase) error {
	ids := p.IDs()
	seen := map[string]bool{}
	for _, id := range ids {
		key := fold(id)
		if key == "" {
			return fmt.Errorf("phrase %q has an empty alias", p.ID)
		}
		if prev, ok := r.phrases[key]; ok {
			return fmt.Errorf("phrase id %q is already registered to phrase %q", id, prev.ID)
		}
		if seen[key] {
			return fmt.Errorf("phrase %q lists %q twice", p.ID, id)
		}
		seen[key] = true
	}
	for key := range seen {
		r.phrases[key] = p
	}
	r.phraseList = append(r.phraseList, p)
	return nil
}

// RegisterComposite registers a phrase where the phrases a and b, already
// registered, are played simultaneously on the two drums.
func (r *Registry) RegisterComposite(id, a, b string, aliases ...string) (*tabalchi.Phrase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pa, err := r.phrase(a)
	if err != nil {
		return nil, err
	}
	pb, err := r.phrase(b)
	if err != nil {
		return nil, err
	}
	p, err := tabalchi.Composite(id, pa, pb, aliases...)
	if err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, r.addPhrase(p)
}

// RegisterSequential registers a phrase where already registered phrases are
// played in succession.
func (r *Registry) RegisterSequential(id string, position tabalchi.DrumPosition, components []string, aliases ...string) (*tabalchi.Phrase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	phrases := make([]*tabalchi.Phrase, len(components))
	for i, c := range components {
		p, err := r.phrase(c)
		if err != nil {
			return nil, err
		}
		phrases[i] = p
	}
	p, err := tabalchi.Sequential(id, position, phrases, aliases...)
	if err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, r.addPhrase(p)
}

// RegisterKhali maps a bhari phrase to its khali counterpart. Both should be
// registered phrases; the ids are used as written.
func (r *Registry) RegisterKhali(bhari, khali string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.phrase(bhari); err != nil {
		return err
	}
	if _, err := r.phrase(khali); err != nil {
		return err
	}
	if prev, ok := r.khali[bhari]; ok {
		return fmt.Errorf("khali of %q is already registered as %q", bhari, prev)
	}
	r.khali[bhari] = khali
	r.reducer = nil
	return nil
}

func (r *Registry) RegisterTaal(t *tabalchi.Taal) error {
	if t == nil {
		return errors.New("taal is nil")
	}
	if err := t.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	keys, err := names(r.taals, "taal", t.Name, t.Aliases)
	if err != nil {
		return err
	}
	for _, k := range keys {
		r.taals[k] = t
	}
	r.taalList = append(r.taalList, t)
	return nil
}

func (r *Registry) RegisterJati(j tabalchi.Jati) error {
	if err := j.Validate(); err != nil {
		return err
	}
	if strings.EqualFold(j.Name, tabalchi.InferJatiName) {
		return fmt.Errorf("jati name %q is reserved", j.Name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	keys, err := names(r.jatis, "jati", j.Name, j.Aliases)
	if err != nil {
		return err
	}
	p := &j
	for _, k := range keys {
		r.jatis[k] = p
	}
	r.jatiList = append(r.jatiList, p)
	return nil
}

// RegisterSpeedClass adds a speed class. ClassifySpeed picks the first
// registered class that contains a tempo, so the order matters if classes
// overlap.
func (r *Registry) RegisterSpeedClass(c tabalchi.SpeedClass) error {
	if err := c.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, prev := range r.speeds {
		if fold(prev.Name) == fold(c.Name) {
			return fmt.Errorf("speed class %q is already registered", c.Name)
		}
	}
	r.speeds = append(r.speeds, c)
	return nil
}

func (r *Registry) RegisterCompositionType(t *tabalchi.CompositionType) error {
	if t == nil {
		return errors.New("composition type is nil")
	}
	if err := t.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := fold(t.Name)
	if _, ok := r.types[key]; ok {
		return fmt.Errorf("composition type %q is already registered", t.Name)
	}
	r.types[key] = t
	r.typeList = append(r.typeList, t)
	return nil
}

// names folds a name and its aliases and checks that none of them is taken.
func names[T any](m map[string]T, kind, name string, aliases []string) ([]string, error) {
	var ret []string
	for _, n := range append([]string{name}, aliases...) {
		key := fold(n)
		if key == "" {
			return nil, fmt.Errorf("%v %q has an empty alias", kind, name)
		}
		if _, ok := m[key]; ok || slices.Contains(ret, key) {
			return nil, fmt.Errorf("%v name %q is already registered", kind, n)
		}
		ret = append(ret, key)
	}
	return ret, nil
}
