package registry

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math/rand"
	"os"
	"path"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/shreyanmitra/tabalchi"
	"github.com/shreyanmitra/tabalchi/compositions"
)

//go:embed definitions/*.yml
var definitionsFS embed.FS

type (
	// definitions is the format of the YAML definition files. The sections
	// are registered in the order of the fields, so composites can refer to
	// the phrases of the same file.
	definitions struct {
		Phrases     []*tabalchi.Phrase    `yaml:"phrases"`
		Composites  []compositeDef        `yaml:"composites"`
		Sequentials []sequentialDef       `yaml:"sequentials"`
		Khali       map[string]string     `yaml:"khali"`
		Taals       []*tabalchi.Taal      `yaml:"taals"`
		Jatis       []tabalchi.Jati       `yaml:"jatis"`
		Speeds      []tabalchi.SpeedClass `yaml:"speeds"`
	}

	compositeDef struct {
		ID         string   `yaml:"id"`
		Aliases    []string `yaml:"aliases"`
		Components []string `yaml:"components"`
	}

	sequentialDef struct {
		ID         string                `yaml:"id"`
		Aliases    []string              `yaml:"aliases"`
		Components []string              `yaml:"components"`
		Position   tabalchi.DrumPosition `yaml:"position"`
	}

	Option func(*config)

	config struct {
		rand *rand.Rand
		fss  []fs.FS
	}
)

// WithRand sets the random source used to pick a tempo when a document
// names only a speed class.
func WithRand(r *rand.Rand) Option {
	return func(c *config) { c.rand = r }
}

// WithDefinitionsFS loads the definition files of fsys after the built-in
// ones.
func WithDefinitionsFS(fsys fs.FS) Option {
	return func(c *config) { c.fss = append(c.fss, fsys) }
}

// WithUserDefinitions loads the definition files of a directory after the
// built-in ones. A directory that does not exist is skipped.
func WithUserDefinitions(dir string) Option {
	return func(c *config) {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			c.fss = append(c.fss, os.DirFS(dir))
		}
	}
}

// UserDefinitionsDir is where the user's own definitions are looked for:
// tabalchi/definitions under the user config directory.
func UserDefinitionsDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "tabalchi", "definitions"), nil
}

// New makes a registry with the built-in phrases, taals, jatis, speed
// classes and composition types, then loads the definitions given as
// options.
func New(opts ...Option) (*Registry, error) {
	c := config{}
	for _, o := range opts {
		o(&c)
	}
	if c.rand == nil {
		c.rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	r := empty()
	r.rand = c.rand
	builtin, err := fs.Sub(definitionsFS, "definitions")
	if err != nil {
		return nil, err
	}
	if err := r.LoadDefinitions(builtin); err != nil {
		return nil, fmt.Errorf("built-in definitions: %w", err)
	}
	types, err := compositions.Builtin()
	if err != nil {
		return nil, err
	}
	for _, t := range types {
		if err := r.RegisterCompositionType(t); err != nil {
			return nil, err
		}
	}
	for _, fsys := range c.fss {
		if err := r.LoadDefinitions(fsys); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// LoadDefinitions registers the contents of every .yml and .yaml file of
// fsys, in lexical order of their paths.
func (r *Registry) LoadDefinitions(fsys fs.FS) error {
	return fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if ext := path.Ext(p); ext != ".yml" && ext != ".yaml" {
			return nil
		}
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return err
		}
		if err := r.load(data); err != nil {
			return fmt.Errorf("%v: %w", p, err)
		}
		return nil
	})
}

func (r *Registry) load(data []byte) error {
	var defs definitions
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&defs); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("could not decode definitions: %w", err)
	}
	for i, p := range defs.Phrases {
		if p == nil {
			return fmt.Errorf("phrase #%d is empty", i+1)
		}
		if err := r.RegisterPhrase(p); err != nil {
			return err
		}
	}
	for _, c := range defs.Composites {
		if len(c.Components) != 2 {
			return fmt.Errorf("composite phrase %q should have exactly two components, got %d", c.ID, len(c.Components))
		}
		if _, err := r.RegisterComposite(c.ID, c.Components[0], c.Components[1], c.Aliases...); err != nil {
			return err
		}
	}
	for _, s := range defs.Sequentials {
		if _, err := r.RegisterSequential(s.ID, s.Position, s.Components, s.Aliases...); err != nil {
			return err
		}
	}
	for bhari, khali := range defs.Khali {
		if err := r.RegisterKhali(bhari, khali); err != nil {
			return err
		}
	}
	for i, t := range defs.Taals {
		if t == nil {
			return fmt.Errorf("taal #%d is empty", i+1)
		}
		if err := r.RegisterTaal(t); err != nil {
			return err
		}
	}
	for _, j := range defs.Jatis {
		if err := r.RegisterJati(j); err != nil {
			return err
		}
	}
	for _, s := range defs.Speeds {
		if err := r.RegisterSpeedClass(s); err != nil {
			return err
		}
	}
	return nil
}
