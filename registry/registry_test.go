package registry_test

import (
	"errors"
	"math/rand"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"

	"github.com/shreyanmitra/tabalchi"
	"github.com/shreyanmitra/tabalchi/registry"
)

func newRegistry(t *testing.T, opts ...registry.Option) *registry.Registry {
	t.Helper()
	r, err := registry.New(append([]registry.Option{registry.WithRand(rand.New(rand.NewSource(1)))}, opts...)...)
	require.NoError(t, err)
	return r
}

func TestBuiltinPhrases(t *testing.T) {
	r := newRegistry(t)
	for _, tc := range []struct {
		id        string
		want      string
		syllables int
		position  tabalchi.DrumPosition
	}{
		{"dha", "dha", 1, tabalchi.Both},
		{"DHA", "dha", 1, tabalchi.Both},
		{"ta", "na", 1, tabalchi.Right},
		{"ghe", "ge", 1, tabalchi.Left},
		{"dhet", "dhe", 1, tabalchi.Both},
		{"terekite", "terekite", 4, tabalchi.Both},
		{"dhagena", "dhagena", 3, tabalchi.Both},
	} {
		t.Run(tc.id, func(t *testing.T) {
			p, err := r.Phrase(tc.id)
			require.NoError(t, err)
			require.Equal(t, tc.want, p.ID)
			require.Equal(t, tc.syllables, p.Syllables)
			require.Equal(t, tc.position, p.Position)
		})
	}
}

func TestUnknownPhrase(t *testing.T) {
	r := newRegistry(t)
	_, err := r.Phrase("xyz")
	var lookup *tabalchi.RegistryLookupError
	require.True(t, errors.As(err, &lookup))
	require.Equal(t, "phrase", lookup.Kind)
	require.Equal(t, "xyz", lookup.ID)
}

func TestRegisterPhraseDuplicate(t *testing.T) {
	r := newRegistry(t)
	err := r.RegisterPhrase(&tabalchi.Phrase{ID: "tra", Aliases: []string{"Dha"}, Syllables: 1, Position: tabalchi.Right})
	require.Error(t, err)
	_, err = r.Phrase("tra")
	require.Error(t, err, "a rejected phrase should not be partially registered")
	require.NoError(t, r.RegisterPhrase(&tabalchi.Phrase{ID: "tra", Syllables: 2, Position: tabalchi.Right}))
	p, err := r.Phrase("TRA")
	require.NoError(t, err)
	require.Equal(t, 2, p.Syllables)
}

func TestRegisterPhraseLowercase(t *testing.T) {
	r := newRegistry(t)
	p := &tabalchi.Phrase{ID: "Tra", Syllables: 1, Position: tabalchi.Right}
	require.NoError(t, r.RegisterPhrase(p))
	got, err := r.Phrase("tra")
	require.NoError(t, err)
	require.Equal(t, "tra", got.ID)
	c, err := r.RegisterComposite("DhiT", "ge", "te")
	require.NoError(t, err)
	require.Equal(t, "dhit", c.ID)
	s, err := r.RegisterSequential("TiRa", tabalchi.Right, []string{"ti", "re"})
	require.NoError(t, err)
	require.Equal(t, "tira", s.ID)
	require.Error(t, (&tabalchi.Phrase{ID: "Tra", Syllables: 1}).Validate())
	require.Error(t, r.RegisterPhrase(nil))
	require.Error(t, r.RegisterTaal(nil))
	require.Error(t, r.RegisterCompositionType(nil))
}

func TestRegisterComposite(t *testing.T) {
	r := newRegistry(t)
	p, err := r.RegisterComposite("dhit", "ge", "te")
	require.NoError(t, err)
	require.Equal(t, tabalchi.Both, p.Position)
	require.Equal(t, 1, p.Syllables)
	_, err = r.RegisterComposite("bad", "na", "tin")
	require.Error(t, err, "both components on the right drum")
	_, err = r.RegisterComposite("bad", "dha", "ka")
	require.Error(t, err, "composite of a composite")
	_, err = r.RegisterComposite("bad", "ge", "nope")
	var lookup *tabalchi.RegistryLookupError
	require.True(t, errors.As(err, &lookup))
}

func TestRegisterSequential(t *testing.T) {
	r := newRegistry(t)
	p, err := r.RegisterSequential("dhinagina", tabalchi.Both, []string{"dhin", "na", "ge", "na"})
	require.NoError(t, err)
	require.Equal(t, 4, p.Syllables)
	_, err = r.RegisterSequential("empty", tabalchi.Both, nil)
	require.Error(t, err)
}

func TestTaalLookup(t *testing.T) {
	r := newRegistry(t)
	taal, err := r.Taal("teentaal")
	require.NoError(t, err)
	require.Equal(t, "Teentaal", taal.Name)
	require.Equal(t, []int{1, 5, 13}, taal.Claps)
	taal, err = r.Taal("Trital")
	require.NoError(t, err)
	require.Equal(t, "Teentaal", taal.Name)
	taal, err = r.Taal("16")
	require.NoError(t, err)
	require.Equal(t, "Teentaal", taal.Name)
	_, err = r.Taal("14")
	require.Error(t, err, "several taals have 14 beats")
	_, err = r.Taal("Nonexistent")
	var lookup *tabalchi.RegistryLookupError
	require.True(t, errors.As(err, &lookup))
	require.Equal(t, "taal", lookup.Kind)
}

func TestRegisterTaal(t *testing.T) {
	r := newRegistry(t)
	require.NoError(t, r.RegisterTaal(&tabalchi.Taal{Name: "Ek", Beats: 1, Claps: []int{1}}))
	require.NoError(t, r.RegisterTaal(&tabalchi.Taal{Name: "Sadhe Teen", Beats: 3.5, Claps: []int{1}, Waves: []int{4}}))
	require.Error(t, r.RegisterTaal(&tabalchi.Taal{Name: "ek", Beats: 2}), "duplicate name")
	require.Error(t, r.RegisterTaal(&tabalchi.Taal{Name: "Overlap", Beats: 4, Claps: []int{1, 3}, Waves: []int{3}}))
	require.Error(t, r.RegisterTaal(&tabalchi.Taal{Name: "Third", Beats: 4.3}))
	taal, err := r.Taal("3.5")
	require.NoError(t, err)
	require.Equal(t, "Sadhe Teen", taal.Name)
}

func TestJatiLookup(t *testing.T) {
	r := newRegistry(t)
	for _, tc := range []struct {
		name      string
		syllables int
	}{
		{"Chatusra", 4},
		{"tisra", 3},
		{"Mishra", 7},
		{"5", 5},
		{"11", 11},
		{"Infer", 0},
		{"infer", 0},
	} {
		t.Run(tc.name, func(t *testing.T) {
			j, err := r.Jati(tc.name)
			require.NoError(t, err)
			require.Equal(t, tc.syllables, j.Syllables)
		})
	}
	_, err := r.Jati("0")
	require.Error(t, err)
	_, err = r.Jati("Unknown")
	require.Error(t, err)
	require.Error(t, r.RegisterJati(tabalchi.Jati{Name: "infer", Syllables: 2}))
}

func TestSpeed(t *testing.T) {
	r := newRegistry(t)
	s, err := r.Speed("120")
	require.NoError(t, err)
	require.Equal(t, tabalchi.Speed{BPM: 120, Class: "Madhya"}, s)
	s, err = r.Speed("10")
	require.NoError(t, err)
	require.Equal(t, "", s.Class)
	for n := 0; n < 100; n++ {
		s, err = r.Speed("drut")
		require.NoError(t, err)
		require.Equal(t, "Drut", s.Class)
		require.GreaterOrEqual(t, s.BPM, 160)
		require.LessOrEqual(t, s.BPM, 400)
	}
	_, err = r.Speed("0")
	require.Error(t, err)
	_, err = r.Speed("92.5")
	require.Error(t, err)
	_, err = r.Speed("Presto")
	require.Error(t, err)
	require.Equal(t, "Vilambit", r.ClassifySpeed(20))
	require.Equal(t, "Madhya", r.ClassifySpeed(80))
	require.Equal(t, "Drut", r.ClassifySpeed(400))
	require.Equal(t, "", r.ClassifySpeed(401))
}

func TestReduce(t *testing.T) {
	r := newRegistry(t)
	for _, tc := range []struct{ bhari, khali string }{
		{"dha dhin dhin dha", "ta tin tin ta"},
		{"dhi na dhi dhi na", "ti na ti ti na"},
		{"dhage terekite", "take terekite"},
		{"[dha ge] na", "[ta ke] na"},
		{"~dha", "~ta"},
	} {
		require.Equal(t, tc.khali, r.Reduce(tc.bhari))
	}
	require.NoError(t, r.RegisterKhali("dhagena", "takena"))
	require.Equal(t, "takena", r.Reduce("dhagena"))
	require.Error(t, r.RegisterKhali("dha", "na"), "dha already has a khali")
	require.Error(t, r.RegisterKhali("dha-dha", "na"))
}

func TestCompositionTypes(t *testing.T) {
	r := newRegistry(t)
	for _, name := range []string{"Kayda", "tihai", "BedamTihai", "Chakradar", "Gat", "Theka"} {
		ct, err := r.CompositionType(name)
		require.NoError(t, err, name)
		require.NotNil(t, ct.Assemble)
		require.NotEmpty(t, ct.Schema)
	}
	_, err := r.CompositionType("Symphony")
	var lookup *tabalchi.RegistryLookupError
	require.True(t, errors.As(err, &lookup))
	require.Equal(t, "composition type", lookup.Kind)
	kayda, err := r.CompositionType("Kayda")
	require.NoError(t, err)
	require.Error(t, r.RegisterCompositionType(kayda))
}

func TestLoadDefinitions(t *testing.T) {
	fsys := fstest.MapFS{
		"extra.yml": {Data: []byte(`
phrases:
  - id: tak
    syllables: 1
    position: right
composites:
  - id: dhak
    components: [ge, tak]
sequentials:
  - id: taktak
    components: [tak, tak]
    position: daiyan
khali:
  dhak: tak
taals:
  - name: Ek
    beats: 1
    claps: [1]
jatis:
  - name: Double
    syllables: 2
speeds:
  - name: Ati Drut
    min: 401
    max: 800
`)},
		"README.md": {Data: []byte("not a definition file")},
	}
	r := newRegistry(t, registry.WithDefinitionsFS(fsys))
	p, err := r.Phrase("taktak")
	require.NoError(t, err)
	require.Equal(t, 2, p.Syllables)
	require.Equal(t, "tak taktak", r.Reduce("dhak taktak"))
	_, err = r.Taal("ek")
	require.NoError(t, err)
	j, err := r.Jati("double")
	require.NoError(t, err)
	require.Equal(t, 2, j.Syllables)
	require.Equal(t, "Ati Drut", r.ClassifySpeed(500))
}

func TestLoadDefinitionsEmptyItems(t *testing.T) {
	for _, data := range []string{
		"phrases:\n  - \n",
		"phrases: [~]\n",
		"taals:\n  - ~\n",
		"taals: [~]\n",
	} {
		r := newRegistry(t)
		err := r.LoadDefinitions(fstest.MapFS{"x.yml": {Data: []byte(data)}})
		require.Error(t, err, data)
		require.Contains(t, err.Error(), "is empty", data)
	}
}

func TestLoadDefinitionsStrict(t *testing.T) {
	r := newRegistry(t)
	err := r.LoadDefinitions(fstest.MapFS{"bad.yml": {Data: []byte("phrases:\n  - id: x\n    syllables: 1\n    colour: red\n")}})
	require.Error(t, err)
	err = r.LoadDefinitions(fstest.MapFS{"bad.yml": {Data: []byte("composites:\n  - id: x\n    components: [ge]\n")}})
	require.Error(t, err)
}

func TestUserDefinitionsMissingDir(t *testing.T) {
	newRegistry(t, registry.WithUserDefinitions(t.TempDir()+"/does-not-exist"))
}

func TestConcurrentLookups(t *testing.T) {
	r := newRegistry(t)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			for n := 0; n < 100; n++ {
				if _, err := r.Phrase("dha"); err != nil {
					t.Error(err)
				}
				r.Reduce("dha dhin")
				if _, err := r.Speed("Madhya"); err != nil {
					t.Error(err)
				}
			}
			if i == 0 {
				if err := r.RegisterPhrase(&tabalchi.Phrase{ID: "tra", Syllables: 1, Position: tabalchi.Right}); err != nil {
					t.Error(err)
				}
			}
		}()
	}
	wg.Wait()
	_, err := r.Phrase("tra")
	require.NoError(t, err)
}
