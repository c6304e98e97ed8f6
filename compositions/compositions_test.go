package compositions_test

import (
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shreyanmitra/tabalchi"
	"github.com/shreyanmitra/tabalchi/compositions"
)

type reducer struct{}

func (reducer) Reduce(notation string) string {
	return strings.NewReplacer("dhin", "tin", "dha", "ta").Replace(notation)
}

func builtin(t *testing.T, name string) *tabalchi.CompositionType {
	t.Helper()
	types, err := compositions.Builtin()
	require.NoError(t, err)
	for _, ct := range types {
		if ct.Name == name {
			return ct
		}
	}
	t.Fatalf("no built-in composition type %v", name)
	return nil
}

// bol builds a Bol from notation where every space separated word is one
// phrase and ~ marks a phrase.
func bol(t *testing.T, notation string, segments ...tabalchi.Segment) *tabalchi.Bol {
	t.Helper()
	var beats []*tabalchi.Beat
	for i, text := range tabalchi.SplitBeats(notation) {
		b := &tabalchi.Beat{Position: i + 1, BPM: 100, Text: text}
		for _, w := range strings.Fields(text) {
			id := strings.TrimPrefix(w, "~")
			b.Phrases = append(b.Phrases, &tabalchi.Phrase{ID: id, Syllables: 1})
			b.Weights = append(b.Weights, big.NewRat(1, 1))
			b.Markers = append(b.Markers, id != w)
		}
		beats = append(beats, b)
	}
	ret, err := tabalchi.NewBol(beats, segments)
	require.NoError(t, err)
	return ret
}

func TestBuiltin(t *testing.T) {
	types, err := compositions.Builtin()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, ct := range types {
		require.NoError(t, ct.Validate())
		require.NotNil(t, ct.PreCheck, ct.Name)
		names[ct.Name] = true
	}
	for _, n := range []string{"Kayda", "Rela", "Peshkar", "Uthaan", "GatKayda", "LadiKayda",
		"Tihai", "BedamTihai", "DamdarTihai", "Paran", "Aamad", "Chalan", "GatParan", "Kissm",
		"Laggi", "Mohra", "Mukhda", "Rou", "Theka", "Gat", "Tukda", "GatTukda", "Chakradar",
		"FarmaisiChakradar", "KamaaliChakradar"} {
		require.True(t, names[n], n)
	}
}

func TestPreCheck(t *testing.T) {
	kayda := builtin(t, "Kayda")
	require.NoError(t, kayda.PreCheck(map[string]any{
		"mainTheme": map[string]any{"bhari": "dha dhin", "khali": "Infer"},
		"paltas":    []any{map[string]any{"bhari": "dha"}},
		"tihai":     map[string]any{"content": "dha | dha | dha"},
	}))
	for _, bad := range []map[string]any{
		{"mainTheme": map[string]any{"bhari": "dha"}, "tihai": map[string]any{"content": "dha"}},
		{"mainTheme": map[string]any{"khali": "dha"}, "paltas": []any{}, "tihai": map[string]any{"content": "dha"}},
		{"mainTheme": map[string]any{"bhari": " | "}, "paltas": []any{}, "tihai": map[string]any{"content": "dha"}},
		{"mainTheme": map[string]any{"bhari": "dha"}, "paltas": []any{}, "tihai": map[string]any{"content": "dha"}, "extra": "x"},
	} {
		err := kayda.PreCheck(bad)
		var schema *tabalchi.SchemaError
		require.True(t, errors.As(err, &schema), "%v: got %v", bad, err)
		require.Equal(t, "Kayda", schema.Type)
	}
	gat := builtin(t, "Gat")
	require.NoError(t, gat.PreCheck(map[string]any{"content": "dha"}))
	require.NoError(t, gat.PreCheck(map[string]any{"content": "dha", "tihai": map[string]any{"content": "dha"}}))
	require.Error(t, builtin(t, "Tihai").PreCheck(map[string]any{"content": []any{"dha"}}))
}

func TestAssembleExtensible(t *testing.T) {
	parts, err := builtin(t, "Kayda").Assemble(map[string]any{
		"mainTheme": map[string]any{"bhari": "dha dhin | dha", "khali": "Infer"},
		"paltas": []any{
			map[string]any{"bhari": "dhin dha", "khali": "ta tin"},
			map[string]any{"bhari": "dha dha"},
		},
		"tihai": map[string]any{"content": "dha | dha | dha"},
	}, reducer{})
	require.NoError(t, err)
	require.Equal(t, []tabalchi.Part{
		{Name: "mainTheme.bhari", Notation: "dha dhin | dha"},
		{Name: "mainTheme.khali", Notation: "ta tin | ta"},
		{Name: "palta1.bhari", Notation: "dhin dha"},
		{Name: "palta1.khali", Notation: "ta tin"},
		{Name: "palta2.bhari", Notation: "dha dha"},
		{Name: "palta2.khali", Notation: "ta ta"},
		{Name: "tihai", Notation: "dha | dha | dha"},
	}, parts)
}

func TestAssembleClosing(t *testing.T) {
	gat := builtin(t, "Gat")
	parts, err := gat.Assemble(map[string]any{"content": "dha | ge"}, reducer{})
	require.NoError(t, err)
	require.Equal(t, []tabalchi.Part{{Name: "content", Notation: "dha | ge"}}, parts)
	parts, err = gat.Assemble(map[string]any{"content": "dha | ge", "tihai": map[string]any{"content": "na"}}, reducer{})
	require.NoError(t, err)
	require.Len(t, parts, 2)
	require.Equal(t, "tihai", parts[1].Name)
}

func TestRepetitions(t *testing.T) {
	for _, tc := range []struct {
		notation string
		want     []compositions.Repetition
	}{
		{"dha | dha | dha", []compositions.Repetition{{Unit: 1, Gap: 0}}},
		{"a | b | a | b | a | b", []compositions.Repetition{{Unit: 2, Gap: 0}}},
		{"a | x | a | y | a", []compositions.Repetition{{Unit: 1, Gap: 1}}},
		{"a b | b a a | a b", []compositions.Repetition{{Unit: 1, Gap: 0}}},
		{"a | a | a | a | a", []compositions.Repetition{{Unit: 1, Gap: 1}}},
		{"a | a | b", nil},
		{"a | b", nil},
	} {
		require.Equal(t, tc.want, compositions.Repetitions(bol(t, tc.notation).Beats()), tc.notation)
	}
}

func TestTihaiChecks(t *testing.T) {
	require.NoError(t, compositions.Tihai(compositions.AnyGap)(bol(t, "dha | dha | dha")))
	require.NoError(t, compositions.Tihai(compositions.NoGap)(bol(t, "a | b | a | b | a | b")))
	require.Error(t, compositions.Tihai(compositions.NoGap)(bol(t, "a | x | a | x | a")))
	require.NoError(t, compositions.Tihai(compositions.WithGap)(bol(t, "a | x | a | x | a")))
	require.Error(t, compositions.Tihai(compositions.WithGap)(bol(t, "a | a | a")))
	require.Error(t, compositions.Tihai(compositions.AnyGap)(bol(t, "a | a")))
	require.NoError(t, compositions.Tihai(compositions.AnyGap)(bol(t, "a ~b | a ~b | a ~b")))
	require.Error(t, compositions.Tihai(compositions.AnyGap)(bol(t, "a ~b | a ~b | a b")))
	require.Error(t, compositions.Tihai(compositions.AnyGap)(bol(t, "~a b | a ~b | a ~b")))
}

func TestSegmentTihai(t *testing.T) {
	check := compositions.SegmentTihai("tihai")
	require.NoError(t, check(bol(t, "x | y | z")), "no tihai segment")
	seg := tabalchi.Segment{Name: "tihai", Range: tabalchi.BeatRange{Begin: 3, End: 6}}
	require.NoError(t, check(bol(t, "x | y | dha | dha | dha", seg)))
	err := check(bol(t, "x | y | dha | na | dha", seg))
	require.Error(t, err)
	require.Contains(t, err.Error(), "tihai")
}

func TestChakradar(t *testing.T) {
	require.NoError(t, compositions.Chakradar(bol(t, "a | b | c | c | c | a | b | c | c | c | a | b | c | c | c")))
	require.Error(t, compositions.Chakradar(bol(t, "a | b | c | a | b | c | a | b | c")))

	notation := "a | b | c | c | c | a | b | c | c | c | a | b | c | c | c | d | d | d"
	segments := []tabalchi.Segment{
		{Name: "content", Range: tabalchi.BeatRange{Begin: 1, End: 16}},
		{Name: "tihai", Range: tabalchi.BeatRange{Begin: 16, End: 19}},
	}
	require.NoError(t, compositions.Chakradar(bol(t, notation, segments...)))
	require.Error(t, compositions.Chakradar(bol(t, notation)), "the tihai breaks the three-fold content")
}

func TestChakradarComponents(t *testing.T) {
	for _, name := range []string{"Chakradar", "FarmaisiChakradar", "KamaaliChakradar"} {
		ct := builtin(t, name)
		require.NoError(t, ct.PreCheck(map[string]any{"content": "dha", "tihai": map[string]any{"content": "dha | dha | dha"}}), name)
		parts, err := ct.Assemble(map[string]any{"content": "dha", "tihai": map[string]any{"content": "na"}}, reducer{})
		require.NoError(t, err)
		require.Equal(t, []tabalchi.Part{{Name: "content", Notation: "dha"}, {Name: "tihai", Notation: "na"}}, parts)
	}
}

func TestSpeedChecks(t *testing.T) {
	b := bol(t, "a | a | a")
	require.NoError(t, compositions.SpeedAbove(99)(b))
	require.Error(t, compositions.SpeedAbove(100)(b))
	require.NoError(t, compositions.SpeedBelow(101)(b))
	require.Error(t, compositions.SpeedBelow(100)(b))
	require.Error(t, compositions.All(compositions.SpeedAbove(99), compositions.SpeedBelow(100))(b))
}

func TestNew(t *testing.T) {
	_, err := compositions.New("Broken", "{", nil, nil)
	require.Error(t, err)
	ct, err := compositions.New("Custom", `{"type": "object", "required": ["content"]}`, func(components any, r tabalchi.Reducer) ([]tabalchi.Part, error) {
		return []tabalchi.Part{{Name: "content", Notation: "dha"}}, nil
	}, nil)
	require.NoError(t, err)
	require.NoError(t, ct.PreCheck(map[string]any{"content": "x"}))
	require.Error(t, ct.PreCheck(map[string]any{}))
}
