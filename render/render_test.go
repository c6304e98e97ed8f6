package render_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shreyanmitra/tabalchi"
	"github.com/shreyanmitra/tabalchi/parser"
	"github.com/shreyanmitra/tabalchi/registry"
	"github.com/shreyanmitra/tabalchi/render"
)

const theka = "dha | dhin | dhin | dha | dha | dhin | dhin | dha | dha | tin | tin | ta | ta | dhin | dhin | dha"

func composition(t *testing.T, taal, notation string) *tabalchi.Composition {
	t.Helper()
	r, err := registry.New()
	require.NoError(t, err)
	res, err := parser.New(r).Parse(&tabalchi.Document{
		Type:       "Theka",
		Name:       "theka of teentaal",
		Components: map[string]any{"content": notation},
		Taal:       taal,
		Speed:      tabalchi.RangeValue{Value: "100"},
		Jati:       tabalchi.RangeValue{Value: "Infer"},
	})
	require.NoError(t, err)
	return res.Composition
}

func marks(cycle []render.Cell) []string {
	var ret []string
	for _, c := range cycle {
		if m := strings.TrimSpace(c.Mark); m != "" {
			ret = append(ret, m)
		}
	}
	return ret
}

func TestCycles(t *testing.T) {
	c := composition(t, "Teentaal", theka+" | "+theka)
	for n, want := range map[tabalchi.Notation][]string{
		tabalchi.Bhatkhande: {"X", "2", "0", "3"},
		tabalchi.Paluskar:   {"1", "5", "+", "13"},
	} {
		cycles, err := render.Cycles(c.Bol, c.Taal, n)
		require.NoError(t, err)
		require.Len(t, cycles, 2)
		for _, cycle := range cycles {
			require.Len(t, cycle, 16)
			require.Equal(t, want, marks(cycle), n.String())
			for i, cell := range cycle {
				require.Equal(t, len(cell.Text), len(cell.Mark), "beat %d", i+1)
				require.Equal(t, i == 0 || i == 4 || i == 8 || i == 12, cell.Divider, "beat %d", i+1)
			}
		}
	}
}

func TestRupakMarks(t *testing.T) {
	c := composition(t, "Rupak", "tin | tin | na | dhi | na | dhi | na")
	cycles, err := render.Cycles(c.Bol, c.Taal, tabalchi.Bhatkhande)
	require.NoError(t, err)
	require.Equal(t, []string{"0", "1", "2"}, marks(cycles[0]))
}

func TestString(t *testing.T) {
	c := composition(t, "Teentaal", theka)
	out, err := render.String(tabalchi.Bhatkhande, c)
	require.NoError(t, err)
	lines := strings.Split(out, "\n")
	require.Equal(t, "Theka Of Teentaal", lines[0])
	require.Equal(t, "Theka in Teentaal (16 beats), Bhatkhande notation", lines[1])
	require.Equal(t, "Laya: 100 bpm (Madhya)", lines[2])
	i := indexOf(lines, "1st avartan")
	require.NotEqual(t, -1, i, out)
	require.Equal(t, "| dha dhin dhin dha | dha dhin dhin dha | dha tin tin ta | ta dhin dhin dha |", lines[i+1])
	require.True(t, strings.HasPrefix(lines[i+2], "  X"), lines[i+2])
	require.Equal(t, strings.Index(lines[i+1], "| dha tin")+2, strings.Index(lines[i+2], "0"))

	out, err = render.String(tabalchi.Paluskar, c)
	require.NoError(t, err)
	lines = strings.Split(out, "\n")
	i = indexOf(lines, "1st avartan")
	require.True(t, strings.HasPrefix(lines[i+1], "  1"), lines[i+1])
	require.True(t, strings.HasPrefix(lines[i+2], "| dha"), lines[i+2])
}

func TestRenderUsesDisplay(t *testing.T) {
	c := composition(t, "Teentaal", theka)
	c.Display = tabalchi.Paluskar
	var b strings.Builder
	require.NoError(t, render.Render(&b, c))
	require.Contains(t, b.String(), "Paluskar notation")
}

func TestLookup(t *testing.T) {
	n, err := render.Lookup("Bhatkande")
	require.NoError(t, err)
	require.Equal(t, tabalchi.Bhatkhande, n)
	_, err = render.Lookup("Western")
	require.Error(t, err)
}

func indexOf(lines []string, s string) int {
	for i, l := range lines {
		if l == s {
			return i
		}
	}
	return -1
}
