package symboltab

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nezhinsky/itchygen/internal/randgen"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, contents string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "symbols.csv")
	require.NoError(t, os.WriteFile(p, []byte(contents), 0o644))
	return p
}

func TestLoadAcceptsShortTickersAndIgnoresTrailingFields(t *testing.T) {
	p := writeFile(t, "IBM,extra,fields,ignored\nAAPL,whatever\n")
	src, _ := randgen.New(true, 1)

	syms, warnings, err := Load(p, src, true)
	require.NoError(t, err)
	require.Empty(t, warnings)
	require.Len(t, syms, 2)
	require.Equal(t, "IBM", syms[0].Name)
	require.Equal(t, "AAPL", syms[1].Name)
	require.False(t, syms[0].AutoGen)
	require.Equal(t, syms[0].MinPrice*maxPriceMultiplier, syms[0].MaxPrice)
}

func TestLoadSkipsOversizedTickerWithWarning(t *testing.T) {
	p := writeFile(t, "TOOLONG,x\nOK,y\n")
	src, _ := randgen.New(true, 1)

	syms, warnings, err := Load(p, src, true)
	require.NoError(t, err)
	require.Len(t, syms, 1)
	require.Equal(t, "OK", syms[0].Name)
	require.Len(t, warnings, 1)
	require.Contains(t, warnings[0], "longer than 4 chars")
}

func TestLoadWarnsOnMalformedLine(t *testing.T) {
	p := writeFile(t, "no-comma-here\nGOOD,x\n")
	src, _ := randgen.New(true, 1)

	syms, warnings, err := Load(p, src, true)
	require.NoError(t, err)
	require.Len(t, syms, 1)
	require.Len(t, warnings, 1)
	require.Contains(t, warnings[0], "unexpected format")
}

func TestLoadSilentWithoutPrintWarn(t *testing.T) {
	p := writeFile(t, "TOOLONG5,x\n")
	src, _ := randgen.New(true, 1)

	_, warnings, err := Load(p, src, false)
	require.NoError(t, err)
	require.Empty(t, warnings)
}

func TestGenerateRandomUsesConfiguredLengthSplit(t *testing.T) {
	src, _ := randgen.New(true, 1)
	intervals := DefaultLengthIntervals()

	sym := GenerateRandom(src, intervals)
	require.True(t, sym.AutoGen)
	require.True(t, len(sym.Name) == 3 || len(sym.Name) == 4)
	for _, c := range sym.Name {
		require.True(t, c >= 'A' && c <= 'Z')
	}
}

func TestLoadMissingFileErrors(t *testing.T) {
	src, _ := randgen.New(true, 1)
	_, _, err := Load(filepath.Join(t.TempDir(), "nope.csv"), src, false)
	require.Error(t, err)
}
