package obslog

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestNewInfoLevelSetsGlobalLevel(t *testing.T) {
	logger := New(Config{Level: LevelInfo, Format: FormatJSON, Component: "itchygen"})
	require.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
	_ = logger
}

func TestNewDebugLevelRaisesGlobalLevel(t *testing.T) {
	New(Config{Level: LevelDebug, Format: FormatJSON, Component: "itchyparse"})
	require.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
}

func TestRecoverPanicDoesNotPropagate(t *testing.T) {
	logger := zerolog.Nop()

	func() {
		defer RecoverPanic(logger, "test-goroutine")
		panic("boom")
	}()
}
