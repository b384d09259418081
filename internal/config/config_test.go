package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mna/umscript/internal/config"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithoutPathOrEnv(t *testing.T) {
	lim, err := config.Load("")
	require.NoError(t, err)
	require.Equal(t, config.Default, lim)
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "umscript.yaml")
	require.NoError(t, os.WriteFile(path, []byte("maxEventConditions: 8\nmaxCUWPSlots: 32\n"), 0o644))

	lim, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, 8, lim.MaxEventConditions)
	require.Equal(t, 32, lim.MaxCUWPSlots)
	require.Equal(t, config.Default.MaxTriggers, lim.MaxTriggers)
}

func TestLoadEnvOverridesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "umscript.yaml")
	require.NoError(t, os.WriteFile(path, []byte("maxEventConditions: 8\n"), 0o644))

	t.Setenv("UMSCRIPT_MAX_EVENT_CONDITIONS", "64")
	lim, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, 64, lim.MaxEventConditions)
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoadRejectsNonPositiveLimits(t *testing.T) {
	t.Setenv("UMSCRIPT_MAX_TRIGGERS", "0")
	_, err := config.Load("")
	require.Error(t, err)
}

func TestLowerLimitsProjection(t *testing.T) {
	lim := config.Limits{MaxEventConditions: 5, MaxCUWPSlots: 6, MaxTriggers: 7}
	ll := lim.LowerLimits()
	require.Equal(t, 5, ll.MaxEventConditions)
	require.Equal(t, 6, ll.MaxCUWPSlots)
}
