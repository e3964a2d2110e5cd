package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setEnv(t *testing.T, key, value string) {
	t.Helper()
	t.Setenv(key, value)
}

func clearFleetEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CAMOFLEET_URL", "CAMOFLEET_HEADLESS", "CAMOFLEET_PROXY",
		"CAMOFLEET_RUN_MODE", "CAMOFLEET_PORT", "CAMOFLEET_COOKIES_DIR",
		"CAMOFLEET_TUNING",
	} {
		// t.Setenv registers restoration of the original value; the unset
		// afterwards makes the variable truly absent for this test.
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadRequiresTargetURL(t *testing.T) {
	clearFleetEnv(t)

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CAMOFLEET_URL")
}

func TestLoadTreatsBlankURLAsAbsent(t *testing.T) {
	clearFleetEnv(t)
	setEnv(t, "CAMOFLEET_URL", "   \t  ")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadDefaults(t *testing.T) {
	clearFleetEnv(t)
	setEnv(t, "CAMOFLEET_URL", "https://example.com/app")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://example.com/app", cfg.TargetURL)
	assert.Equal(t, HeadlessVirtual, cfg.HeadlessMode())
	assert.Equal(t, RunModeStandalone, cfg.RunMode)
	assert.Equal(t, 7860, cfg.Port)
	assert.Equal(t, "cookies", cfg.CookiesDir)
	assert.Empty(t, cfg.Proxy)
}

func TestLoadTrimsValues(t *testing.T) {
	clearFleetEnv(t)
	setEnv(t, "CAMOFLEET_URL", "  https://example.com  ")
	setEnv(t, "CAMOFLEET_PROXY", "  socks5://127.0.0.1:1080 ")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://example.com", cfg.TargetURL)
	assert.Equal(t, "socks5://127.0.0.1:1080", cfg.Proxy)
}

func TestLoadRejectsUnknownRunMode(t *testing.T) {
	clearFleetEnv(t)
	setEnv(t, "CAMOFLEET_URL", "https://example.com")
	setEnv(t, "CAMOFLEET_RUN_MODE", "cluster")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CAMOFLEET_RUN_MODE")
}

func TestParseHeadlessMode(t *testing.T) {
	tests := []struct {
		raw  string
		want HeadlessMode
	}{
		{"true", HeadlessOn},
		{"TRUE", HeadlessOn},
		{"false", HeadlessOff},
		{" False ", HeadlessOff},
		{"virtual", HeadlessVirtual},
		{"", HeadlessVirtual},
		{"anything-else", HeadlessVirtual},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseHeadlessMode(tt.raw), "input %q", tt.raw)
	}
}

func TestCleanValue(t *testing.T) {
	assert.Equal(t, "", CleanValue("   "))
	assert.Equal(t, "x", CleanValue(" x\n"))
	assert.Equal(t, "", CleanValue(""))
}

func TestDefaultTuning(t *testing.T) {
	tuning := DefaultTuning()

	assert.Equal(t, 10*time.Second, tuning.TickInterval.Std())
	assert.Equal(t, 30*time.Second, tuning.DisconnectedGrace.Std())
	assert.Equal(t, 30*time.Second, tuning.LaunchStagger.Std())
	assert.Equal(t, 5*time.Second, tuning.ShutdownGrace.Std())
}

func TestLoadTuningEmptyPathReturnsDefaults(t *testing.T) {
	tuning, err := LoadTuning("")
	require.NoError(t, err)
	assert.Equal(t, DefaultTuning(), tuning)
}

func TestLoadTuningMergesOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tuning.yaml")
	content := "tick_interval: 5s\nlaunch_stagger: 1s\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	tuning, err := LoadTuning(path)
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, tuning.TickInterval.Std())
	assert.Equal(t, time.Second, tuning.LaunchStagger.Std())
	// Untouched fields keep their defaults.
	assert.Equal(t, 30*time.Second, tuning.DisconnectedGrace.Std())
	assert.Equal(t, 5*time.Second, tuning.ShutdownGrace.Std())
}

func TestLoadTuningRejectsBadDuration(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tuning.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tick_interval: soon\n"), 0600))

	_, err := LoadTuning(path)
	require.Error(t, err)
}

func TestLoadTuningMissingFile(t *testing.T) {
	_, err := LoadTuning(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
