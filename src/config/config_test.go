package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// -----------------------------------------------------------------------------

func TestNewConfigOverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
name: "observer-test"
port: 9000
feed:
  update_interval_seconds: 30
`)

	cfg, err := NewConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "observer-test", cfg.Name)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, 30, cfg.Feed.UpdateIntervalSeconds)

	// Everything else keeps its default
	assert.Equal(t, "sqlite", cfg.Storage.DBType)
	assert.Equal(t, 30, cfg.Storage.RetentionDays)
	assert.Equal(t, 400, cfg.Persistence.DebounceMillis)
	assert.True(t, cfg.RuleDefault.SectorFilter.IsAll())
}

// -----------------------------------------------------------------------------

func TestNewConfigMissingFile(t *testing.T) {
	_, err := NewConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

// -----------------------------------------------------------------------------

func TestNewConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad port", "port: 80\n"},
		{"unknown db type", "storage:\n  db_type: oracle\n"},
		{"postgres without dsn", "storage:\n  db_type: postgres\n"},
		{"zero retention", "storage:\n  retention_days: 0\n"},
		{"zero interval", "feed:\n  update_interval_seconds: 0\n"},
		{"zero rps", "network:\n  requests_per_second: 0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewConfig(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

// -----------------------------------------------------------------------------

func TestConfigRuleDefaultsFromYAML(t *testing.T) {
	path := writeConfig(t, `
rule_defaults:
  up:
    percent_threshold: 3
  movers_enabled: true
  hilo_enabled: false
  personal_enabled: true
  sector_filter: ["materials", "energy"]
  badge_scope: "custom"
  show_badge: true
`)

	cfg, err := NewConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 3.0, cfg.RuleDefault.Up.PercentThreshold)
	assert.False(t, cfg.RuleDefault.HiloEnabled)
	assert.Equal(t, []string{"MATERIALS", "ENERGY"}, cfg.RuleDefault.SectorFilter.Sectors())
	assert.Equal(t, "custom", cfg.RuleDefault.BadgeScope)
}

// -----------------------------------------------------------------------------

func TestConfigSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	original := writeConfig(t, "name: \"roundtrip\"\n")

	cfg, err := NewConfig(original)
	require.NoError(t, err)

	saved := filepath.Join(dir, "saved.yaml")
	require.NoError(t, cfg.Save(saved))

	back, err := NewConfig(saved)
	require.NoError(t, err)
	assert.Equal(t, cfg.MConfig, back.MConfig)
}
