package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SLOT_BACKEND", "")
	t.Setenv("SLOT_KEY", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, BackendBolt, cfg.Slot.Backend)
	assert.Equal(t, DefaultSlotKey, cfg.Slot.Key)
	assert.Equal(t, "gemini-2.5-flash", cfg.Gemini.Model)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
	assert.True(t, cfg.Features.IsEnabled(FeatureAIFeedbackDraft))
	assert.False(t, cfg.Features.IsEnabled(FeatureAdminReset))
	assert.False(t, cfg.Backup.Enabled())
	assert.Equal(t, DefaultSlotKey+"_backup", cfg.Backup.Key)
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("SLOT_OP_TIMEOUT=3s\nGEMINI_MODEL=test-model\n"), 0o600))

	// Registered so the variables godotenv sets are restored afterwards.
	t.Setenv("SLOT_OP_TIMEOUT", "")
	t.Setenv("GEMINI_MODEL", "")
	os.Unsetenv("SLOT_OP_TIMEOUT")
	os.Unsetenv("GEMINI_MODEL")

	cfg, err := Load(path, filepath.Join(dir, "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, 3*time.Second, cfg.Slot.OpTimeout)
	assert.Equal(t, "test-model", cfg.Gemini.Model)
}

func TestValidate_BackendRequirements(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"unknown backend", func(c *Config) { c.Slot.Backend = "s3" }, "SLOT_BACKEND"},
		{"postgres without url", func(c *Config) { c.Slot.Backend = BackendPostgres }, "DATABASE_URL"},
		{"b2 without bucket", func(c *Config) { c.Slot.Backend = BackendB2 }, "B2_BUCKET"},
		{"memory in production", func(c *Config) {
			c.Slot.Backend = BackendMemory
			c.App.Environment = EnvProduction
		}, "not allowed in production"},
		{"empty key", func(c *Config) { c.Slot.Key = "" }, "SLOT_KEY"},
		{"bad port", func(c *Config) { c.HTTP.Port = 0 }, "HTTP_PORT"},
		{"backup to the primary slot", func(c *Config) {
			c.Backup = BackupConfig{Interval: time.Hour, Backend: BackendBolt, Key: DefaultSlotKey, BoltPath: "y.db"}
		}, "BACKUP_KEY"},
		{"backup into the primary bolt file", func(c *Config) {
			c.Backup = BackupConfig{Interval: time.Hour, Backend: BackendBolt, Key: "copy", BoltPath: "x.db"}
		}, "BACKUP_BOLT_PATH"},
		{"b2 backup without credentials", func(c *Config) {
			c.Backup = BackupConfig{Interval: time.Hour, Backend: BackendB2, Key: "copy"}
		}, "b2 backups"},
		{"memory backup", func(c *Config) {
			c.Backup = BackupConfig{Interval: time.Hour, Backend: BackendMemory, Key: "copy"}
		}, "BACKUP_BACKEND"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &Config{
				App:  AppConfig{Environment: EnvDevelopment},
				HTTP: HTTPConfig{Port: 8080},
				Slot: SlotConfig{Backend: BackendBolt, Key: DefaultSlotKey, BoltPath: "x.db"},
			}
			tc.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestFeatureFlags_EnvOverride(t *testing.T) {
	t.Setenv("FEATURE_AI_CLASS_ANALYSIS", "false")
	t.Setenv("FEATURE_ADMIN_RESET", "true")

	ff := LoadFeatureFlags()

	assert.False(t, ff.IsEnabled(FeatureAIClassAnalysis))
	assert.True(t, ff.IsEnabled(FeatureAdminReset))
	assert.True(t, ff.NarrativeEnabled())
	assert.False(t, ff.IsEnabled("unknown.flag"))

	require.NoError(t, ff.Set(FeatureAIFeedbackDraft, false))
	assert.False(t, ff.NarrativeEnabled())
	assert.ErrorIs(t, ff.Set("unknown.flag", true), ErrFeatureNotFound)
	assert.Len(t, ff.Names(), 4)
}

func TestFeatureNameToEnvKey(t *testing.T) {
	assert.Equal(t, "FEATURE_PORTAL_NIS_LOOKUP", featureNameToEnvKey(FeaturePortalNISLookup))
}
