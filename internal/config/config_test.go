package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "hier", cfg.Index.Variant)
	assert.Equal(t, "/var/lib/dnidx", cfg.Index.DataDir)
	assert.Equal(t, 5*time.Minute, cfg.Index.CheckpointInterval)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 10000, cfg.Cache.Size)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestParseConfigOverridesDefaults(t *testing.T) {
	data := []byte(`
directory:
  baseDN: "dc=example,dc=com"
index:
  variant: "flat"
  dataDir: "/data/dnidx"
logging:
  level: "debug"
`)
	cfg, err := ParseConfig(data)
	require.NoError(t, err)

	assert.Equal(t, "dc=example,dc=com", cfg.Directory.BaseDN)
	assert.Equal(t, "flat", cfg.Index.Variant)
	assert.Equal(t, "/data/dnidx", cfg.Index.DataDir)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// untouched fields keep their defaults
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 10000, cfg.Cache.Size)
}

func TestParseConfigSubstitutesEnvVars(t *testing.T) {
	t.Setenv("DNIDX_BASEDN", "dc=corp,dc=net")
	data := []byte(`
directory:
  baseDN: "${DNIDX_BASEDN}"
index:
  variant: "${DNIDX_VARIANT:-hier}"
`)
	cfg, err := ParseConfig(data)
	require.NoError(t, err)

	assert.Equal(t, "dc=corp,dc=net", cfg.Directory.BaseDN)
	assert.Equal(t, "hier", cfg.Index.Variant)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("directory:\n  baseDN: \"dc=example,dc=com\"\n"), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "dc=example,dc=com", cfg.Directory.BaseDN)
}

func TestValidateConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Directory.BaseDN = "dc=example,dc=com"
	assert.Empty(t, ValidateConfig(cfg))

	cfg.Index.Variant = "bogus"
	errs := ValidateConfig(cfg)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "index.variant")
}

func TestConfigManagerReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("directory:\n  baseDN: \"dc=example,dc=com\"\n"), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	mgr := NewConfigManager(cfg, path)

	require.NoError(t, os.WriteFile(path, []byte("directory:\n  baseDN: \"dc=other,dc=com\"\n"), 0644))
	require.NoError(t, mgr.Reload())
	assert.Equal(t, "dc=other,dc=com", mgr.GetConfig().Directory.BaseDN)
}
