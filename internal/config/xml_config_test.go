package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_CreatesDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "CerebroScan.config")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	_, err = os.Stat(path)
	assert.NoError(t, err, "default config should be written")
	assert.Equal(t, 8089, cfg.Server.Port)
	assert.Equal(t, "images", cfg.Inference.FieldName)
	assert.Equal(t, filepath.Join(dir, "data"), cfg.Storage.DataDirectory)
	assert.Equal(t, filepath.Join(dir, "data", "results.duckdb"), cfg.Storage.ArchivePath)
}

func TestLoadConfig_ReadsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "CerebroScan.config")
	content := `<?xml version="1.0" encoding="UTF-8"?>
<CerebroScan>
  <Server><Port>9100</Port><BindAddress>127.0.0.1</BindAddress></Server>
  <Inference><Endpoint>http://classifier:5000</Endpoint><TimeoutSeconds>5</TimeoutSeconds></Inference>
  <Storage><DataDirectory>/var/lib/cerebroscan</DataDirectory></Storage>
  <Security><AllowedFileTypes>PNG, .jpg</AllowedFileTypes></Security>
</CerebroScan>`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9100", cfg.GetServerAddr())
	assert.Equal(t, "http://classifier:5000", cfg.Inference.Endpoint)
	assert.Equal(t, 5*time.Second, cfg.InferenceTimeout())
	assert.Equal(t, "/var/lib/cerebroscan", cfg.Storage.DataDirectory)
	assert.Equal(t, []string{".png", ".jpg"}, cfg.AllowedExtensions())
	// Unset elements keep their defaults
	assert.Equal(t, "images", cfg.Inference.FieldName)
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PORT", "7000")
	t.Setenv("DATA_DIR", "/srv/data")
	t.Setenv("INFERENCE_URL", "http://gpu-box:5000")

	cfg, err := LoadConfig(filepath.Join(dir, "CerebroScan.config"))
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, "/srv/data", cfg.Storage.DataDirectory)
	assert.Equal(t, "/srv/data/exports", cfg.Storage.ExportsDirectory)
	assert.Equal(t, "http://gpu-box:5000", cfg.Inference.Endpoint)
}

func TestLoadConfig_InvalidXML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "CerebroScan.config")
	require.NoError(t, os.WriteFile(path, []byte("<CerebroScan><Server>"), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestEnsureDirectories(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "CerebroScan.config"))
	require.NoError(t, err)
	require.NoError(t, cfg.EnsureDirectories())

	info, err := os.Stat(cfg.Storage.ExportsDirectory)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
