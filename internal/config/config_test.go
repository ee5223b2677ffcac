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
	chdir(t, t.TempDir())
	t.Setenv("CONFIG_PATH", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, "codescan.db", cfg.Database.Path)
	assert.Equal(t, 512, cfg.Generator.QRSize)
	assert.Equal(t, 600, cfg.Generator.BarcodeWidth)
	assert.Equal(t, 200, cfg.Generator.BarcodeHeight)
	assert.Equal(t, 5*time.Second, cfg.Scan.SaveTimeout)
	assert.Equal(t, 4096*4096, cfg.Scan.MaxFramePixels)
	assert.Equal(t, "", cfg.Auth.JWTSecret)
	assert.Equal(t, ":9090", cfg.Server.Addr())
}

func TestLoad_EnvFileDoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("SERVER_PORT", "8181")
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("SERVER_PORT=7070\nLOG_LEVEL=debug\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("LOG_LEVEL") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8181, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_YAML(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  port: 9191
database:
  type: postgres
  host: db
generator:
  qr_size: 256
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	t.Setenv("CONFIG_PATH", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Type)
	assert.Equal(t, "db", cfg.Database.Host)
	assert.Equal(t, 256, cfg.Generator.QRSize)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Server:    ServerConfig{Port: 9090},
			Database:  DatabaseConfig{Type: "SQLite"},
			Generator: GeneratorConfig{QRSize: 512, BarcodeWidth: 600, BarcodeHeight: 200, MaxDimension: 4096},
			Cache:     CacheConfig{Size: 10},
			Log:       LogConfig{Format: "json"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"bad db type", func(c *Config) { c.Database.Type = "oracle" }, true},
		{"short secret", func(c *Config) { c.Auth.JWTSecret = "short" }, true},
		{"long secret", func(c *Config) { c.Auth.JWTSecret = "0123456789abcdef0123456789abcdef" }, false},
		{"zero port", func(c *Config) { c.Server.Port = 0 }, true},
		{"max below default", func(c *Config) { c.Generator.MaxDimension = 100 }, true},
		{"s3 without keys", func(c *Config) { c.Export.S3Endpoint = "minio:9000" }, true},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}
