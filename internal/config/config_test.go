package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnvDefaults(t *testing.T) {
	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 10, cfg.Biochem.MaxIterations)
	assert.Equal(t, "1", cfg.Biochem.OrganismIndices["ANME"])
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "bolt://localhost:7687", cfg.Neo4j.URI)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "https://www.bv-brc.org/api", cfg.BVBRC.BaseURL)
	assert.Equal(t, "argo", cfg.LLM.Backend)
	assert.Equal(t, 4, cfg.Tools.Threads)
}

func TestLoadFromEnvOverride(t *testing.T) {
	t.Setenv("KBUTIL_LOGGING_LEVEL", "debug")
	t.Setenv("KBUTIL_REDIS_ADDR", "cache:6379")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kbutil.yaml")
	content := []byte(`
logging:
  level: warn
  format: json
biochem:
  compounds_path: /data/compounds.json
  remove_periplasm: true
server:
  port: 9090
`)
	require.NoError(t, os.WriteFile(path, content, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "/data/compounds.json", cfg.Biochem.CompoundsPath)
	assert.True(t, cfg.Biochem.RemovePeriplasm)
	assert.Equal(t, 9090, cfg.Server.Port)
	// Unset sections still get defaults.
	assert.Equal(t, 10, cfg.Biochem.MaxIterations)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
		{"zero iterations", func(c *Config) { c.Biochem.MaxIterations = 0 }},
		{"bad server port", func(c *Config) { c.Server.Port = 70000 }},
		{"bad server mode", func(c *Config) { c.Server.Mode = "prod" }},
		{"conns inverted", func(c *Config) { c.Database.MaxConns = 1; c.Database.MinConns = 5 }},
		{"bad llm backend", func(c *Config) { c.LLM.Backend = "bard" }},
		{"zero threads", func(c *Config) { c.Tools.Threads = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			ApplyDefaults(cfg)
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
