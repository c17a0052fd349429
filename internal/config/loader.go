// Package config provides configuration loading, defaults, and validation
// for the kbutil toolkit.
package config

import (
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix used by all toolkit settings.
const envPrefix = "KBUTIL"

// configKeys lists every settable key. Viper only surfaces environment
// variables during Unmarshal for keys it has been told about, so each key is
// bound explicitly.
var configKeys = []string{
	"logging.level", "logging.format", "logging.output_paths",
	"biochem.compounds_path", "biochem.reactions_path", "biochem.template_path",
	"biochem.max_iterations", "biochem.remove_periplasm", "biochem.organism_indices",
	"database.host", "database.port", "database.user", "database.password",
	"database.db_name", "database.ssl_mode", "database.max_conns",
	"database.min_conns", "database.conn_max_lifetime", "database.migration_path",
	"redis.addr", "redis.password", "redis.db", "redis.pool_size",
	"redis.dial_timeout", "redis.read_timeout", "redis.write_timeout",
	"redis.default_ttl", "redis.key_prefix",
	"neo4j.uri", "neo4j.user", "neo4j.password", "neo4j.database",
	"neo4j.max_connection_pool_size", "neo4j.connection_timeout",
	"minio.endpoint", "minio.access_key", "minio.secret_key", "minio.use_ssl",
	"minio.bucket",
	"milvus.addr", "milvus.collection", "milvus.embedding_dim", "milvus.default_top_k",
	"server.port", "server.mode", "server.read_timeout", "server.write_timeout",
	"server.shutdown_timeout",
	"bvbrc.base_url", "bvbrc.timeout", "bvbrc.max_retries", "bvbrc.token",
	"uniprot.base_url", "uniprot.timeout", "uniprot.max_retries", "uniprot.token",
	"workspace.base_url", "workspace.timeout", "workspace.max_retries", "workspace.token",
	"llm.backend", "llm.argo_url", "llm.argo_key", "llm.model", "llm.timeout",
	"llm.claude_binary",
	"tools.blast_bin", "tools.mmseqs_bin", "tools.skani_bin", "tools.threads",
	"tools.work_dir",
}

// newViper builds a pre-configured Viper instance: YAML file type, KBUTIL_
// env prefix, env binding for every known key, and a key replacer that maps
// "." to "_" so nested keys like "redis.addr" resolve to "KBUTIL_REDIS_ADDR".
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range configKeys {
		_ = v.BindEnv(key)
	}
	return v
}

// Load reads the YAML file at configPath, merges any KBUTIL_* environment
// variable overrides, applies defaults for unset fields, and validates the
// result.
func Load(configPath string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: failed to read config file %q: %w", configPath, err)
	}
	return unmarshalAndFinalize(v)
}

// LoadFromEnv builds a Config entirely from KBUTIL_* environment variables,
// with no config file required. This is the preferred loading strategy for
// containerised deployments.
func LoadFromEnv() (*Config, error) {
	return unmarshalAndFinalize(newViper())
}

func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal configuration: %w", err)
	}

	ApplyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}
	return cfg, nil
}

// Watch monitors configPath for changes and invokes onChange with the newly
// parsed Config whenever the file is modified on disk. Intended for
// hot-reloading non-critical settings such as log level; callers apply only
// the safe subset of changes at runtime.
//
// Watch is non-blocking; the watcher goroutine is managed by viper. A change
// that fails to parse or validate is dropped without invoking onChange.
func Watch(configPath string, onChange func(*Config)) {
	v := newViper()
	v.SetConfigFile(configPath)

	// Initial read. Errors are ignored here; callers should Load first.
	_ = v.ReadInConfig()

	v.WatchConfig()
	v.OnConfigChange(func(_ fsnotify.Event) {
		cfg, err := unmarshalAndFinalize(v)
		if err != nil {
			return
		}
		onChange(cfg)
	})
}

// MustLoad wraps Load and panics on any error, for use in main() where a
// config-load failure is always fatal.
func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("config: MustLoad failed: %v", err))
	}
	return cfg
}
