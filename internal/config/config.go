// Package config defines all configuration structures for the kbutil
// toolkit. No I/O or parsing logic lives here, only plain data types,
// defaults and validation.
package config

import (
	"fmt"
	"time"
)

// LoggingConfig holds structured-logging tunables.
type LoggingConfig struct {
	Level       string   `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format      string   `mapstructure:"format"` // "json" | "console"
	OutputPaths []string `mapstructure:"output_paths"`
}

// BiochemConfig locates the biochemistry database snapshot and the matching
// knobs applied on top of it.
type BiochemConfig struct {
	CompoundsPath string `mapstructure:"compounds_path"`
	ReactionsPath string `mapstructure:"reactions_path"`
	TemplatePath  string `mapstructure:"template_path"`
	// MaxIterations caps the translation fixed-point loop.
	MaxIterations int `mapstructure:"max_iterations"`
	// RemovePeriplasm merges periplasmic compounds into the extracellular
	// compartment before matching.
	RemovePeriplasm bool `mapstructure:"remove_periplasm"`
	// AnnotateModel writes each metabolite's candidate database IDs into its
	// annotation map under the "ModelSEED" namespace during matching.
	AnnotateModel bool `mapstructure:"annotate_model"`
	// OrganismIndices maps reaction-ID prefixes in community models to the
	// compartment index used when rewriting reaction IDs.
	OrganismIndices map[string]string `mapstructure:"organism_indices"`
}

// DatabaseConfig holds PostgreSQL connection parameters for the curation
// store.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"db_name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxConns        int           `mapstructure:"max_conns"`
	MinConns        int           `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationPath   string        `mapstructure:"migration_path"`
}

// RedisConfig holds Redis connection parameters for the service-response
// cache.
type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	DefaultTTL   time.Duration `mapstructure:"default_ttl"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// Neo4jConfig holds connection parameters for the model-graph store.
type Neo4jConfig struct {
	URI                   string        `mapstructure:"uri"`
	User                  string        `mapstructure:"user"`
	Password              string        `mapstructure:"password"`
	Database              string        `mapstructure:"database"`
	MaxConnectionPoolSize int           `mapstructure:"max_connection_pool_size"`
	ConnectionTimeout     time.Duration `mapstructure:"connection_timeout"`
}

// MinioConfig holds object-storage parameters for model and report blobs.
type MinioConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Bucket    string `mapstructure:"bucket"`
}

// MilvusConfig holds vector-store parameters for protein-embedding search.
type MilvusConfig struct {
	Addr         string `mapstructure:"addr"`
	Collection   string `mapstructure:"collection"`
	EmbeddingDim int    `mapstructure:"embedding_dim"`
	DefaultTopK  int    `mapstructure:"default_top_k"`
}

// ServerConfig holds HTTP report-server tunables.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// ServiceConfig holds endpoints and timeouts for one external HTTP service.
type ServiceConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"max_retries"`
	Token      string        `mapstructure:"token"`
}

// LLMConfig holds parameters for the curation language-model backends.
type LLMConfig struct {
	// Backend selects the chat implementation: "argo" or "claude-cli".
	Backend string        `mapstructure:"backend"`
	ArgoURL string        `mapstructure:"argo_url"`
	ArgoKey string        `mapstructure:"argo_key"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
	// ClaudeBinary is the CLI executable used by the subprocess backend.
	ClaudeBinary string `mapstructure:"claude_binary"`
}

// ToolsConfig holds paths and tunables for external alignment tools.
type ToolsConfig struct {
	BlastBin  string `mapstructure:"blast_bin"`
	MMseqsBin string `mapstructure:"mmseqs_bin"`
	SkaniBin  string `mapstructure:"skani_bin"`
	Threads   int    `mapstructure:"threads"`
	WorkDir   string `mapstructure:"work_dir"`
}

// Config is the root configuration object.
type Config struct {
	Logging   LoggingConfig  `mapstructure:"logging"`
	Biochem   BiochemConfig  `mapstructure:"biochem"`
	Database  DatabaseConfig `mapstructure:"database"`
	Redis     RedisConfig    `mapstructure:"redis"`
	Neo4j     Neo4jConfig    `mapstructure:"neo4j"`
	Minio     MinioConfig    `mapstructure:"minio"`
	Milvus    MilvusConfig   `mapstructure:"milvus"`
	Server    ServerConfig   `mapstructure:"server"`
	BVBRC     ServiceConfig  `mapstructure:"bvbrc"`
	UniProt   ServiceConfig  `mapstructure:"uniprot"`
	Workspace ServiceConfig  `mapstructure:"workspace"`
	LLM       LLMConfig      `mapstructure:"llm"`
	Tools     ToolsConfig    `mapstructure:"tools"`
}

// ApplyDefaults fills every unset field with a sensible default so that a
// minimal config file (or none at all) still yields a working toolkit.
func ApplyDefaults(c *Config) {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	if len(c.Logging.OutputPaths) == 0 {
		c.Logging.OutputPaths = []string{"stderr"}
	}

	if c.Biochem.MaxIterations == 0 {
		c.Biochem.MaxIterations = 10
	}
	if c.Biochem.OrganismIndices == nil {
		c.Biochem.OrganismIndices = map[string]string{"ANME": "1", "SRB": "2"}
	}

	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Database.MaxConns == 0 {
		c.Database.MaxConns = 10
	}
	if c.Database.MinConns == 0 {
		c.Database.MinConns = 2
	}
	if c.Database.ConnMaxLifetime == 0 {
		c.Database.ConnMaxLifetime = time.Hour
	}
	if c.Database.MigrationPath == "" {
		c.Database.MigrationPath = "migrations"
	}

	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.Redis.PoolSize == 0 {
		c.Redis.PoolSize = 10
	}
	if c.Redis.DialTimeout == 0 {
		c.Redis.DialTimeout = 5 * time.Second
	}
	if c.Redis.ReadTimeout == 0 {
		c.Redis.ReadTimeout = 3 * time.Second
	}
	if c.Redis.WriteTimeout == 0 {
		c.Redis.WriteTimeout = 3 * time.Second
	}
	if c.Redis.DefaultTTL == 0 {
		c.Redis.DefaultTTL = 24 * time.Hour
	}
	if c.Redis.KeyPrefix == "" {
		c.Redis.KeyPrefix = "kbutil:"
	}

	if c.Neo4j.URI == "" {
		c.Neo4j.URI = "bolt://localhost:7687"
	}
	if c.Neo4j.Database == "" {
		c.Neo4j.Database = "neo4j"
	}
	if c.Neo4j.MaxConnectionPoolSize == 0 {
		c.Neo4j.MaxConnectionPoolSize = 50
	}
	if c.Neo4j.ConnectionTimeout == 0 {
		c.Neo4j.ConnectionTimeout = 30 * time.Second
	}

	if c.Minio.Bucket == "" {
		c.Minio.Bucket = "kbutil-models"
	}

	if c.Milvus.Collection == "" {
		c.Milvus.Collection = "protein_embeddings"
	}
	if c.Milvus.EmbeddingDim == 0 {
		c.Milvus.EmbeddingDim = 1024
	}
	if c.Milvus.DefaultTopK == 0 {
		c.Milvus.DefaultTopK = 10
	}

	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.Mode == "" {
		c.Server.Mode = "release"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 30 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}

	if c.BVBRC.BaseURL == "" {
		c.BVBRC.BaseURL = "https://www.bv-brc.org/api"
	}
	if c.UniProt.BaseURL == "" {
		c.UniProt.BaseURL = "https://rest.uniprot.org"
	}
	for _, svc := range []*ServiceConfig{&c.BVBRC, &c.UniProt, &c.Workspace} {
		if svc.Timeout == 0 {
			svc.Timeout = 60 * time.Second
		}
		if svc.MaxRetries == 0 {
			svc.MaxRetries = 3
		}
	}

	if c.LLM.Backend == "" {
		c.LLM.Backend = "argo"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "gpt4o"
	}
	if c.LLM.Timeout == 0 {
		c.LLM.Timeout = 2 * time.Minute
	}
	if c.LLM.ClaudeBinary == "" {
		c.LLM.ClaudeBinary = "claude"
	}

	if c.Tools.BlastBin == "" {
		c.Tools.BlastBin = "blastp"
	}
	if c.Tools.MMseqsBin == "" {
		c.Tools.MMseqsBin = "mmseqs"
	}
	if c.Tools.SkaniBin == "" {
		c.Tools.SkaniBin = "skani"
	}
	if c.Tools.Threads == 0 {
		c.Tools.Threads = 4
	}
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: logging.level %q is invalid; expected debug|info|warn|error", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: logging.format %q is invalid; expected json|console", c.Logging.Format)
	}

	if c.Biochem.MaxIterations < 1 {
		return fmt.Errorf("config: biochem.max_iterations must be >= 1, got %d", c.Biochem.MaxIterations)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("config: server.mode %q is invalid; expected debug|release|test", c.Server.Mode)
	}

	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("config: database.port %d is out of range [1, 65535]", c.Database.Port)
	}
	if c.Database.MaxConns < c.Database.MinConns {
		return fmt.Errorf("config: database.max_conns %d is below min_conns %d", c.Database.MaxConns, c.Database.MinConns)
	}

	switch c.LLM.Backend {
	case "argo", "claude-cli":
	default:
		return fmt.Errorf("config: llm.backend %q is invalid; expected argo|claude-cli", c.LLM.Backend)
	}
	if c.Tools.Threads < 1 {
		return fmt.Errorf("config: tools.threads must be >= 1, got %d", c.Tools.Threads)
	}
	return nil
}
