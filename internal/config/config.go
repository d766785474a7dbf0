/*-------------------------------------------------------------------------
 *
 * pgEdge Text-to-SQL Agent
 *
 * Portions copyright (c) 2025, pgEdge, Inc.
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

// Package config loads agent configuration with the priority order
// defaults, config file, environment variables, command line flags.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Retrieval bounds. Fewer than 3 chunks starves the prompt of context,
// more than 15 drowns the question in schema noise.
const (
	MinTopK = 3
	MaxTopK = 15
)

// Config represents the complete agent configuration
type Config struct {
	// Vector database holding the schema chunk index (pgvector instance)
	VectorDatabase DatabaseConfig `yaml:"vector_database"`

	// Target database that generated queries run against
	TargetDatabase DatabaseConfig `yaml:"target_database"`

	// Vector store backend selection
	VectorStore VectorStoreConfig `yaml:"vector_store"`

	// Embedding provider configuration
	Embedding EmbeddingConfig `yaml:"embedding"`

	// Generation backend configuration
	LLM LLMConfig `yaml:"llm"`

	// Retrieval configuration
	Retrieval RetrievalConfig `yaml:"retrieval"`

	// Path to a JSON schema description used for file-based ingestion
	SchemaFile string `yaml:"schema_file"`
}

// DatabaseConfig holds PostgreSQL connection settings
type DatabaseConfig struct {
	Host     string `yaml:"host"`     // Database host (default: localhost)
	Port     int    `yaml:"port"`     // Database port (default: 5432)
	Database string `yaml:"database"` // Database name
	User     string `yaml:"user"`     // Database user
	Password string `yaml:"password"` // Database password (discouraged, prefer env var)
	SSLMode  string `yaml:"sslmode"`  // SSL mode (default: prefer)
}

// BuildConnectionString assembles a postgres:// URL from the settings
func (d DatabaseConfig) BuildConnectionString() string {
	host := d.Host
	if host == "" {
		host = "localhost"
	}
	port := d.Port
	if port == 0 {
		port = 5432
	}

	u := url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", host, port),
		Path:   "/" + d.Database,
	}
	if d.User != "" {
		if d.Password != "" {
			u.User = url.UserPassword(d.User, d.Password)
		} else {
			u.User = url.User(d.User)
		}
	}
	if d.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", d.SSLMode)
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// VectorStoreConfig selects the index backend
type VectorStoreConfig struct {
	Backend    string `yaml:"backend"`     // "postgres" (default) or "sqlite"
	SQLitePath string `yaml:"sqlite_path"` // Path for the sqlite backend (default: ./schema_index.db)
	Dimensions int    `yaml:"dimensions"`  // Embedding width of the index (default: 384)
}

// EmbeddingConfig holds embedding provider settings
type EmbeddingConfig struct {
	Provider         string `yaml:"provider"`            // "ollama" (default) or "openai"
	Model            string `yaml:"model"`               // Provider-specific model name
	OllamaURL        string `yaml:"ollama_url"`          // URL for Ollama service (default: http://localhost:11434)
	OpenAIAPIKey     string `yaml:"openai_api_key"`      // API key for OpenAI (discouraged, use api_key_file or env var)
	OpenAIAPIKeyFile string `yaml:"openai_api_key_file"` // Path to file containing OpenAI API key
}

// LLMConfig holds generation backend settings
type LLMConfig struct {
	Provider       string `yaml:"provider"`         // "ollama" (default), "groq" or "huggingface"
	Model          string `yaml:"model"`            // Provider-specific model name
	OllamaURL      string `yaml:"ollama_url"`       // URL for Ollama service (default: http://localhost:11434)
	GroqAPIKey     string `yaml:"groq_api_key"`     // API key for Groq (discouraged, use api_key_file or env var)
	GroqAPIKeyFile string `yaml:"groq_api_key_file"` // Path to file containing Groq API key
	GroqBaseURL    string `yaml:"groq_base_url"`    // Groq endpoint override
	HFAPIKey       string `yaml:"hf_api_key"`       // API key for Hugging Face (discouraged, use api_key_file or env var)
	HFAPIKeyFile   string `yaml:"hf_api_key_file"`  // Path to file containing Hugging Face API key
}

// RetrievalConfig holds retrieval settings
type RetrievalConfig struct {
	TopK int `yaml:"top_k"` // Schema chunks retrieved per question (default: 5, bounds 3..15)
}

// CLIFlags represents command line flag values and whether they were
// explicitly set
type CLIFlags struct {
	ConfigFile    string
	ConfigFileSet bool

	SchemaFile    string
	SchemaFileSet bool

	TopK    int
	TopKSet bool

	LLMProvider    string
	LLMProviderSet bool

	StoreBackend    string
	StoreBackendSet bool
}

// LoadConfig loads configuration with proper priority:
// 1. Command line flags (highest priority)
// 2. Environment variables
// 3. Configuration file
// 4. Hard-coded defaults (lowest priority)
func LoadConfig(configPath string, cliFlags CLIFlags) (*Config, error) {
	cfg := defaultConfig()

	if configPath != "" {
		fileCfg, err := loadConfigFile(configPath)
		if err != nil {
			// An explicitly named file must load; the default path may be
			// absent
			if cliFlags.ConfigFileSet {
				return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
			}
		} else {
			mergeConfig(cfg, fileCfg)
		}
	}

	applyEnvironmentVariables(cfg)
	applyCLIFlags(cfg, cliFlags)

	if err := resolveAPIKeyFiles(cfg); err != nil {
		return nil, err
	}

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns configuration with hard-coded defaults
func defaultConfig() *Config {
	return &Config{
		VectorDatabase: DatabaseConfig{
			Host:     "localhost",
			Port:     5433, // pgvector-enabled instance, separate from the target
			Database: "vectordb",
			SSLMode:  "prefer",
		},
		TargetDatabase: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			Database: "postgres",
			SSLMode:  "prefer",
		},
		VectorStore: VectorStoreConfig{
			Backend:    "postgres",
			SQLitePath: "./schema_index.db",
			Dimensions: 384, // all-minilm width
		},
		Embedding: EmbeddingConfig{
			Provider:  "ollama",
			Model:     "all-minilm",
			OllamaURL: "http://localhost:11434",
		},
		LLM: LLMConfig{
			Provider:  "ollama",
			Model:     "sqlcoder",
			OllamaURL: "http://localhost:11434",
		},
		Retrieval: RetrievalConfig{
			TopK: 5,
		},
		SchemaFile: "",
	}
}

// loadConfigFile loads configuration from a YAML file
func loadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	return &cfg, nil
}

// mergeConfig merges source config into dest, only overriding non-zero
// values
func mergeConfig(dest, src *Config) {
	mergeDatabase(&dest.VectorDatabase, &src.VectorDatabase)
	mergeDatabase(&dest.TargetDatabase, &src.TargetDatabase)

	if src.VectorStore.Backend != "" {
		dest.VectorStore.Backend = src.VectorStore.Backend
	}
	if src.VectorStore.SQLitePath != "" {
		dest.VectorStore.SQLitePath = src.VectorStore.SQLitePath
	}
	if src.VectorStore.Dimensions != 0 {
		dest.VectorStore.Dimensions = src.VectorStore.Dimensions
	}

	if src.Embedding.Provider != "" {
		dest.Embedding.Provider = src.Embedding.Provider
	}
	if src.Embedding.Model != "" {
		dest.Embedding.Model = src.Embedding.Model
	}
	if src.Embedding.OllamaURL != "" {
		dest.Embedding.OllamaURL = src.Embedding.OllamaURL
	}
	if src.Embedding.OpenAIAPIKey != "" {
		dest.Embedding.OpenAIAPIKey = src.Embedding.OpenAIAPIKey
	}
	if src.Embedding.OpenAIAPIKeyFile != "" {
		dest.Embedding.OpenAIAPIKeyFile = src.Embedding.OpenAIAPIKeyFile
	}

	if src.LLM.Provider != "" {
		dest.LLM.Provider = src.LLM.Provider
	}
	if src.LLM.Model != "" {
		dest.LLM.Model = src.LLM.Model
	}
	if src.LLM.OllamaURL != "" {
		dest.LLM.OllamaURL = src.LLM.OllamaURL
	}
	if src.LLM.GroqAPIKey != "" {
		dest.LLM.GroqAPIKey = src.LLM.GroqAPIKey
	}
	if src.LLM.GroqAPIKeyFile != "" {
		dest.LLM.GroqAPIKeyFile = src.LLM.GroqAPIKeyFile
	}
	if src.LLM.GroqBaseURL != "" {
		dest.LLM.GroqBaseURL = src.LLM.GroqBaseURL
	}
	if src.LLM.HFAPIKey != "" {
		dest.LLM.HFAPIKey = src.LLM.HFAPIKey
	}
	if src.LLM.HFAPIKeyFile != "" {
		dest.LLM.HFAPIKeyFile = src.LLM.HFAPIKeyFile
	}

	if src.Retrieval.TopK != 0 {
		dest.Retrieval.TopK = src.Retrieval.TopK
	}

	if src.SchemaFile != "" {
		dest.SchemaFile = src.SchemaFile
	}
}

func mergeDatabase(dest, src *DatabaseConfig) {
	if src.Host != "" {
		dest.Host = src.Host
	}
	if src.Port != 0 {
		dest.Port = src.Port
	}
	if src.Database != "" {
		dest.Database = src.Database
	}
	if src.User != "" {
		dest.User = src.User
	}
	if src.Password != "" {
		dest.Password = src.Password
	}
	if src.SSLMode != "" {
		dest.SSLMode = src.SSLMode
	}
}

// applyEnvironmentVariables overrides config values from the environment
func applyEnvironmentVariables(cfg *Config) {
	applyDatabaseEnv(&cfg.VectorDatabase, "PGEDGE_TEXT2SQL_VECTOR_DB")
	applyDatabaseEnv(&cfg.TargetDatabase, "PGEDGE_TEXT2SQL_TARGET_DB")

	setStringFromEnv(&cfg.VectorStore.Backend, "PGEDGE_TEXT2SQL_STORE_BACKEND")
	setStringFromEnv(&cfg.VectorStore.SQLitePath, "PGEDGE_TEXT2SQL_SQLITE_PATH")
	setIntFromEnv(&cfg.VectorStore.Dimensions, "PGEDGE_TEXT2SQL_DIMENSIONS")

	setStringFromEnv(&cfg.Embedding.Provider, "PGEDGE_TEXT2SQL_EMBEDDING_PROVIDER")
	setStringFromEnv(&cfg.Embedding.Model, "PGEDGE_TEXT2SQL_EMBEDDING_MODEL")
	setStringFromEnvWithFallback(&cfg.Embedding.OllamaURL, "PGEDGE_TEXT2SQL_OLLAMA_URL", "OLLAMA_BASE_URL")
	setStringFromEnvWithFallback(&cfg.Embedding.OpenAIAPIKey, "PGEDGE_TEXT2SQL_OPENAI_API_KEY", "OPENAI_API_KEY")

	setStringFromEnvWithFallback(&cfg.LLM.Provider, "PGEDGE_TEXT2SQL_LLM_PROVIDER", "LLM_PROVIDER")
	setStringFromEnvWithFallback(&cfg.LLM.Model, "PGEDGE_TEXT2SQL_LLM_MODEL", "OLLAMA_MODEL")
	setStringFromEnvWithFallback(&cfg.LLM.OllamaURL, "PGEDGE_TEXT2SQL_OLLAMA_URL", "OLLAMA_BASE_URL")
	setStringFromEnvWithFallback(&cfg.LLM.GroqAPIKey, "PGEDGE_TEXT2SQL_GROQ_API_KEY", "GROQ_API_KEY")
	setStringFromEnvWithFallback(&cfg.LLM.GroqBaseURL, "PGEDGE_TEXT2SQL_GROQ_BASE_URL", "GROQ_BASE_URL")
	setStringFromEnvWithFallback(&cfg.LLM.HFAPIKey, "PGEDGE_TEXT2SQL_HF_API_KEY", "HF_API_KEY")

	setIntFromEnv(&cfg.Retrieval.TopK, "PGEDGE_TEXT2SQL_TOP_K")
	setStringFromEnv(&cfg.SchemaFile, "PGEDGE_TEXT2SQL_SCHEMA_FILE")
}

func applyDatabaseEnv(db *DatabaseConfig, prefix string) {
	setStringFromEnv(&db.Host, prefix+"_HOST")
	setIntFromEnv(&db.Port, prefix+"_PORT")
	setStringFromEnv(&db.Database, prefix+"_NAME")
	setStringFromEnv(&db.User, prefix+"_USER")
	setStringFromEnv(&db.Password, prefix+"_PASSWORD")
	setStringFromEnv(&db.SSLMode, prefix+"_SSLMODE")
}

// applyCLIFlags overrides config values from explicitly set flags
func applyCLIFlags(cfg *Config, flags CLIFlags) {
	if flags.SchemaFileSet {
		cfg.SchemaFile = flags.SchemaFile
	}
	if flags.TopKSet {
		cfg.Retrieval.TopK = flags.TopK
	}
	if flags.LLMProviderSet {
		cfg.LLM.Provider = flags.LLMProvider
	}
	if flags.StoreBackendSet {
		cfg.VectorStore.Backend = flags.StoreBackend
	}
}

// resolveAPIKeyFiles loads api_key_file contents into the corresponding
// api_key fields. A directly configured key wins over the file.
func resolveAPIKeyFiles(cfg *Config) error {
	pairs := []struct {
		key  *string
		file string
		name string
	}{
		{&cfg.Embedding.OpenAIAPIKey, cfg.Embedding.OpenAIAPIKeyFile, "openai"},
		{&cfg.LLM.GroqAPIKey, cfg.LLM.GroqAPIKeyFile, "groq"},
		{&cfg.LLM.HFAPIKey, cfg.LLM.HFAPIKeyFile, "hugging face"},
	}

	for _, p := range pairs {
		if *p.key != "" || p.file == "" {
			continue
		}
		data, err := os.ReadFile(p.file)
		if err != nil {
			return fmt.Errorf("failed to read %s api key file %s: %w", p.name, p.file, err)
		}
		*p.key = strings.TrimSpace(string(data))
	}
	return nil
}

// validateConfig checks the final merged configuration
func validateConfig(cfg *Config) error {
	switch strings.ToLower(cfg.VectorStore.Backend) {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported vector store backend: %s (supported: postgres, sqlite)", cfg.VectorStore.Backend)
	}

	if cfg.VectorStore.Dimensions <= 0 {
		return fmt.Errorf("vector store dimensions must be positive, got %d", cfg.VectorStore.Dimensions)
	}

	if cfg.Retrieval.TopK < MinTopK || cfg.Retrieval.TopK > MaxTopK {
		return fmt.Errorf("retrieval top_k must be between %d and %d, got %d", MinTopK, MaxTopK, cfg.Retrieval.TopK)
	}

	return nil
}

// setStringFromEnv sets a string config value from an environment
// variable if it exists
func setStringFromEnv(dest *string, key string) {
	if val := os.Getenv(key); val != "" {
		*dest = val
	}
}

// setStringFromEnvWithFallback sets a string config value from an
// environment variable, checking multiple names in priority order
func setStringFromEnvWithFallback(dest *string, keys ...string) {
	for _, key := range keys {
		if val := os.Getenv(key); val != "" {
			*dest = val
			return
		}
	}
}

// setIntFromEnv sets an integer config value from an environment variable
// if it exists and parses
func setIntFromEnv(dest *int, key string) {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			*dest = n
		}
	}
}
