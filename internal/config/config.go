package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/GonzoDMX/rag-anywhere/internal/errs"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config holds every configuration key spec.md §6 enumerates.
type Config struct {
	ChatModelPath       string            `mapstructure:"chat_model_path" yaml:"chat_model_path"`
	EmbeddingsModelPath string            `mapstructure:"embeddings_model_path" yaml:"embeddings_model_path"`
	CorpusDir           string            `mapstructure:"corpus_dir" yaml:"corpus_dir"`
	StoreConnString     string            `mapstructure:"store_conn_string" yaml:"store_conn_string"`
	EmbeddingDimension  int               `mapstructure:"embedding_dimension" yaml:"embedding_dimension"`
	Chunking            ChunkingConfig    `mapstructure:"chunking" yaml:"chunking"`
	Concurrency         ConcurrencyConfig `mapstructure:"concurrency" yaml:"concurrency"`
	Retrieval           RetrievalConfig   `mapstructure:"retrieval" yaml:"retrieval"`
	Chat                ChatConfig        `mapstructure:"chat" yaml:"chat"`
}

// ChunkingConfig bounds the chunker's window size and overlap.
type ChunkingConfig struct {
	MaxChunkSize int `mapstructure:"max_chunk_size" yaml:"max_chunk_size"`
	Overlap      int `mapstructure:"overlap" yaml:"overlap"`
}

// ConcurrencyConfig bounds every worker pool and context pool in the
// system, per spec.md §5.
type ConcurrencyConfig struct {
	IngestThreads int `mapstructure:"ingest_threads" yaml:"ingest_threads"`
	EmbedThreads  int `mapstructure:"embed_threads" yaml:"embed_threads"`
	ChatMinCtx    int `mapstructure:"chat_min_ctx" yaml:"chat_min_ctx"`
	ChatMaxCtx    int `mapstructure:"chat_max_ctx" yaml:"chat_max_ctx"`
	EmbedMinCtx   int `mapstructure:"embed_min_ctx" yaml:"embed_min_ctx"`
	EmbedMaxCtx   int `mapstructure:"embed_max_ctx" yaml:"embed_max_ctx"`
	StoreConnPool int `mapstructure:"store_conn_pool" yaml:"store_conn_pool"`
}

// RetrievalConfig bounds queryRag's context window.
type RetrievalConfig struct {
	KTop int `mapstructure:"k_top" yaml:"k_top"`
}

// ChatConfig bounds prompt assembly and generation.
type ChatConfig struct {
	SystemPrompt        string `mapstructure:"system_prompt" yaml:"system_prompt"`
	MaxGenerationTokens int    `mapstructure:"max_generation_tokens" yaml:"max_generation_tokens"`
}

// Defaults mirrors spec.md's named constants wherever it gives one, and
// otherwise picks values consistent with CurrentDefaults.Processing.
var Defaults = Config{
	CorpusDir:          "./corpus",
	StoreConnString:    "./corpus/rag-anywhere.db",
	EmbeddingDimension: CurrentDefaults.EmbeddingModel.Dimension,
	Chunking: ChunkingConfig{
		MaxChunkSize: CurrentDefaults.Processing.ChunkSize,
		Overlap:      CurrentDefaults.Processing.ChunkOverlap,
	},
	Concurrency: ConcurrencyConfig{
		IngestThreads: 4,
		EmbedThreads:  8,
		ChatMinCtx:    1,
		ChatMaxCtx:    2,
		EmbedMinCtx:   4,
		EmbedMaxCtx:   32,
		StoreConnPool: 6,
	},
	Retrieval: RetrievalConfig{KTop: 5},
	Chat: ChatConfig{
		SystemPrompt:        "You are a helpful assistant. Answer the user's question using only the provided context. If the context does not contain the answer, say so.",
		MaxGenerationTokens: 512,
	},
}

// Load resolves configuration by layering, in increasing priority: the
// Defaults above, an optional YAML file (explicit path, or discovered
// from the usual search locations when path is empty), and
// RAGANYWHERE_-prefixed environment variables. Grounded on the teacher's
// envisioned viper wiring pattern in
// mohammad-safakhou-newser/config/config.go, with the config file format
// switched from that repo's JSON to the YAML turkprogrammer-RAG's
// LoadConfig reads, since spec.md's enumerated keys are nested maps more
// naturally expressed in YAML.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("rag-anywhere")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".rag-anywhere"))
		}
		exe, err := os.Executable()
		if err == nil {
			v.AddConfigPath(filepath.Dir(exe))
		}
	}

	v.SetEnvPrefix("RAGANYWHERE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && path != "" {
			return nil, errs.Wrap(errs.ConfigError, fmt.Sprintf("read config file %q", path), err)
		}
		// No file found at the default search locations: defaults + env
		// vars alone are a valid configuration.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errs.Wrap(errs.ConfigError, "unmarshal configuration", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFile reads cfg directly from a YAML file with no layering, for
// callers (tests, one-off tools) that want an explicit file without
// viper's environment/search-path machinery. Grounded on
// turkprogrammer-RAG/src/infrastructure/ai/client.go's LoadConfig.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(errs.IoError, "read config file", err)
	}

	cfg := Defaults
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errs.Wrap(errs.ConfigError, "parse config YAML", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("corpus_dir", Defaults.CorpusDir)
	v.SetDefault("store_conn_string", Defaults.StoreConnString)
	v.SetDefault("embedding_dimension", Defaults.EmbeddingDimension)
	v.SetDefault("chunking.max_chunk_size", Defaults.Chunking.MaxChunkSize)
	v.SetDefault("chunking.overlap", Defaults.Chunking.Overlap)
	v.SetDefault("concurrency.ingest_threads", Defaults.Concurrency.IngestThreads)
	v.SetDefault("concurrency.embed_threads", Defaults.Concurrency.EmbedThreads)
	v.SetDefault("concurrency.chat_min_ctx", Defaults.Concurrency.ChatMinCtx)
	v.SetDefault("concurrency.chat_max_ctx", Defaults.Concurrency.ChatMaxCtx)
	v.SetDefault("concurrency.embed_min_ctx", Defaults.Concurrency.EmbedMinCtx)
	v.SetDefault("concurrency.embed_max_ctx", Defaults.Concurrency.EmbedMaxCtx)
	v.SetDefault("concurrency.store_conn_pool", Defaults.Concurrency.StoreConnPool)
	v.SetDefault("retrieval.k_top", Defaults.Retrieval.KTop)
	v.SetDefault("chat.system_prompt", Defaults.Chat.SystemPrompt)
	v.SetDefault("chat.max_generation_tokens", Defaults.Chat.MaxGenerationTokens)
}

// Validate checks the fields init() cannot proceed without. chat_model_path
// and embeddings_model_path are required since nothing downstream can
// substitute for a missing inference artifact.
func (c Config) Validate() error {
	if strings.TrimSpace(c.ChatModelPath) == "" {
		return errs.New(errs.ConfigError, "chat_model_path is required")
	}
	if strings.TrimSpace(c.EmbeddingsModelPath) == "" {
		return errs.New(errs.ConfigError, "embeddings_model_path is required")
	}
	if c.EmbeddingDimension <= 0 {
		return errs.New(errs.ConfigError, "embedding_dimension must be > 0")
	}
	if strings.TrimSpace(c.StoreConnString) == "" {
		return errs.New(errs.ConfigError, "store_conn_string is required")
	}
	return nil
}
