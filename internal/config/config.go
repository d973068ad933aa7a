// Package config loads service settings from the environment, with an
// optional YAML file layered underneath via CONFIG_FILE.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/mkotelnikov/autotech-rag/internal/core/domain"
	"github.com/mkotelnikov/autotech-rag/internal/observability/logging"
)

type Config struct {
	APIPort  string `yaml:"api_port"`
	LogLevel string `yaml:"log_level"`

	QdrantURL    string `yaml:"qdrant_url"`
	QdrantAPIKey string `yaml:"qdrant_api_key"`

	JinaBaseURL    string `yaml:"jina_base_url"`
	JinaAPIKey     string `yaml:"jina_api_key"`
	JinaEmbedModel string `yaml:"jina_embed_model"`
	EmbedDim       int    `yaml:"embed_dim"`

	GroqBaseURL string `yaml:"groq_base_url"`
	GroqAPIKey  string `yaml:"groq_api_key"`
	GroqModel   string `yaml:"groq_model"`

	ManualsPath         string `yaml:"manuals_path"`
	OnlineResourcesPath string `yaml:"online_resources_path"`

	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`

	MemoryTokenBudget int `yaml:"memory_token_budget"`
	MaxAgentSteps     int `yaml:"max_agent_steps"`

	PostgresDSN string `yaml:"postgres_dsn"`

	NATSURL     string `yaml:"nats_url"`
	NATSSubject string `yaml:"nats_subject"`

	WorkerMetricsPort string `yaml:"worker_metrics_port"`
}

// Load reads CONFIG_FILE (when set) and then overlays environment
// variables on top. Environment always wins.
func Load() (Config, error) {
	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, domain.WrapError(domain.ErrConfiguration, "read config file", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, domain.WrapError(domain.ErrConfiguration, "parse config file", err)
		}
	}

	cfg.APIPort = envOr("API_PORT", cfg.APIPort)
	cfg.LogLevel = envOr("LOG_LEVEL", cfg.LogLevel)

	cfg.QdrantURL = envOr("QDRANT_URL", cfg.QdrantURL)
	cfg.QdrantAPIKey = envOr("QDRANT_API_KEY", cfg.QdrantAPIKey)

	cfg.JinaBaseURL = envOr("JINA_BASE_URL", cfg.JinaBaseURL)
	cfg.JinaAPIKey = envOr("JINA_API_KEY", cfg.JinaAPIKey)
	cfg.JinaEmbedModel = envOr("JINA_EMBED_MODEL", cfg.JinaEmbedModel)
	cfg.EmbedDim = envOrInt("EMBED_DIM", cfg.EmbedDim)

	cfg.GroqBaseURL = envOr("GROQ_BASE_URL", cfg.GroqBaseURL)
	cfg.GroqAPIKey = envOr("GROQ_API_KEY", cfg.GroqAPIKey)
	cfg.GroqModel = envOr("GROQ_MODEL", cfg.GroqModel)

	cfg.ManualsPath = envOr("MANUALS_PATH", cfg.ManualsPath)
	cfg.OnlineResourcesPath = envOr("ONLINE_RESOURCES_PATH", cfg.OnlineResourcesPath)

	cfg.ChunkSize = envOrInt("CHUNK_SIZE", cfg.ChunkSize)
	cfg.ChunkOverlap = envOrInt("CHUNK_OVERLAP", cfg.ChunkOverlap)

	cfg.MemoryTokenBudget = envOrInt("MEMORY_TOKEN_BUDGET", cfg.MemoryTokenBudget)
	cfg.MaxAgentSteps = envOrInt("MAX_AGENT_STEPS", cfg.MaxAgentSteps)

	cfg.PostgresDSN = envOr("POSTGRES_DSN", cfg.PostgresDSN)

	cfg.NATSURL = envOr("NATS_URL", cfg.NATSURL)
	cfg.NATSSubject = envOr("NATS_SUBJECT", cfg.NATSSubject)

	cfg.WorkerMetricsPort = envOr("WORKER_METRICS_PORT", cfg.WorkerMetricsPort)

	return cfg, nil
}

func defaults() Config {
	return Config{
		APIPort:  "8080",
		LogLevel: "info",

		QdrantURL: "http://localhost:6333",

		JinaBaseURL:    "https://api.jina.ai/v1",
		JinaEmbedModel: "jina-embeddings-v3",
		EmbedDim:       1024,

		GroqBaseURL: "https://api.groq.com/openai/v1",
		GroqModel:   "llama-3.3-70b-versatile",

		ManualsPath:         "./data/manuals",
		OnlineResourcesPath: "./data/online_resources",

		ChunkSize:    1024,
		ChunkOverlap: 200,

		MemoryTokenBudget: 4096,
		MaxAgentSteps:     8,

		NATSURL:     "nats://localhost:4222",
		NATSSubject: "index.batches",

		WorkerMetricsPort: "9090",
	}
}

// Validate checks the settings without which no provider call can
// succeed.
func (c Config) Validate() error {
	missing := ""
	switch {
	case c.QdrantURL == "":
		missing = "QDRANT_URL"
	case c.JinaAPIKey == "":
		missing = "JINA_API_KEY"
	case c.GroqAPIKey == "":
		missing = "GROQ_API_KEY"
	case c.EmbedDim <= 0:
		missing = "EMBED_DIM"
	}
	if missing != "" {
		return domain.WrapError(domain.ErrConfiguration, "validate config",
			fmt.Errorf("%s is required", missing))
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return domain.WrapError(domain.ErrConfiguration, "validate config", err)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
