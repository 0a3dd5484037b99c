package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Supported language-model providers.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Config holds everything the server and CLI need. It is built once at
// startup and handed to each component explicitly.
type Config struct {
	Port        string `mapstructure:"port"`
	FrontendURL string `mapstructure:"frontend_url"`
	LogLevel    string `mapstructure:"log_level"`
	LogFormat   string `mapstructure:"log_format"`

	Provider      string        `mapstructure:"llm_provider"`
	OpenAIAPIKey  string        `mapstructure:"openai_api_key"`
	OpenAIModel   string        `mapstructure:"openai_model"`
	OpenAIBaseURL string        `mapstructure:"openai_base_url"`
	GeminiAPIKey  string        `mapstructure:"gemini_api_key"`
	GeminiModel   string        `mapstructure:"gemini_model"`
	Temperature   float64       `mapstructure:"llm_temperature"`
	LLMTimeout    time.Duration `mapstructure:"llm_timeout"`
	LLMRateLimit  float64       `mapstructure:"llm_rate_limit"`

	ChunkSize         int           `mapstructure:"chunk_size"`
	ChunkOverlap      int           `mapstructure:"chunk_overlap"`
	MinChunkLength    int           `mapstructure:"min_chunk_length"`
	MaxChunks         int           `mapstructure:"max_chunks"`
	QuestionsPerChunk int           `mapstructure:"questions_per_chunk"`
	MaxQuestions      int           `mapstructure:"max_questions"`
	BatchSize         int           `mapstructure:"batch_size"`
	BatchDelay        time.Duration `mapstructure:"batch_delay"`

	MaxUploadBytes int64  `mapstructure:"max_upload_bytes"`
	TempDir        string `mapstructure:"temp_dir"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Port:              "8080",
		FrontendURL:       "http://localhost:3000",
		LogLevel:          "info",
		LogFormat:         "text",
		Provider:          ProviderOpenAI,
		OpenAIModel:       "gpt-3.5-turbo",
		GeminiModel:       "gemini-2.0-flash",
		Temperature:       0.3,
		LLMTimeout:        60 * time.Second,
		ChunkSize:         2000,
		ChunkOverlap:      200,
		MinChunkLength:    200,
		MaxChunks:         5,
		QuestionsPerChunk: 3,
		MaxQuestions:      30,
		BatchSize:         2,
		BatchDelay:        500 * time.Millisecond,
		MaxUploadBytes:    10 << 20,
		TempDir:           os.TempDir(),
	}
}

// Load reads the optional .env file, the optional YAML file at path and the
// process environment, in increasing order of precedence.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	v := viper.New()
	setDefaults(v, Default())

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if cfg.TempDir == "" {
		cfg.TempDir = os.TempDir()
	}
	return &cfg, nil
}

// setDefaults registers every key so AutomaticEnv can resolve it on Unmarshal.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("port", d.Port)
	v.SetDefault("frontend_url", d.FrontendURL)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)
	v.SetDefault("llm_provider", d.Provider)
	v.SetDefault("openai_api_key", "")
	v.SetDefault("openai_model", d.OpenAIModel)
	v.SetDefault("openai_base_url", "")
	v.SetDefault("gemini_api_key", "")
	v.SetDefault("gemini_model", d.GeminiModel)
	v.SetDefault("llm_temperature", d.Temperature)
	v.SetDefault("llm_timeout", d.LLMTimeout)
	v.SetDefault("llm_rate_limit", d.LLMRateLimit)
	v.SetDefault("chunk_size", d.ChunkSize)
	v.SetDefault("chunk_overlap", d.ChunkOverlap)
	v.SetDefault("min_chunk_length", d.MinChunkLength)
	v.SetDefault("max_chunks", d.MaxChunks)
	v.SetDefault("questions_per_chunk", d.QuestionsPerChunk)
	v.SetDefault("max_questions", d.MaxQuestions)
	v.SetDefault("batch_size", d.BatchSize)
	v.SetDefault("batch_delay", d.BatchDelay)
	v.SetDefault("max_upload_bytes", d.MaxUploadBytes)
	v.SetDefault("temp_dir", d.TempDir)
}

// Validate reports the first setting that would make the pipeline misbehave.
func (c *Config) Validate() error {
	switch {
	case c.ChunkSize <= 0:
		return errors.New("CHUNK_SIZE must be positive")
	case c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize:
		return fmt.Errorf("CHUNK_OVERLAP must be in [0, %d)", c.ChunkSize)
	case c.MinChunkLength < 0:
		return errors.New("MIN_CHUNK_LENGTH must not be negative")
	case c.MaxChunks <= 0:
		return errors.New("MAX_CHUNKS must be positive")
	case c.QuestionsPerChunk <= 0:
		return errors.New("QUESTIONS_PER_CHUNK must be positive")
	case c.MaxQuestions <= 0:
		return errors.New("MAX_QUESTIONS must be positive")
	case c.BatchSize <= 0:
		return errors.New("BATCH_SIZE must be positive")
	case c.BatchDelay < 0:
		return errors.New("BATCH_DELAY must not be negative")
	case c.MaxUploadBytes <= 0:
		return errors.New("MAX_UPLOAD_BYTES must be positive")
	case c.Temperature < 0 || c.Temperature > 2:
		return errors.New("LLM_TEMPERATURE must be in [0, 2]")
	case c.LLMRateLimit < 0:
		return errors.New("LLM_RATE_LIMIT must not be negative")
	}

	switch c.Provider {
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return errors.New("OPENAI_API_KEY environment variable not set")
		}
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return errors.New("GEMINI_API_KEY environment variable not set")
		}
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q (want %q or %q)", c.Provider, ProviderOpenAI, ProviderGemini)
	}
	return nil
}
