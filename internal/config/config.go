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

// Config holds the application configuration
type Config struct {
	LLM     LLMConfig
	TMDB    TMDBConfig `mapstructure:"tmdb"`
	Agent   AgentConfig
	History HistoryConfig
	Server  ServerConfig
	Log     LogConfig
}

// LLMConfig holds the LLM configuration
type LLMConfig struct {
	Provider     string  `mapstructure:"provider"`
	BaseURL      string  `mapstructure:"base_url"`
	APIKey       string  `mapstructure:"api_key"`
	Model        string  `mapstructure:"model"`
	Temperature  float32 `mapstructure:"temperature"`
	MaxTokens    int     `mapstructure:"max_tokens"`
	SystemPrompt string  `mapstructure:"system_prompt"`
}

// TMDBConfig holds the movie database configuration
type TMDBConfig struct {
	APIKey            string        `mapstructure:"api_key"`
	BaseURL           string        `mapstructure:"base_url"`
	Language          string        `mapstructure:"language"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
}

// AgentConfig controls how conversation history is carried between turns.
type AgentConfig struct {
	RetainHistory   bool `mapstructure:"retain_history"`
	MaxHistoryTurns int  `mapstructure:"max_history_turns"`
}

// HistoryConfig holds the transcript store configuration. An empty DBPath keeps
// transcripts in memory only.
type HistoryConfig struct {
	DBPath string `mapstructure:"db_path"`
}

// ServerConfig holds the server configuration
type ServerConfig struct {
	Host               string        `mapstructure:"host"`
	Port               string        `mapstructure:"port"`
	SessionIdleTimeout time.Duration `mapstructure:"session_idle_timeout"`
}

// LogConfig holds the logger configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

const DefaultSystemPrompt = `You are a helpful movie recommendation assistant.
Your goal is to understand user preferences and provide personalized movie recommendations.
Be conversational, ask clarifying questions when needed, and maintain context throughout the conversation.`

func setDefaults(v *viper.Viper) {
	v.SetDefault("llm.provider", "groq")
	v.SetDefault("llm.model", "llama-3.3-70b-versatile")
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.max_tokens", 1000)
	v.SetDefault("llm.system_prompt", DefaultSystemPrompt)

	v.SetDefault("tmdb.base_url", "https://api.themoviedb.org/3")
	v.SetDefault("tmdb.timeout", 10*time.Second)
	v.SetDefault("tmdb.requests_per_second", 20)

	v.SetDefault("agent.retain_history", true)
	v.SetDefault("agent.max_history_turns", 10)

	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.session_idle_timeout", 30*time.Minute)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

func bindEnv(v *viper.Viper) error {
	bindings := [][]string{
		{"llm.api_key", "MOVIEAGENT_LLM_API_KEY", "GROQ_API_KEY", "OPENAI_API_KEY"},
		{"llm.model", "MOVIEAGENT_LLM_MODEL", "GROQ_MODEL"},
		{"llm.provider", "MOVIEAGENT_LLM_PROVIDER"},
		{"llm.base_url", "MOVIEAGENT_LLM_BASE_URL"},
		{"tmdb.api_key", "MOVIEAGENT_TMDB_API_KEY", "TMDB_API_KEY"},
		{"tmdb.base_url", "MOVIEAGENT_TMDB_BASE_URL", "TMDB_API_BASE_URL"},
		{"history.db_path", "MOVIEAGENT_HISTORY_DB_PATH", "HISTORY_DB_PATH"},
		{"log.level", "MOVIEAGENT_LOG_LEVEL"},
	}
	for _, b := range bindings {
		if err := v.BindEnv(b...); err != nil {
			return fmt.Errorf("bind env %s: %w", b[0], err)
		}
	}
	return nil
}

// Load loads the configuration from config.yaml (or the file named by path or
// CONFIG_PATH), the environment and an optional .env file. A missing config file
// is not an error.
func Load(path string) (*Config, error) {
	// Real environment variables always win over .env entries.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	if err := bindEnv(v); err != nil {
		return nil, err
	}

	if path == "" {
		path = strings.TrimSpace(os.Getenv("CONFIG_PATH"))
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// Validate reports the settings that must be present before the agent can run.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.LLM.Model) == "" {
		errs = append(errs, errors.New("llm.model is required"))
	}
	if strings.TrimSpace(c.LLM.APIKey) == "" && !strings.EqualFold(c.LLM.Provider, "ollama") {
		errs = append(errs, errors.New("llm.api_key is required (set GROQ_API_KEY or MOVIEAGENT_LLM_API_KEY)"))
	}
	if strings.TrimSpace(c.TMDB.APIKey) == "" {
		errs = append(errs, errors.New("tmdb.api_key is required (set TMDB_API_KEY)"))
	}
	if c.Agent.MaxHistoryTurns < 0 {
		errs = append(errs, errors.New("agent.max_history_turns must not be negative"))
	}
	return errors.Join(errs...)
}
