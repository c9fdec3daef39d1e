package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultNumQueries is the search fan-out used when nothing else is configured.
	DefaultNumQueries = 5
	// MaxNumQueries is the hard cap on search fan-out.
	MaxNumQueries = 6
	// DefaultMemoryPairs is how many question/answer pairs are retained.
	DefaultMemoryPairs = 5
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	LLM     LLMConfig     `yaml:"llm"`
	Search  SearchConfig  `yaml:"search"`
	Logging LoggingConfig `yaml:"logging"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// LLMConfig selects the model provider used for both the decision step
// and the summarizer. Provider is one of: vllm, openai, anthropic,
// deepseek, qwen.
type LLMConfig struct {
	Provider    string  `yaml:"provider"`
	APIKey      string  `yaml:"api_key,omitempty"`
	BaseURL     string  `yaml:"base_url,omitempty"`
	Model       string  `yaml:"model,omitempty"`
	Temperature float32 `yaml:"temperature,omitempty"`
	MaxTokens   int     `yaml:"max_tokens,omitempty"`
}

// SearchEngineConfig configures a single search engine.
type SearchEngineConfig struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	APIKey   string `yaml:"api_key,omitempty"`
	BaseURL  string `yaml:"base_url,omitempty"`
	Enabled  bool   `yaml:"enabled"`
	Priority int    `yaml:"priority"`
}

type SearchConfig struct {
	PrimaryEngine   string               `yaml:"primary_engine"`
	Engines         []SearchEngineConfig `yaml:"engines"`
	NumQueries      int                  `yaml:"num_queries"`
	MemoryEnabled   bool                 `yaml:"memory_enabled"`
	ResultsPerQuery int                  `yaml:"results_per_query"`
	Workers         int                  `yaml:"workers"`
	QueryTimeoutSec int                  `yaml:"query_timeout_sec"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8088,
		},
		LLM: LLMConfig{
			Provider:    "vllm",
			BaseURL:     "http://localhost:1234/v1",
			Model:       "./Jan-v1-4B",
			Temperature: 0.7,
		},
		Search: SearchConfig{
			PrimaryEngine:   "serper",
			NumQueries:      DefaultNumQueries,
			MemoryEnabled:   true,
			ResultsPerQuery: 10,
			Workers:         6,
			QueryTimeoutSec: 3,
			Engines: []SearchEngineConfig{
				{
					Name:     "serper",
					Type:     "serper",
					Enabled:  true,
					Priority: 1,
				},
				{
					Name:     "tavily",
					Type:     "tavily",
					Enabled:  true,
					Priority: 2,
				},
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

func ConfigPath() string {
	if p := os.Getenv("LITEPLEX_CONFIG"); p != "" {
		return p
	}
	return ".liteplex.yaml"
}

// Load reads the yaml config file (if present) over the defaults, then
// applies .env / environment overrides on top.
func Load() (*Config, error) {
	return LoadFromPath(ConfigPath())
}

func LoadFromPath(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	// .env is optional; absence is not an error.
	_ = godotenv.Load()
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("BACKEND_HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("BACKEND_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		c.LLM.Provider = v
	}
	if v := os.Getenv("VLLM_URL"); v != "" && c.LLM.Provider == "vllm" {
		c.LLM.BaseURL = v
	}
	if v := os.Getenv("MODEL_NAME"); v != "" {
		c.LLM.Model = v
	}
	if c.LLM.APIKey == "" {
		c.LLM.APIKey = providerKeyFromEnv(c.LLM.Provider)
	}
	if v := os.Getenv("SERPER_API_KEY"); v != "" {
		c.setEngineKey("serper", v)
	}
	if v := os.Getenv("TAVILY_API_KEY"); v != "" {
		c.setEngineKey("tavily", v)
	}
	if v := os.Getenv("SEARCH_NUM_QUERIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Search.NumQueries = n
		}
	}
}

func providerKeyFromEnv(provider string) string {
	switch provider {
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	case "anthropic":
		return os.Getenv("ANTHROPIC_API_KEY")
	case "deepseek":
		return os.Getenv("DEEPSEEK_API_KEY")
	case "qwen":
		return os.Getenv("DASHSCOPE_API_KEY")
	}
	return ""
}

func (c *Config) setEngineKey(name, key string) {
	for i := range c.Search.Engines {
		if c.Search.Engines[i].Name == name {
			c.Search.Engines[i].APIKey = key
		}
	}
}

func (c *Config) Validate() error {
	if c.Search.NumQueries < 1 {
		c.Search.NumQueries = DefaultNumQueries
	}
	if c.Search.NumQueries > MaxNumQueries {
		c.Search.NumQueries = MaxNumQueries
	}
	if c.Search.ResultsPerQuery <= 0 {
		c.Search.ResultsPerQuery = 10
	}
	if c.Search.Workers <= 0 {
		c.Search.Workers = 6
	}
	if c.Search.QueryTimeoutSec <= 0 {
		c.Search.QueryTimeoutSec = 3
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	return nil
}

// Engine returns the engine entry matching name, or nil.
func (s *SearchConfig) Engine(name string) *SearchEngineConfig {
	for i := range s.Engines {
		if s.Engines[i].Name == name {
			return &s.Engines[i]
		}
	}
	return nil
}

func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
