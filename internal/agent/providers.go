package agent

import (
	"fmt"
	"strings"

	"github.com/liteplex/liteplex/internal/config"
)

// NewProvider builds the model provider named by cfg. Every provider
// satisfies the same two-operation capability; only connection
// parameters differ.
func NewProvider(cfg config.LLMConfig) (Provider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "vllm":
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = "not-needed" // local endpoints do not check credentials
		}
		return NewOpenAICompatProvider(OpenAICompatConfig{
			ProviderName: "vllm",
			APIKey:       apiKey,
			BaseURL:      cfg.BaseURL,
			Model:        cfg.Model,
			DefaultURL:   "http://localhost:1234/v1",
		})

	case "openai":
		return NewOpenAICompatProvider(OpenAICompatConfig{
			ProviderName: "openai",
			APIKey:       cfg.APIKey,
			BaseURL:      cfg.BaseURL,
			Model:        cfg.Model,
			DefaultModel: "gpt-4o-mini",
		})

	case "anthropic":
		return NewAnthropicProvider(AnthropicConfig{
			APIKey: cfg.APIKey,
			Model:  cfg.Model,
		})

	case "deepseek":
		return NewOpenAICompatProvider(OpenAICompatConfig{
			ProviderName: "deepseek",
			APIKey:       cfg.APIKey,
			BaseURL:      cfg.BaseURL,
			Model:        cfg.Model,
			DefaultURL:   "https://api.deepseek.com/v1",
			DefaultModel: "deepseek-chat",
		})

	case "qwen":
		return NewOpenAICompatProvider(OpenAICompatConfig{
			ProviderName: "qwen",
			APIKey:       cfg.APIKey,
			BaseURL:      cfg.BaseURL,
			Model:        cfg.Model,
			DefaultURL:   "https://dashscope.aliyuncs.com/compatible-mode/v1",
			DefaultModel: "qwen-plus",
		})
	}

	return nil, fmt.Errorf("unsupported llm provider: %s", cfg.Provider)
}
