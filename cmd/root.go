package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/liteplex/liteplex/internal/config"
	"github.com/liteplex/liteplex/internal/logger"
)

var (
	configPath    string
	logLevel      string
	llmProvider   string
	modelName     string
	vllmURL       string
	primaryEngine string
	serperAPIKey  string
	tavilyAPIKey  string
	numQueries    int
)

var rootCmd = &cobra.Command{
	Use:   "liteplex",
	Short: "liteplex conversational search assistant",
	Long: `liteplex answers questions by searching the web and summarizing
the results with citations.

Modes:
  liteplex         Run the HTTP server (default)
  liteplex serve   Run the HTTP server
  liteplex chat    Chat in the terminal`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	Run: runServe,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if logLevel == "" {
			return nil
		}
		level, err := logger.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		logger.SetLevel(level)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Config file path (default .liteplex.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "",
		"Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&llmProvider, "provider", "",
		"LLM provider: vllm, openai, anthropic, deepseek, qwen")
	rootCmd.PersistentFlags().StringVar(&modelName, "model", "",
		"Model name")
	rootCmd.PersistentFlags().StringVar(&vllmURL, "vllm-url", "",
		"Base URL of an OpenAI-compatible endpoint")
	rootCmd.PersistentFlags().StringVar(&primaryEngine, "search-engine", "",
		"Primary search engine: serper, tavily")
	rootCmd.PersistentFlags().StringVar(&serperAPIKey, "serper-api-key", "",
		"Serper search API key")
	rootCmd.PersistentFlags().StringVar(&tavilyAPIKey, "tavily-api-key", "",
		"Tavily search API key")
	rootCmd.PersistentFlags().IntVar(&numQueries, "num-queries", 0,
		"Number of parallel search queries (1-6)")
}

// loadConfig reads the config file and layers command-line flags on
// top. Flags win over environment variables and file values.
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = config.ConfigPath()
	}
	cfg, err := config.LoadFromPath(path)
	if err != nil {
		return nil, err
	}

	if llmProvider != "" {
		cfg.LLM.Provider = llmProvider
	}
	if modelName != "" {
		cfg.LLM.Model = modelName
	}
	if vllmURL != "" {
		cfg.LLM.BaseURL = vllmURL
	}
	if primaryEngine != "" {
		cfg.Search.PrimaryEngine = primaryEngine
	}
	if serperAPIKey != "" {
		setEngineKey(cfg, "serper", serperAPIKey)
	}
	if tavilyAPIKey != "" {
		setEngineKey(cfg, "tavily", tavilyAPIKey)
	}
	if numQueries > 0 {
		cfg.Search.NumQueries = numQueries
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.Format); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setEngineKey(cfg *config.Config, name, key string) {
	for i := range cfg.Search.Engines {
		if cfg.Search.Engines[i].Name == name {
			cfg.Search.Engines[i].APIKey = key
			cfg.Search.Engines[i].Enabled = true
		}
	}
}

func Execute() {
	defer logger.Sync()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
