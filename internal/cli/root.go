package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"alibi/internal/cache"
	"alibi/internal/llm"
	"alibi/internal/model"
	"alibi/internal/pipeline"
	"alibi/internal/worker"
)

var (
	cfgFile string
	verbose bool

	llmProvider string
	llmModel    string
	noCache     bool
	chunkBudget int
	maxClaims   int
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "alibi",
	Short: "Alibi - backstory consistency checking against long narratives",
	Long: `Alibi checks whether a hypothetical character backstory is logically
consistent with a long narrative.

It decomposes the backstory into atomic claims, reads the narrative in
paragraph-aligned chunks, and asks a reasoning service whether each
chunk supports or contradicts each claim. Verdicts must quote the
narrative verbatim; anything ungrounded is discarded.

The decision is conservative: a single grounded contradiction marks the
backstory inconsistent, while claims the narrative never mentions are
treated as plausible.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("alibi v0.1.0")
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.alibi/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&llmProvider, "llm-provider", "", "reasoning service provider (openai, anthropic, gemini, ollama)")
	rootCmd.PersistentFlags().StringVar(&llmModel, "llm-model", "", "reasoning service model name")
	rootCmd.PersistentFlags().BoolVar(&noCache, "no-cache", false, "disable response caching")
	rootCmd.PersistentFlags().IntVar(&chunkBudget, "chunk-budget", 0, "max chunks evaluated per story (0 = config default)")
	rootCmd.PersistentFlags().IntVar(&maxClaims, "max-claims", 0, "max claims extracted per backstory (0 = config default)")

	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("llm.provider", rootCmd.PersistentFlags().Lookup("llm-provider"))
	_ = viper.BindPFlag("llm.model", rootCmd.PersistentFlags().Lookup("llm-model"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		viper.AddConfigPath(filepath.Join(home, ".alibi"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match ALIBI_*
	viper.SetEnvPrefix("ALIBI")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// buildConfig merges defaults, config file, environment, and flags
func buildConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	cfg.Output.Verbose = verbose
	cfg.Cache.Enabled = cfg.Cache.Enabled && !noCache
	if chunkBudget > 0 {
		cfg.Sampling.ChunkBudget = chunkBudget
	}
	if maxClaims > 0 {
		cfg.LLM.MaxClaims = maxClaims
	}

	if cfg.LLM.Provider != "" {
		if err := resolveAPIKey(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// resolveAPIKey pulls provider credentials from the environment; keys
// never live in the config file
func resolveAPIKey(cfg *model.Config) error {
	switch cfg.LLM.Provider {
	case "openai":
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		if cfg.LLM.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	case "anthropic", "claude":
		cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		if cfg.LLM.APIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
		}
	case "gemini", "google":
		cfg.LLM.APIKey = os.Getenv("GEMINI_API_KEY")
		if cfg.LLM.APIKey == "" {
			cfg.LLM.APIKey = os.Getenv("GOOGLE_API_KEY")
		}
		if cfg.LLM.APIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY environment variable not set")
		}
	case "ollama":
		// Ollama doesn't need an API key
		if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
			cfg.LLM.BaseURL = baseURL
		}
	}
	return nil
}

// buildPipeline assembles provider, rate limiter, cache, and pipeline
// from configuration
func buildPipeline(cfg *model.Config) (*pipeline.Pipeline, error) {
	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM))
	if err != nil {
		return nil, err
	}

	if provider == nil && verbose {
		fmt.Fprintln(os.Stderr, "No reasoning service configured; claims fall back to heuristics and every chunk reads neutral")
	}

	limiter := worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)

	var c cache.Cache
	if cfg.Cache.Enabled {
		c = cache.NewLayeredCache(
			time.Duration(cfg.Cache.MemoryTTLMin)*time.Minute,
			cacheDir(cfg.Cache.Dir),
			time.Duration(cfg.Cache.DiskTTLHours)*time.Hour,
		)
	}

	return pipeline.New(cfg, provider, limiter, c), nil
}

func cacheDir(dir string) string {
	if dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".alibi-cache"
	}
	return filepath.Join(home, ".alibi", "cache")
}
