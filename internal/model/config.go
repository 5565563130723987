package model

// Config holds the complete alibi configuration
type Config struct {
	Chunking     ChunkingConfig     `yaml:"chunking" json:"chunking" mapstructure:"chunking"`
	Sampling     SamplingConfig     `yaml:"sampling" json:"sampling" mapstructure:"sampling"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency" json:"concurrency" mapstructure:"concurrency"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting" json:"rate_limiting" mapstructure:"rate_limiting"`
	LLM          LLMConfig          `yaml:"llm" json:"llm" mapstructure:"llm"`
	Cache        CacheConfig        `yaml:"cache" json:"cache" mapstructure:"cache"`
	Output       OutputConfig       `yaml:"output" json:"output" mapstructure:"output"`
}

// ChunkingConfig controls how narratives are split
type ChunkingConfig struct {
	// MaxChunkChars is the size budget per chunk. A single paragraph
	// longer than this is emitted whole and flagged oversized.
	MaxChunkChars int `yaml:"max_chunk_chars" json:"max_chunk_chars" mapstructure:"max_chunk_chars"`
}

// SamplingConfig controls the sample-vs-exhaustive trade-off
type SamplingConfig struct {
	// ChunkBudget is the maximum number of chunks evaluated exhaustively.
	// Above it, an even-stride subset spanning the document is selected.
	ChunkBudget int `yaml:"chunk_budget" json:"chunk_budget" mapstructure:"chunk_budget"`
}

// ConcurrencyConfig controls worker counts
type ConcurrencyConfig struct {
	ChunkWorkers int `yaml:"chunk_workers" json:"chunk_workers" mapstructure:"chunk_workers"` // Parallel chunk evaluations per story
	StoryWorkers int `yaml:"story_workers" json:"story_workers" mapstructure:"story_workers"` // Parallel stories in batch mode
}

// RateLimitingConfig controls reasoning-service request pacing
type RateLimitingConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" json:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" json:"burst_size" mapstructure:"burst_size"`
}

// LLMConfig holds reasoning-service provider configuration
type LLMConfig struct {
	Provider  string `yaml:"provider" json:"provider" mapstructure:"provider"`       // openai, anthropic, gemini, ollama
	Model     string `yaml:"model" json:"model" mapstructure:"model"`                // Model name (provider-specific)
	APIKey    string `yaml:"-" json:"-" mapstructure:"-"`                            // Never serialized; from environment
	BaseURL   string `yaml:"base_url" json:"base_url" mapstructure:"base_url"`       // Custom endpoint (e.g., Ollama)
	Timeout   int    `yaml:"timeout" json:"timeout" mapstructure:"timeout"`          // Per-request timeout, seconds
	MaxTokens int    `yaml:"max_tokens" json:"max_tokens" mapstructure:"max_tokens"` // Response length cap
	MaxClaims int    `yaml:"max_claims" json:"max_claims" mapstructure:"max_claims"` // Claim set bound (single prompt window)

	// Proxy settings
	HTTPProxy  string `yaml:"http_proxy" json:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy string `yaml:"https_proxy" json:"https_proxy" mapstructure:"https_proxy"`
	NoProxy    string `yaml:"no_proxy" json:"no_proxy" mapstructure:"no_proxy"`
}

// CacheConfig controls caching of reasoning-service responses
type CacheConfig struct {
	Enabled      bool   `yaml:"enabled" json:"enabled" mapstructure:"enabled"`
	Dir          string `yaml:"dir" json:"dir" mapstructure:"dir"`                                  // Disk cache directory
	MemoryTTLMin int    `yaml:"memory_ttl_min" json:"memory_ttl_min" mapstructure:"memory_ttl_min"` // Memory layer TTL, minutes
	DiskTTLHours int    `yaml:"disk_ttl_hours" json:"disk_ttl_hours" mapstructure:"disk_ttl_hours"` // Disk layer TTL, hours
}

// OutputConfig controls result rendering
type OutputConfig struct {
	Verbose bool   `yaml:"verbose" json:"verbose" mapstructure:"verbose"`
	CSVPath string `yaml:"csv_path" json:"csv_path" mapstructure:"csv_path"` // Result sink: Story ID, Prediction, Rationale
	JSONDir string `yaml:"json_dir" json:"json_dir" mapstructure:"json_dir"` // Optional per-story JSON reports
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Chunking: ChunkingConfig{
			MaxChunkChars: 4000,
		},
		Sampling: SamplingConfig{
			ChunkBudget: 20,
		},
		Concurrency: ConcurrencyConfig{
			ChunkWorkers: 4,
			StoryWorkers: 2,
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 2,
			BurstSize:         4,
		},
		LLM: LLMConfig{
			Provider:  "",
			Model:     "",
			Timeout:   60,
			MaxTokens: 2000,
			MaxClaims: 20,
		},
		Cache: CacheConfig{
			Enabled:      true,
			Dir:          "",
			MemoryTTLMin: 30,
			DiskTTLHours: 24 * 7,
		},
		Output: OutputConfig{
			Verbose: false,
			CSVPath: "results.csv",
		},
	}
}
