package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration. It is built once at process
// start and passed by reference into each component; nothing reads the
// environment after Load returns.
type Config struct {
	// App
	Port string
	Env  string

	// Supermemory (external memory store)
	SupermemoryURL    string
	SupermemoryAPIKey string

	// AI
	LiteLLMURL       string
	ModelID          string
	OpenRouterAPIKey string

	// Custom modes
	ModesDBPath string
	DefaultMode string

	// Context assembly
	StoreTimeout     time.Duration // per-call timeout for memory store fetches
	RecentLimit      int
	SearchLimit      int
	LongTermCap      int
	CrossModeCap     int
	PerSourceLimit   int

	// Write-back deduplication. Empirically tuned; kept configurable
	// rather than hard-coded.
	DedupOverlapThreshold float64
	DedupPrefixLen        int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	cfg := &Config{
		Port:              getEnv("PORT", "8080"),
		Env:               getEnv("ENV", "development"),
		SupermemoryURL:    getEnv("SUPERMEMORY_API_URL", "https://api.supermemory.ai/v3"),
		SupermemoryAPIKey: getEnv("SUPERMEMORY_API_KEY", ""),
		LiteLLMURL:        getEnv("LITELLM_URL", "http://localhost:4000"),
		ModelID:           getEnv("MODEL_ID", "openrouter/google/gemini-2.5-flash"),
		OpenRouterAPIKey:  getEnv("OPENROUTER_API_KEY", ""),
		ModesDBPath:       getEnv("MODES_DB_PATH", "data/modes.db"),
		DefaultMode:       getEnv("DEFAULT_MODE", "student"),

		StoreTimeout:   time.Duration(getEnvInt("STORE_TIMEOUT_MS", 5000)) * time.Millisecond,
		RecentLimit:    getEnvInt("RECENT_LIMIT", 5),
		SearchLimit:    getEnvInt("SEARCH_LIMIT", 10),
		LongTermCap:    getEnvInt("LONG_TERM_CAP", 5),
		CrossModeCap:   getEnvInt("CROSS_MODE_CAP", 3),
		PerSourceLimit: getEnvInt("PER_SOURCE_LIMIT", 3),

		DedupOverlapThreshold: getEnvFloat("DEDUP_OVERLAP_THRESHOLD", 0.7),
		DedupPrefixLen:        getEnvInt("DEDUP_PREFIX_LEN", 120),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration values are set
func (c *Config) Validate() error {
	if c.SupermemoryURL == "" {
		return fmt.Errorf("SUPERMEMORY_API_URL is required")
	}
	if c.LiteLLMURL == "" {
		return fmt.Errorf("LITELLM_URL is required")
	}
	if c.ModelID == "" {
		return fmt.Errorf("MODEL_ID is required")
	}
	if c.DedupOverlapThreshold <= 0 || c.DedupOverlapThreshold > 1 {
		return fmt.Errorf("DEDUP_OVERLAP_THRESHOLD must be in (0, 1]")
	}
	// Supermemory and OpenRouter keys are optional for development
	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		var result float64
		if _, err := fmt.Sscanf(value, "%f", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}
