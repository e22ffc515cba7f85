package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"

	"github.com/dpaola2/show-notes/internal/services/sweeper"
	"github.com/dpaola2/show-notes/internal/services/throttle"
)

var (
	once    sync.Once
	initErr error
)

// Init initializes the configuration system
// This should be called once at application startup
func Init() error {
	once.Do(func() {
		setDefaults()

		viper.SetEnvPrefix("SHOWNOTES")
		viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		viper.AutomaticEnv()

		configPath := filepath.Clean("./config/settings.yaml")
		viper.SetConfigFile(configPath)

		if err := viper.ReadInConfig(); err != nil {
			// Missing file is fine; defaults and env vars cover it
			if !os.IsNotExist(err) {
				initErr = fmt.Errorf("error reading config file %s: %w", configPath, err)
				return
			}
		}

		if err := validate(); err != nil {
			initErr = fmt.Errorf("invalid configuration: %w", err)
		}
	})

	return initErr
}

// GetConfig returns the current configuration as a struct
// Init() must be called before using this
func GetConfig() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &config, nil
}

// GetString returns a string config value
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetDuration returns a time.Duration config value
func GetDuration(key string) time.Duration {
	return viper.GetDuration(key)
}

func validate() error {
	port := viper.GetInt("server.port")
	if port <= 0 || port > 65535 {
		return fmt.Errorf("invalid server port: %d", port)
	}

	if viper.GetString("database.path") == "" {
		return fmt.Errorf("database.path is required")
	}

	env := viper.GetString("environment")
	if env == "production" || env == "prod" {
		if viper.GetString("assemblyai.api_key") == "" {
			return fmt.Errorf("assemblyai.api_key is required in production")
		}
		if viper.GetString("anthropic.api_key") == "" {
			return fmt.Errorf("anthropic.api_key is required in production")
		}
	}

	// Auto-correct invalid worker count
	if viper.GetInt("processing.workers") <= 0 {
		viper.Set("processing.workers", 2)
	}

	return nil
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("environment", "development")

	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 30*time.Second)
	viper.SetDefault("server.write_timeout", 30*time.Second)
	viper.SetDefault("server.shutdown_timeout", 10*time.Second)
	viper.SetDefault("server.rate_limit_rps", 20)

	// Database defaults
	viper.SetDefault("database.path", "./data/shownotes.db")
	viper.SetDefault("database.log_queries", false)

	// Processing defaults
	viper.SetDefault("processing.workers", 2)
	viper.SetDefault("processing.poll_interval", 2*time.Second)
	viper.SetDefault("processing.max_retries", 5)
	viper.SetDefault("processing.base_retry_delay", time.Minute)
	viper.SetDefault("processing.stuck_threshold", sweeper.StuckThreshold)
	viper.SetDefault("processing.sweep_interval", sweeper.DefaultSweepInterval)
	viper.SetDefault("processing.transcription_concurrency", throttle.DefaultTranscriptionLimit)
	viper.SetDefault("processing.job_retention_days", sweeper.DefaultJobRetentionDays)

	// AssemblyAI defaults
	viper.SetDefault("assemblyai.base_url", "https://api.assemblyai.com")
	viper.SetDefault("assemblyai.timeout", 30*time.Second)
	viper.SetDefault("assemblyai.requests_per_minute", 60)
	viper.SetDefault("assemblyai.poll_interval", 3*time.Second)
	viper.SetDefault("assemblyai.max_poll_time", 30*time.Minute)

	// Anthropic defaults
	viper.SetDefault("anthropic.base_url", "https://api.anthropic.com")
	viper.SetDefault("anthropic.model", "claude-sonnet-4-20250514")
	viper.SetDefault("anthropic.max_tokens", 4096)
	viper.SetDefault("anthropic.timeout", 120*time.Second)
	viper.SetDefault("anthropic.requests_per_minute", 50)
	viper.SetDefault("anthropic.chunk_delay", 3*time.Second)
}
