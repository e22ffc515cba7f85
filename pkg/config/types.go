package config

import "time"

// Config represents the complete application configuration
type Config struct {
	Environment string           `mapstructure:"environment"`
	Server      ServerConfig     `mapstructure:"server"`
	Database    DatabaseConfig   `mapstructure:"database"`
	Processing  ProcessingConfig `mapstructure:"processing"`
	AssemblyAI  AssemblyAIConfig `mapstructure:"assemblyai"`
	Anthropic   AnthropicConfig  `mapstructure:"anthropic"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	RateLimitRPS    int           `mapstructure:"rate_limit_rps"`
}

// DatabaseConfig contains database settings
type DatabaseConfig struct {
	Path       string `mapstructure:"path"`
	LogQueries bool   `mapstructure:"log_queries"`
}

// ProcessingConfig contains pipeline settings
type ProcessingConfig struct {
	Workers                  int           `mapstructure:"workers"`
	PollInterval             time.Duration `mapstructure:"poll_interval"`
	MaxRetries               int           `mapstructure:"max_retries"`
	BaseRetryDelay           time.Duration `mapstructure:"base_retry_delay"`
	StuckThreshold           time.Duration `mapstructure:"stuck_threshold"`
	SweepInterval            time.Duration `mapstructure:"sweep_interval"`
	TranscriptionConcurrency int           `mapstructure:"transcription_concurrency"`
	JobRetentionDays         int           `mapstructure:"job_retention_days"`
}

// AssemblyAIConfig contains AssemblyAI API settings
type AssemblyAIConfig struct {
	APIKey            string        `mapstructure:"api_key"`
	BaseURL           string        `mapstructure:"base_url"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
	PollInterval      time.Duration `mapstructure:"poll_interval"`
	MaxPollTime       time.Duration `mapstructure:"max_poll_time"`
}

// AnthropicConfig contains Anthropic API settings
type AnthropicConfig struct {
	APIKey            string        `mapstructure:"api_key"`
	BaseURL           string        `mapstructure:"base_url"`
	Model             string        `mapstructure:"model"`
	MaxTokens         int           `mapstructure:"max_tokens"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
	ChunkDelay        time.Duration `mapstructure:"chunk_delay"`
}
