package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server     ServerConfig     `mapstructure:"server" validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database" validate:"required"`
	LLM        LLMConfig        `mapstructure:"llm" validate:"required"`
	Generation GenerationConfig `mapstructure:"generation" validate:"required"`
	Fanout     FanoutConfig     `mapstructure:"fanout" validate:"required"`
	Task       TaskConfig       `mapstructure:"task" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel        string        `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" validate:"gte=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL          string `mapstructure:"url" validate:"required,url"`
	MaxOpenConns int    `mapstructure:"max_open_conns" validate:"gt=0"`
	MaxIdleConns int    `mapstructure:"max_idle_conns" validate:"gte=0"`
}

// LLM provider names accepted by LLMConfig.Provider.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// LLMConfig contains all LLM integration related settings.
type LLMConfig struct {
	Provider           string `mapstructure:"provider" validate:"required,oneof=gemini openai"`
	GeminiAPIKey       string `mapstructure:"gemini_api_key" validate:"required_if=Provider gemini"`
	OpenAIAPIKey       string `mapstructure:"openai_api_key" validate:"required_if=Provider openai"`
	OpenAIBaseURL      string `mapstructure:"openai_base_url" validate:"omitempty,url"`
	ModelName          string `mapstructure:"model_name" validate:"required"`
	PromptTemplatePath string `mapstructure:"prompt_template_path"`
	MaxRetries         int    `mapstructure:"max_retries" validate:"gte=0,lte=10"`
	RetryDelaySeconds  int    `mapstructure:"retry_delay_seconds" validate:"gte=1,lte=60"`
}

// GenerationConfig controls the chapter generation loop.
type GenerationConfig struct {
	// UnitTimeout bounds a single chapter generation call.
	UnitTimeout time.Duration `mapstructure:"unit_timeout" validate:"gt=0"`

	// FinalizeBaseDelay and FinalizeMaxDelay shape the backoff used when the
	// final status write fails.
	FinalizeBaseDelay time.Duration `mapstructure:"finalize_base_delay" validate:"gt=0"`
	FinalizeMaxDelay  time.Duration `mapstructure:"finalize_max_delay" validate:"gtefield=FinalizeBaseDelay"`
}

// Fan-out queue backends accepted by FanoutConfig.Backend.
const (
	FanoutBackendPostgres = "postgres"
	FanoutBackendRabbitMQ = "rabbitmq"
)

// FanoutConfig configures the audio work item queue.
type FanoutConfig struct {
	Backend   string `mapstructure:"backend" validate:"required,oneof=postgres rabbitmq"`
	AMQPURL   string `mapstructure:"amqp_url" validate:"required_if=Backend rabbitmq"`
	QueueName string `mapstructure:"queue_name" validate:"required"`
	MaxItems  int    `mapstructure:"max_items" validate:"gt=0,lte=100"`
}

// TaskConfig configures the background task runner.
type TaskConfig struct {
	WorkerCount        int           `mapstructure:"worker_count" validate:"gt=0"`
	QueueSize          int           `mapstructure:"queue_size" validate:"gt=0"`
	StuckJobAge        time.Duration `mapstructure:"stuck_job_age" validate:"gt=0"`
	StuckCheckInterval time.Duration `mapstructure:"stuck_check_interval" validate:"gt=0"`
}
