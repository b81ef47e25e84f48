package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of every environment variable read by Load.
const EnvPrefix = "KOTOBA"

// Load configuration from environment variables and optionally config files.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	return load(viper.New(), "")
}

// LoadFile is like Load but reads the given config file instead of searching
// for config.yaml in the working directory.
func LoadFile(path string) (*Config, error) {
	return load(viper.New(), path)
}

func load(v *viper.Viper, path string) (*Config, error) {
	setDefaults(v)

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
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only applies to keys viper already knows about, so keys
	// without a default are bound explicitly.
	for _, key := range []string{
		"database.url",
		"llm.gemini_api_key",
		"llm.openai_api_key",
		"llm.openai_base_url",
		"llm.prompt_template_path",
		"fanout.amqp_url",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind environment variable for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks cfg against its struct tags and the rules that span
// sections.
func Validate(cfg *Config) error {
	validate := validator.New()
	validate.RegisterStructValidation(validateTimeouts, Config{})
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// validateTimeouts requires a chapter call to end before the sweeper could
// consider its textbook abandoned.
func validateTimeouts(sl validator.StructLevel) {
	cfg := sl.Current().Interface().(Config)
	if cfg.Task.StuckJobAge > 0 && cfg.Generation.UnitTimeout >= cfg.Task.StuckJobAge {
		sl.ReportError(cfg.Generation.UnitTimeout, "Generation.UnitTimeout", "UnitTimeout", "ltfield", "Task.StuckJobAge")
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.read_timeout", 15*time.Second)
	// Synchronous submissions hold the request open for the whole textbook.
	v.SetDefault("server.write_timeout", 0)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)

	v.SetDefault("llm.provider", ProviderGemini)
	v.SetDefault("llm.model_name", "gemini-2.0-flash")
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.retry_delay_seconds", 2)

	v.SetDefault("generation.unit_timeout", 2*time.Minute)
	v.SetDefault("generation.finalize_base_delay", 200*time.Millisecond)
	v.SetDefault("generation.finalize_max_delay", 10*time.Second)

	v.SetDefault("fanout.backend", FanoutBackendPostgres)
	v.SetDefault("fanout.queue_name", "audio_generation")
	v.SetDefault("fanout.max_items", 20)

	v.SetDefault("task.worker_count", 2)
	v.SetDefault("task.queue_size", 100)
	v.SetDefault("task.stuck_job_age", 30*time.Minute)
	v.SetDefault("task.stuck_check_interval", 5*time.Minute)
}
