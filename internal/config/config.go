// Package config loads the stamper command configuration.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ygrebnov/stamper"
)

// EnvPrefix prefixes the environment variables overriding configuration keys,
// e.g. STAMPER_STRATEGY=batch.
const EnvPrefix = "STAMPER"

// Config holds all configuration for the stamper command.
// The mapstructure tags are used by Viper to unmarshal the data.
type Config struct {
	Extension    string        `mapstructure:"extension" validate:"required"`
	Program      string        `mapstructure:"program" validate:"required"`
	Args         []string      `mapstructure:"args" validate:"required,min=1"`
	Strategy     string        `mapstructure:"strategy" validate:"oneof=pool batch"`
	PollInterval time.Duration `mapstructure:"poll_interval" validate:"gt=0"`
	GracePeriod  time.Duration `mapstructure:"grace_period" validate:"gte=0"`
	LogLevel     string        `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	LogFormat    string        `mapstructure:"log_format" validate:"oneof=text json"`
	MetricsFile  string        `mapstructure:"metrics_file"`
	Tracing      bool          `mapstructure:"tracing"`
}

// setDefaults registers the default value of every key.
func setDefaults(v *viper.Viper) {
	v.SetDefault("extension", stamper.DefaultExtension)
	v.SetDefault("program", stamper.DefaultProgram)
	v.SetDefault("args", stamper.DefaultArgs)
	v.SetDefault("strategy", stamper.StrategyPool)
	v.SetDefault("poll_interval", stamper.DefaultPollInterval)
	v.SetDefault("grace_period", stamper.DefaultGracePeriod)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("metrics_file", "")
	v.SetDefault("tracing", false)
}

// Load reads configuration from, in increasing precedence: defaults, the config
// file, STAMPER_* environment variables and the flags in fs that were set.
//
// file names an explicit config file; when empty, stamper.yaml is looked up in
// ./configs and the working directory, and a missing file is not an error.
// fs may be nil. Flags are bound by name, with dashes mapped to underscores.
func Load(file string, fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("stamper")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		// no config file: defaults, env and flags only
	}

	if fs != nil {
		if err := bindFlags(v, fs); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// bindFlags binds the flags of fs matching a configuration key.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	var err error
	fs.VisitAll(func(f *pflag.Flag) {
		key := flagKey(f.Name)
		if err != nil || !isKey(key) {
			return
		}
		if e := v.BindPFlag(key, f); e != nil {
			err = fmt.Errorf("binding flag %q: %w", f.Name, e)
		}
	})
	return err
}

func flagKey(name string) string { return strings.ReplaceAll(name, "-", "_") }

func isKey(key string) bool {
	switch key {
	case "extension", "program", "args", "strategy", "poll_interval", "grace_period",
		"log_level", "log_format", "metrics_file", "tracing":
		return true
	}
	return false
}

var validate = validator.New()

// Validate checks field constraints and reports every violated one.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %w", stamper.ErrInvalidConfig, err)
	}
	msgs := make([]error, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Errorf("field '%s' failed on the '%s' tag", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("%w: %w", stamper.ErrInvalidConfig, errors.Join(msgs...))
}
