// Package config loads accctl's own settings from accctl.yaml, .env files and ACCCTL_* variables.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/accctl/internal/foundation/errors"
)

// DefaultPath is the configuration file looked up when none is given.
const DefaultPath = "accctl.yaml"

// Config represents the application configuration.
type Config struct {
	ACC         ACCConfig         `yaml:"acc"`
	Executor    ExecutorConfig    `yaml:"executor"`
	Profiles    ProfilesConfig    `yaml:"profiles"`
	Preferences PreferencesConfig `yaml:"preferences"`
	Poll        PollConfig        `yaml:"poll"`
	HTTP        HTTPConfig        `yaml:"http"`
	NATS        NATSConfig        `yaml:"nats"`
	Watch       WatchConfig       `yaml:"watch"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// ACCConfig locates the daemon's files.
type ACCConfig struct {
	ConfigPath string `yaml:"config_path"`
}

// ExecutorConfig controls how privileged command lines are run.
type ExecutorConfig struct {
	// Shell is the command prefix; the joined command lines are passed as the final argument.
	Shell []string `yaml:"shell,flow"`
	Env   []string `yaml:"env,omitempty"`
}

// ProfilesConfig selects the profile store backend.
type ProfilesConfig struct {
	Backend    ProfileBackend `yaml:"backend"`
	Directory  string         `yaml:"directory"`
	SQLitePath string         `yaml:"sqlite_path"`
}

// PreferencesConfig locates the persisted preferences file.
type PreferencesConfig struct {
	Path string `yaml:"path"`
}

// PollConfig controls the telemetry poll.
type PollConfig struct {
	Interval string `yaml:"interval"`
}

// HTTPConfig controls the API server.
type HTTPConfig struct {
	Addr            string `yaml:"addr"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

// NATSConfig controls event publishing.
type NATSConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// WatchConfig controls the config.txt watcher.
type WatchConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Debounce string `yaml:"debounce"`
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// PollInterval returns the parsed poll interval. Call after Validate.
func (c *Config) PollInterval() time.Duration { return mustDuration(c.Poll.Interval) }

// WatchDebounce returns the parsed watcher debounce. Call after Validate.
func (c *Config) WatchDebounce() time.Duration { return mustDuration(c.Watch.Debounce) }

// ShutdownTimeout returns the parsed HTTP shutdown timeout. Call after Validate.
func (c *Config) ShutdownTimeout() time.Duration { return mustDuration(c.HTTP.ShutdownTimeout) }

func mustDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}

// Load reads the configuration file at path, then applies .env files,
// ACCCTL_* overrides and defaults, and validates the result.
func Load(path string) (*Config, error) {
	loadEnvFiles()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFoundError("configuration file").WithContext("path", path).Build()
		}
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to read config file").
			WithContext("path", path).
			Build()
	}
	return parse(data)
}

// LoadOptional is Load that falls back to defaults when the file does not exist.
func LoadOptional(path string) (*Config, error) {
	cfg, err := Load(path)
	if err == nil {
		return cfg, nil
	}
	if !errors.HasCategory(err, errors.CategoryNotFound) {
		return nil, err
	}
	return parse(nil)
}

func parse(data []byte) (*Config, error) {
	cfg := &Config{Watch: WatchConfig{Enabled: true}}
	if len(data) > 0 {
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, errors.WrapError(err, errors.CategoryConfig, "failed to unmarshal config").Build()
		}
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Init writes a configuration file populated with defaults.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return errors.AlreadyExistsError("configuration file").
			WithContext("path", path).
			WithContext("hint", "use --force to overwrite").
			Build()
	}

	data, err := Marshal(Default())
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write config file").
			WithContext("path", path).
			Build()
	}
	return nil
}

// Marshal renders cfg as YAML.
func Marshal(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}
