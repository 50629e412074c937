package config

import (
	"git.home.luguber.info/inful/accctl/internal/accd"
	"git.home.luguber.info/inful/accctl/internal/executor"
)

const (
	defaultDataDir         = "data"
	defaultPollInterval    = "1s"
	defaultHTTPAddr        = "127.0.0.1:8765"
	defaultShutdownTimeout = "10s"
	defaultNATSURL         = "nats://127.0.0.1:4222"
	defaultDebounce        = "500ms"
	defaultNATSSubject     = "accctl"
)

// Default returns a fully populated configuration.
func Default() *Config {
	cfg := &Config{Watch: WatchConfig{Enabled: true}}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.ACC.ConfigPath == "" {
		cfg.ACC.ConfigPath = accd.DefaultConfigPath
	}
	if len(cfg.Executor.Shell) == 0 {
		cfg.Executor.Shell = append([]string(nil), executor.DefaultShell...)
	}
	if cfg.Profiles.Backend == "" {
		cfg.Profiles.Backend = ProfileBackendFS
	}
	if cfg.Profiles.Directory == "" {
		cfg.Profiles.Directory = defaultDataDir + "/profiles"
	}
	if cfg.Profiles.SQLitePath == "" {
		cfg.Profiles.SQLitePath = defaultDataDir + "/profiles.db"
	}
	if cfg.Preferences.Path == "" {
		cfg.Preferences.Path = defaultDataDir + "/preferences.json"
	}
	if cfg.Poll.Interval == "" {
		cfg.Poll.Interval = defaultPollInterval
	}
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = defaultHTTPAddr
	}
	if cfg.HTTP.ShutdownTimeout == "" {
		cfg.HTTP.ShutdownTimeout = defaultShutdownTimeout
	}
	if cfg.NATS.URL == "" {
		cfg.NATS.URL = defaultNATSURL
	}
	if cfg.NATS.Subject == "" {
		cfg.NATS.Subject = defaultNATSSubject
	}
	if cfg.Watch.Debounce == "" {
		cfg.Watch.Debounce = defaultDebounce
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = LogLevelInfo
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = LogFormatText
	}
}
