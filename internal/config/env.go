package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "ACCCTL_"

var envFiles = []string{".env", ".env.local"}

// loadEnvFiles loads .env/.env.local when present. Variables already set in
// the process environment win.
func loadEnvFiles() {
	for _, name := range envFiles {
		if _, err := os.Stat(name); err != nil {
			continue
		}
		_ = godotenv.Load(name)
	}
}

type envOverride struct {
	key   string
	apply func(cfg *Config, value string)
}

var envOverrides = []envOverride{
	{"ACC_CONFIG_PATH", func(c *Config, v string) { c.ACC.ConfigPath = v }},
	{"SHELL", func(c *Config, v string) { c.Executor.Shell = strings.Fields(v) }},
	{"PROFILES_BACKEND", func(c *Config, v string) { c.Profiles.Backend = ProfileBackend(v) }},
	{"PROFILES_DIR", func(c *Config, v string) { c.Profiles.Directory = v }},
	{"PROFILES_SQLITE_PATH", func(c *Config, v string) { c.Profiles.SQLitePath = v }},
	{"PREFERENCES_PATH", func(c *Config, v string) { c.Preferences.Path = v }},
	{"POLL_INTERVAL", func(c *Config, v string) { c.Poll.Interval = v }},
	{"HTTP_ADDR", func(c *Config, v string) { c.HTTP.Addr = v }},
	{"NATS_ENABLED", func(c *Config, v string) { c.NATS.Enabled = parseBool(v, c.NATS.Enabled) }},
	{"NATS_URL", func(c *Config, v string) { c.NATS.URL = v }},
	{"NATS_SUBJECT", func(c *Config, v string) { c.NATS.Subject = v }},
	{"WATCH_ENABLED", func(c *Config, v string) { c.Watch.Enabled = parseBool(v, c.Watch.Enabled) }},
	{"LOG_LEVEL", func(c *Config, v string) { c.Logging.Level = LogLevel(v) }},
	{"LOG_FORMAT", func(c *Config, v string) { c.Logging.Format = LogFormat(v) }},
}

func applyEnvOverrides(cfg *Config) {
	for _, o := range envOverrides {
		if v, ok := os.LookupEnv(EnvPrefix + o.key); ok && v != "" {
			o.apply(cfg, v)
		}
	}
}

func parseBool(raw string, fallback bool) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	return b
}
