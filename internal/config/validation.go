package config

import (
	"time"

	"git.home.luguber.info/inful/accctl/internal/foundation/errors"
	"git.home.luguber.info/inful/accctl/internal/foundation/normalization"
)

// ProfileBackend selects where profiles are stored.
type ProfileBackend string

const (
	ProfileBackendFS     ProfileBackend = "fs"
	ProfileBackendSQLite ProfileBackend = "sqlite"
)

var profileBackends = normalization.New("profile backend", map[string]ProfileBackend{
	"fs":     ProfileBackendFS,
	"file":   ProfileBackendFS,
	"files":  ProfileBackendFS,
	"sqlite": ProfileBackendSQLite,
}).WithDefault(ProfileBackendFS)

// Validate normalises enum fields in place and checks the remaining values.
func (c *Config) Validate() error {
	backend, err := profileBackends.Parse(string(c.Profiles.Backend))
	if err != nil {
		return configError(err, "profiles.backend")
	}
	c.Profiles.Backend = backend

	level, err := logLevels.Parse(string(c.Logging.Level))
	if err != nil {
		return configError(err, "logging.level")
	}
	c.Logging.Level = level

	format, err := logFormats.Parse(string(c.Logging.Format))
	if err != nil {
		return configError(err, "logging.format")
	}
	c.Logging.Format = format

	durations := []struct {
		field string
		value string
	}{
		{"poll.interval", c.Poll.Interval},
		{"watch.debounce", c.Watch.Debounce},
		{"http.shutdown_timeout", c.HTTP.ShutdownTimeout},
	}
	for _, d := range durations {
		parsed, err := time.ParseDuration(d.value)
		if err != nil || parsed <= 0 {
			return errors.ConfigError("invalid duration").
				WithContext("field", d.field).
				WithContext("value", d.value).
				Build()
		}
	}

	required := []struct {
		field string
		ok    bool
	}{
		{"acc.config_path", c.ACC.ConfigPath != ""},
		{"executor.shell", len(c.Executor.Shell) > 0},
		{"http.addr", c.HTTP.Addr != ""},
		{"profiles.directory", c.Profiles.Backend != ProfileBackendFS || c.Profiles.Directory != ""},
		{"profiles.sqlite_path", c.Profiles.Backend != ProfileBackendSQLite || c.Profiles.SQLitePath != ""},
		{"nats.url", !c.NATS.Enabled || c.NATS.URL != ""},
	}
	for _, r := range required {
		if !r.ok {
			return errors.ConfigError("missing required setting").WithContext("field", r.field).Build()
		}
	}
	return nil
}

func configError(err error, field string) error {
	return errors.WrapError(err, errors.CategoryConfig, "invalid setting").WithContext("field", field).Build()
}
