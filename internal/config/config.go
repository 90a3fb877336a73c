package config

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config reads settings from the environment (and bound flags) through viper.
type Config struct{ v *viper.Viper }

func New() *Config {
	vv := viper.New()
	vv.AutomaticEnv()
	return &Config{v: vv}
}

// BindFlag makes a command line flag take precedence over the environment key.
func (c *Config) BindFlag(key string, flag *pflag.Flag) error {
	return c.v.BindPFlag(key, flag)
}

func (c *Config) Set(key string, value any) { c.v.Set(key, value) }

// LoadFile reads settings from a yaml, toml or json file and watches it for changes.
// Environment variables still take precedence.
func (c *Config) LoadFile(path string) error {
	c.v.SetConfigFile(path)
	if err := c.v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}
	c.v.WatchConfig()
	return nil
}

func (c *Config) getString(key, def string) string {
	if s := c.v.GetString(key); s != "" {
		return s
	}
	return def
}

func (c *Config) getDuration(key string, def time.Duration) time.Duration {
	if s := c.v.GetString(key); s != "" {
		if d, err := time.ParseDuration(s); err == nil {
			return d
		}
		slog.Warn("Ignoring invalid duration", "key", key, "value", s)
	}
	return def
}

// GetAddr returns ADDR, or HOST:PORT with defaults 0.0.0.0 and 8080.
func (c *Config) GetAddr() string {
	if addr := c.v.GetString("ADDR"); addr != "" {
		return addr
	}
	return c.getString("HOST", "0.0.0.0") + ":" + c.getString("PORT", "8080")
}

// GetGitHubUser returns the account whose public repositories fill the Projects section.
func (c *Config) GetGitHubUser() string { return c.getString("GITHUB_USER", "dipan-dev") }

func (c *Config) GetGitHubToken() string {
	if t := c.v.GetString("GITHUB_TOKEN"); t != "" {
		return t
	}
	return c.v.GetString("GH_TOKEN")
}

// GetProjectsTimeout bounds a single repository listing request. Defaults to 10s.
func (c *Config) GetProjectsTimeout() time.Duration {
	return c.getDuration("PROJECTS_TIMEOUT", 10*time.Second)
}

func (c *Config) GetDBPath() string { return c.getString("DB_PATH", "portfolio.db") }

// GetContentPath returns the YAML content file; empty means the embedded default.
func (c *Config) GetContentPath() string { return c.v.GetString("CONTENT_PATH") }

func (c *Config) GetResumePath() string { return c.getString("RESUME_PATH", "resume.pdf") }

// GetResumeMode returns "tab" or "overlay" (default).
func (c *Config) GetResumeMode() string {
	if strings.EqualFold(c.v.GetString("RESUME_MODE"), "tab") {
		return "tab"
	}
	return "overlay"
}

// SMTP holds mail settings for contact notifications.
type SMTP struct {
	Host string
	Port string
	User string
	Pass string
	To   string
}

// Enabled reports whether credentials and a recipient are present.
func (s SMTP) Enabled() bool { return s.User != "" && s.Pass != "" && s.To != "" }

func (c *Config) GetSMTP() SMTP {
	return SMTP{
		Host: c.getString("SMTP_HOST", "smtp.gmail.com"),
		Port: c.getString("SMTP_PORT", "587"),
		User: c.v.GetString("SMTP_USER"),
		Pass: c.v.GetString("SMTP_PASS"),
		To:   c.v.GetString("TO_EMAIL"),
	}
}

// GetNATSURL returns the NATS server for contact fan-out; empty disables publishing.
func (c *Config) GetNATSURL() string { return c.v.GetString("NATS_URL") }

func (c *Config) GetNATSSubject() string { return c.getString("NATS_SUBJECT", "portfolio.contact") }

// GetContactInterval is the token refill interval of the per-client contact limiter. Defaults to 10m.
func (c *Config) GetContactInterval() time.Duration {
	return c.getDuration("CONTACT_INTERVAL", 10*time.Minute)
}

func (c *Config) GetContactBurst() int {
	if n := c.v.GetInt("CONTACT_BURST"); n > 0 {
		return n
	}
	return 3
}

// GetVisitorRetention returns how long visitor rows are kept. Defaults to 12 months.
func (c *Config) GetVisitorRetention() time.Duration {
	return c.getDuration("VISITOR_RETENTION", 365*24*time.Hour)
}

func (c *Config) GetCleanupSchedule() string { return c.getString("CLEANUP_SCHEDULE", "@daily") }

// GetAdminCredentials returns ADMIN_USERNAME and ADMIN_PASSWORD. ok is false when either is unset.
func (c *Config) GetAdminCredentials() (user, pass string, ok bool) {
	user, pass = c.v.GetString("ADMIN_USERNAME"), c.v.GetString("ADMIN_PASSWORD")
	return user, pass, user != "" && pass != ""
}

func (c *Config) GetServiceName() string { return c.getString("SERVICE_NAME", "portfolio") }

// TelemetryEnabled reports whether an OTLP endpoint is configured.
func (c *Config) TelemetryEnabled() bool {
	return c.v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT") != "" ||
		c.v.GetString("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT") != ""
}

// GetTraceSampleRatio returns TRACE_SAMPLE_RATIO clamped to [0, 1]. Unset or invalid means 1.
func (c *Config) GetTraceSampleRatio() float64 {
	s := c.v.GetString("TRACE_SAMPLE_RATIO")
	if s == "" {
		return 1
	}
	r, err := strconv.ParseFloat(s, 64)
	if err != nil {
		slog.Warn("Ignoring invalid sample ratio", "value", s)
		return 1
	}
	return min(max(r, 0), 1)
}

// GetLogFormat returns "json" when LOG_FORMAT asks for it and "text" otherwise.
func (c *Config) GetLogFormat() string {
	if strings.EqualFold(c.v.GetString("LOG_FORMAT"), "json") {
		return "json"
	}
	return "text"
}

// GetLogLevel maps LOG_LEVEL to a slog.Level.
// Recognized values: debug, info (default), warn|warning, error.
func (c *Config) GetLogLevel() slog.Level {
	switch strings.ToLower(c.v.GetString("LOG_LEVEL")) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// OnLogLevelChange calls fn with the current level now and again whenever the config file changes.
func (c *Config) OnLogLevelChange(fn func(slog.Level)) {
	apply := func() { fn(c.GetLogLevel()) }
	apply()
	c.v.OnConfigChange(func(fsnotify.Event) { apply() })
}
