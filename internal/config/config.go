package config

import (
	"time"
)

// Config represents the complete revisit configuration
type Config struct {
	Browser  BrowserConfig  `yaml:"browser"`
	Sessions SessionsConfig `yaml:"sessions"`
	Wait     WaitConfig     `yaml:"wait"`
	Journal  JournalConfig  `yaml:"journal"`
	Log      LogConfig      `yaml:"log"`
	Meta     MetaConfig     `yaml:"meta"`
}

// BrowserConfig holds settings for the Chrome engine adapter
type BrowserConfig struct {
	Headless   bool   `yaml:"headless"`
	ChromePath string `yaml:"chrome_path,omitempty"` // autodetected when empty
	UserAgent  string `yaml:"user_agent,omitempty"`
	DebugPort  int    `yaml:"debug_port,omitempty"` // remote debugging port for attach mode
	WindowW    int    `yaml:"window_width,omitempty"`
	WindowH    int    `yaml:"window_height,omitempty"`
}

// SessionsConfig holds session persistence settings
type SessionsConfig struct {
	Dir string `yaml:"dir"` // defaults to .revisit/sessions under the project
}

// WaitConfig holds every timing knob for the wait bridge and readiness engine.
// All values are milliseconds so they round-trip cleanly through YAML.
type WaitConfig struct {
	PollIntervalMs     int `yaml:"poll_interval_ms"`
	LoadTimeoutMs      int `yaml:"load_timeout_ms"`
	DOMQuietMs         int `yaml:"dom_quiet_ms"`
	NetworkIdleMs      int `yaml:"network_idle_ms"`
	SettleDelayMs      int `yaml:"settle_delay_ms"`
	ConditionTimeoutMs int `yaml:"condition_timeout_ms"` // default per ready condition
	ActionTimeoutMs    int `yaml:"action_timeout_ms"`    // default per replayed action
}

// JournalConfig holds the run-history database settings
type JournalConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path,omitempty"` // defaults to .revisit/journal.db
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// MetaConfig holds metadata about the configuration
type MetaConfig struct {
	Version   string    `yaml:"version"`
	CreatedAt time.Time `yaml:"created_at"`
	UpdatedAt time.Time `yaml:"updated_at"`
}

// DefaultConfig returns a new config with sensible defaults
func DefaultConfig() *Config {
	now := time.Now()
	return &Config{
		Browser: BrowserConfig{
			Headless: true,
			WindowW:  1920,
			WindowH:  1080,
		},
		Sessions: SessionsConfig{
			Dir: ".revisit/sessions",
		},
		Wait: WaitConfig{
			PollIntervalMs:     50,
			LoadTimeoutMs:      10000,
			DOMQuietMs:         500,
			NetworkIdleMs:      500,
			SettleDelayMs:      500,
			ConditionTimeoutMs: 5000,
			ActionTimeoutMs:    5000,
		},
		Journal: JournalConfig{
			Enabled: true,
		},
		Log: LogConfig{
			Level: "info",
		},
		Meta: MetaConfig{
			Version:   "1.0.0",
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
}

// PollInterval returns the bridge polling interval as a duration
func (w WaitConfig) PollInterval() time.Duration {
	return millis(w.PollIntervalMs, 50*time.Millisecond)
}

// LoadTimeout returns the base document-load timeout as a duration
func (w WaitConfig) LoadTimeout() time.Duration {
	return millis(w.LoadTimeoutMs, 10*time.Second)
}

// DOMQuiet returns the DOM mutation quiet window as a duration
func (w WaitConfig) DOMQuiet() time.Duration {
	return millis(w.DOMQuietMs, 500*time.Millisecond)
}

// NetworkIdle returns the network idle window as a duration
func (w WaitConfig) NetworkIdle() time.Duration {
	return millis(w.NetworkIdleMs, 500*time.Millisecond)
}

// SettleDelay returns the post-readiness settle delay as a duration
func (w WaitConfig) SettleDelay() time.Duration {
	return millis(w.SettleDelayMs, 500*time.Millisecond)
}

// ConditionTimeout returns the default per-condition timeout as a duration
func (w WaitConfig) ConditionTimeout() time.Duration {
	return millis(w.ConditionTimeoutMs, 5*time.Second)
}

// ActionTimeout returns the default per-action timeout as a duration
func (w WaitConfig) ActionTimeout() time.Duration {
	return millis(w.ActionTimeoutMs, 5*time.Second)
}

func millis(ms int, fallback time.Duration) time.Duration {
	if ms <= 0 {
		return fallback
	}
	return time.Duration(ms) * time.Millisecond
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Sessions.Dir == "" {
		return NewValidationError("sessions.dir is required")
	}

	if c.Wait.PollIntervalMs < 0 {
		return NewValidationError("wait.poll_interval_ms must not be negative")
	}

	if c.Wait.LoadTimeoutMs < 0 {
		return NewValidationError("wait.load_timeout_ms must not be negative")
	}

	if c.Browser.DebugPort < 0 || c.Browser.DebugPort > 65535 {
		return NewValidationError("browser.debug_port must be a valid port")
	}

	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return NewValidationError("log.level must be one of debug, info, warn, error")
	}

	return nil
}

// ValidationError represents a configuration validation error
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return "config validation error: " + e.Message
}

// NewValidationError creates a new validation error
func NewValidationError(message string) error {
	return &ValidationError{Message: message}
}
