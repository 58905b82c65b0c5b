package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/neuronote/internal/export"
	"github.com/starford/neuronote/internal/summarizer"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Data    DataConfig        `yaml:"data"`
	SQLite  SQLiteConfig      `yaml:"sqlite"`
	Auth    AuthConfig        `yaml:"auth"`
	Summary SummaryConfig     `yaml:"summary"`
	Export  ExportConfig      `yaml:"export"`
	Watcher WatcherConfig     `yaml:"watcher"`
	SSE     SSEConfig         `yaml:"sse"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	for _, v := range []validation.Validatable{
		&c.App, &c.Data, &c.SQLite, &c.Auth, &c.Summary, &c.Export, &c.Watcher, &c.SSE,
	} {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// DataConfig points at the JSON document holding notes, trash and summaries.
type DataConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the data configuration.
func (c *DataConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// SQLiteConfig holds the search index database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local use.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// SummaryConfig tunes the extractive summary strategy.
type SummaryConfig struct {
	Ratio      float64 `yaml:"ratio"`
	RetryRatio float64 `yaml:"retry_ratio"`
	MinLength  int     `yaml:"min_length"`
}

// Validate validates the summary configuration.
func (c *SummaryConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Ratio, validation.Required, validation.Min(0.01), validation.Max(1.0)),
		validation.Field(&c.RetryRatio, validation.Required, validation.Min(0.01), validation.Max(1.0)),
		validation.Field(&c.MinLength, validation.Min(0)),
	)
}

// Strategy builds a TextRank strategy with these settings.
func (c *SummaryConfig) Strategy(logger *slog.Logger) *summarizer.Strategy {
	st := summarizer.NewStrategy(summarizer.NewTextRank())
	st.Ratio = c.Ratio
	st.RetryRatio = c.RetryRatio
	st.MinLength = c.MinLength
	st.Logger = logger
	return st
}

// ExportConfig holds export defaults.
type ExportConfig struct {
	// Dir is the CLI default target and the root that HTTP export requests
	// are confined to.
	Dir          string `yaml:"dir"`
	TitleLabel   string `yaml:"title_label"`
	ContentLabel string `yaml:"content_label"`
}

// Validate validates the export configuration.
func (c *ExportConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Dir, validation.Required),
		validation.Field(&c.TitleLabel, validation.Required),
		validation.Field(&c.ContentLabel, validation.Required),
	)
}

// Labels returns the text export field labels.
func (c *ExportConfig) Labels() export.Labels {
	return export.Labels{Title: c.TitleLabel, Content: c.ContentLabel}
}

// WatcherConfig controls reloading on external edits of the data file.
type WatcherConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Debounce time.Duration `yaml:"debounce"`
}

// Validate validates the watcher configuration.
func (c *WatcherConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Debounce, validation.Min(time.Duration(0))),
	)
}

// SSEConfig tunes the event stream.
type SSEConfig struct {
	ListThrottle time.Duration `yaml:"list_throttle"`
	Keepalive    time.Duration `yaml:"keepalive"`
}

// Validate validates the SSE configuration.
func (c *SSEConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.ListThrottle, validation.Min(time.Duration(0))),
		validation.Field(&c.Keepalive, validation.Min(time.Duration(0))),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Data: DataConfig{
			Path: "./notes.json",
		},
		SQLite: SQLiteConfig{
			Path: "./neuronote.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Summary: SummaryConfig{
			Ratio:      summarizer.DefaultRatio,
			RetryRatio: summarizer.DefaultRetryRatio,
			MinLength:  summarizer.DefaultMinLength,
		},
		Export: ExportConfig{
			Dir:          ".",
			TitleLabel:   export.DefaultLabels.Title,
			ContentLabel: export.DefaultLabels.Content,
		},
		Watcher: WatcherConfig{
			Enabled:  true,
			Debounce: 200 * time.Millisecond,
		},
		SSE: SSEConfig{
			ListThrottle: 2 * time.Second,
			Keepalive:    30 * time.Second,
		},
	}
}
