package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/robfig/cron/v3"

	"github.com/starford/wanderlog/internal/parser"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Content ContentConfig     `yaml:"content"`
	SQLite  SQLiteConfig      `yaml:"sqlite"`
	Refresh RefreshConfig     `yaml:"refresh"`
	Auth    AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	if err := c.Content.Validate(); err != nil {
		return fmt.Errorf("content: %w", err)
	}
	if err := c.SQLite.Validate(); err != nil {
		return fmt.Errorf("sqlite: %w", err)
	}
	if err := c.Refresh.Validate(); err != nil {
		return fmt.Errorf("refresh: %w", err)
	}
	return c.Auth.Validate()
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
	Port            int           `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.ShutdownTimeout, validation.Min(time.Duration(0))),
	)
}

// ContentConfig describes where posts live and the defaults applied to
// optional frontmatter fields.
type ContentConfig struct {
	Roots       []string `yaml:"roots"`
	Extensions  []string `yaml:"extensions"`
	Thumbnail   string   `yaml:"default_thumbnail"`
	AuthorName  string   `yaml:"default_author"`
	ReadingTime int      `yaml:"default_reading_time"`
	Workers     int      `yaml:"workers"`
}

// Validate validates the content configuration.
func (c *ContentConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Roots, validation.Required, validation.Each(validation.Required)),
		validation.Field(&c.Extensions, validation.Each(validation.Required, validation.By(dotted))),
		validation.Field(&c.ReadingTime, validation.Min(0)),
		validation.Field(&c.Workers, validation.Min(0)),
	)
}

// Defaults returns the parser defaults for absent frontmatter fields.
func (c *ContentConfig) Defaults() parser.Defaults {
	return parser.Defaults{
		Thumbnail:   c.Thumbnail,
		AuthorName:  c.AuthorName,
		ReadingTime: c.ReadingTime,
	}
}

func dotted(v any) error {
	s, _ := v.(string)
	if !strings.HasPrefix(s, ".") {
		return errors.New("must start with a dot")
	}
	return nil
}

// SQLiteConfig holds SQLite database configuration. An empty path disables
// the full-text mirror.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return nil
}

// Enabled reports whether the full-text mirror is configured.
func (c *SQLiteConfig) Enabled() bool {
	return c.Path != ""
}

// RefreshConfig controls when the index is rebuilt from disk.
//
// Schedule is a six-field cron expression (seconds first); empty disables the
// periodic rescan. Watch enables filesystem notifications.
type RefreshConfig struct {
	Schedule string        `yaml:"schedule"`
	Watch    bool          `yaml:"watch"`
	Debounce time.Duration `yaml:"debounce"`
	Throttle time.Duration `yaml:"events_throttle"`
}

var cronParser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Validate validates the refresh configuration.
func (c *RefreshConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Debounce, validation.Min(time.Duration(0))),
		validation.Field(&c.Throttle, validation.Min(time.Duration(0))),
	); err != nil {
		return err
	}
	if c.Schedule == "" {
		return nil
	}
	if _, err := cronParser.Parse(c.Schedule); err != nil {
		return fmt.Errorf("schedule %q: %w", c.Schedule, err)
	}
	return nil
}

// AuthConfig holds authentication configuration for the write endpoints.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): anyone may trigger a refresh, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
//
// Read endpoints are always public.
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

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port:            8080,
				ShutdownTimeout: 10 * time.Second,
			},
		},
		Content: ContentConfig{
			Roots:       []string{"./content/posts"},
			Extensions:  []string{".mdx"},
			Thumbnail:   parser.DefaultThumbnail,
			AuthorName:  parser.DefaultAuthorName,
			ReadingTime: parser.DefaultReadingTime,
		},
		SQLite: SQLiteConfig{
			Path: "./wanderlog.db",
		},
		Refresh: RefreshConfig{
			Schedule: "0 */15 * * * *",
			Watch:    true,
			Debounce: 200 * time.Millisecond,
			Throttle: 2 * time.Second,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
