// Package config loads, defaults and validates the docsite configuration file.
package config

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
)

// DefaultPath is the configuration file used when --config is not given.
const DefaultPath = "docsite.yaml"

// Config represents the docsite configuration.
type Config struct {
	Version   string          `yaml:"version"`
	Paths     PathsConfig     `yaml:"paths"`
	JS        JSConfig        `yaml:"js"`
	CSS       CSSConfig       `yaml:"css"`
	HTML      HTMLConfig      `yaml:"html"`
	Sitemap   SitemapConfig   `yaml:"sitemap"`
	Lint      LintConfig      `yaml:"lint"`
	Serve     ServeConfig     `yaml:"serve"`
	Publish   PublishConfig   `yaml:"publish"`
	PageSpeed PageSpeedConfig `yaml:"pagespeed"`
	History   HistoryConfig   `yaml:"history"`
	Events    EventsConfig    `yaml:"events"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// PathsConfig locates the source tree, the output tree and the metadata documents.
type PathsConfig struct {
	Source  string `yaml:"source"`
	Output  string `yaml:"output"`
	Package string `yaml:"package"`
	Site    string `yaml:"site"`
	// Data maps a template data key to a JSON or YAML file.
	Data map[string]string `yaml:"data,omitempty"`
}

// JSConfig configures the js, jsmin and jshint tasks.
type JSConfig struct {
	// Entry is relative to paths.source. Empty means js/<pkg.name>.js.
	Entry     string   `yaml:"entry,omitempty"`
	OutDir    string   `yaml:"out_dir"`
	SourceMap *bool    `yaml:"source_map,omitempty"`
	Lint      []string `yaml:"lint"`
}

// CSSConfig configures the css and cssmin tasks.
type CSSConfig struct {
	// Entry is relative to paths.source. Empty means css/<pkg.name>.css.
	Entry     string   `yaml:"entry,omitempty"`
	OutDir    string   `yaml:"out_dir"`
	SourceMap *bool    `yaml:"source_map,omitempty"`
	Targets   []string `yaml:"targets"`
	Banner    string   `yaml:"banner"`
}

// HTMLConfig configures page rendering.
type HTMLConfig struct {
	Pages    []string `yaml:"pages"`
	Partials string   `yaml:"partials"`
	// DefaultLayout names the partial that wraps markdown pages without a layout key.
	DefaultLayout string `yaml:"default_layout,omitempty"`
	KeepComments  bool   `yaml:"keep_comments,omitempty"`
}

// SitemapConfig configures the sitemap task.
type SitemapConfig struct {
	File       string `yaml:"file"`
	ChangeFreq string `yaml:"changefreq"`
	Priority   string `yaml:"priority"`
	// SiteURL overrides pkg.homepage.
	SiteURL string `yaml:"site_url,omitempty"`
}

// LintConfig controls whether lint findings fail the run.
type LintConfig struct {
	FailOnError bool `yaml:"fail_on_error"`
}

// ServeConfig configures the development server and watch loop.
type ServeConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	LiveReload   *bool         `yaml:"livereload,omitempty"`
	Metrics      bool          `yaml:"metrics"`
	Debounce     time.Duration `yaml:"debounce"`
	PollInterval time.Duration `yaml:"poll_interval,omitempty"`
	Watch        []WatchConfig `yaml:"watch"`
}

// WatchConfig maps changed paths to a task.
type WatchConfig struct {
	Task     string   `yaml:"task"`
	Patterns []string `yaml:"patterns"`
	Reload   *bool    `yaml:"reload,omitempty"`
}

// PublishConfig holds the named publish targets.
type PublishConfig struct {
	Targets map[string]PublishTarget `yaml:"targets"`
}

// PublishTarget is one remote/branch pair the output tree can be pushed to.
type PublishTarget struct {
	Remote      string      `yaml:"remote"`
	Branch      string      `yaml:"branch"`
	Auth        *AuthConfig `yaml:"auth,omitempty"`
	Message     string      `yaml:"message"`
	AuthorName  string      `yaml:"author_name"`
	AuthorEmail string      `yaml:"author_email"`
}

// PageSpeedConfig configures the pagespeed task.
type PageSpeedConfig struct {
	// URL overrides pkg.homepage.
	URL      string        `yaml:"url,omitempty"`
	Strategy string        `yaml:"strategy"`
	Endpoint string        `yaml:"endpoint"`
	APIKey   string        `yaml:"api_key,omitempty"`
	Timeout  time.Duration `yaml:"timeout"`
	// Retry applies to transport failures and 429/5xx responses.
	Retry RetryConfig `yaml:"retry"`
}

// RetryConfig is a backoff policy for calls to remote services.
type RetryConfig struct {
	Backoff    string        `yaml:"backoff"`
	Initial    time.Duration `yaml:"initial"`
	Max        time.Duration `yaml:"max"`
	MaxRetries *int          `yaml:"max_retries,omitempty"`
}

// HistoryConfig configures the SQLite run history.
type HistoryConfig struct {
	Enabled *bool  `yaml:"enabled,omitempty"`
	Path    string `yaml:"path"`
}

// EventsConfig configures NATS fan-out of build events.
type EventsConfig struct {
	NATSURL string        `yaml:"nats_url,omitempty"`
	Subject string        `yaml:"subject"`
	Stream  string        `yaml:"stream"`
	Timeout time.Duration `yaml:"timeout"`
}

// LoggingConfig selects the slog level and handler.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// Load loads configuration from the specified file. A missing file at the
// default path yields the defaults so a bare checkout can still build.
func Load(configPath string) (*Config, error) {
	if err := loadEnvFiles(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
	case stderrors.Is(err, os.ErrNotExist) && configPath == DefaultPath:
		slog.Debug("No configuration file found, using defaults", "path", configPath)
		data = nil
	case stderrors.Is(err, os.ErrNotExist):
		return nil, errors.ConfigError("configuration file not found").
			WithContext("path", configPath).
			Build()
	default:
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to read config file").
			WithContext("path", configPath).
			Build()
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse expands ${VAR} references, decodes YAML, applies defaults and validates.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !stderrors.Is(err, io.EOF) {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to unmarshal config").Build()
	}

	if err := NewDefaultApplier().ApplyDefaults(&cfg); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to apply defaults").Build()
	}
	if err := ValidateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Target returns the named publish target.
func (c *Config) Target(name string) (PublishTarget, error) {
	t, ok := c.Publish.Targets[name]
	if !ok {
		return PublishTarget{}, errors.ConfigError(fmt.Sprintf("publish target %q is not configured", name)).
			WithContext("target", name).
			Build()
	}
	return t, nil
}

// LiveReloadEnabled reports whether the serve loop injects the reload client.
func (s ServeConfig) LiveReloadEnabled() bool { return boolValue(s.LiveReload, true) }

// ReloadEnabled reports whether a successful rebuild of this mapping notifies clients.
func (w WatchConfig) ReloadEnabled() bool { return boolValue(w.Reload, true) }

// SourceMapEnabled reports whether the js task emits an inline source map.
func (j JSConfig) SourceMapEnabled() bool { return boolValue(j.SourceMap, true) }

// SourceMapEnabled reports whether the css task emits an inline source map.
func (c CSSConfig) SourceMapEnabled() bool { return boolValue(c.SourceMap, true) }

// IsEnabled reports whether run history is recorded.
func (h HistoryConfig) IsEnabled() bool { return boolValue(h.Enabled, true) }

// Retries is max_retries, defaulting to 2.
func (r RetryConfig) Retries() int {
	if r.MaxRetries == nil {
		return 2
	}
	return *r.MaxRetries
}

func boolValue(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

// Bool returns a pointer to b, for building configs in code.
func Bool(b bool) *bool { return &b }
