package config

import (
	"fmt"
	"os"
	"path"
	"time"
)

// DefaultBanner is prepended to the css output, rendered with the package document as pkg.
const DefaultBanner = `/*!
 * {{.pkg.name}} - {{.pkg.description}}
 * Version {{.pkg.version}}
 * {{.pkg.homepage}}
 * Author : {{.pkg.author}}
 * License : {{.pkg.license}}
 */
`

// DefaultPageSpeedEndpoint is the PageSpeed Insights v5 API.
const DefaultPageSpeedEndpoint = "https://www.googleapis.com/pagespeedonline/v5/runPagespeed"

// ConfigDefaultApplier applies defaults for one configuration domain.
type ConfigDefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

// CompositeDefaultApplier applies defaults across all configuration domains.
type CompositeDefaultApplier struct {
	appliers []ConfigDefaultApplier
}

// NewDefaultApplier creates a composite default applier with all domain appliers.
// Paths must come first: asset and watch defaults are derived from them.
func NewDefaultApplier() *CompositeDefaultApplier {
	return &CompositeDefaultApplier{
		appliers: []ConfigDefaultApplier{
			&PathsDefaultApplier{},
			&AssetsDefaultApplier{},
			&HTMLDefaultApplier{},
			&ServeDefaultApplier{},
			&PublishDefaultApplier{},
			&PageSpeedDefaultApplier{},
			&ObservabilityDefaultApplier{},
		},
	}
}

// ApplyDefaults applies defaults for all configuration domains.
func (c *CompositeDefaultApplier) ApplyDefaults(cfg *Config) error {
	for _, applier := range c.appliers {
		if err := applier.ApplyDefaults(cfg); err != nil {
			return fmt.Errorf("applying defaults for %s: %w", applier.Domain(), err)
		}
	}
	return nil
}

// GetApplierByDomain returns a specific domain applier (useful for testing).
func (c *CompositeDefaultApplier) GetApplierByDomain(domain string) ConfigDefaultApplier {
	for _, applier := range c.appliers {
		if applier.Domain() == domain {
			return applier
		}
	}
	return nil
}

// PathsDefaultApplier handles paths defaults.
type PathsDefaultApplier struct{}

func (p *PathsDefaultApplier) Domain() string { return "paths" }

func (p *PathsDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Version == "" {
		cfg.Version = "1"
	}
	if cfg.Paths.Source == "" {
		cfg.Paths.Source = "src"
	}
	if cfg.Paths.Output == "" {
		cfg.Paths.Output = "gh-pages"
	}
	if cfg.Paths.Package == "" {
		cfg.Paths.Package = "package.json"
	}
	if cfg.Paths.Site == "" {
		cfg.Paths.Site = "site.yml"
	}
	return nil
}

// AssetsDefaultApplier handles js and css defaults.
type AssetsDefaultApplier struct{}

func (a *AssetsDefaultApplier) Domain() string { return "assets" }

func (a *AssetsDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.JS.OutDir == "" {
		cfg.JS.OutDir = "js"
	}
	if len(cfg.JS.Lint) == 0 {
		cfg.JS.Lint = []string{"**/*.js"}
	}
	if cfg.CSS.OutDir == "" {
		cfg.CSS.OutDir = "css"
	}
	if len(cfg.CSS.Targets) == 0 {
		cfg.CSS.Targets = []string{"chrome58", "edge16", "firefox57", "safari11"}
	}
	if cfg.CSS.Banner == "" {
		cfg.CSS.Banner = DefaultBanner
	}
	return nil
}

// HTMLDefaultApplier handles html and sitemap defaults.
type HTMLDefaultApplier struct{}

func (h *HTMLDefaultApplier) Domain() string { return "html" }

func (h *HTMLDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.HTML.Partials == "" {
		cfg.HTML.Partials = "partials"
	}
	if len(cfg.HTML.Pages) == 0 {
		cfg.HTML.Pages = []string{"**/*.tmpl", "**/*.md", "!" + cfg.HTML.Partials + "/**"}
	}
	if cfg.Sitemap.File == "" {
		cfg.Sitemap.File = "sitemap.xml"
	}
	if cfg.Sitemap.ChangeFreq == "" {
		cfg.Sitemap.ChangeFreq = "daily"
	}
	if cfg.Sitemap.Priority == "" {
		cfg.Sitemap.Priority = "0.5"
	}
	return nil
}

// ServeDefaultApplier handles serve and watch defaults.
type ServeDefaultApplier struct{}

func (s *ServeDefaultApplier) Domain() string { return "serve" }

func (s *ServeDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Serve.Host == "" {
		cfg.Serve.Host = "localhost"
	}
	if cfg.Serve.Port == 0 {
		cfg.Serve.Port = 3000
	}
	if cfg.Serve.Debounce <= 0 {
		cfg.Serve.Debounce = 100 * time.Millisecond
	}
	if len(cfg.Serve.Watch) == 0 {
		src := cfg.Paths.Source
		cfg.Serve.Watch = []WatchConfig{
			{Task: "css", Patterns: []string{path.Join(src, "css/**/*.css")}},
			{Task: "js", Patterns: []string{path.Join(src, "js/**/*.js")}},
			{Task: "html", Patterns: []string{
				path.Join(src, "**/*.tmpl"),
				path.Join(src, "**/*.md"),
				cfg.Paths.Site,
			}},
		}
	}
	return nil
}

// PublishDefaultApplier fills per-target defaults.
type PublishDefaultApplier struct{}

func (p *PublishDefaultApplier) Domain() string { return "publish" }

func (p *PublishDefaultApplier) ApplyDefaults(cfg *Config) error {
	for name, t := range cfg.Publish.Targets {
		if t.Branch == "" {
			t.Branch = "gh-pages"
		}
		if t.Message == "" {
			t.Message = "Update site"
		}
		if t.AuthorName == "" {
			t.AuthorName = "docsite"
		}
		if t.AuthorEmail == "" {
			t.AuthorEmail = "docsite@localhost"
		}
		cfg.Publish.Targets[name] = t
	}
	return nil
}

// PageSpeedDefaultApplier handles pagespeed defaults.
type PageSpeedDefaultApplier struct{}

func (p *PageSpeedDefaultApplier) Domain() string { return "pagespeed" }

func (p *PageSpeedDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.PageSpeed.Strategy == "" {
		cfg.PageSpeed.Strategy = "desktop"
	}
	if cfg.PageSpeed.Endpoint == "" {
		cfg.PageSpeed.Endpoint = DefaultPageSpeedEndpoint
	}
	if cfg.PageSpeed.APIKey == "" {
		cfg.PageSpeed.APIKey = os.Getenv("PAGESPEED_API_KEY")
	}
	if cfg.PageSpeed.Timeout <= 0 {
		cfg.PageSpeed.Timeout = 60 * time.Second
	}
	r := &cfg.PageSpeed.Retry
	if r.Backoff == "" {
		r.Backoff = "linear"
	}
	if r.Initial <= 0 {
		r.Initial = time.Second
	}
	if r.Max <= 0 {
		r.Max = 30 * time.Second
	}
	return nil
}

// ObservabilityDefaultApplier handles history, events and logging defaults.
type ObservabilityDefaultApplier struct{}

func (o *ObservabilityDefaultApplier) Domain() string { return "observability" }

func (o *ObservabilityDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.History.Path == "" {
		cfg.History.Path = ".docsite/history.db"
	}
	if cfg.Events.Subject == "" {
		cfg.Events.Subject = "docsite.events"
	}
	if cfg.Events.Stream == "" {
		cfg.Events.Stream = "DOCSITE_EVENTS"
	}
	if cfg.Events.Timeout <= 0 {
		cfg.Events.Timeout = 5 * time.Second
	}
	cfg.Logging.Level = NormalizeLogLevel(string(cfg.Logging.Level))
	cfg.Logging.Format = NormalizeLogFormat(string(cfg.Logging.Format))
	return nil
}
