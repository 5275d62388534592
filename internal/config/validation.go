package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/foundation/normalization"
)

var changeFreqs = normalization.NewNormalizer(map[string]string{
	"always": "always", "hourly": "hourly", "daily": "daily", "weekly": "weekly",
	"monthly": "monthly", "yearly": "yearly", "never": "never",
}, "daily")

var strategies = normalization.NewNormalizer(map[string]string{
	"desktop": "desktop",
	"mobile":  "mobile",
}, "desktop")

var backoffs = normalization.NewNormalizer(map[string]string{
	"fixed":       "fixed",
	"linear":      "linear",
	"exponential": "exponential",
}, "linear")

var authTypes = normalization.NewNormalizer(map[string]AuthType{
	"none":  AuthTypeNone,
	"ssh":   AuthTypeSSH,
	"token": AuthTypeToken,
	"basic": AuthTypeBasic,
}, AuthTypeNone)

// ValidateConfig validates the complete configuration structure.
func ValidateConfig(cfg *Config) error {
	return newConfigurationValidator(cfg).validate()
}

// configurationValidator coordinates validation across all configuration domains.
type configurationValidator struct {
	config *Config
}

func newConfigurationValidator(config *Config) *configurationValidator {
	return &configurationValidator{config: config}
}

func (cv *configurationValidator) validate() error {
	for _, check := range []func() error{
		cv.validatePaths,
		cv.validatePatterns,
		cv.validateServe,
		cv.validatePublish,
		cv.validateSitemap,
		cv.validatePageSpeed,
	} {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

func invalid(field, format string, args ...any) error {
	return errors.ValidationError(fmt.Sprintf(format, args...)).
		WithContext("field", field).
		Build()
}

func (cv *configurationValidator) validatePaths() error {
	p := cv.config.Paths
	out := filepath.Clean(p.Output)
	if out == "." || out == string(filepath.Separator) {
		return invalid("paths.output", "paths.output must name a dedicated directory, got %q", p.Output)
	}
	if out == filepath.Clean(p.Source) {
		return invalid("paths.output", "paths.output (%s) must differ from paths.source", p.Output)
	}
	rel, err := filepath.Rel(out, filepath.Clean(p.Source))
	if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return invalid("paths.output", "paths.source (%s) must not live inside paths.output (%s)", p.Source, p.Output)
	}
	return nil
}

func (cv *configurationValidator) validatePatterns() error {
	check := func(field string, patterns []string) error {
		for _, pat := range patterns {
			if !doublestar.ValidatePattern(strings.TrimPrefix(pat, "!")) {
				return invalid(field, "invalid glob pattern %q in %s", pat, field)
			}
		}
		return nil
	}
	if err := check("html.pages", cv.config.HTML.Pages); err != nil {
		return err
	}
	return check("js.lint", cv.config.JS.Lint)
}

func (cv *configurationValidator) validateServe() error {
	s := cv.config.Serve
	if s.Port < 1 || s.Port > 65535 {
		return invalid("serve.port", "serve.port must be between 1 and 65535, got %d", s.Port)
	}
	if s.PollInterval < 0 {
		return invalid("serve.poll_interval", "serve.poll_interval must not be negative")
	}
	for i, w := range s.Watch {
		field := fmt.Sprintf("serve.watch[%d]", i)
		if strings.TrimSpace(w.Task) == "" {
			return invalid(field, "%s: task cannot be empty", field)
		}
		if len(w.Patterns) == 0 {
			return invalid(field, "%s: at least one pattern is required", field)
		}
		for _, pat := range w.Patterns {
			if !doublestar.ValidatePattern(pat) {
				return invalid(field, "%s: invalid glob pattern %q", field, pat)
			}
		}
	}
	return nil
}

func (cv *configurationValidator) validatePublish() error {
	for name, t := range cv.config.Publish.Targets {
		field := "publish.targets." + name
		if strings.TrimSpace(t.Remote) == "" {
			return invalid(field, "%s: remote cannot be empty", field)
		}
		if strings.TrimSpace(t.Branch) == "" {
			return invalid(field, "%s: branch cannot be empty", field)
		}
		if err := validateAuth(field, t.Auth); err != nil {
			return err
		}
	}
	return nil
}

func validateAuth(field string, a *AuthConfig) error {
	if a == nil {
		return nil
	}
	t, err := authTypes.Parse(string(a.Type))
	if err != nil {
		return invalid(field, "%s: unsupported auth type: %v", field, err)
	}
	a.Type = t
	switch a.Type {
	case AuthTypeNone:
	case AuthTypeToken:
		if a.Token == "" {
			return invalid(field, "%s: token auth requires a token", field)
		}
	case AuthTypeBasic:
		if a.Username == "" || a.Password == "" {
			return invalid(field, "%s: basic auth requires username and password", field)
		}
	case AuthTypeSSH:
		if a.KeyPath == "" {
			return invalid(field, "%s: ssh auth requires key_path", field)
		}
	}
	return nil
}

// validateSitemap normalizes sitemap.changefreq in place.
func (cv *configurationValidator) validateSitemap() error {
	freq, err := changeFreqs.Parse(cv.config.Sitemap.ChangeFreq)
	if err != nil {
		return invalid("sitemap.changefreq", "sitemap.changefreq: %v", err)
	}
	cv.config.Sitemap.ChangeFreq = freq
	return nil
}

// validatePageSpeed normalizes pagespeed.strategy in place.
func (cv *configurationValidator) validatePageSpeed() error {
	s, err := strategies.Parse(cv.config.PageSpeed.Strategy)
	if err != nil {
		return invalid("pagespeed.strategy", "pagespeed.strategy must be desktop or mobile: %v", err)
	}
	cv.config.PageSpeed.Strategy = s

	r := &cv.config.PageSpeed.Retry
	b, err := backoffs.Parse(r.Backoff)
	if err != nil {
		return invalid("pagespeed.retry.backoff", "pagespeed.retry.backoff: %v", err)
	}
	r.Backoff = b
	if r.Retries() < 0 {
		return invalid("pagespeed.retry.max_retries", "pagespeed.retry.max_retries cannot be negative")
	}
	return nil
}
