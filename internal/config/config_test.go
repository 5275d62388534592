package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "docsite.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)

	assert.Equal(t, "src", cfg.Paths.Source)
	assert.Equal(t, "gh-pages", cfg.Paths.Output)
	assert.Equal(t, "package.json", cfg.Paths.Package)
	assert.Equal(t, "site.yml", cfg.Paths.Site)
	assert.Equal(t, []string{"**/*.tmpl", "**/*.md", "!partials/**"}, cfg.HTML.Pages)
	assert.Equal(t, 3000, cfg.Serve.Port)
	assert.Equal(t, 100*time.Millisecond, cfg.Serve.Debounce)
	assert.True(t, cfg.Serve.LiveReloadEnabled())
	assert.True(t, cfg.JS.SourceMapEnabled())
	assert.True(t, cfg.History.IsEnabled())
	assert.Equal(t, "daily", cfg.Sitemap.ChangeFreq)
	assert.Equal(t, "desktop", cfg.PageSpeed.Strategy)
	assert.Equal(t, LogLevelInfo, cfg.Logging.Level)
	assert.Equal(t, LogFormatText, cfg.Logging.Format)

	require.Len(t, cfg.Serve.Watch, 3)
	assert.Equal(t, "css", cfg.Serve.Watch[0].Task)
	assert.Equal(t, []string{"src/css/**/*.css"}, cfg.Serve.Watch[0].Patterns)
	assert.Contains(t, cfg.Serve.Watch[2].Patterns, "site.yml")
	for _, w := range cfg.Serve.Watch {
		assert.True(t, w.ReloadEnabled(), w.Task)
	}
}

func TestLoadExpandsEnvironment(t *testing.T) {
	t.Setenv("DOCSITE_TEST_TOKEN", "s3cret")
	path := writeConfig(t, `
paths:
  source: site-src
  output: public
publish:
  targets:
    production:
      remote: https://example.com/site.git
      auth:
        type: token
        token: ${DOCSITE_TEST_TOKEN}
serve:
  port: 8080
  poll_interval: 2s
  watch:
    - task: html
      patterns: ["site-src/**/*.tmpl"]
      reload: false
logging:
  level: DEBUG
  format: json
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	target, err := cfg.Target("production")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", target.Auth.Token)
	assert.Equal(t, "gh-pages", target.Branch)
	assert.Equal(t, "Update site", target.Message)

	assert.Equal(t, 8080, cfg.Serve.Port)
	assert.Equal(t, 2*time.Second, cfg.Serve.PollInterval)
	require.Len(t, cfg.Serve.Watch, 1)
	assert.False(t, cfg.Serve.Watch[0].ReloadEnabled())
	assert.Equal(t, LogLevelDebug, cfg.Logging.Level)
	assert.Equal(t, LogFormatJSON, cfg.Logging.Format)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	path := writeConfig(t, "pathz:\n  source: src\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestTargetNotConfigured(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	_, err = cfg.Target("staging")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "staging")
}

func TestAuthConfigIsZero(t *testing.T) {
	var missing *AuthConfig
	assert.True(t, missing.IsZero())
	assert.True(t, (&AuthConfig{}).IsZero())
	assert.True(t, (&AuthConfig{Type: AuthTypeNone}).IsZero())
	assert.False(t, (&AuthConfig{Type: AuthTypeToken, Token: "t"}).IsZero())
}

func TestValidation(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"output equals source", "paths:\n  source: site\n  output: site\n", "must differ"},
		{"source inside output", "paths:\n  source: out/src\n  output: out\n", "must not live inside"},
		{"bad port", "serve:\n  port: 70000\n", "serve.port"},
		{"bad glob", "html:\n  pages: [\"[\"]\n", "invalid glob"},
		{"empty watch task", "serve:\n  watch:\n    - patterns: [\"a\"]\n", "task cannot be empty"},
		{"missing remote", "publish:\n  targets:\n    production: {}\n", "remote cannot be empty"},
		{"token without token", "publish:\n  targets:\n    p:\n      remote: r\n      auth: {type: token}\n", "requires a token"},
		{"unknown auth", "publish:\n  targets:\n    p:\n      remote: r\n      auth: {type: kerberos}\n", "unsupported auth"},
		{"changefreq", "sitemap:\n  changefreq: sometimes\n", "changefreq"},
		{"strategy", "pagespeed:\n  strategy: tablet\n", "desktop or mobile"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
			assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
		})
	}
}

func TestInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docsite.yaml")
	require.NoError(t, Init(path, false))

	err := Init(path, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
	require.NoError(t, Init(path, true))

	t.Setenv("GITHUB_TOKEN", "tok")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, cfg.Publish.Targets, 2)
	assert.Equal(t, "tok", cfg.Publish.Targets["staging"].Auth.Token)
}

func TestNormalizeLogLevel(t *testing.T) {
	assert.Equal(t, LogLevelWarn, NormalizeLogLevel(" Warning "))
	assert.Equal(t, LogLevelInfo, NormalizeLogLevel("verbose"))
	assert.Equal(t, LogLevelError, NormalizeLogLevel("ERROR"))
	assert.Equal(t, slog.LevelDebug, LogLevelDebug.SlogLevel())
	assert.Equal(t, LogFormatJSON, NormalizeLogFormat("JSON"))
	assert.Equal(t, LogFormatText, NormalizeLogFormat("xml"))
}

func TestParseNormalizesEnums(t *testing.T) {
	cfg, err := Parse([]byte(`
sitemap:
  changefreq: " Weekly"
pagespeed:
  strategy: MOBILE
publish:
  targets:
    production:
      remote: git@example.com:site.git
      auth: {type: SSH, key_path: /tmp/key}
`))
	require.NoError(t, err)
	assert.Equal(t, "weekly", cfg.Sitemap.ChangeFreq)
	assert.Equal(t, "mobile", cfg.PageSpeed.Strategy)
	assert.Equal(t, AuthTypeSSH, cfg.Publish.Targets["production"].Auth.Type)
}
