package config

import (
	"bytes"
	stderrors "errors"
	"os"

	"github.com/natefinch/atomic"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
)

// Init creates a new configuration file with example content.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return errors.ValidationError("configuration file already exists (use --force to overwrite)").
			WithContext("path", configPath).
			Build()
	} else if err != nil && !stderrors.Is(err, os.ErrNotExist) {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to stat config file").Build()
	}

	example := Example()
	data, err := yaml.Marshal(example)
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to marshal config").Build()
	}
	if err := atomic.WriteFile(configPath, bytes.NewReader(data)); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write config file").
			WithContext("path", configPath).
			Build()
	}
	return nil
}

// Example returns the configuration written by Init: defaults plus the
// production and staging publish targets.
func Example() *Config {
	cfg := &Config{
		Publish: PublishConfig{Targets: map[string]PublishTarget{
			"production": {
				Remote: "git@github.com:example/site.git",
				Auth:   &AuthConfig{Type: AuthTypeSSH, KeyPath: "${HOME}/.ssh/id_ed25519"},
			},
			"staging": {
				Remote: "https://github.com/example/staging.git",
				Auth:   &AuthConfig{Type: AuthTypeToken, Token: "${GITHUB_TOKEN}"},
			},
		}},
		Serve: ServeConfig{Metrics: true},
	}
	// Defaults cannot fail for this literal.
	_ = NewDefaultApplier().ApplyDefaults(cfg)
	cfg.PageSpeed.APIKey = ""
	return cfg
}
