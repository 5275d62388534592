// Package auth turns publish target credentials into go-git transport auth.
package auth

import (
	"fmt"

	"github.com/go-git/go-git/v5/plumbing/transport"

	"git.home.luguber.info/inful/docsite/internal/config"
	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
)

// Provider handles one authentication method.
type Provider interface {
	// Type returns the authentication type this provider handles.
	Type() config.AuthType

	// Validate checks the configuration before any credential is loaded.
	Validate(cfg *config.AuthConfig) error

	// CreateAuth returns nil, nil when the method needs no credentials.
	CreateAuth(cfg *config.AuthConfig) (transport.AuthMethod, error)
}

// Registry maps authentication types to providers.
type Registry struct {
	providers map[config.AuthType]Provider
}

// NewRegistry returns a registry with the none, ssh, token and basic providers.
func NewRegistry() *Registry {
	r := &Registry{providers: make(map[config.AuthType]Provider)}
	r.Register(noneProvider{})
	r.Register(sshProvider{})
	r.Register(tokenProvider{})
	r.Register(basicProvider{})
	return r
}

// Register adds or replaces the provider for p.Type().
func (r *Registry) Register(p Provider) {
	r.providers[p.Type()] = p
}

// CreateAuth validates cfg and builds the transport auth. A nil cfg means no auth.
func (r *Registry) CreateAuth(cfg *config.AuthConfig) (transport.AuthMethod, error) {
	if cfg.IsZero() {
		return nil, nil
	}

	p, ok := r.providers[cfg.Type]
	if !ok {
		return nil, errors.AuthError(fmt.Sprintf("unsupported authentication type %q", cfg.Type)).
			WithContext("type", string(cfg.Type)).
			Build()
	}
	if err := p.Validate(cfg); err != nil {
		return nil, errors.WrapError(err, errors.CategoryAuth, "invalid authentication configuration").
			WithContext("type", string(cfg.Type)).
			Build()
	}
	method, err := p.CreateAuth(cfg)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryAuth, "failed to create authentication").
			WithContext("type", string(cfg.Type)).
			Build()
	}
	return method, nil
}

// DefaultRegistry holds the standard providers.
var DefaultRegistry = NewRegistry()

// CreateAuth uses DefaultRegistry.
func CreateAuth(cfg *config.AuthConfig) (transport.AuthMethod, error) {
	return DefaultRegistry.CreateAuth(cfg)
}
