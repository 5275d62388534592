package auth

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"

	"git.home.luguber.info/inful/docsite/internal/config"
)

// defaultTokenUser is the username most forges accept alongside an access token.
const defaultTokenUser = "token"

type noneProvider struct{}

func (noneProvider) Type() config.AuthType            { return config.AuthTypeNone }
func (noneProvider) Validate(*config.AuthConfig) error { return nil }
func (noneProvider) CreateAuth(*config.AuthConfig) (transport.AuthMethod, error) {
	return nil, nil
}

type sshProvider struct{}

func (sshProvider) Type() config.AuthType { return config.AuthTypeSSH }

func (sshProvider) Validate(cfg *config.AuthConfig) error {
	if cfg.KeyPath == "" {
		return stderrors.New("ssh authentication requires key_path")
	}
	if _, err := os.Stat(cfg.KeyPath); err != nil {
		return fmt.Errorf("ssh key %s: %w", cfg.KeyPath, err)
	}
	return nil
}

// CreateAuth loads the private key; Password, when set, is its passphrase.
func (sshProvider) CreateAuth(cfg *config.AuthConfig) (transport.AuthMethod, error) {
	user := cfg.Username
	if user == "" {
		user = "git"
	}
	keys, err := ssh.NewPublicKeysFromFile(user, cfg.KeyPath, cfg.Password)
	if err != nil {
		return nil, fmt.Errorf("load ssh key %s: %w", cfg.KeyPath, err)
	}
	return keys, nil
}

type tokenProvider struct{}

func (tokenProvider) Type() config.AuthType { return config.AuthTypeToken }

func (tokenProvider) Validate(cfg *config.AuthConfig) error {
	if cfg.Token == "" {
		return stderrors.New("token authentication requires a token")
	}
	return nil
}

func (tokenProvider) CreateAuth(cfg *config.AuthConfig) (transport.AuthMethod, error) {
	user := cfg.Username
	if user == "" {
		user = defaultTokenUser
	}
	return &http.BasicAuth{Username: user, Password: cfg.Token}, nil
}

type basicProvider struct{}

func (basicProvider) Type() config.AuthType { return config.AuthTypeBasic }

func (basicProvider) Validate(cfg *config.AuthConfig) error {
	if cfg.Username == "" {
		return stderrors.New("basic authentication requires a username")
	}
	if cfg.Password == "" {
		return stderrors.New("basic authentication requires a password")
	}
	return nil
}

func (basicProvider) CreateAuth(cfg *config.AuthConfig) (transport.AuthMethod, error) {
	return &http.BasicAuth{Username: cfg.Username, Password: cfg.Password}, nil
}
