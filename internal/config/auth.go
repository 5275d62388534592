package config

// AuthType selects how publish pushes authenticate to the remote.
type AuthType string

const (
	AuthTypeNone  AuthType = "none"
	AuthTypeSSH   AuthType = "ssh"
	AuthTypeToken AuthType = "token"
	AuthTypeBasic AuthType = "basic"
)

// AuthConfig is the auth block of a publish target. Secrets are usually
// written as ${VAR} and filled from the environment or .env at load time.
type AuthConfig struct {
	Type     AuthType `yaml:"type"`
	Username string   `yaml:"username,omitempty"`
	Password string   `yaml:"password,omitempty"`
	Token    string   `yaml:"token,omitempty"`
	// KeyPath is a private key file for ssh; ~ is not expanded.
	KeyPath string `yaml:"key_path,omitempty"`
}

// IsZero reports whether pushes go unauthenticated. A nil block counts.
func (a *AuthConfig) IsZero() bool {
	return a == nil || a.Type == "" || a.Type == AuthTypeNone
}
