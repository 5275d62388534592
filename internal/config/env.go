package config

import (
	stderrors "errors"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
)

// envFiles are read in order; variables already present in the process
// environment are never overwritten.
var envFiles = []string{".env.local", ".env"}

func loadEnvFiles() error {
	for _, path := range envFiles {
		if _, err := os.Stat(path); stderrors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return errors.WrapError(err, errors.CategoryConfig, "failed to load environment file").
				WithContext("path", path).
				Build()
		}
		slog.Debug("Loaded environment variables", "path", path)
	}
	return nil
}
