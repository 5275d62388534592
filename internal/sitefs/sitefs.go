// Package sitefs selects task inputs with doublestar globs and writes task
// outputs atomically.
package sitefs

import (
	"bytes"
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/natefinch/atomic"

	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
)

// Select returns the slash-separated paths, relative to root, of regular
// files matching at least one include pattern and no "!"-prefixed exclude
// pattern. Results are sorted. A missing root selects nothing.
func Select(root string, patterns []string) ([]string, error) {
	var include, exclude []string
	for _, p := range patterns {
		if rest, ok := strings.CutPrefix(p, "!"); ok {
			exclude = append(exclude, rest)
			continue
		}
		include = append(include, p)
	}

	var out []string
	err := fs.WalkDir(os.DirFS(root), ".", func(rel string, d fs.DirEntry, err error) error {
		if err != nil {
			if rel == "." && stderrors.Is(err, fs.ErrNotExist) {
				return fs.SkipAll
			}
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if matchAny(include, rel) && !matchAny(exclude, rel) {
			out = append(out, rel)
		}
		return nil
	})
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to select inputs").
			WithContext("root", root).
			Build()
	}
	slices.Sort(out)
	return out, nil
}

// Match reports whether rel matches the pattern list with Select's include/exclude rules.
func Match(patterns []string, rel string) bool {
	rel = filepath.ToSlash(rel)
	included := false
	for _, p := range patterns {
		if rest, ok := strings.CutPrefix(p, "!"); ok {
			if ok, _ := doublestar.Match(rest, rel); ok {
				return false
			}
			continue
		}
		if ok, _ := doublestar.Match(p, rel); ok {
			included = true
		}
	}
	return included
}

func matchAny(patterns []string, rel string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

// WriteFile creates parent directories and replaces path atomically.
func WriteFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to create output directory").
			WithContext("path", path).
			Build()
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write output").
			WithContext("path", path).
			Build()
	}
	return nil
}

// ReadFile reads path, classifying failures as filesystem errors.
func ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to read input").
			WithContext("path", path).
			Build()
	}
	return data, nil
}

// RemoveAll deletes dir and everything below it. A missing dir is not an error.
func RemoveAll(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to remove directory").
			WithContext("path", dir).
			Build()
	}
	return nil
}
