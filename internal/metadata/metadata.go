// Package metadata loads the site metadata handed to every templating action:
// the package document, site.yml and any extra data files.
package metadata

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
)

// Site is read once per run and must not be mutated by actions.
type Site struct {
	Pkg  map[string]any
	Site map[string]any
	Data map[string]any
}

// Paths names the files Load reads.
type Paths struct {
	Package string
	Site    string
	// Data maps a key under data to a .json, .yml or .yaml file.
	Data map[string]string
}

// Load reads the package document (required), the site file (optional) and
// every data file (required).
func Load(p Paths) (*Site, error) {
	pkg, err := readDocument(p.Package)
	if err != nil {
		return nil, err
	}

	site, err := readDocument(p.Site)
	switch {
	case err == nil:
	case stderrors.Is(err, os.ErrNotExist):
		site = map[string]any{}
	default:
		return nil, err
	}

	data := make(map[string]any, len(p.Data))
	for key, path := range p.Data {
		doc, err := readDocument(path)
		if err != nil {
			return nil, err
		}
		data[key] = doc
	}

	return &Site{Pkg: pkg, Site: site, Data: data}, nil
}

func readDocument(path string) (map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if stderrors.Is(err, os.ErrNotExist) {
			return nil, errors.FileSystemError("metadata file not found").
				WithCause(err).
				WithContext("path", path).
				Build()
		}
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to read metadata file").
			WithContext("path", path).
			Build()
	}

	doc := map[string]any{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(raw, &doc)
	case ".yml", ".yaml":
		err = yaml.Unmarshal(raw, &doc)
	default:
		err = fmt.Errorf("unsupported metadata format %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to parse metadata file").
			WithContext("path", path).
			Build()
	}
	return doc, nil
}

// PkgString returns a top-level string field of the package document.
func (s *Site) PkgString(key string) string {
	if s == nil {
		return ""
	}
	v, _ := s.Pkg[key].(string)
	return v
}

// Name is pkg.name.
func (s *Site) Name() string { return s.PkgString("name") }

// Homepage is pkg.homepage.
func (s *Site) Homepage() string { return s.PkgString("homepage") }

// TemplateData returns the base data map every page is rendered with.
func (s *Site) TemplateData() map[string]any {
	return map[string]any{
		"pkg":  s.Pkg,
		"site": s.Site,
		"data": s.Data,
	}
}
