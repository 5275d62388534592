// Package frontmatter splits page sources into YAML front matter and body.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ErrMissingClosingDelimiter indicates the page opened a front matter block
// but never closed it.
var ErrMissingClosingDelimiter = errors.New("front matter start delimiter found but closing delimiter is missing")

// Page is a parsed page source.
type Page struct {
	// Meta is the decoded front matter; empty (never nil) when absent.
	Meta map[string]any
	Body []byte
	// HadFrontMatter reports whether a --- block was present.
	HadFrontMatter bool
}

// Parse splits content and decodes the front matter block.
func Parse(content []byte) (Page, error) {
	raw, body, had, err := Split(content)
	if err != nil {
		return Page{}, err
	}
	meta, err := ParseYAML(raw)
	if err != nil {
		return Page{}, fmt.Errorf("front matter: %w", err)
	}
	return Page{Meta: meta, Body: body, HadFrontMatter: had}, nil
}

// Split separates a leading `---` delimited block from the body. LF and
// CRLF line endings are accepted; the closing delimiter may end the file.
func Split(content []byte) (raw, body []byte, had bool, err error) {
	nl := "\n"
	if bytes.HasPrefix(content, []byte("---\r\n")) {
		nl = "\r\n"
	}
	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, content, false, nil
	}
	rest := content[len(open):]

	// Empty block: the closing delimiter follows immediately.
	if bytes.HasPrefix(rest, open) {
		return []byte{}, rest[len(open):], true, nil
	}
	if bytes.Equal(rest, []byte("---")) {
		return []byte{}, []byte{}, true, nil
	}

	closing := []byte(nl + "---" + nl)
	if idx := bytes.Index(rest, closing); idx >= 0 {
		return rest[:idx+len(nl)], rest[idx+len(closing):], true, nil
	}
	if trailer := []byte(nl + "---"); bytes.HasSuffix(rest, trailer) {
		return rest[:len(rest)-len(trailer)+len(nl)], []byte{}, true, nil
	}
	return nil, nil, false, ErrMissingClosingDelimiter
}

// ParseYAML parses raw front matter (without delimiters) into a map.
func ParseYAML(raw []byte) (map[string]any, error) {
	fields := map[string]any{}
	if len(bytes.TrimSpace(raw)) == 0 {
		return fields, nil
	}
	if err := yaml.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}
