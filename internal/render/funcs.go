package render

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/inful/mdfp"
	"github.com/yuin/goldmark"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const fingerprintLen = 12

func (r *Renderer) funcs() template.FuncMap {
	titler := cases.Title(language.English)
	return template.FuncMap{
		"lower":       strings.ToLower,
		"upper":       strings.ToUpper,
		"title":       titler.String,
		"markdown":    func(s string) (template.HTML, error) { return convertMarkdown(r.md, []byte(s)) },
		"join":        join,
		"default":     defaultValue,
		"safeHTML":    func(s string) template.HTML { return template.HTML(s) }, //nolint:gosec // explicit opt-in helper
		"fingerprint": r.fingerprint,
	}
}

func convertMarkdown(md goldmark.Markdown, src []byte) (template.HTML, error) {
	var buf bytes.Buffer
	if err := md.Convert(src, &buf); err != nil {
		return "", fmt.Errorf("markdown: %w", err)
	}
	return template.HTML(buf.String()), nil //nolint:gosec // author-controlled content
}

// join renders items separated by sep; items may be any slice.
func join(sep string, items any) string {
	v := reflect.ValueOf(items)
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		if items == nil {
			return ""
		}
		return fmt.Sprint(items)
	}
	parts := make([]string, v.Len())
	for i := range parts {
		parts[i] = fmt.Sprint(v.Index(i).Interface())
	}
	return strings.Join(parts, sep)
}

// defaultValue returns def when v is empty: {{ default "Untitled" .meta.title }}.
func defaultValue(def, v any) any {
	if v == nil {
		return def
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String, reflect.Slice, reflect.Map, reflect.Array:
		if rv.Len() == 0 {
			return def
		}
	case reflect.Bool:
		if !rv.Bool() {
			return def
		}
	case reflect.Int, reflect.Int64, reflect.Float64:
		if rv.IsZero() {
			return def
		}
	}
	return v
}

// fingerprint appends a content hash of an output-tree file as a cache-busting
// query: {{ fingerprint "css/drawer.css" }} -> css/drawer.css?v=1a2b3c4d5e6f.
// Files that do not exist yet are returned unchanged.
func (r *Renderer) fingerprint(rel string) (string, error) {
	data, err := os.ReadFile(filepath.Join(r.opts.OutputDir, filepath.FromSlash(strings.TrimPrefix(rel, "/"))))
	if err != nil {
		if os.IsNotExist(err) {
			return rel, nil
		}
		return "", err
	}
	sum := mdfp.CalculateFingerprintFromParts("", string(data))
	if len(sum) > fingerprintLen {
		sum = sum[:fingerprintLen]
	}
	return rel + "?v=" + sum, nil
}
