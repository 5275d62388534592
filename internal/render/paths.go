package render

import (
	"path"
	"strings"
)

// OutputPath maps a page path relative to the source tree onto its output
// path relative to the output tree.
func OutputPath(rel string) string {
	dir, file := path.Split(rel)
	base := strings.TrimSuffix(file, path.Ext(file))
	if base == "index" {
		return path.Join(dir, "index.html")
	}
	return path.Join(dir, base, "index.html")
}

// URLPath returns the site-relative URL for an output path: "/" for the
// root index, "/docs/usage/" for docs/usage/index.html.
func URLPath(out string) string {
	dir := path.Dir(out)
	if path.Base(out) != "index.html" {
		return "/" + out
	}
	if dir == "." {
		return "/"
	}
	return "/" + dir + "/"
}

func partialName(rel string) string {
	return strings.TrimSuffix(rel, path.Ext(rel))
}
