package htmlpost

import (
	"bytes"
	"encoding/xml"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/sitefs"
)

const sitemapNS = "http://www.sitemaps.org/schemas/sitemap/0.9"

// SitemapOptions configures sitemap generation.
type SitemapOptions struct {
	// File is the sitemap path relative to the output tree.
	File string
	// BaseURL prefixes every page path.
	BaseURL    string
	ChangeFreq string
	Priority   string
}

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc        string `xml:"loc"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

// Sitemap writes opts.File below dir listing every html page, sorted by
// path. It returns the locations written.
func Sitemap(dir string, opts SitemapOptions) ([]string, error) {
	base, err := baseURL(opts.BaseURL)
	if err != nil {
		return nil, err
	}
	files, err := sitefs.Select(dir, HTMLPatterns)
	if err != nil {
		return nil, err
	}

	set := urlSet{Xmlns: sitemapNS, URLs: make([]sitemapURL, 0, len(files))}
	locs := make([]string, 0, len(files))
	for _, rel := range files {
		loc := base.ResolveReference(&url.URL{Path: PagePath(rel)}).String()
		locs = append(locs, loc)
		set.URLs = append(set.URLs, sitemapURL{
			Loc:        loc,
			ChangeFreq: opts.ChangeFreq,
			Priority:   opts.Priority,
		})
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(set); err != nil {
		return nil, errors.BuildError("failed to encode sitemap").WithCause(err).Build()
	}
	buf.WriteByte('\n')

	if err := sitefs.WriteFile(filepath.Join(dir, filepath.FromSlash(opts.File)), buf.Bytes()); err != nil {
		return nil, err
	}
	return locs, nil
}

// PagePath maps an html file to the path it is served at: "index.html"
// files are addressed by their directory.
func PagePath(rel string) string {
	if path.Base(rel) == "index.html" {
		return strings.TrimSuffix(rel, "index.html")
	}
	return rel
}

func baseURL(raw string) (*url.URL, error) {
	if raw == "" {
		return nil, errors.ConfigError("sitemap needs pkg.homepage or sitemap.site_url").Build()
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.ConfigError("sitemap base url must be absolute").
			WithContext("url", raw).
			Build()
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u, nil
}
