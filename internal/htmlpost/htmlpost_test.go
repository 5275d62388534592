package htmlpost

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/report"
)

const goodPage = `<!DOCTYPE html>
<html>
  <head>
    <title>Docs</title>
  </head>
  <body>
    <!-- nav -->
    <p id="intro">Hello   <b>world</b></p>
    <img src="a.png" alt="">
  </body>
</html>
`

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return dir
}

func rules(issues []report.Issue) []string {
	out := make([]string, 0, len(issues))
	for _, i := range issues {
		out = append(out, i.Rule)
	}
	return out
}

func TestMinifyCollapsesWhitespace(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"index.html":       goodPage,
		"about/index.html": goodPage,
		"css/site.css":     "body {  }",
	})

	n, err := Minify(context.Background(), dir, MinifyOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	b, err := os.ReadFile(filepath.Join(dir, "index.html"))
	require.NoError(t, err)
	got := string(b)
	assert.Less(t, len(got), len(goodPage))
	assert.NotContains(t, got, "\n    ")
	assert.NotContains(t, got, "<!-- nav -->")
	assert.Contains(t, got, "</html>")
	assert.Contains(t, got, "<title>Docs</title>")

	css, err := os.ReadFile(filepath.Join(dir, "css/site.css"))
	require.NoError(t, err)
	assert.Equal(t, "body {  }", string(css))
}

func TestMinifyKeepsCommentsWhenAsked(t *testing.T) {
	dir := writeTree(t, map[string]string{"index.html": goodPage})

	_, err := Minify(context.Background(), dir, MinifyOptions{KeepComments: true})
	require.NoError(t, err)

	b, err := os.ReadFile(filepath.Join(dir, "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(b), "<!-- nav -->")
}

func TestLintDocumentCleanPage(t *testing.T) {
	assert.Empty(t, LintDocument("index.html", []byte(goodPage)))
}

func TestLintDocumentFindings(t *testing.T) {
	page := `<html>
<head></head>
<body>
<div id="a"></div>
<div id="a"></div>
<img src="">
<a href="">x</a>
<section>
</body>
</html>
`
	issues := LintDocument("bad.html", []byte(page))
	got := rules(issues)

	assert.Contains(t, got, RuleDoctypeFirst)
	assert.Contains(t, got, RuleTitleRequire)
	assert.Contains(t, got, RuleIDUnique)
	assert.Contains(t, got, RuleAltRequire)
	assert.Contains(t, got, RuleSrcNotEmpty)
	assert.Contains(t, got, RuleHrefNotEmpty)
	assert.Contains(t, got, RuleTagPair)

	for _, i := range issues {
		switch i.Rule {
		case RuleDoctypeFirst:
			assert.Equal(t, 1, i.Line)
			assert.Equal(t, 1, i.Column)
		case RuleIDUnique:
			assert.Equal(t, 5, i.Line)
		case RuleTagPair:
			assert.Equal(t, 8, i.Line)
			assert.Contains(t, i.Message, "</section>")
		case RuleTitleRequire:
			assert.Equal(t, 2, i.Line)
		case RuleAltRequire:
			assert.Equal(t, report.SeverityWarning, i.Severity)
		}
	}
}

func TestLintDocumentEmptyTitleAndStrayEndTag(t *testing.T) {
	page := "<!DOCTYPE html>\n<html><head><title> </title></head><body></span></body></html>"
	issues := LintDocument("x.html", []byte(page))
	require.Len(t, issues, 2)
	assert.Equal(t, RuleTagPair, issues[0].Rule)
	assert.Contains(t, issues[0].Message, "no start tag")
	assert.Equal(t, 2, issues[0].Line)
	assert.Equal(t, RuleTitleRequire, issues[1].Rule)
	assert.Contains(t, issues[1].Message, "must not be empty")
}

func TestLintDocumentDuplicateAttribute(t *testing.T) {
	page := "<!DOCTYPE html><html><head><title>t</title></head><body><p class=a class=b>x</p></body></html>"
	assert.Equal(t, []string{RuleAttrNoDuplicates}, rules(LintDocument("x.html", []byte(page))))
}

func TestLintWalksTree(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"index.html":      goodPage,
		"docs/index.html": "<p>no doctype</p>",
	})
	res := report.NewResult("htmlhint")
	require.NoError(t, Lint(context.Background(), dir, res))

	assert.Equal(t, 2, res.FilesTotal)
	assert.True(t, res.HasErrors())
	for _, i := range res.Issues() {
		assert.Equal(t, "docs/index.html", i.File)
	}
}

func TestSitemapListsPagesInOrder(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"index.html":       goodPage,
		"guide/index.html": goodPage,
		"about/index.html": goodPage,
		"404.html":         goodPage,
		"js/site.js":       "",
	})

	locs, err := Sitemap(dir, SitemapOptions{
		File:       "sitemap.xml",
		BaseURL:    "https://example.org/docs",
		ChangeFreq: "daily",
		Priority:   "0.5",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://example.org/docs/404.html",
		"https://example.org/docs/about/",
		"https://example.org/docs/guide/",
		"https://example.org/docs/",
	}, locs)

	b, err := os.ReadFile(filepath.Join(dir, "sitemap.xml"))
	require.NoError(t, err)
	got := string(b)
	assert.True(t, strings.HasPrefix(got, `<?xml version="1.0" encoding="UTF-8"?>`))
	assert.Contains(t, got, `<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`)
	assert.Contains(t, got, "<loc>https://example.org/docs/about/</loc>")
	assert.Contains(t, got, "<changefreq>daily</changefreq>")
	assert.Contains(t, got, "<priority>0.5</priority>")
	assert.NotContains(t, got, "lastmod")
}

func TestSitemapRequiresBaseURL(t *testing.T) {
	for _, base := range []string{"", "/relative", "example.org"} {
		_, err := Sitemap(t.TempDir(), SitemapOptions{File: "sitemap.xml", BaseURL: base})
		require.Error(t, err, base)
		assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
	}
}

func TestPagePath(t *testing.T) {
	assert.Equal(t, "", PagePath("index.html"))
	assert.Equal(t, "a/b/", PagePath("a/b/index.html"))
	assert.Equal(t, "404.html", PagePath("404.html"))
}
