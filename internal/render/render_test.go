package render

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/metadata"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, body := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	}
}

func readOut(t *testing.T, root, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}

func testSite() *metadata.Site {
	return &metadata.Site{
		Pkg:  map[string]any{"name": "drawer", "version": "3.2.2"},
		Site: map[string]any{"title": "drawer docs"},
		Data: map[string]any{"drawerPkg": map[string]any{"version": "1.0.0"}},
	}
}

func newRenderer(src, out string) *Renderer {
	return New(Options{
		SourceDir: src,
		OutputDir: out,
		Pages:     []string{"**/*.tmpl", "**/*.md", "!partials/**"},
		Partials:  "partials",
	})
}

func TestOutputPath(t *testing.T) {
	assert.Equal(t, "index.html", OutputPath("index.tmpl"))
	assert.Equal(t, "docs/index.html", OutputPath("docs/index.md"))
	assert.Equal(t, "usage/index.html", OutputPath("usage.tmpl"))
	assert.Equal(t, "docs/api/index.html", OutputPath("docs/api.md"))
}

func TestURLPath(t *testing.T) {
	assert.Equal(t, "/", URLPath("index.html"))
	assert.Equal(t, "/docs/api/", URLPath("docs/api/index.html"))
	assert.Equal(t, "/404.html", URLPath("404.html"))
}

func TestRender(t *testing.T) {
	src := t.TempDir()
	out := t.TempDir()
	writeTree(t, src, map[string]string{
		"partials/head.tmpl": `<title>{{ default .site.title .meta.title }}</title>`,
		"partials/layouts/doc.tmpl": `<!DOCTYPE html><html>{{template "head" .}}<body>{{ .content }}</body></html>`,
		"index.tmpl": "---\ntitle: home page\ntags: [a, b]\n---\n" +
			`<!DOCTYPE html><html>{{template "head" .}}<body><h1>{{ title .meta.title }}</h1>` +
			`<p>{{ upper .pkg.name }} {{ .data.drawerPkg.version }} {{ join ", " .meta.tags }}</p>` +
			`<p>{{ .page.url }}</p><div>{{ markdown "*hi*" }}</div><i>{{ "<b>" }}</i></body></html>`,
		"usage.md": "---\nlayout: layouts/doc\n---\n# Usage\n\nText.\n",
		"raw.md":   "plain *markdown*\n",
	})

	results, err := newRenderer(src, out).Render(context.Background(), testSite())
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "index.tmpl", results[0].Source)
	assert.Equal(t, "raw/index.html", results[1].Output)
	assert.Equal(t, "/usage/", results[2].URL)

	index := readOut(t, out, "index.html")
	assert.Contains(t, index, "<title>home page</title>")
	assert.Contains(t, index, "<h1>Home Page</h1>")
	assert.Contains(t, index, "<p>DRAWER 1.0.0 a, b</p>")
	assert.Contains(t, index, "<p>/</p>")
	assert.Contains(t, index, "<em>hi</em>")
	assert.Contains(t, index, "&lt;b&gt;")

	usage := readOut(t, out, "usage/index.html")
	assert.Contains(t, usage, "<title>drawer docs</title>")
	assert.Contains(t, usage, `<h1 id="usage">Usage</h1>`)

	assert.Equal(t, "<p>plain <em>markdown</em></p>\n", readOut(t, out, "raw/index.html"))
	_, err = os.Stat(filepath.Join(out, "partials"))
	assert.True(t, os.IsNotExist(err))
}

func TestRenderIsDeterministic(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src, map[string]string{
		"index.tmpl": "---\nb: 2\na: 1\n---\n{{ range $k, $v := .meta }}{{ $k }}={{ $v }};{{ end }}{{ .page.fingerprint }}",
	})

	out1, out2 := t.TempDir(), t.TempDir()
	_, err := newRenderer(src, out1).Render(context.Background(), testSite())
	require.NoError(t, err)
	_, err = newRenderer(src, out2).Render(context.Background(), testSite())
	require.NoError(t, err)

	first := readOut(t, out1, "index.html")
	assert.Equal(t, first, readOut(t, out2, "index.html"))
	assert.Contains(t, first, "a=1;b=2;")
}

func TestRenderFingerprintHelper(t *testing.T) {
	src := t.TempDir()
	out := t.TempDir()
	writeTree(t, out, map[string]string{"css/drawer.css": "body{}"})
	writeTree(t, src, map[string]string{
		"index.tmpl": `<link href="{{ fingerprint "css/drawer.css" }}"><script src="{{ fingerprint "js/missing.js" }}"></script>`,
	})

	_, err := newRenderer(src, out).Render(context.Background(), testSite())
	require.NoError(t, err)
	html := readOut(t, out, "index.html")
	assert.Regexp(t, `href="css/drawer.css\?v=[^"]+"`, html)
	assert.Contains(t, html, `src="js/missing.js"`)
}

func TestRenderErrors(t *testing.T) {
	cases := map[string]map[string]string{
		"bad template":   {"index.tmpl": "{{ .meta.title "},
		"missing layout": {"a.md": "---\nlayout: nope\n---\nx"},
		"bad partial":    {"partials/x.tmpl": "{{ end }}", "index.tmpl": "ok"},
		"unclosed front": {"index.tmpl": "---\ntitle: x\n"},
	}
	for name, files := range cases {
		t.Run(name, func(t *testing.T) {
			src := t.TempDir()
			writeTree(t, src, files)
			_, err := newRenderer(src, t.TempDir()).Render(context.Background(), testSite())
			require.Error(t, err)
			assert.True(t, errors.HasCategory(err, errors.CategoryBuild))
		})
	}
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, "x", defaultValue("x", ""))
	assert.Equal(t, "x", defaultValue("x", nil))
	assert.Equal(t, "y", defaultValue("x", "y"))
	assert.Equal(t, 3, defaultValue(1, 3))
	assert.Equal(t, "a-b", join("-", []string{"a", "b"}))
	assert.Equal(t, "1|2", join("|", []any{1, 2}))
	assert.Equal(t, "", join(",", nil))
}
