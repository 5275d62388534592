package render

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"maps"
	"path"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/frontmatter"
	"git.home.luguber.info/inful/docsite/internal/logfields"
	"git.home.luguber.info/inful/docsite/internal/metadata"
	"git.home.luguber.info/inful/docsite/internal/sitefs"
)

var partialPatterns = []string{"**/*.tmpl", "**/*.html"}

// Options locates pages, partials and the output tree.
type Options struct {
	SourceDir string
	OutputDir string
	// Pages are globs relative to SourceDir; "!" excludes.
	Pages []string
	// Partials is a directory relative to SourceDir.
	Partials      string
	DefaultLayout string
}

// Renderer renders pages. It holds no per-run state and is safe to reuse.
type Renderer struct {
	opts Options
	md   goldmark.Markdown
}

// New returns a renderer for opts.
func New(opts Options) *Renderer {
	return &Renderer{
		opts: opts,
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
			goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
		),
	}
}

// Result describes one rendered page.
type Result struct {
	Source string
	Output string
	URL    string
}

// Render renders every selected page with site as template data and returns
// the written pages in source order.
func (r *Renderer) Render(ctx context.Context, site *metadata.Site) ([]Result, error) {
	base, err := r.loadPartials()
	if err != nil {
		return nil, err
	}

	pages, err := sitefs.Select(r.opts.SourceDir, r.opts.Pages)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(pages))
	for _, rel := range pages {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res, err := r.renderPage(base, site, rel)
		if err != nil {
			return results, errors.BuildError("failed to render page").
				WithCause(err).
				WithContext("path", rel).
				Build()
		}
		slog.Debug("Rendered page", logfields.Path(res.Output))
		results = append(results, res)
	}
	return results, nil
}

func (r *Renderer) loadPartials() (*template.Template, error) {
	base := template.New("").Funcs(r.funcs())
	dir := filepath.Join(r.opts.SourceDir, r.opts.Partials)
	files, err := sitefs.Select(dir, partialPatterns)
	if err != nil {
		return nil, err
	}
	for _, rel := range files {
		src, err := sitefs.ReadFile(filepath.Join(dir, filepath.FromSlash(rel)))
		if err != nil {
			return nil, err
		}
		if _, err := base.New(partialName(rel)).Parse(string(src)); err != nil {
			return nil, errors.BuildError("failed to parse partial").
				WithCause(err).
				WithContext("path", path.Join(r.opts.Partials, rel)).
				Build()
		}
	}
	return base, nil
}

func (r *Renderer) renderPage(base *template.Template, site *metadata.Site, rel string) (Result, error) {
	src, err := sitefs.ReadFile(filepath.Join(r.opts.SourceDir, filepath.FromSlash(rel)))
	if err != nil {
		return Result{}, err
	}
	page, err := frontmatter.Parse(src)
	if err != nil {
		return Result{}, err
	}
	fp, err := frontmatter.Fingerprint(page.Meta, page.Body)
	if err != nil {
		return Result{}, err
	}

	out := OutputPath(rel)
	res := Result{Source: rel, Output: out, URL: URLPath(out)}

	data := map[string]any{}
	if site != nil {
		maps.Copy(data, site.TemplateData())
	}
	data["meta"] = page.Meta
	data["page"] = map[string]any{
		"source":      rel,
		"path":        out,
		"url":         res.URL,
		"fingerprint": fp,
	}

	tpl, err := base.Clone()
	if err != nil {
		return Result{}, err
	}

	var buf bytes.Buffer
	if strings.EqualFold(path.Ext(rel), ".md") {
		err = r.renderMarkdown(&buf, tpl, page, data)
	} else {
		err = r.renderTemplate(&buf, tpl, rel, page, data)
	}
	if err != nil {
		return Result{}, err
	}

	if err := sitefs.WriteFile(filepath.Join(r.opts.OutputDir, filepath.FromSlash(out)), buf.Bytes()); err != nil {
		return Result{}, err
	}
	return res, nil
}

func (r *Renderer) renderTemplate(buf *bytes.Buffer, tpl *template.Template, rel string, page frontmatter.Page, data map[string]any) error {
	t, err := tpl.New("page:" + rel).Parse(string(page.Body))
	if err != nil {
		return err
	}
	return t.Execute(buf, data)
}

func (r *Renderer) renderMarkdown(buf *bytes.Buffer, tpl *template.Template, page frontmatter.Page, data map[string]any) error {
	content, err := convertMarkdown(r.md, page.Body)
	if err != nil {
		return err
	}
	layout, _ := page.Meta["layout"].(string)
	if layout == "" {
		layout = r.opts.DefaultLayout
	}
	if layout == "" {
		buf.WriteString(string(content))
		return nil
	}
	if tpl.Lookup(layout) == nil {
		return fmt.Errorf("layout %q is not a known partial", layout)
	}
	data["content"] = content
	return tpl.ExecuteTemplate(buf, layout, data)
}
