package buildplan

import (
	"context"
	"log/slog"
	"path/filepath"

	"git.home.luguber.info/inful/docsite/internal/assets"
	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/htmlpost"
	"git.home.luguber.info/inful/docsite/internal/logfields"
	"git.home.luguber.info/inful/docsite/internal/metadata"
	"git.home.luguber.info/inful/docsite/internal/publish"
	"git.home.luguber.info/inful/docsite/internal/render"
	"git.home.luguber.info/inful/docsite/internal/report"
	"git.home.luguber.info/inful/docsite/internal/sitefs"
	"git.home.luguber.info/inful/docsite/internal/tasks"
)

const siteMemoKey = "site"

// site loads the metadata once per run.
func (p *plan) site(run *tasks.Run) (*metadata.Site, error) {
	return tasks.MemoOf(run, siteMemoKey, func() (*metadata.Site, error) {
		data := make(map[string]string, len(p.cfg.Paths.Data))
		for k, v := range p.cfg.Paths.Data {
			data[k] = p.path(v)
		}
		return metadata.Load(metadata.Paths{
			Package: p.path(p.cfg.Paths.Package),
			Site:    p.path(p.cfg.Paths.Site),
			Data:    data,
		})
	})
}

// siteName is pkg.name, which names the js and css entry points and outputs.
func (p *plan) siteName(run *tasks.Run) (string, error) {
	site, err := p.site(run)
	if err != nil {
		return "", err
	}
	name := site.Name()
	if name == "" {
		return "", errors.ConfigError("package document has no name").
			WithContext("path", p.cfg.Paths.Package).
			Build()
	}
	return name, nil
}

func (p *plan) jsBundle(run *tasks.Run) (assets.Bundle, error) {
	name, err := p.siteName(run)
	if err != nil {
		return assets.Bundle{}, err
	}
	entry := p.cfg.JS.Entry
	if entry == "" {
		entry = filepath.Join("js", name+".js")
	}
	return assets.Bundle{
		Entry:     filepath.Join(p.sourceDir(), entry),
		Outfile:   filepath.Join(p.outputDir(), p.cfg.JS.OutDir, name+".js"),
		SourceMap: p.cfg.JS.SourceMapEnabled(),
	}, nil
}

func (p *plan) cssBundle(run *tasks.Run) (assets.Bundle, error) {
	name, err := p.siteName(run)
	if err != nil {
		return assets.Bundle{}, err
	}
	entry := p.cfg.CSS.Entry
	if entry == "" {
		entry = filepath.Join("css", name+".css")
	}
	return assets.Bundle{
		Entry:     filepath.Join(p.sourceDir(), entry),
		Outfile:   filepath.Join(p.outputDir(), p.cfg.CSS.OutDir, name+".css"),
		SourceMap: p.cfg.CSS.SourceMapEnabled(),
		Targets:   p.cfg.CSS.Targets,
	}, nil
}

func (p *plan) cleanup(_ context.Context, _ *tasks.Run) error {
	out := p.outputDir()
	if err := sitefs.RemoveAll(out); err != nil {
		return err
	}
	slog.Debug("Output tree removed", logfields.Path(out))
	return nil
}

func (p *plan) js(_ context.Context, run *tasks.Run) error {
	b, err := p.jsBundle(run)
	if err != nil {
		return err
	}
	if err := assets.BuildJS(b); err != nil {
		return err
	}
	slog.Debug("Script bundled", logfields.Path(b.Outfile))
	return nil
}

func (p *plan) jsmin(_ context.Context, run *tasks.Run) error {
	b, err := p.jsBundle(run)
	if err != nil {
		return err
	}
	return assets.MinifyJS(b.Outfile)
}

func (p *plan) jshint(_ context.Context, _ *tasks.Run) error {
	src := p.sourceDir()
	files, err := sitefs.Select(src, p.cfg.JS.Lint)
	if err != nil {
		return err
	}
	result := report.NewResult("jshint")
	if err := assets.LintJS(src, files, result); err != nil {
		return err
	}
	return p.report(result)
}

func (p *plan) css(_ context.Context, run *tasks.Run) error {
	b, err := p.cssBundle(run)
	if err != nil {
		return err
	}
	site, err := p.site(run)
	if err != nil {
		return err
	}
	b.Banner, err = assets.RenderBanner(p.cfg.CSS.Banner, site.Pkg)
	if err != nil {
		return err
	}
	if err := assets.BuildCSS(b); err != nil {
		return err
	}
	slog.Debug("Stylesheet bundled", logfields.Path(b.Outfile))
	return nil
}

func (p *plan) cssmin(_ context.Context, run *tasks.Run) error {
	b, err := p.cssBundle(run)
	if err != nil {
		return err
	}
	return assets.MinifyCSS(b)
}

func (p *plan) html(ctx context.Context, run *tasks.Run) error {
	site, err := p.site(run)
	if err != nil {
		return err
	}
	r := render.New(render.Options{
		SourceDir:     p.sourceDir(),
		OutputDir:     p.outputDir(),
		Pages:         p.cfg.HTML.Pages,
		Partials:      p.cfg.HTML.Partials,
		DefaultLayout: p.cfg.HTML.DefaultLayout,
	})
	pages, err := r.Render(ctx, site)
	if err != nil {
		return err
	}
	slog.Info("Pages rendered", logfields.Count(len(pages)))
	return nil
}

func (p *plan) htmlmin(ctx context.Context, _ *tasks.Run) error {
	n, err := htmlpost.Minify(ctx, p.outputDir(), htmlpost.MinifyOptions{KeepComments: p.cfg.HTML.KeepComments})
	if err != nil {
		return err
	}
	slog.Debug("Pages minified", logfields.Count(n))
	return nil
}

func (p *plan) htmlhint(ctx context.Context, _ *tasks.Run) error {
	result := report.NewResult("htmlhint")
	if err := htmlpost.Lint(ctx, p.outputDir(), result); err != nil {
		return err
	}
	return p.report(result)
}

func (p *plan) sitemap(_ context.Context, run *tasks.Run) error {
	base := p.cfg.Sitemap.SiteURL
	if base == "" {
		site, err := p.site(run)
		if err != nil {
			return err
		}
		base = site.Homepage()
	}
	locs, err := htmlpost.Sitemap(p.outputDir(), htmlpost.SitemapOptions{
		File:       p.cfg.Sitemap.File,
		BaseURL:    base,
		ChangeFreq: p.cfg.Sitemap.ChangeFreq,
		Priority:   p.cfg.Sitemap.Priority,
	})
	if err != nil {
		return err
	}
	slog.Debug("Sitemap written", logfields.Count(len(locs)))
	return nil
}

func (p *plan) pagespeed(ctx context.Context, run *tasks.Run) error {
	target := p.cfg.PageSpeed.URL
	if target == "" {
		site, err := p.site(run)
		if err != nil {
			return err
		}
		target = site.Homepage()
	}
	rep, err := p.psi.Run(ctx, target, p.cfg.PageSpeed.Strategy)
	if err != nil {
		return err
	}
	rep.Log(slog.Default())
	return nil
}

func (p *plan) publish(target string) tasks.Action {
	return func(ctx context.Context, _ *tasks.Run) error {
		t, err := p.cfg.Target(target)
		if err != nil {
			return err
		}
		res, err := publish.Publish(ctx, publish.Options{
			Name:   target,
			Dir:    p.outputDir(),
			Target: t,
		})
		if err != nil {
			return err
		}
		if !res.Pushed {
			slog.Info("Published site unchanged", logfields.Target(target))
			return nil
		}
		slog.Info("Published site",
			logfields.Target(target),
			logfields.Branch(t.Branch),
			slog.String("commit", res.Commit),
			logfields.Count(res.Files))
		return nil
	}
}

// report prints lint findings and fails only when configured to.
func (p *plan) report(result *report.Result) error {
	if err := report.NewStylishFormatter(p.reports).Format(p.reports, result); err != nil {
		return errors.WrapError(err, errors.CategoryRuntime, "failed to write lint report").Build()
	}
	slog.Info("Lint finished",
		slog.String("tool", result.Tool),
		logfields.Count(result.FilesTotal),
		slog.Int("errors", result.ErrorCount()),
		slog.Int("warnings", result.WarningCount()))
	return result.Err(p.cfg.Lint.FailOnError)
}
