// Package buildplan registers the site build tasks: asset bundling, page
// rendering, lint, sitemap, minification, publishing and the composite
// build, deploy and staging targets.
package buildplan

import (
	"io"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/docsite/internal/config"
	"git.home.luguber.info/inful/docsite/internal/pagespeed"
	"git.home.luguber.info/inful/docsite/internal/retry"
	"git.home.luguber.info/inful/docsite/internal/tasks"
)

// Task names.
const (
	Cleanup        = "cleanup"
	JS             = "js"
	JSMin          = "jsmin"
	JSHint         = "jshint"
	CSS            = "css"
	CSSMin         = "cssmin"
	HTML           = "html"
	HTMLMin        = "htmlmin"
	HTMLHint       = "htmlhint"
	Sitemap        = "sitemap"
	Minify         = "minify"
	PageSpeed      = "pagespeed"
	GHPages        = "ghpages"
	GHPagesStaging = "ghpages-staging"
	Build          = "build"
	Deploy         = "deploy"
	Staging        = "staging"
)

// Publish target names used by ghpages and ghpages-staging.
const (
	TargetProduction = "production"
	TargetStaging    = "staging"
)

// Env is what the task actions need from the outside.
type Env struct {
	Config *config.Config
	// Root resolves relative paths from the configuration. Empty means the
	// working directory.
	Root string
	// Reports receives lint output. Nil means stderr.
	Reports io.Writer
	// PageSpeed overrides the client built from the configuration.
	PageSpeed *pagespeed.Client
}

// Register adds every site task to reg.
func Register(reg *tasks.Registry, env Env) error {
	p := newPlan(env)
	defs := []tasks.Task{
		{Name: Cleanup, Description: "Delete the output tree", Action: p.cleanup},
		{Name: JS, Description: "Bundle the site script with an inline source map", Action: p.js},
		{Name: JSMin, Description: "Minify the bundled script in place", Action: p.jsmin},
		{Name: JSHint, Description: "Lint source scripts", Action: p.jshint},
		{Name: CSS, Description: "Bundle the stylesheet with banner and source map", Action: p.css},
		{Name: CSSMin, Description: "Bundle the stylesheet minified", Action: p.cssmin},
		{Name: HTML, Description: "Render templates and markdown pages", Action: p.html},
		{Name: HTMLMin, Description: "Minify rendered pages in place", Action: p.htmlmin},
		{Name: HTMLHint, Description: "Lint rendered pages", Action: p.htmlhint},
		{Name: Sitemap, Description: "Write sitemap.xml for every page", Action: p.sitemap},
		{Name: Minify, Description: "Minify styles, scripts and pages", Deps: []string{CSSMin, JSMin, HTMLMin}},
		{Name: PageSpeed, Description: "Report PageSpeed Insights for the homepage", Action: p.pagespeed},
		{Name: GHPages, Description: "Publish the output tree to the production target", Action: p.publish(TargetProduction)},
		{Name: GHPagesStaging, Description: "Publish the output tree to the staging target", Action: p.publish(TargetStaging)},
		{
			Name:        Build,
			Description: "Clean and build the whole site",
			Deps:        []string{Cleanup},
			Plan: []tasks.Step{
				tasks.Seq(JS),
				tasks.Seq(CSS),
				tasks.Seq(HTML),
				tasks.Par(Sitemap, JSHint, HTMLHint),
			},
		},
		{
			Name:        Deploy,
			Description: "Build, minify and publish to production",
			Deps:        []string{Build},
			Plan:        []tasks.Step{tasks.Par(Minify), tasks.Seq(GHPages), tasks.Par(PageSpeed)},
		},
		{
			Name:        Staging,
			Description: "Build, minify and publish to staging",
			Deps:        []string{Build},
			Plan:        []tasks.Step{tasks.Par(Minify), tasks.Seq(GHPagesStaging), tasks.Par(PageSpeed)},
		},
	}
	for _, t := range defs {
		if err := reg.Register(t); err != nil {
			return err
		}
	}
	return nil
}

type plan struct {
	cfg     *config.Config
	root    string
	reports io.Writer
	psi     *pagespeed.Client
}

func newPlan(env Env) *plan {
	p := &plan{cfg: env.Config, root: env.Root, reports: env.Reports, psi: env.PageSpeed}
	if p.reports == nil {
		p.reports = os.Stderr
	}
	if p.psi == nil {
		ps := env.Config.PageSpeed
		p.psi = pagespeed.NewClient(ps.Endpoint, ps.APIKey, ps.Timeout).
			WithRetry(retry.NewPolicy(retry.Backoff(ps.Retry.Backoff), ps.Retry.Initial, ps.Retry.Max, ps.Retry.Retries()))
	}
	return p
}

// path resolves a configured path against the root.
func (p *plan) path(rel string) string {
	if filepath.IsAbs(rel) || p.root == "" {
		return rel
	}
	return filepath.Join(p.root, rel)
}

func (p *plan) sourceDir() string { return p.path(p.cfg.Paths.Source) }

func (p *plan) outputDir() string { return p.path(p.cfg.Paths.Output) }
