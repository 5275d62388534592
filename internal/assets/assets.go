// Package assets bundles, lints and minifies the site script and stylesheet
// with esbuild.
package assets

import (
	"bytes"
	"fmt"
	"maps"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/evanw/esbuild/pkg/api"

	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/report"
	"git.home.luguber.info/inful/docsite/internal/sitefs"
)

// Bundle describes one esbuild entry point and its output file.
type Bundle struct {
	Entry     string
	Outfile   string
	SourceMap bool
	// Targets are esbuild engine targets such as "chrome58"; css only.
	Targets []string
	// Banner is prepended verbatim; css only.
	Banner string
}

// BuildJS bundles b.Entry with its imports into one IIFE script.
func BuildJS(b Bundle) error {
	opts := baseOptions(b)
	opts.Format = api.FormatIIFE
	return build("js", b, opts)
}

// MinifyJS minifies the script at path in place.
func MinifyJS(path string) error {
	src, err := sitefs.ReadFile(path)
	if err != nil {
		return err
	}
	res := api.Transform(string(src), api.TransformOptions{
		Loader:            api.LoaderJS,
		Sourcefile:        filepath.Base(path),
		MinifyWhitespace:  true,
		MinifyIdentifiers: true,
		MinifySyntax:      true,
		LegalComments:     api.LegalCommentsInline,
		LogLevel:          api.LogLevelSilent,
	})
	if len(res.Errors) > 0 {
		return messagesError("failed to minify script", path, res.Errors)
	}
	return sitefs.WriteFile(path, res.Code)
}

// BuildCSS bundles b.Entry, inlining @import and lowering syntax for
// b.Targets, and prefixes b.Banner.
func BuildCSS(b Bundle) error {
	opts := baseOptions(b)
	engines, err := ParseTargets(b.Targets)
	if err != nil {
		return err
	}
	opts.Engines = engines
	if b.Banner != "" {
		opts.Banner = map[string]string{"css": strings.TrimRight(b.Banner, "\n")}
	}
	return build("css", b, opts)
}

// MinifyCSS is BuildCSS minified, without banner or source map.
func MinifyCSS(b Bundle) error {
	b.Banner = ""
	b.SourceMap = false
	opts := baseOptions(b)
	engines, err := ParseTargets(b.Targets)
	if err != nil {
		return err
	}
	opts.Engines = engines
	opts.MinifyWhitespace = true
	opts.MinifySyntax = true
	return build("css", b, opts)
}

// LintJS parses every file and records esbuild's diagnostics. Parse errors
// are error findings; everything else esbuild warns about is a warning.
func LintJS(root string, files []string, result *report.Result) error {
	for _, rel := range files {
		src, err := sitefs.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
		if err != nil {
			return err
		}
		res := api.Transform(string(src), api.TransformOptions{
			Loader:     api.LoaderJS,
			Sourcefile: rel,
			LogLevel:   api.LogLevelSilent,
		})
		for _, m := range res.Errors {
			result.Add(issueFrom(rel, m, report.SeverityError))
		}
		for _, m := range res.Warnings {
			result.Add(issueFrom(rel, m, report.SeverityWarning))
		}
		result.FilesTotal++
	}
	return nil
}

var bannerFields = []string{"name", "description", "version", "homepage", "author", "license"}

// RenderBanner executes the banner template with the package document as pkg.
func RenderBanner(banner string, pkg map[string]any) (string, error) {
	tpl, err := template.New("banner").Parse(banner)
	if err != nil {
		return "", errors.ConfigError("invalid css banner template").WithCause(err).Build()
	}
	fields := maps.Clone(pkg)
	if fields == nil {
		fields = map[string]any{}
	}
	for _, key := range bannerFields {
		if _, ok := fields[key]; !ok {
			fields[key] = ""
		}
	}
	if author, ok := fields["author"].(map[string]any); ok {
		fields["author"] = author["name"]
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, map[string]any{"pkg": fields}); err != nil {
		return "", errors.BuildError("failed to render css banner").WithCause(err).Build()
	}
	return buf.String(), nil
}

var engineNames = map[string]api.EngineName{
	"chrome":  api.EngineChrome,
	"edge":    api.EngineEdge,
	"firefox": api.EngineFirefox,
	"ie":      api.EngineIE,
	"ios":     api.EngineIOS,
	"node":    api.EngineNode,
	"opera":   api.EngineOpera,
	"safari":  api.EngineSafari,
}

// ParseTargets converts "chrome58"-style targets into esbuild engines.
func ParseTargets(targets []string) ([]api.Engine, error) {
	engines := make([]api.Engine, 0, len(targets))
	for _, t := range targets {
		i := strings.IndexAny(t, "0123456789")
		if i <= 0 {
			return nil, errors.ValidationError(fmt.Sprintf("invalid css target %q", t)).Build()
		}
		name, ok := engineNames[strings.ToLower(t[:i])]
		if !ok {
			return nil, errors.ValidationError(fmt.Sprintf("unknown css target engine %q", t[:i])).Build()
		}
		engines = append(engines, api.Engine{Name: name, Version: t[i:]})
	}
	return engines, nil
}

func baseOptions(b Bundle) api.BuildOptions {
	entry, _ := filepath.Abs(b.Entry)
	out, _ := filepath.Abs(b.Outfile)
	opts := api.BuildOptions{
		EntryPoints: []string{entry},
		Outfile:     out,
		Bundle:      true,
		Write:       false,
		LogLevel:    api.LogLevelSilent,
	}
	if b.SourceMap {
		opts.Sourcemap = api.SourceMapInline
	}
	return opts
}

func build(kind string, b Bundle, opts api.BuildOptions) error {
	res := api.Build(opts)
	if len(res.Errors) > 0 {
		return messagesError("failed to build "+kind, b.Entry, res.Errors)
	}
	for _, f := range res.OutputFiles {
		if filepath.Ext(f.Path) != filepath.Ext(opts.Outfile) {
			continue
		}
		return sitefs.WriteFile(b.Outfile, f.Contents)
	}
	return errors.InternalError("esbuild produced no output").WithContext("entry", b.Entry).Build()
}

func messagesError(msg, path string, msgs []api.Message) error {
	formatted := api.FormatMessages(msgs, api.FormatMessagesOptions{Kind: api.ErrorMessage})
	return errors.BuildError(msg).
		WithCause(fmt.Errorf("%s", strings.TrimSpace(strings.Join(formatted, "")))).
		WithContext("path", path).
		Build()
}

func issueFrom(file string, m api.Message, sev report.Severity) report.Issue {
	issue := report.Issue{File: file, Severity: sev, Rule: m.ID, Message: m.Text}
	if m.Location != nil {
		issue.Line = m.Location.Line
		issue.Column = m.Location.Column + 1
	}
	return issue
}
