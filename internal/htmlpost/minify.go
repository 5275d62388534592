// Package htmlpost post-processes the rendered html tree: minification,
// lint and the sitemap.
package htmlpost

import (
	"context"
	"path/filepath"
	"regexp"
	"runtime"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/sitefs"
)

// HTMLPatterns selects every html page in the output tree.
var HTMLPatterns = []string{"**/*.html"}

// MinifyOptions controls html minification.
type MinifyOptions struct {
	KeepComments bool
}

func newMinifier(opts MinifyOptions) *minify.M {
	m := minify.New()
	m.Add("text/html", &html.Minifier{
		KeepDocumentTags: true,
		KeepEndTags:      true,
		KeepQuotes:       true,
		KeepComments:     opts.KeepComments,
	})
	m.AddFunc("text/css", css.Minify)
	m.AddFuncRegexp(regexp.MustCompile(`^(application|text)/(x-)?(java|ecma)script$`), js.Minify)
	return m
}

// Minify collapses whitespace in every html file under dir in place and
// returns the number of files rewritten.
func Minify(ctx context.Context, dir string, opts MinifyOptions) (int, error) {
	files, err := sitefs.Select(dir, HTMLPatterns)
	if err != nil {
		return 0, err
	}
	m := newMinifier(opts)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, rel := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			path := filepath.Join(dir, filepath.FromSlash(rel))
			src, err := sitefs.ReadFile(path)
			if err != nil {
				return err
			}
			out, err := m.Bytes("text/html", src)
			if err != nil {
				return errors.BuildError("failed to minify html").
					WithCause(err).
					WithContext("path", rel).
					Build()
			}
			return sitefs.WriteFile(path, out)
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return len(files), nil
}
