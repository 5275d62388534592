// Package render turns page templates and markdown pages from the source
// tree into HTML files in the output tree.
//
// Pages are html/template files (.tmpl) or markdown files (.md), each with
// optional YAML front matter exposed to templates as .meta. Every file under
// the partials directory is parsed into a shared template set and can be
// invoked by its path without extension, e.g. {{template "nav/menu" .}}.
// Markdown pages are wrapped in the partial named by their "layout" front
// matter key, or the configured default layout, with the converted body
// available as .content.
//
// Output naming: index.* becomes index.html in the same directory; any
// other name.* becomes name/index.html.
package render
