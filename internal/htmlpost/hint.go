package htmlpost

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"git.home.luguber.info/inful/docsite/internal/report"
	"git.home.luguber.info/inful/docsite/internal/sitefs"
)

// Rule names reported by Lint.
const (
	RuleDoctypeFirst     = "doctype-first"
	RuleTitleRequire     = "title-require"
	RuleIDUnique         = "id-unique"
	RuleAltRequire       = "alt-require"
	RuleSrcNotEmpty      = "src-not-empty"
	RuleHrefNotEmpty     = "href-not-empty"
	RuleTagPair          = "tag-pair"
	RuleAttrNoDuplicates = "attr-no-duplication"
)

var voidElements = map[atom.Atom]bool{
	atom.Area: true, atom.Base: true, atom.Br: true, atom.Col: true,
	atom.Embed: true, atom.Hr: true, atom.Img: true, atom.Input: true,
	atom.Link: true, atom.Meta: true, atom.Source: true, atom.Track: true,
	atom.Wbr: true,
}

// Lint checks every html file under dir and records findings in result.
func Lint(ctx context.Context, dir string, result *report.Result) error {
	files, err := sitefs.Select(dir, HTMLPatterns)
	if err != nil {
		return err
	}
	for _, rel := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		src, err := sitefs.ReadFile(filepath.Join(dir, filepath.FromSlash(rel)))
		if err != nil {
			return err
		}
		for _, issue := range LintDocument(rel, src) {
			result.Add(issue)
		}
		result.FilesTotal++
	}
	return nil
}

type openTag struct {
	name      string
	line, col int
}

type linter struct {
	file   string
	issues []report.Issue

	line, col int

	sawDoctype bool
	sawContent bool
	head       *openTag
	title      *openTag
	titleText  strings.Builder
	inTitle    bool
	ids        map[string]int
	stack      []openTag
}

// LintDocument checks a single html document. file is only used to label
// the findings.
func LintDocument(file string, src []byte) []report.Issue {
	l := &linter{file: file, line: 1, col: 1, ids: map[string]int{}}
	z := html.NewTokenizer(bytes.NewReader(src))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		line, col := l.line, l.col
		l.advance(z.Raw())
		l.token(z, tt, line, col)
	}
	l.finish()
	return l.issues
}

func (l *linter) token(z *html.Tokenizer, tt html.TokenType, line, col int) {
	switch tt {
	case html.DoctypeToken:
		l.sawDoctype = true
		l.sawContent = true
	case html.CommentToken:
	case html.TextToken:
		text := z.Text()
		if l.inTitle {
			l.titleText.Write(text)
		}
		if len(bytes.TrimSpace(text)) > 0 {
			l.firstContent(line, col)
		}
	case html.StartTagToken, html.SelfClosingTagToken:
		tok := z.Token()
		l.firstContent(line, col)
		l.startTag(tok, tt == html.SelfClosingTagToken, line, col)
	case html.EndTagToken:
		tok := z.Token()
		l.endTag(tok, line, col)
	}
}

func (l *linter) firstContent(line, col int) {
	if l.sawContent {
		return
	}
	l.sawContent = true
	if !l.sawDoctype {
		l.addAt(line, col, RuleDoctypeFirst, report.SeverityError, "Doctype must be declared first.")
	}
}

func (l *linter) startTag(tok html.Token, selfClosing bool, line, col int) {
	seen := make(map[string]bool, len(tok.Attr))
	for _, a := range tok.Attr {
		if seen[a.Key] {
			l.addAt(line, col, RuleAttrNoDuplicates, report.SeverityError,
				fmt.Sprintf("Duplicate of attribute name [ %s ] was found.", a.Key))
		}
		seen[a.Key] = true
	}

	if id, ok := attr(tok, "id"); ok && id != "" {
		l.ids[id]++
		if l.ids[id] == 2 {
			l.addAt(line, col, RuleIDUnique, report.SeverityError,
				fmt.Sprintf("The id value [ %s ] must be unique.", id))
		}
	}

	switch tok.DataAtom {
	case atom.Head:
		l.head = &openTag{name: tok.Data, line: line, col: col}
	case atom.Title:
		if l.title == nil {
			l.title = &openTag{name: tok.Data, line: line, col: col}
			l.inTitle = !selfClosing
		}
	case atom.Img:
		if _, ok := attr(tok, "alt"); !ok {
			l.addAt(line, col, RuleAltRequire, report.SeverityWarning,
				"An alt attribute must be present on <img> elements.")
		}
	}

	for _, name := range []string{"src", "href"} {
		if v, ok := attr(tok, name); ok && strings.TrimSpace(v) == "" {
			rule := RuleSrcNotEmpty
			if name == "href" {
				rule = RuleHrefNotEmpty
			}
			l.addAt(line, col, rule, report.SeverityError,
				fmt.Sprintf("The attribute [ %s ] of the tag [ %s ] must have a value.", name, tok.Data))
		}
	}

	if !selfClosing && !voidElements[tok.DataAtom] {
		l.stack = append(l.stack, openTag{name: tok.Data, line: line, col: col})
	}
}

func (l *linter) endTag(tok html.Token, line, col int) {
	if tok.DataAtom == atom.Title {
		l.inTitle = false
	}
	if voidElements[tok.DataAtom] {
		return
	}
	for i := len(l.stack) - 1; i >= 0; i-- {
		if l.stack[i].name != tok.Data {
			continue
		}
		for _, open := range l.stack[i+1:] {
			l.addAt(open.line, open.col, RuleTagPair, report.SeverityError,
				fmt.Sprintf("Tag must be paired, missing: [ </%s> ]", open.name))
		}
		l.stack = l.stack[:i]
		return
	}
	l.addAt(line, col, RuleTagPair, report.SeverityError,
		fmt.Sprintf("Tag must be paired, no start tag: [ </%s> ]", tok.Data))
}

func (l *linter) finish() {
	for _, open := range l.stack {
		l.addAt(open.line, open.col, RuleTagPair, report.SeverityError,
			fmt.Sprintf("Tag must be paired, missing: [ </%s> ]", open.name))
	}
	switch {
	case l.title == nil && l.head != nil:
		l.addAt(l.head.line, l.head.col, RuleTitleRequire, report.SeverityError,
			"<title> must be present in <head> tag.")
	case l.title == nil:
		l.addAt(0, 0, RuleTitleRequire, report.SeverityError,
			"<title> must be present in <head> tag.")
	case strings.TrimSpace(l.titleText.String()) == "":
		l.addAt(l.title.line, l.title.col, RuleTitleRequire, report.SeverityError,
			"<title></title> must not be empty.")
	}
}

func (l *linter) advance(raw []byte) {
	for _, b := range raw {
		if b == '\n' {
			l.line++
			l.col = 1
			continue
		}
		l.col++
	}
}

func (l *linter) addAt(line, col int, rule string, sev report.Severity, msg string) {
	l.issues = append(l.issues, report.Issue{
		File:     l.file,
		Line:     line,
		Column:   col,
		Severity: sev,
		Rule:     rule,
		Message:  msg,
	})
}

func attr(tok html.Token, key string) (string, bool) {
	for _, a := range tok.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}
