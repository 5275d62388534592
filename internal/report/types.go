// Package report collects lint findings from the jshint and htmlhint tasks
// and renders them in the stylish layout.
package report

import (
	"cmp"
	"fmt"
	"slices"
	"sync"

	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
)

// Severity indicates the importance level of a finding.
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// Issue is a single finding at a file position. Line and Column are 1-based;
// zero means unknown.
type Issue struct {
	File     string
	Line     int
	Column   int
	Severity Severity
	Rule     string
	Message  string
}

// Result aggregates the findings of one lint task. Add is safe for concurrent use.
type Result struct {
	Tool       string
	FilesTotal int

	mu     sync.Mutex
	issues []Issue
}

// NewResult returns an empty result for tool.
func NewResult(tool string) *Result { return &Result{Tool: tool} }

// Add records an issue.
func (r *Result) Add(issue Issue) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.issues = append(r.issues, issue)
}

// Issues returns the findings ordered by file, line and column.
func (r *Result) Issues() []Issue {
	r.mu.Lock()
	out := slices.Clone(r.issues)
	r.mu.Unlock()
	slices.SortStableFunc(out, func(a, b Issue) int {
		return cmp.Or(
			cmp.Compare(a.File, b.File),
			cmp.Compare(a.Line, b.Line),
			cmp.Compare(a.Column, b.Column),
		)
	})
	return out
}

// ErrorCount returns the number of error findings.
func (r *Result) ErrorCount() int { return r.count(SeverityError) }

// WarningCount returns the number of warning findings.
func (r *Result) WarningCount() int { return r.count(SeverityWarning) }

// HasErrors reports whether any finding is an error.
func (r *Result) HasErrors() bool { return r.ErrorCount() > 0 }

func (r *Result) count(s Severity) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, issue := range r.issues {
		if issue.Severity == s {
			n++
		}
	}
	return n
}

// Err returns a build error when failOnError is set and errors were found.
// Lint tasks are report-only otherwise.
func (r *Result) Err(failOnError bool) error {
	if !failOnError || !r.HasErrors() {
		return nil
	}
	n := r.ErrorCount()
	return errors.BuildError(fmt.Sprintf("%s found %d error%s", r.Tool, n, pluralize(n))).
		WithContext("tool", r.Tool).
		Build()
}

// pluralize returns "s" if count != 1, otherwise empty string.
func pluralize(count int) string {
	if count == 1 {
		return ""
	}
	return "s"
}
