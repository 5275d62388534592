package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifiedErrorString(t *testing.T) {
	cause := errors.New("connection refused")
	err := WrapError(cause, CategoryNetwork, "pagespeed request failed").Build()

	assert.Equal(t, "[network:error] pagespeed request failed: connection refused", err.Error())
	assert.Same(t, cause, errors.Unwrap(err))
	assert.ErrorIs(t, err, cause)

	bare := ConfigError("missing homepage").Build()
	assert.Equal(t, "[config:fatal] missing homepage", bare.Error())
	assert.NoError(t, bare.Unwrap())
}

func TestConstructorDefaults(t *testing.T) {
	cases := map[string]struct {
		err       *ClassifiedError
		category  ErrorCategory
		severity  ErrorSeverity
		retryable bool
	}{
		"config":     {ConfigError("x").Build(), CategoryConfig, SeverityFatal, false},
		"validation": {ValidationError("x").Build(), CategoryValidation, SeverityFatal, false},
		"auth":       {AuthError("x").Build(), CategoryAuth, SeverityError, false},
		"network":    {NetworkError("x").Build(), CategoryNetwork, SeverityError, true},
		"publish":    {PublishError("x").Build(), CategoryPublish, SeverityError, false},
		"build":      {BuildError("x").Build(), CategoryBuild, SeverityFatal, false},
		"filesystem": {FileSystemError("x").Build(), CategoryFileSystem, SeverityError, false},
		"internal":   {InternalError("x").Build(), CategoryInternal, SeverityFatal, false},
		"history":    {HistoryError("x").Build(), CategoryHistory, SeverityError, false},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.category, tc.err.Category())
			assert.Equal(t, tc.severity, tc.err.Severity())
			assert.Equal(t, tc.retryable, tc.err.Retryable())
		})
	}
}

func TestBuilderOverrides(t *testing.T) {
	err := NetworkError("pagespeed API error: bad request").
		Permanent().
		Warning().
		WithCategory(CategoryConfig).
		WithContext("status", 400).
		Build()

	assert.False(t, err.Retryable())
	assert.Equal(t, SeverityWarning, err.Severity())
	assert.True(t, err.IsCategory(CategoryConfig))
	status, ok := err.Context().Get("status")
	require.True(t, ok)
	assert.Equal(t, 400, status)
}

func TestBuiltErrorsAreIndependent(t *testing.T) {
	b := PublishError("push rejected").WithContext("target", "staging")
	first := b.Build()
	second := b.WithContext("target", "production").Build()

	target, _ := first.Context().GetString("target")
	assert.Equal(t, "staging", target)
	target, _ = second.Context().GetString("target")
	assert.Equal(t, "production", target)
}

func TestWithContextCopies(t *testing.T) {
	base := BuildError("render failed").WithContext("path", "src/index.tmpl").Build()
	tagged := base.WithContext("task", "html")

	_, ok := base.Context().Get("task")
	assert.False(t, ok)
	task, _ := tagged.Context().GetString("task")
	assert.Equal(t, "html", task)
	path, _ := tagged.Context().GetString("path")
	assert.Equal(t, "src/index.tmpl", path)
}

func TestErrorContext(t *testing.T) {
	var ctx ErrorContext
	ctx = ctx.Set("task", "css").Set("count", 2)

	_, ok := ctx.GetString("count")
	assert.False(t, ok)
	_, ok = ctx.Get("missing")
	assert.False(t, ok)

	merged := ctx.Merge(ErrorContext{"task": "js"})
	task, _ := merged.GetString("task")
	assert.Equal(t, "js", task)
	task, _ = ctx.GetString("task")
	assert.Equal(t, "css", task)
}

type taskFailure struct{ name string }

func (f *taskFailure) Error() string { return "task " + f.name + " failed" }

func (f *taskFailure) Classify() *ClassifiedError {
	return BuildError(f.Error()).WithContext("task", f.name).Build()
}

func TestAsClassifiedUsesClassifier(t *testing.T) {
	err := fmt.Errorf("run: %w", &taskFailure{name: "html"})

	classified, ok := AsClassified(err)
	require.True(t, ok)
	assert.Equal(t, CategoryBuild, classified.Category())
	assert.True(t, HasCategory(err, CategoryBuild))
	assert.False(t, HasCategory(err, CategoryConfig))

	_, ok = AsClassified(errors.New("plain"))
	assert.False(t, ok)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(fmt.Errorf("attempt 1: %w", NetworkError("503").Build())))
	assert.False(t, IsRetryable(NetworkError("400").Permanent().Build()))
	assert.False(t, IsRetryable(PublishError("push rejected").Build()))
	assert.False(t, IsRetryable(errors.New("plain")))
	assert.False(t, IsRetryable(nil))
}
