package errors

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, nil)

	cases := map[string]struct {
		err  error
		want int
	}{
		"nil":           {nil, 0},
		"validation":    {ValidationError("unknown step").Build(), 2},
		"auth":          {AuthError("token missing").Build(), 5},
		"config":        {ConfigError("bad docsite.yaml").Build(), 7},
		"network":       {NetworkError("pagespeed unavailable").Build(), 8},
		"publish":       {PublishError("push rejected").Build(), 8},
		"internal":      {InternalError("bug").Build(), 10},
		"build":         {BuildError("render failed").Build(), 11},
		"wrapped build": {fmt.Errorf("outer: %w", BuildError("render failed").Build()), 11},
		"filesystem":    {FileSystemError("disk full").Build(), 11},
		"history":       {HistoryError("database locked").Build(), 12},
		"runtime":       {NewError(CategoryRuntime, "listener closed").Build(), 12},
		"unclassified":  {errors.New("boom"), 1},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, adapter.ExitCodeFor(tc.err))
		})
	}
}

func TestFormatErrorShortForm(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, nil)
	assert.Empty(t, adapter.FormatError(nil))

	err := WrapError(errors.New("unexpected EOF"), CategoryBuild, "task failed").
		WithContext("task", "html").
		WithContext("path", "src/index.tmpl").
		WithContext("status", 3).
		Build()
	assert.Equal(t, `Error: task failed (task "html") (path "src/index.tmpl"): unexpected EOF`, adapter.FormatError(err))

	assert.Equal(t, "Error: plain", adapter.FormatError(errors.New("plain")))
}

func TestFormatErrorVerbose(t *testing.T) {
	adapter := NewCLIErrorAdapter(true, nil)
	err := PublishError("push rejected").WithContext("target", "staging").Build()
	assert.Equal(t, "Error: [publish:error] push rejected", adapter.FormatError(err))
}

func TestHandleErrorPrintsAndExits(t *testing.T) {
	var logs, stderr bytes.Buffer
	adapter := NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(&logs, nil)))
	adapter.stderr = &stderr
	code := -1
	adapter.exit = func(c int) { code = c }

	adapter.HandleError(nil)
	assert.Equal(t, -1, code)

	adapter.HandleError(ConfigError("cyclic task dependency").WithContext("task", "html").Build())
	assert.Equal(t, 7, code)
	assert.Equal(t, "Error: cyclic task dependency (task \"html\")\n", stderr.String())
	require.Contains(t, logs.String(), "category=config")
	assert.Contains(t, logs.String(), "task=html")

	// Non-fatal errors are not logged unless verbose.
	logs.Reset()
	adapter.HandleError(PublishError("push rejected").Build())
	assert.Equal(t, 8, code)
	assert.Empty(t, logs.String())
}
