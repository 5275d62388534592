package tasks

import (
	"fmt"
	"strings"

	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
)

// DuplicateTaskError reports a second registration under the same name.
type DuplicateTaskError struct{ Name string }

func (e *DuplicateTaskError) Error() string {
	return fmt.Sprintf("task %q is already registered", e.Name)
}

func (e *DuplicateTaskError) Classify() *errors.ClassifiedError {
	return errors.ConfigError("duplicate task").WithContext("task", e.Name).Build()
}

// UnknownTaskError reports a name with no registered task. RequiredBy is
// empty when the name came straight from the requested plan.
type UnknownTaskError struct {
	Name       string
	RequiredBy string
}

func (e *UnknownTaskError) Error() string {
	if e.RequiredBy != "" {
		return fmt.Sprintf("unknown task %q (required by %q)", e.Name, e.RequiredBy)
	}
	return fmt.Sprintf("unknown task %q", e.Name)
}

func (e *UnknownTaskError) Classify() *errors.ClassifiedError {
	b := errors.ConfigError("unknown task").WithContext("task", e.Name)
	if e.RequiredBy != "" {
		b = b.WithContext("required_by", e.RequiredBy)
	}
	return b.Build()
}

// CyclicDependencyError names a cycle; the first and last entries are equal.
type CyclicDependencyError struct{ Cycle []string }

func (e *CyclicDependencyError) Error() string {
	return "cyclic dependency: " + strings.Join(e.Cycle, " -> ")
}

func (e *CyclicDependencyError) Classify() *errors.ClassifiedError {
	return errors.ConfigError("cyclic dependency").
		WithContext("cycle", strings.Join(e.Cycle, " -> ")).
		Build()
}

// ActionError is a task action's own failure.
type ActionError struct {
	Task string
	Err  error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("task %q failed: %v", e.Task, e.Err)
}

func (e *ActionError) Unwrap() error { return e.Err }

// Classify keeps the cause's own classification (a publish failure stays a
// publish failure) and tags it with the task name.
func (e *ActionError) Classify() *errors.ClassifiedError {
	if inner, ok := errors.AsClassified(e.Err); ok {
		return inner.WithContext("task", e.Task)
	}
	return errors.WrapError(e.Err, errors.CategoryBuild, "task failed").
		WithContext("task", e.Task).
		Build()
}
