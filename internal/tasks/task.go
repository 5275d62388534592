package tasks

import (
	"context"
	"fmt"
	"strings"
)

// Action is the body of a task. It must not return while work it started is
// still running.
type Action func(ctx context.Context, run *Run) error

// Task is a named unit of build work.
type Task struct {
	Name        string
	Description string
	// Deps run to completion, concurrently with each other, before Plan and Action.
	Deps []string
	// Plan steps run strictly in order after Deps.
	Plan   []Step
	Action Action
}

// edges returns every task name this task refers to, deps first.
func (t Task) edges() []string {
	out := make([]string, 0, len(t.Deps))
	out = append(out, t.Deps...)
	for _, st := range t.Plan {
		out = append(out, st.Names...)
	}
	return out
}

// Step is one element of a plan: a single task, or a set of tasks run
// concurrently and joined.
type Step struct {
	Names    []string
	Parallel bool
}

// Seq returns a step running a single task.
func Seq(name string) Step { return Step{Names: []string{name}} }

// Par returns a step running names concurrently.
func Par(names ...string) Step { return Step{Names: names, Parallel: true} }

func (s Step) String() string {
	if !s.Parallel && len(s.Names) == 1 {
		return s.Names[0]
	}
	return "{" + strings.Join(s.Names, ", ") + "}"
}

// FormatPlan renders steps the way they are logged: "js -> css -> {sitemap, jshint}".
func FormatPlan(steps []Step) string {
	parts := make([]string, len(steps))
	for i, st := range steps {
		parts[i] = st.String()
	}
	return strings.Join(parts, " -> ")
}

// ParsePlan turns command-line arguments into steps. Each argument is one
// step; a comma-separated argument is a concurrent set.
func ParsePlan(args []string) ([]Step, error) {
	steps := make([]Step, 0, len(args))
	for _, arg := range args {
		raw := strings.Split(arg, ",")
		names := make([]string, 0, len(raw))
		for _, n := range raw {
			n = strings.TrimSpace(n)
			if n == "" {
				return nil, fmt.Errorf("empty task name in step %q", arg)
			}
			names = append(names, n)
		}
		if len(names) == 1 {
			steps = append(steps, Seq(names[0]))
			continue
		}
		steps = append(steps, Par(names...))
	}
	return steps, nil
}
