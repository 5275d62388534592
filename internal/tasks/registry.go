package tasks

import (
	"slices"
	"strings"
	"sync"

	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
)

// Registry maps task names to tasks. It is populated once at start-up and
// read concurrently afterwards.
type Registry struct {
	mu    sync.RWMutex
	tasks map[string]Task
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{tasks: make(map[string]Task)}
}

// Register adds t. Referenced names are not checked here; the sequencer
// validates them when a plan is run.
func (r *Registry) Register(t Task) error {
	if strings.TrimSpace(t.Name) == "" {
		return errors.ValidationError("task name cannot be empty").Build()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tasks[t.Name]; exists {
		return &DuplicateTaskError{Name: t.Name}
	}
	r.tasks[t.Name] = t
	return nil
}

// Add registers a task from an action and its dependencies.
func (r *Registry) Add(name string, action Action, deps ...string) error {
	return r.Register(Task{Name: name, Action: action, Deps: deps})
}

// Resolve returns the task registered under name.
func (r *Registry) Resolve(name string) (Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tasks[name]
	if !ok {
		return Task{}, &UnknownTaskError{Name: name}
	}
	return t, nil
}

// Names returns all registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tasks))
	for n := range r.tasks {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}
