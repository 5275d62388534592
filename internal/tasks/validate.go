package tasks

import "slices"

const (
	unvisited = iota
	visiting
	visited
)

// Validate expands the closure of steps and reports the first unknown name
// or cycle. It runs no actions.
func (s *Sequencer) Validate(steps ...Step) error {
	state := make(map[string]int)
	var stack []string

	var visit func(name, requiredBy string) error
	visit = func(name, requiredBy string) error {
		switch state[name] {
		case visited:
			return nil
		case visiting:
			i := slices.Index(stack, name)
			cycle := append(slices.Clone(stack[i:]), name)
			return &CyclicDependencyError{Cycle: cycle}
		}

		t, err := s.registry.Resolve(name)
		if err != nil {
			return &UnknownTaskError{Name: name, RequiredBy: requiredBy}
		}

		state[name] = visiting
		stack = append(stack, name)
		for _, next := range t.edges() {
			if err := visit(next, name); err != nil {
				return err
			}
		}
		stack = stack[:len(stack)-1]
		state[name] = visited
		return nil
	}

	for _, st := range steps {
		for _, name := range st.Names {
			if err := visit(name, ""); err != nil {
				return err
			}
		}
	}
	return nil
}
