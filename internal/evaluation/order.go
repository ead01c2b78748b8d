// Package evaluation tracks configuration-phase ordering between projects.
//
// Edges only constrain when a project is configured, never when its build
// tasks execute.
package evaluation

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownNode    = errors.New("unknown evaluation node")
	ErrSelfDependency = errors.New("project cannot depend on its own evaluation")
	ErrCycle          = errors.New("evaluation dependency cycle")
)

// Order is a partial order over project names.
type Order struct {
	names []string
	index map[string]int
	deps  map[string][]string
}

// New creates an order over names; insertion order breaks ties in Sequence.
func New(names ...string) *Order {
	o := &Order{
		index: make(map[string]int, len(names)),
		deps:  make(map[string][]string, len(names)),
	}
	for _, name := range names {
		o.Add(name)
	}
	return o
}

// Add registers a node. Adding a known name is a no-op.
func (o *Order) Add(name string) {
	if _, ok := o.index[name]; ok {
		return
	}
	o.index[name] = len(o.names)
	o.names = append(o.names, name)
}

// DependsOn records that from is configured only after on.
func (o *Order) DependsOn(from, on string) error {
	if _, ok := o.index[from]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownNode, from)
	}
	if _, ok := o.index[on]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownNode, on)
	}
	if from == on {
		return fmt.Errorf("%w: %q", ErrSelfDependency, from)
	}
	if o.HasEdge(from, on) {
		return nil
	}
	o.deps[from] = append(o.deps[from], on)
	return nil
}

func (o *Order) HasEdge(from, on string) bool {
	for _, dep := range o.deps[from] {
		if dep == on {
			return true
		}
	}
	return false
}

// Dependencies returns the direct evaluation dependencies of name.
func (o *Order) Dependencies(name string) []string {
	out := make([]string, len(o.deps[name]))
	copy(out, o.deps[name])
	return out
}

// Sequence returns every node with dependencies ahead of dependents.
func (o *Order) Sequence() ([]string, error) {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(o.names))
	out := make([]string, 0, len(o.names))
	var stack []string

	var visit func(name string) error
	visit = func(name string) error {
		switch state[name] {
		case done:
			return nil
		case visiting:
			start := 0
			for i, n := range stack {
				if n == name {
					start = i
					break
				}
			}
			chain := append(append([]string{}, stack[start:]...), name)
			return fmt.Errorf("%w: %s", ErrCycle, strings.Join(chain, " -> "))
		}
		state[name] = visiting
		stack = append(stack, name)
		for _, dep := range o.deps[name] {
			if err := visit(dep); err != nil {
				return err
			}
		}
		stack = stack[:len(stack)-1]
		state[name] = done
		out = append(out, name)
		return nil
	}

	for _, name := range o.names {
		if err := visit(name); err != nil {
			return nil, err
		}
	}
	return out, nil
}
