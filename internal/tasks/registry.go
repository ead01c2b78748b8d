package tasks

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrTaskExists  = errors.New("task already exists")
	ErrTaskNil     = errors.New("task is nil")
	ErrInvalidTask = errors.New("invalid task metadata")
	ErrUnknownTask = errors.New("unknown task")
)

// Registry stores tasks by name.
type Registry struct {
	items map[string]Task
}

// NewRegistry creates an empty task registry.
func NewRegistry() *Registry {
	return &Registry{items: make(map[string]Task)}
}

// ValidateMetadata checks required metadata fields and name format.
func ValidateMetadata(meta Metadata) error {
	name := strings.TrimSpace(meta.Name)
	if name == "" || strings.TrimSpace(meta.Description) == "" {
		return fmt.Errorf("%w: name and description are required", ErrInvalidTask)
	}
	if !isValidName(name) {
		return fmt.Errorf("%w: invalid name format %q", ErrInvalidTask, name)
	}
	return nil
}

// Register adds a task to the registry.
func (r *Registry) Register(task Task) error {
	if task == nil {
		return ErrTaskNil
	}

	meta := task.Metadata()
	if err := ValidateMetadata(meta); err != nil {
		return err
	}

	if _, ok := r.items[meta.Name]; ok {
		return fmt.Errorf("%w: %s", ErrTaskExists, meta.Name)
	}
	r.items[meta.Name] = task
	return nil
}

// Resolve returns a task by name.
func (r *Registry) Resolve(name string) (Task, bool) {
	task, ok := r.items[strings.TrimSpace(name)]
	return task, ok
}

// List returns task metadata ordered by name.
func (r *Registry) List() []Metadata {
	list := make([]Metadata, 0, len(r.items))
	for _, task := range r.items {
		list = append(list, task.Metadata())
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].Name < list[j].Name
	})
	return list
}

// Run resolves and runs one task.
func (r *Registry) Run(ctx context.Context, name string) (Result, error) {
	task, ok := r.Resolve(name)
	if !ok {
		return Result{Status: "error"}, fmt.Errorf("%w: %q", ErrUnknownTask, name)
	}
	if err := ctx.Err(); err != nil {
		return Result{Status: "error"}, err
	}
	return task.Run(ctx)
}

func isValidName(name string) bool {
	for i := 0; i < len(name); i++ {
		c := name[i]
		isAlpha := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
		isDigit := c >= '0' && c <= '9'
		isSep := c == '-' || c == '_'
		if !(isAlpha || isDigit || isSep) {
			return false
		}
		if i == 0 && !isAlpha {
			return false
		}
	}
	return name != ""
}
