package project

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var (
	ErrInvalidName   = errors.New("invalid project name")
	ErrDuplicateNode = errors.New("project already exists")
	ErrMissingNode   = errors.New("project not found")
)

// Tree is the root project plus its subprojects in include order.
type Tree struct {
	Root  *Node
	nodes map[string]*Node
	order []*Node
}

// NewTree creates a tree holding only the root project.
func NewTree(rootName, rootDir, rootOutput string) *Tree {
	name := strings.TrimSpace(rootName)
	if name == "" {
		name = filepath.Base(filepath.Clean(rootDir))
	}
	return &Tree{
		Root: &Node{
			Name:       name,
			ProjectDir: rootDir,
			OutputDir:  rootOutput,
		},
		nodes: make(map[string]*Node),
	}
}

// Include adds a subproject under the root. The project directory mirrors
// the name with ':' mapped to path separators.
func (t *Tree) Include(name string) (*Node, error) {
	normalized, err := NormalizeName(name)
	if err != nil {
		return nil, err
	}
	if _, ok := t.nodes[normalized]; ok {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateNode, normalized)
	}
	dir := filepath.Join(t.Root.ProjectDir, filepath.FromSlash(strings.ReplaceAll(normalized, ":", "/")))
	node := &Node{
		Name:       normalized,
		ProjectDir: dir,
		OutputDir:  filepath.Join(dir, "build"),
		Parent:     t.Root,
	}
	t.nodes[normalized] = node
	t.order = append(t.order, node)
	t.Root.Children = append(t.Root.Children, node)
	return node, nil
}

// Lookup resolves a subproject by name; a leading ':' is accepted.
func (t *Tree) Lookup(name string) (*Node, bool) {
	normalized, err := NormalizeName(name)
	if err != nil {
		return nil, false
	}
	node, ok := t.nodes[normalized]
	return node, ok
}

// Require is Lookup that reports ErrMissingNode.
func (t *Tree) Require(name string) (*Node, error) {
	node, ok := t.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMissingNode, name)
	}
	return node, nil
}

// Subprojects returns subprojects in include order.
func (t *Tree) Subprojects() []*Node {
	out := make([]*Node, len(t.order))
	copy(out, t.order)
	return out
}

// All returns the root followed by every subproject.
func (t *Tree) All() []*Node {
	out := make([]*Node, 0, len(t.order)+1)
	out = append(out, t.Root)
	return append(out, t.order...)
}

// Names returns subproject names in include order.
func (t *Tree) Names() []string {
	out := make([]string, 0, len(t.order))
	for _, node := range t.order {
		out = append(out, node.Name)
	}
	return out
}

// NormalizeName trims whitespace and one leading ':' and checks segment shape.
func NormalizeName(raw string) (string, error) {
	name := strings.TrimPrefix(strings.TrimSpace(raw), ":")
	if name == "" {
		return "", fmt.Errorf("%w: empty name", ErrInvalidName)
	}
	for _, segment := range strings.Split(name, ":") {
		if segment == "" {
			return "", fmt.Errorf("%w: empty segment in %q", ErrInvalidName, raw)
		}
		if strings.ContainsAny(segment, " \t/\\") || segment == "." || segment == ".." {
			return "", fmt.Errorf("%w: %q", ErrInvalidName, raw)
		}
	}
	return name, nil
}
