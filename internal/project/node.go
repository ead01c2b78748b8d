package project

import "github.com/danmuck/buildtree/internal/repository"

// Node is one buildable unit. The root has a nil Parent.
type Node struct {
	Name         string
	ProjectDir   string
	OutputDir    string
	Parent       *Node
	Children     []*Node
	Repositories *repository.Set
}

// IsRoot reports whether n is the tree root.
func (n *Node) IsRoot() bool {
	return n.Parent == nil
}

// Path returns the colon-prefixed project path (":" for the root).
func (n *Node) Path() string {
	if n.IsRoot() {
		return ":"
	}
	return ":" + n.Name
}
