// Package project owns the in-memory project tree a configuration pass mutates.
//
// Ownership boundary:
// - project node shape (name, directories, parent, children)
// - subproject naming rules
// - name lookup over the materialized tree
package project
