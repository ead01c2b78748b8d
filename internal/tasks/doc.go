// Package tasks owns named actions registered during configuration.
//
// Ownership boundary:
// - task metadata shape
// - task execution interface
// - registry primitives keyed by task name
// - the recursive delete action backing clean
package tasks
