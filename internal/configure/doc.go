// Package configure runs the one-shot configuration pass over a project tree.
//
// The pass is a fixed sequence: shared repositories, output relocation,
// evaluation ordering, then task registration. Any failure aborts the pass
// and later steps do not run.
package configure
