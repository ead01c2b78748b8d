package tasks

import "context"

// Metadata is the contract for task identity and display data.
type Metadata struct {
	Name        string `toml:"name" yaml:"name"`
	Group       string `toml:"group" yaml:"group"`
	Description string `toml:"description" yaml:"description"`
	Idempotent  bool   `toml:"idempotent" yaml:"idempotent"`
}

// Result is the outcome of one task run.
type Result struct {
	Status  string
	Message string
}

// Task is the execution boundary for a registered action.
type Task interface {
	Metadata() Metadata
	Run(ctx context.Context) (Result, error)
}
