package tasks

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/danmuck/buildtree/internal/logging"
)

var (
	ErrDeleteFailure = errors.New("delete failed")
	ErrUnsafeDelete  = errors.New("refusing to delete path")
)

// DeleteTask recursively removes a set of targets. Missing targets are not an error.
type DeleteTask struct {
	meta      Metadata
	targets   []string
	protected []string
}

// NewDeleteTask builds a delete action over targets.
func NewDeleteTask(name, description string, targets ...string) *DeleteTask {
	return &DeleteTask{
		meta: Metadata{
			Name:        name,
			Group:       "build",
			Description: description,
			Idempotent:  true,
		},
		targets: append([]string(nil), targets...),
	}
}

func (d *DeleteTask) Metadata() Metadata {
	return d.meta
}

// Protect refuses any target that equals or contains one of dirs.
func (d *DeleteTask) Protect(dirs ...string) *DeleteTask {
	for _, dir := range dirs {
		if strings.TrimSpace(dir) != "" {
			d.protected = append(d.protected, dir)
		}
	}
	return d
}

// Targets returns the paths this task removes.
func (d *DeleteTask) Targets() []string {
	return append([]string(nil), d.targets...)
}

// Run removes every target in order and stops at the first failure.
func (d *DeleteTask) Run(ctx context.Context) (Result, error) {
	log := logging.WithComponent("tasks")
	removed := 0
	for _, target := range d.targets {
		if err := ctx.Err(); err != nil {
			return errorResult(err), err
		}
		p, err := d.checkTarget(target)
		if err != nil {
			return errorResult(err), err
		}
		if _, err := os.Lstat(p); err != nil {
			if os.IsNotExist(err) {
				log.Debug().Str("task", d.meta.Name).Str("path", p).Msg("target already absent")
				continue
			}
			err = fmt.Errorf("%w: %s: %w", ErrDeleteFailure, p, err)
			return errorResult(err), err
		}
		if err := os.RemoveAll(p); err != nil {
			err = fmt.Errorf("%w: %s: %w", ErrDeleteFailure, p, err)
			return errorResult(err), err
		}
		removed++
		log.Info().Str("task", d.meta.Name).Str("path", p).Msg("deleted")
	}
	return Result{Status: "ok", Message: fmt.Sprintf("removed %d of %d targets", removed, len(d.targets))}, nil
}

func (d *DeleteTask) checkTarget(target string) (string, error) {
	raw := strings.TrimSpace(target)
	if raw == "" {
		return "", fmt.Errorf("%w: empty path", ErrUnsafeDelete)
	}
	p, err := filepath.Abs(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrDeleteFailure, raw, err)
	}
	if filepath.Dir(p) == p {
		return "", fmt.Errorf("%w: %s is a filesystem root", ErrUnsafeDelete, p)
	}
	for _, dir := range d.protected {
		guarded, err := filepath.Abs(dir)
		if err != nil {
			return "", fmt.Errorf("%w: %s: %w", ErrDeleteFailure, dir, err)
		}
		if isWithin(guarded, p) {
			return "", fmt.Errorf("%w: %s contains project directory %s", ErrUnsafeDelete, p, guarded)
		}
	}
	return p, nil
}

func isWithin(path string, root string) bool {
	p := filepath.Clean(path)
	r := filepath.Clean(root)
	if p == r {
		return true
	}
	return strings.HasPrefix(p, r+string(os.PathSeparator))
}

func errorResult(err error) Result {
	msg := "error"
	if err != nil {
		msg = err.Error()
	}
	return Result{Status: "error", Message: msg}
}
