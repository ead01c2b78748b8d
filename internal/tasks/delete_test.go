package tasks

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/danmuck/buildtree/internal/testutil/testlog"
)

func TestDeleteTaskRemovesTree(t *testing.T) {
	testlog.Start(t)
	out := filepath.Join(t.TempDir(), "build")
	nested := filepath.Join(out, "app", "intermediates")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(nested, "classes.jar"), []byte("jar"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	task := NewDeleteTask("clean", "Deletes the build directory", out)
	res, err := task.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Status != "ok" {
		t.Fatalf("unexpected status: %+v", res)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Fatalf("expected %s removed, stat err=%v", out, err)
	}
}

func TestDeleteTaskMissingTargetIsNoOp(t *testing.T) {
	testlog.Start(t)
	out := filepath.Join(t.TempDir(), "never-built")
	task := NewDeleteTask("clean", "Deletes the build directory", out)

	for i := 0; i < 2; i++ {
		if _, err := task.Run(context.Background()); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}
	if !task.Metadata().Idempotent {
		t.Fatalf("expected delete task to be idempotent")
	}
}

func TestDeleteTaskRefusesUnsafeTargets(t *testing.T) {
	testlog.Start(t)
	for _, target := range []string{"", "  ", string(filepath.Separator)} {
		task := NewDeleteTask("clean", "Deletes", target)
		if _, err := task.Run(context.Background()); !errors.Is(err, ErrUnsafeDelete) {
			t.Fatalf("expected ErrUnsafeDelete for %q, got %v", target, err)
		}
	}
}

func TestDeleteTaskPermissionFailure(t *testing.T) {
	testlog.Start(t)
	if os.Geteuid() == 0 {
		t.Skip("root ignores directory permissions")
	}
	parent := t.TempDir()
	out := filepath.Join(parent, "build")
	if err := os.MkdirAll(filepath.Join(out, "app"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.Chmod(out, 0o500); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	t.Cleanup(func() { _ = os.Chmod(out, 0o755) })

	task := NewDeleteTask("clean", "Deletes", out)
	res, err := task.Run(context.Background())
	if !errors.Is(err, ErrDeleteFailure) {
		t.Fatalf("expected ErrDeleteFailure, got %v", err)
	}
	if res.Status != "error" {
		t.Fatalf("unexpected status: %+v", res)
	}
}

func TestDeleteTaskStopsOnCancel(t *testing.T) {
	testlog.Start(t)
	out := filepath.Join(t.TempDir(), "build")
	if err := os.MkdirAll(out, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	task := NewDeleteTask("clean", "Deletes", out)
	if _, err := task.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if _, err := os.Stat(out); err != nil {
		t.Fatalf("expected target kept after cancel: %v", err)
	}
}

func TestDeleteTaskFailsBelowRegularFile(t *testing.T) {
	testlog.Start(t)
	file := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	task := NewDeleteTask("clean", "Deletes", filepath.Join(file, "build"))
	res, err := task.Run(context.Background())
	if !errors.Is(err, ErrDeleteFailure) {
		t.Fatalf("expected ErrDeleteFailure, got %v", err)
	}
	if res.Status != "error" {
		t.Fatalf("unexpected status: %+v", res)
	}
}

func TestDeleteTaskRefusesProtectedAncestor(t *testing.T) {
	testlog.Start(t)
	repo := t.TempDir()
	projectDir := filepath.Join(repo, "frontend", "android")
	if err := os.MkdirAll(projectDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	for _, target := range []string{projectDir, filepath.Join(repo, "frontend"), repo} {
		task := NewDeleteTask("clean", "Deletes", target).Protect(projectDir)
		if _, err := task.Run(context.Background()); !errors.Is(err, ErrUnsafeDelete) {
			t.Fatalf("expected ErrUnsafeDelete for %s, got %v", target, err)
		}
	}
	if _, err := os.Stat(projectDir); err != nil {
		t.Fatalf("expected project dir kept: %v", err)
	}

	sibling := filepath.Join(repo, "frontend", "build")
	if err := os.MkdirAll(sibling, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	task := NewDeleteTask("clean", "Deletes", sibling).Protect(projectDir, "")
	if _, err := task.Run(context.Background()); err != nil {
		t.Fatalf("expected sibling output deleted, got %v", err)
	}
	if _, err := os.Stat(sibling); !os.IsNotExist(err) {
		t.Fatalf("expected %s removed, stat err=%v", sibling, err)
	}
}
