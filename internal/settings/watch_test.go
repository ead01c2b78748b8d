package settings

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/danmuck/buildtree/internal/testutil/testlog"
	"go.uber.org/goleak"
)

type loadEvent struct {
	cfg Settings
	err error
}

func TestWatcherReloadsOnChange(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	testlog.Start(t)

	dir := t.TempDir()
	path := writeSettings(t, dir, DefaultFileName, `include = ["app"]`+"\n")

	w, err := NewWatcher(path, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	w.WithLogger(testlog.Logger(t))

	events := make(chan loadEvent, 8)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(cfg Settings, err error) {
			events <- loadEvent{cfg: cfg, err: err}
		})
	}()

	first := waitLoad(t, events)
	if first.err != nil || len(first.cfg.Include) != 1 {
		t.Fatalf("unexpected initial load: %+v", first)
	}

	if err := os.WriteFile(path, []byte(`include = ["app", "app:lib1"]`+"\n"), 0o644); err != nil {
		t.Fatalf("rewrite settings: %v", err)
	}
	for {
		ev := waitLoad(t, events)
		if ev.err == nil && len(ev.cfg.Include) == 2 {
			break
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop after cancel")
	}
}

func TestWatcherReportsBrokenSettings(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	testlog.Start(t)

	dir := t.TempDir()
	path := writeSettings(t, dir, DefaultFileName, `include = ["app"]`+"\n")
	w, err := NewWatcher(dir, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	if w.Path() != filepath.Join(dir, DefaultFileName) {
		t.Fatalf("unexpected watch path: %q", w.Path())
	}
	w.WithLogger(testlog.Logger(t))

	events := make(chan loadEvent, 8)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(cfg Settings, err error) {
			events <- loadEvent{cfg: cfg, err: err}
		})
	}()
	waitLoad(t, events)

	if err := os.WriteFile(path, []byte("include = [\n"), 0o644); err != nil {
		t.Fatalf("rewrite settings: %v", err)
	}
	for {
		if ev := waitLoad(t, events); ev.err != nil {
			break
		}
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("run: %v", err)
	}
}

func waitLoad(t *testing.T, events <-chan loadEvent) loadEvent {
	t.Helper()
	select {
	case ev := <-events:
		return ev
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for settings load")
		return loadEvent{}
	}
}
