// buildtree runs the native build configuration pass for a multi-project
// mobile build and exposes the tasks it registers.
//
// Usage:
//
//	buildtree configure [-settings path] [-format toml|yaml] [-watch]
//	buildtree tasks [-settings path]
//	buildtree run [-settings path] <task>
//	buildtree clean [-settings path]
//	buildtree init [-output path] [-format toml|yaml] [-force]
//	buildtree validate [-settings path]
//
// Exit codes:
//   - 0: success
//   - 1: configuration or task failure
//   - 2: usage error
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/danmuck/buildtree/internal/logging"
)

func main() {
	logging.ConfigureRuntime()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
