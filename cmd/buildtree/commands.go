package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/buildtree/internal/configure"
	"github.com/danmuck/buildtree/internal/settings"
	"gopkg.in/yaml.v3"
)

const (
	exitOK    = 0
	exitFail  = 1
	exitUsage = 2
)

var errUsage = errors.New("usage")

const usageText = `usage: buildtree <command> [flags]

commands:
  configure   run the configuration pass and print the result
  tasks       list registered tasks
  run         run a registered task
  clean       run the clean task
  init        write a starter settings file
  validate    check that settings load and configure
`

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usageText)
		return exitUsage
	}

	var err error
	switch cmd, rest := args[0], args[1:]; cmd {
	case "configure":
		err = runConfigure(ctx, rest, stdout, stderr)
	case "tasks":
		err = runTasks(rest, stdout, stderr)
	case "run":
		err = runTask(ctx, rest, false, stdout, stderr)
	case "clean":
		err = runTask(ctx, rest, true, stdout, stderr)
	case "init":
		err = runInit(rest, stdout, stderr)
	case "validate":
		err = runValidate(rest, stdout, stderr)
	case "help", "-h", "-help", "--help":
		fmt.Fprint(stdout, usageText)
		return exitOK
	default:
		fmt.Fprintf(stderr, "buildtree: unknown command %q\n\n%s", cmd, usageText)
		return exitUsage
	}

	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errUsage), errors.Is(err, flag.ErrHelp):
		return exitUsage
	default:
		fmt.Fprintf(stderr, "buildtree: %v\n", err)
		return exitFail
	}
}

func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	return nil
}

func loadAndConfigure(path string) (*configure.Result, error) {
	cfg, err := settings.Load(path)
	if err != nil {
		return nil, err
	}
	return cfg.Configure(nil)
}

func runConfigure(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("configure", stderr)
	path := fs.String("settings", settings.DefaultFileName, "settings file or project directory")
	formatFlag := fs.String("format", "toml", "output format: toml|yaml")
	watch := fs.Bool("watch", false, "re-run configuration when settings change")
	debounce := fs.Duration("debounce", settings.DefaultDebounce, "watch debounce interval")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	format, err := settings.ParseFormat(*formatFlag)
	if err != nil {
		fmt.Fprintf(stderr, "buildtree: %v\n", err)
		return errUsage
	}

	if !*watch {
		res, err := loadAndConfigure(*path)
		if err != nil {
			return err
		}
		return writeSnapshot(stdout, format, res.Snapshot())
	}

	w, err := settings.NewWatcher(*path, *debounce)
	if err != nil {
		return err
	}
	return w.Run(ctx, func(cfg settings.Settings, err error) {
		if err == nil {
			var res *configure.Result
			if res, err = cfg.Configure(nil); err == nil {
				fmt.Fprintf(stdout, "# configured at %s\n", time.Now().Format(time.RFC3339))
				err = writeSnapshot(stdout, format, res.Snapshot())
			}
		}
		if err != nil {
			fmt.Fprintf(stderr, "buildtree: %v\n", err)
		}
	})
}

func writeSnapshot(w io.Writer, format settings.Format, snap configure.Snapshot) error {
	switch format {
	case settings.FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(snap); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	default:
		if err := toml.NewEncoder(w).Encode(snap); err != nil {
			return fmt.Errorf("encode toml: %w", err)
		}
		return nil
	}
}

func runTasks(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("tasks", stderr)
	path := fs.String("settings", settings.DefaultFileName, "settings file or project directory")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	res, err := loadAndConfigure(*path)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TASK\tGROUP\tDESCRIPTION")
	for _, meta := range res.Tasks.List() {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", meta.Name, meta.Group, meta.Description)
	}
	return tw.Flush()
}

// runTask runs the named task, or the configured clean task when clean is set.
func runTask(ctx context.Context, args []string, clean bool, stdout, stderr io.Writer) error {
	flagName := "run"
	if clean {
		flagName = "clean"
	}
	fs := newFlagSet(flagName, stderr)
	path := fs.String("settings", settings.DefaultFileName, "settings file or project directory")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	var name string
	if !clean {
		if fs.NArg() != 1 {
			fmt.Fprintln(stderr, "usage: buildtree run [-settings path] <task>")
			return errUsage
		}
		name = fs.Arg(0)
	} else if fs.NArg() != 0 {
		fmt.Fprintln(stderr, "usage: buildtree clean [-settings path]")
		return errUsage
	}

	cfg, err := settings.Load(*path)
	if err != nil {
		return err
	}
	if clean {
		name = cfg.CleanTask
	}
	res, err := cfg.Configure(nil)
	if err != nil {
		return err
	}
	out, err := res.Tasks.Run(ctx, name)
	if err != nil {
		return fmt.Errorf("task %s failed: %w", name, err)
	}
	fmt.Fprintf(stdout, "%s: %s (%s)\n", name, out.Status, out.Message)
	return nil
}

func runInit(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("init", stderr)
	output := fs.String("output", "", "settings path (defaults to buildtree.<format>)")
	formatFlag := fs.String("format", "", "settings format: toml|yaml (defaults from -output extension)")
	force := fs.Bool("force", false, "overwrite an existing settings file")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	target := strings.TrimSpace(*output)
	format := settings.FormatOf(target)
	if *formatFlag != "" {
		parsed, err := settings.ParseFormat(*formatFlag)
		if err != nil {
			fmt.Fprintf(stderr, "buildtree: %v\n", err)
			return errUsage
		}
		format = parsed
	}
	if target == "" {
		target = "buildtree." + string(format)
	}

	if err := settings.WriteTemplate(target, format, *force); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "wrote %s settings template to %s\n", format, target)
	return nil
}

func runValidate(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("validate", stderr)
	path := fs.String("settings", settings.DefaultFileName, "settings file or project directory")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	res, err := loadAndConfigure(*path)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "✓ %s is valid (%d projects, output %s)\n",
		filepath.Base(*path), len(res.Tree.All()), res.RootOutput)
	return nil
}
