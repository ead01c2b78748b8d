package configure

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/danmuck/buildtree/internal/evaluation"
	"github.com/danmuck/buildtree/internal/logging"
	"github.com/danmuck/buildtree/internal/project"
	"github.com/danmuck/buildtree/internal/repository"
	"github.com/danmuck/buildtree/internal/tasks"
	"github.com/rs/zerolog"
)

var ErrPathResolution = errors.New("build output path resolution failed")

// Result is the configured state handed to the rest of the build.
type Result struct {
	Tree         *project.Tree
	Repositories *repository.Set
	RootOutput   string
	Order        *evaluation.Order
	Sequence     []string
	Tasks        *tasks.Registry
}

// Loader applies Rules to a tree.
type Loader struct {
	log zerolog.Logger
	abs func(string) (string, error)
}

type Option func(*Loader)

// WithLogger replaces the component logger.
func WithLogger(l zerolog.Logger) Option {
	return func(ld *Loader) {
		ld.log = l
	}
}

// WithAbs replaces the absolute path resolver.
func WithAbs(abs func(string) (string, error)) Option {
	return func(ld *Loader) {
		ld.abs = abs
	}
}

func NewLoader(opts ...Option) *Loader {
	ld := &Loader{
		log: logging.WithComponent("configure"),
		abs: filepath.Abs,
	}
	for _, opt := range opts {
		opt(ld)
	}
	return ld
}

// Apply runs the pass with a default loader.
func Apply(tree *project.Tree, rules Rules) (*Result, error) {
	return NewLoader().Apply(tree, rules)
}

// Apply mutates tree in place and returns the configured state.
func (ld *Loader) Apply(tree *project.Tree, rules Rules) (*Result, error) {
	if tree == nil || tree.Root == nil {
		return nil, fmt.Errorf("configure: nil project tree")
	}
	rules = rules.withDefaults()
	res := &Result{Tree: tree}

	ld.registerRepositories(tree, rules.Repositories, res)
	if err := ld.relocateOutput(tree, rules.Relocate, res); err != nil {
		return nil, err
	}
	if err := ld.declareEvaluationOrder(tree, rules.EvaluationAnchor, res); err != nil {
		return nil, err
	}
	if err := ld.registerClean(rules.CleanTask, res); err != nil {
		return nil, err
	}
	return res, nil
}

func (ld *Loader) registerRepositories(tree *project.Tree, repos *repository.Set, res *Result) {
	for _, node := range tree.All() {
		node.Repositories = repos
	}
	res.Repositories = repos
	ld.log.Info().
		Str("op", "repositories").
		Int("projects", len(tree.All())).
		Int("repositories", repos.Len()).
		Msg("shared repositories registered")
}

func (ld *Loader) relocateOutput(tree *project.Tree, relocate string, res *Result) error {
	root, err := ld.RelocatedOutput(tree.Root, relocate)
	if err != nil {
		return err
	}
	tree.Root.OutputDir = root
	for _, sub := range tree.Subprojects() {
		sub.OutputDir = filepath.Join(root, sub.Name)
	}
	res.RootOutput = root
	ld.log.Info().
		Str("op", "relocate").
		Str("root_output", root).
		Int("subprojects", len(tree.Subprojects())).
		Msg("build output relocated")
	return nil
}

// RelocatedOutput resolves relocate against the root's current output directory.
func (ld *Loader) RelocatedOutput(root *project.Node, relocate string) (string, error) {
	original := strings.TrimSpace(root.OutputDir)
	if original == "" {
		return "", fmt.Errorf("%w: root project %q has no output directory", ErrPathResolution, root.Name)
	}
	if !filepath.IsAbs(original) && root.ProjectDir != "" {
		original = filepath.Join(root.ProjectDir, original)
	}
	target := filepath.FromSlash(strings.TrimSpace(relocate))
	if !filepath.IsAbs(target) {
		target = filepath.Join(original, target)
	}
	target = filepath.Clean(target)
	resolved, err := ld.abs(target)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrPathResolution, target, err)
	}
	return resolved, nil
}

func (ld *Loader) declareEvaluationOrder(tree *project.Tree, anchor string, res *Result) error {
	anchorNode, err := tree.Require(anchor)
	if err != nil {
		return fmt.Errorf("evaluation anchor: %w", err)
	}

	order := evaluation.New(tree.Root.Path())
	for _, sub := range tree.Subprojects() {
		order.Add(sub.Path())
	}
	for _, sub := range tree.Subprojects() {
		if sub == anchorNode {
			continue
		}
		if err := order.DependsOn(sub.Path(), anchorNode.Path()); err != nil {
			return fmt.Errorf("evaluation order: %w", err)
		}
	}
	seq, err := order.Sequence()
	if err != nil {
		return fmt.Errorf("evaluation order: %w", err)
	}
	res.Order = order
	res.Sequence = seq
	ld.log.Info().
		Str("op", "evaluation").
		Str("anchor", anchorNode.Path()).
		Strs("sequence", seq).
		Msg("evaluation order declared")
	return nil
}

func (ld *Loader) registerClean(name string, res *Result) error {
	registry := tasks.NewRegistry()
	clean := tasks.NewDeleteTask(name, "Deletes the build directory.", res.RootOutput).
		Protect(res.Tree.Root.ProjectDir)
	if err := registry.Register(clean); err != nil {
		return fmt.Errorf("register %s task: %w", name, err)
	}
	res.Tasks = registry
	ld.log.Info().
		Str("op", "tasks").
		Str("task", name).
		Str("target", res.RootOutput).
		Msg("task registered")
	return nil
}
