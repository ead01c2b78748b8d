package settings

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/buildtree/internal/configure"
	"github.com/danmuck/buildtree/internal/project"
	"github.com/danmuck/buildtree/internal/repository"
	"gopkg.in/yaml.v3"
)

const (
	DefaultFileName  = "buildtree.toml"
	DefaultOutputDir = "build"
)

var ErrInvalidSettings = errors.New("invalid settings")

type fileSettings struct {
	Name             string           `toml:"name" yaml:"name"`
	OutputDir        string           `toml:"output_dir" yaml:"output_dir"`
	Include          []string         `toml:"include" yaml:"include"`
	Relocate         string           `toml:"relocate" yaml:"relocate"`
	EvaluationAnchor string           `toml:"evaluation_anchor" yaml:"evaluation_anchor"`
	CleanTask        string           `toml:"clean_task" yaml:"clean_task"`
	Repositories     []repository.Ref `toml:"repositories" yaml:"repositories"`
}

var knownKeys = []string{
	"name",
	"output_dir",
	"include",
	"relocate",
	"evaluation_anchor",
	"clean_task",
	"repositories",
}

// Settings is a loaded settings file with defaults applied.
type Settings struct {
	Path             string
	RootDir          string
	Name             string
	OutputDir        string
	Include          []string
	Relocate         string
	EvaluationAnchor string
	CleanTask        string
	Repositories     []repository.Ref
}

// Load reads settings from path. A directory resolves to DefaultFileName inside it.
func Load(path string) (Settings, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Settings{}, err
	}

	var raw fileSettings
	var defined map[string]bool
	switch FormatOf(resolved) {
	case FormatYAML:
		raw, defined, err = decodeYAML(resolved)
	default:
		raw, defined, err = decodeTOML(resolved)
	}
	if err != nil {
		return Settings{}, err
	}

	cfg, err := fromFile(resolved, raw, defined)
	if err != nil {
		return Settings{}, err
	}
	if err := Validate(cfg); err != nil {
		return Settings{}, err
	}
	return cfg, nil
}

func resolvePath(path string) (string, error) {
	p := strings.TrimSpace(path)
	if p == "" {
		p = DefaultFileName
	}
	if info, err := os.Stat(p); err == nil && info.IsDir() {
		p = filepath.Join(p, DefaultFileName)
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("settings path (%s): %w", p, err)
	}
	return abs, nil
}

func decodeTOML(path string) (fileSettings, map[string]bool, error) {
	var raw fileSettings
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fileSettings{}, nil, fmt.Errorf("settings load failed (%s): %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return fileSettings{}, nil, fmt.Errorf("%w: unknown key %q in %s", ErrInvalidSettings, undecoded[0].String(), path)
	}
	defined := make(map[string]bool, len(knownKeys))
	for _, key := range knownKeys {
		defined[key] = meta.IsDefined(key)
	}
	return raw, defined, nil
}

func decodeYAML(path string) (fileSettings, map[string]bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return fileSettings{}, nil, fmt.Errorf("settings load failed (%s): %w", path, err)
	}
	defined := make(map[string]bool, len(knownKeys))
	var raw fileSettings
	if len(bytes.TrimSpace(data)) == 0 {
		return raw, defined, nil
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fileSettings{}, nil, fmt.Errorf("settings parse failed (%s): %w", path, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return fileSettings{}, nil, fmt.Errorf("%w: %s: %v", ErrInvalidSettings, path, err)
	}
	if len(doc.Content) > 0 && doc.Content[0].Kind == yaml.MappingNode {
		m := doc.Content[0]
		for i := 0; i+1 < len(m.Content); i += 2 {
			defined[m.Content[i].Value] = true
		}
	}
	return raw, defined, nil
}

func fromFile(path string, raw fileSettings, defined map[string]bool) (Settings, error) {
	rootDir := filepath.Dir(path)
	cfg := Settings{
		Path:             path,
		RootDir:          rootDir,
		Name:             filepath.Base(rootDir),
		OutputDir:        filepath.Join(rootDir, DefaultOutputDir),
		Relocate:         configure.DefaultRelocate,
		EvaluationAnchor: configure.DefaultEvaluationAnchor,
		CleanTask:        configure.DefaultCleanTask,
	}

	if defined["name"] {
		if name := strings.TrimSpace(raw.Name); name != "" {
			cfg.Name = name
		}
	}

	if defined["output_dir"] {
		out := strings.TrimSpace(raw.OutputDir)
		if out == "" {
			return Settings{}, fmt.Errorf("%w: output_dir is empty", ErrInvalidSettings)
		}
		if !filepath.IsAbs(out) {
			out = filepath.Join(rootDir, filepath.FromSlash(out))
		}
		cfg.OutputDir = out
	}

	if defined["include"] {
		cfg.Include = normalizeIncludes(raw.Include)
	}

	if defined["relocate"] {
		cfg.Relocate = strings.TrimSpace(raw.Relocate)
	}

	if defined["evaluation_anchor"] {
		cfg.EvaluationAnchor = strings.TrimSpace(raw.EvaluationAnchor)
	}

	if defined["clean_task"] {
		cfg.CleanTask = strings.TrimSpace(raw.CleanTask)
	}

	if defined["repositories"] {
		cfg.Repositories = raw.Repositories
	}

	return cfg, nil
}

func normalizeIncludes(in []string) []string {
	if len(in) == 0 {
		return []string{}
	}
	out := make([]string, 0, len(in))
	for _, name := range in {
		v := strings.TrimSpace(name)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}

// Validate checks fields a configuration pass cannot recover from.
func Validate(cfg Settings) error {
	if strings.TrimSpace(cfg.Relocate) == "" {
		return fmt.Errorf("%w: relocate is empty", ErrInvalidSettings)
	}
	if strings.TrimSpace(cfg.EvaluationAnchor) == "" {
		return fmt.Errorf("%w: evaluation_anchor is empty", ErrInvalidSettings)
	}
	if strings.TrimSpace(cfg.CleanTask) == "" {
		return fmt.Errorf("%w: clean_task is empty", ErrInvalidSettings)
	}
	seen := make(map[string]struct{}, len(cfg.Include))
	for i, name := range cfg.Include {
		normalized, err := project.NormalizeName(name)
		if err != nil {
			return fmt.Errorf("include[%d] invalid: %w", i, err)
		}
		if _, ok := seen[normalized]; ok {
			return fmt.Errorf("include[%d] invalid: %w: %s", i, project.ErrDuplicateNode, normalized)
		}
		seen[normalized] = struct{}{}
	}
	for i, ref := range cfg.Repositories {
		if _, err := repository.Resolve(ref); err != nil {
			return fmt.Errorf("repositories[%d] invalid: %w", i, err)
		}
	}
	return nil
}

// Tree builds the project tree described by the settings.
func (s Settings) Tree() (*project.Tree, error) {
	tree := project.NewTree(s.Name, s.RootDir, s.OutputDir)
	for _, name := range s.Include {
		if _, err := tree.Include(name); err != nil {
			return nil, err
		}
	}
	return tree, nil
}

// Rules builds the configuration rules described by the settings.
func (s Settings) Rules() (configure.Rules, error) {
	repos, err := repository.FromRefs(s.Repositories)
	if err != nil {
		return configure.Rules{}, err
	}
	return configure.Rules{
		Repositories:     repos,
		Relocate:         s.Relocate,
		EvaluationAnchor: s.EvaluationAnchor,
		CleanTask:        s.CleanTask,
	}, nil
}

// Configure builds the tree and rules and runs one configuration pass.
func (s Settings) Configure(ld *configure.Loader) (*configure.Result, error) {
	tree, err := s.Tree()
	if err != nil {
		return nil, err
	}
	rules, err := s.Rules()
	if err != nil {
		return nil, err
	}
	if ld == nil {
		ld = configure.NewLoader()
	}
	return ld.Apply(tree, rules)
}
