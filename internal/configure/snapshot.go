package configure

import (
	"github.com/danmuck/buildtree/internal/repository"
	"github.com/danmuck/buildtree/internal/tasks"
)

// Snapshot is the printable view of a Result.
type Snapshot struct {
	Root         ProjectSnapshot         `toml:"root" yaml:"root"`
	RootOutput   string                  `toml:"root_output" yaml:"root_output"`
	Repositories []repository.Repository `toml:"repositories" yaml:"repositories"`
	Sequence     []string                `toml:"evaluation_sequence" yaml:"evaluation_sequence"`
	Projects     []ProjectSnapshot       `toml:"projects" yaml:"projects"`
	Tasks        []tasks.Metadata        `toml:"tasks" yaml:"tasks"`
}

type ProjectSnapshot struct {
	Name           string   `toml:"name" yaml:"name"`
	Path           string   `toml:"path" yaml:"path"`
	ProjectDir     string   `toml:"project_dir" yaml:"project_dir"`
	OutputDir      string   `toml:"output_dir" yaml:"output_dir"`
	EvaluatedAfter []string `toml:"evaluated_after,omitempty" yaml:"evaluated_after,omitempty"`
}

func (r *Result) Snapshot() Snapshot {
	snap := Snapshot{
		Root: ProjectSnapshot{
			Name:       r.Tree.Root.Name,
			Path:       r.Tree.Root.Path(),
			ProjectDir: r.Tree.Root.ProjectDir,
			OutputDir:  r.Tree.Root.OutputDir,
		},
		RootOutput:   r.RootOutput,
		Repositories: r.Repositories.List(),
		Sequence:     append([]string(nil), r.Sequence...),
		Tasks:        r.Tasks.List(),
	}
	for _, sub := range r.Tree.Subprojects() {
		snap.Projects = append(snap.Projects, ProjectSnapshot{
			Name:           sub.Name,
			Path:           sub.Path(),
			ProjectDir:     sub.ProjectDir,
			OutputDir:      sub.OutputDir,
			EvaluatedAfter: r.Order.Dependencies(sub.Path()),
		})
	}
	return snap
}
