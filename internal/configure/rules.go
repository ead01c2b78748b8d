package configure

import "github.com/danmuck/buildtree/internal/repository"

const (
	DefaultRelocate         = "../../build"
	DefaultEvaluationAnchor = "app"
	DefaultCleanTask        = "clean"
)

// Rules are the declarative settings applied by one pass.
type Rules struct {
	Repositories     *repository.Set
	Relocate         string
	EvaluationAnchor string
	CleanTask        string
}

// DefaultRules mirrors the stock native build fragment.
func DefaultRules() Rules {
	return Rules{
		Repositories:     repository.Default(),
		Relocate:         DefaultRelocate,
		EvaluationAnchor: DefaultEvaluationAnchor,
		CleanTask:        DefaultCleanTask,
	}
}

func (r Rules) withDefaults() Rules {
	if r.Repositories == nil {
		r.Repositories = repository.Default()
	}
	if r.Relocate == "" {
		r.Relocate = DefaultRelocate
	}
	if r.EvaluationAnchor == "" {
		r.EvaluationAnchor = DefaultEvaluationAnchor
	}
	if r.CleanTask == "" {
		r.CleanTask = DefaultCleanTask
	}
	return r
}
