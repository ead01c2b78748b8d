// Package repository models the ordered package-source locations shared by
// every project in a tree.
package repository

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var (
	ErrUnknownRepository = errors.New("unknown repository")
	ErrInvalidURL        = errors.New("invalid repository url")
)

const (
	GoogleName       = "google"
	MavenCentralName = "mavenCentral"

	GoogleURL       = "https://dl.google.com/dl/android/maven2/"
	MavenCentralURL = "https://repo.maven.apache.org/maven2/"
)

// Repository is one package-source location.
type Repository struct {
	Name string `toml:"name" yaml:"name"`
	URL  string `toml:"url" yaml:"url"`
}

// Ref is a settings reference: a well-known name, or a name plus explicit url.
type Ref struct {
	Name string `toml:"name" yaml:"name"`
	URL  string `toml:"url" yaml:"url"`
}

func Google() Repository {
	return Repository{Name: GoogleName, URL: GoogleURL}
}

func MavenCentral() Repository {
	return Repository{Name: MavenCentralName, URL: MavenCentralURL}
}

// Set is an ordered set of repositories keyed by URL.
type Set struct {
	items []Repository
	seen  map[string]struct{}
}

// New builds a set from repos, dropping later duplicates.
func New(repos ...Repository) *Set {
	s := &Set{seen: make(map[string]struct{})}
	for _, r := range repos {
		s.Add(r)
	}
	return s
}

// Default returns the google + mavenCentral set.
func Default() *Set {
	return New(Google(), MavenCentral())
}

// Add appends r unless its URL is already present. It reports whether r was added.
func (s *Set) Add(r Repository) bool {
	key := canonicalURL(r.URL)
	if _, ok := s.seen[key]; ok {
		return false
	}
	s.seen[key] = struct{}{}
	s.items = append(s.items, r)
	return true
}

// List returns a copy of the repositories in order.
func (s *Set) List() []Repository {
	out := make([]Repository, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Set) Len() int {
	return len(s.items)
}

func (s *Set) Contains(rawURL string) bool {
	_, ok := s.seen[canonicalURL(rawURL)]
	return ok
}

// Resolve turns a settings reference into a repository.
func Resolve(ref Ref) (Repository, error) {
	name := strings.TrimSpace(ref.Name)
	rawURL := strings.TrimSpace(ref.URL)
	if rawURL != "" {
		u, err := url.Parse(rawURL)
		if err != nil {
			return Repository{}, fmt.Errorf("%w: %q: %v", ErrInvalidURL, rawURL, err)
		}
		switch u.Scheme {
		case "http", "https", "file":
		default:
			return Repository{}, fmt.Errorf("%w: %q: unsupported scheme", ErrInvalidURL, rawURL)
		}
		if u.Scheme != "file" && u.Host == "" {
			return Repository{}, fmt.Errorf("%w: %q: missing host", ErrInvalidURL, rawURL)
		}
		if name == "" {
			name = u.Host
		}
		return Repository{Name: name, URL: rawURL}, nil
	}
	switch strings.ToLower(name) {
	case strings.ToLower(GoogleName):
		return Google(), nil
	case strings.ToLower(MavenCentralName):
		return MavenCentral(), nil
	default:
		return Repository{}, fmt.Errorf("%w: %q", ErrUnknownRepository, ref.Name)
	}
}

// FromRefs resolves refs in order. An empty list yields Default().
func FromRefs(refs []Ref) (*Set, error) {
	if len(refs) == 0 {
		return Default(), nil
	}
	s := New()
	for i, ref := range refs {
		r, err := Resolve(ref)
		if err != nil {
			return nil, fmt.Errorf("repository[%d]: %w", i, err)
		}
		s.Add(r)
	}
	return s, nil
}

func canonicalURL(raw string) string {
	return strings.TrimSuffix(strings.TrimSpace(raw), "/")
}
