package persona

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/lewa-backend/internal/domain/tutor"
)

//go:embed personas.yaml
var defaultPersonas []byte

// LevelSpec is the configuration of one subject at one level.
type LevelSpec struct {
	Instructions string `yaml:"instructions"`
	Scope        string `yaml:"scope"`
	Refusal      string `yaml:"refusal,omitempty"`
	Verbosity    string `yaml:"verbosity"`
}

// SubjectSpec is the configuration of one subject.
type SubjectSpec struct {
	ID      string               `yaml:"id"`
	Name    string               `yaml:"name"`
	Aliases []string             `yaml:"aliases,omitempty"`
	Refusal string               `yaml:"refusal,omitempty"`
	Levels  map[string]LevelSpec `yaml:"levels"`
}

type file struct {
	Subjects []SubjectSpec `yaml:"subjects"`
}

// Registry maps (subject, level) to a persona. It is immutable after New.
type Registry struct {
	subjects []tutor.Subject
	aliases  map[string]tutor.Subject
	personas map[tutor.SubjectKey]tutor.Persona
}

// Default returns the registry built from the embedded persona table.
func Default() (*Registry, error) {
	return Parse(defaultPersonas)
}

// Load reads a persona table from path.
func Load(path string) (*Registry, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read personas: %w", err)
	}
	return Parse(b)
}

// Parse decodes a YAML persona table and validates it.
func Parse(b []byte) (*Registry, error) {
	var f file
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("decode personas: %w", err)
	}
	return New(f.Subjects)
}

// New validates that every subject defines every level and builds the registry.
func New(specs []SubjectSpec) (*Registry, error) {
	if len(specs) == 0 {
		return nil, errors.New("persona registry: no subjects configured")
	}

	r := &Registry{
		aliases:  map[string]tutor.Subject{},
		personas: map[tutor.SubjectKey]tutor.Persona{},
	}

	for _, s := range specs {
		id := strings.TrimSpace(s.ID)
		name := strings.TrimSpace(s.Name)
		if id == "" || name == "" {
			return nil, fmt.Errorf("persona registry: subject requires id and name (id=%q name=%q)", id, name)
		}
		subject := tutor.Subject{ID: id, Name: name}

		// Keys already claimed by an earlier subject, including a repeat of
		// this one, are rejected.
		var keys []string
		own := map[string]bool{}
		for _, alias := range append([]string{id, name}, s.Aliases...) {
			k := normalize(alias)
			if k == "" || own[k] {
				continue
			}
			if prev, exists := r.aliases[k]; exists {
				if prev == subject {
					return nil, fmt.Errorf("persona registry: duplicate subject %q", name)
				}
				return nil, fmt.Errorf("persona registry: subject %q collides with %q", name, prev.Name)
			}
			own[k] = true
			keys = append(keys, k)
		}
		for _, k := range keys {
			r.aliases[k] = subject
		}

		for raw := range s.Levels {
			if _, ok := tutor.ParseLevel(raw); !ok {
				return nil, fmt.Errorf("persona registry: subject %q has unknown level %q", name, raw)
			}
		}

		for _, level := range tutor.Levels() {
			spec, ok := s.Levels[string(level)]
			if !ok {
				return nil, fmt.Errorf("persona registry: subject %q missing level %s", name, level)
			}
			if strings.TrimSpace(spec.Instructions) == "" {
				return nil, fmt.Errorf("persona registry: subject %q level %s has empty instructions", name, level)
			}
			refusal := spec.Refusal
			if strings.TrimSpace(refusal) == "" {
				refusal = s.Refusal
			}
			key := tutor.SubjectKey{Subject: name, Level: level}
			r.personas[key] = tutor.Persona{
				Key:          key,
				Instructions: strings.TrimSpace(spec.Instructions),
				Scope:        strings.TrimSpace(spec.Scope),
				Refusal:      strings.TrimSpace(refusal),
				Verbosity:    strings.TrimSpace(spec.Verbosity),
			}
		}

		r.subjects = append(r.subjects, subject)
	}

	sort.Slice(r.subjects, func(i, j int) bool { return r.subjects[i].Name < r.subjects[j].Name })
	return r, nil
}

// Resolve maps a route id or display name to its canonical subject.
func (r *Registry) Resolve(name string) (tutor.Subject, bool) {
	s, ok := r.aliases[normalize(name)]
	return s, ok
}

// Lookup returns the persona for key. Keys built from a resolved subject and a
// parsed level always succeed; anything else is a programming error.
func (r *Registry) Lookup(key tutor.SubjectKey) tutor.Persona {
	p, ok := r.personas[key]
	if !ok {
		panic(fmt.Sprintf("persona registry: no persona for %s", key))
	}
	return p
}

// Subjects returns the configured subjects sorted by name.
func (r *Registry) Subjects() []tutor.Subject {
	out := make([]tutor.Subject, len(r.subjects))
	copy(out, r.subjects)
	return out
}

func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("_", "", "-", "", " ", "").Replace(s)
}
