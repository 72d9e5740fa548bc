package patterns

import (
	"errors"
	"fmt"
	"io"
	"regexp"

	"gopkg.in/yaml.v3"

	"ncertrag/internal/domain"
)

// Pattern is one recognisable marker form. The first capture group, if any, is the element identifier.
type Pattern struct {
	ID         string             `yaml:"id"`
	Regex      string             `yaml:"regex"`
	Type       domain.ElementType `yaml:"type"`
	Confidence float64            `yaml:"confidence"`
	Language   string             `yaml:"language"`
	Examples   []string           `yaml:"examples,omitempty"`

	re *regexp.Regexp
}

// Library is an ordered, per-type set of patterns. Order within a type is the preference order.
type Library struct {
	Name     string
	order    []domain.ElementType
	patterns map[domain.ElementType][]*Pattern
}

type libraryFile struct {
	Name     string    `yaml:"name"`
	Patterns []Pattern `yaml:"patterns"`
}

// NewLibrary compiles the given patterns into a library.
func NewLibrary(name string, patterns ...Pattern) (*Library, error) {
	l := &Library{Name: name, patterns: make(map[domain.ElementType][]*Pattern)}
	for _, p := range patterns {
		if err := l.Add(p); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Add compiles p and appends it after existing patterns of the same type.
func (l *Library) Add(p Pattern) error {
	if p.ID == "" || p.Type == "" {
		return fmt.Errorf("pattern %q: id and type are required", p.ID)
	}
	re, err := regexp.Compile(p.Regex)
	if err != nil {
		return fmt.Errorf("pattern %s: %w", p.ID, err)
	}
	if p.Confidence <= 0 || p.Confidence > 1 {
		p.Confidence = 0.8
	}
	p.re = re
	if _, ok := l.patterns[p.Type]; !ok {
		l.order = append(l.order, p.Type)
	}
	cp := p
	l.patterns[p.Type] = append(l.patterns[p.Type], &cp)
	return nil
}

// Patterns returns the patterns registered for t in preference order.
func (l *Library) Patterns(t domain.ElementType) []Pattern {
	src := l.patterns[t]
	out := make([]Pattern, len(src))
	for i, p := range src {
		out[i] = *p
	}
	return out
}

// Types returns the element types that have at least one pattern, in registration order.
func (l *Library) Types() []domain.ElementType {
	return append([]domain.ElementType(nil), l.order...)
}

// Validate checks that every pattern matches each of its own examples.
func (l *Library) Validate() error {
	var errs []error
	for _, t := range l.order {
		for _, p := range l.patterns[t] {
			for _, ex := range p.Examples {
				if !p.re.MatchString(ex) {
					errs = append(errs, fmt.Errorf("pattern %s does not match example %q", p.ID, ex))
				}
			}
		}
	}
	return errors.Join(errs...)
}

// Export writes the library as YAML.
func (l *Library) Export(w io.Writer) error {
	f := libraryFile{Name: l.Name}
	for _, t := range l.order {
		for _, p := range l.patterns[t] {
			f.Patterns = append(f.Patterns, *p)
		}
	}
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(f)
}

// Import reads a YAML library written by Export.
func Import(r io.Reader) (*Library, error) {
	var f libraryFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode pattern library: %w", err)
	}
	return NewLibrary(f.Name, f.Patterns...)
}

// Merge returns a new library with the patterns of l followed by those of other.
// Loading a second language this way leaves both inputs untouched.
func (l *Library) Merge(other *Library) (*Library, error) {
	var all []Pattern
	for _, src := range []*Library{l, other} {
		for _, t := range src.order {
			all = append(all, src.Patterns(t)...)
		}
	}
	return NewLibrary(l.Name+"+"+other.Name, all...)
}
