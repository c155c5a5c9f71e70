package extract

import (
	"fmt"
	"sort"

	"enzclass/ports"
)

// Constructor builds a fresh extractor instance
type Constructor func() ports.Extractor

// registry maps extractor names to constructors; resolved once at pipeline
// setup rather than through scattered runtime type checks.
var registry = map[string]Constructor{
	NameComposition:        func() ports.Extractor { return NewComposition() },
	NamePhysicochemical:    func() ports.Extractor { return NewPhysicochemical() },
	NameSecondaryStructure: func() ports.Extractor { return NewSecondaryStructure() },
}

// New resolves an extractor by registered name
func New(name string) (ports.Extractor, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown extractor %q (available: %v)", name, Available())
	}
	return ctor(), nil
}

// NewAll resolves a list of extractor names, rejecting duplicates since a
// duplicated extractor would produce colliding qualified column names.
func NewAll(names []string) ([]ports.Extractor, error) {
	seen := make(map[string]bool, len(names))
	out := make([]ports.Extractor, 0, len(names))
	for _, name := range names {
		if seen[name] {
			return nil, fmt.Errorf("extractor %q configured twice", name)
		}
		seen[name] = true
		ex, err := New(name)
		if err != nil {
			return nil, err
		}
		out = append(out, ex)
	}
	return out, nil
}

// Available returns all registered extractor names, sorted
func Available() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
