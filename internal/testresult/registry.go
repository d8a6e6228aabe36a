package testresult

import (
	"fmt"
	"sort"
	"strings"
)

// Registry maps format names to parsers.
type Registry struct {
	parsers  map[string]Parser
	coverage map[string]CoverageParser
}

// NewRegistry creates a registry with all built-in parsers.
func NewRegistry() *Registry {
	r := &Registry{
		parsers:  make(map[string]Parser),
		coverage: make(map[string]CoverageParser),
	}

	nunit := &NUnitParser{}
	r.parsers["nunit"] = nunit
	r.parsers["nunitxml"] = nunit
	r.parsers["junit"] = &JUnitParser{}
	r.coverage["jacoco"] = &JaCoCoParser{}

	return r
}

// Parser returns the result parser for a format name.
func (r *Registry) Parser(format string) (Parser, error) {
	p, ok := r.parsers[strings.ToLower(format)]
	if !ok {
		return nil, fmt.Errorf("unknown result format %q (known: %s)", format, strings.Join(keys(r.parsers), ", "))
	}
	return p, nil
}

// CoverageParser returns the coverage parser for a format name.
func (r *Registry) CoverageParser(format string) (CoverageParser, error) {
	p, ok := r.coverage[strings.ToLower(format)]
	if !ok {
		return nil, fmt.Errorf("unknown coverage format %q (known: %s)", format, strings.Join(keys(r.coverage), ", "))
	}
	return p, nil
}

// RegisterParser adds a custom result parser.
func (r *Registry) RegisterParser(format string, p Parser) {
	r.parsers[strings.ToLower(format)] = p
}

func keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
