// Package mocks provides shared test doubles for kitci packages.
package mocks

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/AndreyAkinshin/kitci/internal/ci"
	"github.com/AndreyAkinshin/kitci/internal/engine"
	"github.com/AndreyAkinshin/kitci/internal/testresult"
)

// Engine implements engine.Engine for testing.
// Use NewEngine() to create instances with a fluent builder API.
type Engine struct {
	results  map[string]*testresult.TestResult
	errs     map[string]error
	document string

	// RunFunc, if set, replaces the scripted behavior.
	RunFunc func(ctx context.Context, req engine.Request) (*testresult.TestResult, error)

	mu       sync.Mutex
	requests []engine.Request
}

// NewEngine creates a mock engine that returns an empty result for every
// test path and writes a minimal result document.
func NewEngine() *Engine {
	return &Engine{
		results:  make(map[string]*testresult.TestResult),
		errs:     make(map[string]error),
		document: `<test-results total="0"/>`,
	}
}

// WithResult scripts the result returned for a test path.
func (m *Engine) WithResult(path string, r *testresult.TestResult) *Engine {
	m.results[path] = r
	return m
}

// WithError scripts an error for a test path.
func (m *Engine) WithError(path string, err error) *Engine {
	m.errs[path] = err
	return m
}

// WithDocument sets the raw document written to the request's OutputFile.
func (m *Engine) WithDocument(doc string) *Engine {
	m.document = doc
	return m
}

// Run records the request, writes the document and returns the scripted
// result. The returned result is a copy so callers may modify it.
func (m *Engine) Run(ctx context.Context, req engine.Request) (*testresult.TestResult, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.RunFunc != nil {
		return m.RunFunc(ctx, req)
	}
	if err := m.errs[req.Path]; err != nil {
		return nil, err
	}
	if req.OutputFile != "" {
		if err := os.WriteFile(req.OutputFile, []byte(m.document), 0644); err != nil {
			return nil, fmt.Errorf("mock engine: %w", err)
		}
	}

	r, ok := m.results[req.Path]
	if !ok {
		return &testresult.TestResult{}, nil
	}
	cp := *r
	return &cp, nil
}

// Requests returns the recorded requests in call order.
func (m *Engine) Requests() []engine.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]engine.Request(nil), m.requests...)
}

// Paths returns the test paths of the recorded requests in call order.
func (m *Engine) Paths() []string {
	reqs := m.Requests()
	paths := make([]string, len(reqs))
	for i, r := range reqs {
		paths[i] = r.Path
	}
	return paths
}

// Sink records published values.
type Sink struct {
	Err error

	mu        sync.Mutex
	published []Published
}

// Published is one recorded Sink.Publish call.
type Published struct {
	Name  string
	Value string
}

// Publish records name=value, or returns Err when set.
func (s *Sink) Publish(_ context.Context, name, value string) error {
	if s.Err != nil {
		return s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.published = append(s.published, Published{Name: name, Value: value})
	return nil
}

// Name returns "mock".
func (s *Sink) Name() string {
	return "mock"
}

// Published returns the recorded calls in order.
func (s *Sink) Published() []Published {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Published(nil), s.published...)
}

// Values returns the last published value for every name.
func (s *Sink) Values() map[string]string {
	out := map[string]string{}
	for _, p := range s.Published() {
		out[p.Name] = p.Value
	}
	return out
}

// ArtifactStore records pushed paths.
type ArtifactStore struct {
	Err error

	mu     sync.Mutex
	pushed []string
}

// Push records path and returns Err.
func (s *ArtifactStore) Push(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pushed = append(s.pushed, path)
	return s.Err
}

// Pushed returns the pushed paths in order, including failed attempts.
func (s *ArtifactStore) Pushed() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.pushed...)
}

// TestReporter records reported test cases.
type TestReporter struct {
	Err error

	mu      sync.Mutex
	records []ci.TestRecord
}

// ReportTest records rec and returns Err.
func (r *TestReporter) ReportTest(_ context.Context, rec ci.TestRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
	return r.Err
}

// Records returns the reported test cases in order, including failed attempts.
func (r *TestReporter) Records() []ci.TestRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ci.TestRecord(nil), r.records...)
}
