package mocks

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/AndreyAkinshin/kitci/internal/ci"
	"github.com/AndreyAkinshin/kitci/internal/engine"
	"github.com/AndreyAkinshin/kitci/internal/report"
	"github.com/AndreyAkinshin/kitci/internal/testresult"
)

var (
	_ engine.Engine    = (*Engine)(nil)
	_ report.Sink      = (*Sink)(nil)
	_ ci.ArtifactStore = (*ArtifactStore)(nil)
	_ ci.TestReporter  = (*TestReporter)(nil)
)

func TestEngine_ScriptedResults(t *testing.T) {
	t.Parallel()
	out := filepath.Join(t.TempDir(), "r.xml")

	m := NewEngine().
		WithResult("unit", &testresult.TestResult{Passed: 3}).
		WithError("broken", errors.New("engine crashed")).
		WithDocument("<doc/>")

	r, err := m.Run(context.Background(), engine.Request{Path: "unit", OutputFile: out})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if r.Passed != 3 {
		t.Errorf("Passed = %d, want 3", r.Passed)
	}
	data, err := os.ReadFile(out)
	if err != nil || string(data) != "<doc/>" {
		t.Errorf("document = %q, %v", data, err)
	}

	if _, err := m.Run(context.Background(), engine.Request{Path: "broken"}); err == nil {
		t.Error("Run(broken) error = nil, want error")
	}

	r, err = m.Run(context.Background(), engine.Request{Path: "other"})
	if err != nil || r.Passed != 0 || r.Failed != 0 {
		t.Errorf("Run(other) = %+v, %v, want empty result", r, err)
	}

	if got := m.Paths(); len(got) != 3 || got[0] != "unit" || got[2] != "other" {
		t.Errorf("Paths() = %v", got)
	}
}

func TestEngine_ResultIsCopied(t *testing.T) {
	t.Parallel()
	scripted := &testresult.TestResult{Passed: 1}
	m := NewEngine().WithResult(".", scripted)

	r, _ := m.Run(context.Background(), engine.Request{Path: "."})
	r.Passed = 99

	if scripted.Passed != 1 {
		t.Errorf("scripted result was modified: %d", scripted.Passed)
	}
}

func TestSink_Values(t *testing.T) {
	t.Parallel()
	s := &Sink{}
	_ = s.Publish(context.Background(), "A", "1")
	_ = s.Publish(context.Background(), "A", "2")

	if got := s.Values()["A"]; got != "2" {
		t.Errorf("Values()[A] = %q, want 2", got)
	}
	if len(s.Published()) != 2 {
		t.Errorf("Published() len = %d, want 2", len(s.Published()))
	}

	failing := &Sink{Err: errors.New("x")}
	if err := failing.Publish(context.Background(), "A", "1"); err == nil {
		t.Error("Publish() error = nil, want error")
	}
}

func TestArtifactStoreAndReporter(t *testing.T) {
	t.Parallel()
	store := &ArtifactStore{Err: errors.New("offline")}
	if err := store.Push(context.Background(), "a.zip"); err == nil {
		t.Error("Push() error = nil, want error")
	}
	if got := store.Pushed(); len(got) != 1 || got[0] != "a.zip" {
		t.Errorf("Pushed() = %v", got)
	}

	rep := &TestReporter{}
	_ = rep.ReportTest(context.Background(), ci.TestRecord{Name: "t"})
	if got := rep.Records(); len(got) != 1 || got[0].Name != "t" {
		t.Errorf("Records() = %v", got)
	}
}
