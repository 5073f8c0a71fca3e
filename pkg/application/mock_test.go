package application_test

import (
	"context"
	"fmt"
	"sync"

	"github.com/felixgeelhaar/agentforge/pkg/domain"
	"github.com/felixgeelhaar/agentforge/pkg/domain/capability"
	"github.com/felixgeelhaar/agentforge/pkg/domain/lifecycle"
	"github.com/felixgeelhaar/agentforge/pkg/domain/prompt"
	"github.com/felixgeelhaar/agentforge/pkg/domain/spec"
	"github.com/felixgeelhaar/agentforge/pkg/domain/testcase"
)

type MockRepo struct {
	Spec        *spec.Specification
	Caps        capability.Config
	Knowledge   *prompt.KnowledgeMap
	Lifecycle   *lifecycle.Record
	Build       *domain.Build
	Initialized bool
	SaveError   error
	LoadError   error

	// Failures for a single artifact. Nothing is stored when they are set.
	SaveBuildError     error
	SaveLifecycleError error
}

func (m *MockRepo) Initialize() error   { m.Initialized = true; return nil }
func (m *MockRepo) IsInitialized() bool { return m.Initialized }

func (m *MockRepo) SaveSpec(s *spec.Specification) error { m.Spec = s; return m.SaveError }
func (m *MockRepo) LoadSpec() (*spec.Specification, error) {
	if m.LoadError != nil {
		return nil, m.LoadError
	}
	if m.Spec == nil {
		return nil, spec.ErrNotFound
	}
	return m.Spec, nil
}

func (m *MockRepo) SaveCapabilities(c capability.Config) error     { m.Caps = c; return m.SaveError }
func (m *MockRepo) LoadCapabilities() (capability.Config, error)    { return m.Caps, m.LoadError }
func (m *MockRepo) SaveKnowledgeMap(km *prompt.KnowledgeMap) error  { m.Knowledge = km; return m.SaveError }
func (m *MockRepo) LoadKnowledgeMap() (*prompt.KnowledgeMap, error) { return m.Knowledge, m.LoadError }
func (m *MockRepo) SaveBuild(b *domain.Build) error {
	if m.SaveBuildError != nil {
		return m.SaveBuildError
	}
	m.Build = b
	return m.SaveError
}

func (m *MockRepo) LoadBuild() (*domain.Build, error) { return m.Build, m.LoadError }

func (m *MockRepo) SaveLifecycle(r *lifecycle.Record) error {
	if m.SaveLifecycleError != nil {
		return m.SaveLifecycleError
	}
	copied := *r
	m.Lifecycle = &copied
	return m.SaveError
}

func (m *MockRepo) LoadLifecycle() (*lifecycle.Record, error) {
	if m.Lifecycle == nil {
		return lifecycle.NewRecord(), m.LoadError
	}
	copied := *m.Lifecycle
	return &copied, m.LoadError
}

type MockHistory struct {
	mu      sync.Mutex
	Entries []domain.HistoryEntry
}

func (h *MockHistory) Append(e *domain.HistoryEntry) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Entries = append(h.Entries, *e)
	return nil
}

func (h *MockHistory) Types() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, 0, len(h.Entries))
	for _, e := range h.Entries {
		out = append(out, e.Type)
	}
	return out
}

// MockTests is an in-memory testcase.Repository.
type MockTests struct {
	mu    sync.Mutex
	Cases []testcase.Case
	Runs  []testcase.Run
}

func (m *MockTests) AddTestCase(_ context.Context, tc *testcase.Case) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if tc.ID == "" {
		tc.ID = fmt.Sprintf("tc-%d", len(m.Cases)+1)
	}
	m.Cases = append(m.Cases, *tc)
	return nil
}

func (m *MockTests) ListTestCases(context.Context) ([]testcase.Case, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]testcase.Case(nil), m.Cases...), nil
}

func (m *MockTests) DeleteTestCase(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, tc := range m.Cases {
		if tc.ID == id {
			m.Cases = append(m.Cases[:i], m.Cases[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("test case %q not found", id)
}

func (m *MockTests) RecordRun(_ context.Context, run *testcase.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Runs = append(m.Runs, *run)
	return nil
}

func (m *MockTests) Count(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Cases), nil
}

func (m *MockTests) PassRate(context.Context) (*float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	latest := map[string]bool{}
	for _, r := range m.Runs {
		latest[r.TestCaseID] = r.Passed
	}
	if len(latest) == 0 {
		return nil, nil
	}
	passed := 0
	for _, ok := range latest {
		if ok {
			passed++
		}
	}
	rate := float64(passed) / float64(len(latest)) * 100
	return &rate, nil
}

var (
	_ domain.WorkspaceRepository = (*MockRepo)(nil)
	_ domain.HistoryRecorder     = (*MockHistory)(nil)
	_ testcase.Repository        = (*MockTests)(nil)
)
