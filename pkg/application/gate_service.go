package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/felixgeelhaar/agentforge/pkg/domain"
	"github.com/felixgeelhaar/agentforge/pkg/domain/gate"
	"github.com/felixgeelhaar/agentforge/pkg/domain/lifecycle"
	"github.com/felixgeelhaar/agentforge/pkg/domain/spec"
)

var (
	// ErrGateFailed is returned by Publish when the publish gate rejects the spec.
	ErrGateFailed = errors.New("publish gate failed")
	// ErrStaleBuild is returned by Publish when the spec changed after the last compile.
	ErrStaleBuild = errors.New("spec changed since last compile")
)

// TestCaseSource supplies the external test-case inputs of the gate.
type TestCaseSource interface {
	Count(ctx context.Context) (int, error)
	PassRate(ctx context.Context) (*float64, error)
}

type GateService struct {
	repo    domain.WorkspaceRepository
	tests   TestCaseSource
	history domain.HistoryRecorder
	logger  *slog.Logger
}

// NewGateService wires the service. tests, history and logger may be nil;
// without tests the gate sees zero test cases.
func NewGateService(repo domain.WorkspaceRepository, tests TestCaseSource, history domain.HistoryRecorder, logger *slog.Logger) *GateService {
	if logger == nil {
		logger = slog.Default()
	}
	return &GateService{repo: repo, tests: tests, history: history, logger: logger}
}

// Check evaluates the publish gate against the current workspace.
// A workspace without a spec yields a failing result, not an error.
func (s *GateService) Check(ctx context.Context) (gate.Result, error) {
	in, err := s.gateInput(ctx)
	if err != nil {
		return gate.Result{}, err
	}
	res := gate.CheckPublishGates(in)

	e := &domain.HistoryEntry{
		Type:     domain.HistoryGate,
		Score:    res.Details.QualityScore.Value,
		Critical: res.Details.CriticalFindings.Value,
		Passed:   res.Passed,
		Detail:   strings.Join(res.Reasons, "; "),
	}
	if in.Spec != nil {
		e.SpecHash = in.Spec.Hash()
	}
	recordHistory(s.history, s.logger, e)

	s.logger.InfoContext(ctx, "publish gate evaluated",
		"passed", res.Passed,
		"score", res.Details.QualityScore.Value,
		"critical", res.Details.CriticalFindings.Value,
		"test_cases", res.Details.TestCases.Value)
	return res, nil
}

// Publish checks the gate and, when it passes, moves a compiled spec to
// published. The gate result is returned even when publishing fails.
func (s *GateService) Publish(ctx context.Context) (gate.Result, error) {
	res, err := s.Check(ctx)
	if err != nil {
		return res, err
	}

	rec, err := s.repo.LoadLifecycle()
	if err != nil {
		return res, err
	}
	if sp, err := s.repo.LoadSpec(); err == nil && rec.State == lifecycle.StateCompiled && rec.SpecHash != sp.Hash() {
		return res, ErrStaleBuild
	}

	guard := func(event string) bool {
		return event != lifecycle.EventPublish || res.Passed
	}
	if err := rec.Apply(lifecycle.EventPublish, guard); err != nil {
		if rec.State == lifecycle.StateCompiled && !res.Passed {
			return res, fmt.Errorf("%w: %s", ErrGateFailed, strings.Join(res.Reasons, "; "))
		}
		return res, err
	}
	if err := s.repo.SaveLifecycle(rec); err != nil {
		return res, fmt.Errorf("failed to save lifecycle: %w", err)
	}
	recordHistory(s.history, s.logger, &domain.HistoryEntry{Type: domain.HistoryLifecycle, SpecHash: rec.SpecHash, Detail: rec.State, Passed: true})
	s.logger.InfoContext(ctx, "spec published", "spec_hash", rec.SpecHash)
	return res, nil
}

// Transition fires an unguarded lifecycle event (edit, archive, restore).
func (s *GateService) Transition(ctx context.Context, event string) (*lifecycle.Record, error) {
	if event == lifecycle.EventCompile || event == lifecycle.EventPublish {
		return nil, fmt.Errorf("%w: %s is driven by compile and publish", lifecycle.ErrTransitionNotAllowed, event)
	}
	rec, err := s.repo.LoadLifecycle()
	if err != nil {
		return nil, err
	}
	from := rec.State
	if err := rec.Apply(event, nil); err != nil {
		return nil, err
	}
	if err := s.repo.SaveLifecycle(rec); err != nil {
		return nil, fmt.Errorf("failed to save lifecycle: %w", err)
	}
	recordHistory(s.history, s.logger, &domain.HistoryEntry{Type: domain.HistoryLifecycle, SpecHash: rec.SpecHash, Detail: rec.State, Passed: true})
	s.logger.InfoContext(ctx, "lifecycle transition", "event", event, "from", from, "to", rec.State)
	return rec, nil
}

func (s *GateService) gateInput(ctx context.Context) (gate.Input, error) {
	var in gate.Input

	sp, err := s.repo.LoadSpec()
	switch {
	case err == nil:
		in.Spec = sp
	case errors.Is(err, spec.ErrNotFound):
	default:
		return in, err
	}
	if in.Spec != nil {
		if in.Capabilities, err = s.repo.LoadCapabilities(); err != nil {
			return in, err
		}
		if in.KnowledgeMap, err = s.repo.LoadKnowledgeMap(); err != nil {
			return in, err
		}
	}

	if s.tests != nil {
		if in.TestCaseCount, err = s.tests.Count(ctx); err != nil {
			return in, fmt.Errorf("failed to count test cases: %w", err)
		}
		if in.TestPassRate, err = s.tests.PassRate(ctx); err != nil {
			return in, fmt.Errorf("failed to compute pass rate: %w", err)
		}
	}
	return in, nil
}
