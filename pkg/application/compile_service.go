package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"

	"github.com/felixgeelhaar/agentforge/pkg/domain"
	"github.com/felixgeelhaar/agentforge/pkg/domain/compiler"
	"github.com/felixgeelhaar/agentforge/pkg/domain/lifecycle"
	"github.com/felixgeelhaar/agentforge/pkg/domain/lint"
	"github.com/felixgeelhaar/agentforge/pkg/domain/spec"
)

const instrumentationName = "github.com/felixgeelhaar/agentforge/pkg/application"

// CompileService loads a workspace, runs the compiler and stores the
// resulting build.
type CompileService struct {
	repo    domain.WorkspaceRepository
	history domain.HistoryRecorder
	logger  *slog.Logger

	tracer   trace.Tracer
	compiles metric.Int64Counter
	scores   metric.Int64Histogram
}

// NewCompileService wires the service. history and logger may be nil.
func NewCompileService(repo domain.WorkspaceRepository, history domain.HistoryRecorder, logger *slog.Logger) *CompileService {
	if logger == nil {
		logger = slog.Default()
	}
	meter := otel.Meter(instrumentationName)
	compiles, err := meter.Int64Counter("agentforge.compile.count",
		metric.WithDescription("Compile runs by result"))
	if err != nil {
		compiles = noop.Int64Counter{}
	}
	scores, err := meter.Int64Histogram("agentforge.quality.score",
		metric.WithDescription("Overall quality score of successful compiles"))
	if err != nil {
		scores = noop.Int64Histogram{}
	}

	return &CompileService{
		repo:     repo,
		history:  history,
		logger:   logger,
		tracer:   otel.Tracer(instrumentationName),
		compiles: compiles,
		scores:   scores,
	}
}

// LoadInput reads the spec, capabilities and knowledge map of the workspace.
func (s *CompileService) LoadInput() (compiler.Input, error) {
	sp, err := s.repo.LoadSpec()
	if err != nil {
		return compiler.Input{}, err
	}
	caps, err := s.repo.LoadCapabilities()
	if err != nil {
		return compiler.Input{}, err
	}
	km, err := s.repo.LoadKnowledgeMap()
	if err != nil {
		return compiler.Input{}, err
	}
	return compiler.Input{Spec: *sp, Capabilities: caps, KnowledgeMap: km}, nil
}

// Compile compiles the workspace, saves the build and moves the lifecycle
// to compiled. The lifecycle is saved first and restored if the build cannot
// be written. toggles override capability leaves for this run only.
func (s *CompileService) Compile(ctx context.Context, toggles map[string]bool) (*domain.Build, error) {
	ctx, span := s.tracer.Start(ctx, "agentforge.compile")
	defer span.End()

	runID := uuid.NewString()
	span.SetAttributes(attribute.String("agentforge.run_id", runID))
	start := time.Now()

	in, err := s.LoadInput()
	if err != nil {
		return nil, failSpan(span, err)
	}
	in.ToolToggles = toggles

	out, err := compiler.Compile(in)
	if err != nil {
		s.compiles.Add(ctx, 1, metric.WithAttributes(attribute.String("result", "incomplete")))
		span.RecordError(err)
		span.SetStatus(codes.Error, "spec incomplete")
		s.logger.WarnContext(ctx, "compile failed", "run_id", runID, "error", err)
		return nil, err
	}

	build := &domain.Build{
		RunID:      runID,
		SpecHash:   in.Spec.Hash(),
		CompiledAt: time.Now().UTC(),
		Output:     out,
	}
	prev, next, err := s.nextLifecycle(build.SpecHash)
	if err != nil {
		return nil, failSpan(span, err)
	}
	if next != nil {
		if err := s.repo.SaveLifecycle(next); err != nil {
			return nil, failSpan(span, fmt.Errorf("failed to save lifecycle: %w", err))
		}
	}
	if err := s.repo.SaveBuild(build); err != nil {
		if next != nil {
			if rerr := s.repo.SaveLifecycle(prev); rerr != nil {
				s.logger.WarnContext(ctx, "failed to restore lifecycle", "run_id", runID, "error", rerr)
			}
		}
		return nil, failSpan(span, fmt.Errorf("failed to save build: %w", err))
	}
	if next != nil {
		recordHistory(s.history, s.logger, &domain.HistoryEntry{Type: domain.HistoryLifecycle, SpecHash: next.SpecHash, Detail: next.State, Passed: true})
	}

	critical := lint.Count(out.LintFindings)[lint.SeverityCritical]
	recordHistory(s.history, s.logger, &domain.HistoryEntry{
		Type:     domain.HistoryCompile,
		RunID:    runID,
		SpecHash: build.SpecHash,
		Score:    out.QualityScore.Overall,
		Critical: critical,
		Passed:   true,
	})

	s.compiles.Add(ctx, 1, metric.WithAttributes(attribute.String("result", "ok")))
	s.scores.Record(ctx, int64(out.QualityScore.Overall))
	span.SetAttributes(
		attribute.Int("agentforge.quality.score", out.QualityScore.Overall),
		attribute.Int("agentforge.lint.findings", len(out.LintFindings)),
	)
	s.logger.InfoContext(ctx, "compile finished",
		"run_id", runID,
		"score", out.QualityScore.Overall,
		"findings", len(out.LintFindings),
		"critical", critical,
		"duration", time.Since(start))

	return build, nil
}

// Assess scores the workspace without the validation gate and without
// saving anything.
func (s *CompileService) Assess(ctx context.Context) (*compiler.Output, error) {
	_, span := s.tracer.Start(ctx, "agentforge.assess")
	defer span.End()

	in, err := s.LoadInput()
	if err != nil {
		return nil, err
	}
	return compiler.Assess(in), nil
}

// nextLifecycle returns the current record and the record a successful
// compile of hash moves it to. A changed spec first sends compiled or
// published specs back to draft. next is nil when nothing changes, which
// includes archived specs.
func (s *CompileService) nextLifecycle(hash string) (prev, next *lifecycle.Record, err error) {
	rec, err := s.repo.LoadLifecycle()
	if err != nil {
		return nil, nil, err
	}
	current := *rec

	switch rec.State {
	case lifecycle.StateArchived:
		s.logger.Info("spec is archived, lifecycle unchanged")
		return &current, nil, nil
	case lifecycle.StateCompiled, lifecycle.StatePublished:
		if rec.SpecHash == hash {
			return &current, nil, nil
		}
		if err := rec.Apply(lifecycle.EventEdit, nil); err != nil {
			return nil, nil, err
		}
	}

	if err := rec.Apply(lifecycle.EventCompile, nil); err != nil {
		return nil, nil, err
	}
	rec.SpecHash = hash
	return &current, rec, nil
}

func failSpan(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func recordHistory(h domain.HistoryRecorder, logger *slog.Logger, e *domain.HistoryEntry) {
	if h == nil {
		return
	}
	if err := h.Append(e); err != nil {
		logger.Warn("failed to record history", "type", e.Type, "error", err)
	}
}

// IsIncomplete reports whether err is a failed validation.
func IsIncomplete(err error) bool {
	return errors.Is(err, spec.ErrSpecIncomplete)
}
