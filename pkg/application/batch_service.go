package application

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/felixgeelhaar/agentforge/pkg/domain"
)

// RepoFactory opens the workspace rooted at root.
type RepoFactory func(root string) domain.WorkspaceRepository

// BatchResult is the compile outcome of one workspace. Err is set instead
// of Build when the compile failed.
type BatchResult struct {
	Root  string        `json:"root"`
	Build *domain.Build `json:"build,omitempty"`
	Err   error         `json:"-"`
}

// BatchService compiles many workspaces concurrently.
type BatchService struct {
	open     RepoFactory
	parallel int
	logger   *slog.Logger
}

// NewBatchService wires the service. parallel below 1 means 1.
func NewBatchService(open RepoFactory, parallel int, logger *slog.Logger) *BatchService {
	if parallel < 1 {
		parallel = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BatchService{open: open, parallel: parallel, logger: logger}
}

// CompileAll compiles every root and returns results in input order. A
// failing workspace does not stop the others.
func (s *BatchService) CompileAll(ctx context.Context, roots []string) []BatchResult {
	results := make([]BatchResult, len(roots))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallel)
	for i, root := range roots {
		g.Go(func() error {
			results[i].Root = root
			if err := gCtx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			svc := NewCompileService(s.open(root), nil, s.logger.With("workspace", root))
			results[i].Build, results[i].Err = svc.Compile(gCtx, nil)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	s.logger.InfoContext(ctx, "batch compile finished", "workspaces", len(roots), "failed", failed)
	return results
}
