package wiring

import (
	"path/filepath"

	"github.com/felixgeelhaar/agentforge/pkg/domain"
	"github.com/felixgeelhaar/agentforge/pkg/storage"
)

// Workspace bundles the storage of one agentforge workspace.
type Workspace struct {
	Root    string
	Repo    *storage.FilesystemRepository
	History *storage.HistoryStore
}

func NewWorkspace(root string) *Workspace {
	repo := storage.NewFilesystemRepository(root)
	return &Workspace{
		Root:    root,
		Repo:    repo,
		History: storage.NewHistoryStore(repo),
	}
}

// TestCasesPath is the sqlite database holding test cases and runs.
func (w *Workspace) TestCasesPath() string {
	return filepath.Join(w.Repo.Dir(), storage.TestCasesDB)
}

// OpenRepo is the BatchService repository factory.
func OpenRepo(root string) domain.WorkspaceRepository {
	return storage.NewFilesystemRepository(root)
}
