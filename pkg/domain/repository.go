package domain

import (
	"time"

	"github.com/felixgeelhaar/agentforge/pkg/domain/capability"
	"github.com/felixgeelhaar/agentforge/pkg/domain/compiler"
	"github.com/felixgeelhaar/agentforge/pkg/domain/lifecycle"
	"github.com/felixgeelhaar/agentforge/pkg/domain/prompt"
	"github.com/felixgeelhaar/agentforge/pkg/domain/spec"
)

// WorkspaceRepository handles the persistence of agentforge artifacts in the .agentforge/ directory.
type WorkspaceRepository interface {
	Initialize() error
	IsInitialized() bool
	spec.Repository
	lifecycle.Repository
	SaveCapabilities(c capability.Config) error
	LoadCapabilities() (capability.Config, error)
	SaveKnowledgeMap(km *prompt.KnowledgeMap) error
	LoadKnowledgeMap() (*prompt.KnowledgeMap, error)
	SaveBuild(b *Build) error
	LoadBuild() (*Build, error)
}

// Build is a compiled package together with what produced it.
type Build struct {
	RunID      string           `json:"run_id"`
	SpecHash   string           `json:"spec_hash"`
	CompiledAt time.Time        `json:"compiled_at"`
	Output     *compiler.Output `json:"output"`
}
