package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/agentforge/pkg/domain"
	"github.com/felixgeelhaar/agentforge/pkg/domain/capability"
	"github.com/felixgeelhaar/agentforge/pkg/domain/lifecycle"
	"github.com/felixgeelhaar/agentforge/pkg/domain/prompt"
	"github.com/felixgeelhaar/agentforge/pkg/domain/spec"
)

const WorkspaceDir = ".agentforge"
const BuildDir = "build"
const SpecFile = "spec.yaml"
const SpecJSONFile = "spec.json"
const CapabilitiesFile = "capabilities.yaml"
const KnowledgeFile = "knowledge.yaml"
const LifecycleFile = "lifecycle.json"
const ConfigFile = "config.yaml"
const TestCasesDB = "tests.db"

type FilesystemRepository struct {
	root        string
	retryConfig retry.Config
}

func NewFilesystemRepository(root string) *FilesystemRepository {
	return &FilesystemRepository{
		root: root,
		retryConfig: retry.Config{
			MaxAttempts:   3,
			InitialDelay:  10 * time.Millisecond,
			BackoffPolicy: retry.BackoffExponential,
		},
	}
}

// Root returns the workspace root directory.
func (r *FilesystemRepository) Root() string {
	return r.root
}

// Dir returns the .agentforge directory.
func (r *FilesystemRepository) Dir() string {
	return filepath.Join(r.root, WorkspaceDir)
}

// ResolvePath ensures the path stays within .agentforge. Only direct
// children and files under build/ are allowed.
func (r *FilesystemRepository) ResolvePath(filename string) (string, error) {
	if filename == "" {
		return "", fmt.Errorf("filename cannot be empty")
	}

	baseDir := r.Dir()
	cleanPath := filepath.Clean(filepath.Join(baseDir, filename))

	dir := filepath.Dir(cleanPath)
	if !strings.HasPrefix(cleanPath, baseDir+string(filepath.Separator)) ||
		(dir != baseDir && dir != filepath.Join(baseDir, BuildDir)) {
		return "", fmt.Errorf("invalid file path: %s", filename)
	}

	return cleanPath, nil
}

func (r *FilesystemRepository) Initialize() error {
	// G301: Use 0700 for directories
	if err := os.MkdirAll(filepath.Join(r.Dir(), BuildDir), 0700); err != nil {
		return fmt.Errorf("failed to create %s directory: %w", WorkspaceDir, err)
	}
	return nil
}

func (r *FilesystemRepository) IsInitialized() bool {
	_, err := os.Stat(r.Dir())
	return err == nil
}

// SaveSpec writes the spec as YAML and removes a stale spec.json so there
// is a single source of truth.
func (r *FilesystemRepository) SaveSpec(s *spec.Specification) error {
	if err := r.writeYAML(SpecFile, s); err != nil {
		return fmt.Errorf("failed to save spec: %w", err)
	}
	if path, err := r.ResolvePath(SpecJSONFile); err == nil {
		_ = os.Remove(path)
	}
	return nil
}

// LoadSpec reads spec.yaml, falling back to spec.json. Both are checked
// against the spec schema.
func (r *FilesystemRepository) LoadSpec() (*spec.Specification, error) {
	retryer := retry.New[*spec.Specification](r.retryConfig)

	return retryer.Do(context.Background(), func(ctx context.Context) (*spec.Specification, error) {
		data, err := r.read(SpecFile)
		if err == nil {
			return spec.ParseYAML(data)
		}
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read spec file: %w", err)
		}

		data, err = r.read(SpecJSONFile)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, spec.ErrNotFound
			}
			return nil, fmt.Errorf("failed to read spec file: %w", err)
		}
		return spec.ParseJSON(data)
	})
}

func (r *FilesystemRepository) SaveCapabilities(c capability.Config) error {
	return r.writeYAML(CapabilitiesFile, c)
}

// LoadCapabilities returns an all-disabled config when the file is missing.
func (r *FilesystemRepository) LoadCapabilities() (capability.Config, error) {
	var c capability.Config
	if err := r.readYAML(CapabilitiesFile, &c); err != nil && !os.IsNotExist(err) {
		return capability.Config{}, fmt.Errorf("failed to load capabilities: %w", err)
	}
	return c, nil
}

func (r *FilesystemRepository) SaveKnowledgeMap(km *prompt.KnowledgeMap) error {
	return r.writeYAML(KnowledgeFile, km)
}

// LoadKnowledgeMap returns nil when the workspace has no knowledge map.
func (r *FilesystemRepository) LoadKnowledgeMap() (*prompt.KnowledgeMap, error) {
	var km prompt.KnowledgeMap
	if err := r.readYAML(KnowledgeFile, &km); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load knowledge map: %w", err)
	}
	return &km, nil
}

func (r *FilesystemRepository) SaveLifecycle(rec *lifecycle.Record) error {
	return r.writeJSON(LifecycleFile, rec)
}

// LoadLifecycle returns a fresh draft record when none was saved.
func (r *FilesystemRepository) LoadLifecycle() (*lifecycle.Record, error) {
	var rec lifecycle.Record
	if err := r.readJSON(LifecycleFile, &rec); err != nil {
		if os.IsNotExist(err) {
			return lifecycle.NewRecord(), nil
		}
		return nil, fmt.Errorf("failed to load lifecycle: %w", err)
	}
	return &rec, nil
}

func (r *FilesystemRepository) read(name string) ([]byte, error) {
	path, err := r.ResolvePath(name)
	if err != nil {
		return nil, err
	}
	// #nosec G304 -- Path is resolved and validated via ResolvePath
	return os.ReadFile(path)
}

func (r *FilesystemRepository) write(name string, data []byte) error {
	path, err := r.ResolvePath(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	// G306: Use 0600 for files
	return os.WriteFile(path, data, 0600)
}

func (r *FilesystemRepository) writeYAML(name string, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", name, err)
	}
	return r.write(name, data)
}

func (r *FilesystemRepository) readYAML(name string, v any) error {
	data, err := r.read(name)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", name, err)
	}
	return nil
}

var _ domain.WorkspaceRepository = (*FilesystemRepository)(nil)
