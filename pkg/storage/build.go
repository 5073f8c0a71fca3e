package storage

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/felixgeelhaar/agentforge/pkg/domain"
	"github.com/felixgeelhaar/agentforge/pkg/domain/prompt"
)

const CompileFile = "compile.json"

// SaveBuild writes one markdown file per prompt layer and the full compile
// output to build/compile.json.
func (r *FilesystemRepository) SaveBuild(b *domain.Build) error {
	if b == nil || b.Output == nil {
		return fmt.Errorf("build record has no output")
	}
	for _, layer := range prompt.Layers() {
		text, _ := b.Output.PromptPackage.Layer(layer)
		if err := r.write(filepath.Join(BuildDir, layer+".md"), []byte(text+"\n")); err != nil {
			return fmt.Errorf("failed to write layer %s: %w", layer, err)
		}
	}
	if err := r.writeJSON(filepath.Join(BuildDir, CompileFile), b); err != nil {
		return fmt.Errorf("failed to write compile output: %w", err)
	}
	return nil
}

// LoadBuild reads the last saved build.
func (r *FilesystemRepository) LoadBuild() (*domain.Build, error) {
	var b domain.Build
	if err := r.readJSON(filepath.Join(BuildDir, CompileFile), &b); err != nil {
		return nil, fmt.Errorf("failed to load build: %w", err)
	}
	return &b, nil
}

func (r *FilesystemRepository) writeJSON(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", name, err)
	}
	return r.write(name, data)
}

func (r *FilesystemRepository) readJSON(name string, v any) error {
	data, err := r.read(name)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", name, err)
	}
	return nil
}
