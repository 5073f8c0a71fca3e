package watch

import (
	"path/filepath"

	"github.com/felixgeelhaar/agentforge/pkg/storage"
)

// Filter decides which file names trigger a recompile. Patterns match the
// base name; excludes win over includes and an empty include list matches
// everything.
type Filter struct {
	Include []string
	Exclude []string
}

// InputFilter matches the workspace files the compiler reads and skips
// editor swap and backup files.
func InputFilter() *Filter {
	return &Filter{
		Include: []string{
			storage.SpecFile,
			storage.SpecJSONFile,
			storage.CapabilitiesFile,
			storage.KnowledgeFile,
		},
		Exclude: []string{".*", "*~", "*.swp", "*.tmp"},
	}
}

func (f *Filter) Matches(path string) bool {
	base := filepath.Base(path)
	for _, pattern := range f.Exclude {
		if ok, _ := filepath.Match(pattern, base); ok {
			return false
		}
	}
	if len(f.Include) == 0 {
		return true
	}
	for _, pattern := range f.Include {
		if ok, _ := filepath.Match(pattern, base); ok {
			return true
		}
	}
	return false
}
