package application_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/felixgeelhaar/agentforge/pkg/application"
	"github.com/felixgeelhaar/agentforge/pkg/domain"
	"github.com/felixgeelhaar/agentforge/pkg/domain/capability"
	"github.com/felixgeelhaar/agentforge/pkg/domain/lifecycle"
	"github.com/felixgeelhaar/agentforge/pkg/domain/spec"
	"github.com/felixgeelhaar/agentforge/pkg/domain/spec/spectest"
)

func minimal() *spec.Specification {
	s := spectest.MinimalValid()
	return &s
}

func full() *spec.Specification {
	s := spectest.Full()
	return &s
}

func TestCompileService_Compile(t *testing.T) {
	repo := &MockRepo{Spec: minimal()}
	history := &MockHistory{}
	svc := application.NewCompileService(repo, history, nil)

	build, err := svc.Compile(context.Background(), nil)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if build.RunID == "" || build.SpecHash != repo.Spec.Hash() {
		t.Errorf("build metadata = %+v", build)
	}
	if repo.Build != build {
		t.Error("build was not saved")
	}
	if repo.Lifecycle == nil || repo.Lifecycle.State != lifecycle.StateCompiled {
		t.Fatalf("lifecycle = %+v, want compiled", repo.Lifecycle)
	}
	if repo.Lifecycle.SpecHash != build.SpecHash {
		t.Error("lifecycle should remember the compiled spec hash")
	}
	want := []string{domain.HistoryLifecycle, domain.HistoryCompile}
	if diff := cmp.Diff(want, history.Types()); diff != "" {
		t.Errorf("history mismatch (-want +got):\n%s", diff)
	}
}

func TestCompileService_IncompleteSpec(t *testing.T) {
	repo := &MockRepo{Spec: &spec.Specification{}}
	history := &MockHistory{}
	svc := application.NewCompileService(repo, history, nil)

	_, err := svc.Compile(context.Background(), nil)
	if !application.IsIncomplete(err) {
		t.Fatalf("err = %v, want spec incomplete", err)
	}
	var incomplete *spec.IncompleteError
	if !errors.As(err, &incomplete) || len(incomplete.Errors) == 0 {
		t.Errorf("expected IncompleteError with messages, got %v", err)
	}
	if repo.Build != nil || repo.Lifecycle != nil || len(history.Entries) != 0 {
		t.Error("a failed compile must not save anything")
	}
}

func TestCompileService_NoSpec(t *testing.T) {
	svc := application.NewCompileService(&MockRepo{}, nil, nil)
	if _, err := svc.Compile(context.Background(), nil); !errors.Is(err, spec.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestCompileService_RecompileUnchangedSpec(t *testing.T) {
	repo := &MockRepo{Spec: minimal()}
	history := &MockHistory{}
	svc := application.NewCompileService(repo, history, nil)

	for i := 0; i < 2; i++ {
		if _, err := svc.Compile(context.Background(), nil); err != nil {
			t.Fatal(err)
		}
	}
	want := []string{domain.HistoryLifecycle, domain.HistoryCompile, domain.HistoryCompile}
	if diff := cmp.Diff(want, history.Types()); diff != "" {
		t.Errorf("history mismatch (-want +got):\n%s", diff)
	}
}

func TestCompileService_LifecycleAfterEdit(t *testing.T) {
	tests := []struct {
		name  string
		state string
		hash  string
		want  string
	}{
		{"published and unchanged", lifecycle.StatePublished, "same", lifecycle.StatePublished},
		{"published and edited", lifecycle.StatePublished, "old", lifecycle.StateCompiled},
		{"compiled and edited", lifecycle.StateCompiled, "old", lifecycle.StateCompiled},
		{"archived", lifecycle.StateArchived, "old", lifecycle.StateArchived},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := minimal()
			hash := tt.hash
			if hash == "same" {
				hash = s.Hash()
			}
			repo := &MockRepo{Spec: s, Lifecycle: &lifecycle.Record{State: tt.state, SpecHash: hash}}
			svc := application.NewCompileService(repo, nil, nil)

			if _, err := svc.Compile(context.Background(), nil); err != nil {
				t.Fatal(err)
			}
			if repo.Lifecycle.State != tt.want {
				t.Errorf("state = %s, want %s", repo.Lifecycle.State, tt.want)
			}
		})
	}
}

func TestCompileService_ToolToggles(t *testing.T) {
	repo := &MockRepo{
		Spec: full(),
		Caps: capability.Config{Information: capability.Information{Enabled: true, WebSearch: true}},
	}
	svc := application.NewCompileService(repo, nil, nil)

	build, err := svc.Compile(context.Background(), map[string]bool{"web_search": false})
	if err != nil {
		t.Fatal(err)
	}
	if len(build.Output.Capabilities) != 0 {
		t.Errorf("toggled-off capability still checked: %+v", build.Output.Capabilities)
	}
	if !repo.Caps.Information.WebSearch {
		t.Error("toggles must not change the stored capabilities")
	}
}

func TestCompileService_Assess(t *testing.T) {
	repo := &MockRepo{Spec: &spec.Specification{}}
	svc := application.NewCompileService(repo, nil, nil)

	out, err := svc.Assess(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if out.Validation.Valid {
		t.Error("empty spec should be invalid")
	}
	if repo.Build != nil {
		t.Error("Assess must not save a build")
	}
}

func TestCompileService_SaveError(t *testing.T) {
	boom := errors.New("disk full")
	repo := &MockRepo{Spec: minimal(), SaveError: boom}
	svc := application.NewCompileService(repo, nil, nil)

	if _, err := svc.Compile(context.Background(), nil); !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapped save error", err)
	}
}

func TestCompileService_BuildSaveErrorRestoresLifecycle(t *testing.T) {
	boom := errors.New("disk full")
	repo := &MockRepo{Spec: minimal(), SaveBuildError: boom}
	history := &MockHistory{}
	svc := application.NewCompileService(repo, history, nil)

	if _, err := svc.Compile(context.Background(), nil); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped build error", err)
	}
	if repo.Build != nil {
		t.Error("no build should be stored")
	}
	if repo.Lifecycle == nil || repo.Lifecycle.State != lifecycle.StateDraft {
		t.Errorf("lifecycle = %+v, want restored draft", repo.Lifecycle)
	}
	if len(history.Types()) != 0 {
		t.Errorf("history = %v, want nothing recorded", history.Types())
	}
}

func TestCompileService_LifecycleSaveErrorSkipsBuild(t *testing.T) {
	boom := errors.New("read-only workspace")
	repo := &MockRepo{Spec: minimal(), SaveLifecycleError: boom}
	svc := application.NewCompileService(repo, nil, nil)

	if _, err := svc.Compile(context.Background(), nil); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped lifecycle error", err)
	}
	if repo.Build != nil {
		t.Error("build should not be written when the lifecycle cannot be saved")
	}
}
