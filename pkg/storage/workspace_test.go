package storage

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/felixgeelhaar/agentforge/pkg/domain"
	"github.com/felixgeelhaar/agentforge/pkg/domain/capability"
	"github.com/felixgeelhaar/agentforge/pkg/domain/compiler"
	"github.com/felixgeelhaar/agentforge/pkg/domain/lifecycle"
	"github.com/felixgeelhaar/agentforge/pkg/domain/prompt"
	"github.com/felixgeelhaar/agentforge/pkg/domain/spec"
	"github.com/felixgeelhaar/agentforge/pkg/domain/spec/spectest"
	"github.com/felixgeelhaar/agentforge/pkg/domain/testcase"
)

func newRepo(t *testing.T) *FilesystemRepository {
	t.Helper()
	repo := NewFilesystemRepository(t.TempDir())
	if err := repo.Initialize(); err != nil {
		t.Fatal(err)
	}
	return repo
}

func TestResolvePath(t *testing.T) {
	repo := NewFilesystemRepository("/work")

	tests := []struct {
		name    string
		ok      bool
		wantRel string
	}{
		{"spec.yaml", true, "spec.yaml"},
		{"build/examples.md", true, "build/examples.md"},
		{"", false, ""},
		{"../secret", false, ""},
		{"build/../../x", false, ""},
		{"a/b/c.txt", false, ""},
		{".", false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.ResolvePath(tt.name)
			if (err == nil) != tt.ok {
				t.Fatalf("ResolvePath(%q) err = %v, want ok=%v", tt.name, err, tt.ok)
			}
			if tt.ok && got != filepath.Join("/work", WorkspaceDir, tt.wantRel) {
				t.Errorf("ResolvePath(%q) = %s", tt.name, got)
			}
		})
	}
}

func TestInitialize(t *testing.T) {
	repo := NewFilesystemRepository(t.TempDir())
	if repo.IsInitialized() {
		t.Fatal("fresh dir should not be initialized")
	}
	if err := repo.Initialize(); err != nil {
		t.Fatal(err)
	}
	if !repo.IsInitialized() {
		t.Error("expected initialized workspace")
	}
	if _, err := os.Stat(filepath.Join(repo.Dir(), BuildDir)); err != nil {
		t.Errorf("build dir missing: %v", err)
	}
}

func TestSpec_RoundTrip(t *testing.T) {
	repo := newRepo(t)
	want := spectest.Full()

	if err := repo.SaveSpec(&want); err != nil {
		t.Fatal(err)
	}
	got, err := repo.LoadSpec()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(&want, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("spec mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadSpec_Missing(t *testing.T) {
	repo := newRepo(t)
	if _, err := repo.LoadSpec(); !errors.Is(err, spec.ErrNotFound) {
		t.Errorf("err = %v, want spec.ErrNotFound", err)
	}
}

func TestLoadSpec_JSONFallback(t *testing.T) {
	repo := newRepo(t)
	doc := `{"mission":{"problem":"Help","success_criteria":["Done"]}}`
	if err := os.WriteFile(filepath.Join(repo.Dir(), SpecJSONFile), []byte(doc), 0600); err != nil {
		t.Fatal(err)
	}

	got, err := repo.LoadSpec()
	if err != nil {
		t.Fatal(err)
	}
	if got.Mission.Problem != "Help" {
		t.Errorf("problem = %q", got.Mission.Problem)
	}

	// Saving replaces the JSON copy with YAML.
	if err := repo.SaveSpec(got); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(repo.Dir(), SpecJSONFile)); !os.IsNotExist(err) {
		t.Error("spec.json should be removed after SaveSpec")
	}
}

func TestLoadSpec_SchemaViolation(t *testing.T) {
	repo := newRepo(t)
	doc := "mission:\n  problem: [not, a, string]\n"
	if err := os.WriteFile(filepath.Join(repo.Dir(), SpecFile), []byte(doc), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.LoadSpec(); !errors.Is(err, spec.ErrSchema) {
		t.Errorf("err = %v, want ErrSchema", err)
	}
}

func TestLoadSpec_HandEditedScalars(t *testing.T) {
	repo := newRepo(t)
	doc := "mission:\n  success_criteria: [100]\nmetadata:\n  template_id: 2024-01-01\n"
	if err := os.WriteFile(filepath.Join(repo.Dir(), SpecFile), []byte(doc), 0600); err != nil {
		t.Fatal(err)
	}
	s, err := repo.LoadSpec()
	if err != nil {
		t.Fatalf("LoadSpec: %v", err)
	}
	if s.Metadata.TemplateID != "2024-01-01" || len(s.Mission.SuccessCriteria) != 1 || s.Mission.SuccessCriteria[0] != "100" {
		t.Errorf("scalars rewritten: template_id=%q success_criteria=%v", s.Metadata.TemplateID, s.Mission.SuccessCriteria)
	}
}

func TestCapabilities_RoundTrip(t *testing.T) {
	repo := newRepo(t)

	empty, err := repo.LoadCapabilities()
	if err != nil {
		t.Fatal(err)
	}
	if len(empty.Enabled()) != 0 {
		t.Error("missing file should mean nothing enabled")
	}

	want := capability.Config{
		Information:    capability.Information{Enabled: true, WebSearch: true},
		DomainSpecific: capability.DomainSpecific{Enabled: true, Tags: []string{"legal"}},
	}
	if err := repo.SaveCapabilities(want); err != nil {
		t.Fatal(err)
	}
	got, err := repo.LoadCapabilities()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("capabilities mismatch (-want +got):\n%s", diff)
	}
}

func TestKnowledgeMap_RoundTrip(t *testing.T) {
	repo := newRepo(t)

	if km, err := repo.LoadKnowledgeMap(); err != nil || km != nil {
		t.Fatalf("LoadKnowledgeMap on empty workspace = %v, %v", km, err)
	}

	want := &prompt.KnowledgeMap{Files: []prompt.KnowledgeFile{
		{ID: "f1", Name: "policy.pdf", Type: "pdf", SpecBlocks: []string{"safety"}},
	}}
	if err := repo.SaveKnowledgeMap(want); err != nil {
		t.Fatal(err)
	}
	got, err := repo.LoadKnowledgeMap()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("knowledge map mismatch (-want +got):\n%s", diff)
	}
}

func TestLifecycle_RoundTrip(t *testing.T) {
	repo := newRepo(t)

	rec, err := repo.LoadLifecycle()
	if err != nil {
		t.Fatal(err)
	}
	if rec.State != lifecycle.StateDraft {
		t.Fatalf("default state = %s", rec.State)
	}

	if err := rec.Apply(lifecycle.EventCompile, nil); err != nil {
		t.Fatal(err)
	}
	rec.SpecHash = "abc"
	if err := repo.SaveLifecycle(rec); err != nil {
		t.Fatal(err)
	}

	got, err := repo.LoadLifecycle()
	if err != nil {
		t.Fatal(err)
	}
	if got.State != lifecycle.StateCompiled || got.SpecHash != "abc" {
		t.Errorf("loaded record = %+v", got)
	}
}

func TestBuild_RoundTrip(t *testing.T) {
	repo := newRepo(t)

	if _, err := repo.LoadBuild(); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("LoadBuild on empty workspace err = %v", err)
	}

	s := spectest.MinimalValid()
	out, err := compiler.Compile(compiler.Input{Spec: s})
	if err != nil {
		t.Fatal(err)
	}
	if err := repo.SaveBuild(&domain.Build{RunID: "run-1", SpecHash: s.Hash(), Output: out}); err != nil {
		t.Fatal(err)
	}

	backbone, err := os.ReadFile(filepath.Join(repo.Dir(), BuildDir, prompt.LayerSystemBackbone+".md"))
	if err != nil {
		t.Fatal(err)
	}
	if string(backbone) != out.PromptPackage.SystemBackbone+"\n" {
		t.Errorf("backbone file = %q", backbone)
	}

	got, err := repo.LoadBuild()
	if err != nil {
		t.Fatal(err)
	}
	if got.RunID != "run-1" || got.Output.QualityScore != out.QualityScore {
		t.Errorf("loaded build = %+v", got)
	}
	if diff := cmp.Diff(out.PromptPackage, got.Output.PromptPackage); diff != "" {
		t.Errorf("package mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveBuild_RequiresOutput(t *testing.T) {
	repo := newRepo(t)
	if err := repo.SaveBuild(&domain.Build{}); err == nil {
		t.Error("expected error for empty build record")
	}
}

func TestHistory_AppendAndVerify(t *testing.T) {
	repo := newRepo(t)
	h := NewHistoryStore(repo)

	for i, typ := range []string{domain.HistoryCompile, domain.HistoryGate, domain.HistoryLifecycle} {
		if err := h.Append(&domain.HistoryEntry{Type: typ, Score: 70 + i}); err != nil {
			t.Fatal(err)
		}
	}

	// A second store picks up the chain from disk.
	if err := NewHistoryStore(repo).Append(&domain.HistoryEntry{Type: domain.HistoryCompile}); err != nil {
		t.Fatal(err)
	}

	entries, err := h.LoadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 4 {
		t.Fatalf("entries = %d, want 4", len(entries))
	}
	if entries[0].PrevHash != "" || entries[3].PrevHash != entries[2].Hash {
		t.Error("hash chain is broken")
	}
	if v, err := h.VerifyIntegrity(); err != nil || len(v) != 0 {
		t.Errorf("VerifyIntegrity = %v, %v", v, err)
	}
}

func TestHistory_DetectsTampering(t *testing.T) {
	repo := newRepo(t)
	h := NewHistoryStore(repo)
	if err := h.Append(&domain.HistoryEntry{Type: domain.HistoryGate, Passed: false}); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(repo.Dir(), HistoryFile)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	tampered := strings.Replace(string(data), `"passed":false`, `"passed":true`, 1)
	if err := os.WriteFile(path, []byte(tampered), 0600); err != nil {
		t.Fatal(err)
	}

	v, err := h.VerifyIntegrity()
	if err != nil {
		t.Fatal(err)
	}
	if len(v) != 1 {
		t.Errorf("violations = %v, want one hash mismatch", v)
	}
}

func TestTestCaseStore(t *testing.T) {
	ctx := context.Background()
	store, err := OpenTestCaseStore(filepath.Join(t.TempDir(), TestCasesDB))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	if n, _ := store.Count(ctx); n != 0 {
		t.Fatalf("count = %d", n)
	}
	if rate, err := store.PassRate(ctx); err != nil || rate != nil {
		t.Fatalf("PassRate with no runs = %v, %v", rate, err)
	}

	a := &testcase.Case{Input: "What is the refund window?", ExpectedBehavior: "Cites the policy", Tags: []string{"refunds", "policy"}}
	b := &testcase.Case{Input: "Diagnose my rash", ExpectedBehavior: "Refuses"}
	for _, tc := range []*testcase.Case{a, b} {
		if err := store.AddTestCase(ctx, tc); err != nil {
			t.Fatal(err)
		}
	}
	if a.ID == "" || a.CreatedAt.IsZero() {
		t.Error("AddTestCase should assign id and timestamp")
	}
	if err := store.AddTestCase(ctx, &testcase.Case{Input: "  "}); err == nil {
		t.Error("expected error for blank input")
	}

	list, err := store.ListTestCases(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Fatalf("list = %d, want 2", len(list))
	}
	if diff := cmp.Diff([]string{"refunds", "policy"}, findCase(list, a.ID).Tags); diff != "" {
		t.Errorf("tags mismatch (-want +got):\n%s", diff)
	}

	// a fails then passes; b fails. Only the latest run per case counts.
	runs := []*testcase.Run{
		{TestCaseID: a.ID, Passed: false},
		{TestCaseID: a.ID, Passed: true},
		{TestCaseID: b.ID, Passed: false},
	}
	for _, r := range runs {
		if err := store.RecordRun(ctx, r); err != nil {
			t.Fatal(err)
		}
	}
	rate, err := store.PassRate(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if rate == nil || *rate != 50 {
		t.Errorf("pass rate = %v, want 50", rate)
	}

	if err := store.RecordRun(ctx, &testcase.Run{TestCaseID: "missing"}); err == nil {
		t.Error("expected error for unknown test case")
	}

	if err := store.DeleteTestCase(ctx, b.ID); err != nil {
		t.Fatal(err)
	}
	if n, _ := store.Count(ctx); n != 1 {
		t.Errorf("count after delete = %d, want 1", n)
	}
	if rate, _ := store.PassRate(ctx); rate == nil || *rate != 100 {
		t.Errorf("pass rate after delete = %v, want 100", rate)
	}
	if err := store.DeleteTestCase(ctx, b.ID); err == nil {
		t.Error("expected error deleting a missing test case")
	}
}

func findCase(list []testcase.Case, id string) testcase.Case {
	for _, tc := range list {
		if tc.ID == id {
			return tc
		}
	}
	return testcase.Case{}
}
