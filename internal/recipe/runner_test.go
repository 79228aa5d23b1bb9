package recipe

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/rmr-labs/rmr-go/internal/domain"
	"github.com/rmr-labs/rmr-go/internal/folder"
	"github.com/rmr-labs/rmr-go/internal/params"
	"github.com/rmr-labs/rmr-go/internal/repo"
	"github.com/rmr-labs/rmr-go/internal/repo/folderstore"
)

func testRunner() *Runner {
	return &Runner{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func testFolder(t *testing.T) *folder.Folder {
	t.Helper()
	fold, err := folder.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open folder: %v", err)
	}
	return fold
}

func writeParams(t *testing.T, fold *folder.Folder, contents string) {
	t.Helper()
	if err := os.WriteFile(fold.Join(folder.ParamsFile), []byte(contents), 0o644); err != nil {
		t.Fatalf("write params.json: %v", err)
	}
}

func TestRunnerPersistsRecord(t *testing.T) {
	r := &Recipe{
		Name:    "rmr.energy",
		Version: 2,
		Kind:    KindProperty,
		Params: []params.Spec{
			{Name: "ecut", Type: params.Float, Default: 600.0},
		},
		Body: func(ctx context.Context, rc *RunContext) (any, error) {
			return map[string]any{"etot": -10.5, "ecut": rc.Float("ecut")}, nil
		},
	}
	fold := testFolder(t)

	record, err := testRunner().Run(context.Background(), r, fold, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if record.UID() == "" {
		t.Fatal("expected a run UID")
	}
	if record.Version() != 2 {
		t.Fatalf("expected version 2, got %d", record.Version())
	}
	if got := record.Parameters()["ecut"]; got != 600.0 {
		t.Fatalf("expected default ecut 600, got %v", got)
	}
	if record.Resources == nil || record.Resources.NCores != 1 {
		t.Fatalf("expected measured resources with 1 core, got %+v", record.Resources)
	}

	stored, err := folderstore.New(fold).Get(context.Background(), r.Name)
	if err != nil {
		t.Fatalf("Get stored record: %v", err)
	}
	if stored.UID() != record.UID() {
		t.Fatalf("stored UID %s != returned UID %s", stored.UID(), record.UID())
	}
}

func TestRunnerFailureLeavesNoRecord(t *testing.T) {
	boom := errors.New("diverged")
	r := &Recipe{
		Name:    "rmr.fail",
		Version: 1,
		Kind:    KindProperty,
		Body: func(ctx context.Context, rc *RunContext) (any, error) {
			return nil, boom
		},
	}
	fold := testFolder(t)

	if _, err := testRunner().Run(context.Background(), r, fold, nil); !errors.Is(err, boom) {
		t.Fatalf("expected body error, got %v", err)
	}
	if _, err := folderstore.New(fold).Get(context.Background(), r.Name); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected no persisted record, got %v", err)
	}
	entries, err := os.ReadDir(fold.Path())
	if err != nil {
		t.Fatalf("read folder: %v", err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".json" {
			t.Fatalf("failed run left %s behind", e.Name())
		}
	}
}

func TestRunnerReusesCachedRecord(t *testing.T) {
	runs := 0
	r := &Recipe{
		Name:    "rmr.cached",
		Version: 1,
		Kind:    KindProperty,
		Params: []params.Spec{
			{Name: "kptdensity", Type: params.Float, Default: 6.0},
		},
		Body: func(ctx context.Context, rc *RunContext) (any, error) {
			runs++
			return map[string]any{"etot": -1.0}, nil
		},
	}
	fold := testFolder(t)
	rn := testRunner()

	first, err := rn.Run(context.Background(), r, fold, nil)
	if err != nil {
		t.Fatalf("first Run: %v", err)
	}
	second, err := rn.Run(context.Background(), r, fold, nil)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if runs != 1 {
		t.Fatalf("expected a single execution, got %d", runs)
	}
	if second.UID() != first.UID() {
		t.Fatalf("cached run returned different UID: %s vs %s", second.UID(), first.UID())
	}
}

func TestRunnerSupersedesOnParameterChange(t *testing.T) {
	r := &Recipe{
		Name:    "rmr.rerun",
		Version: 1,
		Kind:    KindProperty,
		Params: []params.Spec{
			{Name: "ecut", Type: params.Float, Default: 600.0},
		},
		Body: func(ctx context.Context, rc *RunContext) (any, error) {
			return map[string]any{"ecut": rc.Float("ecut")}, nil
		},
	}
	fold := testFolder(t)
	rn := testRunner()

	first, err := rn.Run(context.Background(), r, fold, nil)
	if err != nil {
		t.Fatalf("first Run: %v", err)
	}
	second, err := rn.Run(context.Background(), r, fold, map[string]any{"ecut": 800.0})
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if second.UID() == first.UID() {
		t.Fatal("changed parameters must produce a new run")
	}
	if !second.History.Contains(first.UID()) {
		t.Fatalf("history %v does not record superseded run %s", second.History, first.UID())
	}

	revisions, err := folderstore.New(fold).Revisions(context.Background(), r.Name)
	if err != nil {
		t.Fatalf("Revisions: %v", err)
	}
	if len(revisions) != 1 || revisions[0].UID() != first.UID() {
		t.Fatalf("expected the first run archived as a revision, got %+v", revisions)
	}
}

func TestRunnerCapturesDependencies(t *testing.T) {
	child := Register(&Recipe{
		Name:    "rmr.deptest-child",
		Version: 1,
		Kind:    KindProperty,
		Body: func(ctx context.Context, rc *RunContext) (any, error) {
			return map[string]any{"etot": -3.2}, nil
		},
	})
	parent := &Recipe{
		Name:    "rmr.deptest-parent",
		Version: 1,
		Kind:    KindProperty,
		Body: func(ctx context.Context, rc *RunContext) (any, error) {
			rec, err := rc.Call(ctx, child.Name, nil)
			if err != nil {
				return nil, err
			}
			etot, _ := ResultFloat(rec, "etot")
			return map[string]any{"etot": etot}, nil
		},
	}
	fold := testFolder(t)

	record, err := testRunner().Run(context.Background(), parent, fold, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	childRecord, err := folderstore.New(fold).Get(context.Background(), child.Name)
	if err != nil {
		t.Fatalf("Get child record: %v", err)
	}
	want := domain.Dependencies{child.Name: childRecord.UID()}
	if !reflect.DeepEqual(record.Spec.Dependencies, want) {
		t.Fatalf("dependencies = %v, want %v", record.Spec.Dependencies, want)
	}
	if len(childRecord.Spec.Dependencies) != 0 {
		t.Fatalf("leaf run has dependencies: %v", childRecord.Spec.Dependencies)
	}
}

func TestRunnerOverridePrecedence(t *testing.T) {
	r := &Recipe{
		Name:    "rmr.override",
		Version: 1,
		Kind:    KindProperty,
		Params: []params.Spec{
			{Name: "ecut", Type: params.Float, Default: 600.0},
		},
		Body: func(ctx context.Context, rc *RunContext) (any, error) {
			return map[string]any{"ecut": rc.Float("ecut")}, nil
		},
	}
	fold := testFolder(t)
	writeParams(t, fold, `{"rmr.override": {"ecut": 800}}`)
	rn := testRunner()

	record, err := rn.Run(context.Background(), r, fold, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := record.Parameters()["ecut"]; got != 800.0 {
		t.Fatalf("folder override not applied: ecut = %v", got)
	}

	explicit, err := rn.Run(context.Background(), r, fold, map[string]any{"ecut": 700.0})
	if err != nil {
		t.Fatalf("explicit Run: %v", err)
	}
	if got := explicit.Parameters()["ecut"]; got != 700.0 {
		t.Fatalf("explicit value must beat the override: ecut = %v", got)
	}
}

func TestRecipeValidate(t *testing.T) {
	valid := &Recipe{
		Name: "rmr.ok", Version: 1, Kind: KindProperty,
		Body: func(ctx context.Context, rc *RunContext) (any, error) { return nil, nil },
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid recipe rejected: %v", err)
	}
	cases := []*Recipe{
		{Name: "relax", Version: 1, Kind: KindProperty, Body: valid.Body},
		{Name: "rmr.", Version: 1, Kind: KindProperty, Body: valid.Body},
		{Name: "rmr.x", Version: 1, Kind: "other", Body: valid.Body},
		{Name: "rmr.x", Version: 1, Kind: KindProperty},
	}
	for _, r := range cases {
		if err := r.Validate(); err == nil {
			t.Fatalf("expected validation error for %+v", r)
		}
	}
}
