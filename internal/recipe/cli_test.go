package recipe

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rmr-labs/rmr-go/internal/params"
)

func TestCommandRunsRecipe(t *testing.T) {
	r := &Recipe{
		Name:    "rmr.clitest",
		Version: 1,
		Kind:    KindProperty,
		Params: []params.Spec{
			{Name: "ecut", Type: params.Float, Default: 600.0},
			{Name: "mode", Kind: params.Argument, Type: params.String},
		},
		Body: func(ctx context.Context, rc *RunContext) (any, error) {
			return map[string]any{"ecut": rc.Float("ecut"), "mode": rc.String("mode")}, nil
		},
	}
	fold := testFolder(t)
	writeParams(t, fold, `{"rmr.clitest": {"ecut": 800}}`)

	dir := fold.Path()
	run := func(args ...string) map[string]any {
		t.Helper()
		cmd := Command(r, testRunner(), &dir)
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetErr(&out)
		cmd.SetArgs(args)
		if err := cmd.ExecuteContext(context.Background()); err != nil {
			t.Fatalf("execute %v: %v", args, err)
		}
		var record struct {
			Result map[string]any `json:"result"`
		}
		if err := json.Unmarshal(out.Bytes(), &record); err != nil {
			t.Fatalf("decode output: %v", err)
		}
		return record.Result
	}

	// The untouched flag leaves the folder override in charge.
	result := run("fast")
	if result["ecut"] != 800.0 {
		t.Fatalf("expected override ecut 800, got %v", result["ecut"])
	}
	if result["mode"] != "fast" {
		t.Fatalf("positional argument lost: %v", result["mode"])
	}

	// An explicitly set flag beats the override.
	result = run("fast", "--ecut", "700")
	if result["ecut"] != 700.0 {
		t.Fatalf("expected explicit ecut 700, got %v", result["ecut"])
	}
}

func TestCommandRejectsBadArgument(t *testing.T) {
	r := &Recipe{
		Name:    "rmr.cliarg",
		Version: 1,
		Kind:    KindProperty,
		Params: []params.Spec{
			{Name: "npoints", Kind: params.Argument, Type: params.Int},
		},
		Body: func(ctx context.Context, rc *RunContext) (any, error) {
			return map[string]any{"npoints": rc.Int("npoints")}, nil
		},
	}
	fold := testFolder(t)
	dir := fold.Path()

	cmd := Command(r, testRunner(), &dir)
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"notanint"})
	if err := cmd.ExecuteContext(context.Background()); err == nil {
		t.Fatal("expected a coercion error for a non-integer argument")
	}
}
