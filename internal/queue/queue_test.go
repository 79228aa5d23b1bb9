package queue

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParseResources(t *testing.T) {
	r, err := ParseResources("24:10h")
	if err != nil {
		t.Fatalf("ParseResources: %v", err)
	}
	if r.Cores != 24 || r.Walltime != 10*time.Hour {
		t.Fatalf("unexpected resources: %+v", r)
	}
	if r.String() != "24:10h0m0s" {
		t.Fatalf("String() = %q", r.String())
	}

	for _, raw := range []string{"", "24", "0:10h", "-1:10h", "24:0s", "24:late"} {
		if _, err := ParseResources(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestSubmissionValidate(t *testing.T) {
	valid := Submission{
		Recipe:    "rmr.gs",
		Folder:    "/work/si",
		Resources: Resources{Cores: 8, Walltime: time.Hour},
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid submission rejected: %v", err)
	}
	if err := (Submission{Folder: "/work/si", Resources: valid.Resources}).Validate(); err == nil {
		t.Fatal("missing recipe must fail")
	}
	if err := (Submission{Recipe: "rmr.gs", Resources: valid.Resources}).Validate(); err == nil {
		t.Fatal("missing folder must fail")
	}
}

func TestSubmitRunsCommand(t *testing.T) {
	outFile := filepath.Join(t.TempDir(), "submitted")
	q := &Submitter{Command: []string{"sh", "-c", `echo "$@" > ` + outFile, "submit"}}

	err := q.Submit(context.Background(), Submission{
		Recipe:    "rmr.gs",
		Folder:    "/work/si",
		Resources: Resources{Cores: 8, Walltime: time.Hour},
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	raw, err := os.ReadFile(outFile)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	got := strings.TrimSpace(string(raw))
	for _, want := range []string{"rmr run rmr.gs", "--folder /work/si", "--resources 8:1h0m0s"} {
		if !strings.Contains(got, want) {
			t.Fatalf("submit command %q missing %q", got, want)
		}
	}
}

func TestSubmitPropagatesFailure(t *testing.T) {
	q := &Submitter{Command: []string{"sh", "-c", "echo queue full >&2; exit 1"}}
	err := q.Submit(context.Background(), Submission{
		Recipe:    "rmr.gs",
		Folder:    "/work/si",
		Resources: Resources{Cores: 8, Walltime: time.Hour},
	})
	if err == nil {
		t.Fatal("expected submit failure")
	}
	if !strings.Contains(err.Error(), "queue full") {
		t.Fatalf("stderr not folded into error: %v", err)
	}
}
