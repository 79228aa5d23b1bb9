package folderstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rmr-labs/rmr-go/internal/domain"
	"github.com/rmr-labs/rmr-go/internal/folder"
	"github.com/rmr-labs/rmr-go/internal/repo"
)

func newStore(t *testing.T) (*Store, *folder.Folder) {
	t.Helper()
	f, err := folder.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() err=%v", err)
	}
	return New(f), f
}

func gsRecord(result float64) domain.Record {
	spec := domain.NewRunSpecification("rmr.gs", map[string]any{"ecut": 600.0}, 1, nil)
	return domain.Record{
		Spec:   spec,
		Result: map[string]any{"etot": result},
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t)

	want := gsRecord(-10.5)
	want.Metadata = domain.Metadata{"created": "2026-08-29T10:00:00Z"}
	if err := store.Put(ctx, want); err != nil {
		t.Fatalf("Put() err=%v", err)
	}

	got, err := store.Get(ctx, "rmr.gs")
	if err != nil {
		t.Fatalf("Get() err=%v", err)
	}
	if got.UID() != want.UID() || got.Name() != want.Name() || got.Version() != want.Version() {
		t.Fatalf("identity mismatch: got %+v", got.Spec)
	}
	if got.Result.(map[string]any)["etot"] != -10.5 {
		t.Fatalf("result mismatch: %v", got.Result)
	}
	if got.Metadata["created"] != "2026-08-29T10:00:00Z" {
		t.Fatalf("metadata mismatch: %v", got.Metadata)
	}
}

func TestGetMissing(t *testing.T) {
	store, _ := newStore(t)
	if _, err := store.Get(context.Background(), "rmr.gs"); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("Get() err=%v, want ErrNotFound", err)
	}
}

func TestPutSupersedesIntoRevisions(t *testing.T) {
	ctx := context.Background()
	store, f := newStore(t)

	old := gsRecord(-10.5)
	if err := store.Put(ctx, old); err != nil {
		t.Fatalf("Put() err=%v", err)
	}

	replacement := gsRecord(-10.6)
	replacement.History = old.History.Appended(old.UID())
	if err := store.Put(ctx, replacement); err != nil {
		t.Fatalf("Put() replacement err=%v", err)
	}

	current, err := store.Get(ctx, "rmr.gs")
	if err != nil {
		t.Fatalf("Get() err=%v", err)
	}
	if current.UID() != replacement.UID() {
		t.Fatalf("current record uid=%s, want %s", current.UID(), replacement.UID())
	}
	if current.History.Latest() != old.UID() {
		t.Fatalf("history does not end with superseded uid: %v", current.History)
	}

	revisions, err := store.Revisions(ctx, "rmr.gs")
	if err != nil {
		t.Fatalf("Revisions() err=%v", err)
	}
	if len(revisions) != 1 || revisions[0].UID() != old.UID() {
		t.Fatalf("old record not preserved: %+v", revisions)
	}

	// The folder must never hold a deleted record.
	if _, err := os.Stat(filepath.Join(f.Path(), folder.MetaDir, "revisions")); err != nil {
		t.Fatalf("revisions dir missing: %v", err)
	}
}

func TestPutRejectsSilentReplacement(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t)

	old := gsRecord(-10.5)
	if err := store.Put(ctx, old); err != nil {
		t.Fatalf("Put() err=%v", err)
	}

	// New record without history linking to the old one.
	intruder := gsRecord(-99.0)
	if err := store.Put(ctx, intruder); err == nil {
		t.Fatalf("expected error for replacement without history link")
	}

	// Same UID, different payload.
	mutated := old
	mutated.Result = map[string]any{"etot": 0.0}
	if err := store.Put(ctx, mutated); err == nil {
		t.Fatalf("expected error for in-place mutation")
	}
}

func TestPutIdenticalIsNoop(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t)

	rec := gsRecord(-10.5)
	if err := store.Put(ctx, rec); err != nil {
		t.Fatalf("Put() err=%v", err)
	}
	// Re-read so dynamic types match what a second Put would compare.
	stored, err := store.Get(ctx, "rmr.gs")
	if err != nil {
		t.Fatalf("Get() err=%v", err)
	}
	if err := store.Put(ctx, stored); err != nil {
		t.Fatalf("Put() identical record err=%v", err)
	}
}

func TestPutRejectsInvalidRecordWithoutTrace(t *testing.T) {
	ctx := context.Background()
	store, f := newStore(t)

	invalid := gsRecord(-10.5)
	invalid.Spec.UID = ""
	if err := store.Put(ctx, invalid); err == nil {
		t.Fatalf("expected error for invalid record")
	}

	entries, err := os.ReadDir(f.Path())
	if err != nil {
		t.Fatalf("ReadDir() err=%v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("failed Put left files behind: %v", entries)
	}
}

func TestSelect(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t)

	gs := gsRecord(-10.5)
	magstate := domain.Record{
		Spec:   domain.NewRunSpecification("rmr.magstate", map[string]any{}, 1, nil),
		Result: map[string]any{"magstate": "nm"},
	}
	if err := store.Put(ctx, gs); err != nil {
		t.Fatalf("Put() err=%v", err)
	}
	if err := store.Put(ctx, magstate); err != nil {
		t.Fatalf("Put() err=%v", err)
	}

	records, err := store.Select(ctx)
	if err != nil {
		t.Fatalf("Select() err=%v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Select()=%d records, want 2", len(records))
	}
	if records[0].Name() != "rmr.gs" || records[1].Name() != "rmr.magstate" {
		t.Fatalf("Select() order: %s, %s", records[0].Name(), records[1].Name())
	}
}

func TestIsRecordFile(t *testing.T) {
	name, ok := IsRecordFile("results-rmr.gs.json")
	if !ok || name != "rmr.gs" {
		t.Fatalf("IsRecordFile()=%q,%v", name, ok)
	}
	if _, ok := IsRecordFile("structure.json"); ok {
		t.Fatalf("structure.json misclassified as record")
	}
	if _, ok := IsRecordFile("results-.json"); ok {
		t.Fatalf("empty recipe name misclassified")
	}
}
