package domain

import (
	"testing"
	"time"
)

func validRecord() Record {
	spec := NewRunSpecification("rmr.gs", map[string]any{"ecut": 600.0}, 1, nil)
	res := MeasureResources(time.Now().Add(-time.Second), time.Now(), 1)
	return Record{
		Spec:      spec,
		Result:    map[string]any{"etot": -10.5},
		Resources: &res,
	}
}

func TestRecordValidate(t *testing.T) {
	rec := validRecord()
	if err := rec.Validate(); err != nil {
		t.Fatalf("Validate() err=%v", err)
	}

	noName := rec
	noName.Spec.Name = ""
	if err := noName.Validate(); err == nil {
		t.Fatalf("expected error for missing recipe name")
	}

	noUID := rec
	noUID.Spec.UID = ""
	if err := noUID.Validate(); err == nil {
		t.Fatalf("expected error for missing uid")
	}

	badDep := rec
	badDep.Spec.Dependencies = Dependencies{"rmr.gs": ""}
	if err := badDep.Validate(); err == nil {
		t.Fatalf("expected error for empty dependency uid")
	}
}

func TestResourcesValidate(t *testing.T) {
	now := time.Now()
	ok := MeasureResources(now.Add(-time.Minute), now, 8)
	if err := ok.Validate(); err != nil {
		t.Fatalf("Validate() err=%v", err)
	}

	negative := Resources{ExecutionDuration: -1}
	if err := negative.Validate(); err == nil {
		t.Fatalf("expected error for negative duration")
	}

	backwards := MeasureResources(now, now.Add(-time.Minute), 1)
	backwards.ExecutionDuration = 0
	if err := backwards.Validate(); err == nil {
		t.Fatalf("expected error for end before start")
	}
}

func TestHistoryAppendOnly(t *testing.T) {
	h := RevisionHistory{"a", "b"}
	h2 := h.Appended("c")
	if len(h) != 2 {
		t.Fatalf("Appended mutated receiver: %v", h)
	}
	if h2.Latest() != "c" {
		t.Fatalf("Latest()=%q, want c", h2.Latest())
	}
	if err := EnsureHistoryExtends(h, h2); err != nil {
		t.Fatalf("EnsureHistoryExtends err=%v", err)
	}
	if err := EnsureHistoryExtends(h2, h); err == nil {
		t.Fatalf("expected truncation to be rejected")
	}
	if err := EnsureHistoryExtends(h, RevisionHistory{"a", "x", "c"}); err == nil {
		t.Fatalf("expected reordered history to be rejected")
	}
}

func TestEnsureRecordImmutable(t *testing.T) {
	before := validRecord()
	after := before
	if err := EnsureRecordImmutable(before, after); err != nil {
		t.Fatalf("EnsureRecordImmutable err=%v", err)
	}

	after.Result = map[string]any{"etot": 0.0}
	if err := EnsureRecordImmutable(before, after); err == nil {
		t.Fatalf("expected result change to be rejected")
	}
}

func TestEnsureRecordSupersedes(t *testing.T) {
	old := validRecord()
	newRec := validRecord()
	newRec.History = old.History.Appended(old.UID())
	if err := EnsureRecordSupersedes(old, newRec); err != nil {
		t.Fatalf("EnsureRecordSupersedes err=%v", err)
	}

	noHistory := validRecord()
	if err := EnsureRecordSupersedes(old, noHistory); err == nil {
		t.Fatalf("expected missing history entry to be rejected")
	}

	sameUID := old
	if err := EnsureRecordSupersedes(old, sameUID); err == nil {
		t.Fatalf("expected reused uid to be rejected")
	}
}
