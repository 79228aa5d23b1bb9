package domain

import (
	"errors"
	"fmt"
	"reflect"
)

// EnsureRecordImmutable enforces immutability for a finalized record. A
// record may only be replaced under the same UID if nothing observable
// changed; any correction must come as a new record (new UID) whose history
// extends the old one, checked by EnsureRecordSupersedes.
func EnsureRecordImmutable(before, after Record) error {
	if before.UID() == "" || after.UID() == "" {
		return errors.New("record uids are required")
	}
	if before.UID() != after.UID() {
		return fmt.Errorf("record uid changed from %q to %q", before.UID(), after.UID())
	}
	if before.Name() != after.Name() {
		return errors.New("recipe name is immutable")
	}
	if before.Version() != after.Version() {
		return errors.New("version is immutable")
	}
	if !reflect.DeepEqual(before.Spec.Parameters, after.Spec.Parameters) {
		return errors.New("parameters are immutable")
	}
	if !reflect.DeepEqual(before.Spec.Dependencies, after.Spec.Dependencies) {
		return errors.New("dependencies are immutable")
	}
	if !reflect.DeepEqual(before.Result, after.Result) {
		return errors.New("result is immutable")
	}
	if !reflect.DeepEqual(before.Resources, after.Resources) {
		return errors.New("resources are immutable")
	}
	if !reflect.DeepEqual(before.History, after.History) {
		return errors.New("history is immutable")
	}
	return nil
}

// EnsureRecordSupersedes checks that after is a legal replacement for
// before: a distinct record for the same recipe whose history preserves
// before's history and ends with before's UID.
func EnsureRecordSupersedes(before, after Record) error {
	if before.UID() == "" || after.UID() == "" {
		return errors.New("record uids are required")
	}
	if before.UID() == after.UID() {
		return fmt.Errorf("superseding record reuses uid %q", before.UID())
	}
	if before.Name() != after.Name() {
		return fmt.Errorf("recipe name changed from %q to %q", before.Name(), after.Name())
	}
	if err := EnsureHistoryExtends(before.History, after.History); err != nil {
		return err
	}
	if !after.History.Contains(before.UID()) {
		return fmt.Errorf("history of new record does not list superseded uid %q", before.UID())
	}
	return nil
}
