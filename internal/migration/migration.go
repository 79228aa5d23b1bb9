// Package migration upgrades stored run records in place when a recipe's
// record format changes between versions. Applying the same set of
// migrations twice is a no-op: each migration declares the version it
// produces and skips records already at or past it.
package migration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/rmr-labs/rmr-go/internal/domain"
	"github.com/rmr-labs/rmr-go/internal/repo"
)

// Migration rewrites records selected by Selector to ToVersion. Apply
// receives a deep enough copy that it may mutate freely; the original
// record is archived as a revision by the store.
type Migration struct {
	Name      string
	Recipe    string
	ToVersion int
	Selector  func(record domain.Record) bool
	Apply     func(record domain.Record) (domain.Record, error)
}

func (m Migration) Validate() error {
	if m.Name == "" {
		return errors.New("migration name is required")
	}
	if m.Recipe == "" {
		return fmt.Errorf("migration %s names no recipe", m.Name)
	}
	if m.ToVersion < 1 {
		return fmt.Errorf("migration %s must target version >= 1, got %d", m.Name, m.ToVersion)
	}
	if m.Apply == nil {
		return fmt.Errorf("migration %s has no apply function", m.Name)
	}
	return nil
}

// applies reports whether m should run against record. Records already at
// the target version or newer are left alone, which is what makes a
// second pass over the same folder idempotent.
func (m Migration) applies(record domain.Record) bool {
	if record.Name() != m.Recipe {
		return false
	}
	if record.Version() >= m.ToVersion {
		return false
	}
	if m.Selector != nil && !m.Selector(record) {
		return false
	}
	return true
}

var (
	registryMu sync.RWMutex
	registry   []Migration
)

// Register adds a migration to the global set, for use from package-level
// variable initializers.
func Register(m Migration) Migration {
	if err := m.Validate(); err != nil {
		panic(err)
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = append(registry, m)
	return m
}

// All returns the registered migrations ordered by recipe and target
// version, so multi-step upgrades apply in sequence.
func All() []Migration {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]Migration, len(registry))
	copy(out, registry)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Recipe != out[j].Recipe {
			return out[i].Recipe < out[j].Recipe
		}
		return out[i].ToVersion < out[j].ToVersion
	})
	return out
}

// Report summarizes one migration run.
type Report struct {
	Applied []string // "<migration>: <recipe> <old uid> -> <new uid>"
	Skipped int
}

// Run applies migrations to every record in store. With dryRun set it
// reports what would change without writing anything. Each applied
// migration produces a fresh run UID and extends the record's history
// with the UID it supersedes.
func Run(ctx context.Context, store repo.RecordStore, migrations []Migration, dryRun bool, logger *slog.Logger) (Report, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var report Report

	records, err := store.Select(ctx)
	if err != nil {
		return report, err
	}

	for _, record := range records {
		current := record
		for _, m := range migrations {
			if err := m.Validate(); err != nil {
				return report, err
			}
			if !m.applies(current) {
				continue
			}

			migrated, err := m.Apply(cloneRecord(current))
			if err != nil {
				return report, fmt.Errorf("migration %s on %s: %w", m.Name, current.UID(), err)
			}
			migrated.Spec.Version = m.ToVersion
			migrated.Spec.UID = uuid.NewString()
			migrated.History = current.History.Appended(current.UID())
			if err := migrated.Validate(); err != nil {
				return report, fmt.Errorf("migration %s produced an invalid record: %w", m.Name, err)
			}
			if err := domain.EnsureRecordSupersedes(current, migrated); err != nil {
				return report, fmt.Errorf("migration %s: %w", m.Name, err)
			}

			step := fmt.Sprintf("%s: %s %s -> %s", m.Name, current.Name(), current.UID(), migrated.UID())
			report.Applied = append(report.Applied, step)
			if dryRun {
				logger.Info("would migrate record", "migration", m.Name,
					"recipe", current.Name(), "uid", current.UID(), "to_version", m.ToVersion)
			} else {
				if err := store.Put(ctx, migrated); err != nil {
					return report, fmt.Errorf("migration %s: persist: %w", m.Name, err)
				}
				logger.Info("migrated record", "migration", m.Name,
					"recipe", current.Name(), "uid", migrated.UID(), "to_version", m.ToVersion)
			}
			current = migrated
		}
		if current.UID() == record.UID() {
			report.Skipped++
		}
	}
	return report, nil
}

// cloneRecord gives Apply a record it can mutate without aliasing the
// stored one.
func cloneRecord(record domain.Record) domain.Record {
	clone := record
	clone.Spec.Parameters = make(map[string]any, len(record.Spec.Parameters))
	for k, v := range record.Spec.Parameters {
		clone.Spec.Parameters[k] = v
	}
	clone.Spec.Dependencies = record.Spec.Dependencies.Clone()
	clone.Spec.Codes = append([]domain.Code(nil), record.Spec.Codes...)
	clone.History = append(domain.RevisionHistory(nil), record.History...)
	clone.Metadata = record.Metadata.Clone()
	if record.Resources != nil {
		resources := *record.Resources
		clone.Resources = &resources
	}
	return clone
}
