// Package folderstore persists run records as results-<recipe>.json files
// inside a material folder. Writes are all-or-nothing: a record file is
// staged to a temp file and renamed into place, so a failed run can never
// leave a partially written record behind. Superseded records move into
// .rmr/revisions and are never deleted.
package folderstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rmr-labs/rmr-go/internal/domain"
	"github.com/rmr-labs/rmr-go/internal/folder"
	"github.com/rmr-labs/rmr-go/internal/repo"
)

const revisionsDir = "revisions"

type Store struct {
	dir string
}

func New(f *folder.Folder) *Store {
	return &Store{dir: f.Path()}
}

// ResultsFilename maps a recipe name to its record sentinel filename.
func ResultsFilename(name string) string {
	return "results-" + name + ".json"
}

func (s *Store) recordPath(name string) string {
	return filepath.Join(s.dir, ResultsFilename(name))
}

func (s *Store) revisionPath(record domain.Record) string {
	uid := record.UID()
	if len(uid) > 8 {
		uid = uid[:8]
	}
	return filepath.Join(s.dir, folder.MetaDir, revisionsDir, fmt.Sprintf("%s-%s.json", record.Name(), uid))
}

// Put persists record. If a record for the same recipe already exists the
// new record must legally supersede it (distinct UID, history extended);
// the old file is preserved under .rmr/revisions before the new one lands.
// Re-putting an identical record is a no-op.
func (s *Store) Put(ctx context.Context, record domain.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := record.Validate(); err != nil {
		return fmt.Errorf("invalid record: %w", err)
	}

	existing, err := s.Get(ctx, record.Name())
	switch {
	case err == nil:
		if existing.UID() == record.UID() {
			return domain.EnsureRecordImmutable(existing, record)
		}
		if err := domain.EnsureRecordSupersedes(existing, record); err != nil {
			return fmt.Errorf("record for %s already exists: %w", record.Name(), err)
		}
		if err := s.archive(existing); err != nil {
			return err
		}
	case errors.Is(err, repo.ErrNotFound):
	default:
		return err
	}

	return s.writeAtomic(s.recordPath(record.Name()), record)
}

func (s *Store) Get(ctx context.Context, name string) (domain.Record, error) {
	if err := ctx.Err(); err != nil {
		return domain.Record{}, err
	}
	return s.readRecord(s.recordPath(name))
}

func (s *Store) Has(ctx context.Context, name string) (bool, error) {
	_, err := s.Get(ctx, name)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, repo.ErrNotFound) {
		return false, nil
	}
	return false, err
}

// Select returns the current record of every recipe in the folder, sorted
// by recipe name. Revisions are not included.
func (s *Store) Select(ctx context.Context) ([]domain.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	matches, err := filepath.Glob(filepath.Join(s.dir, "results-*.json"))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)

	records := make([]domain.Record, 0, len(matches))
	for _, path := range matches {
		record, err := s.readRecord(path)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

// Revisions returns the archived records for one recipe, in no particular
// order.
func (s *Store) Revisions(ctx context.Context, name string) ([]domain.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pattern := filepath.Join(s.dir, folder.MetaDir, revisionsDir, name+"-*.json")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, err
	}
	records := make([]domain.Record, 0, len(matches))
	for _, path := range matches {
		record, err := s.readRecord(path)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

func (s *Store) readRecord(path string) (domain.Record, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.Record{}, repo.ErrNotFound
		}
		return domain.Record{}, err
	}
	var record domain.Record
	if err := json.Unmarshal(raw, &record); err != nil {
		return domain.Record{}, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return record, nil
}

func (s *Store) archive(record domain.Record) error {
	dest := s.revisionPath(record)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("archive record: %w", err)
	}
	if err := os.Rename(s.recordPath(record.Name()), dest); err != nil {
		return fmt.Errorf("archive record: %w", err)
	}
	return nil
}

func (s *Store) writeAtomic(path string, record domain.Record) error {
	raw, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	tmp, err := os.CreateTemp(s.dir, ".results-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(append(raw, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// IsRecordFile reports whether a filename follows the record sentinel
// convention, and if so for which recipe.
func IsRecordFile(filename string) (string, bool) {
	name := filepath.Base(filename)
	if !strings.HasPrefix(name, "results-") || !strings.HasSuffix(name, ".json") {
		return "", false
	}
	recipe := strings.TrimSuffix(strings.TrimPrefix(name, "results-"), ".json")
	if recipe == "" {
		return "", false
	}
	return recipe, true
}
