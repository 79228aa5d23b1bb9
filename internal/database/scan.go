// Package database aggregates run records from a tree of material folders
// into a browsable project. Aggregation is read-only: scanning never
// touches the folders it reads.
package database

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"

	"github.com/rmr-labs/rmr-go/internal/domain"
	"github.com/rmr-labs/rmr-go/internal/folder"
	"github.com/rmr-labs/rmr-go/internal/recipe"
	"github.com/rmr-labs/rmr-go/internal/repo/folderstore"
	"github.com/rmr-labs/rmr-go/internal/structure"
)

// Row is one material folder's contribution to a project: its identity,
// the key-value pairs extracted from its records and the records
// themselves.
type Row struct {
	UID       string          `json:"uid"`
	Formula   string          `json:"formula"`
	Folder    string          `json:"folder"`
	KeyValues map[string]any  `json:"key_values"`
	Records   []domain.Record `json:"records"`
}

// RowUID derives a stable row identifier from the formula and the folder's
// path relative to the scan root.
func RowUID(formula, relpath string) string {
	sum := sha256.Sum256([]byte(relpath))
	return fmt.Sprintf("%s-%s", formula, hex.EncodeToString(sum[:])[:8])
}

// Scan walks root and builds one row per folder that contains a structure
// and at least one record. Folders that fail to read are logged and
// skipped; a broken folder must not sink the whole collection.
func Scan(ctx context.Context, root string, logger *slog.Logger) ([]Row, error) {
	if logger == nil {
		logger = slog.Default()
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	var rows []Row
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !d.IsDir() {
			return nil
		}
		if d.Name() == folder.MetaDir {
			return filepath.SkipDir
		}

		row, ok, err := scanFolder(ctx, absRoot, path)
		if err != nil {
			logger.Warn("skipping unreadable folder", "folder", path, "error", err)
			return nil
		}
		if ok {
			rows = append(rows, row)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].UID < rows[j].UID })
	return rows, nil
}

func scanFolder(ctx context.Context, root, path string) (Row, bool, error) {
	fold, err := folder.Open(path)
	if err != nil {
		return Row{}, false, err
	}
	s, err := fold.ReadStructure()
	if errors.Is(err, folder.ErrNoStructure) {
		// Not a material folder.
		return Row{}, false, nil
	}
	if err != nil {
		return Row{}, false, err
	}

	records, err := folderstore.New(fold).Select(ctx)
	if err != nil {
		return Row{}, false, err
	}
	if len(records) == 0 {
		return Row{}, false, nil
	}

	relpath, err := filepath.Rel(root, path)
	if err != nil {
		return Row{}, false, err
	}
	formula := s.Formula()

	return Row{
		UID:       RowUID(formula, relpath),
		Formula:   formula,
		Folder:    relpath,
		KeyValues: keyValues(formula, s, records),
		Records:   records,
	}, true, nil
}

// keyValues flattens the searchable facts of a folder: structure counts,
// formula and selected record results.
func keyValues(formula string, s structure.Structure, records []domain.Record) map[string]any {
	kvs := map[string]any{
		"formula": formula,
		"natoms":  len(s.Symbols),
	}
	for _, record := range records {
		switch record.Name() {
		case "rmr.gs":
			copyResultFloat(kvs, record, "etot")
			copyResultFloat(kvs, record, "gap")
			copyResultFloat(kvs, record, "magmom")
		case "rmr.magstate":
			if payload, ok := record.Result.(map[string]any); ok {
				if state, ok := payload["magstate"].(string); ok {
					kvs["magstate"] = state
				}
			}
		}
	}
	return kvs
}

func copyResultFloat(kvs map[string]any, record domain.Record, key string) {
	if v, ok := recipe.ResultFloat(record, key); ok {
		kvs[key] = v
	}
}
