// Package postgres indexes published projects in PostgreSQL so large
// databases can be searched without loading every row into memory.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rmr-labs/rmr-go/internal/database"
	"github.com/rmr-labs/rmr-go/internal/domain"
	"github.com/rmr-labs/rmr-go/internal/repo"
)

type DB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

const (
	createIndexSchemaQuery = `CREATE TABLE IF NOT EXISTS project_rows (
		project_name TEXT NOT NULL,
		row_uid      TEXT NOT NULL,
		formula      TEXT NOT NULL,
		folder       TEXT NOT NULL,
		key_values   JSONB NOT NULL,
		records      JSONB NOT NULL,
		PRIMARY KEY (project_name, row_uid)
	)`

	deleteProjectRowsQuery = `DELETE FROM project_rows WHERE project_name = $1`

	insertProjectRowQuery = `INSERT INTO project_rows (
		project_name,
		row_uid,
		formula,
		folder,
		key_values,
		records
	) VALUES ($1,$2,$3,$4,$5,$6)`

	selectProjectRowsQuery = `SELECT row_uid, formula, folder, key_values, records
	 FROM project_rows
	 WHERE project_name = $1
	 ORDER BY row_uid`

	selectProjectRowQuery = `SELECT row_uid, formula, folder, key_values, records
	 FROM project_rows
	 WHERE project_name = $1 AND row_uid = $2`
)

type IndexStore struct {
	db DB
}

func NewIndexStore(db DB) *IndexStore {
	if db == nil {
		return nil
	}
	return &IndexStore{db: db}
}

func (s *IndexStore) EnsureSchema(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("index store not initialized")
	}
	if _, err := s.db.ExecContext(ctx, createIndexSchemaQuery); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// ReplaceProject swaps the indexed rows of a project in one transaction.
func (s *IndexStore) ReplaceProject(ctx context.Context, p database.Project) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("index store not initialized")
	}
	if err := p.Validate(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, deleteProjectRowsQuery, p.Name); err != nil {
		return fmt.Errorf("delete rows: %w", err)
	}
	for _, row := range p.Rows {
		keyValues, err := json.Marshal(row.KeyValues)
		if err != nil {
			return fmt.Errorf("encode key values: %w", err)
		}
		records, err := json.Marshal(row.Records)
		if err != nil {
			return fmt.Errorf("encode records: %w", err)
		}
		if _, err := tx.ExecContext(ctx, insertProjectRowQuery,
			p.Name, row.UID, row.Formula, row.Folder, keyValues, records); err != nil {
			return fmt.Errorf("insert row %s: %w", row.UID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *IndexStore) Rows(ctx context.Context, project string) ([]database.Row, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("index store not initialized")
	}
	project = strings.TrimSpace(project)
	if project == "" {
		return nil, fmt.Errorf("project name is required")
	}

	rows, err := s.db.QueryContext(ctx, selectProjectRowsQuery, project)
	if err != nil {
		return nil, fmt.Errorf("select rows: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []database.Row
	for rows.Next() {
		row, err := scanRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (s *IndexStore) GetRow(ctx context.Context, project, uid string) (database.Row, error) {
	if s == nil || s.db == nil {
		return database.Row{}, fmt.Errorf("index store not initialized")
	}
	project = strings.TrimSpace(project)
	uid = strings.TrimSpace(uid)
	if project == "" {
		return database.Row{}, fmt.Errorf("project name is required")
	}
	if uid == "" {
		return database.Row{}, fmt.Errorf("row uid is required")
	}

	dbRow := s.db.QueryRowContext(ctx, selectProjectRowQuery, project, uid)
	row, err := scanRow(dbRow.Scan)
	if err != nil {
		return database.Row{}, handleNotFound(err)
	}
	return row, nil
}

func scanRow(scan func(dest ...any) error) (database.Row, error) {
	var row database.Row
	var keyValues, records []byte
	if err := scan(&row.UID, &row.Formula, &row.Folder, &keyValues, &records); err != nil {
		return database.Row{}, err
	}
	if err := json.Unmarshal(keyValues, &row.KeyValues); err != nil {
		return database.Row{}, fmt.Errorf("decode key values: %w", err)
	}
	if len(records) > 0 {
		var decoded []domain.Record
		if err := json.Unmarshal(records, &decoded); err != nil {
			return database.Row{}, fmt.Errorf("decode records: %w", err)
		}
		row.Records = decoded
	}
	return row, nil
}

func handleNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return repo.ErrNotFound
	}
	return err
}
