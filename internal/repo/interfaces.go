// Package repo declares the persistence surface for run records.
package repo

import (
	"context"
	"errors"

	"github.com/rmr-labs/rmr-go/internal/domain"
)

var ErrNotFound = errors.New("record not found")

// RecordStore persists at most one current record per recipe name.
// Replacing a record must preserve the superseded one; nothing is ever
// deleted through this interface.
type RecordStore interface {
	Put(ctx context.Context, record domain.Record) error
	Get(ctx context.Context, name string) (domain.Record, error)
	Has(ctx context.Context, name string) (bool, error)
	Select(ctx context.Context) ([]domain.Record, error)
}
