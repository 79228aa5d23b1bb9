package recipes

import (
	"github.com/rmr-labs/rmr-go/internal/domain"
	"github.com/rmr-labs/rmr-go/internal/migration"
)

// rmr.gs version 0 had no calculator parameter; the backend was implied.
// Version 1 records it explicitly, so old records get the default filled
// in.
var _ = migration.Register(migration.Migration{
	Name:      "gs-add-calculator",
	Recipe:    "rmr.gs",
	ToVersion: 1,
	Apply: func(record domain.Record) (domain.Record, error) {
		if _, ok := record.Spec.Parameters["calculator"]; !ok {
			record.Spec.Parameters["calculator"] = "gpaw"
		}
		return record, nil
	},
})
