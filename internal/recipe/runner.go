package recipe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rmr-labs/rmr-go/internal/domain"
	"github.com/rmr-labs/rmr-go/internal/engine"
	"github.com/rmr-labs/rmr-go/internal/folder"
	"github.com/rmr-labs/rmr-go/internal/params"
	"github.com/rmr-labs/rmr-go/internal/repo"
	"github.com/rmr-labs/rmr-go/internal/repo/folderstore"
)

// collector gathers the records consumed by the run currently executing.
// Nested Run calls register their record with the caller's collector, so
// dependency capture needs no global state.
type collector struct {
	deps domain.Dependencies
}

func (c *collector) register(name, uid string) {
	if c.deps == nil {
		c.deps = domain.Dependencies{}
	}
	c.deps[name] = uid
}

type collectorKey struct{}

func withCollector(ctx context.Context, c *collector) context.Context {
	return context.WithValue(ctx, collectorKey{}, c)
}

func collectorFrom(ctx context.Context) *collector {
	c, _ := ctx.Value(collectorKey{}).(*collector)
	return c
}

// Runner executes recipes and persists their records. Stores defaults to
// the folder-backed record store.
type Runner struct {
	Engine engine.Engine
	Logger *slog.Logger
	NCores int

	// Stores overrides record store construction, mainly for tests.
	Stores func(*folder.Folder) repo.RecordStore
}

func (rn *Runner) store(f *folder.Folder) repo.RecordStore {
	if rn.Stores != nil {
		return rn.Stores(f)
	}
	return folderstore.New(f)
}

func (rn *Runner) logger() *slog.Logger {
	if rn.Logger != nil {
		return rn.Logger
	}
	return slog.Default()
}

func (rn *Runner) ncores() int {
	if rn.NCores > 0 {
		return rn.NCores
	}
	return 1
}

// Run resolves parameters, executes the recipe body in fold and persists
// the resulting record. If an up-to-date record with identical resolved
// parameters already exists it is returned without executing. On failure
// nothing is persisted and the error propagates to the caller.
func (rn *Runner) Run(ctx context.Context, r *Recipe, fold *folder.Folder, kwargs map[string]any) (domain.Record, error) {
	if err := r.Validate(); err != nil {
		return domain.Record{}, err
	}

	overrides, err := fold.Overrides()
	if err != nil {
		return domain.Record{}, err
	}
	resolved, err := params.Resolve(r.Params, overrides.For(r.Name), kwargs)
	if err != nil {
		return domain.Record{}, fmt.Errorf("%s: %w", r.Name, err)
	}

	store := rn.store(fold)
	parent := collectorFrom(ctx)

	var prior *domain.Record
	existing, err := store.Get(ctx, r.Name)
	switch {
	case err == nil:
		if existing.Version() == r.Version && params.Equal(existing.Parameters(), resolved) {
			rn.logger().Info("using cached record", "recipe", r.Name, "uid", existing.UID(), "folder", fold.Path())
			if parent != nil {
				parent.register(r.Name, existing.UID())
			}
			return existing, nil
		}
		prior = &existing
	case errors.Is(err, repo.ErrNotFound):
	default:
		return domain.Record{}, err
	}

	spec := domain.NewRunSpecification(r.Name, resolved, r.Version, codes())
	deps := &collector{}
	runCtx := withCollector(ctx, deps)

	rn.logger().Info("running recipe", "recipe", r.Name, "folder", fold.Path(), "params", resolved)
	start := time.Now()
	result, err := r.Body(runCtx, &RunContext{
		Folder: fold,
		Engine: rn.Engine,
		Params: resolved,
		runner: rn,
	})
	if err != nil {
		// No record is persisted for a failed run.
		return domain.Record{}, fmt.Errorf("%s: %w", r.Name, err)
	}
	resources := domain.MeasureResources(start, time.Now(), rn.ncores())

	spec.Dependencies = deps.deps
	record := domain.Record{
		Spec:      spec,
		Result:    result,
		Resources: &resources,
		Metadata:  domain.Metadata{"created": time.Now().UTC().Format(time.RFC3339)},
	}
	if prior != nil {
		record.History = prior.History.Appended(prior.UID())
	}

	if err := store.Put(ctx, record); err != nil {
		return domain.Record{}, fmt.Errorf("%s: persist record: %w", r.Name, err)
	}
	rn.logger().Info("recipe finished", "recipe", r.Name, "uid", record.UID(),
		"duration", resources.ExecutionDuration)

	if parent != nil {
		parent.register(r.Name, record.UID())
	}
	return record, nil
}

func codes() []domain.Code {
	return []domain.Code{{Package: "rmr", Version: Version}}
}
