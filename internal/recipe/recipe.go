// Package recipe turns plain computation functions into recipes: uniformly
// invocable from Go and from the CLI, parameterized through a three-tier
// merge, and recorded as immutable run records in their material folder.
package recipe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rmr-labs/rmr-go/internal/domain"
	"github.com/rmr-labs/rmr-go/internal/engine"
	"github.com/rmr-labs/rmr-go/internal/folder"
	"github.com/rmr-labs/rmr-go/internal/params"
)

// Version is stamped into the code list of every record this build emits.
const Version = "0.5.0"

// Kind separates recipes that derive properties inside their own folder
// from recipes that spawn new material folders.
type Kind string

const (
	KindProperty  Kind = "property"
	KindStructure Kind = "structure"
)

// Body is the wrapped computation of a recipe.
type Body func(ctx context.Context, rc *RunContext) (any, error)

// Recipe describes one decorated computation.
type Recipe struct {
	Name    string
	Version int
	Kind    Kind
	Help    string
	Params  []params.Spec
	Body    Body
}

func (r *Recipe) Validate() error {
	if r == nil {
		return errors.New("recipe is nil")
	}
	if !strings.HasPrefix(r.Name, "rmr.") || len(r.Name) <= len("rmr.") {
		return fmt.Errorf("recipe name %q must have the form rmr.<name>", r.Name)
	}
	if r.Kind != KindProperty && r.Kind != KindStructure {
		return fmt.Errorf("recipe %s has unknown kind %q", r.Name, r.Kind)
	}
	if r.Body == nil {
		return fmt.Errorf("recipe %s has no body", r.Name)
	}
	seen := map[string]struct{}{}
	for _, spec := range r.Params {
		if err := spec.Validate(); err != nil {
			return fmt.Errorf("recipe %s: %w", r.Name, err)
		}
		if _, ok := seen[spec.Name]; ok {
			return fmt.Errorf("recipe %s declares parameter %q twice", r.Name, spec.Name)
		}
		seen[spec.Name] = struct{}{}
	}
	return nil
}

// RunContext is what a recipe body sees: its material folder, the
// simulation engine, the fully resolved parameters and a way to invoke
// other recipes as dependencies.
type RunContext struct {
	Folder *folder.Folder
	Engine engine.Engine
	Params map[string]any

	runner *Runner
}

// Call invokes another recipe in the same folder. The callee's record is
// registered as a dependency of the calling run.
func (rc *RunContext) Call(ctx context.Context, name string, kwargs map[string]any) (domain.Record, error) {
	callee, err := Get(name)
	if err != nil {
		return domain.Record{}, err
	}
	return rc.runner.Run(ctx, callee, rc.Folder, kwargs)
}

func (rc *RunContext) String(name string) string {
	v, _ := rc.Params[name].(string)
	return v
}

func (rc *RunContext) Int(name string) int {
	v, _ := rc.Params[name].(int)
	return v
}

func (rc *RunContext) Float(name string) float64 {
	v, _ := rc.Params[name].(float64)
	return v
}

func (rc *RunContext) Bool(name string) bool {
	v, _ := rc.Params[name].(bool)
	return v
}

func (rc *RunContext) Strings(name string) []string {
	v, _ := rc.Params[name].([]string)
	return v
}

// ResultFloat pulls a numeric field out of a record's result payload,
// tolerating both in-memory and JSON-decoded shapes.
func ResultFloat(record domain.Record, key string) (float64, bool) {
	payload, ok := record.Result.(map[string]any)
	if !ok {
		return 0, false
	}
	switch v := payload[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}
