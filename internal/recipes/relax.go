// Package recipes holds the built-in recipes. Each recipe registers
// itself at init time; importing this package is enough to make the full
// set available to the CLI and to callers.
package recipes

import (
	"context"
	"fmt"

	"github.com/rmr-labs/rmr-go/internal/engine"
	"github.com/rmr-labs/rmr-go/internal/params"
	"github.com/rmr-labs/rmr-go/internal/recipe"
)

// Relax optimizes the unrelaxed structure for a set of magnetic starting
// states. Each state gets its own subfolder with the relaxed structure
// written as its structure.json, ready for the property recipes.
var Relax = recipe.Register(&recipe.Recipe{
	Name:    "rmr.relax",
	Version: 1,
	Kind:    recipe.KindStructure,
	Help:    "Relax the structure in one or more magnetic starting states.",
	Params: []params.Spec{
		{Name: "states", Type: params.Strings, Default: []string{"nm", "fm", "afm"},
			Help: "magnetic starting states to relax (nm, fm, afm)"},
		{Name: "fmax", Type: params.Float, Default: 0.01,
			Help: "maximum force tolerance in eV/Å"},
	},
	Body: func(ctx context.Context, rc *recipe.RunContext) (any, error) {
		unrelaxed, err := rc.Folder.ReadUnrelaxed()
		if err != nil {
			return nil, err
		}

		energies := map[string]float64{}
		for _, state := range rc.Strings("states") {
			magmoms, err := initialMagmoms(state, len(unrelaxed.Symbols))
			if err != nil {
				return nil, err
			}
			out, err := rc.Engine.Compute(ctx, engine.Task{
				Kind:      engine.TaskRelax,
				Structure: unrelaxed.WithMagmoms(magmoms),
				Parameters: map[string]any{
					"fmax": rc.Float("fmax"),
				},
			})
			if err != nil {
				return nil, fmt.Errorf("relax state %s: %w", state, err)
			}
			if out.Structure == nil {
				return nil, fmt.Errorf("relax state %s: engine returned no structure", state)
			}
			if _, err := rc.Folder.CreateSubfolder(state, *out.Structure); err != nil {
				return nil, err
			}
			energies[state] = out.Energy
		}
		return map[string]any{"energies": energies}, nil
	},
})

// initialMagmoms builds the per-atom starting moments for a magnetic
// state: zeros for nm, aligned for fm, alternating for afm.
func initialMagmoms(state string, natoms int) ([]float64, error) {
	magmoms := make([]float64, natoms)
	switch state {
	case "nm":
	case "fm":
		for i := range magmoms {
			magmoms[i] = 1.0
		}
	case "afm":
		for i := range magmoms {
			if i%2 == 0 {
				magmoms[i] = 1.0
			} else {
				magmoms[i] = -1.0
			}
		}
	default:
		return nil, fmt.Errorf("unknown magnetic state %q", state)
	}
	return magmoms, nil
}
