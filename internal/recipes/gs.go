package recipes

import (
	"context"

	"github.com/rmr-labs/rmr-go/internal/engine"
	"github.com/rmr-labs/rmr-go/internal/params"
	"github.com/rmr-labs/rmr-go/internal/recipe"
)

// GroundState computes the self-consistent ground state of the folder's
// relaxed structure. Version 1 added the calculator parameter; records
// written by version 0 are upgraded by the registered migration.
var GroundState = recipe.Register(&recipe.Recipe{
	Name:    "rmr.gs",
	Version: 1,
	Kind:    recipe.KindProperty,
	Help:    "Compute the electronic ground state.",
	Params: []params.Spec{
		{Name: "ecut", Type: params.Float, Default: 600.0,
			Help: "plane-wave cutoff in eV"},
		{Name: "kptdensity", Type: params.Float, Default: 6.0,
			Help: "k-point density in points per Å⁻¹"},
		{Name: "calculator", Type: params.String, Default: "gpaw",
			Help: "simulation code backend"},
	},
	Body: func(ctx context.Context, rc *recipe.RunContext) (any, error) {
		s, err := rc.Folder.ReadStructure()
		if err != nil {
			return nil, err
		}
		out, err := rc.Engine.Compute(ctx, engine.Task{
			Kind:      engine.TaskGroundState,
			Structure: s,
			Parameters: map[string]any{
				"ecut":       rc.Float("ecut"),
				"kptdensity": rc.Float("kptdensity"),
				"calculator": rc.String("calculator"),
			},
		})
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"etot":        out.Energy,
			"gap":         out.Gap,
			"fermi_level": out.FermiLevel,
			"magmom":      out.Magmom,
		}, nil
	},
})
