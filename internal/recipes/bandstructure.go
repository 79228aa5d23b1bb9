package recipes

import (
	"context"

	"github.com/rmr-labs/rmr-go/internal/engine"
	"github.com/rmr-labs/rmr-go/internal/params"
	"github.com/rmr-labs/rmr-go/internal/recipe"
)

// BandStructure computes eigenvalues along the standard band path. It
// requires a converged ground state and records it as a dependency.
var BandStructure = recipe.Register(&recipe.Recipe{
	Name:    "rmr.bandstructure",
	Version: 1,
	Kind:    recipe.KindProperty,
	Help:    "Compute the electronic band structure.",
	Params: []params.Spec{
		{Name: "npoints", Type: params.Int, Default: 400,
			Help: "number of k-points along the band path"},
	},
	Body: func(ctx context.Context, rc *recipe.RunContext) (any, error) {
		gs, err := rc.Call(ctx, "rmr.gs", nil)
		if err != nil {
			return nil, err
		}
		s, err := rc.Folder.ReadStructure()
		if err != nil {
			return nil, err
		}
		out, err := rc.Engine.Compute(ctx, engine.Task{
			Kind:      engine.TaskBandStructure,
			Structure: s,
			Parameters: map[string]any{
				"npoints": rc.Int("npoints"),
			},
		})
		if err != nil {
			return nil, err
		}
		fermi, _ := recipe.ResultFloat(gs, "fermi_level")
		return map[string]any{
			"eigenvalues": out.Eigenvalues,
			"fermi_level": fermi,
			"npoints":     rc.Int("npoints"),
		}, nil
	},
})
