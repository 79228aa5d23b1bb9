package recipes

import (
	"context"
	"fmt"
	"math"

	"github.com/rmr-labs/rmr-go/internal/recipe"
)

// magmomThreshold separates non-magnetic from magnetic ground states.
const magmomThreshold = 0.1

// MagState classifies the magnetic state from the ground-state total
// magnetic moment. It invokes rmr.gs in the same folder, so the ground
// state record becomes a dependency of this one.
var MagState = recipe.Register(&recipe.Recipe{
	Name:    "rmr.magstate",
	Version: 1,
	Kind:    recipe.KindProperty,
	Help:    "Classify the magnetic state of the ground state.",
	Body: func(ctx context.Context, rc *recipe.RunContext) (any, error) {
		gs, err := rc.Call(ctx, "rmr.gs", nil)
		if err != nil {
			return nil, err
		}
		magmom, ok := recipe.ResultFloat(gs, "magmom")
		if !ok {
			return nil, fmt.Errorf("ground state record %s has no magmom", gs.UID())
		}

		state := "fm"
		if math.Abs(magmom) < magmomThreshold {
			state = "nm"
		}
		return map[string]any{
			"magstate":    state,
			"is_magnetic": state != "nm",
			"magmom":      magmom,
		}, nil
	},
})
