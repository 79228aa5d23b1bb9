// Package engine is the boundary to the external simulation code. The
// engine is an external collaborator invoked as an opaque command; this
// package only shapes tasks and outputs and never interprets failures.
package engine

import (
	"context"
	"errors"

	"github.com/rmr-labs/rmr-go/internal/structure"
)

// Task kinds understood by the engine.
const (
	TaskRelax         = "relax"
	TaskGroundState   = "groundstate"
	TaskBandStructure = "bandstructure"
)

// Task is one unit of work sent to the engine.
type Task struct {
	Kind       string              `json:"kind"`
	Structure  structure.Structure `json:"structure"`
	Parameters map[string]any      `json:"parameters,omitempty"`
}

func (t Task) Validate() error {
	if t.Kind == "" {
		return errors.New("task kind is required")
	}
	return t.Structure.Validate()
}

// Output is what the engine hands back for one task. Which fields are
// populated depends on the task kind.
type Output struct {
	Structure   *structure.Structure `json:"structure,omitempty"`
	Energy      float64              `json:"energy"`
	Gap         float64              `json:"gap,omitempty"`
	FermiLevel  float64              `json:"fermi_level,omitempty"`
	Magmom      float64              `json:"magmom,omitempty"`
	Eigenvalues [][]float64          `json:"eigenvalues,omitempty"`
}

// Engine runs simulation tasks. Failures propagate to the caller
// unchanged; nothing here retries or reinterprets them.
type Engine interface {
	Compute(ctx context.Context, task Task) (Output, error)
}
