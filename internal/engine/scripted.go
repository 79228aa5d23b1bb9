package engine

import (
	"context"
	"fmt"
)

// Scripted replays canned outputs keyed by task kind. Recipes test against
// it instead of a real simulation code.
type Scripted struct {
	Outputs map[string]Output
	Err     error
	Tasks   []Task
}

func (s *Scripted) Compute(ctx context.Context, task Task) (Output, error) {
	if err := ctx.Err(); err != nil {
		return Output{}, err
	}
	if err := task.Validate(); err != nil {
		return Output{}, err
	}
	s.Tasks = append(s.Tasks, task)
	if s.Err != nil {
		return Output{}, s.Err
	}
	out, ok := s.Outputs[task.Kind]
	if !ok {
		return Output{}, fmt.Errorf("no scripted output for task kind %q", task.Kind)
	}
	return out, nil
}
