package domain

import (
	"fmt"
	"time"
)

// Resources records what one run consumed. Informational only; the single
// invariant is non-negativity.
type Resources struct {
	ExecutionStart    time.Time `json:"execution_start"`
	ExecutionEnd      time.Time `json:"execution_end"`
	ExecutionDuration float64   `json:"execution_duration"`
	NCores            int       `json:"ncores"`
}

// MeasureResources stamps a Resources from a start/end pair.
func MeasureResources(start, end time.Time, ncores int) Resources {
	return Resources{
		ExecutionStart:    start.UTC(),
		ExecutionEnd:      end.UTC(),
		ExecutionDuration: end.Sub(start).Seconds(),
		NCores:            ncores,
	}
}

func (r Resources) Validate() error {
	if r.ExecutionDuration < 0 {
		return fmt.Errorf("execution duration must be >= 0, got %f", r.ExecutionDuration)
	}
	if r.NCores < 0 {
		return fmt.Errorf("ncores must be >= 0, got %d", r.NCores)
	}
	if !r.ExecutionEnd.IsZero() && r.ExecutionEnd.Before(r.ExecutionStart) {
		return fmt.Errorf("execution end %s precedes start %s", r.ExecutionEnd, r.ExecutionStart)
	}
	return nil
}
