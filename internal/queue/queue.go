// Package queue hands recipe runs to an external workload manager. The
// submission command is configurable; the default targets a myqueue-style
// `mq submit` interface.
package queue

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/rmr-labs/rmr-go/internal/platform/env"
)

// Resources is a compact cores-and-walltime request, written "24:10h".
type Resources struct {
	Cores    int
	Walltime time.Duration
}

// ParseResources parses "cores:walltime", e.g. "24:10h" or "8:30m".
func ParseResources(raw string) (Resources, error) {
	parts := strings.SplitN(strings.TrimSpace(raw), ":", 2)
	if len(parts) != 2 {
		return Resources{}, fmt.Errorf("invalid resources %q: expected cores:walltime", raw)
	}
	cores, err := strconv.Atoi(parts[0])
	if err != nil || cores < 1 {
		return Resources{}, fmt.Errorf("invalid core count in %q", raw)
	}
	walltime, err := time.ParseDuration(parts[1])
	if err != nil || walltime <= 0 {
		return Resources{}, fmt.Errorf("invalid walltime in %q", raw)
	}
	return Resources{Cores: cores, Walltime: walltime}, nil
}

func (r Resources) String() string {
	return fmt.Sprintf("%d:%s", r.Cores, r.Walltime)
}

func (r Resources) Validate() error {
	if r.Cores < 1 {
		return errors.New("cores must be >= 1")
	}
	if r.Walltime <= 0 {
		return errors.New("walltime must be positive")
	}
	return nil
}

// Submission is one recipe invocation queued for a folder.
type Submission struct {
	Recipe    string
	Folder    string
	Resources Resources
}

func (s Submission) Validate() error {
	if strings.TrimSpace(s.Recipe) == "" {
		return errors.New("recipe is required")
	}
	if strings.TrimSpace(s.Folder) == "" {
		return errors.New("folder is required")
	}
	return s.Resources.Validate()
}

// Args builds the argument list appended to the submit command.
func (s Submission) Args() []string {
	return []string{
		"--resources", s.Resources.String(),
		"--folder", s.Folder,
		"rmr", "run", s.Recipe,
	}
}

func (s Submission) String() string {
	return fmt.Sprintf("%s in %s (%s)", s.Recipe, s.Folder, s.Resources)
}

// Submitter queues submissions with an external command.
type Submitter struct {
	Command []string
}

// FromEnv reads RMR_QUEUE_COMMAND, defaulting to "mq submit".
func FromEnv() *Submitter {
	raw := env.String("RMR_QUEUE_COMMAND", "mq submit")
	return &Submitter{Command: strings.Fields(raw)}
}

func (q *Submitter) Submit(ctx context.Context, s Submission) error {
	if len(q.Command) == 0 {
		return errors.New("no submit command configured")
	}
	if err := s.Validate(); err != nil {
		return err
	}

	args := append(append([]string{}, q.Command[1:]...), s.Args()...)
	cmd := exec.CommandContext(ctx, q.Command[0], args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("submit %s: %w: %s", s, err, strings.TrimSpace(string(out)))
	}
	return nil
}
