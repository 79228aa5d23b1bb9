package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"github.com/rmr-labs/rmr-go/internal/platform/env"
)

// Command invokes an external engine binary: the task goes to stdin as
// JSON, the output comes back on stdout as JSON. Anything on stderr is
// folded into the returned error.
type Command struct {
	Bin  string
	Args []string
}

// FromEnv builds the engine configured by RMR_ENGINE_COMMAND, defaulting
// to an `rmr-engine` binary on PATH.
func FromEnv() Command {
	raw := env.String("RMR_ENGINE_COMMAND", "rmr-engine")
	parts := strings.Fields(raw)
	cmd := Command{Bin: parts[0]}
	if len(parts) > 1 {
		cmd.Args = parts[1:]
	}
	return cmd
}

func (c Command) Compute(ctx context.Context, task Task) (Output, error) {
	if err := task.Validate(); err != nil {
		return Output{}, err
	}
	input, err := json.Marshal(task)
	if err != nil {
		return Output{}, fmt.Errorf("encode task: %w", err)
	}

	cmd := exec.CommandContext(ctx, c.Bin, c.Args...)
	cmd.Stdin = bytes.NewReader(input)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return Output{}, fmt.Errorf("engine %s: %w: %s", c.Bin, err, msg)
		}
		return Output{}, fmt.Errorf("engine %s: %w", c.Bin, err)
	}

	var out Output
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		return Output{}, fmt.Errorf("decode engine output: %w", err)
	}
	return out, nil
}
