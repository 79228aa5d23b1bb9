package recipe

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/rmr-labs/rmr-go/internal/folder"
	"github.com/rmr-labs/rmr-go/internal/params"
)

// Command builds the CLI entry point for one recipe. Flags and positional
// arguments derive from the recipe's parameter specs; only flags the user
// actually set participate in parameter resolution, so folder overrides
// keep their place in the precedence order.
func Command(r *Recipe, rn *Runner, dir *string) *cobra.Command {
	var arguments []params.Spec
	for _, spec := range r.Params {
		if spec.Kind == params.Argument {
			arguments = append(arguments, spec)
		}
	}

	use := r.Name
	for _, arg := range arguments {
		use += fmt.Sprintf(" <%s>", arg.Name)
	}

	cmd := &cobra.Command{
		Use:   use,
		Short: r.Help,
		Args:  cobra.ExactArgs(len(arguments)),
		RunE: func(cmd *cobra.Command, args []string) error {
			kwargs, err := kwargsFromCLI(r, cmd, args, arguments)
			if err != nil {
				return err
			}
			fold, err := folder.Open(*dir)
			if err != nil {
				return err
			}
			record, err := rn.Run(cmd.Context(), r, fold, kwargs)
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(record, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
	cmd.SilenceUsage = true

	for _, spec := range r.Params {
		if spec.Kind != params.Option {
			continue
		}
		registerFlag(cmd, spec)
	}
	return cmd
}

func registerFlag(cmd *cobra.Command, spec params.Spec) {
	help := spec.Help
	if help == "" {
		help = fmt.Sprintf("%s (%s)", spec.Name, spec.Type)
	}
	switch spec.Type {
	case params.Int:
		def, _ := spec.Default.(int)
		cmd.Flags().Int(spec.Name, def, help)
	case params.Float:
		def, _ := spec.Default.(float64)
		cmd.Flags().Float64(spec.Name, def, help)
	case params.Bool:
		def, _ := spec.Default.(bool)
		cmd.Flags().Bool(spec.Name, def, help)
	case params.Strings:
		def, _ := spec.Default.([]string)
		cmd.Flags().StringSlice(spec.Name, def, help)
	default:
		def, _ := spec.Default.(string)
		cmd.Flags().String(spec.Name, def, help)
	}
}

// kwargsFromCLI collects explicit call-time values: every changed flag and
// every positional argument, coerced to the declared types.
func kwargsFromCLI(r *Recipe, cmd *cobra.Command, args []string, arguments []params.Spec) (map[string]any, error) {
	kwargs := map[string]any{}
	for i, spec := range arguments {
		value, err := spec.Coerce(args[i])
		if err != nil {
			return nil, fmt.Errorf("argument %s: %w", spec.Name, err)
		}
		kwargs[spec.Name] = value
	}

	var flagErr error
	cmd.Flags().Visit(func(f *pflag.Flag) {
		spec, ok := findSpec(r, f.Name)
		if !ok {
			return
		}
		raw := f.Value.String()
		if spec.Type == params.Strings {
			raw = strings.Trim(raw, "[]")
		}
		value, err := spec.Coerce(raw)
		if err != nil && flagErr == nil {
			flagErr = fmt.Errorf("option --%s: %w", spec.Name, err)
			return
		}
		kwargs[spec.Name] = value
	})
	if flagErr != nil {
		return nil, flagErr
	}
	return kwargs, nil
}

func findSpec(r *Recipe, name string) (params.Spec, bool) {
	for _, spec := range r.Params {
		if spec.Name == name {
			return spec, true
		}
	}
	return params.Spec{}, false
}
