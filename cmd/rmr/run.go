package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rmr-labs/rmr-go/internal/folder"
	"github.com/rmr-labs/rmr-go/internal/recipe"
	"github.com/rmr-labs/rmr-go/internal/repo/folderstore"
)

// newRunCommand mounts one subcommand per registered recipe.
func newRunCommand(runner *recipe.Runner, dir *string) *cobra.Command {
	run := &cobra.Command{
		Use:   "run",
		Short: "Run a recipe in the current folder",
	}
	for _, r := range recipe.All() {
		run.AddCommand(recipe.Command(r, runner, dir))
	}
	return run
}

func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available recipes",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, r := range recipe.All() {
				fmt.Fprintf(cmd.OutOrStdout(), "%-20s %s\n", r.Name, r.Help)
			}
			return nil
		},
	}
}

func newResultsCommand(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "results [recipe]",
		Short: "Show the records stored in the current folder",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fold, err := folder.Open(*dir)
			if err != nil {
				return err
			}
			store := folderstore.New(fold)

			if len(args) == 1 {
				record, err := store.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd, record)
			}

			records, err := store.Select(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, records)
		},
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
