package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rmr-labs/rmr-go/internal/queue"
	"github.com/rmr-labs/rmr-go/internal/recipe"
)

func newSubmitCommand() *cobra.Command {
	var resources string

	cmd := &cobra.Command{
		Use:   "submit <recipe> <folder>...",
		Short: "Queue a recipe run for one or more folders",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := recipe.Get(args[0]); err != nil {
				return err
			}
			res, err := queue.ParseResources(resources)
			if err != nil {
				return err
			}

			submitter := queue.FromEnv()
			for _, fold := range args[1:] {
				abs, err := filepath.Abs(fold)
				if err != nil {
					return err
				}
				submission := queue.Submission{Recipe: args[0], Folder: abs, Resources: res}
				if err := submitter.Submit(cmd.Context(), submission); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "queued %s\n", submission)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&resources, "resources", "1:10h", "cores:walltime to request, e.g. 24:10h")
	return cmd
}
