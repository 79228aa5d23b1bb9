package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/rmr-labs/rmr-go/internal/folder"
	"github.com/rmr-labs/rmr-go/internal/migration"
	"github.com/rmr-labs/rmr-go/internal/repo/folderstore"
)

func newMigrateCommand(logger *slog.Logger, dir *string) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Upgrade the records in the current folder to the latest versions",
		RunE: func(cmd *cobra.Command, args []string) error {
			fold, err := folder.Open(*dir)
			if err != nil {
				return err
			}

			report, err := migration.Run(cmd.Context(), folderstore.New(fold), migration.All(), dryRun, logger)
			if err != nil {
				return err
			}

			verb := "migrated"
			if dryRun {
				verb = "would migrate"
			}
			for _, step := range report.Applied {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", verb, step)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d applied, %d up to date\n", len(report.Applied), report.Skipped)
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report pending migrations without applying them")
	return cmd
}
