// Command rmr runs recipes in material folders, migrates their records
// and aggregates them into browsable project databases.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rmr-labs/rmr-go/internal/engine"
	"github.com/rmr-labs/rmr-go/internal/platform/env"
	"github.com/rmr-labs/rmr-go/internal/recipe"
	_ "github.com/rmr-labs/rmr-go/internal/recipes"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	ctx := context.Background()
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand(logger).ExecuteContext(ctx); err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func newRootCommand(logger *slog.Logger) *cobra.Command {
	var dir string

	root := &cobra.Command{
		Use:           "rmr",
		Short:         "Recipes for materials research",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&dir, "directory", "C", ".", "material folder to operate in")

	ncores, err := env.Int("RMR_NCORES", 1)
	if err != nil {
		ncores = 1
	}
	runner := &recipe.Runner{
		Engine: engine.FromEnv(),
		Logger: logger,
		NCores: ncores,
	}

	root.AddCommand(
		newRunCommand(runner, &dir),
		newListCommand(),
		newResultsCommand(&dir),
		newMigrateCommand(logger, &dir),
		newSubmitCommand(),
		newDatabaseCommand(logger),
	)
	return root
}
