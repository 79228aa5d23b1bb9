package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/spf13/cobra"

	"github.com/rmr-labs/rmr-go/internal/database"
	"github.com/rmr-labs/rmr-go/internal/platform/auth"
	"github.com/rmr-labs/rmr-go/internal/platform/httpserver"
	"github.com/rmr-labs/rmr-go/internal/platform/objectstore"
	"github.com/rmr-labs/rmr-go/internal/platform/postgres"
	repopg "github.com/rmr-labs/rmr-go/internal/repo/postgres"
)

func newDatabaseCommand(logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "database",
		Short: "Aggregate, publish and browse project databases",
	}
	cmd.AddCommand(
		newDatabaseCollectCommand(logger),
		newDatabaseAppCommand(logger),
		newDatabaseIndexCommand(logger),
		newDatabasePublishCommand(),
		newDatabaseFetchCommand(),
	)
	return cmd
}

func newDatabaseCollectCommand(logger *slog.Logger) *cobra.Command {
	var name, title, out string

	cmd := &cobra.Command{
		Use:   "collect <tree>",
		Short: "Scan a folder tree into a project file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := database.Scan(cmd.Context(), args[0], logger)
			if err != nil {
				return err
			}

			project := database.FromScan(name, title, rows)
			if out == "" {
				out = name + ".yaml"
			}
			if err := project.WriteFile(out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s with %d rows\n", out, len(rows))
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "project", "project name")
	cmd.Flags().StringVar(&title, "title", "", "project title shown in the browser")
	cmd.Flags().StringVar(&out, "out", "", "output file (defaults to <name>.yaml)")
	return cmd
}

func newDatabaseAppCommand(logger *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "app <project.yaml>...",
		Short: "Serve projects over HTTP",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := database.LoadAppConfig()
			if err != nil {
				return err
			}

			app := database.NewApp(logger)
			for _, path := range args {
				project, err := database.FromFile(path)
				if err != nil {
					return err
				}
				if err := app.AddProject(project); err != nil {
					return err
				}
				logger.Info("loaded project", "project", project.Name, "file", path)
			}

			authCfg, err := auth.ConfigFromEnv()
			if err != nil {
				return err
			}
			authenticator, err := auth.NewAuthenticator(cmd.Context(), authCfg)
			if err != nil {
				return err
			}

			mux := http.NewServeMux()
			mux.HandleFunc("/healthz", httpserver.Healthz("browser"))
			mux.HandleFunc("/readyz", httpserver.Readyz("browser"))
			app.Register(mux)

			handler := auth.Middleware{
				Logger:        logger,
				Authenticator: authenticator,
				SkipPrefixes:  []string{"/healthz", "/readyz"},
			}.Handler(mux)

			return httpserver.Run(cmd.Context(), logger, httpserver.Config{
				Service:         "browser",
				Addr:            cfg.Addr,
				ShutdownTimeout: cfg.ShutdownTimeout,
			}, httpserver.Wrap(logger, "browser", handler))
		},
	}
}

func newDatabaseIndexCommand(logger *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "index <project.yaml>",
		Short: "Index a project in PostgreSQL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			project, err := database.FromFile(args[0])
			if err != nil {
				return err
			}

			dbCfg, err := postgres.ConfigFromEnv()
			if err != nil {
				return err
			}
			db, err := postgres.Open(cmd.Context(), dbCfg)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			store := repopg.NewIndexStore(db)
			if err := store.EnsureSchema(cmd.Context()); err != nil {
				return err
			}
			if err := store.ReplaceProject(cmd.Context(), project); err != nil {
				return err
			}
			logger.Info("indexed project", "project", project.Name, "rows", len(project.Rows))
			return nil
		},
	}
}

func newDatabasePublishCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "publish <project.yaml>",
		Short: "Upload a project to the object store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			project, err := database.FromFile(args[0])
			if err != nil {
				return err
			}

			client, cfg, err := openObjectStore(cmd)
			if err != nil {
				return err
			}
			if err := database.Publish(cmd.Context(), client, cfg, project); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "published %s (%d rows)\n", project.Name, len(project.Rows))
			return nil
		},
	}
}

func newDatabaseFetchCommand() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "fetch <name>",
		Short: "Download a published project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, cfg, err := openObjectStore(cmd)
			if err != nil {
				return err
			}
			project, err := database.Fetch(cmd.Context(), client, cfg, args[0])
			if err != nil {
				return err
			}
			if out == "" {
				out = project.Name + ".yaml"
			}
			if err := project.WriteFile(out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "fetched %s into %s\n", project.Name, out)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "output file (defaults to <name>.yaml)")
	return cmd
}

func openObjectStore(cmd *cobra.Command) (*minio.Client, objectstore.Config, error) {
	cfg, err := objectstore.ConfigFromEnv()
	if err != nil {
		return nil, objectstore.Config{}, err
	}
	client, err := objectstore.NewMinIOClient(cfg)
	if err != nil {
		return nil, objectstore.Config{}, err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
	defer cancel()
	if err := objectstore.EnsureBuckets(ctx, client, cfg); err != nil {
		return nil, objectstore.Config{}, err
	}
	return client, cfg, nil
}
