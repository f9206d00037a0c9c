package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"recipeapp/internal/app"
	"recipeapp/internal/service"
)

// opener builds the application against the configured database and image store.
type opener func(ctx context.Context) (*app.App, error)

func newRootCmd(open opener) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "recipectl",
		Short:         "Maintenance commands for the recipe service",
		Long:          `recipectl runs against the same database and image store as the server, using the same environment configuration.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newBootstrapCmd(open),
		newUsersCmd(open),
		newExportCmd(open),
		newImportCmd(open),
		newResetCmd(open),
	)
	return rootCmd
}

// withApp opens the application for the duration of fn.
func withApp(cmd *cobra.Command, open opener, fn func(ctx context.Context, a *app.App) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := open(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func newBootstrapCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "bootstrap",
		Short: "Create the default admin and user accounts if they are missing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, open, func(ctx context.Context, a *app.App) error {
				created, err := a.Users.Bootstrap(ctx, a.Config.BootstrapPassword)
				if err != nil {
					return err
				}
				if len(created) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Default accounts already exist")
					return nil
				}
				for _, name := range created {
					fmt.Fprintf(cmd.OutOrStdout(), "Created account %s\n", name)
				}
				return nil
			})
		},
	}
}

func newUsersCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List registered accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, open, func(ctx context.Context, a *app.App) error {
				users, err := a.Users.ListUsers(ctx)
				if err != nil {
					return err
				}
				_, err = io.WriteString(cmd.OutOrStdout(), service.FormatUserListing(users))
				return err
			})
		},
	}
}

func newExportCmd(open opener) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every recipe as JSON",
		Long:  `Writes the same JSON document served by GET /api/export. Image bytes are not included.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, open, func(ctx context.Context, a *app.App) error {
				records, err := a.Recipes.Export(ctx)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if output != "" {
					f, err := os.Create(output)
					if err != nil {
						return fmt.Errorf("create %s: %w", output, err)
					}
					defer f.Close()
					out = f
				}

				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(records)
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write to a file instead of stdout")
	return cmd
}

func newImportCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "import [file]",
		Short: "Create recipes from an export document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var records []service.ExportRecord
			if err := json.Unmarshal(raw, &records); err != nil {
				return fmt.Errorf("parse %s: %w", args[0], err)
			}

			return withApp(cmd, open, func(ctx context.Context, a *app.App) error {
				result, err := a.Recipes.Import(ctx, records)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d recipes\n", result.Imported)
				for _, f := range result.Failed {
					fmt.Fprintf(cmd.OutOrStdout(), "  skipped #%d %q: %s\n", f.Index, f.Title, f.Error)
				}
				return nil
			})
		},
	}
}

var errResetNotConfirmed = errors.New("reset deletes every recipe and image; rerun with --yes to confirm")

func newResetCmd(open opener) *cobra.Command {
	var confirmed bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete every recipe and stored image",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !confirmed {
				return errResetNotConfirmed
			}
			return withApp(cmd, open, func(ctx context.Context, a *app.App) error {
				result, err := a.Recipes.Reset(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Data reset complete. Recipes deleted: %d, images deleted: %d\n",
					result.RecipesDeleted, result.ImagesDeleted)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&confirmed, "yes", false, "confirm the reset")
	return cmd
}
