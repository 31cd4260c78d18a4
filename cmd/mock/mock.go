// Package mock implements the mock command, filling the store with
// demo content for local development.
package mock

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/civicvoice/hearing-go/internal/conf"
	"github.com/civicvoice/hearing-go/internal/datastore"
	"github.com/civicvoice/hearing-go/internal/mockdata"
)

// Command returns the mock subcommand.
func Command(settings *conf.Settings) *cobra.Command {
	var (
		nuke bool
		seed int64
	)

	cmd := &cobra.Command{
		Use:   "mock",
		Short: "Populate the database with demo content",
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := datastore.Open(settings)
			if err != nil {
				return err
			}
			defer func() {
				if err := ds.Close(); err != nil {
					slog.Error("failed to close datastore", "error", err)
				}
			}()

			if nuke {
				slog.Warn("nuking database before generating mock data")
				if err := ds.Nuke(); err != nil {
					return err
				}
			}

			if err := mockdata.New(ds, seed).Generate(cmd.Context()); err != nil {
				return err
			}
			slog.Info("mock data ready", "admin_user", mockdata.AdminUsername)
			return nil
		},
	}

	cmd.Flags().BoolVar(&nuke, "nuke", false, "Drop and re-create all tables first")
	cmd.Flags().Int64Var(&seed, "seed", 42, "Faker seed, same seed yields same content")

	return cmd
}
