// Package importjson implements the import command, loading legacy
// JSON archives into the store.
package importjson

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/civicvoice/hearing-go/internal/conf"
	"github.com/civicvoice/hearing-go/internal/datastore"
	"github.com/civicvoice/hearing-go/internal/importing"
	"github.com/civicvoice/hearing-go/internal/observability"
)

// Command returns the import subcommand.
func Command(settings *conf.Settings) *cobra.Command {
	var nuke bool

	cmd := &cobra.Command{
		Use:   "import [file.json...]",
		Short: "Import hearings from legacy JSON archives",
		Args:  cobra.MinimumNArgs(1),
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
				slog.Warn("nuking database before import")
				if err := ds.Nuke(); err != nil {
					return err
				}
			}

			importer := importing.New(ds, settings.Import.Force, observability.NewMetrics())
			for _, path := range args {
				hearings, err := importer.ImportFile(cmd.Context(), path)
				if err != nil {
					return err
				}
				slog.Info("import finished", "file", path, "hearings", len(hearings))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&settings.Import.Force, "force", false, "Import colliding hearings under a mutated slug instead of skipping")
	cmd.Flags().BoolVar(&nuke, "nuke", false, "Drop and re-create all tables before importing")

	return cmd
}
