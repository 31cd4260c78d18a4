// Package cmd assembles the hearing command line interface.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/civicvoice/hearing-go/cmd/importjson"
	"github.com/civicvoice/hearing-go/cmd/mock"
	"github.com/civicvoice/hearing-go/cmd/serve"
	"github.com/civicvoice/hearing-go/internal/conf"
	"github.com/civicvoice/hearing-go/internal/logging"
)

// RootCommand creates and returns the root command with all
// subcommands attached.
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "hearing",
		Short:   "Public consultation hearing platform",
		Version: settings.Version,
	}

	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", settings.Debug, "Enable debug output")

	rootCmd.AddCommand(
		serve.Command(settings),
		importjson.Command(settings),
		mock.Command(settings),
	)

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		logging.SetDebug(settings.Debug)
	}

	return rootCmd
}
