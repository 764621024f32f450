// Package platelogcmder
package platelogcmder

import (
	servecmder "github.com/papercomputeco/platelog/cmd/platelog/serve"
	versioncmder "github.com/papercomputeco/platelog/cmd/version"
	"github.com/spf13/cobra"
)

const platelogLongDesc string = `Platelog is a conversational nutrition-logging service.

Run services using:
  platelog serve       Run the ingest API server`

const platelogShortDesc string = "Platelog - Conversational Nutrition Logging"

func NewPlatelogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "platelog",
		Short: platelogShortDesc,
		Long:  platelogLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")

	// Add subcommands
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
