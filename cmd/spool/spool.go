// Package spoolcmder
package spoolcmder

import (
	"github.com/spf13/cobra"

	exportcmder "github.com/papercomputeco/spool/cmd/spool/export"
	initcmder "github.com/papercomputeco/spool/cmd/spool/init"
	sessionscmder "github.com/papercomputeco/spool/cmd/spool/sessions"
	versioncmder "github.com/papercomputeco/spool/cmd/spool/version"
)

const spoolLongDesc string = `Spool is a versioned message store for agent conversations.

Inspect a record log using:
  spool sessions       List sessions recorded in a store
  spool export         Print the conversation behind a message`

const spoolShortDesc string = "Spool - Versioned Agent Conversations"

func NewSpoolCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "spool",
		Short: spoolShortDesc,
		Long:  spoolLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")

	// Add subcommands
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(sessionscmder.NewSessionsCmd())
	cmd.AddCommand(exportcmder.NewExportCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
