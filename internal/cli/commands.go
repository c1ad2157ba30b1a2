// Package cli holds the focusring cobra commands.
package cli

import (
	"github.com/spf13/cobra"
)

// Version is stamped at build time with -ldflags "-X ...cli.Version=v1.2.3".
var Version = "dev"

// rootOptions are the flags every command shares.
type rootOptions struct {
	ConfigPath string
}

func addRootArgs(cmd *cobra.Command, o *rootOptions) {
	cmd.PersistentFlags().StringVar(&o.ConfigPath, "config", "",
		"Path to focusring.yaml (default: ./focusring.yaml or the user config dir).")
}

// New returns the root command. Without a subcommand it opens the TUI.
func New() *cobra.Command {
	o := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "focusring",
		Short: "Track a day as 80 fifteen-minute blocks and score its focus.",
		Example: `
focusring
focusring summary 2025-03-14
focusring set today 09:30 --category STUDY --focus 4
focusring serve
`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUI(cmd.Context(), o)
		},
	}
	addRootArgs(cmd, o)

	addCommands(cmd, o)
	return cmd
}

func addCommands(topLevel *cobra.Command, o *rootOptions) {
	addServe(topLevel, o)
	addSummary(topLevel, o)
	addSet(topLevel, o)
	addStats(topLevel, o)
	addConfig(topLevel, o)
	addVersion(topLevel)
}
