package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sadopc/focusring/internal/config"
)

func addConfig(topLevel *cobra.Command, ro *rootOptions) {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "inspect or create the configuration file",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "write the default configuration",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ro.ConfigPath
			if len(args) > 0 {
				path = args[0]
			}
			if path == "" {
				dir, err := config.Dir()
				if err != nil {
					return err
				}
				path = filepath.Join(dir, config.FileName+".yaml")
			}
			if err := config.WriteDefault(path, force); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "wrote", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file.")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(ro.ConfigPath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "backend:   %s\n", cfg.Backend)
			_, _ = fmt.Fprintf(out, "namespace: %s\n", cfg.Namespace)
			switch cfg.Backend {
			case config.BackendSQLite:
				_, _ = fmt.Fprintf(out, "db_path:   %s\n", cfg.DBPath)
			case config.BackendLocal:
				_, _ = fmt.Fprintf(out, "data_dir:  %s\n", cfg.DataDir)
			case config.BackendRemote:
				_, _ = fmt.Fprintf(out, "remote:    %s (timeout %s)\n", cfg.Remote.URL, cfg.Remote.Timeout)
			}
			_, _ = fmt.Fprintf(out, "log:       %s > %s\n", cfg.Log.Level, cfg.Log.File)
			return nil
		},
	}

	cmd.AddCommand(initCmd, showCmd)
	topLevel.AddCommand(cmd)
}
