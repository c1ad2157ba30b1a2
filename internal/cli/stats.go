package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/sadopc/focusring/internal/localstore"
	"github.com/sadopc/focusring/internal/remote"
	"github.com/sadopc/focusring/internal/store"
)

func addStats(topLevel *cobra.Command, ro *rootOptions) {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "print storage statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(ro)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			b, err := openBackend(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer b.Close()

			out := cmd.OutOrStdout()
			switch s := b.Blocks.(type) {
			case *store.Store:
				st, err := s.Stats(ctx)
				if err != nil {
					return err
				}
				printStats(out, st)
			case *remote.Client:
				r, err := s.Stats(ctx)
				if err != nil {
					return err
				}
				printStats(out, r.Database)
			case *localstore.Store:
				dates := s.Dates(ctx)
				_, _ = fmt.Fprintf(out, "%d days recorded in %s\n", len(dates), cfg.DataDir)
			default:
				return fmt.Errorf("stats are not available for the %s backend", cfg.Backend)
			}
			return nil
		},
	}
	topLevel.AddCommand(cmd)
}

func printStats(w io.Writer, st store.Stats) {
	bold := color.New(color.Bold)
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow(bold.Sprint("Blocks"), st.TotalBlocks)
	tbl.AddRow(bold.Sprint("Filled"), fmt.Sprintf("%d (%.0f%%)", st.FilledBlocks, st.FillRate*100))
	tbl.AddRow(bold.Sprint("First day"), st.FirstDate)
	tbl.AddRow(bold.Sprint("Last day"), st.LastDate)
	tbl.AddRow(bold.Sprint("Categories"), st.TotalCategories)
	_, _ = fmt.Fprintln(w, tbl)
}
