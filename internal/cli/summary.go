package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/sadopc/focusring/internal/catalog"
	"github.com/sadopc/focusring/internal/day"
	"github.com/sadopc/focusring/internal/suggest"
	"github.com/sadopc/focusring/internal/summary"
)

// outputOptions selects machine-readable output.
type outputOptions struct {
	JSON bool
}

func addOutputArg(cmd *cobra.Command, oo *outputOptions) {
	cmd.Flags().BoolVar(&oo.JSON, "json", false, "Output as JSON.")
}

type summaryOptions struct {
	Advice bool
}

func addSummary(topLevel *cobra.Command, ro *rootOptions) {
	oo := &outputOptions{}
	so := &summaryOptions{}

	cmd := &cobra.Command{
		Use:   "summary [date]",
		Short: "print the focus summary of a day",
		Example: `
focusring summary
focusring summary yesterday --advice
focusring summary 2025-03-14 --json
`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var arg string
			if len(args) > 0 {
				arg = args[0]
			}
			date, err := parseDateArg(arg, time.Now())
			if err != nil {
				return err
			}

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

			snap, err := b.Blocks.GetDay(ctx, date)
			if err != nil {
				return err
			}
			cat, err := b.Blocks.Catalog(ctx)
			if err != nil {
				return err
			}
			d := summary.Compute(snap, cat)

			var advice *suggest.Advice
			if so.Advice {
				src := b.Advice
				if src == nil {
					src = suggest.Local{Days: b.Blocks, Categories: b.Blocks}
				}
				a, err := src.Suggestions(ctx, date)
				if err != nil {
					return err
				}
				advice = &a
			}

			out := cmd.OutOrStdout()
			if oo.JSON {
				return writeSummaryJSON(out, d, summary.Distribution(snap, cat), advice)
			}
			printSummary(out, d, summary.Distribution(snap, cat), cat, advice)
			return nil
		},
	}

	addOutputArg(cmd, oo)
	cmd.Flags().BoolVar(&so.Advice, "advice", false, "Include suggestions for the day.")

	topLevel.AddCommand(cmd)
}

type summaryJSON struct {
	summary.Daily
	Distribution []summary.Share `json:"distribution"`
	Advice       *suggest.Advice `json:"advice,omitempty"`
}

func writeSummaryJSON(w io.Writer, d summary.Daily, shares []summary.Share, advice *suggest.Advice) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(summaryJSON{Daily: d, Distribution: shares, Advice: advice})
}

func printSummary(w io.Writer, d summary.Daily, shares []summary.Share, cat catalog.Catalog, advice *suggest.Advice) {
	bold := color.New(color.Bold, color.Underline)
	good := color.New(color.FgGreen)
	bad := color.New(color.FgRed)

	score := good.Sprintf("%+d", d.FocusScore)
	if d.FocusScore < 0 {
		score = bad.Sprintf("%+d", d.FocusScore)
	}
	avg := "-"
	if d.AvgFocusProductive != nil {
		avg = fmt.Sprintf("%.1f", *d.AvgFocusProductive)
	}

	_, _ = fmt.Fprintln(w, bold.Sprint(d.Date))
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow("Focus score", score)
	tbl.AddRow("Filled", fmt.Sprintf("%d/%d", d.TotalFilled, day.SlotsPerDay))
	tbl.AddRow("Productive", good.Sprintf("%.2fh", d.ProductiveHours), fmt.Sprintf("%d blocks", d.ProductiveBlocks))
	tbl.AddRow("Distracted", bad.Sprintf("%.2fh", d.DistractHours), fmt.Sprintf("%d blocks", d.DistractBlocks))
	tbl.AddRow("Neutral", fmt.Sprintf("%d blocks", d.NeutralBlocks))
	tbl.AddRow("Distract ratio", fmt.Sprintf("%.0f%%", d.DistractRatio*100))
	tbl.AddRow("Deep streak", fmt.Sprintf("%d min", d.DeepStreakMinutes()))
	tbl.AddRow("Context switches", d.ContextSwitches)
	tbl.AddRow("Avg focus", avg)
	if d.UnresolvedBlocks > 0 {
		tbl.AddRow("Unknown codes", color.YellowString("%d blocks", d.UnresolvedBlocks))
	}
	_, _ = fmt.Fprintln(w, tbl)

	if len(shares) > 0 {
		_, _ = fmt.Fprintln(w, "")
		_, _ = fmt.Fprintln(w, bold.Sprint("Distribution"))
		dist := uitable.New()
		dist.Separator = "  "
		for _, s := range shares {
			label := "unknown"
			if c, ok := cat.Lookup(s.Code); ok {
				label = c.Label
			}
			dist.AddRow(s.Code, label, s.Blocks, fmt.Sprintf("%.2fh", s.Hours), fmt.Sprintf("%.0f%%", s.Percentage))
		}
		dist.RightAlign(2)
		_, _ = fmt.Fprintln(w, dist)
	}

	if advice != nil {
		_, _ = fmt.Fprintln(w, "")
		_, _ = fmt.Fprintln(w, bold.Sprint("Suggestions"))
		_, _ = fmt.Fprintln(w, advice.Summary)
		for _, s := range advice.Suggestions {
			_, _ = fmt.Fprintln(w, "  - "+s)
		}
	}
}
