package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sadopc/focusring/internal/api"
	"github.com/sadopc/focusring/internal/day"
	"github.com/sadopc/focusring/internal/recent"
)

type setOptions struct {
	Category string
	Focus    int
	Memo     string
	Clear    bool
}

// update turns the flags that were given into a partial write. An empty
// --category or --memo and --focus 0 clear that field.
func (so *setOptions) update(cmd *cobra.Command) (day.Update, error) {
	flags := cmd.Flags()
	if so.Clear {
		if flags.Changed("category") || flags.Changed("focus") || flags.Changed("memo") {
			return day.Update{}, errors.New("--clear cannot be combined with other fields")
		}
		return day.ClearAll(), nil
	}

	var u day.Update
	if flags.Changed("category") {
		if so.Category == "" {
			u.Category = day.Null[string]()
		} else {
			u.Category = day.Set(so.Category)
		}
	}
	if flags.Changed("focus") {
		if so.Focus == 0 {
			u.Focus = day.Null[int]()
		} else {
			u.Focus = day.Set(so.Focus)
		}
	}
	if flags.Changed("memo") {
		if so.Memo == "" {
			u.Memo = day.Null[string]()
		} else {
			u.Memo = day.Set(so.Memo)
		}
	}
	if u.Empty() {
		return day.Update{}, errors.New("nothing to set: pass --category, --focus, --memo or --clear")
	}
	return u, u.Validate()
}

func addSet(topLevel *cobra.Command, ro *rootOptions) {
	so := &setOptions{}

	cmd := &cobra.Command{
		Use:   "set <date> <slot|HH:MM>...",
		Short: "write blocks; fields that are not given are kept",
		Example: `
focusring set today 09:30 --category STUDY --focus 4
focusring set today 09:00 09:15 09:30 --category WORK
focusring set 2025-03-14 12 --memo "lunch call"
focusring set yesterday 22:15 --category ""
focusring set today 10:00 --clear
`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := parseDateArg(args[0], time.Now())
			if err != nil {
				return err
			}
			slots := make([]int, 0, len(args)-1)
			for _, arg := range args[1:] {
				slot, err := parseSlotArg(arg)
				if err != nil {
					return err
				}
				slots = append(slots, slot)
			}
			u, err := so.update(cmd)
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

			if err := writeBlocks(ctx, b.Blocks, date, slots, u); err != nil {
				return err
			}
			if code, ok := u.Category.Value(); ok {
				t := recent.New(b.Recent)
				if err := t.Load(ctx); err == nil {
					err = t.RecordUse(ctx, code)
				}
				if err != nil {
					logger.Warn("save recent categories", slog.String("error", err.Error()))
				}
			}

			snap, err := b.Blocks.GetDay(ctx, date)
			if err != nil {
				return err
			}
			for _, slot := range slots {
				blk, _ := snap.Block(slot)
				printBlock(cmd.OutOrStdout(), blk)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&so.Category, "category", "", "Category code; empty clears it.")
	cmd.Flags().IntVar(&so.Focus, "focus", 0, fmt.Sprintf("Focus %d-%d; 0 clears it.", day.MinFocus, day.MaxFocus))
	cmd.Flags().StringVar(&so.Memo, "memo", "", "Free-text memo; empty clears it.")
	cmd.Flags().BoolVar(&so.Clear, "clear", false, "Clear category, focus and memo.")

	topLevel.AddCommand(cmd)
}

// bulkWriter is implemented by backends that take many blocks per request.
type bulkWriter interface {
	SetBlocks(ctx context.Context, blocks []api.BlockRequest) (api.BulkResponse, error)
}

func writeBlocks(ctx context.Context, bs api.Backend, date string, slots []int, u day.Update) error {
	if bw, ok := bs.(bulkWriter); ok && len(slots) > 1 {
		reqs := make([]api.BlockRequest, 0, len(slots))
		for _, slot := range slots {
			reqs = append(reqs, api.BlockRequest{Date: date, Slot: slot, Update: u})
		}
		r, err := bw.SetBlocks(ctx, reqs)
		if err != nil {
			return err
		}
		if r.Processed != r.Requested {
			return fmt.Errorf("server wrote %d of %d blocks", r.Processed, r.Requested)
		}
		return nil
	}
	for _, slot := range slots {
		if err := bs.SetBlock(ctx, date, slot, u); err != nil {
			return err
		}
	}
	return nil
}

func printBlock(w io.Writer, b day.Block) {
	faint := color.New(color.Faint)
	cat, focus, memo := "-", "-", ""
	if b.Category != nil {
		cat = color.New(color.Bold).Sprint(*b.Category)
	}
	if b.Focus != nil {
		focus = fmt.Sprint(*b.Focus)
	}
	if b.Memo != nil {
		memo = *b.Memo
	}
	_, _ = fmt.Fprintf(w, "%s %s  %s  focus %s  %s\n", b.Date, faint.Sprint(b.StartTime), cat, focus, memo)
}
