package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/focusring/internal/config"
	"github.com/sadopc/focusring/internal/controller"
	"github.com/sadopc/focusring/internal/logging"
	"github.com/sadopc/focusring/internal/recent"
	"github.com/sadopc/focusring/internal/tui"
)

// loadConfig reads configuration and builds a stderr logger for the
// non-interactive commands.
func loadConfig(o *rootOptions) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logging.New(os.Stderr, cfg.Log.Level), nil
}

func newController(ctx context.Context, b *backend, logger *slog.Logger) (*controller.Controller, error) {
	return controller.New(ctx, controller.Options{
		Store:   b.Blocks,
		Catalog: b.Blocks,
		Recent:  recent.New(b.Recent),
		Advice:  b.Advice,
		Logger:  logger,
	})
}

// runUI opens the TUI. Logs go to the configured file because the alt
// screen owns the terminal.
func runUI(ctx context.Context, o *rootOptions) error {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return err
	}
	logger, closeLog, err := logging.OpenFile(cfg.Log.File, cfg.Log.Level)
	if err != nil {
		return err
	}
	defer closeLog()

	b, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer b.Close()

	ctrl, err := newController(ctx, b, logger)
	if err != nil {
		return fmt.Errorf("load day: %w", err)
	}

	logger.Info("starting ui", slog.String("backend", cfg.Backend), slog.String("date", ctrl.Date()))
	p := tea.NewProgram(tui.NewApp(ctx, ctrl, logger), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}
