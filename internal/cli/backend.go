package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sadopc/focusring/internal/api"
	"github.com/sadopc/focusring/internal/config"
	"github.com/sadopc/focusring/internal/day"
	"github.com/sadopc/focusring/internal/localstore"
	"github.com/sadopc/focusring/internal/recent"
	"github.com/sadopc/focusring/internal/remote"
	"github.com/sadopc/focusring/internal/store"
	"github.com/sadopc/focusring/internal/suggest"
)

// backend is an opened block store with the pieces the commands need.
type backend struct {
	Blocks api.Backend
	Recent recent.Storage
	// Advice is nil when the local rules should be used.
	Advice suggest.Source
	close  func() error
}

func (b *backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// openBackend opens the store selected by cfg.Backend.
func openBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*backend, error) {
	switch cfg.Backend {
	case config.BackendSQLite:
		s, err := store.New(cfg.DBPath, store.WithNamespace(cfg.Namespace))
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		logger.Debug("opened sqlite store", slog.String("path", cfg.DBPath))
		return &backend{Blocks: s, Recent: s, close: s.Close}, nil

	case config.BackendLocal:
		s, err := localstore.Open(cfg.DataDir, localstore.WithNamespace(cfg.Namespace))
		if err != nil {
			return nil, fmt.Errorf("open local store: %w", err)
		}
		logger.Debug("opened local store", slog.String("dir", cfg.DataDir))
		return &backend{Blocks: s, Recent: s}, nil

	case config.BackendRemote:
		c, err := remote.New(cfg.Remote.URL,
			remote.WithHTTPClient(&http.Client{Timeout: cfg.Remote.Timeout}),
			remote.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		if err := c.Health(ctx); err != nil {
			// A down server is reported again on every request.
			logger.Warn("remote health check", slog.String("url", cfg.Remote.URL), slog.String("error", err.Error()))
		}
		// The recent list stays on this device.
		ls, err := localstore.Open(cfg.DataDir, localstore.WithNamespace(cfg.Namespace))
		if err != nil {
			return nil, fmt.Errorf("open recent storage: %w", err)
		}
		return &backend{Blocks: c, Recent: ls, Advice: c}, nil
	}
	return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}

// parseDateArg accepts YYYY-MM-DD, "today" and "yesterday".
func parseDateArg(s string, now time.Time) (string, error) {
	switch strings.ToLower(s) {
	case "", "today":
		return day.FormatDate(now), nil
	case "yesterday":
		return day.AddDays(day.FormatDate(now), -1)
	}
	if _, err := day.ParseDate(s); err != nil {
		return "", err
	}
	return s, nil
}

// parseSlotArg accepts a slot index or an HH:MM time inside the day.
func parseSlotArg(s string) (int, error) {
	if strings.Contains(s, ":") {
		return day.SlotForTime(s)
	}
	slot, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("slot %q is neither an index nor HH:MM", s)
	}
	if err := day.ValidateSlot(slot); err != nil {
		return 0, err
	}
	return slot, nil
}
