package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"git.home.luguber.info/inful/mdpage/internal/config"
	"git.home.luguber.info/inful/mdpage/internal/eventstore"
	ferrors "git.home.luguber.info/inful/mdpage/internal/foundation/errors"
	"git.home.luguber.info/inful/mdpage/internal/logfields"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int `short:"n" default:"20" help:"Number of builds to show"`
}

func (h *HistoryCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}

	dbPath := config.DefaultEventDB
	if cfg.Serve != nil && cfg.Serve.Storage.EventDB != "" {
		dbPath = cfg.Serve.Storage.EventDB
	}
	if _, err := os.Stat(dbPath); err != nil {
		fmt.Println("No build history; run mdpage serve to record builds.")
		return nil
	}

	store, err := eventstore.NewSQLiteStore(dbPath)
	if err != nil {
		return ferrors.RuntimeError("failed to open event store").
			WithCause(err).
			WithContext("event_db", dbPath).
			Build()
	}
	defer func() {
		if err := store.Close(); err != nil {
			slog.Warn("Failed to close event store", logfields.Error(err))
		}
	}()

	projection := eventstore.NewBuildHistoryProjection(store, h.Limit)
	if err := projection.Rebuild(context.Background()); err != nil {
		return ferrors.RuntimeError("failed to read build history").
			WithCause(err).
			Build()
	}

	history := projection.GetHistory()
	if len(history) == 0 {
		fmt.Println("No builds recorded.")
		return nil
	}

	for _, b := range history {
		fmt.Println(formatBuild(b))
	}
	return nil
}

// formatBuild renders one history line: start time, short id, trigger,
// and the per-status tail.
func formatBuild(b *eventstore.BuildSummary) string {
	id := b.BuildID
	if len(id) > 8 {
		id = id[:8]
	}
	line := fmt.Sprintf("%s  %s  %-8s", b.StartedAt.Format(time.DateTime), id, b.Trigger)

	switch b.Status {
	case "failed":
		return fmt.Sprintf("%s  failed at %s: %s", line, b.ErrorStage, b.ErrorMessage)
	case "running":
		return line + "  running"
	default:
		tail := fmt.Sprintf("%d articles in %s", b.Articles, b.Duration.Truncate(time.Millisecond))
		if b.SkipReason != "" {
			tail = "skipped (" + b.SkipReason + ")"
		}
		return fmt.Sprintf("%s  %s, %s", line, b.Outcome, tail)
	}
}
