package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"narrascroll/pkg/db"
	"narrascroll/pkg/store"
)

// LastRunKey records when maintenance last completed.
const LastRunKey = "maintenance.last_run"

// Run executes all maintenance tasks. Failures are logged, never fatal to startup.
// It blocks until completion.
func Run(ctx context.Context, s store.StateStore, d *db.DB, retention time.Duration) error {
	slog.Info("Starting database maintenance...")

	if retention > 0 {
		if err := pruneEvents(d, retention); err != nil {
			slog.Error("Event pruning failed", "error", err)
		}
	}

	if err := s.SetState(ctx, LastRunKey, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("failed to update state: %w", err)
	}
	return nil
}

// pruneEvents removes playback events older than retention.
func pruneEvents(d *db.DB, retention time.Duration) error {
	n, err := d.PruneEvents(retention)
	if err != nil {
		return err
	}
	slog.Info("Event pruning completed", "deleted", n, "retention", retention)
	return nil
}
