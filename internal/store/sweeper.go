package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/akravets/mockview/internal/shared"
)

const (
	sweepInterval       = 5 * time.Minute
	transcriptRetention = 30 * 24 * time.Hour
)

// AbandonCallback is called for each stale session so the orchestrator can
// stop its tick driver and release in-memory state.
type AbandonCallback func(sessionID string)

// StartSweeper runs a background goroutine that periodically marks
// abandoned interview sessions complete and prunes old transcript rows.
func StartSweeper(ctx context.Context, repo Repository, ttl time.Duration, onAbandon AbandonCallback) {
	ticker := time.NewTicker(sweepInterval)
	go func() {
		defer ticker.Stop()
		slog.Info("Session sweeper started", "interval", sweepInterval, "ttl", ttl)

		for {
			select {
			case <-ticker.C:
				sweepStaleSessions(ctx, repo, ttl, onAbandon)
			case <-ctx.Done():
				slog.Info("Session sweeper shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}

func sweepStaleSessions(ctx context.Context, repo Repository, ttl time.Duration, onAbandon AbandonCallback) {
	stale, err := repo.GetStaleInterviews(ctx, ttl)
	if err != nil {
		slog.Error("Sweeper failed to list stale sessions", "error", err)
		return
	}
	if len(stale) == 0 {
		return
	}

	slog.Info("Sweeper found stale sessions", "count", len(stale))

	for _, rec := range stale {
		if onAbandon != nil {
			onAbandon(rec.SessionID)
		}
		if err := completeWithRetry(ctx, repo, rec.SessionID); err != nil {
			slog.Warn("Sweeper failed to complete stale session",
				"session_id", rec.SessionID, "error", err)
		}
	}

	if pruned, err := repo.PruneTranscripts(ctx, transcriptRetention); err != nil {
		slog.Error("Sweeper failed to prune transcripts", "error", err)
	} else if pruned > 0 {
		slog.Info("Sweeper pruned old transcript rows", "count", pruned)
	}
}

// completeWithRetry marks a session complete with exponential backoff on
// SQLITE_BUSY, which can occur while a tick driver is flushing its final
// state.
func completeWithRetry(ctx context.Context, repo Repository, sessionID string) error {
	const maxRetries = 3
	delay := 100 * time.Millisecond

	var err error
	for i := 0; i < maxRetries; i++ {
		err = repo.CompleteInterview(ctx, sessionID, time.Now())
		if err == nil {
			return nil
		}
		if !shared.IsSQLiteConflictError(err) || i == maxRetries-1 {
			return err
		}
		slog.Debug("Sweeper retrying after SQLite conflict",
			"session_id", sessionID, "attempt", i+1, "delay", delay)
		time.Sleep(delay)
		delay *= 2
	}
	return err
}
