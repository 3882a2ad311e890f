package sessions

import (
	"context"
	"log/slog"
	"time"
)

// ExpiredDeleter removes sessions that expired before now.
type ExpiredDeleter interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// StartSweeper periodically deletes expired session rows. Expired rows are
// already rejected on use; sweeping only keeps the table small.
// The returned function stops the sweeper. A non-positive interval disables it.
func StartSweeper(repo ExpiredDeleter, interval time.Duration) context.CancelFunc {
	if interval <= 0 {
		slog.Info("session sweeper disabled")
		return func() {}
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		defer close(done)
		defer func() {
			if r := recover(); r != nil {
				slog.Error("session sweeper panicked", "panic", r)
			}
		}()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		slog.Info("session sweeper started", "interval", interval)
		for {
			select {
			case <-ctx.Done():
				slog.Info("session sweeper stopped")
				return
			case <-ticker.C:
				removed, err := repo.DeleteExpired(ctx, time.Now())
				if err != nil {
					slog.Error("failed to delete expired sessions", "error", err)
					continue
				}
				if removed > 0 {
					slog.Info("expired sessions deleted", "count", removed)
				}
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}
