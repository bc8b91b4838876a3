// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package session

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// RunSync refreshes chat and the user directory every interval until the
// session ends or ctx is cancelled. Each tick replaces the cached messages,
// chat flag and users wholesale; a failed tick is logged and retried on the
// next one.
func (a *App) RunSync(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultSyncInterval
	}

	a.mu.RLock()
	done := a.done
	a.mu.RUnlock()
	if done == nil {
		return ErrNoSession
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-done:
			return nil
		case <-ticker.C:
			if err := a.syncOnce(ctx); err != nil {
				slog.Warn("sync failed", "error", err)
			}
		}
	}
}

func (a *App) syncOnce(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.ReloadMessages(ctx) })
	g.Go(func() error { return a.ReloadChatSettings(ctx) })
	g.Go(func() error { return a.ReloadUsers(ctx) })
	return g.Wait()
}
