package corestore

import (
	"context"
	"time"

	"github.com/dmitrijs2005/safedrop/internal/logging"
)

// RunJanitor purges expired objects every interval until ctx is done.
func RunJanitor(ctx context.Context, v *Vault, interval time.Duration, l logging.Logger) {
	if interval <= 0 {
		return
	}
	logger := l.With("module", "janitor")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := v.Purge(ctx); n > 0 {
				logger.Info(ctx, "purged expired objects", "count", n)
			}
		}
	}
}
