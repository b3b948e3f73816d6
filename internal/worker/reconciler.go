package worker

// Background goroutine that periodically re-derives every vehicle's tire
// index from the tire projections. Inline updates keep the index fresh in the
// common case; the sweep catches anything a crashed request left behind.

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// StartReconciler launches the periodic fleet sweep. It respects the context
// for graceful shutdown.
func StartReconciler(ctx context.Context, deps Deps, interval time.Duration) {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		log.Info().Dur("interval", interval).Msg("index reconciler: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("index reconciler: shutting down")
				return
			case <-ticker.C:
				RepararTodos(ctx, deps)
			}
		}
	}()
}
