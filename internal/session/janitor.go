package session

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Run expires idle entries every interval until ctx is done, then closes the
// registry. It always returns nil so it can run in an errgroup beside the
// server without tearing it down.
func (r *Registry) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Debug().Dur("interval", interval).Dur("ttl", r.ttl).Msg("Session janitor started")
	for {
		select {
		case <-ctx.Done():
			r.Close()
			log.Debug().Msg("Session janitor stopped")
			return nil
		case <-ticker.C:
			r.Expire()
		}
	}
}

// JanitorInterval picks how often to sweep for a given TTL.
func JanitorInterval(ttl time.Duration) time.Duration {
	return min(max(ttl/4, time.Second), time.Minute)
}
