package service

import (
	"context"
	"log"
	"time"

	"popup-service/internal/observability"
	"popup-service/internal/rabbitmq"
	"popup-service/internal/repositories"
	"popup-service/internal/stream"
)

// Reaper periodically purges expired broadcasts, independent of request
// handling. A failed cycle is logged and skipped; the next tick retries.
type Reaper struct {
	repo      repositories.BroadcastRepository
	hub       *stream.Hub
	publisher rabbitmq.Publisher
	interval  time.Duration
	now       func() time.Time
}

// NewReaper builds a Reaper.
func NewReaper(repo repositories.BroadcastRepository, hub *stream.Hub, publisher rabbitmq.Publisher, interval time.Duration) *Reaper {
	return &Reaper{
		repo:      repo,
		hub:       hub,
		publisher: publisher,
		interval:  interval,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the reaper clock.
func (r *Reaper) WithClock(now func() time.Time) *Reaper {
	r.now = now
	return r
}

// Run loops until the context is cancelled.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	log.Printf("reaper started interval=%s", r.interval)
	for {
		select {
		case <-ctx.Done():
			log.Println("reaper stopped")
			return
		case <-ticker.C:
			r.reap(ctx)
		}
	}
}

func (r *Reaper) reap(ctx context.Context) {
	count, err := r.repo.DeleteExpired(ctx, r.now())
	if err != nil {
		log.Printf("reaper: delete expired failed, skipping cycle: %v", err)
		return
	}
	if count == 0 {
		return
	}

	observability.AddReapedBroadcasts(count)
	log.Printf("reaper: removed %d expired broadcasts", count)

	r.hub.Publish(EventRefresh, RefreshEventPayload{Action: "expired", Count: count})
	if r.publisher != nil {
		if err := r.publisher.Publish(ctx, RoutingKeyReaped, lifecycleEvent{Action: "reaped", Count: count}); err != nil {
			log.Printf("reaper: lifecycle mirror failed: %v", err)
		}
	}
}
