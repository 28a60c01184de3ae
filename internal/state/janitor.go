package state

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Janitor periodically purges abandoned drafts so the local store does not
// grow without bound. Tokens are never purged.
type Janitor struct {
	store    *Store
	logger   *slog.Logger
	interval time.Duration
	maxAge   time.Duration
	stop     chan struct{}
	wg       sync.WaitGroup
}

func NewJanitor(store *Store, logger *slog.Logger, interval, maxAge time.Duration) *Janitor {
	if interval <= 0 {
		interval = time.Hour
	}
	if maxAge <= 0 {
		maxAge = 30 * 24 * time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Janitor{store: store, logger: logger, interval: interval, maxAge: maxAge, stop: make(chan struct{})}
}

// Start launches the purge loop.
func (j *Janitor) Start(ctx context.Context) {
	j.wg.Add(1)
	go j.run(ctx)
}

// Stop signals the loop to stop and waits for it.
func (j *Janitor) Stop() {
	close(j.stop)
	j.wg.Wait()
}

func (j *Janitor) run(ctx context.Context) {
	defer j.wg.Done()

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-j.stop:
			j.logger.Info("janitor stopping")
			return
		case <-ctx.Done():
			j.logger.Info("context canceled, janitor exiting")
			return
		case <-ticker.C:
			purged, err := j.store.PurgeDrafts(ctx, j.maxAge)
			if err != nil {
				j.logger.Error("purge drafts", "err", err)
				continue
			}
			if purged > 0 {
				j.logger.Info("purged stale drafts", "count", purged)
			}
		}
	}
}
