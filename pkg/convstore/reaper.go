package convstore

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Reaper physically deletes expired conversation rows on a ticker. Load-time
// expiry keeps correctness regardless; the reaper only bounds table growth.
type Reaper struct {
	driver   Driver
	interval time.Duration
	logger   *zap.Logger
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewReaper creates a reaper over the driver. A non-positive interval
// defaults to ten minutes.
func NewReaper(driver Driver, interval time.Duration, logger *zap.Logger) *Reaper {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reaper{
		driver:   driver,
		interval: interval,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Start launches the background loop. Call Stop to end it.
func (r *Reaper) Start(ctx context.Context) {
	ctx, r.cancel = context.WithCancel(ctx)
	go r.loop(ctx)
}

// Stop halts the loop and waits for the in-flight sweep to finish.
func (r *Reaper) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
	<-r.done
}

func (r *Reaper) loop(ctx context.Context) {
	defer close(r.done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := r.driver.DeleteExpired(ctx, time.Now().UTC())
			if err != nil {
				r.logger.Warn("reaping expired conversations", zap.Error(err))
				continue
			}
			if n > 0 {
				r.logger.Debug("reaped expired conversations", zap.Int64("deleted", n))
			}
		}
	}
}
