package eventstream

import (
	"context"
	"fmt"
	"math"
	"sync"

	"go.uber.org/zap"
)

var (
	defaultNumWorkers   uint = 2
	defaultJobQueueSize uint = 256
)

// PoolConfig is the configuration options for the publish pool.
type PoolConfig struct {
	// Publisher is the backend events are written to.
	Publisher Publisher

	// NumWorkers is the number of background workers in the pool.
	NumWorkers uint

	// QueueSize is the capacity of the buffered event channel (defaults to 256).
	QueueSize uint

	// Logger is the provided zap logger.
	Logger *zap.Logger
}

// Pool publishes entry events asynchronously so the graph's save node never
// blocks on the event stream backend. Delivery is best effort: a full queue
// drops the event with a warning.
type Pool struct {
	publisher Publisher
	queue     chan *EntryLoggedEvent
	wg        sync.WaitGroup
	logger    *zap.Logger
}

// NewPool creates a pool and starts its worker goroutines.
func NewPool(c *PoolConfig) (*Pool, error) {
	if c.Publisher == nil {
		return nil, fmt.Errorf("eventstream: publisher required")
	}
	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}
	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}
	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}

	p := &Pool{
		publisher: c.Publisher,
		queue:     make(chan *EntryLoggedEvent, c.QueueSize),
		logger:    c.Logger,
	}

	p.wg.Add(int(c.NumWorkers))
	for i := uint(0); i < c.NumWorkers; i++ {
		go p.worker(i)
	}

	return p, nil
}

// Enqueue submits an event for publishing. Returns true if enqueued, false
// if the queue is full and the event was dropped.
func (p *Pool) Enqueue(event *EntryLoggedEvent) bool {
	if event == nil {
		return false
	}

	select {
	case p.queue <- event:
		p.logger.Debug("entry event queued",
			zap.String("event_id", event.EventID),
			zap.Int64("entry_id", event.EntryID),
		)
		return true
	default:
		p.logger.Warn("entry event dropped, queue full",
			zap.String("event_id", event.EventID),
			zap.Int64("entry_id", event.EntryID),
		)
		return false
	}
}

// Close signals workers to stop, waits for in-flight publishes to drain, and
// closes the backend publisher.
func (p *Pool) Close() error {
	close(p.queue)
	p.wg.Wait()
	return p.publisher.Close()
}

// worker continuously pulls events off the queue and publishes them.
func (p *Pool) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("eventstream worker started", zap.Uint("worker_id", id))

	for event := range p.queue {
		if err := p.publisher.PublishEntry(context.Background(), event); err != nil {
			p.logger.Error("publishing entry event failed",
				zap.String("event_id", event.EventID),
				zap.Error(err),
			)
		}
	}

	p.logger.Debug("eventstream worker stopped", zap.Uint("worker_id", id))
}
