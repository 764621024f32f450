package eventstream_test

import (
	"context"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/platelog/pkg/eventstream"
	testutils "github.com/papercomputeco/platelog/pkg/utils/test"
)

// blockingPublisher holds every publish until released, so tests can fill
// the pool's queue deterministically.
type blockingPublisher struct {
	release chan struct{}
	mu      sync.Mutex
	count   int
}

func newBlockingPublisher() *blockingPublisher {
	return &blockingPublisher{release: make(chan struct{})}
}

func (b *blockingPublisher) PublishEntry(_ context.Context, _ *eventstream.EntryLoggedEvent) error {
	<-b.release
	b.mu.Lock()
	b.count++
	b.mu.Unlock()
	return nil
}

func (b *blockingPublisher) Close() error { return nil }

func (b *blockingPublisher) published() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

var _ = Describe("Pool", func() {
	event := func() *eventstream.EntryLoggedEvent {
		return eventstream.NewEntryLoggedEvent(7, "conv-1", 1, "Rice", 450, false)
	}

	It("requires a publisher", func() {
		_, err := eventstream.NewPool(&eventstream.PoolConfig{})
		Expect(err).To(HaveOccurred())
	})

	It("publishes enqueued events", func() {
		publisher := testutils.NewMockPublisher()
		pool, err := eventstream.NewPool(&eventstream.PoolConfig{Publisher: publisher})
		Expect(err).NotTo(HaveOccurred())

		Expect(pool.Enqueue(event())).To(BeTrue())
		Expect(pool.Enqueue(event())).To(BeTrue())

		Eventually(publisher.PublishedCount).Should(Equal(2))
	})

	It("drops events once the queue is full", func() {
		blocking := newBlockingPublisher()
		pool, err := eventstream.NewPool(&eventstream.PoolConfig{
			Publisher:  blocking,
			NumWorkers: 1,
			QueueSize:  1,
		})
		Expect(err).NotTo(HaveOccurred())

		// One event occupies the worker, one fills the queue; the third
		// has nowhere to go.
		Expect(pool.Enqueue(event())).To(BeTrue())
		Eventually(func() bool { return pool.Enqueue(event()) }).Should(BeFalse())

		close(blocking.release)
		Expect(pool.Close()).To(Succeed())
	})

	It("refuses a nil event", func() {
		publisher := testutils.NewMockPublisher()
		pool, err := eventstream.NewPool(&eventstream.PoolConfig{Publisher: publisher})
		Expect(err).NotTo(HaveOccurred())

		Expect(pool.Enqueue(nil)).To(BeFalse())
	})

	It("drains the queue on close", func() {
		publisher := testutils.NewMockPublisher()
		pool, err := eventstream.NewPool(&eventstream.PoolConfig{Publisher: publisher})
		Expect(err).NotTo(HaveOccurred())

		for i := 0; i < 20; i++ {
			Expect(pool.Enqueue(event())).To(BeTrue())
		}

		Expect(pool.Close()).To(Succeed())
		Expect(publisher.PublishedCount()).To(Equal(20))
		Expect(publisher.Closed).To(BeTrue())
	})
})

var _ = Describe("NewEntryLoggedEvent", func() {
	It("stamps the envelope", func() {
		event := eventstream.NewEntryLoggedEvent(7, "conv-1", 42, "Rice", 450, true)

		Expect(event.SchemaVersion).To(Equal(eventstream.SchemaVersionV1))
		Expect(event.EventType).To(Equal(eventstream.EventTypeEntryLogged))
		Expect(event.EventID).NotTo(BeEmpty())
		Expect(event.EmittedAt).NotTo(BeZero())
		Expect(event.EntryID).To(Equal(int64(42)))
		Expect(event.IsCustom).To(BeTrue())
	})

	It("assigns a distinct id per event", func() {
		a := eventstream.NewEntryLoggedEvent(7, "conv-1", 1, "Rice", 450, false)
		b := eventstream.NewEntryLoggedEvent(7, "conv-1", 2, "Rice", 450, false)
		Expect(a.EventID).NotTo(Equal(b.EventID))
	})
})
