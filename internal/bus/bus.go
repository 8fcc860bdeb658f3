// Package bus provides the ordered delivery channel between concurrent
// event producers and the single log consumer.
package bus

import (
	"sync"

	"github.com/tinytelemetry/linetap/internal/model"
)

// Handler consumes one delivered event. It is invoked on the bus's pump
// goroutine, strictly in publish order, never concurrently with itself.
type Handler func(model.LogEvent)

// Bus serializes events from concurrent publishers into a single ordered
// stream. Publish never blocks the caller; the queue is unbounded, so
// sustained overload grows memory rather than applying back-pressure.
type Bus struct {
	mu      sync.Mutex
	cond    *sync.Cond
	queue   []model.LogEvent
	nextSeq uint64
	closed  bool
	handler Handler

	done      chan struct{}
	subOnce   sync.Once
	closeOnce sync.Once
}

func New() *Bus {
	b := &Bus{done: make(chan struct{})}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// Publish enqueues one event for delivery. Safe for concurrent use. The
// sequence is assigned under the same lock that fixes FIFO order, so
// sequence order and delivery order agree across all publishers. Events
// published after Close are dropped.
func (b *Bus) Publish(ev model.LogEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.nextSeq++
	ev.Seq = b.nextSeq
	b.queue = append(b.queue, ev)
	b.cond.Signal()
}

// Subscribe registers the single consumer and starts delivery. Events
// published before Subscribe are retained and delivered first. Later
// calls are no-ops.
func (b *Bus) Subscribe(h Handler) {
	b.subOnce.Do(func() {
		b.mu.Lock()
		b.handler = h
		b.mu.Unlock()
		go b.pump()
	})
}

// SubscribeSink is Subscribe for a model.Sink consumer.
func (b *Bus) SubscribeSink(s model.Sink) {
	b.Subscribe(s.OnEvent)
}

// Close stops delivery after every already-published event has been
// handed to the subscriber. If no subscriber was ever registered it only
// marks the bus closed.
func (b *Bus) Close() {
	b.closeOnce.Do(func() {
		b.mu.Lock()
		b.closed = true
		subscribed := b.handler != nil
		b.cond.Broadcast()
		b.mu.Unlock()
		if subscribed {
			<-b.done
		}
	})
}

func (b *Bus) pump() {
	defer close(b.done)
	for {
		b.mu.Lock()
		for len(b.queue) == 0 && !b.closed {
			b.cond.Wait()
		}
		batch := b.queue
		b.queue = nil
		closed := b.closed
		b.mu.Unlock()

		for _, ev := range batch {
			b.handler(ev)
		}
		if closed && len(batch) == 0 {
			return
		}
	}
}
