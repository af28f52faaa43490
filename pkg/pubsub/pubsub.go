// Package pubsub streams slice events to in-process subscribers (such as
// the progress display) and to remote listeners over a mangos PUB socket.
package pubsub

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/metrics"
	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/tracking"
)

// TopicAll receives the events of every run
const TopicAll = "*"

// ErrShutdown is returned by Subscribe after Shutdown
var ErrShutdown = errors.New("pubsub is shut down")

// Broker fans slice events out to subscribers by run id
type Broker struct {
	subscribers map[string]map[*Subscription]bool
	mu          sync.RWMutex
	shutdown    chan struct{}
	shutdownMu  sync.Mutex
	isShutdown  bool
	bufferSize  int
	dropped     atomic.Uint64
	metrics     *metrics.Registry
}

// Subscription represents a subscription to a topic
type Subscription struct {
	topic     string
	channel   chan SliceEvent
	broker    *Broker
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once // Ensures channel is only closed once
}

// NewBroker creates a broker. bufferSize bounds each subscriber's queue;
// events for a full queue are dropped and counted.
func NewBroker(bufferSize int, reg *metrics.Registry) *Broker {
	if bufferSize <= 0 {
		bufferSize = 100
	}
	return &Broker{
		subscribers: make(map[string]map[*Subscription]bool),
		shutdown:    make(chan struct{}),
		bufferSize:  bufferSize,
		metrics:     reg,
	}
}

// Subscribe creates a subscription to a run id or TopicAll
func (b *Broker) Subscribe(ctx context.Context, topic string) (*Subscription, error) {
	b.shutdownMu.Lock()
	if b.isShutdown {
		b.shutdownMu.Unlock()
		return nil, ErrShutdown
	}
	b.shutdownMu.Unlock()

	subCtx, cancel := context.WithCancel(ctx)
	sub := &Subscription{
		topic:   topic,
		channel: make(chan SliceEvent, b.bufferSize),
		broker:  b,
		ctx:     subCtx,
		cancel:  cancel,
	}

	b.mu.Lock()
	if b.subscribers[topic] == nil {
		b.subscribers[topic] = make(map[*Subscription]bool)
	}
	b.subscribers[topic][sub] = true
	b.mu.Unlock()

	// Monitor context cancellation
	go func() {
		select {
		case <-subCtx.Done():
			sub.Unsubscribe()
		case <-b.shutdown:
			sub.close()
		}
	}()

	return sub, nil
}

// Publish delivers ev to the subscribers of its run and of TopicAll.
// Sends never block the publisher.
func (b *Broker) Publish(ev SliceEvent) {
	b.shutdownMu.Lock()
	if b.isShutdown {
		b.shutdownMu.Unlock()
		return
	}
	b.shutdownMu.Unlock()

	// Snapshot subscribers so slow sends happen outside the lock
	b.mu.RLock()
	var subs []*Subscription
	for _, topic := range []string{ev.RunID, TopicAll} {
		for sub := range b.subscribers[topic] {
			subs = append(subs, sub)
		}
	}
	b.mu.RUnlock()

	for _, sub := range subs {
		select {
		case sub.channel <- ev:
		default:
			b.dropped.Add(1)
		}
	}
	if b.metrics != nil {
		b.metrics.RecordPublish("inproc")
	}
}

// Observe implements tracking.Observer
func (b *Broker) Observe(runID string, rec *tracking.Record) {
	b.Publish(EventFromRecord(runID, rec))
}

// Dropped returns how many deliveries were skipped on full queues
func (b *Broker) Dropped() uint64 {
	return b.dropped.Load()
}

// GetSubscriberCount returns the number of subscribers for a topic
func (b *Broker) GetSubscriberCount(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers[topic])
}

// Shutdown closes all subscriptions
func (b *Broker) Shutdown() {
	b.shutdownMu.Lock()
	if b.isShutdown {
		b.shutdownMu.Unlock()
		return
	}
	b.isShutdown = true
	b.shutdownMu.Unlock()

	close(b.shutdown)

	b.mu.Lock()
	for topic := range b.subscribers {
		for sub := range b.subscribers[topic] {
			sub.close()
		}
		delete(b.subscribers, topic)
	}
	b.mu.Unlock()
}

// Events returns the subscription's event channel
func (s *Subscription) Events() <-chan SliceEvent {
	return s.channel
}

// Unsubscribe removes the subscription and closes its channel
func (s *Subscription) Unsubscribe() {
	s.cancel()

	s.broker.mu.Lock()
	defer s.broker.mu.Unlock()

	if s.broker.subscribers[s.topic] != nil {
		delete(s.broker.subscribers[s.topic], s)
		if len(s.broker.subscribers[s.topic]) == 0 {
			delete(s.broker.subscribers, s.topic)
		}
	}

	s.close()
}

// close closes the subscription channel safely (idempotent)
func (s *Subscription) close() {
	s.closeOnce.Do(func() {
		close(s.channel)
	})
}
