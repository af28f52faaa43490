package pubsub

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/algorithms"
	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/tracking"
)

func event(runID, window string) SliceEvent {
	return SliceEvent{RunID: runID, Window: window}
}

// TestBasicPubSub tests basic publish/subscribe functionality
func TestBasicPubSub(t *testing.T) {
	b := NewBroker(0, nil)
	defer b.Shutdown()

	sub, err := b.Subscribe(context.Background(), "run-1")
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}

	b.Publish(event("run-1", "2020_01"))

	select {
	case ev := <-sub.Events():
		if ev.Window != "2020_01" {
			t.Errorf("Expected window 2020_01, got %q", ev.Window)
		}
	case <-time.After(1 * time.Second):
		t.Fatal("Timeout waiting for event")
	}

	sub.Unsubscribe()
}

// TestMultipleSubscribers tests multiple subscribers to the same run
func TestMultipleSubscribers(t *testing.T) {
	b := NewBroker(0, nil)
	defer b.Shutdown()

	numSubscribers := 5
	subs := make([]*Subscription, numSubscribers)
	for i := range subs {
		sub, err := b.Subscribe(context.Background(), "run-1")
		if err != nil {
			t.Fatalf("Failed to subscribe %d: %v", i, err)
		}
		subs[i] = sub
	}

	b.Publish(event("run-1", "w"))

	for i, sub := range subs {
		select {
		case ev := <-sub.Events():
			if ev.Window != "w" {
				t.Errorf("Subscriber %d: unexpected event %+v", i, ev)
			}
		case <-time.After(1 * time.Second):
			t.Fatalf("Subscriber %d: timeout", i)
		}
	}
}

// TestTopicIsolation tests that runs don't receive each other's events
// while TopicAll sees both
func TestTopicIsolation(t *testing.T) {
	b := NewBroker(0, nil)
	defer b.Shutdown()

	ctx := context.Background()
	sub1, _ := b.Subscribe(ctx, "run-1")
	sub2, _ := b.Subscribe(ctx, "run-2")
	all, _ := b.Subscribe(ctx, TopicAll)

	b.Publish(event("run-1", "a"))

	select {
	case ev := <-sub1.Events():
		if ev.Window != "a" {
			t.Errorf("Expected window a, got %q", ev.Window)
		}
	case <-time.After(1 * time.Second):
		t.Fatal("Timeout waiting on run-1")
	}

	select {
	case ev := <-sub2.Events():
		t.Errorf("run-2 should not receive run-1 events, got %+v", ev)
	case <-time.After(100 * time.Millisecond):
	}

	select {
	case ev := <-all.Events():
		if ev.RunID != "run-1" {
			t.Errorf("Expected run-1 on TopicAll, got %q", ev.RunID)
		}
	case <-time.After(1 * time.Second):
		t.Fatal("Timeout waiting on TopicAll")
	}
}

// TestUnsubscribe tests unsubscribing closes the channel
func TestUnsubscribe(t *testing.T) {
	b := NewBroker(0, nil)
	defer b.Shutdown()

	sub, _ := b.Subscribe(context.Background(), "run-1")
	if b.GetSubscriberCount("run-1") != 1 {
		t.Fatalf("Expected 1 subscriber, got %d", b.GetSubscriberCount("run-1"))
	}

	sub.Unsubscribe()
	sub.Unsubscribe()

	if b.GetSubscriberCount("run-1") != 0 {
		t.Errorf("Expected 0 subscribers, got %d", b.GetSubscriberCount("run-1"))
	}
	if _, ok := <-sub.Events(); ok {
		t.Error("Expected closed channel after Unsubscribe")
	}

	// Publishing to a topic without subscribers is a no-op
	b.Publish(event("run-1", "late"))
}

// TestContextCancellation tests subscription cleanup on context cancellation
func TestContextCancellation(t *testing.T) {
	b := NewBroker(0, nil)
	defer b.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	sub, _ := b.Subscribe(ctx, "run-1")

	cancel()

	select {
	case _, ok := <-sub.Events():
		if ok {
			t.Error("Expected closed channel after cancellation")
		}
	case <-time.After(1 * time.Second):
		t.Fatal("Timeout waiting for channel close")
	}

	if b.GetSubscriberCount("run-1") != 0 {
		t.Errorf("Expected 0 subscribers after cancellation, got %d", b.GetSubscriberCount("run-1"))
	}
}

// TestConcurrentPublish tests publishing from many goroutines
func TestConcurrentPublish(t *testing.T) {
	b := NewBroker(1000, nil)
	defer b.Shutdown()

	sub, _ := b.Subscribe(context.Background(), "run-1")

	numPublishers := 10
	perPublisher := 50
	var wg sync.WaitGroup
	for i := 0; i < numPublishers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perPublisher; j++ {
				b.Publish(event("run-1", "w"))
			}
		}()
	}
	wg.Wait()

	if got := len(sub.Events()); got != numPublishers*perPublisher {
		t.Errorf("Expected %d queued events, got %d", numPublishers*perPublisher, got)
	}
	if b.Dropped() != 0 {
		t.Errorf("Expected no drops, got %d", b.Dropped())
	}
}

// TestBufferedSubscription tests that a full queue drops instead of blocking
func TestBufferedSubscription(t *testing.T) {
	b := NewBroker(2, nil)
	defer b.Shutdown()

	sub, _ := b.Subscribe(context.Background(), "run-1")

	done := make(chan struct{})
	go func() {
		for i := 0; i < 5; i++ {
			b.Publish(event("run-1", "w"))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("Publish blocked on a full subscriber")
	}

	if len(sub.Events()) != 2 {
		t.Errorf("Expected 2 buffered events, got %d", len(sub.Events()))
	}
	if b.Dropped() != 3 {
		t.Errorf("Expected 3 dropped events, got %d", b.Dropped())
	}
}

// TestShutdown tests that shutdown closes subscriptions and rejects new ones
func TestShutdown(t *testing.T) {
	b := NewBroker(0, nil)

	sub, _ := b.Subscribe(context.Background(), "run-1")
	b.Shutdown()
	b.Shutdown()

	if _, ok := <-sub.Events(); ok {
		t.Error("Expected closed channel after Shutdown")
	}

	if _, err := b.Subscribe(context.Background(), "run-1"); !errors.Is(err, ErrShutdown) {
		t.Errorf("Expected ErrShutdown, got %v", err)
	}

	// Publishing after shutdown must not panic
	b.Publish(event("run-1", "late"))
}

// TestBrokerObservesRecords tests the tracking.Observer adapter
func TestBrokerObservesRecords(t *testing.T) {
	b := NewBroker(0, nil)
	defer b.Shutdown()

	sub, _ := b.Subscribe(context.Background(), TopicAll)

	valid := &tracking.Record{
		Label:       "2020_02",
		Index:       1,
		NodeLabels:  []string{"A", "B"},
		Partition:   algorithms.Partition{0, 1},
		Quality:     0.25,
		Communities: 2,
		Overlap:     1,
		Changes: map[string]tracking.Change{
			"A": {Kind: tracking.Unchanged, Previous: 0, Current: 0},
			"B": {Kind: tracking.Changed, Previous: 0, Current: 1},
		},
	}
	degraded := &tracking.Record{Label: "2020_03", Index: 2, Quality: math.NaN(), Degraded: true}

	observer := Fanout(nil, b)
	observer.Observe("run-9", valid)
	observer.Observe("run-9", degraded)

	ev := <-sub.Events()
	if ev.RunID != "run-9" || ev.Window != "2020_02" || ev.Index != 1 {
		t.Errorf("Unexpected event %+v", ev)
	}
	if ev.Modularity == nil || *ev.Modularity != 0.25 {
		t.Errorf("Expected modularity 0.25, got %v", ev.Modularity)
	}
	if ev.Changed != 1 || ev.Unchanged != 1 {
		t.Errorf("Expected 1 changed and 1 unchanged, got %+v", ev)
	}

	ev = <-sub.Events()
	if !ev.Degraded || ev.Modularity != nil {
		t.Errorf("Expected degraded event without modularity, got %+v", ev)
	}
}
