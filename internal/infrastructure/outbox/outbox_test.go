package outbox

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	domoutbox "github.com/Zhima-Mochi/vending-machine/internal/domain/outbox"
)

type testEvent struct{ name string }

func (e testEvent) EventName() string { return e.name }

func TestBusDeliversToEverySubscriber(t *testing.T) {
	bus := NewBus(nil)
	var wg sync.WaitGroup
	var calls atomic.Int32
	handler := func(context.Context, domoutbox.Event) error {
		calls.Add(1)
		wg.Done()
		return nil
	}
	bus.Subscribe("purchase.settled", handler)
	bus.Subscribe("purchase.settled", handler)
	bus.Start(context.Background())
	defer bus.Stop(context.Background())

	wg.Add(2)
	if err := bus.Publish(context.Background(), testEvent{name: "purchase.settled"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	wg.Wait()
	if got := calls.Load(); got != 2 {
		t.Fatalf("expected 2 deliveries, got %d", got)
	}
}

func TestBusDrainsQueueOnStop(t *testing.T) {
	bus := NewBus(nil)
	var calls atomic.Int32
	bus.Subscribe("account.deposited", func(context.Context, domoutbox.Event) error {
		calls.Add(1)
		return nil
	})
	bus.Start(context.Background())

	for i := 0; i < 10; i++ {
		if err := bus.Publish(context.Background(), testEvent{name: "account.deposited"}); err != nil {
			t.Fatalf("publish: %v", err)
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	bus.Stop(ctx)

	if got := calls.Load(); got != 10 {
		t.Fatalf("expected 10 handled events, got %d", got)
	}
}

func TestBusRejectsAfterStop(t *testing.T) {
	bus := NewBus(nil)
	bus.Stop(context.Background())
	if err := bus.Publish(context.Background(), testEvent{name: "x"}); !errors.Is(err, ErrStopped) {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
}

func TestBusPublishHonoursContextWhenFull(t *testing.T) {
	bus := NewBus(nil, WithBuffer(1))
	if err := bus.Publish(context.Background(), testEvent{name: "x"}); err != nil {
		t.Fatalf("first publish: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := bus.Publish(ctx, testEvent{name: "x"}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestBusRecoversFromHandlerPanic(t *testing.T) {
	bus := NewBus(nil)
	done := make(chan struct{})
	bus.Subscribe("boom", func(context.Context, domoutbox.Event) error {
		panic("handler failure")
	})
	bus.Subscribe("after", func(context.Context, domoutbox.Event) error {
		close(done)
		return nil
	})
	bus.Start(context.Background())
	defer bus.Stop(context.Background())

	_ = bus.Publish(context.Background(), testEvent{name: "boom"})
	_ = bus.Publish(context.Background(), testEvent{name: "after"})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("bus stopped dispatching after a panic")
	}
}

func TestBusStopReleasesPublishersBlockedOnFullQueue(t *testing.T) {
	bus := NewBus(nil, WithBuffer(1))
	entered := make(chan struct{}, 8)
	gate := make(chan struct{})
	bus.Subscribe("purchase.settled", func(context.Context, domoutbox.Event) error {
		entered <- struct{}{}
		<-gate
		return nil
	})
	bus.Start(context.Background())

	// One event held by the handler, one filling the buffer.
	if err := bus.Publish(context.Background(), testEvent{name: "purchase.settled"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	<-entered
	if err := bus.Publish(context.Background(), testEvent{name: "purchase.settled"}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	const blocked = 3
	results := make(chan error, blocked)
	for i := 0; i < blocked; i++ {
		go func() {
			results <- bus.Publish(context.Background(), testEvent{name: "purchase.settled"})
		}()
	}
	time.Sleep(20 * time.Millisecond)

	stopped := make(chan struct{})
	go func() {
		bus.Stop(context.Background())
		close(stopped)
	}()
	time.Sleep(20 * time.Millisecond)
	close(gate)

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return with publishers blocked on a full queue")
	}
	for i := 0; i < blocked; i++ {
		select {
		case err := <-results:
			if err != nil && !errors.Is(err, ErrStopped) {
				t.Fatalf("blocked publish returned %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("publisher still blocked after Stop")
		}
	}
}

func TestBusStopWithoutStartReleasesBlockedPublisher(t *testing.T) {
	bus := NewBus(nil, WithBuffer(1))
	if err := bus.Publish(context.Background(), testEvent{name: "x"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	result := make(chan error, 1)
	go func() { result <- bus.Publish(context.Background(), testEvent{name: "x"}) }()
	time.Sleep(10 * time.Millisecond)

	bus.Stop(context.Background())
	select {
	case err := <-result:
		if !errors.Is(err, ErrStopped) {
			t.Fatalf("expected ErrStopped, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("publisher still blocked after Stop")
	}
}
