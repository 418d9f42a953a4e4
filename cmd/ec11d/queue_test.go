package main

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestEventQueue_FIFO(t *testing.T) {
	q := NewEventQueue(0, testLogger())

	in := []Event{
		Rotate{Direction: Clockwise, Position: 1, Delta: 1},
		Clicked{},
		Rotate{Direction: CounterClockwise, Position: 0, Delta: -1},
		DoubleClicked{},
	}
	for _, ev := range in {
		if err := q.Publish(ev); err != nil {
			t.Fatalf("publish: %v", err)
		}
	}
	if q.Len() != len(in) {
		t.Fatalf("expected len %d, got %d", len(in), q.Len())
	}

	for i, want := range in {
		got, err := q.Receive(context.Background())
		if err != nil {
			t.Fatalf("receive %d: %v", i, err)
		}
		if got != want {
			t.Fatalf("receive %d: expected %v, got %v", i, want, got)
		}
	}
	if q.Len() != 0 {
		t.Errorf("expected empty queue, got len %d", q.Len())
	}
}

func TestEventQueue_ReceiveBlocksUntilPublish(t *testing.T) {
	q := NewEventQueue(0, testLogger())

	got := make(chan Event, 1)
	go func() {
		ev, err := q.Receive(context.Background())
		if err == nil {
			got <- ev
		}
	}()

	select {
	case ev := <-got:
		t.Fatalf("expected Receive to block, got %v", ev)
	case <-time.After(20 * time.Millisecond):
	}

	if err := q.Publish(Clicked{}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case ev := <-got:
		if ev != (Clicked{}) {
			t.Fatalf("expected Clicked, got %v", ev)
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("timeout waiting for Receive")
	}
}

func TestEventQueue_CloseDrainsThenFails(t *testing.T) {
	q := NewEventQueue(0, testLogger())

	_ = q.Publish(Clicked{})
	_ = q.Publish(DoubleClicked{})
	q.Close()

	if err := q.Publish(Clicked{}); !errors.Is(err, ErrQueueClosed) {
		t.Fatalf("expected ErrQueueClosed from Publish, got %v", err)
	}

	for _, want := range []Event{Clicked{}, DoubleClicked{}} {
		got, err := q.Receive(context.Background())
		if err != nil {
			t.Fatalf("expected queued event after close, got error %v", err)
		}
		if got != want {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}

	if _, err := q.Receive(context.Background()); !errors.Is(err, ErrQueueClosed) {
		t.Fatalf("expected ErrQueueClosed once drained, got %v", err)
	}
}

func TestEventQueue_CloseWakesReceiver(t *testing.T) {
	q := NewEventQueue(0, testLogger())

	errCh := make(chan error, 1)
	go func() {
		_, err := q.Receive(context.Background())
		errCh <- err
	}()

	time.Sleep(10 * time.Millisecond)
	q.Close()

	select {
	case err := <-errCh:
		if !errors.Is(err, ErrQueueClosed) {
			t.Fatalf("expected ErrQueueClosed, got %v", err)
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("timeout waiting for Receive to return after Close")
	}
}

func TestEventQueue_ReceiveHonorsContext(t *testing.T) {
	q := NewEventQueue(0, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := q.Receive(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestEventQueue_BacklogWarnsOncePerExcursion(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	q := NewEventQueue(2, logger)

	for i := 0; i < 5; i++ {
		_ = q.Publish(Clicked{})
	}
	if n := strings.Count(buf.String(), "event queue backlog growing"); n != 1 {
		t.Fatalf("expected 1 warning, got %d", n)
	}

	for q.Len() > 0 {
		if _, err := q.Receive(context.Background()); err != nil {
			t.Fatalf("receive: %v", err)
		}
	}
	for i := 0; i < 3; i++ {
		_ = q.Publish(Clicked{})
	}
	if n := strings.Count(buf.String(), "event queue backlog growing"); n != 2 {
		t.Fatalf("expected a second warning after draining, got %d", n)
	}
}

func TestEventQueue_NeverDrops(t *testing.T) {
	q := NewEventQueue(0, testLogger())

	const n = 10000
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < n; i++ {
			_ = q.Publish(Rotate{Direction: Clockwise, Position: Position(i + 1), Delta: 1})
		}
		q.Close()
	}()

	want := Position(1)
	for {
		ev, err := q.Receive(context.Background())
		if errors.Is(err, ErrQueueClosed) {
			break
		}
		if err != nil {
			t.Fatalf("receive: %v", err)
		}
		r := ev.(Rotate)
		if r.Position != want {
			t.Fatalf("expected position %d, got %d", want, r.Position)
		}
		want++
	}
	<-done

	if want != n+1 {
		t.Fatalf("expected %d events, got %d", n, want-1)
	}
}
