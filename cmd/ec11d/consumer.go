package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// broadcaster is implemented by *Hub.
type broadcaster interface {
	BroadcastBytes(msg []byte)
}

// runConsumer drains the queue in FIFO order: each event is logged, rotations
// are fed to the spin tracker, and the event is forwarded to the stream hub.
//
// Cancelling ctx does not stop it. It returns nil once the producer has closed
// the queue and every event published before that has been handled.
func runConsumer(ctx context.Context, queue *EventQueue, spin *spinTracker, out broadcaster, logger *slog.Logger) error {
	ctx = context.WithoutCancel(ctx)
	for {
		ev, err := queue.Receive(ctx)
		if err != nil {
			if errors.Is(err, ErrQueueClosed) {
				logger.Info("consumer stopping", "backlog", queue.Len())
				return nil
			}
			return fmt.Errorf("receive event: %w", err)
		}

		burst := 0
		attrs := []any{"type", eventTypeName(ev)}
		switch e := ev.(type) {
		case Rotate:
			if spin != nil {
				burst = spin.addStep(e.Direction)
			}
			attrs = append(attrs, "direction", e.Direction, "position", e.Position, "delta", e.Delta, "burst", burst)
		case ClickedRotate:
			if spin != nil {
				burst = spin.addStep(e.Direction)
			}
			attrs = append(attrs, "direction", e.Direction, "position", e.Position, "delta", e.Delta, "burst", burst)
		}
		logger.Info("ec11 event", attrs...)

		if out == nil {
			continue
		}
		msg, err := encodeStreamMessage(ev, burst, time.Now().UTC())
		if err != nil {
			logger.Warn("event stream encode failed", "error", err)
			continue
		}
		out.BroadcastBytes(msg)
	}
}
