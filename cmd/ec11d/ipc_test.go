package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net"
	"testing"
	"time"
)

func newTestIPCHandler(sim *simBoard) *ipcHandler {
	return &ipcHandler{
		engine:   stubSnapshotter{snap: EngineSnapshot{Position: 3, Held: true, LevelA: "high", LevelButton: "low"}},
		queue:    NewEventQueue(0, testLogger()),
		spin:     newSpinTracker(time.Second),
		sim:      sim,
		backend:  backendSim,
		clickGap: 250 * time.Millisecond,
		logger:   testLogger(),
	}
}

// noSleepBoard is a sim board whose gestures run instantly.
func noSleepBoard() *simBoard {
	b := newSimBoard()
	b.sleep = func(ctx context.Context, d time.Duration) error { return ctx.Err() }
	return b
}

func TestIPCHandler_Status(t *testing.T) {
	h := newTestIPCHandler(nil)
	_ = h.queue.Publish(Clicked{})
	h.spin.addStep(CounterClockwise)

	data, err := h.handle(context.Background(), IPCRequest{Type: "status"})
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	resp, ok := data.(StatusResponse)
	if !ok {
		t.Fatalf("expected StatusResponse, got %T", data)
	}
	if resp.Engine.Position != 3 || !resp.Engine.Held {
		t.Errorf("unexpected engine snapshot %+v", resp.Engine)
	}
	if resp.Backlog != 1 {
		t.Errorf("expected backlog 1, got %d", resp.Backlog)
	}
	if resp.SpinCW != 0 || resp.SpinCCW != 1 {
		t.Errorf("expected spin cw=0 ccw=1, got cw=%d ccw=%d", resp.SpinCW, resp.SpinCCW)
	}
	if resp.Backend != backendSim {
		t.Errorf("expected backend %q, got %q", backendSim, resp.Backend)
	}
}

func TestIPCHandler_SimOnlyRequests(t *testing.T) {
	h := newTestIPCHandler(nil)

	for _, req := range []IPCRequest{
		{Type: "set_level", Data: json.RawMessage(`{"pin":"a","level":"low"}`)},
		{Type: "gesture", Data: json.RawMessage(`{"name":"cw"}`)},
		{Type: "emit", Data: json.RawMessage(`{"type":"clicked"}`)},
	} {
		if _, err := h.handle(context.Background(), req); !errors.Is(err, errSimOnly) {
			t.Errorf("%s: expected errSimOnly, got %v", req.Type, err)
		}
	}
}

func TestIPCHandler_SetLevel(t *testing.T) {
	board := noSleepBoard()
	h := newTestIPCHandler(board)

	req := IPCRequest{Type: "set_level", Data: json.RawMessage(`{"pin":"button","level":"low"}`)}
	if _, err := h.handle(context.Background(), req); err != nil {
		t.Fatalf("set_level: %v", err)
	}
	if board.button.Read() != Low {
		t.Errorf("expected button low")
	}

	bad := []string{
		`{"pin":"c","level":"low"}`,
		`{"pin":"a","level":"maybe"}`,
		`not json`,
	}
	for _, data := range bad {
		if _, err := h.handle(context.Background(), IPCRequest{Type: "set_level", Data: json.RawMessage(data)}); err == nil {
			t.Errorf("expected error for %s", data)
		}
	}
}

func TestIPCHandler_Gesture(t *testing.T) {
	board := noSleepBoard()
	h := newTestIPCHandler(board)

	req := IPCRequest{Type: "gesture", Data: json.RawMessage(`{"name":"hold_ccw","count":2}`)}
	if _, err := h.handle(context.Background(), req); err != nil {
		t.Fatalf("gesture: %v", err)
	}
	for name, p := range map[string]*simPin{"a": board.a, "b": board.b, "button": board.button} {
		if p.Read() != High {
			t.Errorf("expected pin %s to end high", name)
		}
	}

	req = IPCRequest{Type: "gesture", Data: json.RawMessage(`{"name":"wiggle"}`)}
	if _, err := h.handle(context.Background(), req); err == nil {
		t.Errorf("expected error for unknown gesture")
	}
}

func TestIPCHandler_Emit(t *testing.T) {
	h := newTestIPCHandler(noSleepBoard())

	want := ClickedRotate{Direction: CounterClockwise, Position: -2, Delta: -1}
	data, err := MarshalEvent(want)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if _, err := h.handle(context.Background(), IPCRequest{Type: "emit", Data: data}); err != nil {
		t.Fatalf("emit: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	got, err := h.queue.Receive(ctx)
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if got != want {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestIPCHandler_EmitRejectsUnknownEvent(t *testing.T) {
	h := newTestIPCHandler(noSleepBoard())

	req := IPCRequest{Type: "emit", Data: json.RawMessage(`{"type":"triple_clicked"}`)}
	if _, err := h.handle(context.Background(), req); err == nil {
		t.Fatalf("expected error for unknown event type")
	}
	if n := h.queue.Len(); n != 0 {
		t.Errorf("expected empty queue, got %d", n)
	}
}

func TestIPCHandler_EmitAfterClose(t *testing.T) {
	h := newTestIPCHandler(noSleepBoard())
	h.queue.Close()

	req := IPCRequest{Type: "emit", Data: json.RawMessage(`{"type":"clicked"}`)}
	if _, err := h.handle(context.Background(), req); !errors.Is(err, ErrQueueClosed) {
		t.Fatalf("expected ErrQueueClosed, got %v", err)
	}
}

func TestIPCHandler_UnknownType(t *testing.T) {
	h := newTestIPCHandler(nil)
	if _, err := h.handle(context.Background(), IPCRequest{Type: "reboot"}); err == nil {
		t.Fatalf("expected error for unknown request type")
	}
}

func TestHandleIPCConnection_RoundTrip(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()

	h := newTestIPCHandler(noSleepBoard())
	done := make(chan struct{})
	go func() {
		defer close(done)
		handleIPCConnection(context.Background(), server, h, testLogger())
	}()

	_ = client.SetDeadline(time.Now().Add(2 * time.Second))
	reader := bufio.NewReader(client)

	send := func(line string) IPCResponse {
		t.Helper()
		if _, err := client.Write([]byte(line + "\n")); err != nil {
			t.Fatalf("write: %v", err)
		}
		raw, err := reader.ReadBytes('\n')
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		var resp IPCResponse
		if err := json.Unmarshal(raw, &resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		return resp
	}

	if resp := send(`{"type":"status"}`); resp.Status != "ok" || resp.Data == nil {
		t.Errorf("expected ok status with data, got %+v", resp)
	}
	if resp := send(`{"type":"set_level","data":{"pin":"b","level":"low"}}`); resp.Status != "ok" {
		t.Errorf("expected ok, got %+v", resp)
	}
	if resp := send(`{bad`); resp.Status != "error" || resp.Error == "" {
		t.Errorf("expected parse error, got %+v", resp)
	}

	client.Close()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("timeout waiting for connection handler to exit")
	}
}
