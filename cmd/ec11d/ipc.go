package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strings"
	"time"
)

// ============================================================================
// IPC Server - Unix Domain Socket Interface
// ============================================================================
// Lets local tools inspect the engine and drive the sim backend.
//
// Protocol: Line-delimited JSON
//   - Client sends: {"type": "status"|"set_level"|"gesture"|"emit", "data": {...}}
//   - Server responds: {"status": "ok", "data": {...}} or {"status": "error", "error": "msg"}
// ============================================================================

// IPCRequest is one line sent by a client.
type IPCRequest struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// IPCResponse represents the response sent back to IPC clients
type IPCResponse struct {
	Status string `json:"status"`          // "ok" or "error"
	Error  string `json:"error,omitempty"` // error message if status == "error"
	Data   any    `json:"data,omitempty"`
}

// SetLevelRequest drives a sim pin.
type SetLevelRequest struct {
	Pin   string `json:"pin"`   // a, b or button
	Level string `json:"level"` // high or low
}

// GestureRequest plays a scripted gesture on the sim pins.
type GestureRequest struct {
	Name  string `json:"name"`
	Count int    `json:"count,omitempty"`
}

// StatusResponse is the data payload of a status reply.
type StatusResponse struct {
	Engine  EngineSnapshot `json:"engine"`
	Backlog int            `json:"backlog"`
	SpinCW  int            `json:"spin_cw"`
	SpinCCW int            `json:"spin_ccw"`
	Backend string         `json:"backend"`
}

// ipcHandler executes IPC requests.
type ipcHandler struct {
	engine   snapshotter
	queue    *EventQueue
	spin     *spinTracker
	sim      *simBoard // nil unless the sim backend is active
	backend  string
	clickGap time.Duration
	logger   *slog.Logger
}

var errSimOnly = errors.New("only available with the sim gpio backend")

func (h *ipcHandler) handle(ctx context.Context, req IPCRequest) (any, error) {
	switch req.Type {
	case "status":
		snapCtx, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		snap, err := h.engine.Snapshot(snapCtx)
		if err != nil {
			return nil, fmt.Errorf("engine snapshot: %w", err)
		}
		resp := StatusResponse{Engine: snap, Backend: h.backend}
		if h.queue != nil {
			resp.Backlog = h.queue.Len()
		}
		if h.spin != nil {
			resp.SpinCW, resp.SpinCCW = h.spin.burst()
		}
		return resp, nil

	case "set_level":
		if h.sim == nil {
			return nil, errSimOnly
		}
		var r SetLevelRequest
		if err := json.Unmarshal(req.Data, &r); err != nil {
			return nil, fmt.Errorf("unmarshal set_level: %w", err)
		}
		level, err := parseLevel(r.Level)
		if err != nil {
			return nil, err
		}
		if err := h.sim.SetLevel(r.Pin, level); err != nil {
			return nil, err
		}
		h.logger.Debug("sim level set", "pin", r.Pin, "level", level)
		return nil, nil

	case "gesture":
		if h.sim == nil {
			return nil, errSimOnly
		}
		var r GestureRequest
		if err := json.Unmarshal(req.Data, &r); err != nil {
			return nil, fmt.Errorf("unmarshal gesture: %w", err)
		}
		h.logger.Debug("sim gesture", "name", r.Name, "count", r.Count)
		if err := h.sim.PlayGesture(ctx, r.Name, r.Count, h.clickGap); err != nil {
			return nil, err
		}
		return nil, nil

	case "emit":
		// Injects an event envelope straight into the queue, bypassing the engine.
		if h.sim == nil {
			return nil, errSimOnly
		}
		ev, err := UnmarshalEvent(req.Data)
		if err != nil {
			return nil, fmt.Errorf("decode emit: %w", err)
		}
		if err := h.queue.Publish(ev); err != nil {
			return nil, fmt.Errorf("publish %s: %w", eventTypeName(ev), err)
		}
		h.logger.Debug("sim event emitted", "event", eventTypeName(ev))
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown request type: %q", req.Type)
	}
}

// runIPCServer starts the Unix domain socket server.
// It runs until ctx is canceled, at which point it closes the listener and exits.
func runIPCServer(ctx context.Context, socketPath string, h *ipcHandler, logger *slog.Logger) error {
	// Remove existing socket file if it exists
	if err := os.RemoveAll(socketPath); err != nil {
		return fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", socketPath, err)
	}
	defer listener.Close()
	defer os.Remove(socketPath)

	if err := os.Chmod(socketPath, 0660); err != nil {
		return fmt.Errorf("chmod socket: %w", err)
	}

	logger.Info("IPC listening", "socket", socketPath)

	// Close the listener on shutdown. This unblocks Accept().
	go func() {
		<-ctx.Done()
		_ = listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				logger.Debug("IPC listener closed (shutdown)")
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				logger.Debug("IPC listener closed")
				return nil
			}

			logger.Error("IPC accept error", "error", err)
			continue
		}

		go handleIPCConnection(ctx, conn, h, logger)
	}
}

// handleIPCConnection serves requests from one client until it disconnects.
func handleIPCConnection(ctx context.Context, conn net.Conn, h *ipcHandler, logger *slog.Logger) {
	defer conn.Close()

	logger.Debug("IPC connection", "remote_addr", conn.RemoteAddr())

	scanner := bufio.NewScanner(conn)
	encoder := json.NewEncoder(conn)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		logger.Debug("IPC received", "line", line)

		var response IPCResponse
		var req IPCRequest
		if err := json.Unmarshal([]byte(line), &req); err != nil {
			response = IPCResponse{Status: "error", Error: fmt.Sprintf("parse request: %v", err)}
		} else if data, err := h.handle(ctx, req); err != nil {
			response = IPCResponse{Status: "error", Error: err.Error()}
		} else {
			response = IPCResponse{Status: "ok", Data: data}
		}

		if err := encoder.Encode(response); err != nil {
			logger.Error("IPC failed to send response", "error", err)
			return
		}
	}

	logger.Debug("IPC connection closed")
}
