package main

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"
)

// ============================================================================
// ec11-ctl - Command-line IPC Client
// ============================================================================
// Queries the ec11d daemon and drives its sim backend over IPC.
//
// Usage:
//   ec11-ctl status
//   ec11-ctl set-level a low
//   ec11-ctl gesture double_click
//   ec11-ctl gesture cw 5
//   ec11-ctl emit '{"type":"clicked"}'
//
// Options:
//   -socket PATH    Unix domain socket path (default: /tmp/ec11d.sock)
// ============================================================================

// Request types (duplicated from the daemon for a standalone binary)

type IPCRequest struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type SetLevelRequest struct {
	Pin   string `json:"pin"`
	Level string `json:"level"`
}

type GestureRequest struct {
	Name  string `json:"name"`
	Count int    `json:"count,omitempty"`
}

// IPCResponse represents the daemon's response
type IPCResponse struct {
	Status string          `json:"status"`
	Error  string          `json:"error,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
}

func main() {
	socketPath := "/tmp/ec11d.sock"

	args := os.Args[1:]
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	if args[0] == "-socket" || args[0] == "--socket" {
		if len(args) < 2 {
			fmt.Fprintf(os.Stderr, "error: -socket requires an argument\n")
			os.Exit(1)
		}
		socketPath = args[1]
		args = args[2:]
	}

	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	req, err := buildRequest(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		printUsage()
		os.Exit(1)
	}
	if req == nil {
		printUsage()
		return
	}

	// Gestures run to completion before the daemon replies.
	timeout := 5 * time.Second
	if req.Type == "gesture" {
		timeout = 2 * time.Minute
	}

	resp, err := send(socketPath, *req, timeout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if len(resp.Data) == 0 || string(resp.Data) == "null" {
		fmt.Println("ok")
		return
	}
	var pretty any
	if err := json.Unmarshal(resp.Data, &pretty); err != nil {
		fmt.Println(string(resp.Data))
		return
	}
	out, _ := json.MarshalIndent(pretty, "", "  ")
	fmt.Println(string(out))
}

// buildRequest parses a command line. It returns nil for help.
func buildRequest(args []string) (*IPCRequest, error) {
	switch args[0] {
	case "status":
		return &IPCRequest{Type: "status"}, nil

	case "set-level", "set":
		if len(args) < 3 {
			return nil, fmt.Errorf("set-level requires a pin and a level")
		}
		data, err := json.Marshal(SetLevelRequest{Pin: args[1], Level: args[2]})
		if err != nil {
			return nil, fmt.Errorf("marshal set-level: %w", err)
		}
		return &IPCRequest{Type: "set_level", Data: data}, nil

	case "gesture", "g":
		if len(args) < 2 {
			return nil, fmt.Errorf("gesture requires a name")
		}
		g := GestureRequest{Name: args[1]}
		if len(args) >= 3 {
			n, err := strconv.Atoi(args[2])
			if err != nil || n <= 0 {
				return nil, fmt.Errorf("invalid gesture count: %q", args[2])
			}
			g.Count = n
		}
		data, err := json.Marshal(g)
		if err != nil {
			return nil, fmt.Errorf("marshal gesture: %w", err)
		}
		return &IPCRequest{Type: "gesture", Data: data}, nil

	case "emit":
		if len(args) < 2 {
			return nil, fmt.Errorf("emit requires an event envelope")
		}
		if !json.Valid([]byte(args[1])) {
			return nil, fmt.Errorf("emit: invalid JSON: %s", args[1])
		}
		return &IPCRequest{Type: "emit", Data: json.RawMessage(args[1])}, nil

	case "help", "-h", "--help":
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown command: %s", args[0])
	}
}

func send(socketPath string, req IPCRequest, timeout time.Duration) (IPCResponse, error) {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return IPCResponse{}, fmt.Errorf("connect to %s: %w", socketPath, err)
	}
	defer conn.Close()

	_ = conn.SetDeadline(time.Now().Add(timeout))

	data, err := json.Marshal(req)
	if err != nil {
		return IPCResponse{}, fmt.Errorf("marshal request: %w", err)
	}

	// Line-delimited JSON
	if _, err := fmt.Fprintf(conn, "%s\n", data); err != nil {
		return IPCResponse{}, fmt.Errorf("send request: %w", err)
	}

	var response IPCResponse
	if err := json.NewDecoder(conn).Decode(&response); err != nil {
		return IPCResponse{}, fmt.Errorf("decode response: %w", err)
	}

	if response.Status == "error" {
		return response, fmt.Errorf("daemon error: %s", response.Error)
	}
	return response, nil
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `ec11-ctl - Inspect and drive the ec11d daemon via IPC

Usage:
  ec11-ctl [options] <command> [args]

Options:
  -socket PATH    Unix domain socket path (default: /tmp/ec11d.sock)

Commands:
  status                      Print engine state, queue backlog and spin burst
  set-level, set <pin> <lvl>  Drive a sim pin (a, b, button) high or low
  gesture, g <name> [count]   Play a sim gesture: cw, ccw, click, double_click,
                              hold_cw, hold_ccw
  emit <envelope>             Push an event straight onto the queue, e.g.
                              '{"type":"rotate","data":{"direction":"cw","position":1,"delta":1}}'
  help, -h, --help            Show this help message

set-level, gesture and emit need the daemon to run with -gpio-backend sim.

Examples:
  ec11-ctl status
  ec11-ctl gesture cw 3
  ec11-ctl -socket /run/ec11d.sock set-level button low
`)
}
