package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

// envelope mirrors the daemon's stream frames.
type envelope struct {
	Type  string          `json:"type"`
	Ts    *time.Time      `json:"ts,omitempty"`
	Burst int             `json:"burst,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type rotationData struct {
	Direction string `json:"direction"`
	Position  int32  `json:"position"`
	Delta     int8   `json:"delta"`
}

func main() {
	var (
		wsURL = flag.String("ws", "ws://127.0.0.1:3011/ws/events", "ec11d event stream URL")
		raw   = flag.Bool("raw", false, "Print frames as received")
	)
	flag.Parse()

	u, err := url.Parse(*wsURL)
	if err != nil {
		log.Fatalf("invalid websocket URL: %v", err)
	}

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

	d := websocket.Dialer{
		HandshakeTimeout: 5 * time.Second,
	}

	log.Printf("connecting to %s...", u.String())
	conn, _, err := d.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("failed to connect: %v", err)
	}
	defer conn.Close()

	log.Printf("connected! (press Ctrl+C to exit)")

	// Mutex to protect concurrent writes to websocket
	var writeMu sync.Mutex

	// The daemon pings every 20s; answer with the default pong and keep the deadline moving.
	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPingHandler(func(data string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		writeMu.Lock()
		defer writeMu.Unlock()
		return conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(5*time.Second))
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			messageType, message, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
					log.Printf("websocket error: %v", err)
				}
				return
			}
			conn.SetReadDeadline(time.Now().Add(60 * time.Second))

			if messageType != websocket.TextMessage {
				fmt.Printf("[BINARY] %d bytes\n", len(message))
				continue
			}
			if *raw {
				fmt.Println(string(message))
				continue
			}
			handleTextMessage(message)
		}
	}()

	select {
	case <-sigc:
		log.Printf("shutting down...")
		writeMu.Lock()
		err := conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		writeMu.Unlock()
		if err != nil {
			log.Printf("error closing connection: %v", err)
		}
	case <-done:
		log.Printf("connection closed")
	}
}

// handleTextMessage prints one stream frame.
func handleTextMessage(message []byte) {
	var env envelope
	if err := json.Unmarshal(message, &env); err != nil {
		fmt.Printf("[TEXT] %s\n", string(message))
		return
	}

	switch env.Type {
	case "ws_init":
		var snap map[string]any
		_ = json.Unmarshal(env.Data, &snap)
		pretty, _ := json.MarshalIndent(snap, "", "  ")
		fmt.Printf("[INIT]\n%s\n\n", string(pretty))

	case "clicked":
		fmt.Println("[CLICK]")

	case "double_clicked":
		fmt.Println("[DOUBLE CLICK]")

	case "rotate", "clicked_rotate":
		var r rotationData
		if err := json.Unmarshal(env.Data, &r); err != nil {
			fmt.Printf("[%s] %s\n", env.Type, string(env.Data))
			return
		}
		label := "ROTATE"
		if env.Type == "clicked_rotate" {
			label = "HELD ROTATE"
		}
		fmt.Printf("[%s] %-3s position=%d delta=%+d burst=%d\n", label, r.Direction, r.Position, r.Delta, env.Burst)

	default:
		fmt.Printf("[%s] %s\n", env.Type, string(env.Data))
	}
}
