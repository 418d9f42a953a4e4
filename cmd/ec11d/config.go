package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level YAML configuration for the ec11d daemon.
//
// Keep defaults and validation centralized so the rest of the code can assume a
// well-formed config. Precedence: defaults, then file, then flags.
type Config struct {
	// GPIO backend and pin mapping
	GPIO GPIOConfig `yaml:"gpio"`

	// Scan loop timing
	Timing TimingConfig `yaml:"timing"`

	// Scan goroutine placement
	Scan ScanConfig `yaml:"scan"`

	// Event queue
	Queue QueueConfig `yaml:"queue"`

	// Spin tracker annotation
	Spin SpinConfig `yaml:"spin"`

	// IPC configuration (status queries, sim control)
	IPC IPCConfig `yaml:"ipc"`

	// HTTP server (event stream WebSocket)
	HTTP HTTPConfig `yaml:"http"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

type GPIOConfig struct {
	Backend string `yaml:"backend"` // "periph", "cdev" or "sim"

	// periph backend: pin names as known to gpioreg
	PinA      string `yaml:"pin_a"`
	PinB      string `yaml:"pin_b"`
	PinButton string `yaml:"pin_button"`

	// cdev backend: chip and line offsets
	Chip       string `yaml:"chip"`
	LineA      int    `yaml:"line_a"`
	LineB      int    `yaml:"line_b"`
	LineButton int    `yaml:"line_button"`

	PullUp bool `yaml:"pull_up"`
}

// TimingConfig uses YAML-friendly integer units.
type TimingConfig struct {
	SettleUS            int `yaml:"settle_us"`
	ScanIntervalUS      int `yaml:"scan_interval_us"`
	DoublePressWindowMS int `yaml:"double_press_window_ms"`

	// DeferClick delays Clicked until the double press window expires.
	DeferClick bool `yaml:"defer_click"`
}

type ScanConfig struct {
	CPU          int  `yaml:"cpu"` // -1 disables pinning
	LockOSThread bool `yaml:"lock_os_thread"`
}

type QueueConfig struct {
	WarnBacklog int `yaml:"warn_backlog"` // 0 disables the warning
}

type SpinConfig struct {
	WindowMS int `yaml:"window_ms"`
}

type IPCConfig struct {
	SocketPath string `yaml:"socket_path"`
}

type HTTPConfig struct {
	Port   int    `yaml:"port"` // 0 disables the HTTP server
	WSPath string `yaml:"ws_path"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

// DefaultConfig returns a fully-populated Config with defaults.
// Keep this aligned with constants.go.
func DefaultConfig() Config {
	return Config{
		GPIO: GPIOConfig{
			Backend:    backendPeriph,
			PinA:       defaultPinA,
			PinB:       defaultPinB,
			PinButton:  defaultPinButton,
			Chip:       defaultChip,
			LineA:      defaultLineA,
			LineB:      defaultLineB,
			LineButton: defaultLineButton,
			PullUp:     true,
		},
		Timing: TimingConfig{
			SettleUS:            int(defaultSettleDelay / time.Microsecond),
			ScanIntervalUS:      int(defaultScanInterval / time.Microsecond),
			DoublePressWindowMS: int(defaultDoublePressWindow / time.Millisecond),
		},
		Scan: ScanConfig{
			CPU:          -1,
			LockOSThread: false,
		},
		Queue: QueueConfig{
			WarnBacklog: defaultWarnBacklog,
		},
		Spin: SpinConfig{
			WindowMS: defaultSpinWindow,
		},
		IPC: IPCConfig{
			SocketPath: defaultIPCSocket,
		},
		HTTP: HTTPConfig{
			Port:   defaultHTTPPort,
			WSPath: defaultWSPath,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfigFile reads and parses a YAML config file on top of DefaultConfig.
//
// Unknown fields are rejected (helps catch typos) via KnownFields(true).
func LoadConfigFile(path string) (Config, error) {
	if path == "" {
		return Config{}, errors.New("config path is empty")
	}
	b, err := os.ReadFile(ExpandPath(path))
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	return parseConfig(b)
}

func parseConfig(b []byte) (Config, error) {
	cfg := DefaultConfig()

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)

	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config yaml: %w", err)
	}

	// Only whitespace/comments are allowed after the document.
	var trailing yaml.Node
	if err := dec.Decode(&trailing); !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decode config yaml: unexpected trailing document")
	}

	return cfg, nil
}

// FlagOverrides holds flag values that were explicitly set on the command line.
// A nil pointer means "not set".
type FlagOverrides struct {
	GPIOBackend *string
	IPCSocket   *string
	HTTPPort    *int
	LogLevel    *string
	ScanCPU     *int
}

// Apply merges the overrides into cfg. If an override pointer is nil, it is ignored.
func (o FlagOverrides) Apply(cfg *Config) {
	if cfg == nil {
		return
	}
	if o.GPIOBackend != nil {
		cfg.GPIO.Backend = *o.GPIOBackend
	}
	if o.IPCSocket != nil {
		cfg.IPC.SocketPath = *o.IPCSocket
	}
	if o.HTTPPort != nil {
		cfg.HTTP.Port = *o.HTTPPort
	}
	if o.LogLevel != nil {
		cfg.Logging.Level = *o.LogLevel
	}
	if o.ScanCPU != nil {
		cfg.Scan.CPU = *o.ScanCPU
	}
}

// Validate checks config invariants and returns a user-friendly error.
// This is intended to be called after defaults + file + overrides are applied.
func (c *Config) Validate() error {
	// GPIO
	c.GPIO.Backend = strings.ToLower(strings.TrimSpace(c.GPIO.Backend))
	switch c.GPIO.Backend {
	case backendPeriph:
		if c.GPIO.PinA == "" || c.GPIO.PinB == "" || c.GPIO.PinButton == "" {
			return errors.New("gpio.pin_a, gpio.pin_b and gpio.pin_button must not be empty for the periph backend")
		}
		if c.GPIO.PinA == c.GPIO.PinB || c.GPIO.PinA == c.GPIO.PinButton || c.GPIO.PinB == c.GPIO.PinButton {
			return errors.New("gpio.pin_a, gpio.pin_b and gpio.pin_button must be distinct")
		}
	case backendCdev:
		if c.GPIO.Chip == "" {
			return errors.New("gpio.chip must not be empty for the cdev backend")
		}
		if c.GPIO.LineA < 0 || c.GPIO.LineB < 0 || c.GPIO.LineButton < 0 {
			return errors.New("gpio.line_a, gpio.line_b and gpio.line_button must be >= 0")
		}
		if c.GPIO.LineA == c.GPIO.LineB || c.GPIO.LineA == c.GPIO.LineButton || c.GPIO.LineB == c.GPIO.LineButton {
			return errors.New("gpio.line_a, gpio.line_b and gpio.line_button must be distinct")
		}
	case backendSim:
	default:
		return fmt.Errorf("gpio.backend must be %q, %q or %q", backendPeriph, backendCdev, backendSim)
	}

	// Timing
	if c.Timing.SettleUS < 0 {
		return errors.New("timing.settle_us must be >= 0")
	}
	if c.Timing.ScanIntervalUS < 0 {
		return errors.New("timing.scan_interval_us must be >= 0")
	}
	if c.Timing.DoublePressWindowMS <= 0 {
		return errors.New("timing.double_press_window_ms must be > 0")
	}

	// Scan
	if c.Scan.CPU < -1 {
		return errors.New("scan.cpu must be >= -1")
	}

	// Queue / spin
	if c.Queue.WarnBacklog < 0 {
		return errors.New("queue.warn_backlog must be >= 0")
	}
	if c.Spin.WindowMS < 0 {
		return errors.New("spin.window_ms must be >= 0")
	}

	// IPC
	if c.IPC.SocketPath == "" {
		return errors.New("ipc.socket_path must not be empty")
	}

	// HTTP
	if c.HTTP.Port < 0 || c.HTTP.Port > 65535 {
		return errors.New("http.port must be between 0 and 65535")
	}
	if c.HTTP.Port > 0 && !strings.HasPrefix(c.HTTP.WSPath, "/") {
		return errors.New("http.ws_path must start with /")
	}

	// Logging
	if c.Logging.Level == "" {
		return errors.New("logging.level must not be empty")
	}
	if _, err := parseLogLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	if f := strings.ToLower(c.Logging.Format); f != "" && f != "text" && f != "json" {
		return errors.New(`logging.format must be "text" or "json"`)
	}

	return nil
}

// ToEngineConfig converts file config into the scan engine timing.
func (c *Config) ToEngineConfig() EngineConfig {
	return EngineConfig{
		SettleDelay:       time.Duration(c.Timing.SettleUS) * time.Microsecond,
		ScanInterval:      time.Duration(c.Timing.ScanIntervalUS) * time.Microsecond,
		DoublePressWindow: time.Duration(c.Timing.DoublePressWindowMS) * time.Millisecond,
		DeferClick:        c.Timing.DeferClick,
	}
}

// ExpandPath expands a leading "~" in a path using $HOME.
func ExpandPath(p string) string {
	if p == "" {
		return p
	}
	if p[0] != '~' {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	if p == "~" {
		return home
	}
	if len(p) >= 2 && (p[1] == '/' || p[1] == '\\') {
		return filepath.Join(home, p[2:])
	}
	return p
}
