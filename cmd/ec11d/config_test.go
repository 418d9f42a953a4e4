package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParseConfig_OverlaysDefaults(t *testing.T) {
	cfg, err := parseConfig([]byte(`
gpio:
  backend: cdev
  line_button: 17
timing:
  settle_us: 500
  defer_click: true
logging:
  format: json
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if cfg.GPIO.Backend != backendCdev {
		t.Errorf("expected backend %q, got %q", backendCdev, cfg.GPIO.Backend)
	}
	if cfg.GPIO.LineButton != 17 {
		t.Errorf("expected line_button 17, got %d", cfg.GPIO.LineButton)
	}
	if cfg.GPIO.LineA != defaultLineA || cfg.GPIO.Chip != defaultChip {
		t.Errorf("expected untouched cdev defaults, got line_a=%d chip=%q", cfg.GPIO.LineA, cfg.GPIO.Chip)
	}
	if cfg.Timing.DoublePressWindowMS != 200 {
		t.Errorf("expected default double press window 200, got %d", cfg.Timing.DoublePressWindowMS)
	}

	ec := cfg.ToEngineConfig()
	if ec.SettleDelay != 500*time.Microsecond {
		t.Errorf("expected settle 500us, got %v", ec.SettleDelay)
	}
	if ec.ScanInterval != time.Millisecond {
		t.Errorf("expected scan interval 1ms, got %v", ec.ScanInterval)
	}
	if !ec.DeferClick {
		t.Errorf("expected defer_click to carry over")
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestParseConfig_RejectsUnknownField(t *testing.T) {
	_, err := parseConfig([]byte("timing:\n  settle_ms: 1\n"))
	if err == nil {
		t.Fatalf("expected error for unknown field")
	}
}

func TestParseConfig_RejectsTrailingDocument(t *testing.T) {
	_, err := parseConfig([]byte("http:\n  port: 0\n---\nhttp:\n  port: 1\n"))
	if err == nil || !strings.Contains(err.Error(), "trailing document") {
		t.Fatalf("expected trailing document error, got %v", err)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ec11d.yml")
	if err := os.WriteFile(path, []byte("ipc:\n  socket_path: /run/ec11d.sock\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.IPC.SocketPath != "/run/ec11d.sock" {
		t.Errorf("expected socket path from file, got %q", cfg.IPC.SocketPath)
	}

	if _, err := LoadConfigFile(filepath.Join(t.TempDir(), "missing.yml")); err == nil {
		t.Errorf("expected error for missing file")
	}
	if _, err := LoadConfigFile(""); err == nil {
		t.Errorf("expected error for empty path")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		ok     bool
	}{
		{"defaults", func(c *Config) {}, true},
		{"sim backend", func(c *Config) { c.GPIO.Backend = " SIM " }, true},
		{"unknown backend", func(c *Config) { c.GPIO.Backend = "spi" }, false},
		{"duplicate periph pins", func(c *Config) { c.GPIO.PinB = c.GPIO.PinA }, false},
		{"duplicate cdev lines", func(c *Config) {
			c.GPIO.Backend = backendCdev
			c.GPIO.LineButton = c.GPIO.LineA
		}, false},
		{"negative settle", func(c *Config) { c.Timing.SettleUS = -1 }, false},
		{"zero double press window", func(c *Config) { c.Timing.DoublePressWindowMS = 0 }, false},
		{"bad scan cpu", func(c *Config) { c.Scan.CPU = -2 }, false},
		{"empty socket", func(c *Config) { c.IPC.SocketPath = "" }, false},
		{"port out of range", func(c *Config) { c.HTTP.Port = 70000 }, false},
		{"http disabled ignores ws path", func(c *Config) {
			c.HTTP.Port = 0
			c.HTTP.WSPath = ""
		}, true},
		{"relative ws path", func(c *Config) { c.HTTP.WSPath = "ws" }, false},
		{"bad log level", func(c *Config) { c.Logging.Level = "trace" }, false},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, false},
	}

	for _, tt := range tests {
		cfg := DefaultConfig()
		tt.mutate(&cfg)
		err := cfg.Validate()
		if tt.ok && err != nil {
			t.Errorf("%s: expected valid, got %v", tt.name, err)
		}
		if !tt.ok && err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
}

func TestFlagOverrides_Apply(t *testing.T) {
	cfg := DefaultConfig()
	backend := backendSim
	port := 0
	cpu := 2

	FlagOverrides{GPIOBackend: &backend, HTTPPort: &port, ScanCPU: &cpu}.Apply(&cfg)

	if cfg.GPIO.Backend != backendSim || cfg.HTTP.Port != 0 || cfg.Scan.CPU != 2 {
		t.Errorf("overrides not applied: backend=%q port=%d cpu=%d", cfg.GPIO.Backend, cfg.HTTP.Port, cfg.Scan.CPU)
	}
	if cfg.IPC.SocketPath != defaultIPCSocket {
		t.Errorf("expected unset override to leave socket path alone, got %q", cfg.IPC.SocketPath)
	}

	FlagOverrides{}.Apply(nil)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	if got := ExpandPath("~/ec11d.yml"); got != filepath.Join(home, "ec11d.yml") {
		t.Errorf("expected path under home, got %q", got)
	}
	if got := ExpandPath("/etc/ec11d.yml"); got != "/etc/ec11d.yml" {
		t.Errorf("expected absolute path unchanged, got %q", got)
	}
}

func TestSetupLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := setupLogger(LogLevelWarn, "json", &buf)

	logger.Info("hidden")
	logger.Warn("shown", "position", 4)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("expected info to be filtered at warn level")
	}
	if !strings.Contains(out, `"msg":"shown"`) || !strings.Contains(out, `"position":4`) {
		t.Errorf("expected JSON record, got %q", out)
	}

	if _, err := parseLogLevel("verbose"); err == nil {
		t.Errorf("expected error for unknown level")
	}
	if lvl, err := parseLogLevel("WARNING"); err != nil || lvl != LogLevelWarn {
		t.Errorf("expected warn, got %q (%v)", lvl, err)
	}
}
