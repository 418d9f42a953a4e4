package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
)

const version = "1.0.0"

func printVersion() {
	fmt.Printf("ec11d v%s\n", version)
	fmt.Println("Rotary encoder + push button input daemon")
}

func printUsage() {
	printVersion()
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  ec11d [OPTIONS]")
	fmt.Println()
	fmt.Println("DESCRIPTION:")
	fmt.Println("  Polls a quadrature rotary encoder (phase A/B) and an active-low push")
	fmt.Println("  button, debounces them and emits click, double click, rotate and")
	fmt.Println("  rotate-while-held events. Events are logged, streamed over WebSocket")
	fmt.Println("  and the engine can be inspected over a Unix socket.")
	fmt.Println()
	fmt.Println("OPTIONS:")
	fmt.Println("  -config string")
	fmt.Println("        Path to YAML config file (optional)")
	fmt.Println()
	fmt.Println("  -gpio-backend string")
	fmt.Printf("        GPIO backend: %s|%s|%s (default %q)\n", backendPeriph, backendCdev, backendSim, backendPeriph)
	fmt.Println()
	fmt.Println("  -ipc-socket string")
	fmt.Printf("        Unix domain socket path for IPC (default %q)\n", defaultIPCSocket)
	fmt.Println()
	fmt.Println("  -http-port int")
	fmt.Printf("        HTTP port for the event stream, 0 disables (default %d)\n", defaultHTTPPort)
	fmt.Println()
	fmt.Println("  -scan-cpu int")
	fmt.Println("        Pin the scan loop to this CPU, -1 disables (default -1)")
	fmt.Println()
	fmt.Println("  -log-level string")
	fmt.Println("        Log level: error, warn, info, debug (default \"info\")")
	fmt.Println()
	fmt.Println("  -version")
	fmt.Println("        Print version and exit")
	fmt.Println()
	fmt.Println("  -help")
	fmt.Println("        Print this help message")
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  # Raspberry Pi, default pins (button GPIO2, A GPIO3, B GPIO4)")
	fmt.Println("  ec11d")
	fmt.Println()
	fmt.Println("  # Character device backend with a config file")
	fmt.Println("  ec11d -config /etc/ec11d.yml -gpio-backend cdev")
	fmt.Println()
	fmt.Println("  # Bench run without hardware, driven by ec11-ctl")
	fmt.Println("  ec11d -gpio-backend sim -log-level debug")
	fmt.Println("  ec11-ctl gesture cw 3")
	fmt.Println()
}

func main() {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" {
			printVersion()
			return
		}
		if arg == "-help" || arg == "--help" || arg == "-h" {
			printUsage()
			return
		}
	}

	var (
		configPath  = flag.String("config", "", "Path to YAML config file")
		gpioBackend = flag.String("gpio-backend", backendPeriph, "GPIO backend: periph|cdev|sim")
		ipcSocket   = flag.String("ipc-socket", defaultIPCSocket, "Unix domain socket path for IPC")
		httpPort    = flag.Int("http-port", defaultHTTPPort, "HTTP port for the event stream (0 disables)")
		scanCPU     = flag.Int("scan-cpu", -1, "Pin the scan loop to this CPU (-1 disables)")
		logLevelStr = flag.String("log-level", "info", "Log level: error, warn, info, debug")
		showVersion = flag.Bool("version", false, "Print version and exit")
		showHelp    = flag.Bool("help", false, "Print help message")
	)

	flag.Usage = printUsage
	flag.Parse()

	if *showHelp {
		printUsage()
		return
	}
	if *showVersion {
		printVersion()
		return
	}

	cfg := DefaultConfig()
	if *configPath != "" {
		loaded, err := LoadConfigFile(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	// Only flags given on the command line override the file.
	var overrides FlagOverrides
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "gpio-backend":
			overrides.GPIOBackend = gpioBackend
		case "ipc-socket":
			overrides.IPCSocket = ipcSocket
		case "http-port":
			overrides.HTTPPort = httpPort
		case "scan-cpu":
			overrides.ScanCPU = scanCPU
		case "log-level":
			overrides.LogLevel = logLevelStr
		}
	})
	overrides.Apply(&cfg)

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	logLevel, err := parseLogLevel(cfg.Logging.Level)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	logger := setupLogger(logLevel, cfg.Logging.Format, os.Stdout)

	opened, err := openPins(cfg.GPIO, logger)
	if err != nil {
		logger.Error("failed to open gpio", "backend", cfg.GPIO.Backend, "error", err, "tip", "run as root or add user to the 'gpio' group")
		os.Exit(1)
	}
	defer opened.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	engineCfg := cfg.ToEngineConfig()
	queue := NewEventQueue(cfg.Queue.WarnBacklog, logger)
	engine := NewEngine(opened.Pins, newMonotonicClock(), queue, engineCfg, logger)
	spin := newSpinTracker(time.Duration(cfg.Spin.WindowMS) * time.Millisecond)
	stream := NewStreamServer(logger, engine, HubConfig{})

	ipc := &ipcHandler{
		engine:   engine,
		queue:    queue,
		spin:     spin,
		sim:      opened.Sim,
		backend:  cfg.GPIO.Backend,
		clickGap: engineCfg.DoublePressWindow + 50*time.Millisecond,
		logger:   logger,
	}

	logger.Debug("starting ec11d", "version", version)
	logger.Debug("configuration",
		"gpio_backend", cfg.GPIO.Backend,
		"settle_us", cfg.Timing.SettleUS,
		"scan_interval_us", cfg.Timing.ScanIntervalUS,
		"double_press_window_ms", cfg.Timing.DoublePressWindowMS,
		"defer_click", cfg.Timing.DeferClick,
		"scan_cpu", cfg.Scan.CPU,
		"lock_os_thread", cfg.Scan.LockOSThread,
		"queue_warn_backlog", cfg.Queue.WarnBacklog,
		"spin_window_ms", cfg.Spin.WindowMS,
		"ipc_socket", cfg.IPC.SocketPath,
		"http_port", cfg.HTTP.Port,
		"ws_path", cfg.HTTP.WSPath)

	g, gctx := errgroup.WithContext(ctx)

	// Scan loop: the only owner of engine state.
	g.Go(func() error {
		unlock, err := pinScanThread(cfg.Scan.CPU, cfg.Scan.LockOSThread)
		if err != nil {
			logger.Warn("scan thread placement failed", "cpu", cfg.Scan.CPU, "error", err)
		}
		defer unlock()
		// Closing lets the consumer drain what is left and stop.
		defer queue.Close()
		return engine.Run(gctx)
	})

	// Ends after the scan loop closes the queue, not on gctx.
	g.Go(func() error {
		return runConsumer(gctx, queue, spin, stream.Hub(), logger)
	})

	g.Go(func() error {
		stream.Hub().Run(gctx)
		return nil
	})

	if cfg.HTTP.Port > 0 {
		mux := newHTTPMux(stream, cfg.HTTP.WSPath, queue)
		g.Go(func() error {
			return runHTTPServer(gctx, cfg.HTTP.Port, mux, logger)
		})
	}

	g.Go(func() error {
		return runIPCServer(gctx, cfg.IPC.SocketPath, ipc, logger)
	})

	logger.Info("running", "gpio_backend", cfg.GPIO.Backend, "ipc", cfg.IPC.SocketPath, "http_port", cfg.HTTP.Port)

	if err := g.Wait(); err != nil {
		logger.Error("daemon stopped", "error", err)
		_ = opened.Close()
		os.Exit(1)
	}
	logger.Info("shut down")
}
