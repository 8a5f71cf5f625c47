package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lanternops/streamcast/internal/capture"
	"github.com/lanternops/streamcast/internal/config"
	"github.com/lanternops/streamcast/internal/diagnostics"
	"github.com/lanternops/streamcast/internal/encode"
	"github.com/lanternops/streamcast/internal/inputinjection"
	"github.com/lanternops/streamcast/internal/logging"
	"github.com/lanternops/streamcast/internal/metrics"
	"github.com/lanternops/streamcast/internal/pipeline"
	"github.com/lanternops/streamcast/internal/transport"
)

var (
	flagPort    int
	flagMonitor int
	flagVerbose bool
	flagDebugWS string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start capturing and streaming",
	Run: func(cmd *cobra.Command, args []string) {
		runDaemon()
	},
}

func init() {
	runCmd.Flags().IntVar(&flagPort, "port", 0, "override network.port from config")
	runCmd.Flags().IntVar(&flagMonitor, "monitor", -1, "override capture.monitor_index from config")
	runCmd.Flags().BoolVar(&flagVerbose, "verbose", false, "force debug-level logging")
	runCmd.Flags().StringVar(&flagDebugWS, "debug-ws", "", "address (e.g. 127.0.0.1:9090) to serve a read-only diagnostics websocket on; empty disables it")
}

func runDaemon() {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if flagPort != 0 {
		cfg.Network.Port = flagPort
	}
	if flagMonitor >= 0 {
		cfg.Capture.MonitorIndex = flagMonitor
	}

	level := cfg.Logging.Level
	if flagVerbose {
		level = "debug"
	}
	logging.Init(cfg.Logging.Format, level, os.Stdout)
	log = logging.L("main")

	log.Info("starting streamcastd",
		"version", version,
		"transport", cfg.Network.Transport,
		"resolution", fmt.Sprintf("%dx%d@%d", cfg.Video.Width, cfg.Video.Height, cfg.Video.FPS),
	)

	screen := capture.NewSynthetic(cfg.Video.Width, cfg.Video.Height)

	enc, err := encode.New(cfg.Video)
	if err != nil {
		log.Error("failed to initialize encoder", "error", err)
		os.Exit(1)
	}
	log.Info("encoder backend selected", "name", enc.BackendName(), "placeholder", enc.BackendIsPlaceholder())

	counters := metrics.New(time.Now())

	tr, err := newTransport(cfg, counters)
	if err != nil {
		log.Error("failed to initialize transport", "error", err)
		os.Exit(1)
	}

	inj := &inputinjection.NoopInjector{
		KeyboardEnabled: cfg.Input.KeyboardEnabled,
		MouseEnabled:    cfg.Input.MouseEnabled,
		GamepadEnabled:  cfg.Input.GamepadEnabled,
	}

	p := pipeline.New(screen, enc, tr, inj, cfg, counters)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if flagDebugWS != "" {
		diag := diagnostics.New(flagDebugWS, p)
		go func() {
			if err := diag.Start(ctx); err != nil {
				log.Warn("diagnostics server stopped", "error", err)
			}
		}()
		log.Info("diagnostics websocket enabled", "addr", flagDebugWS)
	}

	if err := p.Start(ctx); err != nil {
		log.Error("failed to start pipeline", "error", err)
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("shutting down")
	cancel()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer stopCancel()
	done := make(chan error, 1)
	go func() { done <- p.Stop() }()
	select {
	case err := <-done:
		if err != nil {
			log.Warn("pipeline stop returned error", "error", err)
		}
	case <-stopCtx.Done():
		log.Warn("pipeline stop timed out")
	}

	log.Info("streamcastd stopped")
}

func newTransport(cfg *config.Config, counters *metrics.Counters) (transport.Transport, error) {
	switch cfg.Network.Transport {
	case config.TransportWebRTC:
		return transport.NewWebRTC(cfg.Network.MaxPacketSize, nil, nil, counters)
	default:
		return transport.NewUDP(cfg.Network.BindAddress, cfg.Network.Port, cfg.Network.MaxPacketSize, counters), nil
	}
}
