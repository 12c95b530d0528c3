package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/GeorgeBarlow/streamdeck-trackaudio/internal/app"
	"github.com/GeorgeBarlow/streamdeck-trackaudio/internal/bus"
	"github.com/GeorgeBarlow/streamdeck-trackaudio/internal/config"
	"github.com/GeorgeBarlow/streamdeck-trackaudio/internal/connectors"
	"github.com/GeorgeBarlow/streamdeck-trackaudio/internal/logging"
	"github.com/GeorgeBarlow/streamdeck-trackaudio/internal/trackaudio"
	"github.com/GeorgeBarlow/streamdeck-trackaudio/internal/transport"
)

const connectWaitTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("run stationctl", "error", err)
		os.Exit(1)
	}
}

func run() error {
	engineURL := flag.String("url", "", "engine websocket url (overrides config)")
	frequency := flag.Int("frequency", 0, "station frequency in Hz, e.g. 121500000")
	tx := flag.String("tx", "", "transmit flag: on, off, or toggle")
	rx := flag.String("rx", "", "receive flag: on, off, or toggle")
	xc := flag.String("xc", "", "cross-couple flag: on, off, or toggle")
	flag.Parse()

	if *frequency <= 0 {
		return fmt.Errorf("missing --frequency")
	}

	var flags trackaudio.FlagSet
	var err error
	if flags.Tx, err = parseFlag(*tx); err != nil {
		return fmt.Errorf("--tx: %w", err)
	}
	if flags.Rx, err = parseFlag(*rx); err != nil {
		return fmt.Errorf("--rx: %w", err)
	}
	if flags.Xc, err = parseFlag(*xc); err != nil {
		return fmt.Errorf("--xc: %w", err)
	}
	if !flags.Tx.Specified() && !flags.Rx.Specified() && !flags.Xc.Specified() {
		return fmt.Errorf("nothing to do: set at least one of --tx, --rx, --xc")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	paths, err := app.ResolvePaths()
	if err != nil {
		return fmt.Errorf("resolve paths: %w", err)
	}
	cfg, err := config.Load(paths.ConfigFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if strings.TrimSpace(*engineURL) != "" {
		cfg.Engine.URL = strings.TrimSpace(*engineURL)
	}

	logMgr := logging.NewManager()
	cfg.Logging.LogToFile = false
	if err := logMgr.Configure(cfg.Logging, paths.LogFile); err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	defer func() {
		_ = logMgr.Close()
	}()
	logger := logMgr.Logger("cli")
	logger.Info("starting stationctl", "version", app.BuildVersion(), "engine_url", cfg.Engine.URL)

	b := bus.New(logMgr.Logger("bus"))
	defer b.Close()
	connSub := b.Subscribe(connectors.TopicConnStatus)

	tr := transport.NewWebSocketTransport(cfg.Engine.URL)
	svc := trackaudio.NewService(logMgr.Logger("trackaudio"), b, tr, 0)
	svc.Start(ctx)
	defer svc.Disconnect()

	if err := waitConnected(ctx, connSub); err != nil {
		return err
	}

	cmd := trackaudio.BuildSetStationState(*frequency, flags)
	if err := svc.Send(cmd); err != nil {
		return fmt.Errorf("send station state: %w", err)
	}
	logger.Info("station state command sent", "frequency_hz", *frequency)

	return nil
}

func waitConnected(ctx context.Context, sub bus.Subscription) error {
	deadline := time.After(connectWaitTimeout)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline:
			return fmt.Errorf("engine did not connect within %s", connectWaitTimeout)
		case raw, ok := <-sub:
			if !ok {
				return fmt.Errorf("connection status stream closed")
			}
			status, ok := raw.(connectors.ConnectionStatus)
			if !ok {
				continue
			}
			if status.State == connectors.ConnectionStateConnected {
				return nil
			}
		}
	}
}

func parseFlag(raw string) (trackaudio.Flag, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return trackaudio.Flag{}, nil
	case "on", "true":
		return trackaudio.SetFlag(true), nil
	case "off", "false":
		return trackaudio.SetFlag(false), nil
	case "toggle":
		return trackaudio.ToggleFlag(), nil
	default:
		return trackaudio.Flag{}, fmt.Errorf("unsupported value %q, want on, off, or toggle", raw)
	}
}
