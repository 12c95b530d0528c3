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
	"github.com/GeorgeBarlow/streamdeck-trackaudio/internal/config"
	"github.com/GeorgeBarlow/streamdeck-trackaudio/internal/connectors"
	"github.com/GeorgeBarlow/streamdeck-trackaudio/internal/indicator"
)

func main() {
	if err := run(); err != nil {
		slog.Error("run monitor", "error", err)
		os.Exit(1)
	}
}

func run() error {
	engineURL := flag.String("url", "", "engine websocket url (overrides config)")
	stations := flag.String("stations", "", "comma-separated station callsigns to watch")
	hotline := flag.String("hotline", "", "hotline pair as PRIMARY:HOTLINE")
	listenFor := flag.Duration("listen-for", 0, "listen duration, e.g. 30s (0 = until interrupted)")
	flag.Parse()

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
	cfg.Logging.LogToFile = false

	rt, err := app.InitializeWithConfig(ctx, paths, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := rt.Close(); closeErr != nil {
			slog.Warn("close runtime", "error", closeErr)
		}
	}()
	logger := rt.LogManager.Logger("cli")
	logger.Info("starting trackdeck monitor", "version", app.BuildVersionWithDate(), "engine_url", cfg.Engine.URL)

	rt.Indicators.AddEngineStatus(func(snap indicator.StatusSnapshot) {
		line := fmt.Sprintf("[engine] %s", snap.State)
		if snap.Err != "" {
			line += " (" + snap.Err + ")"
		}
		fmt.Println(line)
	})

	for _, callsign := range splitStations(*stations) {
		callsign := callsign
		if _, err := rt.Indicators.AddStation(callsign, func(snap indicator.StationSnapshot) {
			fmt.Printf("[%s] %s\n", callsign, formatStation(snap))
		}); err != nil {
			return fmt.Errorf("watch station %q: %w", callsign, err)
		}
	}

	if pair := strings.TrimSpace(*hotline); pair != "" {
		primary, secondary, ok := strings.Cut(pair, ":")
		if !ok {
			return fmt.Errorf("invalid hotline pair %q, expected PRIMARY:HOTLINE", pair)
		}
		if _, err := rt.Indicators.AddHotline(primary, secondary, func(snap indicator.HotlineSnapshot) {
			fmt.Printf("[hotline %s/%s] %s\n", snap.PrimaryCallsign, snap.HotlineCallsign, formatHotline(snap))
		}); err != nil {
			return fmt.Errorf("watch hotline %q: %w", pair, err)
		}
	}

	watchAtis(ctx, rt)

	if *listenFor > 0 {
		select {
		case <-ctx.Done():
		case <-time.After(*listenFor):
			logger.Info("listen window elapsed")
		}

		return nil
	}

	<-ctx.Done()
	logger.Info("shutting down")

	return nil
}

func watchAtis(ctx context.Context, rt *app.Runtime) {
	if rt.AtisPoller == nil {
		return
	}
	sub := rt.Bus.Subscribe(connectors.TopicAtisLetter)
	go func() {
		defer rt.Bus.Unsubscribe(sub, connectors.TopicAtisLetter)
		for {
			select {
			case <-ctx.Done():
				return
			case raw, ok := <-sub:
				if !ok {
					return
				}
				if letter, ok := raw.(connectors.AtisLetter); ok {
					fmt.Printf("[atis %s] information %s\n", letter.Station, letter.Letter)
				}
			}
		}
	}()
}

func splitStations(raw string) []string {
	parts := strings.Split(raw, ",")
	stations := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			stations = append(stations, trimmed)
		}
	}

	return stations
}

func formatStation(snap indicator.StationSnapshot) string {
	if !snap.Live {
		return "no data"
	}
	flags := make([]string, 0, 6)
	if snap.Rx {
		flags = append(flags, "rx")
	}
	if snap.Tx {
		flags = append(flags, "tx")
	}
	if snap.Xc {
		flags = append(flags, "xc")
	}
	if snap.Headset {
		flags = append(flags, "headset")
	}
	if snap.TxActive {
		flags = append(flags, "TRANSMITTING")
	}
	if snap.RxActive {
		flags = append(flags, "RECEIVING")
	}
	if len(flags) == 0 {
		return "idle"
	}

	return strings.Join(flags, " ")
}

func formatHotline(snap indicator.HotlineSnapshot) string {
	if !snap.Live {
		return "no data"
	}
	switch {
	case snap.Active:
		return "active"
	case snap.RxActive:
		return "incoming"
	case snap.Listening:
		return "listening"
	default:
		return "idle"
	}
}
