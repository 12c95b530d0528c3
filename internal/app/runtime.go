package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/GeorgeBarlow/streamdeck-trackaudio/internal/atis"
	"github.com/GeorgeBarlow/streamdeck-trackaudio/internal/bus"
	"github.com/GeorgeBarlow/streamdeck-trackaudio/internal/config"
	"github.com/GeorgeBarlow/streamdeck-trackaudio/internal/connectors"
	"github.com/GeorgeBarlow/streamdeck-trackaudio/internal/domain"
	"github.com/GeorgeBarlow/streamdeck-trackaudio/internal/indicator"
	"github.com/GeorgeBarlow/streamdeck-trackaudio/internal/logging"
	"github.com/GeorgeBarlow/streamdeck-trackaudio/internal/notifications"
	"github.com/GeorgeBarlow/streamdeck-trackaudio/internal/registry"
	"github.com/GeorgeBarlow/streamdeck-trackaudio/internal/trackaudio"
	"github.com/GeorgeBarlow/streamdeck-trackaudio/internal/transport"
)

// Runtime wires the engine connection, dispatch, registry, and indicator
// lifecycle together. It is the documented single initialization point for
// the process-wide connection and registry singletons.
type Runtime struct {
	mu sync.RWMutex

	Ctx    context.Context
	cancel context.CancelFunc

	Paths  Paths
	Config config.AppConfig

	LogManager *logging.Manager
	Bus        *bus.PubSubBus

	Registry     *registry.Registry
	StationStore *domain.StationStore
	Engine       *trackaudio.Service
	Router       *trackaudio.Router
	Indicators   *indicator.Manager
	AtisPoller   *atis.Poller

	connStatusMu    sync.RWMutex
	connStatus      connectors.ConnectionStatus
	connStatusKnown bool
}

func Initialize(parent context.Context) (*Runtime, error) {
	paths, err := ResolvePaths()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(paths.ConfigFile)
	if err != nil {
		return nil, err
	}

	return InitializeWithConfig(parent, paths, cfg)
}

func InitializeWithConfig(parent context.Context, paths Paths, cfg config.AppConfig) (*Runtime, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	ctx, cancel := context.WithCancel(parent)
	rt := &Runtime{
		Ctx:    ctx,
		cancel: cancel,
		Paths:  paths,
		Config: cfg,
	}

	logMgr := logging.NewManager()
	if err := logMgr.Configure(cfg.Logging, paths.LogFile); err != nil {
		cancel()
		_ = logMgr.Close()

		return nil, fmt.Errorf("configure logging: %w", err)
	}
	rt.LogManager = logMgr
	slog.Info("starting trackdeck runtime", "version", BuildVersion(), "engine_url", cfg.Engine.URL)

	b := bus.New(logMgr.Logger("bus"))
	rt.Bus = b
	connSub := b.Subscribe(connectors.TopicConnStatus)
	go rt.captureConnStatus(ctx, connSub)

	rt.Registry = registry.New(logMgr.Logger("registry"))

	store := domain.NewStationStore()
	store.Start(ctx, b)
	rt.StationStore = store

	tr := transport.NewWebSocketTransport(cfg.Engine.URL)
	reconnectInterval := time.Duration(cfg.Engine.ReconnectIntervalMs) * time.Millisecond
	rt.Engine = trackaudio.NewService(logMgr.Logger("trackaudio"), b, tr, reconnectInterval)

	rt.Router = trackaudio.NewRouter(logMgr.Logger("router"), b, rt.Registry)
	rt.Router.Start(ctx)

	settleDelay := time.Duration(cfg.Indicators.SettleDelayMs) * time.Millisecond
	rt.Indicators = indicator.NewManager(
		logMgr.Logger("indicator"),
		rt.Registry,
		store,
		rt.Engine.ConnectionState,
		settleDelay,
	)

	if cfg.Notifications.ConnectionStatus {
		sender := notifications.NewBeeepSender(Name, logMgr.Logger("notifications"))
		svc := NewNotificationService(b, rt.CurrentConfig, sender, logMgr.Logger("app.notifications"))
		svc.Start(ctx)
	}

	if cfg.Atis.Enabled {
		rt.AtisPoller = atis.NewPoller(atis.PollerConfig{
			Endpoint: cfg.Atis.Endpoint,
			Stations: cfg.Atis.Stations,
			Interval: time.Duration(cfg.Atis.PollIntervalS) * time.Second,
			Logger:   logMgr.Logger("atis"),
		}, b)
		rt.AtisPoller.Start(ctx)
	}

	rt.Engine.Start(ctx)

	return rt, nil
}

func (r *Runtime) CurrentConfig() config.AppConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.Config
}

// ConnectionStatus returns the latest captured status snapshot.
func (r *Runtime) ConnectionStatus() (connectors.ConnectionStatus, bool) {
	r.connStatusMu.RLock()
	defer r.connStatusMu.RUnlock()

	return r.connStatus, r.connStatusKnown
}

func (r *Runtime) Close() error {
	if r.Indicators != nil {
		r.Indicators.RemoveAll()
	}
	if r.Engine != nil {
		r.Engine.Disconnect()
	}
	if r.cancel != nil {
		r.cancel()
	}
	if r.Bus != nil {
		r.Bus.Close()
	}
	if r.LogManager != nil {
		return r.LogManager.Close()
	}

	return nil
}

func (r *Runtime) captureConnStatus(ctx context.Context, sub bus.Subscription) {
	for {
		select {
		case <-ctx.Done():
			return
		case raw, ok := <-sub:
			if !ok {
				return
			}
			status, ok := raw.(connectors.ConnectionStatus)
			if !ok {
				continue
			}
			r.connStatusMu.Lock()
			r.connStatus = status
			r.connStatusKnown = true
			r.connStatusMu.Unlock()
		}
	}
}
