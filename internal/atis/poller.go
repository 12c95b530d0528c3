package atis

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/GeorgeBarlow/streamdeck-trackaudio/internal/bus"
	"github.com/GeorgeBarlow/streamdeck-trackaudio/internal/connectors"
)

const (
	defaultPollInterval   = 60 * time.Second
	defaultRequestTimeout = 15 * time.Second
	defaultFeedURL        = "https://data.vatsim.net/v3/vatsim-data.json"
)

// PollerConfig customizes the ATIS feed poller.
type PollerConfig struct {
	Endpoint   string
	Stations   []string
	HTTPClient *http.Client
	Interval   time.Duration
	Logger     *slog.Logger
}

// Poller periodically fetches the network data feed and publishes the ATIS
// information letter of each watched station when it changes. The feed is
// read-only; there is no protocol beyond a plain HTTP GET.
type Poller struct {
	endpoint string
	stations []string
	client   *http.Client
	interval time.Duration
	logger   *slog.Logger
	bus      bus.MessageBus

	mu      sync.RWMutex
	letters map[string]string

	startOnce sync.Once
}

type feedDocument struct {
	Atis []feedAtis `json:"atis"`
}

type feedAtis struct {
	Callsign string `json:"callsign"`
	AtisCode string `json:"atis_code"`
}

func NewPoller(cfg PollerConfig, b bus.MessageBus) *Poller {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = defaultFeedURL
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultRequestTimeout}
	}

	interval := cfg.Interval
	if interval <= 0 {
		interval = defaultPollInterval
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default().With("component", "atis")
	}

	stations := make([]string, 0, len(cfg.Stations))
	for _, station := range cfg.Stations {
		if trimmed := strings.TrimSpace(station); trimmed != "" {
			stations = append(stations, trimmed)
		}
	}

	return &Poller{
		endpoint: endpoint,
		stations: stations,
		client:   client,
		interval: interval,
		logger:   logger,
		bus:      b,
		letters:  make(map[string]string),
	}
}

func (p *Poller) Start(ctx context.Context) {
	if p == nil || len(p.stations) == 0 {
		return
	}

	p.startOnce.Do(func() {
		go p.run(ctx)
	})
}

// Letter returns the last seen information letter for a station.
func (p *Poller) Letter(station string) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	letter, ok := p.letters[station]

	return letter, ok
}

func (p *Poller) run(ctx context.Context) {
	p.logger.Info("atis poller started", "endpoint", p.endpoint, "interval", p.interval.String(), "stations", len(p.stations))

	if err := p.pollOnce(ctx); err != nil {
		p.logger.Warn("atis poll failed", "error", err)
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("atis poller stopped")

			return
		case <-ticker.C:
			if err := p.pollOnce(ctx); err != nil {
				p.logger.Warn("atis poll failed", "error", err)
			}
		}
	}
}

func (p *Poller) pollOnce(ctx context.Context) error {
	doc, err := p.fetchFeed(ctx)
	if err != nil {
		return err
	}

	byCallsign := make(map[string]string, len(doc.Atis))
	for _, entry := range doc.Atis {
		callsign := strings.TrimSpace(entry.Callsign)
		letter := strings.TrimSpace(entry.AtisCode)
		if callsign == "" || letter == "" {
			continue
		}
		byCallsign[callsign] = letter
	}

	now := time.Now()
	for _, station := range p.stations {
		letter, ok := byCallsign[station]
		if !ok {
			continue
		}

		p.mu.Lock()
		changed := p.letters[station] != letter
		p.letters[station] = letter
		p.mu.Unlock()

		if !changed {
			continue
		}
		p.logger.Info("atis letter changed", "station", station, "letter", letter)
		p.bus.Publish(connectors.TopicAtisLetter, connectors.AtisLetter{
			Station:   station,
			Letter:    letter,
			UpdatedAt: now,
		})
	}

	return nil
}

func (p *Poller) fetchFeed(ctx context.Context) (feedDocument, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint, nil)
	if err != nil {
		return feedDocument{}, fmt.Errorf("create feed request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return feedDocument{}, fmt.Errorf("request feed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		trimmed := strings.TrimSpace(string(body))
		if trimmed == "" {
			return feedDocument{}, fmt.Errorf("request feed: unexpected status %d", resp.StatusCode)
		}

		return feedDocument{}, fmt.Errorf("request feed: unexpected status %d: %s", resp.StatusCode, trimmed)
	}

	var doc feedDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return feedDocument{}, fmt.Errorf("decode feed response: %w", err)
	}

	return doc, nil
}
