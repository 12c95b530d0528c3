package indicator

import (
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/GeorgeBarlow/streamdeck-trackaudio/internal/connectors"
	"github.com/GeorgeBarlow/streamdeck-trackaudio/internal/domain"
	"github.com/GeorgeBarlow/streamdeck-trackaudio/internal/registry"
)

// StateQuery reports the current engine connection state for initial paint.
type StateQuery func() connectors.ConnectionState

// Manager owns the indicator lifecycle: it creates controllers, binds them
// in the subscriber registry, seeds them from the station store, and makes
// sure settle timers are cancelled before a controller is unregistered.
type Manager struct {
	logger      *slog.Logger
	registry    *registry.Registry
	store       *domain.StationStore
	stateQuery  StateQuery
	settleDelay time.Duration

	mu      sync.Mutex
	managed map[string]*managedIndicator
}

type managedIndicator struct {
	kind   string
	close  func()
	rebind func(callsign string) error
}

func NewManager(logger *slog.Logger, reg *registry.Registry, store *domain.StationStore, stateQuery StateQuery, settleDelay time.Duration) *Manager {
	if logger == nil {
		logger = slog.Default().With("component", "indicator")
	}
	if settleDelay < 0 {
		settleDelay = DefaultSettleDelay
	}

	return &Manager{
		logger:      logger,
		registry:    reg,
		store:       store,
		stateQuery:  stateQuery,
		settleDelay: settleDelay,
		managed:     make(map[string]*managedIndicator),
	}
}

// AddStation creates a station indicator bound to callsign and returns its
// opaque id.
func (m *Manager) AddStation(callsign string, render StationRenderFunc) (string, error) {
	callsign = strings.TrimSpace(callsign)
	if callsign == "" {
		return "", errors.New("station callsign is required")
	}

	ind := NewStationIndicator(callsign, m.settleDelay, render)
	m.seedStation(ind, callsign)
	m.registry.Register(registry.CallsignKey(callsign), ind)

	id := uuid.NewString()
	m.track(id, &managedIndicator{
		kind: "station",
		close: func() {
			ind.Close()
			m.registry.Unregister(ind)
		},
		rebind: func(newCallsign string) error {
			newCallsign = strings.TrimSpace(newCallsign)
			if newCallsign == "" {
				return errors.New("station callsign is required")
			}
			ind.Rebind(newCallsign)
			m.registry.Update(ind, registry.CallsignKey(newCallsign))
			m.seedStation(ind, newCallsign)

			return nil
		},
	})
	m.logger.Info("station indicator added", "id", id, "callsign", callsign)

	return id, nil
}

// AddHotline creates a hotline indicator for a primary/hotline callsign
// pair and returns its opaque id.
func (m *Manager) AddHotline(primary, hotline string, render HotlineRenderFunc) (string, error) {
	primary = strings.TrimSpace(primary)
	hotline = strings.TrimSpace(hotline)
	if primary == "" || hotline == "" {
		return "", errors.New("hotline requires both callsigns")
	}

	ind := NewHotlineIndicator(primary, hotline, m.settleDelay, render)
	m.seedHotline(ind, primary, hotline)
	m.registry.Register(registry.CallsignKey(primary), ind.PrimaryLeg())
	m.registry.Register(registry.CallsignKey(hotline), ind.HotlineLeg())

	id := uuid.NewString()
	m.track(id, &managedIndicator{
		kind: "hotline",
		close: func() {
			ind.Close()
			m.registry.Unregister(ind.PrimaryLeg())
			m.registry.Unregister(ind.HotlineLeg())
		},
	})
	m.logger.Info("hotline indicator added", "id", id, "primary", primary, "hotline", hotline)

	return id, nil
}

// AddEngineStatus creates a connection status indicator on the global key.
func (m *Manager) AddEngineStatus(render StatusRenderFunc) string {
	initial := connectors.ConnectionStateDisconnected
	if m.stateQuery != nil {
		initial = m.stateQuery()
	}

	ind := NewStatusIndicator(initial, render)
	m.registry.Register(registry.Global, ind)

	id := uuid.NewString()
	m.track(id, &managedIndicator{
		kind: "status",
		close: func() {
			m.registry.Unregister(ind)
		},
	})
	m.logger.Info("engine status indicator added", "id", id)

	return id
}

// Rebind points a station indicator at a different callsign without
// tearing the indicator down. Used when its settings change.
func (m *Manager) Rebind(id, newCallsign string) error {
	m.mu.Lock()
	entry, ok := m.managed[id]
	m.mu.Unlock()
	if !ok {
		return errors.New("unknown indicator id")
	}
	if entry.rebind == nil {
		return errors.New("indicator kind does not support rebinding")
	}
	if err := entry.rebind(newCallsign); err != nil {
		return err
	}
	m.logger.Info("indicator rebound", "id", id, "callsign", newCallsign)

	return nil
}

// Remove tears one indicator down: pending settle timers are cancelled
// before the registry entry goes away. Unknown ids are a no-op.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	entry, ok := m.managed[id]
	if ok {
		delete(m.managed, id)
	}
	m.mu.Unlock()
	if !ok {
		return
	}
	entry.close()
	m.logger.Info("indicator removed", "id", id, "kind", entry.kind)
}

// RemoveAll tears down every managed indicator.
func (m *Manager) RemoveAll() {
	m.mu.Lock()
	entries := m.managed
	m.managed = make(map[string]*managedIndicator)
	m.mu.Unlock()

	for _, entry := range entries {
		entry.close()
	}
}

// Count reports the number of managed indicators.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.managed)
}

func (m *Manager) track(id string, entry *managedIndicator) {
	m.mu.Lock()
	m.managed[id] = entry
	m.mu.Unlock()
}

func (m *Manager) seedStation(ind *StationIndicator, callsign string) {
	if m.store == nil {
		return
	}
	if cached, ok := m.store.Get(callsign); ok {
		ind.UpdateState(cached)
	}
}

func (m *Manager) seedHotline(ind *HotlineIndicator, primary, hotline string) {
	if m.store == nil {
		return
	}
	if cached, ok := m.store.Get(primary); ok {
		ind.PrimaryLeg().UpdateState(cached)
	}
	if cached, ok := m.store.Get(hotline); ok {
		ind.HotlineLeg().UpdateState(cached)
	}
}
