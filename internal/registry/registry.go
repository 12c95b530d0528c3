package registry

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/GeorgeBarlow/streamdeck-trackaudio/internal/connectors"
)

// Key identifies the engine entity a controller is bound to: a station
// callsign, or the connection-global scope.
type Key struct {
	callsign string
	global   bool
}

// Global is the sentinel key for controllers bound to engine connection
// status rather than a specific station.
var Global = Key{global: true}

func CallsignKey(callsign string) Key {
	return Key{callsign: strings.TrimSpace(callsign)}
}

func (k Key) Callsign() string {
	return k.callsign
}

func (k Key) IsGlobal() bool {
	return k.global
}

func (k Key) String() string {
	if k.global {
		return "<global>"
	}

	return k.callsign
}

// Controller is the contract the registry consumes from each bound
// indicator: state fan-out and a reset to the disconnected visual.
type Controller interface {
	UpdateState(ev connectors.Event)
	Reset()
}

// Registry maps entity keys to the controllers currently bound to them.
// It owns only the registration relationship, never the controllers.
type Registry struct {
	logger *slog.Logger

	mu      sync.RWMutex
	byKey   map[Key]map[Controller]struct{}
	current map[Controller]Key
}

func New(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default().With("component", "registry")
	}

	return &Registry{
		logger:  logger,
		byKey:   make(map[Key]map[Controller]struct{}),
		current: make(map[Controller]Key),
	}
}

// Register binds handle to key. A handle holds exactly one key at a time;
// registering an already-bound handle moves it.
func (r *Registry) Register(key Key, handle Controller) {
	if handle == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.current[handle]; ok {
		if prev == key {
			return
		}
		r.removeLocked(prev, handle)
	}

	set, ok := r.byKey[key]
	if !ok {
		set = make(map[Controller]struct{})
		r.byKey[key] = set
	}
	set[handle] = struct{}{}
	r.current[handle] = key
	r.logger.Debug("registered", "key", key.String(), "subscribers", len(set))
}

// Unregister removes the handle's entry regardless of key. Unknown handles
// are a no-op.
func (r *Registry) Unregister(handle Controller) {
	if handle == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key, ok := r.current[handle]
	if !ok {
		return
	}
	r.removeLocked(key, handle)
	delete(r.current, handle)
	r.logger.Debug("unregistered", "key", key.String())
}

// Update rebinds handle to newKey without tearing the indicator down.
func (r *Registry) Update(handle Controller, newKey Key) {
	r.Register(newKey, handle)
}

// Broadcast invokes UpdateState(ev) exactly once on every handle bound to
// key. Order across handles is unspecified.
func (r *Registry) Broadcast(key Key, ev connectors.Event) {
	for _, handle := range r.snapshot(key) {
		handle.UpdateState(ev)
	}
}

// ResetAll invokes Reset on every registered handle, regardless of key.
func (r *Registry) ResetAll() {
	r.mu.RLock()
	handles := make([]Controller, 0, len(r.current))
	for handle := range r.current {
		handles = append(handles, handle)
	}
	r.mu.RUnlock()

	for _, handle := range handles {
		handle.Reset()
	}
}

// Size reports the number of registered handles.
func (r *Registry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.current)
}

func (r *Registry) snapshot(key Key) []Controller {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set, ok := r.byKey[key]
	if !ok {
		return nil
	}
	handles := make([]Controller, 0, len(set))
	for handle := range set {
		handles = append(handles, handle)
	}

	return handles
}

func (r *Registry) removeLocked(key Key, handle Controller) {
	set, ok := r.byKey[key]
	if !ok {
		return
	}
	delete(set, handle)
	if len(set) == 0 {
		delete(r.byKey, key)
	}
}
