package domain

import (
	"context"
	"sort"
	"sync"

	"github.com/GeorgeBarlow/streamdeck-trackaudio/internal/bus"
	"github.com/GeorgeBarlow/streamdeck-trackaudio/internal/connectors"
)

// StationStore keeps the latest station snapshots in memory so a freshly
// created indicator can paint current state without waiting for the next
// unsolicited engine update. It holds nothing across process restarts.
type StationStore struct {
	mu       sync.RWMutex
	stations map[string]connectors.StationState
}

func NewStationStore() *StationStore {
	return &StationStore{
		stations: make(map[string]connectors.StationState),
	}
}

func (s *StationStore) Start(ctx context.Context, b bus.MessageBus) {
	sub := b.Subscribe(connectors.TopicStationState, connectors.TopicConnStatus)
	go func() {
		defer b.Unsubscribe(sub, connectors.TopicStationState, connectors.TopicConnStatus)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-sub:
				if !ok {
					return
				}
				switch v := msg.(type) {
				case connectors.StationState:
					s.Upsert(v)
				case connectors.StationFlags:
					s.ApplyFlags(v)
				case connectors.ConnectionStatus:
					if v.State == connectors.ConnectionStateDisconnected {
						s.Clear()
					}
				}
			}
		}
	}()
}

func (s *StationStore) Upsert(state connectors.StationState) {
	if state.Callsign == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stations[state.Callsign] = state
}

// ApplyFlags merges an rx/tx/xc snapshot into the cached state, keeping
// the last-known headset flag. Unknown callsigns create a new entry.
func (s *StationStore) ApplyFlags(flags connectors.StationFlags) {
	if flags.Callsign == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.stations[flags.Callsign]
	if !ok {
		state = connectors.StationState{Callsign: flags.Callsign}
	}
	state.FrequencyHz = flags.FrequencyHz
	state.Rx = flags.Rx
	state.Tx = flags.Tx
	state.Xc = flags.Xc
	s.stations[flags.Callsign] = state
}

func (s *StationStore) Get(callsign string) (connectors.StationState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.stations[callsign]

	return state, ok
}

// All returns cached stations sorted by callsign.
func (s *StationStore) All() []connectors.StationState {
	s.mu.RLock()
	states := make([]connectors.StationState, 0, len(s.stations))
	for _, state := range s.stations {
		states = append(states, state)
	}
	s.mu.RUnlock()

	sort.Slice(states, func(i, j int) bool {
		return states[i].Callsign < states[j].Callsign
	})

	return states
}

// Clear drops all cached state. Used when the engine connection is lost
// and its authoritative state is no longer known.
func (s *StationStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stations = make(map[string]connectors.StationState)
}
