package trackaudio

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/GeorgeBarlow/streamdeck-trackaudio/internal/bus"
	"github.com/GeorgeBarlow/streamdeck-trackaudio/internal/connectors"
	"github.com/GeorgeBarlow/streamdeck-trackaudio/internal/registry"
)

// Broadcaster is the slice of the subscriber registry the router needs.
type Broadcaster interface {
	Broadcast(key registry.Key, ev connectors.Event)
	ResetAll()
}

// Router consumes decoded engine messages and lifecycle snapshots from the
// bus, resolves the affected entity keys, and fans state out to the bound
// controllers. It is the single place message kind is discriminated.
type Router struct {
	logger      *slog.Logger
	bus         bus.MessageBus
	subscribers Broadcaster

	lastStatus      connectors.ConnectionStatus
	lastStatusKnown bool
}

func NewRouter(logger *slog.Logger, b bus.MessageBus, subscribers Broadcaster) *Router {
	if logger == nil {
		logger = slog.Default().With("component", "router")
	}

	return &Router{
		logger:      logger,
		bus:         b,
		subscribers: subscribers,
	}
}

func (r *Router) Start(ctx context.Context) {
	sub := r.bus.Subscribe(connectors.TopicEngineMessage, connectors.TopicConnStatus)
	go func() {
		defer r.bus.Unsubscribe(sub, connectors.TopicEngineMessage, connectors.TopicConnStatus)
		for {
			select {
			case <-ctx.Done():
				return
			case raw, ok := <-sub:
				if !ok {
					return
				}
				switch v := raw.(type) {
				case connectors.ConnectionStatus:
					r.handleConnStatus(v)
				case IncomingMessage:
					r.route(v)
				}
			}
		}
	}()
}

func (r *Router) handleConnStatus(status connectors.ConnectionStatus) {
	r.lastStatus = status
	r.lastStatusKnown = true
	r.subscribers.Broadcast(registry.Global, status)

	if status.State == connectors.ConnectionStateDisconnected {
		// The engine's authoritative state is gone; clear every
		// station-scoped visual rather than showing stale data.
		r.subscribers.ResetAll()
	}
}

func (r *Router) route(msg IncomingMessage) {
	switch v := msg.(type) {
	case FrequencyStateUpdate:
		r.handleFrequencyState(v)
	case StationStates:
		for _, station := range v.Stations {
			r.handleStationState(connectors.StationState{
				Callsign:    station.Callsign,
				FrequencyHz: station.FrequencyHz,
				Rx:          station.Rx,
				Tx:          station.Tx,
				Xc:          station.Xc,
				Headset:     station.Headset,
			})
		}
	case StationStateUpdate:
		r.handleStationState(connectors.StationState{
			Callsign:    v.Callsign,
			FrequencyHz: v.FrequencyHz,
			Rx:          v.Rx,
			Tx:          v.Tx,
			Xc:          v.Xc,
			Headset:     v.Headset,
		})
	case TxBegin:
		r.handleVoice(v.Callsign, v.FrequencyHz, connectors.VoiceTx, true)
	case TxEnd:
		r.handleVoice(v.Callsign, v.FrequencyHz, connectors.VoiceTx, false)
	case RxBegin:
		r.handleVoice(v.Callsign, v.FrequencyHz, connectors.VoiceRx, true)
	case RxEnd:
		r.handleVoice(v.Callsign, v.FrequencyHz, connectors.VoiceRx, false)
	default:
		r.logger.Debug("no dispatch rule for message", "payload_type", fmt.Sprintf("%T", msg))
	}
}

// handleFrequencyState synthesizes a per-callsign rx/tx/xc snapshot from
// list membership. The engine never sends an explicit "off": radios that
// appear only in allRadios get an all-false snapshot so stale flags clear.
func (r *Router) handleFrequencyState(msg FrequencyStateUpdate) {
	order := make([]string, 0, len(msg.AllRadios))
	flags := make(map[string]*connectors.StationFlags)

	ensure := func(radio Radio) *connectors.StationFlags {
		callsign := strings.TrimSpace(radio.Callsign)
		if callsign == "" {
			return nil
		}
		snap, ok := flags[callsign]
		if !ok {
			snap = &connectors.StationFlags{Callsign: callsign, FrequencyHz: radio.FrequencyHz}
			flags[callsign] = snap
			order = append(order, callsign)
		}
		return snap
	}

	for _, radio := range msg.Rx {
		if snap := ensure(radio); snap != nil {
			snap.Rx = true
		}
	}
	for _, radio := range msg.Tx {
		if snap := ensure(radio); snap != nil {
			snap.Tx = true
		}
	}
	for _, radio := range msg.Xc {
		if snap := ensure(radio); snap != nil {
			snap.Xc = true
		}
	}
	for _, radio := range msg.AllRadios {
		ensure(radio)
	}

	for _, callsign := range order {
		snap := *flags[callsign]
		r.subscribers.Broadcast(registry.CallsignKey(callsign), snap)
		r.bus.Publish(connectors.TopicStationState, snap)
	}

	if r.lastStatusKnown {
		r.subscribers.Broadcast(registry.Global, r.lastStatus)
	}
}

func (r *Router) handleStationState(state connectors.StationState) {
	state.Callsign = strings.TrimSpace(state.Callsign)
	if state.Callsign == "" {
		r.logger.Debug("station state without callsign", "frequency_hz", state.FrequencyHz)

		return
	}
	r.subscribers.Broadcast(registry.CallsignKey(state.Callsign), state)
	r.bus.Publish(connectors.TopicStationState, state)
}

func (r *Router) handleVoice(callsign string, frequencyHz int, direction connectors.VoiceDirection, active bool) {
	callsign = strings.TrimSpace(callsign)
	if callsign == "" {
		return
	}
	ev := connectors.VoiceActivity{
		Callsign:    callsign,
		FrequencyHz: frequencyHz,
		Direction:   direction,
		Active:      active,
	}
	r.subscribers.Broadcast(registry.CallsignKey(callsign), ev)
	r.bus.Publish(connectors.TopicVoiceActivity, ev)
}
