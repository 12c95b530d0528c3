package trackaudio

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/GeorgeBarlow/streamdeck-trackaudio/internal/bus"
	"github.com/GeorgeBarlow/streamdeck-trackaudio/internal/connectors"
	"github.com/GeorgeBarlow/streamdeck-trackaudio/internal/registry"
)

type broadcastCall struct {
	key registry.Key
	ev  connectors.Event
}

type spyBroadcaster struct {
	mu     sync.Mutex
	calls  []broadcastCall
	resets int
}

func (s *spyBroadcaster) Broadcast(key registry.Key, ev connectors.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, broadcastCall{key: key, ev: ev})
}

func (s *spyBroadcaster) ResetAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resets++
}

func (s *spyBroadcaster) callsFor(key registry.Key) []connectors.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var events []connectors.Event
	for _, call := range s.calls {
		if call.key == key {
			events = append(events, call.ev)
		}
	}

	return events
}

func newTestRouter() (*Router, *spyBroadcaster, *bus.PubSubBus) {
	spy := &spyBroadcaster{}
	b := bus.New(testLogger())
	r := NewRouter(testLogger(), b, spy)

	return r, spy, b
}

func TestRouter_StationStateUpdateDispatchesByCallsign(t *testing.T) {
	r, spy, b := newTestRouter()
	defer b.Close()

	r.route(StationStateUpdate{StationState{
		Callsign:    "DAL123",
		FrequencyHz: 121500000,
		Rx:          true,
		Headset:     true,
	}})

	events := spy.callsFor(registry.CallsignKey("DAL123"))
	if len(events) != 1 {
		t.Fatalf("expected exactly one broadcast, got %d", len(events))
	}
	state, ok := events[0].(connectors.StationState)
	if !ok {
		t.Fatalf("unexpected event type: %T", events[0])
	}
	if !state.Rx || state.Tx || state.Xc || !state.Headset {
		t.Fatalf("flags not carried verbatim: %+v", state)
	}
}

func TestRouter_StationStatesFansOutPerStation(t *testing.T) {
	r, spy, b := newTestRouter()
	defer b.Close()

	r.route(StationStates{Stations: []StationState{
		{Callsign: "EGLL_TWR", FrequencyHz: 118500000, Tx: true},
		{Callsign: "EGLL_GND", FrequencyHz: 121900000, Rx: true},
		{FrequencyHz: 122000000}, // no callsign, no key to dispatch under
	}})

	if got := len(spy.callsFor(registry.CallsignKey("EGLL_TWR"))); got != 1 {
		t.Fatalf("EGLL_TWR broadcasts: got %d, want 1", got)
	}
	if got := len(spy.callsFor(registry.CallsignKey("EGLL_GND"))); got != 1 {
		t.Fatalf("EGLL_GND broadcasts: got %d, want 1", got)
	}
	spy.mu.Lock()
	total := len(spy.calls)
	spy.mu.Unlock()
	if total != 2 {
		t.Fatalf("expected 2 broadcasts in total, got %d", total)
	}
}

func TestRouter_FrequencyStateSynthesizesMembershipFlags(t *testing.T) {
	r, spy, b := newTestRouter()
	defer b.Close()

	radioTWR := Radio{FrequencyHz: 118500000, Callsign: "EGLL_TWR"}
	radioGND := Radio{FrequencyHz: 121900000, Callsign: "EGLL_GND"}
	radioDEL := Radio{FrequencyHz: 121975000, Callsign: "EGLL_DEL"}

	r.route(FrequencyStateUpdate{
		Rx:        []Radio{radioTWR},
		Tx:        []Radio{radioTWR, radioGND},
		Xc:        []Radio{},
		AllRadios: []Radio{radioTWR, radioGND, radioDEL},
	})

	check := func(callsign string, wantRx, wantTx, wantXc bool) {
		t.Helper()
		events := spy.callsFor(registry.CallsignKey(callsign))
		if len(events) != 1 {
			t.Fatalf("%s broadcasts: got %d, want 1", callsign, len(events))
		}
		flags, ok := events[0].(connectors.StationFlags)
		if !ok {
			t.Fatalf("%s: unexpected event type %T", callsign, events[0])
		}
		if flags.Rx != wantRx || flags.Tx != wantTx || flags.Xc != wantXc {
			t.Fatalf("%s: got %+v, want rx=%v tx=%v xc=%v", callsign, flags, wantRx, wantTx, wantXc)
		}
	}

	check("EGLL_TWR", true, true, false)
	check("EGLL_GND", false, true, false)
	// Present only in allRadios: all flags synthesized off to clear stale state.
	check("EGLL_DEL", false, false, false)
}

func TestRouter_FrequencyStateRefreshesGlobalStatus(t *testing.T) {
	r, spy, b := newTestRouter()
	defer b.Close()

	r.handleConnStatus(connectors.ConnectionStatus{State: connectors.ConnectionStateConnected})
	r.route(FrequencyStateUpdate{AllRadios: []Radio{{FrequencyHz: 118500000, Callsign: "EGLL_TWR"}}})

	globals := spy.callsFor(registry.Global)
	if len(globals) != 2 {
		t.Fatalf("expected status broadcast plus refresh, got %d global events", len(globals))
	}
	for _, ev := range globals {
		status, ok := ev.(connectors.ConnectionStatus)
		if !ok {
			t.Fatalf("unexpected global event type: %T", ev)
		}
		if status.State != connectors.ConnectionStateConnected {
			t.Fatalf("unexpected status state: %s", status.State)
		}
	}
}

func TestRouter_VoiceMarkersAreEdgeTriggered(t *testing.T) {
	r, spy, b := newTestRouter()
	defer b.Close()

	r.route(TxBegin{Callsign: "LON_S_CTR", FrequencyHz: 129420000})
	r.route(TxEnd{Callsign: "LON_S_CTR", FrequencyHz: 129420000})
	r.route(RxBegin{Callsign: "LON_S_CTR", FrequencyHz: 129420000})

	events := spy.callsFor(registry.CallsignKey("LON_S_CTR"))
	if len(events) != 3 {
		t.Fatalf("expected 3 voice events, got %d", len(events))
	}
	want := []connectors.VoiceActivity{
		{Callsign: "LON_S_CTR", FrequencyHz: 129420000, Direction: connectors.VoiceTx, Active: true},
		{Callsign: "LON_S_CTR", FrequencyHz: 129420000, Direction: connectors.VoiceTx, Active: false},
		{Callsign: "LON_S_CTR", FrequencyHz: 129420000, Direction: connectors.VoiceRx, Active: true},
	}
	for i, ev := range events {
		if ev != want[i] {
			t.Fatalf("voice event %d: got %#v, want %#v", i, ev, want[i])
		}
	}
}

func TestRouter_DisconnectedStatusResetsAll(t *testing.T) {
	r, spy, b := newTestRouter()
	defer b.Close()

	r.handleConnStatus(connectors.ConnectionStatus{State: connectors.ConnectionStateConnected})
	if spy.resets != 0 {
		t.Fatalf("connected status must not reset controllers")
	}

	r.handleConnStatus(connectors.ConnectionStatus{State: connectors.ConnectionStateDisconnected})
	if spy.resets != 1 {
		t.Fatalf("expected one resetAll, got %d", spy.resets)
	}
	globals := spy.callsFor(registry.Global)
	if len(globals) != 2 {
		t.Fatalf("expected one global broadcast per status, got %d", len(globals))
	}
}

func TestRouter_ConsumesBusTopics(t *testing.T) {
	r, spy, b := newTestRouter()
	defer b.Close()

	ctx, cancel := contextWithTestTimeout(t)
	defer cancel()
	r.Start(ctx)

	b.Publish(connectors.TopicEngineMessage, StationStateUpdate{StationState{Callsign: "DAL123", Rx: true}})

	waitFor(t, "routed broadcast", func() bool {
		return len(spy.callsFor(registry.CallsignKey("DAL123"))) == 1
	})
}

func contextWithTestTimeout(_ *testing.T) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 2*time.Second)
}
