package connectors

import "time"

// ConnectionState describes the engine connection lifecycle state shown on indicators.
type ConnectionState string

const (
	ConnectionStateDisconnected ConnectionState = "disconnected"
	ConnectionStateConnecting   ConnectionState = "connecting"
	ConnectionStateConnected    ConnectionState = "connected"
)

// Event is the closed set of payloads delivered to registered controllers.
// Only the dispatch router constructs these; controllers type-switch on them.
type Event interface {
	isEvent()
}

// ConnectionStatus is a bus and controller event snapshot of engine connection status.
type ConnectionStatus struct {
	State     ConnectionState
	Err       string
	Refused   bool
	URL       string
	Timestamp time.Time
}

func (ConnectionStatus) isEvent() {}

// StationState carries the steady-state flags the engine reports for a station.
type StationState struct {
	Callsign    string
	FrequencyHz int
	Rx          bool
	Tx          bool
	Xc          bool
	Headset     bool
}

func (StationState) isEvent() {}

// StationFlags is a per-callsign rx/tx/xc snapshot synthesized from the
// engine's frequency state lists. Headset state is not part of that feed.
type StationFlags struct {
	Callsign    string
	FrequencyHz int
	Rx          bool
	Tx          bool
	Xc          bool
}

func (StationFlags) isEvent() {}

// VoiceDirection distinguishes transmit from receive activity.
type VoiceDirection string

const (
	VoiceTx VoiceDirection = "tx"
	VoiceRx VoiceDirection = "rx"
)

// VoiceActivity is an edge-triggered begin/end marker layered atop the
// steady-state station flags.
type VoiceActivity struct {
	Callsign    string
	FrequencyHz int
	Direction   VoiceDirection
	Active      bool
}

func (VoiceActivity) isEvent() {}

// AtisLetter is a polled ATIS information letter for a station.
type AtisLetter struct {
	Station   string
	Letter    string
	UpdatedAt time.Time
}

// RawFrame carries frame diagnostics for debug/log views.
type RawFrame struct {
	Text string
	Len  int
}
