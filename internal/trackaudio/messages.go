package trackaudio

// IncomingMessage is the closed set of engine messages the codec produces.
// The dispatch router is the only place that discriminates between kinds.
type IncomingMessage interface {
	incomingMessage()
}

// OutgoingMessage is the closed set of commands the codec can encode.
type OutgoingMessage interface {
	outgoingMessage()
}

// Radio identifies one frequency/callsign binding inside the engine's
// frequency state lists.
type Radio struct {
	FrequencyHz int    `json:"pFrequencyHz"`
	Callsign    string `json:"pCallsign"`
}

// FrequencyStateUpdate reports which radios currently have rx, tx, and xc
// enabled, by list membership. Radios absent from a list have that flag off.
type FrequencyStateUpdate struct {
	Rx        []Radio `json:"rx"`
	Tx        []Radio `json:"tx"`
	Xc        []Radio `json:"xc"`
	AllRadios []Radio `json:"allRadios"`
}

func (FrequencyStateUpdate) incomingMessage() {}

// StationState is the engine's full per-station flag snapshot.
type StationState struct {
	Callsign    string `json:"callsign"`
	FrequencyHz int    `json:"frequency"`
	Tx          bool   `json:"tx"`
	Rx          bool   `json:"rx"`
	Xc          bool   `json:"xc"`
	Headset     bool   `json:"headset"`
}

// StationStates is the bulk response to a kGetStationStates request.
type StationStates struct {
	Stations []StationState `json:"stations"`
}

func (StationStates) incomingMessage() {}

// StationStateUpdate is a single unsolicited station snapshot.
type StationStateUpdate struct {
	StationState
}

func (StationStateUpdate) incomingMessage() {}

// TxBegin/TxEnd and RxBegin/RxEnd are edge-triggered voice activity
// markers, not state snapshots.
type TxBegin struct {
	Callsign    string `json:"callsign"`
	FrequencyHz int    `json:"pFrequencyHz"`
}

func (TxBegin) incomingMessage() {}

type TxEnd struct {
	Callsign    string `json:"callsign"`
	FrequencyHz int    `json:"pFrequencyHz"`
}

func (TxEnd) incomingMessage() {}

type RxBegin struct {
	Callsign    string `json:"callsign"`
	FrequencyHz int    `json:"pFrequencyHz"`
}

func (RxBegin) incomingMessage() {}

type RxEnd struct {
	Callsign    string `json:"callsign"`
	FrequencyHz int    `json:"pFrequencyHz"`
}

func (RxEnd) incomingMessage() {}

// SetStationState asks the engine to change station flags. Unspecified
// flags are left untouched by the engine.
type SetStationState struct {
	FrequencyHz int
	Flags       FlagSet
}

func (SetStationState) outgoingMessage() {}

// GetStationStates requests a full station state resync.
type GetStationStates struct{}

func (GetStationStates) outgoingMessage() {}
