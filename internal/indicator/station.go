package indicator

import (
	"sync"
	"time"

	"github.com/GeorgeBarlow/streamdeck-trackaudio/internal/connectors"
)

// StationSnapshot is what a station indicator renders: the engine's
// steady-state flags plus the transient voice activity overlay.
type StationSnapshot struct {
	Callsign    string
	FrequencyHz int
	Rx          bool
	Tx          bool
	Xc          bool
	Headset     bool
	TxActive    bool
	RxActive    bool
	Live        bool
}

type StationRenderFunc func(StationSnapshot)

// StationIndicator mirrors one station's state. Updates are coalesced by
// a settle timer; only its expiry invokes the render callback.
type StationIndicator struct {
	mu     sync.Mutex
	state  StationSnapshot
	settle *settleTimer
	render StationRenderFunc
}

func NewStationIndicator(callsign string, settleDelay time.Duration, render StationRenderFunc) *StationIndicator {
	ind := &StationIndicator{
		state:  StationSnapshot{Callsign: callsign},
		render: render,
	}
	ind.settle = newSettleTimer(settleDelay, ind.renderNow)

	return ind
}

func (i *StationIndicator) Callsign() string {
	i.mu.Lock()
	defer i.mu.Unlock()

	return i.state.Callsign
}

// Rebind switches the indicator to a new callsign, dropping state that
// belonged to the old one.
func (i *StationIndicator) Rebind(callsign string) {
	i.mu.Lock()
	i.state = StationSnapshot{Callsign: callsign}
	i.mu.Unlock()
	i.settle.Arm()
}

func (i *StationIndicator) UpdateState(ev connectors.Event) {
	i.mu.Lock()
	switch v := ev.(type) {
	case connectors.StationState:
		i.state.FrequencyHz = v.FrequencyHz
		i.state.Rx = v.Rx
		i.state.Tx = v.Tx
		i.state.Xc = v.Xc
		i.state.Headset = v.Headset
		i.state.Live = true
	case connectors.StationFlags:
		i.state.FrequencyHz = v.FrequencyHz
		i.state.Rx = v.Rx
		i.state.Tx = v.Tx
		i.state.Xc = v.Xc
		i.state.Live = true
	case connectors.VoiceActivity:
		// Edge-triggered: layered atop the steady-state flags, not a
		// replacement of them.
		switch v.Direction {
		case connectors.VoiceTx:
			i.state.TxActive = v.Active
		case connectors.VoiceRx:
			i.state.RxActive = v.Active
		}
	default:
		i.mu.Unlock()

		return
	}
	i.mu.Unlock()
	i.settle.Arm()
}

func (i *StationIndicator) Reset() {
	i.mu.Lock()
	i.state = StationSnapshot{Callsign: i.state.Callsign}
	i.mu.Unlock()
	i.settle.Arm()
}

// Close cancels the pending settle timer. Call before unregistering.
func (i *StationIndicator) Close() {
	i.settle.Cancel()
}

func (i *StationIndicator) renderNow() {
	i.mu.Lock()
	snap := i.state
	i.mu.Unlock()
	i.render(snap)
}
