package indicator

import (
	"sync"
	"time"

	"github.com/GeorgeBarlow/streamdeck-trackaudio/internal/connectors"
	"github.com/GeorgeBarlow/streamdeck-trackaudio/internal/registry"
)

// HotlineSnapshot is the paired primary/hotline view: the hotline is
// "active" while its transmit flag is up, and "listening" while receive
// is up on the hotline station.
type HotlineSnapshot struct {
	PrimaryCallsign string
	HotlineCallsign string
	Listening       bool
	Active          bool
	PrimaryTx       bool
	RxActive        bool
	Live            bool
}

type HotlineRenderFunc func(HotlineSnapshot)

// HotlineIndicator layers a primary/hotline callsign pair on the same
// station-state feed. It exposes one registry leg per callsign; both legs
// feed a single snapshot and settle timer.
type HotlineIndicator struct {
	mu     sync.Mutex
	state  HotlineSnapshot
	settle *settleTimer
	render HotlineRenderFunc

	primaryLeg *hotlineLeg
	hotlineLeg *hotlineLeg
}

type hotlineLeg struct {
	parent  *HotlineIndicator
	hotline bool
}

func (l *hotlineLeg) UpdateState(ev connectors.Event) {
	l.parent.legUpdate(l.hotline, ev)
}

func (l *hotlineLeg) Reset() {
	l.parent.legReset()
}

func NewHotlineIndicator(primary, hotline string, settleDelay time.Duration, render HotlineRenderFunc) *HotlineIndicator {
	ind := &HotlineIndicator{
		state: HotlineSnapshot{
			PrimaryCallsign: primary,
			HotlineCallsign: hotline,
		},
		render: render,
	}
	ind.settle = newSettleTimer(settleDelay, ind.renderNow)
	ind.primaryLeg = &hotlineLeg{parent: ind}
	ind.hotlineLeg = &hotlineLeg{parent: ind, hotline: true}

	return ind
}

// PrimaryLeg is the controller handle registered under the primary callsign.
func (i *HotlineIndicator) PrimaryLeg() registry.Controller {
	return i.primaryLeg
}

// HotlineLeg is the controller handle registered under the hotline callsign.
func (i *HotlineIndicator) HotlineLeg() registry.Controller {
	return i.hotlineLeg
}

func (i *HotlineIndicator) Close() {
	i.settle.Cancel()
}

func (i *HotlineIndicator) legUpdate(hotline bool, ev connectors.Event) {
	i.mu.Lock()
	switch v := ev.(type) {
	case connectors.StationState:
		i.applyFlags(hotline, v.Rx, v.Tx)
	case connectors.StationFlags:
		i.applyFlags(hotline, v.Rx, v.Tx)
	case connectors.VoiceActivity:
		if hotline && v.Direction == connectors.VoiceRx {
			i.state.RxActive = v.Active
		}
	default:
		i.mu.Unlock()

		return
	}
	i.mu.Unlock()
	i.settle.Arm()
}

func (i *HotlineIndicator) applyFlags(hotline, rx, tx bool) {
	i.state.Live = true
	if hotline {
		i.state.Listening = rx
		i.state.Active = tx
		return
	}
	i.state.PrimaryTx = tx
}

func (i *HotlineIndicator) legReset() {
	i.mu.Lock()
	i.state = HotlineSnapshot{
		PrimaryCallsign: i.state.PrimaryCallsign,
		HotlineCallsign: i.state.HotlineCallsign,
	}
	i.mu.Unlock()
	i.settle.Arm()
}

func (i *HotlineIndicator) renderNow() {
	i.mu.Lock()
	snap := i.state
	i.mu.Unlock()
	i.render(snap)
}
