package indicator

import (
	"sync"

	"github.com/GeorgeBarlow/streamdeck-trackaudio/internal/connectors"
)

// StatusSnapshot mirrors the engine connection for the global indicator.
type StatusSnapshot struct {
	State   connectors.ConnectionState
	URL     string
	Err     string
	Refused bool
}

type StatusRenderFunc func(StatusSnapshot)

// StatusIndicator renders engine connection status. Status transitions are
// coarse, so renders happen immediately without a settle window.
type StatusIndicator struct {
	mu     sync.Mutex
	state  StatusSnapshot
	render StatusRenderFunc
}

func NewStatusIndicator(initial connectors.ConnectionState, render StatusRenderFunc) *StatusIndicator {
	ind := &StatusIndicator{
		state:  StatusSnapshot{State: initial},
		render: render,
	}
	ind.renderNow()

	return ind
}

func (i *StatusIndicator) UpdateState(ev connectors.Event) {
	status, ok := ev.(connectors.ConnectionStatus)
	if !ok {
		return
	}
	i.mu.Lock()
	i.state = StatusSnapshot{
		State:   status.State,
		URL:     status.URL,
		Err:     status.Err,
		Refused: status.Refused,
	}
	i.mu.Unlock()
	i.renderNow()
}

func (i *StatusIndicator) Reset() {
	i.mu.Lock()
	i.state = StatusSnapshot{State: connectors.ConnectionStateDisconnected}
	i.mu.Unlock()
	i.renderNow()
}

func (i *StatusIndicator) renderNow() {
	i.mu.Lock()
	snap := i.state
	i.mu.Unlock()
	i.render(snap)
}
