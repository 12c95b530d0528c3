package indicator

import (
	"sync"
	"time"
)

// DefaultSettleDelay coalesces rapid successive state changes into a
// single downstream render after a quiet window.
const DefaultSettleDelay = 100 * time.Millisecond

// settleTimer arms a single pending timer per controller. Re-arming
// cancels the previous pending fire; Cancel stops it permanently so no
// stale callback runs against a removed controller.
type settleTimer struct {
	mu      sync.Mutex
	delay   time.Duration
	timer   *time.Timer
	stopped bool
	fire    func()
}

func newSettleTimer(delay time.Duration, fire func()) *settleTimer {
	return &settleTimer{delay: delay, fire: fire}
}

func (t *settleTimer) Arm() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	if t.delay <= 0 {
		t.fire()

		return
	}
	if t.timer != nil {
		t.timer.Stop()
	}
	t.timer = time.AfterFunc(t.delay, t.firePending)
}

// firePending runs under the mutex so Cancel cannot return while a fire is
// in flight: an expiry that lost the race to Cancel sees stopped and drops.
func (t *settleTimer) firePending() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	t.fire()
}

func (t *settleTimer) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}
