package indicator

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestSettleTimer_CoalescesRapidArms(t *testing.T) {
	var fires atomic.Int32
	timer := newSettleTimer(30*time.Millisecond, func() { fires.Add(1) })
	defer timer.Cancel()

	timer.Arm()
	time.Sleep(5 * time.Millisecond)
	timer.Arm()
	time.Sleep(5 * time.Millisecond)
	timer.Arm()

	time.Sleep(60 * time.Millisecond)
	if got := fires.Load(); got != 1 {
		t.Fatalf("expected one coalesced fire, got %d", got)
	}
}

func TestSettleTimer_CancelPreventsStaleFire(t *testing.T) {
	var fires atomic.Int32
	timer := newSettleTimer(10*time.Millisecond, func() { fires.Add(1) })

	timer.Arm()
	timer.Cancel()

	time.Sleep(30 * time.Millisecond)
	if got := fires.Load(); got != 0 {
		t.Fatalf("cancelled timer must not fire, got %d", got)
	}

	// Arming after Cancel stays dead.
	timer.Arm()
	time.Sleep(30 * time.Millisecond)
	if got := fires.Load(); got != 0 {
		t.Fatalf("timer must stay cancelled, got %d fires", got)
	}
}

func TestSettleTimer_ExpiryRacingCancelNeverFiresLate(t *testing.T) {
	// An expiry already dispatched by the runtime when Cancel runs must
	// either finish before Cancel returns or see stopped and drop; the
	// count may never move after Cancel.
	for attempt := 0; attempt < 200; attempt++ {
		var fires atomic.Int32
		timer := newSettleTimer(time.Microsecond, func() { fires.Add(1) })

		timer.Arm()
		time.Sleep(50 * time.Microsecond)
		timer.Cancel()
		settled := fires.Load()

		time.Sleep(time.Millisecond)
		if got := fires.Load(); got != settled {
			t.Fatalf("attempt %d: fire after Cancel returned (before=%d after=%d)", attempt, settled, got)
		}
	}
}

func TestSettleTimer_ZeroDelayFiresSynchronously(t *testing.T) {
	var fires atomic.Int32
	timer := newSettleTimer(0, func() { fires.Add(1) })
	defer timer.Cancel()

	timer.Arm()
	if got := fires.Load(); got != 1 {
		t.Fatalf("zero-delay arm must fire immediately, got %d", got)
	}
}
