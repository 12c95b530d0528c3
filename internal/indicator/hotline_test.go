package indicator

import (
	"testing"

	"github.com/GeorgeBarlow/streamdeck-trackaudio/internal/connectors"
)

func TestHotlineIndicator_LegsFeedOneSnapshot(t *testing.T) {
	var last HotlineSnapshot
	ind := NewHotlineIndicator("EGLL_TWR", "EGLL_GND", 0, func(s HotlineSnapshot) { last = s })
	defer ind.Close()

	ind.PrimaryLeg().UpdateState(connectors.StationFlags{Callsign: "EGLL_TWR", Tx: true})
	ind.HotlineLeg().UpdateState(connectors.StationFlags{Callsign: "EGLL_GND", Rx: true})

	if !last.PrimaryTx {
		t.Fatalf("primary leg tx should set PrimaryTx: %+v", last)
	}
	if !last.Listening || last.Active {
		t.Fatalf("hotline rx should mean listening, not active: %+v", last)
	}
	if !last.Live {
		t.Fatalf("snapshot should be live after station updates")
	}
}

func TestHotlineIndicator_HotlineTxMeansActive(t *testing.T) {
	var last HotlineSnapshot
	ind := NewHotlineIndicator("EGLL_TWR", "EGLL_GND", 0, func(s HotlineSnapshot) { last = s })
	defer ind.Close()

	ind.HotlineLeg().UpdateState(connectors.StationFlags{Callsign: "EGLL_GND", Rx: true, Tx: true})
	if !last.Active || !last.Listening {
		t.Fatalf("hotline tx+rx should be active and listening: %+v", last)
	}

	ind.HotlineLeg().UpdateState(connectors.StationFlags{Callsign: "EGLL_GND", Rx: true})
	if last.Active {
		t.Fatalf("dropping hotline tx should clear active: %+v", last)
	}
}

func TestHotlineIndicator_VoiceOverlayOnlyOnHotlineLeg(t *testing.T) {
	var last HotlineSnapshot
	ind := NewHotlineIndicator("EGLL_TWR", "EGLL_GND", 0, func(s HotlineSnapshot) { last = s })
	defer ind.Close()

	ind.PrimaryLeg().UpdateState(connectors.VoiceActivity{Direction: connectors.VoiceRx, Active: true})
	if last.RxActive {
		t.Fatalf("primary leg voice activity must not set the hotline overlay")
	}

	ind.HotlineLeg().UpdateState(connectors.VoiceActivity{Direction: connectors.VoiceRx, Active: true})
	if !last.RxActive {
		t.Fatalf("hotline leg rx activity should set the overlay: %+v", last)
	}

	ind.HotlineLeg().UpdateState(connectors.VoiceActivity{Direction: connectors.VoiceRx, Active: false})
	if last.RxActive {
		t.Fatalf("overlay should clear on the end event: %+v", last)
	}
}

func TestHotlineIndicator_ResetFromEitherLegClearsBoth(t *testing.T) {
	var last HotlineSnapshot
	ind := NewHotlineIndicator("EGLL_TWR", "EGLL_GND", 0, func(s HotlineSnapshot) { last = s })
	defer ind.Close()

	ind.PrimaryLeg().UpdateState(connectors.StationFlags{Callsign: "EGLL_TWR", Tx: true})
	ind.HotlineLeg().UpdateState(connectors.StationFlags{Callsign: "EGLL_GND", Rx: true})
	ind.PrimaryLeg().Reset()

	want := HotlineSnapshot{PrimaryCallsign: "EGLL_TWR", HotlineCallsign: "EGLL_GND"}
	if last != want {
		t.Fatalf("reset snapshot = %+v, want %+v", last, want)
	}
}
