package trackaudio

import "errors"

type flagKind int

const (
	flagUnspecified flagKind = iota
	flagSet
	flagToggle
)

// Flag is a tri-state request for one station boolean: set an explicit
// value, ask the engine to toggle its current value, or leave it alone.
// The zero value is unspecified and is omitted from the wire message.
type Flag struct {
	kind  flagKind
	value bool
}

func SetFlag(value bool) Flag {
	return Flag{kind: flagSet, value: value}
}

// ToggleFlag asks the engine to invert its current value. The engine is
// authoritative; the client never tracks and flips state locally.
func ToggleFlag() Flag {
	return Flag{kind: flagToggle}
}

func (f Flag) Specified() bool {
	return f.kind != flagUnspecified
}

func (f Flag) MarshalJSON() ([]byte, error) {
	switch f.kind {
	case flagToggle:
		return []byte(`"toggle"`), nil
	case flagSet:
		if f.value {
			return []byte("true"), nil
		}
		return []byte("false"), nil
	default:
		return nil, errors.New("marshal unspecified flag")
	}
}

// FlagSet groups the tri-state requests of one SetStationState command.
type FlagSet struct {
	Tx Flag
	Rx Flag
	Xc Flag
}

func BuildSetStationState(frequencyHz int, flags FlagSet) SetStationState {
	return SetStationState{FrequencyHz: frequencyHz, Flags: flags}
}

func BuildGetStationStates() GetStationStates {
	return GetStationStates{}
}
