package trackaudio

import (
	"encoding/json"
	"fmt"
)

// Engine wire type tags, one per message kind.
const (
	typeFrequencyStateUpdate = "kFrequencyStateUpdate"
	typeStationStates        = "kStationStates"
	typeStationStateUpdate   = "kStationStateUpdate"
	typeTxBegin              = "kTxBegin"
	typeTxEnd                = "kTxEnd"
	typeRxBegin              = "kRxBegin"
	typeRxEnd                = "kRxEnd"
	typeSetStationState      = "kSetStationState"
	typeGetStationStates     = "kGetStationStates"
)

type envelope struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

type outEnvelope struct {
	Type  string `json:"type"`
	Value any    `json:"value,omitempty"`
}

type setStationStateValue struct {
	Frequency int   `json:"frequency"`
	Tx        *Flag `json:"tx,omitempty"`
	Rx        *Flag `json:"rx,omitempty"`
	Xc        *Flag `json:"xc,omitempty"`
}

// Codec translates between engine JSON frames and the typed message sets.
type Codec struct{}

// DecodeIncoming parses one inbound frame. Frames with an unrecognized
// type tag decode to (nil, nil): they are ignored, never an error.
func (Codec) DecodeIncoming(payload []byte) (IncomingMessage, error) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("decode frame envelope: %w", err)
	}

	switch env.Type {
	case typeFrequencyStateUpdate:
		var msg FrequencyStateUpdate
		if err := unmarshalValue(env, &msg); err != nil {
			return nil, err
		}
		return msg, nil
	case typeStationStates:
		var msg StationStates
		if err := unmarshalValue(env, &msg); err != nil {
			return nil, err
		}
		return msg, nil
	case typeStationStateUpdate:
		var msg StationStateUpdate
		if err := unmarshalValue(env, &msg); err != nil {
			return nil, err
		}
		return msg, nil
	case typeTxBegin:
		var msg TxBegin
		if err := unmarshalValue(env, &msg); err != nil {
			return nil, err
		}
		return msg, nil
	case typeTxEnd:
		var msg TxEnd
		if err := unmarshalValue(env, &msg); err != nil {
			return nil, err
		}
		return msg, nil
	case typeRxBegin:
		var msg RxBegin
		if err := unmarshalValue(env, &msg); err != nil {
			return nil, err
		}
		return msg, nil
	case typeRxEnd:
		var msg RxEnd
		if err := unmarshalValue(env, &msg); err != nil {
			return nil, err
		}
		return msg, nil
	default:
		return nil, nil
	}
}

// EncodeOutgoing renders one command as an engine JSON frame.
func (Codec) EncodeOutgoing(msg OutgoingMessage) ([]byte, error) {
	switch cmd := msg.(type) {
	case SetStationState:
		value := setStationStateValue{Frequency: cmd.FrequencyHz}
		if cmd.Flags.Tx.Specified() {
			tx := cmd.Flags.Tx
			value.Tx = &tx
		}
		if cmd.Flags.Rx.Specified() {
			rx := cmd.Flags.Rx
			value.Rx = &rx
		}
		if cmd.Flags.Xc.Specified() {
			xc := cmd.Flags.Xc
			value.Xc = &xc
		}
		return marshalEnvelope(typeSetStationState, value)
	case GetStationStates:
		// Type-only frame, no payload.
		return marshalEnvelope(typeGetStationStates, nil)
	default:
		return nil, fmt.Errorf("encode: unsupported outgoing message %T", msg)
	}
}

func unmarshalValue(env envelope, dst any) error {
	if len(env.Value) == 0 {
		return fmt.Errorf("decode %s: missing value", env.Type)
	}
	if err := json.Unmarshal(env.Value, dst); err != nil {
		return fmt.Errorf("decode %s value: %w", env.Type, err)
	}

	return nil
}

func marshalEnvelope(msgType string, value any) ([]byte, error) {
	raw, err := json.Marshal(outEnvelope{Type: msgType, Value: value})
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", msgType, err)
	}

	return raw, nil
}
