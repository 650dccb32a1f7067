package callchan

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Broadcast kinds exchanged over a call room's channel. Delivery is
// at-most-once with no ordering guarantee across kinds; every payload is
// written so that applying it twice is harmless.
const (
	KindRaiseHand  = "raise_hand"
	KindMicControl = "mic_control"
	KindEndCall    = "end_call"
)

var ErrUnknownKind = errors.New("unknown broadcast kind")

type Event interface {
	Kind() string
}

type RaiseHandEvent struct {
	UserID string `json:"userId"`
	Raised bool   `json:"raised"`
}

func (RaiseHandEvent) Kind() string { return KindRaiseHand }

type MicControlEvent struct {
	TargetUserID string `json:"targetUserId"`
	Unmute       bool   `json:"unmute"`
}

func (MicControlEvent) Kind() string { return KindMicControl }

type EndCallEvent struct{}

func (EndCallEvent) Kind() string { return KindEndCall }

func ParseEvent(kind string, payload json.RawMessage) (Event, error) {
	switch kind {
	case KindRaiseHand:
		var ev RaiseHandEvent
		if err := json.Unmarshal(payload, &ev); err != nil {
			return nil, fmt.Errorf("can not unmarshal %v payload, err = %w", kind, err)
		}
		return ev, nil
	case KindMicControl:
		var ev MicControlEvent
		if err := json.Unmarshal(payload, &ev); err != nil {
			return nil, fmt.Errorf("can not unmarshal %v payload, err = %w", kind, err)
		}
		return ev, nil
	case KindEndCall:
		return EndCallEvent{}, nil
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownKind, kind)
	}
}

func marshalEvent(ev Event) (*PublishRequestMessage, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("can not marshal %v payload, err = %w", ev.Kind(), err)
	}
	return &PublishRequestMessage{Kind: ev.Kind(), Payload: payload}, nil
}
