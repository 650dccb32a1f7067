package callchan

import (
	"encoding/json"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
)

type RequestMessage interface {
	typ() string
}

type RegisterRequestMessage struct {
	Room        string         `json:"room"`
	AccessToken string         `json:"accessToken"`
	ClientID    string         `json:"clientId"`
	Presence    PresenceRecord `json:"presence"`
	Version     int            `json:"version"`
}

func (msg *RegisterRequestMessage) typ() string {
	return "register"
}

type PublishRequestMessage struct {
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

func (msg *PublishRequestMessage) typ() string {
	return "publish"
}

type AnnounceRequestMessage struct {
	Presence PresenceRecord `json:"presence"`
}

func (msg *AnnounceRequestMessage) typ() string {
	return "announce"
}

type RegisteredResponseMessage struct {
	ClientID string `json:"clientId"`
}

// BroadcastResponseMessage carries a peer's fire-and-forget message. The
// channel service never echoes a broadcast back to its sender.
type BroadcastResponseMessage struct {
	From    string          `json:"from"`
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// PresenceResponseMessage is a full-state snapshot, not a delta: it lists
// every record currently tracked on the room's presence topic, keyed by the
// announcing client.
type PresenceResponseMessage struct {
	State map[string][]PresenceRecord `json:"state"`
}

type messageToWrite struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

func extractPayload(msg []byte) (interface{}, error) {
	var jsonMsg map[string]json.RawMessage
	if err := json.Unmarshal(msg, &jsonMsg); err != nil {
		return nil, fmt.Errorf("can not extract payload from not a json message, msg = %v, err = %w", string(msg), err)
	}

	msgPayload, ok := jsonMsg["payload"]
	if !ok {
		return nil, fmt.Errorf("can not extract payload from msg = %v", string(msg))
	}
	rawMsgType, ok := jsonMsg["type"]
	if !ok {
		return nil, errors.New("can not extract payload from message without type")
	}
	var msgType string
	if err := json.Unmarshal(rawMsgType, &msgType); err != nil {
		return nil, fmt.Errorf("can not unmarshal type, err = %w", err)
	}
	payload := typeFactory(msgType)
	if payload == nil {
		return nil, UnknownMsgTypeErr
	}
	if err := json.Unmarshal(msgPayload, &payload); err != nil {
		return nil, fmt.Errorf("can not unmarshal payload to type = %v, err = %w", msgType, err)
	}
	return payload, nil
}

func typeFactory(typ string) (msg interface{}) {
	switch typ {
	case "registered":
		msg = &RegisteredResponseMessage{}
	case "broadcast":
		msg = &BroadcastResponseMessage{}
	case "presence":
		msg = &PresenceResponseMessage{}
	default:
		log.Warnf("do not know how to handle channel type = '%v'", typ)
	}
	return
}
