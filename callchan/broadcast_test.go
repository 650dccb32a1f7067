package callchan

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEventRaiseHand(t *testing.T) {
	ev, err := ParseEvent(KindRaiseHand, json.RawMessage(`{"userId":"s1","raised":true}`))
	require.NoError(t, err)
	assert.Equal(t, RaiseHandEvent{UserID: "s1", Raised: true}, ev)
}

func TestParseEventMicControl(t *testing.T) {
	ev, err := ParseEvent(KindMicControl, json.RawMessage(`{"targetUserId":"s1","unmute":false}`))
	require.NoError(t, err)
	assert.Equal(t, MicControlEvent{TargetUserID: "s1", Unmute: false}, ev)
}

func TestParseEventEndCallIgnoresPayload(t *testing.T) {
	ev, err := ParseEvent(KindEndCall, nil)
	require.NoError(t, err)
	assert.Equal(t, EndCallEvent{}, ev)
}

func TestParseEventUnknownKind(t *testing.T) {
	_, err := ParseEvent("wave", json.RawMessage(`{}`))
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestParseEventMalformedPayload(t *testing.T) {
	_, err := ParseEvent(KindRaiseHand, json.RawMessage(`{`))
	assert.Error(t, err)
}

func TestMarshalEventRoundTrip(t *testing.T) {
	msg, err := marshalEvent(MicControlEvent{TargetUserID: "s2", Unmute: true})
	require.NoError(t, err)
	assert.Equal(t, KindMicControl, msg.Kind)

	ev, err := ParseEvent(msg.Kind, msg.Payload)
	require.NoError(t, err)
	assert.Equal(t, MicControlEvent{TargetUserID: "s2", Unmute: true}, ev)
}

func TestExtractPayloadBroadcast(t *testing.T) {
	raw := []byte(`{"type":"broadcast","payload":{"from":"t1","kind":"raise_hand","payload":{"userId":"t1","raised":true}}}`)
	typed, err := extractPayload(raw)
	require.NoError(t, err)

	msg, ok := typed.(*BroadcastResponseMessage)
	require.True(t, ok)
	assert.Equal(t, "t1", msg.From)
	assert.Equal(t, KindRaiseHand, msg.Kind)
}

func TestExtractPayloadUnknownType(t *testing.T) {
	_, err := extractPayload([]byte(`{"type":"mystery","payload":{}}`))
	assert.ErrorIs(t, err, UnknownMsgTypeErr)
}
