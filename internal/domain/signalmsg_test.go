package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeSignalMessage(t *testing.T) {
	msg, err := DecodeSignalMessage([]byte(`{"type":"offer","target":"abc","sdp":"v=0"}`))
	require.NoError(t, err)
	assert.Equal(t, TypeOffer, msg.Type)
	assert.Equal(t, "abc", msg.Target)
	assert.Equal(t, "v=0", msg.SDP)
}

func TestDecodeSignalMessageMalformed(t *testing.T) {
	_, err := DecodeSignalMessage([]byte(`{"type":"offer"`))
	require.Error(t, err)
}

func TestDecodeSignalMessageMissingType(t *testing.T) {
	_, err := DecodeSignalMessage([]byte(`{"target":"abc"}`))
	require.ErrorIs(t, err, ErrUnknownMessageType)
}

func TestDecodeSignalMessageUnknownType(t *testing.T) {
	_, err := DecodeSignalMessage([]byte(`{"type":"group_call"}`))
	require.ErrorIs(t, err, ErrUnknownMessageType)
}

func TestCandidatePayloadForwardedVerbatim(t *testing.T) {
	raw := []byte(`{"type":"ice_candidate","candidate":{"candidate":"candidate:1 1 udp 2113937151","sdpMid":"0"}}`)

	msg, err := DecodeSignalMessage(raw)
	require.NoError(t, err)
	assert.JSONEq(t, `{"candidate":"candidate:1 1 udp 2113937151","sdpMid":"0"}`, string(msg.Candidate))

	encoded, err := EncodeSignalMessage(msg)
	require.NoError(t, err)
	assert.JSONEq(t, string(raw), string(encoded))
}

func TestEncodeSignalMessageOmitsEmptyFields(t *testing.T) {
	data, err := EncodeSignalMessage(SignalMessage{Type: TypeCallEnded, Sender: "u1"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"call_ended","sender":"u1"}`, string(data))
}

func TestUserSummary(t *testing.T) {
	user := NewUser("alice", 4)
	require.NotEmpty(t, user.ID)

	summary := user.Summary()
	assert.Equal(t, user.ID, summary.ID)
	assert.Equal(t, "alice", summary.Name)
}

func TestEnqueueEvent(t *testing.T) {
	user := NewUser("alice", 1)

	assert.True(t, user.EnqueueEvent(SignalMessage{Type: TypeSelfID}))
	assert.False(t, user.EnqueueEvent(SignalMessage{Type: TypeSelfID}), "full queue must not block")

	<-user.Events
	user.CloseEvents()
	assert.False(t, user.EnqueueEvent(SignalMessage{Type: TypeSelfID}))
	user.CloseEvents() // repeated close is a no-op
}
