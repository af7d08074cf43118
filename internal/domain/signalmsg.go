package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

const (
	TypeSelfID       = "self_id"
	TypeUserJoined   = "user_joined"
	TypeUserLeft     = "user_left"
	TypeUsersList    = "users_list"
	TypeIncomingCall = "incoming_call"
	TypeCancelCall   = "cancel_call"
	TypeOffer        = "offer"
	TypeAnswer       = "answer"
	TypeICECandidate = "ice_candidate"
	TypeCallRejected = "call_rejected"
	TypeCallEnded    = "call_ended"
	TypeError        = "error"
	TypeChangeName   = "change_name"
)

var ErrUnknownMessageType = errors.New("unknown message type")

// SignalMessage is the single wire envelope for every signaling exchange.
// SDP and candidate payloads are forwarded verbatim and never inspected.
type SignalMessage struct {
	Type      string          `json:"type"`
	Target    string          `json:"target,omitempty"`
	SDP       string          `json:"sdp,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
	Name      string          `json:"name,omitempty"`
	UserID    string          `json:"user_id,omitempty"`
	User      *UserSummary    `json:"user,omitempty"`
	Users     []UserSummary   `json:"users,omitempty"`
	Sender    string          `json:"sender,omitempty"`
	Callee    string          `json:"callee,omitempty"`
	Details   string          `json:"details,omitempty"`
}

// DecodeSignalMessage parses one inbound frame. A frame that is not valid
// JSON, carries no type, or carries a type the protocol does not define is
// rejected here so the router never sees it.
func DecodeSignalMessage(data []byte) (SignalMessage, error) {
	var msg SignalMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return SignalMessage{}, fmt.Errorf("decode signal message: %w", err)
	}

	switch msg.Type {
	case TypeSelfID, TypeUserJoined, TypeUserLeft, TypeUsersList,
		TypeIncomingCall, TypeCancelCall, TypeOffer, TypeAnswer,
		TypeICECandidate, TypeCallRejected, TypeCallEnded, TypeError,
		TypeChangeName:
		return msg, nil
	case "":
		return SignalMessage{}, fmt.Errorf("%w: missing type", ErrUnknownMessageType)
	default:
		return SignalMessage{}, fmt.Errorf("%w: %q", ErrUnknownMessageType, msg.Type)
	}
}

// EncodeSignalMessage is total: every constructed message marshals.
func EncodeSignalMessage(msg SignalMessage) ([]byte, error) {
	return json.Marshal(msg)
}
