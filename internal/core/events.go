package core

import (
	"encoding/json"
	"errors"
	"fmt"
)

var ErrNoType = errors.New("envelope without type")

// Inbound event kinds.
const (
	EventJoinCall     = "join-call"
	EventLeaveCall    = "leave-call"
	EventJoinRoom     = "joinRoom"
	EventOffer        = "offer"
	EventAnswer       = "answer"
	EventICECandidate = "ice-candidate"
	EventSendMessage  = "sendMessage"
	EventPing         = "ping"
)

// Outbound event kinds. Signaling kinds are reused in both directions.
const (
	EventConnected          = "connected"
	EventExistingUsers      = "existing-users"
	EventUserJoined         = "user-joined"
	EventUserLeft           = "user-left"
	EventParticipantsUpdate = "participants-update"
	EventNewMessage         = "newMessage"
	EventMessageError       = "message-error"
	EventError              = "error"
	EventPong               = "pong"
)

// Envelope is the frame layout in both directions.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// MemberEvent is the payload of user-joined. user-left carries the bare count.
type MemberEvent struct {
	ID    ConnID `json:"id"`
	Count int    `json:"count"`
}

// Encode wraps v into an envelope of the given kind.
func Encode(kind string, v any) (Frame, error) {
	env := Envelope{Type: kind}
	if v != nil {
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", kind, err)
		}
		env.Data = data
	}
	b, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", kind, err)
	}
	return b, nil
}

func Decode(f []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(f, &env); err != nil {
		return Envelope{}, err
	}
	if env.Type == "" {
		return Envelope{}, ErrNoType
	}
	return env, nil
}
