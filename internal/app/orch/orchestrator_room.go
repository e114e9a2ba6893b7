package orch

import (
	"context"
	"encoding/json"

	"github.com/dkeye/Talk/internal/core"
	"github.com/dkeye/Talk/internal/domain"
)

// roomRef accepts both {"roomId": "..."} and a bare "..." string.
type roomRef struct {
	RoomID domain.RoomID `json:"roomId" validate:"required,max=128"`
}

func (r *roomRef) UnmarshalJSON(b []byte) error {
	var id string
	if err := json.Unmarshal(b, &id); err == nil {
		r.RoomID = domain.RoomID(id)
		return nil
	}
	type plain roomRef
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*r = roomRef(p)
	return nil
}

func decodeRoom(data json.RawMessage) (domain.RoomID, error) {
	var ref roomRef
	if err := json.Unmarshal(orNull(data), &ref); err != nil {
		return "", err
	}
	if err := validate.Struct(ref); err != nil {
		return "", err
	}
	return ref.RoomID, nil
}

func (o *Orchestrator) handleJoinCall(_ context.Context, from core.ConnID, data json.RawMessage) {
	room, err := decodeRoom(data)
	if err != nil {
		malformed(from, core.EventJoinCall, err)
		return
	}
	o.Calls.Join(room, from)
}

// handleJoinRoom is the older client path: a call join that also subscribes
// the connection to newMessage for the same id.
func (o *Orchestrator) handleJoinRoom(_ context.Context, from core.ConnID, data json.RawMessage) {
	room, err := decodeRoom(data)
	if err != nil {
		malformed(from, core.EventJoinRoom, err)
		return
	}
	o.Calls.Join(room, from)
	o.Calls.Subscribe(domain.ChatID(room), from)
}

func (o *Orchestrator) handleLeaveCall(_ context.Context, from core.ConnID, data json.RawMessage) {
	room, err := decodeRoom(data)
	if err != nil {
		malformed(from, core.EventLeaveCall, err)
		return
	}
	o.Calls.Leave(room, from)
}

func orNull(data json.RawMessage) json.RawMessage {
	if len(data) == 0 {
		return json.RawMessage("null")
	}
	return data
}
