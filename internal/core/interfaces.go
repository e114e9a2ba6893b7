package core

import (
	"errors"

	"github.com/dkeye/Talk/internal/domain"
)

// ErrConnClosed is returned by TrySend once the connection is shutting down.
var ErrConnClosed = errors.New("connection closed")

// Frame is an encoded outbound event, ready for the wire.
type Frame []byte

// ConnID identifies one live transport session. Unique while connected.
type ConnID string

// SignalConnection abstracts for a system messaging transport
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

// Emitter delivers a frame to one connection. Delivery is fire-and-forget:
// unknown targets are dropped silently.
type Emitter interface {
	Emit(to ConnID, f Frame)
}

// MemberDTO is a read-only view for APIs (no transport fields).
type MemberDTO struct {
	ID   ConnID        `json:"id"`
	User domain.UserID `json:"user,omitempty"`
}

type RoomInfo struct {
	ID           domain.RoomID `json:"id"`
	Participants int           `json:"participants"`
}
