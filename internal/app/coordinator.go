package app

import (
	"context"
	"sync"

	"github.com/dkeye/Talk/internal/core"
	"github.com/dkeye/Talk/internal/domain"
	"github.com/dkeye/Talk/internal/metrics"
	"github.com/rs/zerolog/log"
)

// Coordinator owns the call room table and runs the per-room lifecycle:
// join, leave and disconnect, with the notifications each one implies.
// Chat subscriptions live in a table of their own and never show up as
// call participants.
//
// Every operation runs to completion under mu, so a count that is emitted
// always reflects the membership right after the mutation that caused it.
type Coordinator struct {
	mu    sync.Mutex
	rooms *core.RoomTable
	chats *core.RoomTable
	out   core.Emitter
}

func NewCoordinator(rooms *core.RoomTable, out core.Emitter) *Coordinator {
	return &Coordinator{rooms: rooms, chats: core.NewRoomTable(), out: out}
}

// Rooms is the call room table.
func (c *Coordinator) Rooms() *core.RoomTable { return c.rooms }

// Chats is the chat subscription table read by BroadcastChat.
func (c *Coordinator) Chats() *core.RoomTable { return c.chats }

// Join adds conn to room. The joiner gets the existing-users snapshot
// before anyone else hears about the join.
func (c *Coordinator) Join(room domain.RoomID, conn core.ConnID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	others := c.rooms.MembersOf(room, conn)
	c.emit(conn, core.EventExistingUsers, others)
	if !c.rooms.Join(room, conn) {
		log.Debug().Str("module", "app.coordinator").Str("sid", string(conn)).Str("room", string(room)).Msg("already joined")
		return
	}
	c.syncGauge()

	count := c.rooms.SizeOf(room)
	joined := core.MemberEvent{ID: conn, Count: count}
	for _, other := range others {
		c.emit(other, core.EventUserJoined, joined)
	}
	for _, member := range c.rooms.MembersOf(room, "") {
		c.emit(member, core.EventParticipantsUpdate, count)
	}
	log.Info().Str("module", "app.coordinator").Str("sid", string(conn)).Str("room", string(room)).Int("count", count).Msg("joined")
}

// Leave removes conn from room. Leaving a room you are not in does nothing.
func (c *Coordinator) Leave(room domain.RoomID, conn core.ConnID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.rooms.Leave(room, conn) {
		return
	}
	c.syncGauge()
	c.announceLeft(room, conn)
}

// Disconnect removes conn from every call room it was in and announces it
// per room. Chat subscriptions are dropped without notice.
func (c *Coordinator) Disconnect(conn core.ConnID) []domain.RoomID {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.chats.RemoveEverywhere(conn)
	left := c.rooms.RemoveEverywhere(conn)
	if len(left) > 0 {
		c.syncGauge()
	}
	for _, room := range left {
		c.announceLeft(room, conn)
	}
	return left
}

// Subscribe adds conn to the chat's subscribers silently. Subscribers only
// receive newMessage; call rooms of the same id are unaffected.
func (c *Coordinator) Subscribe(chat domain.ChatID, conn core.ConnID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.chats.Join(domain.RoomID(chat), conn)
}

// BroadcastChat delivers f to every subscriber of chat, which makes the
// coordinator the local ChatBroadcaster.
func (c *Coordinator) BroadcastChat(_ context.Context, chat domain.ChatID, f core.Frame) error {
	c.mu.Lock()
	members := c.chats.MembersOf(domain.RoomID(chat), "")
	for _, m := range members {
		c.out.Emit(m, f)
	}
	c.mu.Unlock()
	log.Debug().Str("module", "app.coordinator").Str("chat", string(chat)).Int("sent_to", len(members)).Msg("chat broadcast")
	return nil
}

func (c *Coordinator) announceLeft(room domain.RoomID, conn core.ConnID) {
	count := c.rooms.SizeOf(room)
	log.Info().Str("module", "app.coordinator").Str("sid", string(conn)).Str("room", string(room)).Int("count", count).Msg("left")
	if count == 0 {
		return
	}
	remaining := c.rooms.MembersOf(room, "")
	for _, m := range remaining {
		c.emit(m, core.EventUserLeft, count)
	}
	for _, m := range remaining {
		c.emit(m, core.EventParticipantsUpdate, count)
	}
}

func (c *Coordinator) emit(to core.ConnID, kind string, v any) {
	f, err := core.Encode(kind, v)
	if err != nil {
		log.Error().Err(err).Str("module", "app.coordinator").Msg("encode")
		return
	}
	c.out.Emit(to, f)
}

func (c *Coordinator) syncGauge() {
	metrics.RoomsActive.Set(float64(c.rooms.Len()))
}
