package core

import (
	"maps"
	"slices"
	"sync"

	"github.com/dkeye/Talk/internal/domain"
)

// RoomTable maps a room to the set of connections joined to it.
// A room key exists only while its set is non-empty.
type RoomTable struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]map[ConnID]struct{}
}

func NewRoomTable() *RoomTable {
	return &RoomTable{rooms: make(map[domain.RoomID]map[ConnID]struct{})}
}

// Join adds conn to room and reports whether it was not a member yet.
func (t *RoomTable) Join(room domain.RoomID, conn ConnID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	set, ok := t.rooms[room]
	if !ok {
		set = make(map[ConnID]struct{})
		t.rooms[room] = set
	}
	if _, ok := set[conn]; ok {
		return false
	}
	set[conn] = struct{}{}
	return true
}

// Leave removes conn from room and reports whether it was a member.
func (t *RoomTable) Leave(room domain.RoomID, conn ConnID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.leaveLocked(room, conn)
}

func (t *RoomTable) leaveLocked(room domain.RoomID, conn ConnID) bool {
	set, ok := t.rooms[room]
	if !ok {
		return false
	}
	if _, ok := set[conn]; !ok {
		return false
	}
	delete(set, conn)
	if len(set) == 0 {
		delete(t.rooms, room)
	}
	return true
}

// RemoveEverywhere drops conn from every room and returns the rooms it left, sorted.
func (t *RoomTable) RemoveEverywhere(conn ConnID) []domain.RoomID {
	t.mu.Lock()
	defer t.mu.Unlock()
	var left []domain.RoomID
	for room, set := range t.rooms {
		if _, ok := set[conn]; ok {
			left = append(left, room)
		}
	}
	for _, room := range left {
		t.leaveLocked(room, conn)
	}
	slices.Sort(left)
	return left
}

func (t *RoomTable) SizeOf(room domain.RoomID) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rooms[room])
}

func (t *RoomTable) Has(room domain.RoomID, conn ConnID) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.rooms[room][conn]
	return ok
}

// MembersOf lists room members without except, sorted. Pass "" to list everyone.
func (t *RoomTable) MembersOf(room domain.RoomID, except ConnID) []ConnID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	set := t.rooms[room]
	out := make([]ConnID, 0, len(set))
	for conn := range set {
		if conn == except {
			continue
		}
		out = append(out, conn)
	}
	slices.Sort(out)
	return out
}

// Len is the number of live rooms.
func (t *RoomTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rooms)
}

func (t *RoomTable) List() []RoomInfo {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]RoomInfo, 0, len(t.rooms))
	for _, room := range slices.Sorted(maps.Keys(t.rooms)) {
		out = append(out, RoomInfo{ID: room, Participants: len(t.rooms[room])})
	}
	return out
}
