package domain

// RoomID names a group of connections: a call id or a chat id reused as a room.
type RoomID string
