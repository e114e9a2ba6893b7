package app

import (
	"strings"

	"github.com/dkeye/Talk/internal/core"
)

type BackpressureAction int

const (
	DropEvent BackpressureAction = iota
	Disconnect
)

// Policy decides what happens to a connection whose send queue is full.
type Policy interface {
	OnBackPressure(conn core.ConnID) BackpressureAction
}

type SimplePolicy struct {
	Action BackpressureAction
}

func (p SimplePolicy) OnBackPressure(core.ConnID) BackpressureAction {
	return p.Action
}

// ParseBackpressure maps a config value to an action; anything unknown disconnects.
func ParseBackpressure(s string) BackpressureAction {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "drop":
		return DropEvent
	default:
		return Disconnect
	}
}
