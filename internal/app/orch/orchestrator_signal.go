package orch

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/dkeye/Talk/internal/app"
	"github.com/dkeye/Talk/internal/core"
	"github.com/rs/zerolog/log"
)

var errNoTarget = errors.New("missing target")

// signal returns the handler for one negotiation kind. The payload body
// travels untouched; only the addressing is looked at.
func (o *Orchestrator) signal(kind string) handler {
	field, _ := app.SignalField(kind)
	return func(_ context.Context, from core.ConnID, data json.RawMessage) {
		var p map[string]json.RawMessage
		if err := json.Unmarshal(orNull(data), &p); err != nil {
			malformed(from, kind, err)
			return
		}
		var to core.ConnID
		if raw, ok := p["to"]; ok {
			if err := json.Unmarshal(raw, &to); err != nil {
				malformed(from, kind, err)
				return
			}
		}
		if to == "" {
			malformed(from, kind, errNoTarget)
			return
		}
		if err := o.Relay.Forward(kind, p[field], from, to); err != nil {
			log.Error().Err(err).Str("module", "orch").Str("type", kind).Msg("relay")
		}
	}
}
