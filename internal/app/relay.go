package app

import (
	"encoding/json"
	"errors"

	"github.com/dkeye/Talk/internal/core"
	"github.com/dkeye/Talk/internal/metrics"
	"github.com/rs/zerolog/log"
)

var ErrUnknownSignal = errors.New("unknown signal kind")

// payloadField is the key each signal kind carries its body under, in and out.
var payloadField = map[string]string{
	core.EventOffer:        "offer",
	core.EventAnswer:       "answer",
	core.EventICECandidate: "candidate",
}

// SignalField returns the payload key for a signaling kind.
func SignalField(kind string) (string, bool) {
	f, ok := payloadField[kind]
	return f, ok
}

// Directory is an emitter that can also tell whether a connection is live.
type Directory interface {
	core.Emitter
	Has(core.ConnID) bool
}

// Relay forwards WebRTC negotiation payloads to exactly one peer.
// It keeps no state and never checks that both ends share a room.
type Relay struct {
	peers Directory
}

func NewRelay(peers Directory) *Relay {
	return &Relay{peers: peers}
}

// Forward sends {<field>: payload, from} to `to`. A gone target is not an error.
func (r *Relay) Forward(kind string, payload json.RawMessage, from, to core.ConnID) error {
	field, ok := payloadField[kind]
	if !ok {
		return ErrUnknownSignal
	}
	if !r.peers.Has(to) {
		metrics.EventsDropped.WithLabelValues(metrics.ReasonNoTarget).Inc()
		log.Debug().Str("module", "app.relay").Str("kind", kind).Str("from", string(from)).Str("to", string(to)).Msg("target gone, dropped")
		return nil
	}
	f, err := core.Encode(kind, map[string]any{
		field:  payload,
		"from": from,
	})
	if err != nil {
		return err
	}
	r.peers.Emit(to, f)
	metrics.SignalsRelayed.WithLabelValues(kind).Inc()
	return nil
}
