package orch

import (
	"context"
	"encoding/json"

	"github.com/dkeye/Talk/internal/app"
	"github.com/dkeye/Talk/internal/core"
	"github.com/dkeye/Talk/internal/domain"
	"github.com/dkeye/Talk/internal/metrics"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type handler func(ctx context.Context, from core.ConnID, data json.RawMessage)

// Orchestrator routes decoded client events to the app services.
// It is the only thing the transport talks to.
type Orchestrator struct {
	Registry  *app.Registry
	Calls     *app.Coordinator
	Relay     *app.Relay
	Messenger *app.Messenger

	handlers map[string]handler
}

func New(reg *app.Registry, calls *app.Coordinator, relay *app.Relay, messenger *app.Messenger) *Orchestrator {
	o := &Orchestrator{
		Registry:  reg,
		Calls:     calls,
		Relay:     relay,
		Messenger: messenger,
	}
	o.handlers = map[string]handler{
		core.EventJoinCall:     o.handleJoinCall,
		core.EventJoinRoom:     o.handleJoinRoom,
		core.EventLeaveCall:    o.handleLeaveCall,
		core.EventOffer:        o.signal(core.EventOffer),
		core.EventAnswer:       o.signal(core.EventAnswer),
		core.EventICECandidate: o.signal(core.EventICECandidate),
		core.EventSendMessage:  o.handleSendMessage,
		core.EventPing:         o.handlePing,
	}
	return o
}

// OnConnect registers a fresh connection and greets it with its id.
func (o *Orchestrator) OnConnect(id core.ConnID, user domain.UserID, sig core.SignalConnection, cancel context.CancelFunc) {
	o.Registry.Bind(id, user, sig, cancel)
	o.reply(id, core.EventConnected, map[string]core.ConnID{"id": id})
}

// OnDisconnect must run exactly once per connection, after its read loop ended.
func (o *Orchestrator) OnDisconnect(id core.ConnID) {
	rooms := o.Calls.Disconnect(id)
	o.Registry.Unbind(id)
	log.Info().Str("module", "orch").Str("sid", string(id)).Int("rooms", len(rooms)).Msg("disconnected")
}

// Dispatch runs the handler registered for env.Type.
func (o *Orchestrator) Dispatch(ctx context.Context, from core.ConnID, env core.Envelope) {
	h, ok := o.handlers[env.Type]
	if !ok {
		metrics.EventsDropped.WithLabelValues(metrics.ReasonUnknownEvent).Inc()
		log.Warn().Str("module", "orch").Str("sid", string(from)).Str("type", env.Type).Msg("unknown event")
		o.Fail(from, "unknown event: "+env.Type)
		return
	}
	h(ctx, from, env.Data)
}

// Fail sends an error event to a single connection.
func (o *Orchestrator) Fail(to core.ConnID, reason string) {
	o.reply(to, core.EventError, map[string]string{"error": reason})
}

func (o *Orchestrator) handlePing(_ context.Context, from core.ConnID, _ json.RawMessage) {
	o.reply(from, core.EventPong, nil)
}

func (o *Orchestrator) reply(to core.ConnID, kind string, v any) {
	f, err := core.Encode(kind, v)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Msg("encode")
		return
	}
	o.Registry.Emit(to, f)
}

func malformed(from core.ConnID, kind string, err error) {
	metrics.EventsDropped.WithLabelValues(metrics.ReasonMalformed).Inc()
	log.Warn().Err(err).Str("module", "orch").Str("sid", string(from)).Str("type", kind).Msg("malformed payload")
}
