package orch

import (
	"context"
	"encoding/json"

	"github.com/dkeye/Talk/internal/app"
	"github.com/dkeye/Talk/internal/core"
	"github.com/dkeye/Talk/internal/domain"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

// SenderRef is a user reference as clients send it: a plain id,
// or a populated user object carrying _id or id.
type SenderRef domain.UserID

func (s *SenderRef) UnmarshalJSON(b []byte) error {
	var id string
	if err := json.Unmarshal(b, &id); err == nil {
		*s = SenderRef(id)
		return nil
	}
	var obj struct {
		MongoID string `json:"_id"`
		ID      string `json:"id"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	*s = SenderRef(lo.CoalesceOrEmpty(obj.MongoID, obj.ID))
	return nil
}

type sendMessagePayload struct {
	ChatID  domain.ChatID `json:"chatId"`
	Sender  SenderRef     `json:"sender"`
	Content string        `json:"content"`
	File    *domain.File  `json:"file,omitempty"`
}

func (o *Orchestrator) handleSendMessage(ctx context.Context, from core.ConnID, data json.RawMessage) {
	var p sendMessagePayload
	if err := json.Unmarshal(orNull(data), &p); err != nil {
		malformed(from, core.EventSendMessage, err)
		o.reply(from, core.EventMessageError, app.MessageError{Error: "bad payload"})
		return
	}
	in := app.IncomingMessage{
		ChatID:  p.ChatID,
		Sender:  domain.UserID(p.Sender),
		Content: p.Content,
		File:    p.File,
	}
	if user, ok := o.Registry.UserOf(from); ok {
		in.Sender = user
	}
	if err := o.Messenger.Send(ctx, from, in); err != nil {
		log.Debug().Err(err).Str("module", "orch").Str("sid", string(from)).Msg("sendMessage failed")
	}
}
