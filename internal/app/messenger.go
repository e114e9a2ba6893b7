package app

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/dkeye/Talk/internal/core"
	"github.com/dkeye/Talk/internal/domain"
	"github.com/dkeye/Talk/internal/metrics"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

var (
	ErrInvalidMessage = errors.New("invalid message")
	ErrPersistFailed  = errors.New("message not saved")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// IncomingMessage is a chat message as it arrives from a client,
// with the sender already resolved.
type IncomingMessage struct {
	ChatID  domain.ChatID `json:"chatId" validate:"required,max=64"`
	Sender  domain.UserID `json:"sender" validate:"required,max=64"`
	Content string        `json:"content" validate:"required"`
	File    *domain.File  `json:"file,omitempty"`
}

// MessageError is the negative acknowledgment sent back to the author.
type MessageError struct {
	ChatID domain.ChatID `json:"chatId,omitempty"`
	Error  string        `json:"error"`
}

// Messenger persists chat messages and fans them out to the chat's room.
// Nothing is broadcast unless the store accepted the message.
type Messenger struct {
	Store      MessageStore
	Rooms      *Coordinator
	Fanout     ChatBroadcaster
	Out        core.Emitter
	Timeout    time.Duration
	MaxContent int
}

// Send handles a realtime sendMessage from conn. On success the author is
// subscribed to the chat room and everyone there receives newMessage;
// on failure only the author hears about it.
func (m *Messenger) Send(ctx context.Context, from core.ConnID, in IncomingMessage) error {
	msg, err := m.persist(ctx, in)
	if err != nil {
		m.reject(from, in.ChatID, err)
		return err
	}
	m.Rooms.Subscribe(msg.Chat, from)
	m.deliver(ctx, msg)
	return nil
}

// Post is the REST flavor of Send: nobody gets subscribed, the caller gets the message back.
func (m *Messenger) Post(ctx context.Context, in IncomingMessage) (domain.PopulatedMessage, error) {
	msg, err := m.persist(ctx, in)
	if err != nil {
		return domain.PopulatedMessage{}, err
	}
	m.deliver(ctx, msg)
	return msg, nil
}

func (m *Messenger) Validate(in IncomingMessage) error {
	if err := validate.Struct(in); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}
	if m.MaxContent > 0 && utf8.RuneCountInString(in.Content) > m.MaxContent {
		return fmt.Errorf("%w: content longer than %d", ErrInvalidMessage, m.MaxContent)
	}
	return nil
}

func (m *Messenger) persist(ctx context.Context, in IncomingMessage) (domain.PopulatedMessage, error) {
	if err := m.Validate(in); err != nil {
		metrics.MessageFailures.Inc()
		log.Warn().Err(err).Str("module", "app.messenger").Str("chat", string(in.ChatID)).Msg("rejected message")
		return domain.PopulatedMessage{}, err
	}
	if m.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.Timeout)
		defer cancel()
	}

	stored, err := m.Store.CreateMessage(ctx, domain.Message{
		Sender:  in.Sender,
		Chat:    in.ChatID,
		Content: in.Content,
		File:    in.File,
	})
	if err != nil {
		metrics.MessageFailures.Inc()
		log.Error().Err(err).Str("module", "app.messenger").Str("chat", string(in.ChatID)).Msg("error saving message")
		return domain.PopulatedMessage{}, fmt.Errorf("%w: %w", ErrPersistFailed, err)
	}

	sender := domain.UserSummary{ID: stored.Sender}
	if u, err := m.Store.FindUser(ctx, stored.Sender); err == nil {
		sender.Name = u.Name
	} else {
		log.Debug().Err(err).Str("module", "app.messenger").Str("user", string(stored.Sender)).Msg("sender not populated")
	}
	metrics.MessagesPersisted.Inc()
	return stored.Populate(sender), nil
}

func (m *Messenger) deliver(ctx context.Context, msg domain.PopulatedMessage) {
	f, err := core.Encode(core.EventNewMessage, msg)
	if err != nil {
		log.Error().Err(err).Str("module", "app.messenger").Msg("encode")
		return
	}
	if err := m.Fanout.BroadcastChat(ctx, msg.Chat, f); err != nil {
		log.Error().Err(err).Str("module", "app.messenger").Str("chat", string(msg.Chat)).Msg("broadcast")
	}
}

func (m *Messenger) reject(to core.ConnID, chat domain.ChatID, err error) {
	reason := ErrPersistFailed.Error()
	if errors.Is(err, ErrInvalidMessage) {
		reason = err.Error()
	}
	f, encErr := core.Encode(core.EventMessageError, MessageError{ChatID: chat, Error: reason})
	if encErr != nil {
		return
	}
	m.Out.Emit(to, f)
}
