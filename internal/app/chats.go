package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/dkeye/Talk/internal/domain"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

var (
	ErrSelfChat      = errors.New("cannot open a chat with yourself")
	ErrNotAdmin      = errors.New("only the group admin can do that")
	ErrNotGroup      = errors.New("not a group chat")
	ErrGroupTooSmall = errors.New("a group needs at least one other user")
)

// ChatStore is what ChatService needs from persistence.
type ChatStore interface {
	FindUser(ctx context.Context, id domain.UserID) (domain.User, error)
	CreateChat(ctx context.Context, c domain.Chat) error
	FindChat(ctx context.Context, id domain.ChatID) (domain.Chat, error)
	FindDirectChat(ctx context.Context, a, b domain.UserID) (domain.Chat, error)
	ChatsOf(ctx context.Context, user domain.UserID) ([]domain.Chat, error)
	GroupsCreatedBy(ctx context.Context, user domain.UserID) ([]domain.Chat, error)
	AddChatUser(ctx context.Context, id domain.ChatID, user domain.UserID) (domain.Chat, error)
	DeleteChat(ctx context.Context, id domain.ChatID) (domain.Chat, error)
	FindMessage(ctx context.Context, id domain.MessageID) (domain.Message, error)
	Messages(ctx context.Context, chat domain.ChatID) ([]domain.Message, error)
	LastMessage(ctx context.Context, chat domain.ChatID) (*domain.Message, error)
}

// ChatService runs the chat bookkeeping behind the REST API and expands
// user and message references for clients.
type ChatService struct {
	Store ChatStore
}

// Access returns the direct chat between me and other, creating it on first use.
func (s *ChatService) Access(ctx context.Context, me, other domain.UserID) (domain.PopulatedChat, error) {
	if me == other {
		return domain.PopulatedChat{}, ErrSelfChat
	}
	if _, err := s.Store.FindUser(ctx, other); err != nil {
		return domain.PopulatedChat{}, err
	}
	chat, err := s.Store.FindDirectChat(ctx, me, other)
	if err != nil {
		chat = domain.NewDirectChat(me, other)
		if err := s.Store.CreateChat(ctx, chat); err != nil {
			return domain.PopulatedChat{}, fmt.Errorf("create chat: %w", err)
		}
		log.Info().Str("module", "app.chats").Str("chat", string(chat.ID)).Msg("direct chat created")
	}
	return s.populate(ctx, chat), nil
}

func (s *ChatService) List(ctx context.Context, me domain.UserID) ([]domain.PopulatedChat, error) {
	chats, err := s.Store.ChatsOf(ctx, me)
	if err != nil {
		return nil, err
	}
	return s.populateAll(ctx, chats), nil
}

func (s *ChatService) CreateGroup(ctx context.Context, me domain.UserID, name string, users []domain.UserID) (domain.PopulatedChat, error) {
	others := lo.Without(lo.Uniq(users), me, "")
	if len(others) == 0 {
		return domain.PopulatedChat{}, ErrGroupTooSmall
	}
	chat := domain.NewGroupChat(name, me, others)
	if err := s.Store.CreateChat(ctx, chat); err != nil {
		return domain.PopulatedChat{}, fmt.Errorf("create group: %w", err)
	}
	log.Info().Str("module", "app.chats").Str("chat", string(chat.ID)).Int("users", len(chat.Users)).Msg("group created")
	return s.populate(ctx, chat), nil
}

func (s *ChatService) Groups(ctx context.Context, me domain.UserID) ([]domain.PopulatedChat, error) {
	chats, err := s.Store.GroupsCreatedBy(ctx, me)
	if err != nil {
		return nil, err
	}
	return s.populateAll(ctx, chats), nil
}

func (s *ChatService) AddUser(ctx context.Context, chat domain.ChatID, user domain.UserID) (domain.PopulatedChat, error) {
	if _, err := s.Store.FindUser(ctx, user); err != nil {
		return domain.PopulatedChat{}, err
	}
	c, err := s.Store.AddChatUser(ctx, chat, user)
	if err != nil {
		return domain.PopulatedChat{}, err
	}
	return s.populate(ctx, c), nil
}

// DeleteGroup removes a group chat. Only its admin may do so.
func (s *ChatService) DeleteGroup(ctx context.Context, me domain.UserID, id domain.ChatID) (domain.PopulatedChat, error) {
	c, err := s.Store.FindChat(ctx, id)
	if err != nil {
		return domain.PopulatedChat{}, err
	}
	if !c.IsGroup {
		return domain.PopulatedChat{}, ErrNotGroup
	}
	if c.Admin != me {
		return domain.PopulatedChat{}, ErrNotAdmin
	}
	out := s.populate(ctx, c)
	if _, err := s.Store.DeleteChat(ctx, id); err != nil {
		return domain.PopulatedChat{}, err
	}
	log.Info().Str("module", "app.chats").Str("chat", string(id)).Msg("group deleted")
	return out, nil
}

// History is the chat's messages, oldest first, with senders expanded.
func (s *ChatService) History(ctx context.Context, chat domain.ChatID) ([]domain.PopulatedMessage, error) {
	msgs, err := s.Store.Messages(ctx, chat)
	if err != nil {
		return nil, err
	}
	users := map[domain.UserID]domain.UserSummary{}
	return lo.Map(msgs, func(m domain.Message, _ int) domain.PopulatedMessage {
		sum, ok := users[m.Sender]
		if !ok {
			sum = s.summary(ctx, m.Sender)
			users[m.Sender] = sum
		}
		return m.Populate(sum)
	}), nil
}

func (s *ChatService) Last(ctx context.Context, chat domain.ChatID) (*domain.PopulatedMessage, error) {
	m, err := s.Store.LastMessage(ctx, chat)
	if err != nil || m == nil {
		return nil, err
	}
	pm := m.Populate(s.summary(ctx, m.Sender))
	return &pm, nil
}

func (s *ChatService) populateAll(ctx context.Context, chats []domain.Chat) []domain.PopulatedChat {
	return lo.Map(chats, func(c domain.Chat, _ int) domain.PopulatedChat { return s.populate(ctx, c) })
}

func (s *ChatService) populate(ctx context.Context, c domain.Chat) domain.PopulatedChat {
	out := domain.PopulatedChat{
		ID:        c.ID,
		Name:      c.Name,
		IsGroup:   c.IsGroup,
		Users:     lo.Map(c.Users, func(u domain.UserID, _ int) domain.UserSummary { return s.summary(ctx, u) }),
		CreatorID: c.CreatorID,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	if c.Admin != "" {
		out.Admin = lo.ToPtr(s.summary(ctx, c.Admin))
	}
	if c.LatestMessage != "" {
		if m, err := s.Store.FindMessage(ctx, c.LatestMessage); err == nil {
			out.LatestMessage = lo.ToPtr(m.Populate(s.summary(ctx, m.Sender)))
		}
	}
	return out
}

// summary never fails: an unknown user is still shown by id.
func (s *ChatService) summary(ctx context.Context, id domain.UserID) domain.UserSummary {
	u, err := s.Store.FindUser(ctx, id)
	if err != nil {
		return domain.UserSummary{ID: id}
	}
	return u.Summary()
}
