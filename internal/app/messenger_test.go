package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dkeye/Talk/internal/app/mocks"
	"github.com/dkeye/Talk/internal/core"
	"github.com/dkeye/Talk/internal/domain"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newTestMessenger(t *testing.T, conns ...core.ConnID) (*Messenger, *mocks.MockMessageStore, *recorder) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockMessageStore(ctrl)
	rec := newRecorder(conns...)
	rooms := NewCoordinator(core.NewRoomTable(), rec)
	return &Messenger{
		Store:      store,
		Rooms:      rooms,
		Fanout:     rooms,
		Out:        rec,
		Timeout:    time.Second,
		MaxContent: 20,
	}, store, rec
}

func TestMessenger_Send(t *testing.T) {
	t.Run("should persist, subscribe the author and broadcast", func(t *testing.T) {
		req := require.New(t)
		m, store, rec := newTestMessenger(t, "a", "b")
		m.Rooms.Subscribe("chat-1", "b")
		at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

		store.EXPECT().
			CreateMessage(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, msg domain.Message) (domain.Message, error) {
				req.EqualValues("chat-1", msg.Chat)
				req.EqualValues("u1", msg.Sender)
				msg.ID = "m1"
				msg.CreatedAt, msg.UpdatedAt = at, at
				return msg, nil
			}).
			Times(1)
		store.EXPECT().
			FindUser(gomock.Any(), domain.UserID("u1")).
			Return(domain.User{ID: "u1", Name: "Alice"}, nil).
			Times(1)

		err := m.Send(context.Background(), "a", IncomingMessage{ChatID: "chat-1", Sender: "u1", Content: "hi"})
		req.NoError(err)

		req.True(m.Rooms.Chats().Has("chat-1", "a"))
		for _, conn := range []core.ConnID{"a", "b"} {
			got := rec.take(conn)
			req.Equal([]string{core.EventNewMessage}, kinds(got))
			req.JSONEq(`{"_id":"m1","sender":{"_id":"u1","name":"Alice"},"chat":"chat-1","content":"hi",
				"createdAt":"2026-01-02T03:04:05Z","updatedAt":"2026-01-02T03:04:05Z"}`, string(got[0].Data))
		}
	})

	t.Run("should not broadcast when the store fails", func(t *testing.T) {
		req := require.New(t)
		m, store, rec := newTestMessenger(t, "a", "b")
		m.Rooms.Subscribe("chat-1", "b")

		store.EXPECT().CreateMessage(gomock.Any(), gomock.Any()).Return(domain.Message{}, errors.New("disk full")).Times(1)
		store.EXPECT().FindUser(gomock.Any(), gomock.Any()).Times(0)

		err := m.Send(context.Background(), "a", IncomingMessage{ChatID: "chat-1", Sender: "u1", Content: "hi"})
		req.ErrorIs(err, ErrPersistFailed)

		req.Empty(rec.take("b"))
		got := rec.take("a")
		req.Equal([]string{core.EventMessageError}, kinds(got))
		req.JSONEq(`{"chatId":"chat-1","error":"message not saved"}`, string(got[0].Data))
		req.False(m.Rooms.Chats().Has("chat-1", "a"))
	})

	t.Run("should reject a message without chat id before the store", func(t *testing.T) {
		req := require.New(t)
		m, store, rec := newTestMessenger(t, "a")

		store.EXPECT().CreateMessage(gomock.Any(), gomock.Any()).Times(0)

		err := m.Send(context.Background(), "a", IncomingMessage{Sender: "u1", Content: "hi"})
		req.ErrorIs(err, ErrInvalidMessage)
		req.Equal([]string{core.EventMessageError}, kinds(rec.take("a")))
		req.Equal(0, m.Rooms.Chats().Len())
	})

	t.Run("should reject content over the limit", func(t *testing.T) {
		req := require.New(t)
		m, store, _ := newTestMessenger(t, "a")
		store.EXPECT().CreateMessage(gomock.Any(), gomock.Any()).Times(0)

		err := m.Send(context.Background(), "a", IncomingMessage{ChatID: "c", Sender: "u1", Content: "this is far too long to pass"})
		req.ErrorIs(err, ErrInvalidMessage)
	})

	t.Run("should broadcast with a bare sender when the user is unknown", func(t *testing.T) {
		req := require.New(t)
		m, store, rec := newTestMessenger(t, "a")

		store.EXPECT().CreateMessage(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, msg domain.Message) (domain.Message, error) {
				msg.ID = "m2"
				return msg, nil
			})
		store.EXPECT().FindUser(gomock.Any(), gomock.Any()).Return(domain.User{}, errors.New("not found"))

		req.NoError(m.Send(context.Background(), "a", IncomingMessage{ChatID: "c", Sender: "u9", Content: "yo"}))
		got := rec.take("a")
		req.Len(got, 1)
		req.Contains(string(got[0].Data), `"sender":{"_id":"u9"}`)
	})
}

func TestMessenger_Post(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	store := mocks.NewMockMessageStore(ctrl)
	fanout := mocks.NewMockChatBroadcaster(ctrl)
	m := &Messenger{Store: store, Fanout: fanout}

	store.EXPECT().CreateMessage(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, msg domain.Message) (domain.Message, error) {
			msg.ID = "m3"
			return msg, nil
		})
	store.EXPECT().FindUser(gomock.Any(), domain.UserID("u1")).Return(domain.User{ID: "u1", Name: "Bob"}, nil)
	fanout.EXPECT().BroadcastChat(gomock.Any(), domain.ChatID("c1"), gomock.Any()).Return(nil).Times(1)

	msg, err := m.Post(context.Background(), IncomingMessage{ChatID: "c1", Sender: "u1", Content: "hello"})
	req.NoError(err)
	req.EqualValues("m3", msg.ID)
	req.Equal("Bob", msg.Sender.Name)
}
