//go:generate go run go.uber.org/mock/mockgen -source=ports.go -destination=mocks/mock_ports.go -package=mocks
package app

import (
	"context"

	"github.com/dkeye/Talk/internal/core"
	"github.com/dkeye/Talk/internal/domain"
)

// MessageStore is the slice of the data store the messenger needs.
type MessageStore interface {
	CreateMessage(ctx context.Context, msg domain.Message) (domain.Message, error)
	FindUser(ctx context.Context, id domain.UserID) (domain.User, error)
}

// ChatBroadcaster fans a frame out to everyone subscribed to a chat.
type ChatBroadcaster interface {
	BroadcastChat(ctx context.Context, chat domain.ChatID, f core.Frame) error
}
