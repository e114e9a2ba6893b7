package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

type ChatID string

type Chat struct {
	ID            ChatID    `json:"_id"`
	Name          string    `json:"chatName"`
	IsGroup       bool      `json:"isGroupChat"`
	Users         []UserID  `json:"users"`
	Admin         UserID    `json:"groupAdmin,omitempty"`
	CreatorID     UserID    `json:"creatorId,omitempty"`
	LatestMessage MessageID `json:"latestMessage,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// NewDirectChat pairs two users; the name mirrors what clients expect for one-to-one chats.
func NewDirectChat(a, b UserID) Chat {
	now := time.Now().UTC()
	return Chat{
		ID:        ChatID(uuid.NewString()),
		Name:      "sender",
		Users:     []UserID{a, b},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func NewGroupChat(name string, admin UserID, users []UserID) Chat {
	now := time.Now().UTC()
	return Chat{
		ID:        ChatID(uuid.NewString()),
		Name:      name,
		IsGroup:   true,
		Users:     lo.Uniq(append(lo.Compact(users), admin)),
		Admin:     admin,
		CreatorID: admin,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (c Chat) HasUser(id UserID) bool { return lo.Contains(c.Users, id) }

// PopulatedChat replaces user references with their summaries.
type PopulatedChat struct {
	ID            ChatID            `json:"_id"`
	Name          string            `json:"chatName"`
	IsGroup       bool              `json:"isGroupChat"`
	Users         []UserSummary     `json:"users"`
	Admin         *UserSummary      `json:"groupAdmin,omitempty"`
	CreatorID     UserID            `json:"creatorId,omitempty"`
	LatestMessage *PopulatedMessage `json:"latestMessage,omitempty"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}
