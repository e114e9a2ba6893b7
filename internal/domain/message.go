package domain

import "time"

type MessageID string

// File references an uploaded attachment; storage of the bytes lives elsewhere.
type File struct {
	URL  string `json:"url" validate:"required"`
	Type string `json:"type,omitempty"`
}

type Message struct {
	ID        MessageID `json:"_id"`
	Sender    UserID    `json:"sender"`
	Chat      ChatID    `json:"chat"`
	Content   string    `json:"content"`
	File      *File     `json:"file,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PopulatedMessage is what clients receive: the sender is expanded to display fields.
type PopulatedMessage struct {
	ID        MessageID   `json:"_id"`
	Sender    UserSummary `json:"sender"`
	Chat      ChatID      `json:"chat"`
	Content   string      `json:"content"`
	File      *File       `json:"file,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

func (m Message) Populate(sender UserSummary) PopulatedMessage {
	return PopulatedMessage{
		ID:        m.ID,
		Sender:    sender,
		Chat:      m.Chat,
		Content:   m.Content,
		File:      m.File,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
