package store

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dkeye/Talk/internal/domain"
	"github.com/google/uuid"
)

// msgPrefix hex-encodes the chat id so no id can be a prefix of another's keys.
func msgPrefix(chat domain.ChatID) string { return "msg:" + hex.EncodeToString([]byte(chat)) + ":" }

func msgKey(m domain.Message) string {
	return fmt.Sprintf("%s%019d:%s", msgPrefix(m.Chat), m.CreatedAt.UnixNano(), m.ID)
}

func msgIDKey(id domain.MessageID) string { return "msgid:" + string(id) }

// CreateMessage assigns an id and timestamps, stores the message and,
// when the chat is known, makes it the chat's latest message.
func (s *Store) CreateMessage(ctx context.Context, m domain.Message) (domain.Message, error) {
	if err := alive(ctx); err != nil {
		return domain.Message{}, err
	}
	if m.ID == "" {
		m.ID = domain.MessageID(uuid.NewString())
	}
	now := time.Now().UTC()
	m.CreatedAt, m.UpdatedAt = now, now

	err := s.db.Update(func(txn *badger.Txn) error {
		key := msgKey(m)
		if err := setJSON(txn, key, m); err != nil {
			return err
		}
		if err := txn.Set([]byte(msgIDKey(m.ID)), []byte(key)); err != nil {
			return err
		}
		var c domain.Chat
		err := getJSON(txn, chatKey(m.Chat), &c)
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		c.LatestMessage = m.ID
		c.UpdatedAt = now
		return setJSON(txn, chatKey(c.ID), c)
	})
	if err != nil {
		return domain.Message{}, fmt.Errorf("create message in %s: %w", m.Chat, err)
	}
	return m, nil
}

func (s *Store) FindMessage(ctx context.Context, id domain.MessageID) (domain.Message, error) {
	if err := alive(ctx); err != nil {
		return domain.Message{}, err
	}
	var m domain.Message
	err := s.db.View(func(txn *badger.Txn) error {
		key, err := getString(txn, msgIDKey(id))
		if err != nil {
			return err
		}
		return getJSON(txn, key, &m)
	})
	if err != nil {
		return domain.Message{}, fmt.Errorf("message %s: %w", id, err)
	}
	return m, nil
}

// Messages returns the chat history, oldest first.
func (s *Store) Messages(ctx context.Context, chat domain.ChatID) ([]domain.Message, error) {
	if err := alive(ctx); err != nil {
		return nil, err
	}
	out := []domain.Message{}
	err := s.db.View(func(txn *badger.Txn) error {
		return scan(txn, msgPrefix(chat), func(_, val []byte) error {
			var m domain.Message
			if err := unmarshal(val, &m); err != nil {
				return err
			}
			out = append(out, m)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// LastMessage returns the newest message of chat, or nil when it has none.
func (s *Store) LastMessage(ctx context.Context, chat domain.ChatID) (*domain.Message, error) {
	if err := alive(ctx); err != nil {
		return nil, err
	}
	var last *domain.Message
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := []byte(msgPrefix(chat))
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		// 0xFF sorts after every digit, so this lands on the newest key.
		it.Seek(append(append([]byte{}, prefix...), 0xFF))
		if !it.ValidForPrefix(prefix) {
			return nil
		}
		return it.Item().Value(func(val []byte) error {
			var m domain.Message
			if err := unmarshal(val, &m); err != nil {
				return err
			}
			last = &m
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return last, nil
}
