package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dkeye/Talk/internal/domain"
	"github.com/samber/lo"
)

func chatKey(id domain.ChatID) string { return "chat:" + string(id) }

func chatUserKey(user domain.UserID, chat domain.ChatID) string {
	return "chatuser:" + string(user) + ":" + string(chat)
}

func (s *Store) CreateChat(ctx context.Context, c domain.Chat) error {
	if err := alive(ctx); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		if err := setJSON(txn, chatKey(c.ID), c); err != nil {
			return err
		}
		for _, u := range c.Users {
			if err := txn.Set([]byte(chatUserKey(u, c.ID)), nil); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) FindChat(ctx context.Context, id domain.ChatID) (domain.Chat, error) {
	if err := alive(ctx); err != nil {
		return domain.Chat{}, err
	}
	var c domain.Chat
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, chatKey(id), &c)
	})
	if err != nil {
		return domain.Chat{}, fmt.Errorf("chat %s: %w", id, err)
	}
	return c, nil
}

// FindDirectChat returns the one-to-one chat between a and b, or ErrNotFound.
func (s *Store) FindDirectChat(ctx context.Context, a, b domain.UserID) (domain.Chat, error) {
	chats, err := s.ChatsOf(ctx, a)
	if err != nil {
		return domain.Chat{}, err
	}
	c, ok := lo.Find(chats, func(c domain.Chat) bool { return !c.IsGroup && c.HasUser(b) })
	if !ok {
		return domain.Chat{}, ErrNotFound
	}
	return c, nil
}

// ChatsOf lists the chats user belongs to, most recently updated first.
func (s *Store) ChatsOf(ctx context.Context, user domain.UserID) ([]domain.Chat, error) {
	if err := alive(ctx); err != nil {
		return nil, err
	}
	out := []domain.Chat{}
	prefix := "chatuser:" + string(user) + ":"
	err := s.db.View(func(txn *badger.Txn) error {
		var ids []domain.ChatID
		err := scan(txn, prefix, func(key, _ []byte) error {
			ids = append(ids, domain.ChatID(strings.TrimPrefix(string(key), prefix)))
			return nil
		})
		if err != nil {
			return err
		}
		for _, id := range ids {
			var c domain.Chat
			if err := getJSON(txn, chatKey(id), &c); err != nil {
				return fmt.Errorf("chat %s: %w", id, err)
			}
			out = append(out, c)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortByRecent(out)
	return out, nil
}

// GroupsCreatedBy lists the group chats user created.
func (s *Store) GroupsCreatedBy(ctx context.Context, user domain.UserID) ([]domain.Chat, error) {
	if err := alive(ctx); err != nil {
		return nil, err
	}
	out := []domain.Chat{}
	err := s.db.View(func(txn *badger.Txn) error {
		return scan(txn, "chat:", func(_, val []byte) error {
			var c domain.Chat
			if err := unmarshal(val, &c); err != nil {
				return err
			}
			if c.IsGroup && c.CreatorID == user {
				out = append(out, c)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sortByRecent(out)
	return out, nil
}

// AddChatUser adds user to the chat. Adding a member twice is a no-op.
func (s *Store) AddChatUser(ctx context.Context, id domain.ChatID, user domain.UserID) (domain.Chat, error) {
	if err := alive(ctx); err != nil {
		return domain.Chat{}, err
	}
	var c domain.Chat
	err := s.db.Update(func(txn *badger.Txn) error {
		if err := getJSON(txn, chatKey(id), &c); err != nil {
			return err
		}
		if c.HasUser(user) {
			return nil
		}
		c.Users = append(c.Users, user)
		c.UpdatedAt = time.Now().UTC()
		if err := setJSON(txn, chatKey(id), c); err != nil {
			return err
		}
		return txn.Set([]byte(chatUserKey(user, id)), nil)
	})
	if err != nil {
		return domain.Chat{}, fmt.Errorf("add %s to chat %s: %w", user, id, err)
	}
	return c, nil
}

// DeleteChat removes the chat, its membership index and its messages, and returns what was removed.
// The chat itself goes in one transaction; its history is dropped afterwards in batches.
func (s *Store) DeleteChat(ctx context.Context, id domain.ChatID) (domain.Chat, error) {
	if err := alive(ctx); err != nil {
		return domain.Chat{}, err
	}
	var c domain.Chat
	err := s.db.Update(func(txn *badger.Txn) error {
		if err := getJSON(txn, chatKey(id), &c); err != nil {
			return err
		}
		if err := txn.Delete([]byte(chatKey(id))); err != nil {
			return err
		}
		for _, u := range c.Users {
			if err := txn.Delete([]byte(chatUserKey(u, id))); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.Chat{}, fmt.Errorf("delete chat %s: %w", id, err)
	}
	if err := s.deleteMessages(id); err != nil {
		return domain.Chat{}, fmt.Errorf("delete messages of %s: %w", id, err)
	}
	return c, nil
}

// deleteMessages removes every message of chat and its id index through a
// WriteBatch, which commits as it fills instead of failing with ErrTxnTooBig.
func (s *Store) deleteMessages(chat domain.ChatID) error {
	var doomed [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		return scan(txn, msgPrefix(chat), func(key, val []byte) error {
			var m domain.Message
			if err := unmarshal(val, &m); err != nil {
				return err
			}
			doomed = append(doomed, key, []byte(msgIDKey(m.ID)))
			return nil
		})
	})
	if err != nil {
		return err
	}
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for _, k := range doomed {
		if err := wb.Delete(k); err != nil {
			return err
		}
	}
	return wb.Flush()
}

func sortByRecent(chats []domain.Chat) {
	sort.SliceStable(chats, func(i, j int) bool { return chats[i].UpdatedAt.After(chats[j].UpdatedAt) })
}
