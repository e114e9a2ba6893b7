package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/dkeye/Talk/internal/domain"
)

// userRecord is the stored shape of a user; domain.User hides the hash from JSON.
type userRecord struct {
	ID            domain.UserID `json:"id"`
	Name          string        `json:"name"`
	Email         string        `json:"email"`
	PasswordHash  string        `json:"passwordHash"`
	WalletAddress string        `json:"walletAddress,omitempty"`
	CreatedAt     int64         `json:"createdAt"`
}

type uniqueKey struct {
	key string
	err error
}

func userKey(id domain.UserID) string { return "user:id:" + string(id) }
func emailKey(email string) string    { return "user:email:" + domain.NormalizeEmail(email) }
func nameKey(name string) string      { return "user:name:" + strings.ToLower(name) }
func walletKey(addr string) string    { return "user:wallet:" + strings.ToLower(addr) }

// CreateUser stores u. Email, name and wallet must each be unused.
func (s *Store) CreateUser(ctx context.Context, u domain.User) error {
	if err := alive(ctx); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		checks := []uniqueKey{
			{emailKey(u.Email), ErrEmailTaken},
			{nameKey(u.Name), ErrNameTaken},
		}
		if u.WalletAddress != "" {
			checks = append(checks, uniqueKey{walletKey(u.WalletAddress), ErrWalletTaken})
		}
		for _, c := range checks {
			taken, err := exists(txn, c.key)
			if err != nil {
				return err
			}
			if taken {
				return c.err
			}
		}
		if err := setJSON(txn, userKey(u.ID), toRecord(u)); err != nil {
			return err
		}
		for _, c := range checks {
			if err := txn.Set([]byte(c.key), []byte(u.ID)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) FindUser(ctx context.Context, id domain.UserID) (domain.User, error) {
	if err := alive(ctx); err != nil {
		return domain.User{}, err
	}
	var rec userRecord
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, userKey(id), &rec)
	})
	if err != nil {
		return domain.User{}, fmt.Errorf("user %s: %w", id, err)
	}
	return rec.toDomain(), nil
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (domain.User, error) {
	if err := alive(ctx); err != nil {
		return domain.User{}, err
	}
	var rec userRecord
	err := s.db.View(func(txn *badger.Txn) error {
		id, err := getString(txn, emailKey(email))
		if err != nil {
			return err
		}
		return getJSON(txn, userKey(domain.UserID(id)), &rec)
	})
	if err != nil {
		return domain.User{}, fmt.Errorf("user %s: %w", email, err)
	}
	return rec.toDomain(), nil
}

// SearchUsers matches query case-insensitively against name and email.
// An empty query matches everyone. exclude is never returned.
func (s *Store) SearchUsers(ctx context.Context, query string, exclude domain.UserID) ([]domain.User, error) {
	if err := alive(ctx); err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(query))
	out := []domain.User{}
	err := s.db.View(func(txn *badger.Txn) error {
		return scan(txn, "user:id:", func(_, val []byte) error {
			var rec userRecord
			if err := unmarshal(val, &rec); err != nil {
				return err
			}
			if rec.ID == exclude {
				return nil
			}
			if q == "" || strings.Contains(strings.ToLower(rec.Name), q) || strings.Contains(rec.Email, q) {
				out = append(out, rec.toDomain())
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// UpdateWallet sets the wallet of id. Re-saving a user's own wallet is allowed.
func (s *Store) UpdateWallet(ctx context.Context, id domain.UserID, wallet string) (domain.User, error) {
	if err := alive(ctx); err != nil {
		return domain.User{}, err
	}
	var rec userRecord
	err := s.db.Update(func(txn *badger.Txn) error {
		if err := getJSON(txn, userKey(id), &rec); err != nil {
			return err
		}
		owner, err := getString(txn, walletKey(wallet))
		switch {
		case err == nil && domain.UserID(owner) != id:
			return ErrWalletTaken
		case err != nil && !errors.Is(err, ErrNotFound):
			return err
		}
		if rec.WalletAddress != "" && !strings.EqualFold(rec.WalletAddress, wallet) {
			if err := txn.Delete([]byte(walletKey(rec.WalletAddress))); err != nil {
				return err
			}
		}
		rec.WalletAddress = wallet
		if err := txn.Set([]byte(walletKey(wallet)), []byte(id)); err != nil {
			return err
		}
		return setJSON(txn, userKey(id), rec)
	})
	if err != nil {
		return domain.User{}, fmt.Errorf("update wallet of %s: %w", id, err)
	}
	return rec.toDomain(), nil
}

func toRecord(u domain.User) userRecord {
	return userRecord{
		ID:            u.ID,
		Name:          u.Name,
		Email:         domain.NormalizeEmail(u.Email),
		PasswordHash:  u.PasswordHash,
		WalletAddress: u.WalletAddress,
		CreatedAt:     u.CreatedAt.UnixNano(),
	}
}

func (r userRecord) toDomain() domain.User {
	return domain.User{
		ID:            r.ID,
		Name:          r.Name,
		Email:         r.Email,
		PasswordHash:  r.PasswordHash,
		WalletAddress: r.WalletAddress,
		CreatedAt:     unixNano(r.CreatedAt),
	}
}
