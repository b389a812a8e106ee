// Package memory keeps users in process memory. It follows the semantics of
// the MongoDB store (projections, versioned saves, unique email and username)
// and backs tests and local runs without a database.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/MrSnakeDoc/bookmarkpack/internal/domain"
)

const msgUnknownUser = "Unknown user."

// Store implements domain.UserStore.
type Store struct {
	mu    sync.RWMutex
	users map[primitive.ObjectID]*domain.User // ID -> User
	order []primitive.ObjectID                // insertion order, for stable lookups
	now   func() time.Time
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		users: make(map[primitive.ObjectID]*domain.User),
		now:   time.Now,
	}
}

func (s *Store) Ping(context.Context) error { return nil }

// Count returns the number of users in the store
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

func (s *Store) FindByID(_ context.Context, id primitive.ObjectID, p domain.Projection) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, domain.NotFound(msgUnknownUser)
	}
	return project(u, p), nil
}

func (s *Store) FindByField(_ context.Context, field domain.UserField, value string, p domain.Projection) (*domain.User, error) {
	if value == "" {
		return nil, domain.NotFound(msgUnknownUser)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, id := range s.order {
		u := s.users[id]
		if matches(u, field, value) {
			return project(u, p), nil
		}
	}
	return nil, domain.NotFound(msgUnknownUser)
}

func matches(u *domain.User, field domain.UserField, value string) bool {
	switch field {
	case domain.FieldEmail:
		return u.Email == value
	case domain.FieldUsername:
		return u.Username != "" && strings.EqualFold(u.Username, value)
	case domain.FieldFacebook:
		return u.Facebook == value
	case domain.FieldGoogle:
		return u.Google == value
	case domain.FieldVerificationToken:
		return u.VerificationToken == value
	case domain.FieldResetToken:
		return u.ResetPasswordToken == value
	}
	return false
}

func (s *Store) Create(_ context.Context, u *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	if u.Created.IsZero() {
		u.Created = s.now().UTC()
	}
	u.Version = 0

	if _, ok := s.users[u.ID]; ok {
		return fmt.Errorf("failed to write user: duplicate id %s", u.ID.Hex())
	}
	if err := s.checkUnique(u); err != nil {
		return err
	}

	s.users[u.ID] = clone(u)
	s.order = append(s.order, u.ID)
	u.SetLoaded(domain.ProjectionAll)
	return nil
}

// Save writes the field groups u was loaded with, conditional on the version
// it was read at.
func (s *Store) Save(_ context.Context, u *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.users[u.ID]
	if !ok {
		return domain.NotFound(msgUnknownUser)
	}
	if stored.Version != u.Version {
		return domain.Conflict(domain.MsgConcurrentWrite)
	}
	if err := s.checkUnique(u); err != nil {
		return err
	}

	next := clone(stored)
	next.Email = u.Email
	next.Username = u.Username
	next.Picture = u.Picture
	next.Facebook = u.Facebook
	next.Google = u.Google
	next.Verified = u.Verified

	loaded := u.Loaded()
	if loaded.Password {
		next.Password = u.Password
	}
	if loaded.Secrets {
		next.VerificationToken = u.VerificationToken
		next.ResetPasswordToken = u.ResetPasswordToken
		next.ResetPasswordExpires = u.ResetPasswordExpires
	}
	if loaded.Bookmarks {
		next.Bookmarks = cloneBookmarks(u.Bookmarks)
	}
	next.Version++

	s.users[u.ID] = next
	u.Version++
	return nil
}

// checkUnique mirrors the unique indexes of the database. Callers hold the lock.
func (s *Store) checkUnique(u *domain.User) error {
	for id, other := range s.users {
		if id == u.ID {
			continue
		}
		if other.Email == u.Email {
			return duplicate("email", u.Email)
		}
		if u.Username != "" && strings.EqualFold(other.Username, u.Username) {
			return duplicate("username", u.Username)
		}
	}
	return nil
}

func duplicate(field, value string) error {
	return domain.Invalid(domain.FieldError{
		Field:   field,
		Value:   value,
		Message: fmt.Sprintf("The %s %q is already in use.", field, value),
	})
}

func (s *Store) Delete(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return domain.NotFound(msgUnknownUser)
	}
	s.remove(id)
	return nil
}

func (s *Store) remove(id primitive.ObjectID) {
	delete(s.users, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// DeleteUnverifiedBefore removes password accounts never verified and created
// before the given time. Accounts linked to a provider are kept.
func (s *Store) DeleteUnverifiedBefore(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, u := range s.users {
		if u.Verified || !u.Created.Before(before) || u.Facebook != "" || u.Google != "" {
			continue
		}
		s.remove(id)
		n++
	}
	return n, nil
}

func (s *Store) ClearExpiredResetTokens(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, u := range s.users {
		if u.ResetPasswordExpires.IsZero() || !u.ResetPasswordExpires.Before(now) {
			continue
		}
		u.ResetPasswordToken = ""
		u.ResetPasswordExpires = time.Time{}
		u.Version++
		n++
	}
	return n, nil
}

// project returns a copy of u holding only the groups p asks for.
func project(u *domain.User, p domain.Projection) *domain.User {
	c := clone(u)
	if !p.Password {
		c.Password = ""
	}
	if !p.Secrets {
		c.VerificationToken = ""
		c.ResetPasswordToken = ""
		c.ResetPasswordExpires = time.Time{}
	}
	if !p.Bookmarks {
		c.Bookmarks = nil
	}
	c.SetLoaded(p)
	return c
}

func clone(u *domain.User) *domain.User {
	c := *u
	c.Bookmarks = cloneBookmarks(u.Bookmarks)
	return &c
}

func cloneBookmarks(bs []domain.Bookmark) []domain.Bookmark {
	if bs == nil {
		return nil
	}
	out := make([]domain.Bookmark, len(bs))
	for i, b := range bs {
		if b.Tags != nil {
			b.Tags = append(make([]string, 0, len(b.Tags)), b.Tags...)
		}
		out[i] = b
	}
	return out
}
