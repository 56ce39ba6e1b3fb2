package memstore

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/ariefcatur/go-stockorders/internal/auth"
)

type Users struct {
	mu     sync.RWMutex
	byID   map[int64]auth.User
	nextID int64
}

func NewUsers() *Users {
	return &Users{byID: map[int64]auth.User{}}
}

func (s *Users) Create(_ context.Context, u auth.User) (auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.byID {
		if strings.EqualFold(existing.Email, u.Email) {
			return auth.User{}, auth.ErrDuplicateEmail
		}
		if existing.Username == u.Username {
			return auth.User{}, auth.ErrDuplicateUsername
		}
	}
	s.nextID++
	u.ID = s.nextID
	u.CreatedAt = time.Now().UTC()
	s.byID[u.ID] = u
	return u, nil
}

func (s *Users) Get(_ context.Context, id int64) (auth.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byID[id]
	if !ok {
		return auth.User{}, auth.ErrUserNotFound
	}
	return u, nil
}

func (s *Users) FindByLogin(_ context.Context, login string) (auth.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.byID {
		if u.Username == login || strings.EqualFold(u.Email, login) {
			return u, nil
		}
	}
	return auth.User{}, auth.ErrUserNotFound
}

func (s *Users) SetRefreshToken(_ context.Context, id int64, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		return auth.ErrUserNotFound
	}
	u.RefreshToken = token
	s.byID[id] = u
	return nil
}

// SetActive is used by operators and tests to disable an account.
func (s *Users) SetActive(id int64, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.byID[id]; ok {
		u.IsActive = active
		s.byID[id] = u
	}
}
