// Package memory is an in-process storage backend for local runs and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hongminglow/finance-api/internal/models"
	"github.com/hongminglow/finance-api/internal/storage"
)

var _ storage.Store = (*Store)(nil)

// Store keeps users and movements in maps guarded by a mutex.
type Store struct {
	mu        sync.Mutex
	users     map[string]models.User
	movements map[int64]models.Movement
	nextID    int64
	now       func() time.Time
}

// New returns an empty store.
func New() *Store {
	return &Store{
		users:     make(map[string]models.User),
		movements: make(map[int64]models.Movement),
		now:       time.Now,
	}
}

// CreateUser inserts a user, rejecting duplicate ids and emails.
func (s *Store) CreateUser(_ context.Context, user models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; ok {
		return models.User{}, storage.ErrAlreadyExists
	}
	for _, u := range s.users {
		if u.Email == user.Email {
			return models.User{}, storage.ErrAlreadyExists
		}
	}
	user.Role = user.Role.OrDefault()
	// Strictly increasing timestamps keep ListUsers ordering deterministic.
	created := s.now()
	for _, u := range s.users {
		if !created.After(u.CreatedAt) {
			created = u.CreatedAt.Add(time.Microsecond)
		}
	}
	user.CreatedAt = created
	s.users[user.ID] = user
	return user, nil
}

// GetUser fetches a user by id.
func (s *Store) GetUser(_ context.Context, id string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	return user, nil
}

// FindByEmail fetches a user by exact email.
func (s *Store) FindByEmail(_ context.Context, email string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, storage.ErrNotFound
}

// ListUsers returns all users, newest first.
func (s *Store) ListUsers(_ context.Context) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// UpdateUser changes the non-nil patch fields.
func (s *Store) UpdateUser(_ context.Context, id string, patch storage.UserPatch) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	if patch.Name != nil {
		user.Name = *patch.Name
	}
	if patch.Role != nil {
		user.Role = *patch.Role
	}
	if patch.Phone != nil {
		phone := *patch.Phone
		user.Phone = &phone
	}
	s.users[id] = user
	return user, nil
}

// DeleteUser removes a user and their movements.
func (s *Store) DeleteUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.users, id)
	for mid, m := range s.movements {
		if m.UserID == id {
			delete(s.movements, mid)
		}
	}
	return nil
}

// PromoteIfFirst grants ADMIN to id when it is the oldest account.
func (s *Store) PromoteIfFirst(_ context.Context, id string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	for _, u := range s.users {
		if u.CreatedAt.Before(user.CreatedAt) || (u.CreatedAt.Equal(user.CreatedAt) && u.ID < user.ID) {
			return user, nil
		}
	}
	user.Role = models.RoleAdmin
	s.users[id] = user
	return user, nil
}

// CreateMovement stores a movement under the next id. The owner must exist.
func (s *Store) CreateMovement(_ context.Context, m models.Movement) (models.Movement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[m.UserID]; !ok {
		return models.Movement{}, fmt.Errorf("movement owner %s: %w", m.UserID, storage.ErrNotFound)
	}
	s.nextID++
	m.ID = s.nextID
	m.User = nil
	// Amounts are persisted as text, as the Postgres backend does.
	m.Amount = models.StringAmount(m.Amount.String())
	s.movements[m.ID] = m
	return m, nil
}

// GetMovement fetches a movement with its owner attached.
func (s *Store) GetMovement(_ context.Context, id int64) (models.Movement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.movements[id]
	if !ok {
		return models.Movement{}, storage.ErrNotFound
	}
	return s.withOwner(m), nil
}

// ListMovements returns all movements ordered by date, then id.
func (s *Store) ListMovements(_ context.Context, order storage.SortOrder) ([]models.Movement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Movement, 0, len(s.movements))
	for _, m := range s.movements {
		out = append(out, s.withOwner(m))
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.Date.Equal(b.Date) {
			if order == storage.Ascending {
				return a.Date.Before(b.Date)
			}
			return a.Date.After(b.Date)
		}
		if order == storage.Ascending {
			return a.ID < b.ID
		}
		return a.ID > b.ID
	})
	return out, nil
}

// UpdateMovement changes the non-nil patch fields.
func (s *Store) UpdateMovement(_ context.Context, id int64, patch storage.MovementPatch) (models.Movement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.movements[id]
	if !ok {
		return models.Movement{}, storage.ErrNotFound
	}
	if patch.Amount != nil {
		m.Amount = models.StringAmount(patch.Amount.String())
	}
	if patch.Concept != nil {
		m.Concept = *patch.Concept
	}
	if patch.Date != nil {
		m.Date = *patch.Date
	}
	if patch.Type != nil {
		m.Type = *patch.Type
	}
	s.movements[id] = m
	return s.withOwner(m), nil
}

// DeleteMovement removes a movement by id.
func (s *Store) DeleteMovement(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.movements[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.movements, id)
	return nil
}

func (s *Store) withOwner(m models.Movement) models.Movement {
	if u, ok := s.users[m.UserID]; ok {
		m.User = &models.UserRef{ID: u.ID, Name: u.Name, Email: u.Email}
	}
	return m
}
