package repotest

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/anonto42/syrena/backend/internal/models"
	"github.com/anonto42/syrena/backend/internal/repositories"
	"github.com/google/uuid"
)

// UserStore is an in-memory repositories.UserRepository.
type UserStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]models.User

	Err error
}

var _ repositories.UserRepository = (*UserStore)(nil)

func NewUserStore() *UserStore {
	return &UserStore{users: make(map[uuid.UUID]models.User)}
}

// Add stores a user with the given handle and returns it.
func (s *UserStore) Add(username, displayName string) models.User {
	u := models.User{
		ID:          uuid.New(),
		Username:    username,
		DisplayName: displayName,
		Email:       username + "@example.com",
	}
	s.mu.Lock()
	s.users[u.ID] = u
	s.mu.Unlock()
	return u
}

func (s *UserStore) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	for _, u := range s.users {
		if strings.EqualFold(u.Email, user.Email) || strings.EqualFold(u.Username, user.Username) {
			return repositories.ErrUserExists
		}
	}
	if err := user.BeforeCreate(nil); err != nil {
		return err
	}
	s.users[user.ID] = *user
	return nil
}

func (s *UserStore) GetUserByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	return s.find(func(u models.User) bool { return u.ID == id })
}

func (s *UserStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	return s.find(func(u models.User) bool { return strings.EqualFold(u.Email, email) })
}

func (s *UserStore) GetUserByFirebaseUID(_ context.Context, firebaseUID string) (*models.User, error) {
	return s.find(func(u models.User) bool { return u.FirebaseUID != nil && *u.FirebaseUID == firebaseUID })
}

func (s *UserStore) find(match func(models.User) bool) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	for _, u := range s.users {
		if match(u) {
			return &u, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (s *UserStore) GetUsersByIDs(_ context.Context, ids []uuid.UUID) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	var out []models.User
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *UserStore) UpdateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.users[user.ID] = *user
	return nil
}

func (s *UserStore) SearchUsers(_ context.Context, query string, excludeID uuid.UUID, limit int) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	q := strings.ToLower(query)
	var out []models.User
	for _, u := range s.users {
		if u.ID == excludeID {
			continue
		}
		if strings.Contains(strings.ToLower(u.Username), q) || strings.Contains(strings.ToLower(u.DisplayName), q) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
