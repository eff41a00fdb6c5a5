// Package repotest provides in-memory repositories that honour the same
// uniqueness and conditional-write contracts as the database-backed ones.
package repotest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/anonto42/syrena/backend/internal/models"
	"github.com/anonto42/syrena/backend/internal/repositories"
	"github.com/google/uuid"
)

// FriendshipStore is an in-memory repositories.FriendshipRepository.
type FriendshipStore struct {
	mu     sync.Mutex
	rows   map[uuid.UUID]models.Friendship
	byPair map[string]uuid.UUID

	// Err, when set, is returned by every call.
	Err error
}

var _ repositories.FriendshipRepository = (*FriendshipStore)(nil)

func NewFriendshipStore() *FriendshipStore {
	return &FriendshipStore{
		rows:   make(map[uuid.UUID]models.Friendship),
		byPair: make(map[string]uuid.UUID),
	}
}

func (s *FriendshipStore) Create(_ context.Context, f *models.Friendship) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if err := f.BeforeCreate(nil); err != nil {
		return err
	}
	if _, ok := s.byPair[f.PairKey]; ok {
		return repositories.ErrDuplicatePair
	}
	s.rows[f.ID] = *f
	s.byPair[f.PairKey] = f.ID
	return nil
}

func (s *FriendshipStore) GetByID(_ context.Context, id uuid.UUID) (*models.Friendship, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	f, ok := s.rows[id]
	if !ok {
		return nil, repositories.ErrFriendshipNotFound
	}
	return &f, nil
}

func (s *FriendshipStore) GetByPair(_ context.Context, a, b uuid.UUID) (*models.Friendship, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	id, ok := s.byPair[models.PairKey(a, b)]
	if !ok {
		return nil, repositories.ErrFriendshipNotFound
	}
	f := s.rows[id]
	return &f, nil
}

func (s *FriendshipStore) ListByUser(_ context.Context, userID uuid.UUID) ([]models.Friendship, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	var out []models.Friendship
	for _, f := range s.rows {
		if f.Involves(userID) && f.Status != models.FriendshipDeclined {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *FriendshipStore) UpdateStatus(_ context.Context, id uuid.UUID, from, to models.FriendshipStatus, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return false, s.Err
	}
	f, ok := s.rows[id]
	if !ok || f.Status != from {
		return false, nil
	}
	f.Status = to
	f.UpdatedAt = at
	s.rows[id] = f
	return true, nil
}

func (s *FriendshipStore) Reopen(_ context.Context, id, requesterID, addresseeID uuid.UUID, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return false, s.Err
	}
	f, ok := s.rows[id]
	if !ok || f.Status != models.FriendshipDeclined {
		return false, nil
	}
	f.RequesterID = requesterID
	f.AddresseeID = addresseeID
	f.Status = models.FriendshipPending
	f.CreatedAt = at
	f.UpdatedAt = at
	s.rows[id] = f
	return true, nil
}

func (s *FriendshipStore) DeleteWithStatus(_ context.Context, id uuid.UUID, status models.FriendshipStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return false, s.Err
	}
	f, ok := s.rows[id]
	if !ok || f.Status != status {
		return false, nil
	}
	delete(s.rows, id)
	delete(s.byPair, f.PairKey)
	return true, nil
}

// CountPair returns how many rows exist for {a, b} in either orientation.
func (s *FriendshipStore) CountPair(a, b uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, f := range s.rows {
		if f.Involves(a) && f.Involves(b) {
			n++
		}
	}
	return n
}
