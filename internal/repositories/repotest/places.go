package repotest

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/anonto42/syrena/backend/internal/models"
	"github.com/anonto42/syrena/backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PlaceStore is an in-memory repositories.PlaceRepository.
type PlaceStore struct {
	mu     sync.Mutex
	places map[string]models.Place

	Err error
}

var _ repositories.PlaceRepository = (*PlaceStore)(nil)

func NewPlaceStore() *PlaceStore {
	return &PlaceStore{places: make(map[string]models.Place)}
}

func (s *PlaceStore) CreatePlace(_ context.Context, place *models.Place) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	now := time.Now().UTC()
	place.ID = primitive.NewObjectID()
	place.CreatedAt = now
	place.UpdatedAt = now
	s.places[place.ID.Hex()] = *place
	return nil
}

func (s *PlaceStore) GetPlaceByID(_ context.Context, id string) (*models.Place, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	p, ok := s.places[id]
	if !ok {
		return nil, repositories.ErrPlaceNotFound
	}
	return &p, nil
}

func (s *PlaceStore) ListByOwners(_ context.Context, ownerIDs []string, skip, limit int64) ([]models.Place, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	owners := make(map[string]bool, len(ownerIDs))
	for _, id := range ownerIDs {
		owners[id] = true
	}
	var out []models.Place
	for _, p := range s.places {
		if owners[p.OwnerID] {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if skip >= int64(len(out)) {
		return nil, nil
	}
	out = out[skip:]
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *PlaceStore) AddVisitor(_ context.Context, id, visitorID string) (*models.Place, error) {
	return s.toggleVisitor(id, visitorID, true)
}

func (s *PlaceStore) RemoveVisitor(_ context.Context, id, visitorID string) (*models.Place, error) {
	return s.toggleVisitor(id, visitorID, false)
}

func (s *PlaceStore) toggleVisitor(id, visitorID string, add bool) (*models.Place, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	p, ok := s.places[id]
	if !ok {
		return nil, repositories.ErrPlaceNotFound
	}
	at := slices.Index(p.Visitors, visitorID)
	switch {
	case add && at < 0:
		p.Visitors = append(slices.Clone(p.Visitors), visitorID)
	case !add && at >= 0:
		p.Visitors = slices.Delete(slices.Clone(p.Visitors), at, at+1)
	default:
		return &p, nil
	}
	p.VisitCount = len(p.Visitors)
	p.UpdatedAt = time.Now().UTC()
	s.places[id] = p
	return &p, nil
}

func (s *PlaceStore) DeletePlace(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, ok := s.places[id]; !ok {
		return repositories.ErrPlaceNotFound
	}
	delete(s.places, id)
	return nil
}
