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

// CommentStore is an in-memory repositories.CommentRepository.
type CommentStore struct {
	mu       sync.Mutex
	comments map[uuid.UUID]models.Comment

	Err error
}

var _ repositories.CommentRepository = (*CommentStore)(nil)

func NewCommentStore() *CommentStore {
	return &CommentStore{comments: make(map[uuid.UUID]models.Comment)}
}

func (s *CommentStore) CreateComment(_ context.Context, c *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if err := c.BeforeCreate(nil); err != nil {
		return err
	}
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now
	s.comments[c.ID] = *c
	return nil
}

func (s *CommentStore) GetCommentByID(_ context.Context, id uuid.UUID) (*models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	c, ok := s.comments[id]
	if !ok {
		return nil, repositories.ErrCommentNotFound
	}
	return &c, nil
}

func (s *CommentStore) GetCommentsByPlaceID(_ context.Context, placeID string, offset, limit int) ([]models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	var out []models.Comment
	for _, c := range s.comments {
		if c.PlaceID == placeID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *CommentStore) UpdateContent(_ context.Context, id, authorID uuid.UUID, content string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return false, s.Err
	}
	c, ok := s.comments[id]
	if !ok || c.UserID != authorID {
		return false, nil
	}
	c.Content, c.UpdatedAt = content, at
	s.comments[id] = c
	return true, nil
}

func (s *CommentStore) DeleteComment(_ context.Context, id, authorID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return false, s.Err
	}
	c, ok := s.comments[id]
	if !ok || c.UserID != authorID {
		return false, nil
	}
	delete(s.comments, id)
	return true, nil
}
