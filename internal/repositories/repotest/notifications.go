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

// NotificationStore is an in-memory repositories.NotificationRepository.
type NotificationStore struct {
	mu    sync.Mutex
	items []models.Notification

	Err error
}

var _ repositories.NotificationRepository = (*NotificationStore)(nil)

func NewNotificationStore() *NotificationStore {
	return &NotificationStore{}
}

func (s *NotificationStore) CreateNotification(_ context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	_ = n.BeforeCreate(nil)
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	s.items = append(s.items, *n)
	return nil
}

func (s *NotificationStore) GetByRecipientID(_ context.Context, recipientID uuid.UUID, page, limit int) ([]models.Notification, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, 0, s.Err
	}
	var mine []models.Notification
	for _, n := range s.items {
		if n.RecipientID == recipientID {
			mine = append(mine, n)
		}
	}
	sort.SliceStable(mine, func(i, j int) bool { return mine[i].CreatedAt.After(mine[j].CreatedAt) })
	total := int64(len(mine))
	start := (page - 1) * limit
	if start >= len(mine) {
		return nil, total, nil
	}
	end := start + limit
	if end > len(mine) {
		end = len(mine)
	}
	return mine[start:end], total, nil
}

func (s *NotificationStore) GetUnreadCount(_ context.Context, recipientID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	var n int64
	for _, item := range s.items {
		if item.RecipientID == recipientID && !item.IsRead {
			n++
		}
	}
	return n, nil
}

func (s *NotificationStore) MarkAsRead(_ context.Context, notificationID, recipientID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return false, s.Err
	}
	for i := range s.items {
		if s.items[i].ID == notificationID && s.items[i].RecipientID == recipientID {
			s.items[i].IsRead = true
			return true, nil
		}
	}
	return false, nil
}

func (s *NotificationStore) MarkAllAsRead(_ context.Context, recipientID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	for i := range s.items {
		if s.items[i].RecipientID == recipientID {
			s.items[i].IsRead = true
		}
	}
	return nil
}

// All returns every stored notification in insertion order.
func (s *NotificationStore) All() []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Notification(nil), s.items...)
}

// DeviceTokenStore is an in-memory repositories.DeviceTokenRepository.
type DeviceTokenStore struct {
	mu     sync.Mutex
	tokens map[string]models.DeviceToken

	Err error
}

var _ repositories.DeviceTokenRepository = (*DeviceTokenStore)(nil)

func NewDeviceTokenStore() *DeviceTokenStore {
	return &DeviceTokenStore{tokens: make(map[string]models.DeviceToken)}
}

func (s *DeviceTokenStore) Upsert(_ context.Context, token *models.DeviceToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.tokens[token.Token] = *token
	return nil
}

func (s *DeviceTokenStore) ListByUser(_ context.Context, userID uuid.UUID) ([]models.DeviceToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	var out []models.DeviceToken
	for _, t := range s.tokens {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Token < out[j].Token })
	return out, nil
}

func (s *DeviceTokenStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	delete(s.tokens, token)
	return nil
}
