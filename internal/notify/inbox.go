// Package notify delivers friendship notifications to the in-app inbox and
// to registered devices.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/anonto42/syrena/backend/internal/models"
	"github.com/anonto42/syrena/backend/internal/repositories"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Message renders the human readable text of a notification.
func Message(kind models.NotificationKind, payload models.NotificationPayload) string {
	name := payload.ActorName
	if name == "" {
		name = "Someone"
	}
	switch kind {
	case models.NotificationFriendRequest:
		return name + " sent you a friend request"
	case models.NotificationFriendAccepted:
		return name + " accepted your friend request"
	default:
		return name + " interacted with you"
	}
}

func title(kind models.NotificationKind) string {
	if kind == models.NotificationFriendAccepted {
		return "New friend"
	}
	return "Friend request"
}

// InboxNotifier stores notifications in the notifications table.
type InboxNotifier struct {
	repo repositories.NotificationRepository
}

func NewInboxNotifier(repo repositories.NotificationRepository) *InboxNotifier {
	return &InboxNotifier{repo: repo}
}

func (n *InboxNotifier) Notify(ctx context.Context, to uuid.UUID, kind models.NotificationKind, payload models.NotificationPayload) error {
	err := n.repo.CreateNotification(ctx, &models.Notification{
		Kind:        kind,
		ActorID:     payload.ActorID,
		RecipientID: to,
		TargetID:    payload.FriendshipID.String(),
		Message:     Message(kind, payload),
	})
	if err != nil {
		return fmt.Errorf("store notification: %w", err)
	}
	return nil
}

// Fanout delivers through every notifier and joins their errors.
type Fanout struct {
	notifiers []Notifier
	logger    *zap.Logger
}

// Notifier matches services.Notifier.
type Notifier interface {
	Notify(ctx context.Context, to uuid.UUID, kind models.NotificationKind, payload models.NotificationPayload) error
}

func NewFanout(logger *zap.Logger, notifiers ...Notifier) *Fanout {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fanout{notifiers: notifiers, logger: logger}
}

func (f *Fanout) Notify(ctx context.Context, to uuid.UUID, kind models.NotificationKind, payload models.NotificationPayload) error {
	var errs []error
	for _, n := range f.notifiers {
		if err := n.Notify(ctx, to, kind, payload); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		f.logger.Debug("notification partially delivered",
			zap.Int("failed", len(errs)),
			zap.Int("notifiers", len(f.notifiers)))
	}
	return errors.Join(errs...)
}
