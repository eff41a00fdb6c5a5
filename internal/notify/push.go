package notify

import (
	"context"
	"errors"
	"fmt"

	"firebase.google.com/go/v4/messaging"
	"github.com/anonto42/syrena/backend/internal/models"
	"github.com/anonto42/syrena/backend/internal/repositories"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrAllPushFailed = errors.New("all push notifications failed")

// Sender is the part of *messaging.Client used for pushes.
type Sender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// PushNotifier sends one FCM message per registered device of the recipient.
type PushNotifier struct {
	sender Sender
	tokens repositories.DeviceTokenRepository
	logger *zap.Logger
}

func NewPushNotifier(sender Sender, tokens repositories.DeviceTokenRepository, logger *zap.Logger) *PushNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PushNotifier{sender: sender, tokens: tokens, logger: logger}
}

func (p *PushNotifier) Notify(ctx context.Context, to uuid.UUID, kind models.NotificationKind, payload models.NotificationPayload) error {
	devices, err := p.tokens.ListByUser(ctx, to)
	if err != nil {
		return fmt.Errorf("list device tokens: %w", err)
	}
	if len(devices) == 0 {
		return nil
	}

	data := map[string]string{
		"kind":          string(kind),
		"actor_id":      payload.ActorID.String(),
		"friendship_id": payload.FriendshipID.String(),
	}
	sent, failed := 0, 0
	for _, d := range devices {
		msg := &messaging.Message{
			Token: d.Token,
			Notification: &messaging.Notification{
				Title: title(kind),
				Body:  Message(kind, payload),
			},
			Data: data,
			Android: &messaging.AndroidConfig{
				Priority:     "high",
				Notification: &messaging.AndroidNotification{Sound: "default"},
			},
		}
		if _, err := p.sender.Send(ctx, msg); err != nil {
			failed++
			p.logger.Warn("push failed", zap.String("platform", d.Platform), zap.Error(err))
			if messaging.IsUnregistered(err) {
				if err := p.tokens.Delete(ctx, d.Token); err != nil {
					p.logger.Warn("could not drop unregistered token", zap.Error(err))
				}
			}
			continue
		}
		sent++
	}

	p.logger.Debug("push delivered", zap.Int("sent", sent), zap.Int("failed", failed))
	if sent == 0 && failed > 0 {
		return ErrAllPushFailed
	}
	return nil
}
