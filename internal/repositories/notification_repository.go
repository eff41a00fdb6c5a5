package repositories

import (
	"context"

	"github.com/anonto42/syrena/backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// NotificationRepository defines the interface for notification operations
type NotificationRepository interface {
	CreateNotification(ctx context.Context, notification *models.Notification) error
	GetByRecipientID(ctx context.Context, recipientID uuid.UUID, page, limit int) ([]models.Notification, int64, error)
	GetUnreadCount(ctx context.Context, recipientID uuid.UUID) (int64, error)
	MarkAsRead(ctx context.Context, notificationID, recipientID uuid.UUID) (bool, error)
	MarkAllAsRead(ctx context.Context, recipientID uuid.UUID) error
}

type postgresNotificationRepository struct {
	db *gorm.DB
}

func NewPostgresNotificationRepository(db *gorm.DB) NotificationRepository {
	return &postgresNotificationRepository{db: db}
}

func (r *postgresNotificationRepository) CreateNotification(ctx context.Context, notification *models.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

func (r *postgresNotificationRepository) GetByRecipientID(ctx context.Context, recipientID uuid.UUID, page, limit int) ([]models.Notification, int64, error) {
	var notifications []models.Notification
	var total int64

	db := r.db.WithContext(ctx)
	if err := db.Model(&models.Notification{}).Where("recipient_id = ?", recipientID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := db.Where("recipient_id = ?", recipientID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&notifications).Error

	return notifications, total, err
}

func (r *postgresNotificationRepository) GetUnreadCount(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Notification{}).Where("recipient_id = ? AND is_read = false", recipientID).Count(&count).Error
	return count, err
}

// MarkAsRead only touches notifications owned by recipientID.
func (r *postgresNotificationRepository) MarkAsRead(ctx context.Context, notificationID, recipientID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND recipient_id = ?", notificationID, recipientID).
		Update("is_read", true)
	return res.RowsAffected > 0, res.Error
}

func (r *postgresNotificationRepository) MarkAllAsRead(ctx context.Context, recipientID uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&models.Notification{}).Where("recipient_id = ? AND is_read = false", recipientID).Update("is_read", true).Error
}

// DeviceTokenRepository stores FCM registration tokens.
type DeviceTokenRepository interface {
	Upsert(ctx context.Context, token *models.DeviceToken) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.DeviceToken, error)
	Delete(ctx context.Context, token string) error
}

type postgresDeviceTokenRepository struct {
	db *gorm.DB
}

func NewPostgresDeviceTokenRepository(db *gorm.DB) DeviceTokenRepository {
	return &postgresDeviceTokenRepository{db: db}
}

// Upsert re-assigns an existing token to the latest user who registered it.
func (r *postgresDeviceTokenRepository) Upsert(ctx context.Context, token *models.DeviceToken) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "token"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_id", "platform", "updated_at"}),
	}).Create(token).Error
}

func (r *postgresDeviceTokenRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.DeviceToken, error) {
	var tokens []models.DeviceToken
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Find(&tokens).Error
	return tokens, err
}

func (r *postgresDeviceTokenRepository) Delete(ctx context.Context, token string) error {
	return r.db.WithContext(ctx).Where("token = ?", token).Delete(&models.DeviceToken{}).Error
}
