package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/anonto42/syrena/backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrFriendshipNotFound = errors.New("friendship not found")
	// ErrDuplicatePair is returned by Create when a row already exists for the unordered pair.
	ErrDuplicatePair = errors.New("a friendship already exists between these users")
)

// FriendshipRepository defines the interface for friendship data operations.
// Writes that depend on the current status are conditional and report
// whether a row was affected, so callers can detect lost races.
type FriendshipRepository interface {
	Create(ctx context.Context, f *models.Friendship) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Friendship, error)
	GetByPair(ctx context.Context, a, b uuid.UUID) (*models.Friendship, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Friendship, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.FriendshipStatus, at time.Time) (bool, error)
	Reopen(ctx context.Context, id, requesterID, addresseeID uuid.UUID, at time.Time) (bool, error)
	DeleteWithStatus(ctx context.Context, id uuid.UUID, status models.FriendshipStatus) (bool, error)
}

// PostgresFriendshipRepository implements FriendshipRepository for PostgreSQL
type PostgresFriendshipRepository struct {
	db *gorm.DB
}

// NewPostgresFriendshipRepository creates a new PostgresFriendshipRepository
func NewPostgresFriendshipRepository(db *gorm.DB) *PostgresFriendshipRepository {
	return &PostgresFriendshipRepository{db: db}
}

// Create inserts a new row. The unique index on pair_key arbitrates
// concurrent requests between the same two users.
func (r *PostgresFriendshipRepository) Create(ctx context.Context, f *models.Friendship) error {
	err := r.db.WithContext(ctx).Create(f).Error
	if isUniqueViolation(err) {
		return ErrDuplicatePair
	}
	return err
}

func (r *PostgresFriendshipRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Friendship, error) {
	var f models.Friendship
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&f).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFriendshipNotFound
		}
		return nil, err
	}
	return &f, nil
}

// GetByPair finds the row for {a, b} in either orientation.
func (r *PostgresFriendshipRepository) GetByPair(ctx context.Context, a, b uuid.UUID) (*models.Friendship, error) {
	var f models.Friendship
	if err := r.db.WithContext(ctx).Where("pair_key = ?", models.PairKey(a, b)).First(&f).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFriendshipNotFound
		}
		return nil, err
	}
	return &f, nil
}

// ListByUser returns every pending or accepted row touching userID, newest first.
func (r *PostgresFriendshipRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Friendship, error) {
	var rows []models.Friendship
	err := r.db.WithContext(ctx).
		Where("(requester_id = ? OR addressee_id = ?) AND status IN ?", userID, userID,
			[]models.FriendshipStatus{models.FriendshipPending, models.FriendshipAccepted}).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

// UpdateStatus moves a row from one status to another only if it is still in `from`.
func (r *PostgresFriendshipRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.FriendshipStatus, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Friendship{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{"status": to, "updated_at": at})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// Reopen turns a declined row into a fresh pending request from requesterID.
func (r *PostgresFriendshipRepository) Reopen(ctx context.Context, id, requesterID, addresseeID uuid.UUID, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Friendship{}).
		Where("id = ? AND status = ?", id, models.FriendshipDeclined).
		Updates(map[string]interface{}{
			"requester_id": requesterID,
			"addressee_id": addresseeID,
			"status":       models.FriendshipPending,
			"created_at":   at,
			"updated_at":   at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// DeleteWithStatus hard-deletes the row if it still has the given status.
func (r *PostgresFriendshipRepository) DeleteWithStatus(ctx context.Context, id uuid.UUID, status models.FriendshipStatus) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ? AND status = ?", id, status).Delete(&models.Friendship{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
