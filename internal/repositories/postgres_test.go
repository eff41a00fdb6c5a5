package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/anonto42/syrena/backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

var friendshipColumns = []string{"id", "requester_id", "addressee_id", "pair_key", "status", "created_at", "updated_at"}

func TestFriendshipCreate_SetsPairKey(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresFriendshipRepository(db)

	mock.ExpectExec(`INSERT INTO "friendships"`).WillReturnResult(sqlmock.NewResult(0, 1))

	a, b := uuid.New(), uuid.New()
	f := &models.Friendship{RequesterID: b, AddresseeID: a, Status: models.FriendshipPending}
	require.NoError(t, repo.Create(context.Background(), f))

	assert.NotEqual(t, uuid.Nil, f.ID)
	assert.Equal(t, models.PairKey(a, b), f.PairKey)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFriendshipCreate_UniqueViolation(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresFriendshipRepository(db)

	mock.ExpectExec(`INSERT INTO "friendships"`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "idx_friendships_pair"})

	err := repo.Create(context.Background(), &models.Friendship{
		RequesterID: uuid.New(), AddresseeID: uuid.New(), Status: models.FriendshipPending,
	})
	assert.ErrorIs(t, err, ErrDuplicatePair)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFriendshipCreate_OtherErrorPassesThrough(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresFriendshipRepository(db)

	boom := errors.New("connection reset")
	mock.ExpectExec(`INSERT INTO "friendships"`).WillReturnError(boom)

	err := repo.Create(context.Background(), &models.Friendship{RequesterID: uuid.New(), AddresseeID: uuid.New()})
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrDuplicatePair)
}

func TestFriendshipGetByPair(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresFriendshipRepository(db)
	a, b := uuid.New(), uuid.New()
	id := uuid.New()
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT \* FROM "friendships" WHERE pair_key = \$1`).
		WillReturnRows(sqlmock.NewRows(friendshipColumns).
			AddRow(id.String(), a.String(), b.String(), models.PairKey(a, b), "accepted", now, now))

	f, err := repo.GetByPair(context.Background(), b, a)
	require.NoError(t, err)
	assert.Equal(t, id, f.ID)
	assert.Equal(t, models.FriendshipAccepted, f.Status)
	assert.Equal(t, a, f.RequesterID)
}

func TestFriendshipGetByPair_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresFriendshipRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "friendships" WHERE pair_key = \$1`).
		WillReturnRows(sqlmock.NewRows(friendshipColumns))

	_, err := repo.GetByPair(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, ErrFriendshipNotFound)
}

func TestFriendshipGetByID_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresFriendshipRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "friendships" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows(friendshipColumns))

	_, err := repo.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrFriendshipNotFound)
}

func TestFriendshipListByUser(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresFriendshipRepository(db)
	me, other := uuid.New(), uuid.New()
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT \* FROM "friendships" WHERE \(requester_id = \$1 OR addressee_id = \$2\) AND status IN \(\$3,\$4\) ORDER BY created_at DESC`).
		WillReturnRows(sqlmock.NewRows(friendshipColumns).
			AddRow(uuid.New().String(), me.String(), other.String(), models.PairKey(me, other), "pending", now, now))

	rows, err := repo.ListByUser(context.Background(), me)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, models.FriendshipPending, rows[0].Status)
}

func TestFriendshipUpdateStatus(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		want     bool
	}{
		{"still pending", 1, true},
		{"already responded", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			repo := NewPostgresFriendshipRepository(db)

			mock.ExpectExec(`UPDATE "friendships" SET .* WHERE id = \$\d+ AND status = \$\d+`).
				WillReturnResult(sqlmock.NewResult(0, tt.affected))

			ok, err := repo.UpdateStatus(context.Background(), uuid.New(),
				models.FriendshipPending, models.FriendshipAccepted, time.Now())
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestFriendshipReopen(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresFriendshipRepository(db)

	mock.ExpectExec(`UPDATE "friendships" SET .*"requester_id".* WHERE id = \$\d+ AND status = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.Reopen(context.Background(), uuid.New(), uuid.New(), uuid.New(), time.Now())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestFriendshipDeleteWithStatus(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresFriendshipRepository(db)

	mock.ExpectExec(`DELETE FROM "friendships" WHERE id = \$1 AND status = \$2`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.DeleteWithStatus(context.Background(), uuid.New(), models.FriendshipAccepted)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFriendshipDeleteWithStatus_Error(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresFriendshipRepository(db)

	mock.ExpectExec(`DELETE FROM "friendships"`).WillReturnError(errors.New("db down"))

	ok, err := repo.DeleteWithStatus(context.Background(), uuid.New(), models.FriendshipAccepted)
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.False(t, isUniqueViolation(nil))
	assert.True(t, isUniqueViolation(gorm.ErrDuplicatedKey))
	assert.True(t, isUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("other")))
}

func TestUserGetByID_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresUserRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetUserByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserGetUsersByIDs_Empty(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresUserRepository(db)

	users, err := repo.GetUsersByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, users)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserSearch_EscapesWildcards(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresUserRepository(db)
	me := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE \(username ILIKE \$1 OR display_name ILIKE \$2\) AND id <> \$3 ORDER BY username ASC LIMIT \$4`).
		WithArgs(`%50\%%`, `%50\%%`, sqlmock.AnyArg(), 10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username"}))

	users, err := repo.SearchUsers(context.Background(), "50%", me, 10)
	require.NoError(t, err)
	assert.Empty(t, users)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationMarkAsRead_OtherRecipient(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresNotificationRepository(db)

	mock.ExpectExec(`UPDATE "notifications" SET "is_read"=\$1 WHERE id = \$2 AND recipient_id = \$3`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.MarkAsRead(context.Background(), uuid.New(), uuid.New())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCommentGetByID_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresCommentRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "place_comments" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetCommentByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrCommentNotFound)
}

func TestCommentListByPlace(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresCommentRepository(db)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT \* FROM "place_comments" WHERE place_id = \$1 ORDER BY created_at DESC LIMIT \$2 OFFSET \$3`).
		WithArgs("65f0c0ffee0000000000beef", 20, 20).
		WillReturnRows(sqlmock.NewRows([]string{"id", "place_id", "user_id", "content", "created_at", "updated_at"}).
			AddRow(uuid.New().String(), "65f0c0ffee0000000000beef", uuid.New().String(), "nice", now, now))

	comments, err := repo.GetCommentsByPlaceID(context.Background(), "65f0c0ffee0000000000beef", 20, 20)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "nice", comments[0].Content)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommentDelete_OnlyAuthor(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresCommentRepository(db)
	id, stranger := uuid.New(), uuid.New()

	mock.ExpectExec(`DELETE FROM "place_comments" WHERE id = \$1 AND user_id = \$2`).
		WithArgs(id, stranger).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.DeleteComment(context.Background(), id, stranger)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommentUpdateContent(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresCommentRepository(db)

	mock.ExpectExec(`UPDATE "place_comments" SET .* WHERE id = \$\d+ AND user_id = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.UpdateContent(context.Background(), uuid.New(), uuid.New(), "edited", time.Now())
	require.NoError(t, err)
	assert.True(t, ok)
}
