package store

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayush/megaqc-web/internal/models"
)

var (
	lockQuery   = regexp.QuoteMeta(`SELECT pg_advisory_xact_lock($1)`)
	nextIDQuery = regexp.QuoteMeta(`SELECT COALESCE(MAX(id), 0) + 1 FROM users`)
	insertQuery = regexp.QuoteMeta(`INSERT INTO users (id, username, email, password, first_name, last_name, active, api_token)`)
	byIDQuery   = regexp.QuoteMeta(`SELECT ` + userColumns + ` FROM users WHERE id = $1`)
)

func newStoreWithMock(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresStore(mock), mock
}

func sampleNewUser() models.NewUser {
	return models.NewUser{
		Username:     "alice",
		Email:        "alice@example.org",
		PasswordHash: "$2a$10$hash",
		FirstName:    "Alice",
		LastName:     "Liddell",
		Active:       true,
		APIToken:     "tok-1",
	}
}

func userRows(id int64, nu models.NewUser, created time.Time) *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "username", "email", "password", "first_name",
		"last_name", "active", "is_admin", "api_token", "created_at",
	}).AddRow(id, nu.Username, nu.Email, nu.PasswordHash, nu.FirstName,
		nu.LastName, nu.Active, false, nu.APIToken, created)
}

func insertArgs(id int64, nu models.NewUser) []any {
	return []any{id, nu.Username, nu.Email, nu.PasswordHash, nu.FirstName, nu.LastName, nu.Active, nu.APIToken}
}

func TestCreateUser_AllocatesNextIDUnderLock(t *testing.T) {
	s, mock := newStoreWithMock(t)
	nu := sampleNewUser()
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(lockQuery).WithArgs(userIDLockKey).WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectQuery(nextIDQuery).WillReturnRows(pgxmock.NewRows([]string{"next"}).AddRow(int64(6)))
	mock.ExpectQuery(insertQuery).WithArgs(insertArgs(6, nu)...).WillReturnRows(userRows(6, nu, created))
	mock.ExpectCommit()

	u, err := s.CreateUser(context.Background(), nu)
	require.NoError(t, err)
	assert.Equal(t, int64(6), u.ID)
	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, "Alice Liddell", u.FullName())
	assert.True(t, u.Active)
	assert.Equal(t, created, u.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUser_UniqueViolationIsDuplicate(t *testing.T) {
	s, mock := newStoreWithMock(t)
	nu := sampleNewUser()

	mock.ExpectBegin()
	mock.ExpectExec(lockQuery).WithArgs(userIDLockKey).WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectQuery(nextIDQuery).WillReturnRows(pgxmock.NewRows([]string{"next"}).AddRow(int64(2)))
	mock.ExpectQuery(insertQuery).WithArgs(insertArgs(2, nu)...).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_username_key"})
	mock.ExpectRollback()

	u, err := s.CreateUser(context.Background(), nu)
	assert.Nil(t, u)
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUser_LockFailureRollsBack(t *testing.T) {
	s, mock := newStoreWithMock(t)
	boom := errors.New("connection reset")

	mock.ExpectBegin()
	mock.ExpectExec(lockQuery).WithArgs(userIDLockKey).WillReturnError(boom)
	mock.ExpectRollback()

	_, err := s.CreateUser(context.Background(), sampleNewUser())
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUser_BeginFailure(t *testing.T) {
	s, mock := newStoreWithMock(t)
	boom := errors.New("pool closed")

	mock.ExpectBegin().WillReturnError(boom)

	_, err := s.CreateUser(context.Background(), sampleNewUser())
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUserByID(t *testing.T) {
	nu := sampleNewUser()
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("found", func(t *testing.T) {
		s, mock := newStoreWithMock(t)
		mock.ExpectQuery(byIDQuery).WithArgs(int64(4)).WillReturnRows(userRows(4, nu, created))

		u, err := s.GetUserByID(context.Background(), 4)
		require.NoError(t, err)
		assert.Equal(t, int64(4), u.ID)
		assert.Equal(t, "alice@example.org", u.Email)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing row is not found", func(t *testing.T) {
		s, mock := newStoreWithMock(t)
		mock.ExpectQuery(byIDQuery).WithArgs(int64(9)).WillReturnError(pgx.ErrNoRows)

		u, err := s.GetUserByID(context.Background(), 9)
		assert.Nil(t, u)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("other errors are wrapped", func(t *testing.T) {
		s, mock := newStoreWithMock(t)
		boom := errors.New("timeout")
		mock.ExpectQuery(byIDQuery).WithArgs(int64(9)).WillReturnError(boom)

		_, err := s.GetUserByID(context.Background(), 9)
		assert.ErrorIs(t, err, boom)
		assert.NotErrorIs(t, err, ErrNotFound)
		assert.Contains(t, err.Error(), "get user")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
