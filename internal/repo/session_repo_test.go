package repo

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travelguide/server/internal/model"
)

func TestSessionRepo_Create(t *testing.T) {
	db, mock := newMockDB(t)
	r := NewSessionRepo(db)

	id, userID := uuid.New(), uuid.New()
	expires := time.Now().Add(24 * time.Hour)
	mock.ExpectQuery(`INSERT INTO sessions`).
		WithArgs(userID.String(), "hash", expires, "10.0.0.1", "ua").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(id.String()))

	got, err := r.Create(context.Background(), model.Session{
		UserID: userID, TokenHash: "hash", ExpiresAt: expires, IPAddress: "10.0.0.1", UserAgent: "ua",
	})
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestSessionRepo_FindByTokenHash_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	r := NewSessionRepo(db)

	mock.ExpectQuery(`FROM sessions\s+WHERE token_hash = \$1`).
		WithArgs("nope").
		WillReturnError(sql.ErrNoRows)

	_, err := r.FindByTokenHash(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSessionRepo_DeleteExpired(t *testing.T) {
	db, mock := newMockDB(t)
	r := NewSessionRepo(db)

	now := time.Now()
	mock.ExpectExec(`DELETE FROM sessions WHERE expires_at <= \$1`).
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := r.DeleteExpired(context.Background(), now)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
}

func TestLoginHistoryRepo_AppendNullUser(t *testing.T) {
	db, mock := newMockDB(t)
	r := NewLoginHistoryRepo(db)

	reason := "unknown_user"
	mock.ExpectExec(`INSERT INTO login_history`).
		WithArgs(nil, model.InvalidFingerprintHash, "10.0.0.1", "failure", "unknown_user").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := r.Append(context.Background(), model.LoginHistoryEntry{
		FingerprintHash: model.InvalidFingerprintHash,
		IPAddress:       "10.0.0.1",
		Status:          model.LoginFailure,
		FailureReason:   &reason,
	})
	require.NoError(t, err)
}

func TestLoginHistoryRepo_ListByUser(t *testing.T) {
	db, mock := newMockDB(t)
	r := NewLoginHistoryRepo(db)

	userID := uuid.New()
	cols := []string{"id", "user_id", "fingerprint_hash", "ip_address", "status", "failure_reason", "created_at"}
	mock.ExpectQuery(`FROM login_history\s+WHERE user_id = \$1`).
		WithArgs(userID.String(), int64(50)).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(int64(2), userID.String(), "fp", "ip", "success_untrusted", nil, time.Now()).
			AddRow(int64(1), userID.String(), "invalid", "ip", "failure", "bad_password", time.Now()))

	entries, err := r.ListByUser(context.Background(), userID, 50)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, model.LoginSuccessUntrusted, entries[0].Status)
	assert.Nil(t, entries[0].FailureReason)
	require.NotNil(t, entries[1].FailureReason)
	assert.Equal(t, "bad_password", *entries[1].FailureReason)
	require.NotNil(t, entries[1].UserID)
	assert.Equal(t, userID, *entries[1].UserID)
}

func TestFingerprintRepo_InsertIfAbsent(t *testing.T) {
	db, mock := newMockDB(t)
	r := NewFingerprintRepo(db)

	fp := model.Fingerprint{Hash: "h", UserAgent: "ua"}
	mock.ExpectExec(`ON CONFLICT \(hash\) DO NOTHING`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`ON CONFLICT \(hash\) DO NOTHING`).WillReturnResult(sqlmock.NewResult(0, 0))

	inserted, err := r.InsertIfAbsent(context.Background(), fp)
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = r.InsertIfAbsent(context.Background(), fp)
	require.NoError(t, err)
	assert.False(t, inserted)
}
