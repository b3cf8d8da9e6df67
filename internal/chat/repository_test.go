package chat_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forumhub/internal/apperr"
	"forumhub/internal/chat"
)

func TestRepositoryGetAuthorID_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT author_id FROM chat_messages`).
		WithArgs("missing-id").
		WillReturnRows(sqlmock.NewRows([]string{"author_id"}))

	repo := chat.NewRepository(db)
	_, err = repo.GetAuthorID(context.Background(), "missing-id")

	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositorySoftDelete(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`UPDATE chat_messages SET is_deleted = TRUE`).
		WithArgs("msg-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := chat.NewRepository(db)
	require.NoError(t, repo.SoftDelete(context.Background(), "msg-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositorySoftDelete_MissingRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`UPDATE chat_messages SET is_deleted = TRUE`).
		WithArgs("gone").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := chat.NewRepository(db)
	err = repo.SoftDelete(context.Background(), "gone")

	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestRepositoryPurgeOlderThan(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	cutoff := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(`DELETE FROM chat_messages WHERE created_at <`).
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 42))

	repo := chat.NewRepository(db)
	n, err := repo.PurgeOlderThan(context.Background(), cutoff)

	require.NoError(t, err)
	assert.Equal(t, int64(42), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
