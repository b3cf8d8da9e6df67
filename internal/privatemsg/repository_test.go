package privatemsg_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forumhub/internal/privatemsg"
)

func conversationColumns() []string {
	return []string{"id", "participant_1", "participant_2", "last_message_id", "last_message_at", "created_at"}
}

func TestGetOrCreateConversation_Existing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT id, participant_1, participant_2`).
		WithArgs("amy", "zed").
		WillReturnRows(sqlmock.NewRows(conversationColumns()).
			AddRow("conv-1", "amy", "zed", nil, nil, time.Now()))

	repo := privatemsg.NewRepository(db)
	// Callers pass the pair in either order; storage order is canonical.
	conv, err := repo.GetOrCreateConversation(context.Background(), "zed", "amy")

	require.NoError(t, err)
	assert.Equal(t, "conv-1", conv.ID)
	assert.Equal(t, "amy", conv.Participant1)
	assert.Equal(t, "zed", conv.Participant2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrCreateConversation_CreatesOnFirstContact(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT id, participant_1, participant_2`).
		WithArgs("amy", "zed").
		WillReturnRows(sqlmock.NewRows(conversationColumns()))
	mock.ExpectExec(`INSERT INTO conversations`).
		WithArgs(sqlmock.AnyArg(), "amy", "zed").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT id, participant_1, participant_2`).
		WithArgs("amy", "zed").
		WillReturnRows(sqlmock.NewRows(conversationColumns()).
			AddRow("conv-1", "amy", "zed", nil, nil, time.Now()))

	repo := privatemsg.NewRepository(db)
	conv, err := repo.GetOrCreateConversation(context.Background(), "amy", "zed")

	require.NoError(t, err)
	assert.Equal(t, "conv-1", conv.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrCreateConversation_LostRaceStillResolves(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	// A concurrent first contact inserted between our select and insert:
	// the ON CONFLICT insert is a no-op and the reselect finds the row.
	mock.ExpectQuery(`SELECT id, participant_1, participant_2`).
		WithArgs("amy", "zed").
		WillReturnRows(sqlmock.NewRows(conversationColumns()))
	mock.ExpectExec(`INSERT INTO conversations`).
		WithArgs(sqlmock.AnyArg(), "amy", "zed").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT id, participant_1, participant_2`).
		WithArgs("amy", "zed").
		WillReturnRows(sqlmock.NewRows(conversationColumns()).
			AddRow("conv-raced", "amy", "zed", nil, nil, time.Now()))

	repo := privatemsg.NewRepository(db)
	conv, err := repo.GetOrCreateConversation(context.Background(), "amy", "zed")

	require.NoError(t, err)
	assert.Equal(t, "conv-raced", conv.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkRead_AlreadyReadReturnsFalse(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`UPDATE private_messages`).
		WithArgs("pm-1", "user-a").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := privatemsg.NewRepository(db)
	updated, err := repo.MarkRead(context.Background(), "pm-1", "user-a")

	require.NoError(t, err)
	assert.False(t, updated)
}

func TestMarkConversationRead_CountsUpdates(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`UPDATE private_messages`).
		WithArgs("user-b", "user-a").
		WillReturnResult(sqlmock.NewResult(0, 3))

	repo := privatemsg.NewRepository(db)
	n, err := repo.MarkConversationRead(context.Background(), "user-a", "user-b")

	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}
