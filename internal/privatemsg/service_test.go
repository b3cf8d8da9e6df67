package privatemsg_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forumhub/internal/apperr"
	"forumhub/internal/privatemsg"
	"forumhub/internal/user"
)

type fakeStore struct {
	conversations map[string]*privatemsg.Conversation // "p1|p2" -> conv
	messages      map[string]*privatemsg.Message
	inserted      []*privatemsg.Message
	lastPointer   struct {
		conversationID string
		messageID      string
	}
	markedRead []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		conversations: make(map[string]*privatemsg.Conversation),
		messages:      make(map[string]*privatemsg.Message),
	}
}

func (s *fakeStore) GetOrCreateConversation(_ context.Context, userA, userB string) (*privatemsg.Conversation, error) {
	p1, p2 := privatemsg.CanonicalPair(userA, userB)
	key := p1 + "|" + p2
	if conv, ok := s.conversations[key]; ok {
		return conv, nil
	}
	conv := &privatemsg.Conversation{
		ID:           "conv-" + key,
		Participant1: p1,
		Participant2: p2,
		CreatedAt:    time.Now(),
	}
	s.conversations[key] = conv
	return conv, nil
}

func (s *fakeStore) InsertMessage(_ context.Context, msg *privatemsg.Message) error {
	msg.ID = "pm-1"
	msg.CreatedAt = time.Now()
	s.inserted = append(s.inserted, msg)
	s.messages[msg.ID] = msg
	return nil
}

func (s *fakeStore) UpdateLastMessage(_ context.Context, conversationID, messageID string, _ time.Time) error {
	s.lastPointer.conversationID = conversationID
	s.lastPointer.messageID = messageID
	return nil
}

func (s *fakeStore) GetMessage(_ context.Context, messageID string) (*privatemsg.Message, error) {
	msg, ok := s.messages[messageID]
	if !ok {
		return nil, apperr.NotFound("message not found")
	}
	return msg, nil
}

func (s *fakeStore) MarkRead(_ context.Context, messageID, _ string) (bool, error) {
	msg := s.messages[messageID]
	if msg.IsRead {
		return false, nil
	}
	msg.IsRead = true
	s.markedRead = append(s.markedRead, messageID)
	return true, nil
}

func (s *fakeStore) MarkConversationRead(_ context.Context, _, _ string) (int64, error) {
	return 0, nil
}

func (s *fakeStore) ConversationsFor(_ context.Context, _ string, _, _ int) ([]*privatemsg.ConversationSummary, error) {
	return nil, nil
}

func (s *fakeStore) MessagesBetween(_ context.Context, _, _ string, _ int, _ *time.Time) ([]*privatemsg.Message, error) {
	return nil, nil
}

func (s *fakeStore) UnreadCount(_ context.Context, _ string) (int, error) {
	return 0, nil
}

type fakeUsers struct {
	active map[string]bool
}

func (u *fakeUsers) GetActiveByID(_ context.Context, id string) (*user.User, error) {
	if !u.active[id] {
		return nil, apperr.NotFound("user not found or inactive")
	}
	return &user.User{ID: id, IsActive: true}, nil
}

type notifyCall struct {
	recipientID string
	senderID    string
}

type fakeNotifier struct {
	calls []notifyCall
}

func (n *fakeNotifier) PrivateMessage(_ context.Context, recipientID, senderID, _, _, _ string) error {
	n.calls = append(n.calls, notifyCall{recipientID: recipientID, senderID: senderID})
	return nil
}

func sender(id, nickname string) *user.User {
	return &user.User{ID: id, Nickname: nickname, IsActive: true}
}

func newService(store *fakeStore, users *fakeUsers, notifier *fakeNotifier) *privatemsg.Service {
	if users == nil {
		users = &fakeUsers{active: map[string]bool{"b": true}}
	}
	if notifier == nil {
		notifier = &fakeNotifier{}
	}
	return privatemsg.NewService(store, users, notifier, zerolog.Nop())
}

func TestCanonicalPair(t *testing.T) {
	p1, p2 := privatemsg.CanonicalPair("zed", "amy")
	assert.Equal(t, "amy", p1)
	assert.Equal(t, "zed", p2)

	q1, q2 := privatemsg.CanonicalPair("amy", "zed")
	assert.Equal(t, p1, q1)
	assert.Equal(t, p2, q2)
}

func TestSend_EmptyContentRejected(t *testing.T) {
	store := newFakeStore()
	svc := newService(store, nil, nil)

	_, err := svc.Send(context.Background(), sender("a", "alice"), "b", "  ", nil)

	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Empty(t, store.inserted)
	assert.Empty(t, store.conversations, "no conversation row on validation failure")
}

func TestSend_OversizeContentRejected(t *testing.T) {
	store := newFakeStore()
	svc := newService(store, nil, nil)

	_, err := svc.Send(context.Background(), sender("a", "alice"), "b", strings.Repeat("x", 5001), nil)

	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Empty(t, store.inserted)
	assert.Empty(t, store.conversations)
}

func TestSend_ToSelfRejected(t *testing.T) {
	store := newFakeStore()
	svc := newService(store, nil, nil)

	_, err := svc.Send(context.Background(), sender("a", "alice"), "a", "hi me", nil)

	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestSend_InactiveRecipientNotFound(t *testing.T) {
	store := newFakeStore()
	svc := newService(store, &fakeUsers{active: map[string]bool{}}, nil)

	_, err := svc.Send(context.Background(), sender("a", "alice"), "ghost", "hello", nil)

	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.Empty(t, store.inserted)
}

func TestSend_PersistsAndNotifies(t *testing.T) {
	store := newFakeStore()
	notifier := &fakeNotifier{}
	svc := newService(store, nil, notifier)

	msg, err := svc.Send(context.Background(), sender("a", "alice"), "b", "hello", nil)

	require.NoError(t, err)
	assert.Equal(t, "a", msg.SenderID)
	assert.Equal(t, "b", msg.RecipientID)
	assert.Equal(t, "alice", msg.Sender.Nickname)

	require.Len(t, store.inserted, 1)
	assert.Equal(t, msg.ID, store.lastPointer.messageID)

	require.Len(t, notifier.calls, 1)
	assert.Equal(t, "b", notifier.calls[0].recipientID)
	assert.Equal(t, "a", notifier.calls[0].senderID)
}

func TestSend_RepeatedFirstContactSharesOneConversation(t *testing.T) {
	store := newFakeStore()
	users := &fakeUsers{active: map[string]bool{"a": true, "b": true}}
	svc := newService(store, users, nil)

	_, err := svc.Send(context.Background(), sender("a", "alice"), "b", "first", nil)
	require.NoError(t, err)
	_, err = svc.Send(context.Background(), sender("b", "bob"), "a", "reply", nil)
	require.NoError(t, err)

	assert.Len(t, store.conversations, 1, "both directions resolve to the same row")
}

func TestMarkRead_OnlyRecipient(t *testing.T) {
	store := newFakeStore()
	store.messages["pm-1"] = &privatemsg.Message{ID: "pm-1", SenderID: "b", RecipientID: "a"}
	svc := newService(store, nil, nil)

	_, _, err := svc.MarkRead(context.Background(), "pm-1", "b")
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	senderID, updated, err := svc.MarkRead(context.Background(), "pm-1", "a")
	require.NoError(t, err)
	assert.True(t, updated)
	assert.Equal(t, "b", senderID)
}

func TestMarkRead_AlreadyReadIsNotUpdated(t *testing.T) {
	store := newFakeStore()
	store.messages["pm-1"] = &privatemsg.Message{ID: "pm-1", SenderID: "b", RecipientID: "a", IsRead: true}
	svc := newService(store, nil, nil)

	senderID, updated, err := svc.MarkRead(context.Background(), "pm-1", "a")

	require.NoError(t, err)
	assert.False(t, updated, "no second read receipt")
	assert.Equal(t, "b", senderID)
}

func TestMarkRead_MissingMessage(t *testing.T) {
	svc := newService(newFakeStore(), nil, nil)

	_, _, err := svc.MarkRead(context.Background(), "nope", "a")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}
