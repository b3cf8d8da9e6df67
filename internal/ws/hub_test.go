package ws

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(id string) *Client {
	return &Client{ID: id, Send: make(chan []byte, 8), done: make(chan struct{})}
}

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func receive(t *testing.T, c *Client) Envelope {
	t.Helper()
	select {
	case payload := <-c.Send:
		var env Envelope
		require.NoError(t, json.Unmarshal(payload, &env))
		return env
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for frame")
		return Envelope{}
	}
}

func assertNoFrame(t *testing.T, c *Client) {
	t.Helper()
	select {
	case payload := <-c.Send:
		t.Fatalf("unexpected frame: %s", payload)
	case <-time.After(50 * time.Millisecond):
	}
}

func assertDropped(t *testing.T, c *Client) {
	t.Helper()
	select {
	case <-c.done:
	case <-time.After(time.Second):
		t.Fatal("connection was never dropped")
	}
}

func TestBroadcastReachesChannelMembers(t *testing.T) {
	hub := startHub(t)
	a, b := newTestClient("conn-a"), newTestClient("conn-b")

	hub.Register(a)
	hub.Register(b)
	hub.Join(a, RoomGeneral)
	hub.Join(b, RoomGeneral)

	hub.Broadcast(RoomGeneral, "user_typing", map[string]string{"nickname": "amy"}, "")

	for _, c := range []*Client{a, b} {
		env := receive(t, c)
		assert.Equal(t, "user_typing", env.Event)
	}
}

func TestBroadcastExcludesSender(t *testing.T) {
	hub := startHub(t)
	a, b := newTestClient("conn-a"), newTestClient("conn-b")

	hub.Register(a)
	hub.Register(b)
	hub.Join(a, RoomGeneral)
	hub.Join(b, RoomGeneral)

	hub.Broadcast(RoomGeneral, "user_joined", map[string]string{"user_id": "u-a"}, "conn-a")

	env := receive(t, b)
	assert.Equal(t, "user_joined", env.Event)
	assertNoFrame(t, a)
}

func TestSendToUserTargetsPrivateChannel(t *testing.T) {
	hub := startHub(t)
	a, b := newTestClient("conn-a"), newTestClient("conn-b")

	hub.Register(a)
	hub.Register(b)
	hub.Join(a, UserChannel("user-a"))
	hub.Join(b, UserChannel("user-b"))

	hub.SendToUser("user-b", EventNewNotification, map[string]string{"id": "n-1"})

	env := receive(t, b)
	assert.Equal(t, EventNewNotification, env.Event)
	assertNoFrame(t, a)
}

func TestSendToUserAfterUnregisterIsNoop(t *testing.T) {
	hub := startHub(t)
	a := newTestClient("conn-a")

	hub.Register(a)
	hub.Join(a, UserChannel("user-a"))
	hub.Unregister(a)
	assertDropped(t, a)

	// Frame to a channel with no members must not panic or block.
	hub.SendToUser("user-a", EventNewNotification, map[string]string{"id": "n-1"})

	b := newTestClient("conn-b")
	hub.Register(b)
	hub.Join(b, RoomGeneral)
	hub.Broadcast(RoomGeneral, "pong", nil, "")
	assert.Equal(t, "pong", receive(t, b).Event)
}

func TestKickDropsConnection(t *testing.T) {
	hub := startHub(t)
	a := newTestClient("conn-a")

	hub.Register(a)
	hub.Join(a, RoomGeneral)
	hub.Kick("conn-a")

	assertDropped(t, a)
}

func TestJoinAfterDisconnectIgnored(t *testing.T) {
	hub := startHub(t)
	a := newTestClient("conn-a")

	hub.Register(a)
	hub.Unregister(a)
	assertDropped(t, a)
	hub.Join(a, RoomGeneral)

	b := newTestClient("conn-b")
	hub.Register(b)
	hub.Join(b, RoomGeneral)
	hub.Broadcast(RoomGeneral, "pong", nil, "")
	assert.Equal(t, "pong", receive(t, b).Event)
}

func TestSlowConsumerEvicted(t *testing.T) {
	hub := startHub(t)
	slow := &Client{ID: "conn-slow", Send: make(chan []byte), done: make(chan struct{})}
	ok := newTestClient("conn-ok")

	hub.Register(slow)
	hub.Register(ok)
	hub.Join(slow, RoomGeneral)
	hub.Join(ok, RoomGeneral)

	hub.Broadcast(RoomGeneral, "pong", nil, "")

	assertDropped(t, slow)
	assert.Equal(t, "pong", receive(t, ok).Event)
}
