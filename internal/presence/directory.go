// Package presence is the session directory: it maps each authenticated user
// to at most one live connection and keeps the durable presence record in
// step with the connection lifecycle.
package presence

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type Directory struct {
	mu     sync.RWMutex
	byUser map[string]string // userID -> connectionID
	byConn map[string]string // connectionID -> userID

	store Store
	log   zerolog.Logger
}

func NewDirectory(store Store, log zerolog.Logger) *Directory {
	return &Directory{
		byUser: make(map[string]string),
		byConn: make(map[string]string),
		store:  store,
		log:    log.With().Str("component", "presence").Logger(),
	}
}

// Register records the user's live connection and marks presence online.
// A second connect from the same user overwrites the mapping: last connect
// wins, the replaced connection is reported back so the caller can close it.
func (d *Directory) Register(ctx context.Context, userID, connectionID string) (replaced string) {
	d.mu.Lock()
	if old, ok := d.byUser[userID]; ok && old != connectionID {
		delete(d.byConn, old)
		replaced = old
	}
	d.byUser[userID] = connectionID
	d.byConn[connectionID] = userID
	d.mu.Unlock()

	d.persist(ctx, Record{
		UserID:       userID,
		Status:       StatusOnline,
		LastSeen:     time.Now(),
		ConnectionID: connectionID,
	})
	return replaced
}

// Unregister drops the mapping and forces presence offline. A stale
// unregister from a connection that has already been replaced is a no-op, so
// a late disconnect cannot knock the user's newer session offline.
func (d *Directory) Unregister(ctx context.Context, connectionID string) {
	d.mu.Lock()
	userID, ok := d.byConn[connectionID]
	if ok {
		delete(d.byConn, connectionID)
		if d.byUser[userID] == connectionID {
			delete(d.byUser, userID)
		} else {
			ok = false
		}
	}
	d.mu.Unlock()

	if !ok {
		return
	}

	d.persist(ctx, Record{
		UserID:   userID,
		Status:   StatusOffline,
		LastSeen: time.Now(),
	})
}

// SetStatus updates the presence record without touching the connection
// mapping. The status must already be validated by the caller.
func (d *Directory) SetStatus(ctx context.Context, userID string, status Status) {
	d.mu.RLock()
	connID := d.byUser[userID]
	d.mu.RUnlock()

	d.persist(ctx, Record{
		UserID:       userID,
		Status:       status,
		LastSeen:     time.Now(),
		ConnectionID: connID,
	})
}

func (d *Directory) IsOnline(userID string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.byUser[userID]
	return ok
}

// ConnectionFor returns the live connection id for a user, or "" when the
// user is not connected.
func (d *Directory) ConnectionFor(userID string) string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.byUser[userID]
}

// Presence reads a user's durable presence record. Users who never
// connected read as offline; a live connection overrides a stale offline
// record left by an unclean shutdown.
func (d *Directory) Presence(ctx context.Context, userID string) (*Record, error) {
	rec, err := d.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		rec = &Record{UserID: userID, Status: StatusOffline}
	}

	d.mu.RLock()
	connID, online := d.byUser[userID]
	d.mu.RUnlock()

	if online {
		if rec.Status == StatusOffline {
			rec.Status = StatusOnline
		}
		rec.ConnectionID = connID
	} else {
		rec.Status = StatusOffline
		rec.ConnectionID = ""
	}
	return rec, nil
}

func (d *Directory) OnlineUsers() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	ids := make([]string, 0, len(d.byUser))
	for id := range d.byUser {
		ids = append(ids, id)
	}
	return ids
}

// persist writes the durable record. Store failures are logged and never
// surface: the in-memory directory stays correct and the record is rewritten
// on the next lifecycle event.
func (d *Directory) persist(ctx context.Context, rec Record) {
	if err := d.store.Upsert(ctx, rec); err != nil {
		d.log.Error().Err(err).Str("user_id", rec.UserID).Msg("failed to persist presence record")
	}
}
