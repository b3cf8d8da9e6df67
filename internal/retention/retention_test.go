package retention

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePurgeStore struct {
	mu      sync.Mutex
	cutoffs []time.Time
	err     error
}

func (f *fakePurgeStore) PurgeOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cutoffs = append(f.cutoffs, cutoff)
	return 3, f.err
}

func (f *fakePurgeStore) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.cutoffs)
}

func TestRunUsesRetentionWindowCutoff(t *testing.T) {
	store := &fakePurgeStore{}
	job := NewJob(store, 24*time.Hour, time.Hour, time.Second, zerolog.Nop())

	before := time.Now().Add(-24 * time.Hour)
	job.run(context.Background())
	after := time.Now().Add(-24 * time.Hour)

	require.Equal(t, 1, store.calls())
	cutoff := store.cutoffs[0]
	assert.False(t, cutoff.Before(before))
	assert.False(t, cutoff.After(after))
}

func TestRunTolerateStoreFailure(t *testing.T) {
	store := &fakePurgeStore{err: errors.New("connection refused")}
	job := NewJob(store, 24*time.Hour, time.Hour, time.Second, zerolog.Nop())

	assert.NotPanics(t, func() {
		job.run(context.Background())
		job.run(context.Background())
	})
	assert.Equal(t, 2, store.calls(), "failures must not stop later runs")
}

func TestStartFiresInitialRunAfterDelay(t *testing.T) {
	store := &fakePurgeStore{}
	job := NewJob(store, 24*time.Hour, time.Hour, 10*time.Millisecond, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, job.Start(ctx))
	defer job.Stop()

	assert.Eventually(t, func() bool {
		return store.calls() >= 1
	}, time.Second, 10*time.Millisecond)
}

func TestStartCancelledBeforeInitialRun(t *testing.T) {
	store := &fakePurgeStore{}
	job := NewJob(store, 24*time.Hour, time.Hour, time.Hour, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, job.Start(ctx))
	cancel()
	job.Stop()

	assert.Equal(t, 0, store.calls())
}
