package retention

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// PurgeStore deletes chat messages older than the cutoff and reports how
// many rows went away.
type PurgeStore interface {
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Job hard-deletes shared-room chat messages past the retention window.
// Private messages are never touched.
type Job struct {
	store        PurgeStore
	window       time.Duration
	interval     time.Duration
	initialDelay time.Duration
	cron         *cron.Cron
	log          zerolog.Logger
}

func NewJob(store PurgeStore, window, interval, initialDelay time.Duration, log zerolog.Logger) *Job {
	return &Job{
		store:        store,
		window:       window,
		interval:     interval,
		initialDelay: initialDelay,
		log:          log.With().Str("component", "retention").Logger(),
	}
}

// Start schedules the purge on the configured interval and fires one initial
// run shortly after boot to clear any backlog from downtime. Runs never
// overlap; a still-running purge skips the next tick.
func (j *Job) Start(ctx context.Context) error {
	j.cron = cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DiscardLogger),
	))

	_, err := j.cron.AddFunc(fmt.Sprintf("@every %s", j.interval), func() {
		j.run(ctx)
	})
	if err != nil {
		return fmt.Errorf("schedule retention job: %w", err)
	}

	j.cron.Start()

	go func() {
		select {
		case <-time.After(j.initialDelay):
			j.run(ctx)
		case <-ctx.Done():
		}
	}()

	j.log.Info().
		Dur("window", j.window).
		Dur("interval", j.interval).
		Msg("retention job scheduled")
	return nil
}

// Stop halts the schedule and waits for an in-flight purge to finish.
func (j *Job) Stop() {
	if j.cron != nil {
		<-j.cron.Stop().Done()
	}
}

func (j *Job) run(ctx context.Context) {
	cutoff := time.Now().Add(-j.window)

	purged, err := j.store.PurgeOlderThan(ctx, cutoff)
	if err != nil {
		j.log.Error().Err(err).Msg("chat retention purge failed")
		return
	}
	if purged > 0 {
		j.log.Info().Int64("purged", purged).Time("cutoff", cutoff).Msg("purged old chat messages")
	}
}
