// Package refresher keeps the event cache and the reminders current: on a
// cron schedule and whenever connectivity comes back.
package refresher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"campus-events/internal/cache"
	"campus-events/internal/model"
)

type Refresher interface {
	Refresh(ctx context.Context) (cache.Result, error)
}

type Reconciler interface {
	Reconcile(events []model.EventRecord) error
}

type Subscriber interface {
	Subscribe(fn func(online bool)) (unsubscribe func())
}

type Job struct {
	cache     Refresher
	reminders Reconciler
	log       *slog.Logger
	timeout   time.Duration
}

func New(c Refresher, reminders Reconciler, log *slog.Logger) *Job {
	return &Job{cache: c, reminders: reminders, log: log, timeout: time.Minute}
}

// Sync refreshes the cache and hands a fresh result to the reminders. A stale
// result is returned as is and leaves the reminders alone.
func (j *Job) Sync(ctx context.Context) (cache.Result, error) {
	res, err := j.cache.Refresh(ctx)
	if err != nil {
		return res, err
	}
	if res.Stale {
		return res, nil
	}
	if err := j.reminders.Reconcile(res.Events); err != nil {
		j.log.ErrorContext(ctx, "failed to reconcile reminders", "err", err)
	}
	return res, nil
}

// Run syncs on the cron schedule spec until ctx is done.
func (j *Job) Run(ctx context.Context, spec string) error {
	logger := cronLogger{j.log}
	c := cron.New(cron.WithLogger(logger), cron.WithChain(cron.SkipIfStillRunning(logger)))
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(ctx, j.timeout)
		defer cancel()
		j.syncAndLog(ctx, "scheduled")
	})
	if err != nil {
		return fmt.Errorf("refresh schedule %q: %w", spec, err)
	}

	j.log.Info("refresh job started", "schedule", spec)
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

// WatchConnectivity syncs every time the connection comes back.
func (j *Job) WatchConnectivity(ctx context.Context, sub Subscriber) (stop func()) {
	return sub.Subscribe(func(online bool) {
		if !online || ctx.Err() != nil {
			return
		}
		go func() {
			ctx, cancel := context.WithTimeout(ctx, j.timeout)
			defer cancel()
			j.syncAndLog(ctx, "back online")
		}()
	})
}

func (j *Job) syncAndLog(ctx context.Context, trigger string) {
	res, err := j.Sync(ctx)
	if err != nil {
		j.log.WarnContext(ctx, "refresh failed", "trigger", trigger, "err", err)
		return
	}
	j.log.InfoContext(ctx, "refresh done", "trigger", trigger, "count", len(res.Events), "stale", res.Stale)
}

type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error("cron: "+msg, append(keysAndValues, "err", err)...)
}
