// Package scheduler runs periodic escalation digests on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/resolvd-io/resolvd/internal/escalation"
)

// Counter reports escalations recorded since a point in time.
type Counter interface {
	Count(filter escalation.Filter) (int, error)
}

// Poster delivers digest messages to a notification channel.
type Poster interface {
	Post(ctx context.Context, text string) error
}

// Digest periodically counts new escalations and reports them.
// A nil poster means log-only digests.
type Digest struct {
	mu      sync.Mutex
	cron    *cron.Cron
	counter Counter
	poster  Poster
	logger  *slog.Logger
	last    time.Time
}

// NewDigest creates a digest scheduler over the given escalation counter.
func NewDigest(counter Counter, poster Poster, logger *slog.Logger) *Digest {
	if logger == nil {
		logger = slog.Default()
	}
	return &Digest{
		cron:    cron.New(),
		counter: counter,
		poster:  poster,
		logger:  logger,
		last:    time.Now().UTC(),
	}
}

// Register adds a digest job. The schedule is a standard cron expression
// (5 fields) or a predefined schedule like @every 1h.
func (d *Digest) Register(schedule string) error {
	_, err := d.cron.AddFunc(schedule, d.run)
	if err != nil {
		return fmt.Errorf("scheduler: invalid schedule %q: %w", schedule, err)
	}
	d.logger.Info("digest registered", "schedule", schedule)
	return nil
}

// Start begins the cron scheduler. Blocks until context is cancelled.
func (d *Digest) Start(ctx context.Context) error {
	d.cron.Start()
	d.logger.Info("scheduler started")

	<-ctx.Done()
	d.cron.Stop()
	d.logger.Info("scheduler stopped")
	return ctx.Err()
}

func (d *Digest) run() {
	d.mu.Lock()
	since := d.last
	d.last = time.Now().UTC()
	d.mu.Unlock()

	count, err := d.counter.Count(escalation.Filter{Since: since})
	if err != nil {
		d.logger.Error("digest count failed", "error", err)
		return
	}
	d.logger.Info("escalation digest", "since", since, "count", count)

	if d.poster == nil || count == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	text := fmt.Sprintf(":memo: *Escalation digest:* %d ticket(s) escalated since %s", count, since.Format(time.RFC3339))
	if err := d.poster.Post(ctx, text); err != nil {
		d.logger.Error("digest notification failed", "error", err)
	}
}
