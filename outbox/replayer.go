package outbox

import (
	"context"
	"log/slog"
	"time"

	"github.com/trucoapp/tournament-manager/models"
)

// Replayer periodically drains the queue into the database. It is started
// from main as a background goroutine and stops when the context is done.
type Replayer struct {
	queue    Queue
	submit   func(ctx context.Context, record *models.PaymentRecord) error
	interval time.Duration
	logger   *slog.Logger
}

func NewReplayer(queue Queue, submit func(ctx context.Context, record *models.PaymentRecord) error, interval time.Duration, logger *slog.Logger) *Replayer {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Replayer{queue: queue, submit: submit, interval: interval, logger: logger}
}

func (r *Replayer) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	// Drain once at startup so entries queued before a restart do not wait
	// for the first tick.
	r.drainOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.drainOnce(ctx)
		}
	}
}

func (r *Replayer) drainOnce(ctx context.Context) {
	drained, err := r.queue.Drain(func(record *models.PaymentRecord) error {
		return r.submit(ctx, record)
	})
	if err != nil {
		r.logger.Error("outbox drain failed", slog.Any("error", err))
		return
	}
	if drained > 0 {
		r.logger.Info("outbox entries replayed", slog.Int("count", drained))
	}
}
