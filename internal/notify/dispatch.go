package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quinielago/progol-data/internal/metrics"
)

// Sender delivers one rendered notification message.
type Sender interface {
	Send(ctx context.Context, text string) error
}

// Outbox is the persistence surface the dispatch worker drains.
type Outbox interface {
	ClaimDue(ctx context.Context) ([]Item, error)
	MarkSent(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64, reason string) error
}

// pgOutbox adapts the pool-level helpers to Outbox.
type pgOutbox struct {
	pool *pgxpool.Pool
}

func (o pgOutbox) ClaimDue(ctx context.Context) ([]Item, error) {
	return ClaimDue(ctx, o.pool)
}

func (o pgOutbox) MarkSent(ctx context.Context, id int64) error {
	return MarkSent(ctx, o.pool, id)
}

func (o pgOutbox) MarkFailed(ctx context.Context, id int64, reason string) error {
	return MarkFailed(ctx, o.pool, id, reason)
}

// Deliverer persists evaluator output and fans it out to the Redis stream.
// The dispatch worker handles the slower Telegram leg asynchronously.
type Deliverer struct {
	pool      *pgxpool.Pool
	publisher *StreamPublisher
	logger    *slog.Logger
}

// NewDeliverer creates a deliverer. publisher may be nil.
func NewDeliverer(pool *pgxpool.Pool, publisher *StreamPublisher, logger *slog.Logger) *Deliverer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Deliverer{pool: pool, publisher: publisher, logger: logger}
}

// Deliver renders messages, persists the items, and publishes them.
// Publish failures are logged, not fatal: the persisted row is the record.
func (d *Deliverer) Deliver(ctx context.Context, items []Item) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}
	for i := range items {
		if items[i].Message == "" {
			items[i].Message = BuildMessage(items[i])
		}
	}

	inserted, err := InsertPending(ctx, d.pool, items)
	if err != nil {
		return inserted, err
	}

	for _, it := range items {
		if err := d.publisher.Publish(ctx, it); err != nil {
			d.logger.Warn("stream publish failed", "match_id", it.MatchID, "error", err)
		}
	}
	return inserted, nil
}

// StartWorker runs a background loop that sends due notifications through
// the sender. Blocks until ctx is cancelled. Intended to be called with `go`.
func StartWorker(ctx context.Context, pool *pgxpool.Pool, sender Sender, recorder *metrics.Recorder, logger *slog.Logger) {
	logger.Info("notification dispatch worker started", "interval", dispatchInterval)
	ticker := time.NewTicker(dispatchInterval)
	defer ticker.Stop()

	outbox := pgOutbox{pool: pool}
	for {
		select {
		case <-ticker.C:
			sent, failed, err := dispatchBatch(ctx, outbox, sender, recorder, logger)
			if err != nil {
				logger.Error("dispatch error", "error", err)
			} else if sent+failed > 0 {
				logger.Info("dispatch batch", "sent", sent, "failed", failed)
			}
		case <-ctx.Done():
			logger.Info("notification dispatch worker stopped")
			return
		}
	}
}

func dispatchBatch(ctx context.Context, outbox Outbox, sender Sender, recorder *metrics.Recorder, logger *slog.Logger) (sent, failed int, err error) {
	claimed, err := outbox.ClaimDue(ctx)
	if err != nil {
		return 0, 0, err
	}

	for _, it := range claimed {
		if sendErr := sender.Send(ctx, it.Message); sendErr != nil {
			logger.Warn("send failed", "notification_id", it.ID, "error", sendErr)
			_ = outbox.MarkFailed(ctx, it.ID, sendErr.Error())
			recorder.RecordNotification("failed")
			failed++
		} else {
			_ = outbox.MarkSent(ctx, it.ID)
			recorder.RecordNotification("sent")
			sent++
		}
	}
	return sent, failed, nil
}
