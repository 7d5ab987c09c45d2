// Package roster consumes roster collected events and feeds them to the
// connection reconciliation engine.
package roster

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"revalid/internal/platform/redis"
	"revalid/internal/revalidation/models"
)

const (
	retryBaseDelay = time.Second
	retryMaxDelay  = 30 * time.Second
)

// Applier applies one roster collected event.
type Applier interface {
	Apply(ctx context.Context, event *models.RosterCollectedEvent) error
}

// Consumer reads roster collected events from Kafka and applies them. One
// event per designated body is processed at a time cluster-wide: a per-body
// run lock keeps two replicas from reconciling the same body concurrently,
// while events for different bodies proceed in parallel.
type Consumer struct {
	client  *kgo.Client
	applier Applier
	locker  redis.RunLocker
	logger  *slog.Logger

	retryBase time.Duration
	retryMax  time.Duration
}

func New(client *kgo.Client, applier Applier, locker redis.RunLocker, logger *slog.Logger) *Consumer {
	return &Consumer{
		client:    client,
		applier:   applier,
		locker:    locker,
		logger:    logger,
		retryBase: retryBaseDelay,
		retryMax:  retryMaxDelay,
	}
}

// Run polls until the context is cancelled. Offsets are committed only after
// an event is fully applied, so a crash mid-roster redelivers the event; the
// engine is idempotent under redelivery.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			c.logger.ErrorContext(ctx, "roster fetch error",
				"topic", topic,
				"partition", partition,
				"error", err,
			)
		})

		var processed []*kgo.Record
		fetches.EachPartition(func(p kgo.FetchTopicPartition) {
			for _, record := range p.Records {
				// process only gives up when the context ends: the
				// client's consume position has already moved past every
				// fetched record, so an unapplied record would not come
				// back until a rebalance. It must be applied before the
				// partition advances.
				if err := c.process(ctx, record); err != nil {
					return
				}
				processed = append(processed, record)
			}
		})

		if len(processed) > 0 {
			if err := c.client.CommitRecords(ctx, processed...); err != nil {
				c.logger.ErrorContext(ctx, "failed to commit roster offsets", "error", err)
			}
		}
	}
}

// process applies one record, retrying with backoff until it succeeds or the
// context is cancelled. Malformed payloads are the only records skipped.
func (c *Consumer) process(ctx context.Context, record *kgo.Record) error {
	var event models.RosterCollectedEvent
	if err := json.Unmarshal(record.Value, &event); err != nil {
		c.logger.WarnContext(ctx, "skipping malformed roster event",
			"topic", record.Topic,
			"offset", record.Offset,
			"error", err,
		)
		return nil
	}

	delay := c.retryBase
	for {
		err := c.locker.WithRunLock(ctx, event.DesignatedBodyCode, func(ctx context.Context) error {
			return c.applier.Apply(ctx, &event)
		})
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if errors.Is(err, redis.ErrLockNotAcquired) {
			c.logger.InfoContext(ctx, "body lock held elsewhere, retrying roster event",
				"designated_body_code", event.DesignatedBodyCode,
				"retry_in", delay,
			)
		} else {
			c.logger.ErrorContext(ctx, "failed to apply roster event, retrying",
				"designated_body_code", event.DesignatedBodyCode,
				"offset", record.Offset,
				"retry_in", delay,
				"error", err,
			)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		if delay < c.retryMax {
			delay *= 2
		}
	}
}
