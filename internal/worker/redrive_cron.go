package worker

// redrive_cron.go
// Background goroutine that periodically moves transient failures from the
// dead letter queues back onto their source queue. Permanent failures and
// jobs that exhausted MaxRedrives stay put for manual inspection.

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"foodie/internal/metrics"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	redriveTickInterval = time.Minute
	redriveBatchSize    = 20

	// MaxRedrives bounds how often one job is requeued from the DLQ.
	MaxRedrives = 3

	// DLQParkedPrefix holds entries the cron gave up on.
	DLQParkedPrefix = "dlq:parked:"
)

type redriveAction int

const (
	redriveWait redriveAction = iota
	redriveRequeue
	redrivePark
)

// redriveBackoff returns how long an entry rests in the DLQ before its next
// redrive: 1m, 2m, 4m …
func redriveBackoff(redrives int) time.Duration {
	return time.Duration(1<<uint(redrives)) * time.Minute
}

func decideRedrive(e DLQEntry, now time.Time) redriveAction {
	if e.Permanent || e.Redrives >= MaxRedrives {
		return redrivePark
	}
	if now.Before(e.FailedAt.Add(redriveBackoff(e.Redrives))) {
		return redriveWait
	}
	return redriveRequeue
}

// StartRedriveCron launches the redrive goroutine. It respects ctx for
// graceful shutdown.
func StartRedriveCron(ctx context.Context, rdb *redis.Client) {
	go func() {
		ticker := time.NewTicker(redriveTickInterval)
		defer ticker.Stop()

		log.Info().Msg("redrive_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("redrive_cron: shutting down")
				return
			case now := <-ticker.C:
				for _, q := range []string{QueueReceipt, QueueEmail} {
					if n, err := redriveQueue(ctx, rdb, q, now); err != nil {
						log.Error().Err(err).Str("queue", q).Msg("redrive_cron: tick failed")
					} else if n > 0 {
						log.Info().Str("queue", q).Int("requeued", n).Msg("redrive_cron: jobs requeued")
					}
				}
			}
		}
	}()
}

// redriveQueue walks the oldest entries of dlq:<queue>. It stops at the first
// entry that is not yet due, putting it back at the tail.
func redriveQueue(ctx context.Context, rdb *redis.Client, queue string, now time.Time) (int, error) {
	dlq := DLQPrefix + queue
	requeued := 0
	for i := 0; i < redriveBatchSize; i++ {
		raw, err := rdb.RPop(ctx, dlq).Result()
		if errors.Is(err, redis.Nil) {
			return requeued, nil
		}
		if err != nil {
			return requeued, err
		}

		var entry DLQEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			if err := rdb.LPush(ctx, DLQParkedPrefix+queue, raw).Err(); err != nil {
				return requeued, err
			}
			continue
		}

		switch decideRedrive(entry, now) {
		case redriveWait:
			return requeued, rdb.RPush(ctx, dlq, raw).Err()
		case redrivePark:
			if err := rdb.LPush(ctx, DLQParkedPrefix+queue, raw).Err(); err != nil {
				return requeued, err
			}
		case redriveRequeue:
			job, err := json.Marshal(Job{Type: entry.JobType, Payload: entry.Payload, Redrives: entry.Redrives + 1})
			if err != nil {
				return requeued, err
			}
			if err := rdb.LPush(ctx, queue, job).Err(); err != nil {
				// keep the entry rather than lose it
				_ = rdb.RPush(ctx, dlq, raw).Err()
				return requeued, err
			}
			metrics.JobsProcessedTotal.WithLabelValues(entry.JobType, "redriven").Inc()
			requeued++
		}
	}
	return requeued, nil
}
