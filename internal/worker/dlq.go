package worker

// dlq.go — Dead Letter Queue
// Jobs that fail permanently or exhaust MaxJobAttempts land in dlq:<queue>
// for manual inspection.

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const DLQPrefix = "dlq:"

// DLQEntry wraps a failed job with metadata for debugging.
type DLQEntry struct {
	OriginalQueue string          `json:"original_queue"`
	JobType       string          `json:"job_type"`
	Payload       json.RawMessage `json:"payload"`
	Reason        string          `json:"reason"`
	FailedAt      time.Time       `json:"failed_at"`
	Attempts      int             `json:"attempts"`
	// Redrives counts how often the redrive cron already requeued the job.
	Redrives      int             `json:"redrives"`
	Permanent     bool            `json:"permanent"`
}

// SendToDLQ never fails the caller; push errors are only logged.
func SendToDLQ(ctx context.Context, rdb *redis.Client, entry DLQEntry) {
	if entry.FailedAt.IsZero() {
		entry.FailedAt = time.Now().UTC()
	}
	queue := entry.OriginalQueue
	data, err := json.Marshal(entry)
	if err != nil {
		log.Error().Err(err).Str("queue", queue).Msg("dlq: failed to marshal entry")
		return
	}

	// ctx may already be cancelled during shutdown; the entry must still land
	pushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := rdb.LPush(pushCtx, DLQPrefix+queue, data).Err(); err != nil {
		log.Error().Err(err).Str("dlq_key", DLQPrefix+queue).Msg("dlq: failed to push entry")
		return
	}

	log.Warn().
		Str("queue", queue).
		Str("job_type", entry.JobType).
		Str("reason", entry.Reason).
		Int("attempts", entry.Attempts).
		Int("redrives", entry.Redrives).
		Msg("dlq: job moved to dead letter queue")
}

// DLQDepths returns the number of dead-lettered jobs per source queue.
func DLQDepths(ctx context.Context, rdb *redis.Client) (map[string]int64, error) {
	out := make(map[string]int64, 2)
	for _, q := range []string{QueueReceipt, QueueEmail} {
		n, err := rdb.LLen(ctx, DLQPrefix+q).Result()
		if err != nil {
			return nil, err
		}
		out[q] = n
	}
	return out, nil
}
