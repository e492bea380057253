package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"pharmacyos/internal/infra"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Dead letters live in one Redis list per source queue, dlq:{queue}. Each
// entry keeps the whole job envelope so ReplayDLQ can push it back as is.
const DLQPrefix = "dlq:"

// unreplayableSuffix parks entries ReplayDLQ could not decode.
const unreplayableSuffix = ":unreplayable"

type DLQEntry struct {
	Queue    string    `json:"queue"`
	Job      Job       `json:"job"`
	Reason   string    `json:"reason"`
	FailedAt time.Time `json:"failed_at"`
}

func dlqKey(queue string) string { return DLQPrefix + queue }

// KnownQueue reports whether queue is one the pool consumes.
func KnownQueue(queue string) bool {
	return queue == QueueReceipt || queue == QueueEmail
}

// SendToDLQ parks a job that will not be retried automatically.
func SendToDLQ(ctx context.Context, rdb *redis.Client, queue string, job Job, reason string) {
	if !json.Valid(job.Payload) {
		job.Payload, _ = json.Marshal(string(job.Payload))
	}
	data, err := json.Marshal(DLQEntry{Queue: queue, Job: job, Reason: reason, FailedAt: time.Now().UTC()})
	if err != nil {
		log.Error().Err(err).Str("queue", queue).Msg("dlq: failed to marshal entry")
		return
	}
	if err := rdb.LPush(ctx, dlqKey(queue), data).Err(); err != nil {
		log.Error().Err(err).Str("dlq_key", dlqKey(queue)).Msg("dlq: failed to push")
		return
	}

	infra.JobsProcessed.WithLabelValues(job.Type, "dead").Inc()
	log.Warn().
		Str("queue", queue).
		Str("job_type", job.Type).
		Str("reason", reason).
		Int("attempts", job.Attempts).
		Msg("dlq: job parked")
}

// DLQLength returns the number of parked jobs for queue.
func DLQLength(ctx context.Context, rdb *redis.Client, queue string) (int64, error) {
	return rdb.LLen(ctx, dlqKey(queue)).Result()
}

// JobOrganization returns the organization_id carried by the job payload,
// or "" when the payload has none.
func JobOrganization(job Job) string {
	var scope struct {
		OrganizationID string `json:"organization_id"`
	}
	if err := json.Unmarshal(job.Payload, &scope); err != nil {
		return ""
	}
	return scope.OrganizationID
}

// ReplayDLQ moves up to max parked jobs of orgID, oldest first, back onto
// their queue with a fresh attempt budget. Jobs of other organizations stay
// parked. It returns how many were moved and how many of orgID's jobs remain.
func ReplayDLQ(ctx context.Context, rdb *redis.Client, queue, orgID string, max int) (replayed, remaining int, err error) {
	if !KnownQueue(queue) {
		return 0, 0, fmt.Errorf("dlq: unknown queue %q", queue)
	}
	if orgID == "" {
		return 0, 0, errors.New("dlq: organization required")
	}
	key := dlqKey(queue)
	raws, err := rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return 0, 0, err
	}

	// LPUSH keeps the newest entry at the head, so walk from the tail.
	for i := len(raws) - 1; i >= 0; i-- {
		raw := raws[i]
		var entry DLQEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil || entry.Job.Type == "" {
			if n, _ := rdb.LRem(ctx, key, -1, raw).Result(); n > 0 {
				_ = rdb.LPush(ctx, key+unreplayableSuffix, raw).Err()
			}
			continue
		}
		if JobOrganization(entry.Job) != orgID {
			continue
		}
		if replayed >= max {
			remaining++
			continue
		}

		entry.Job.Attempts = 0
		encoded, err := json.Marshal(entry.Job)
		if err != nil {
			return replayed, remaining, err
		}
		n, err := rdb.LRem(ctx, key, -1, raw).Result()
		if err != nil {
			return replayed, remaining, err
		}
		if n == 0 {
			// taken by a concurrent replay
			continue
		}
		if err := rdb.LPush(ctx, queue, encoded).Err(); err != nil {
			// back on the tail so the next replay sees it first
			_ = rdb.RPush(ctx, key, raw).Err()
			return replayed, remaining, err
		}
		replayed++
	}

	if replayed > 0 {
		log.Info().Str("queue", queue).Str("organization_id", orgID).Int("replayed", replayed).Msg("dlq: jobs replayed")
	}
	return replayed, remaining, nil
}
