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

const (
	QueueReceipt = "jobs:receipt"
	QueueEmail   = "jobs:email"

	JobReceipt = "receipt"
	JobEmail   = "email"

	// MaxJobAttempts is how many times a failing job runs before it lands in the DLQ.
	MaxJobAttempts = 3

	popTimeout = 5 * time.Second
	popBackoff = time.Second
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	Attempts int             `json:"attempts"`
}

// JobHandler processes one job payload. A returned error schedules a retry.
type JobHandler interface {
	Process(ctx context.Context, raw json.RawMessage) error
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// EnqueueReceipt pushes a receipt (PDF + optional email) job for a posted sale.
func (d *Dispatcher) EnqueueReceipt(ctx context.Context, payload ReceiptJobPayload) error {
	return d.enqueue(ctx, QueueReceipt, Job{Type: JobReceipt}, payload)
}

// EnqueueEmail pushes an email job to Redis.
func (d *Dispatcher) EnqueueEmail(ctx context.Context, payload EmailJobPayload) error {
	return d.enqueue(ctx, QueueEmail, Job{Type: JobEmail}, payload)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue string, job Job, payload interface{}) error {
	if d == nil || d.rdb == nil {
		return fmt.Errorf("dispatcher: redis not available")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	job.Payload = data
	return d.push(ctx, queue, job)
}

func (d *Dispatcher) push(ctx context.Context, queue string, job Job) error {
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queue, encoded).Err()
}

// Pool consumes the job queues with a fixed number of goroutines.
type Pool struct {
	rdb        *redis.Client
	dispatcher *Dispatcher
	handlers   map[string]JobHandler
	queues     []string
	backoff    time.Duration
}

// NewPool registers one handler per job type. Queues without a handler are
// not consumed.
func NewPool(rdb *redis.Client, handlers map[string]JobHandler) *Pool {
	p := &Pool{rdb: rdb, dispatcher: NewDispatcher(rdb), handlers: handlers, backoff: popBackoff}
	if _, ok := handlers[JobReceipt]; ok {
		p.queues = append(p.queues, QueueReceipt)
	}
	if _, ok := handlers[JobEmail]; ok {
		p.queues = append(p.queues, QueueEmail)
	}
	return p
}

// Start launches numWorkers goroutines consuming the registered queues.
// Each goroutine blocks on BRPOP, zero CPU when idle.
func (p *Pool) Start(ctx context.Context, numWorkers int) {
	if len(p.queues) == 0 {
		return
	}
	for i := 0; i < numWorkers; i++ {
		go p.run(ctx, i)
	}
	log.Info().Int("workers", numWorkers).Strs("queues", p.queues).Msg("worker pool started")
}

func (p *Pool) run(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Int("worker", id).Msg("worker shutting down")
			return
		default:
			// Blocking pop: waits up to 5s then loops to check ctx
			result, err := p.rdb.BRPop(ctx, popTimeout, p.queues...).Result()
			if err != nil {
				if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
					log.Warn().Err(err).Int("worker", id).Dur("backoff", p.backoff).Msg("dequeue failed")
					sleepCtx(ctx, p.backoff)
				}
				continue
			}
			if len(result) < 2 {
				continue
			}
			p.handle(ctx, result[0], []byte(result[1]))
		}
	}
}

// sleepCtx waits for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// handle runs one raw job. Failures are re-queued until MaxJobAttempts, then
// moved to the DLQ.
func (p *Pool) handle(ctx context.Context, queue string, raw []byte) {
	var job Job
	if err := json.Unmarshal(raw, &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		SendToDLQ(ctx, p.rdb, queue, Job{Payload: raw}, "undecodable envelope: "+err.Error())
		return
	}

	h, ok := p.handlers[job.Type]
	if !ok {
		SendToDLQ(ctx, p.rdb, queue, job, "no handler for job type")
		return
	}

	job.Attempts++
	err := h.Process(ctx, job.Payload)
	if err == nil {
		infra.JobsProcessed.WithLabelValues(job.Type, "ok").Inc()
		return
	}

	if job.Attempts >= MaxJobAttempts {
		SendToDLQ(ctx, p.rdb, queue, job, err.Error())
		return
	}

	infra.JobsProcessed.WithLabelValues(job.Type, "retry").Inc()
	log.Warn().Err(err).Str("type", job.Type).Int("attempt", job.Attempts).Msg("job failed, re-queued")
	if pushErr := p.dispatcher.push(ctx, queue, job); pushErr != nil {
		SendToDLQ(ctx, p.rdb, queue, job, "requeue failed: "+pushErr.Error())
	}
}
