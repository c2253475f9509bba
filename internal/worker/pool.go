package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueSessionReport = "jobs:session_report"
	QueueVarianceAlert = "jobs:variance_alert"
)

// Job is the envelope stored in every queue.
type Job struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Payload    json.RawMessage `json:"payload"`
	EnqueuedAt string          `json:"enqueued_at"`
}

// Enqueuer is what the session event hooks need from the dispatcher.
type Enqueuer interface {
	Enqueue(ctx context.Context, queue, jobType string, payload any) error
}

// Dispatcher LPUSHes jobs; the pool BRPOPs them, so each queue is FIFO.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

func (d *Dispatcher) Enqueue(ctx context.Context, queue, jobType string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("enqueue %s: marshal payload: %w", jobType, err)
	}
	encoded, err := json.Marshal(Job{
		ID:         uuid.NewString(),
		Type:       jobType,
		Payload:    data,
		EnqueuedAt: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("enqueue %s: marshal job: %w", jobType, err)
	}
	return d.rdb.LPush(ctx, queue, encoded).Err()
}

// Handler processes one job payload. A returned error sends the job to the
// dead-letter queue; handlers do their own retrying first.
type Handler interface {
	Process(ctx context.Context, payload json.RawMessage) error
}

// Pool consumes every registered queue with a fixed number of goroutines.
type Pool struct {
	rdb      *redis.Client
	handlers map[string]Handler
	wg       sync.WaitGroup
}

func NewPool(rdb *redis.Client) *Pool {
	return &Pool{rdb: rdb, handlers: map[string]Handler{}}
}

// Register binds a queue to its handler. Call before Start.
func (p *Pool) Register(queue string, h Handler) {
	p.handlers[queue] = h
}

// Start launches n workers. They stop when ctx is cancelled; Wait blocks
// until the in-flight jobs are done.
func (p *Pool) Start(ctx context.Context, n int) {
	queues := make([]string, 0, len(p.handlers))
	for q := range p.handlers {
		queues = append(queues, q)
	}
	if len(queues) == 0 || n <= 0 {
		log.Warn().Msg("worker pool not started: no queues or workers")
		return
	}
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go p.run(ctx, i, queues)
	}
	log.Info().Int("workers", n).Strs("queues", queues).Msg("worker pool started")
}

func (p *Pool) Wait() { p.wg.Wait() }

func (p *Pool) run(ctx context.Context, id int, queues []string) {
	defer p.wg.Done()
	for {
		if ctx.Err() != nil {
			log.Info().Int("worker", id).Msg("worker shutting down")
			return
		}
		// Blocks up to 5s so cancellation is noticed promptly.
		result, err := p.rdb.BRPop(ctx, 5*time.Second, queues...).Result()
		if err != nil {
			if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
				log.Warn().Err(err).Int("worker", id).Msg("queue pop failed")
				time.Sleep(time.Second)
			}
			continue
		}
		if len(result) < 2 {
			continue
		}
		p.process(context.WithoutCancel(ctx), result[0], result[1])
	}
}

func (p *Pool) process(ctx context.Context, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("invalid job envelope")
		SendToDLQ(ctx, p.rdb, queue, "unknown", json.RawMessage(raw), "invalid envelope: "+err.Error(), 0)
		return
	}
	h, ok := p.handlers[queue]
	if !ok {
		SendToDLQ(ctx, p.rdb, queue, job.Type, job.Payload, "no handler for queue", 0)
		return
	}

	start := time.Now()
	if err := h.Process(ctx, job.Payload); err != nil {
		SendToDLQ(ctx, p.rdb, queue, job.Type, job.Payload, err.Error(), attemptsOf(err))
		return
	}
	log.Debug().
		Str("job_id", job.ID).
		Str("type", job.Type).
		Dur("took", time.Since(start)).
		Msg("job done")
}
