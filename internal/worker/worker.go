package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gofrs/uuid"
	"github.com/redis/go-redis/v9"
)

type JobType string

const (
	JobTypeWarmViews    JobType = "warm_views"
	JobTypeCleanupFiles JobType = "cleanup_files"
)

const (
	QueueDefault     = "default"
	QueueMaintenance = "maintenance"
	QueueRetry       = "retry_queue"
	QueueDead        = "dead_queue"

	defaultMaxTries = 3
	popTimeout      = 5 * time.Second
	jobTimeout      = 30 * time.Second
)

type Job struct {
	ID        string                 `json:"id"`
	Type      JobType                `json:"type"`
	Payload   map[string]interface{} `json:"payload"`
	Attempts  int                    `json:"attempts"`
	MaxTries  int                    `json:"max_tries"`
	CreatedAt time.Time              `json:"created_at"`
	ProcessAt time.Time              `json:"process_at"`
}

func newJob(jobType JobType, payload map[string]interface{}, processAt time.Time) *Job {
	return &Job{
		ID:        uuid.Must(uuid.NewV4()).String(),
		Type:      jobType,
		Payload:   payload,
		MaxTries:  defaultMaxTries,
		CreatedAt: time.Now(),
		ProcessAt: processAt,
	}
}

// PayloadString reads a string field from the job payload.
func (j *Job) PayloadString(key string) (string, error) {
	v, ok := j.Payload[key].(string)
	if !ok || v == "" {
		return "", fmt.Errorf("job %s: missing payload field %q", j.ID, key)
	}
	return v, nil
}

type JobHandler func(ctx context.Context, job *Job) error

// Enqueuer accepts background jobs. JobQueue sends them to Redis;
// InlineQueue runs them in-process when no Redis is configured.
type Enqueuer interface {
	Enqueue(ctx context.Context, queue string, jobType JobType, payload map[string]interface{}) error
}

type Worker struct {
	client     *redis.Client
	handlers   map[JobType]JobHandler
	queues     []string
	retryDelay func(attempts int) time.Duration
	mu         sync.RWMutex
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
}

type WorkerConfig struct {
	RedisClient *redis.Client
	Queues      []string
}

func NewWorker(config WorkerConfig) *Worker {
	ctx, cancel := context.WithCancel(context.Background())

	queues := config.Queues
	if len(queues) == 0 {
		queues = []string{QueueDefault, QueueMaintenance, QueueRetry}
	}

	return &Worker{
		client:     config.RedisClient,
		handlers:   make(map[JobType]JobHandler),
		queues:     queues,
		retryDelay: backoff,
		ctx:        ctx,
		cancel:     cancel,
	}
}

func backoff(attempts int) time.Duration {
	return time.Duration(1<<attempts) * time.Minute
}

func (w *Worker) RegisterHandler(jobType JobType, handler JobHandler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers[jobType] = handler
}

func (w *Worker) Start(concurrency int) {
	if concurrency <= 0 {
		concurrency = 1
	}
	log.Printf("Starting worker with %d goroutines on queues %v", concurrency, w.queues)

	for i := 0; i < concurrency; i++ {
		w.wg.Add(1)
		go w.workerLoop()
	}
}

func (w *Worker) Stop() {
	log.Println("Stopping worker...")
	w.cancel()
	w.wg.Wait()
	log.Println("Worker stopped")
}

func (w *Worker) workerLoop() {
	defer w.wg.Done()

	for w.ctx.Err() == nil {
		if err := w.processNextJob(); err != nil {
			if w.ctx.Err() != nil {
				return
			}
			log.Printf("Error processing job: %v", err)
			time.Sleep(time.Second)
		}
	}
}

func (w *Worker) processNextJob() error {
	result, err := w.client.BLPop(w.ctx, popTimeout, w.queues...).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("failed to pop job: %w", err)
	}

	if len(result) < 2 {
		return fmt.Errorf("invalid job result")
	}

	queue := result[0]
	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		return fmt.Errorf("failed to unmarshal job: %w", err)
	}

	if time.Now().Before(job.ProcessAt) {
		// Not due yet; put it back and avoid spinning on a lone delayed job.
		if err := w.enqueueJob(queue, &job); err != nil {
			return err
		}
		time.Sleep(100 * time.Millisecond)
		return nil
	}

	return w.executeJob(&job)
}

func (w *Worker) executeJob(job *Job) error {
	w.mu.RLock()
	handler, exists := w.handlers[job.Type]
	w.mu.RUnlock()

	if !exists {
		return w.moveToDeadQueue(job, fmt.Errorf("no handler registered for job type: %s", job.Type))
	}

	log.Printf("Processing job %s of type %s", job.ID, job.Type)

	ctx, cancel := context.WithTimeout(w.ctx, jobTimeout)
	defer cancel()

	if err := handler(ctx, job); err != nil {
		job.Attempts++
		if job.Attempts < job.MaxTries {
			log.Printf("Job %s failed (attempt %d/%d), retrying: %v",
				job.ID, job.Attempts, job.MaxTries, err)
			return w.retryJob(job)
		}

		log.Printf("Job %s failed permanently after %d attempts: %v",
			job.ID, job.Attempts, err)
		return w.moveToDeadQueue(job, err)
	}

	log.Printf("Job %s completed successfully", job.ID)
	return nil
}

func (w *Worker) retryJob(job *Job) error {
	job.ProcessAt = time.Now().Add(w.retryDelay(job.Attempts))
	return w.enqueueJob(QueueRetry, job)
}

func (w *Worker) enqueueJob(queue string, job *Job) error {
	jobData, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	return w.client.RPush(w.ctx, queue, jobData).Err()
}

func (w *Worker) moveToDeadQueue(job *Job, jobErr error) error {
	deadJob := map[string]interface{}{
		"original_job": job,
		"error":        jobErr.Error(),
		"failed_at":    time.Now(),
	}

	deadJobData, err := json.Marshal(deadJob)
	if err != nil {
		return fmt.Errorf("failed to marshal dead job: %w", err)
	}

	return w.client.RPush(w.ctx, QueueDead, deadJobData).Err()
}

type JobQueue struct {
	client *redis.Client
}

func NewJobQueue(client *redis.Client) *JobQueue {
	return &JobQueue{client: client}
}

func (q *JobQueue) Enqueue(ctx context.Context, queue string, jobType JobType, payload map[string]interface{}) error {
	return q.EnqueueAt(ctx, queue, jobType, payload, time.Now())
}

func (q *JobQueue) EnqueueAt(ctx context.Context, queue string, jobType JobType, payload map[string]interface{}, processAt time.Time) error {
	jobData, err := json.Marshal(newJob(jobType, payload, processAt))
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return q.client.RPush(ctx, queue, jobData).Err()
}

func (q *JobQueue) GetQueueSize(ctx context.Context, queue string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	return q.client.LLen(ctx, queue).Result()
}

// InlineQueue runs jobs synchronously with the registered handlers.
type InlineQueue struct {
	mu       sync.RWMutex
	handlers map[JobType]JobHandler
}

func NewInlineQueue() *InlineQueue {
	return &InlineQueue{handlers: make(map[JobType]JobHandler)}
}

func (q *InlineQueue) RegisterHandler(jobType JobType, handler JobHandler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[jobType] = handler
}

func (q *InlineQueue) Enqueue(ctx context.Context, _ string, jobType JobType, payload map[string]interface{}) error {
	q.mu.RLock()
	handler, ok := q.handlers[jobType]
	q.mu.RUnlock()
	if !ok {
		return fmt.Errorf("no handler registered for job type: %s", jobType)
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), jobTimeout)
	defer cancel()

	return handler(ctx, newJob(jobType, payload, time.Now()))
}
