package services_test

import (
	"context"
	"sync"

	"taskpilot/backend/internal/models"
	"taskpilot/backend/internal/repositories"
	"taskpilot/backend/internal/worker"
)

type recordingInvalidator struct {
	mu    sync.Mutex
	views []string
}

func (r *recordingInvalidator) Invalidate(_ context.Context, views ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.views = append(r.views, views...)
}

func (r *recordingInvalidator) Views() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.views...)
}

func (r *recordingInvalidator) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.views = nil
}

type enqueuedJob struct {
	Queue   string
	Type    worker.JobType
	Payload map[string]interface{}
}

type recordingQueue struct {
	mu   sync.Mutex
	jobs []enqueuedJob
}

func (q *recordingQueue) Enqueue(_ context.Context, queue string, jobType worker.JobType, payload map[string]interface{}) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, enqueuedJob{Queue: queue, Type: jobType, Payload: payload})
	return nil
}

func (q *recordingQueue) OfType(jobType worker.JobType) []enqueuedJob {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []enqueuedJob
	for _, j := range q.jobs {
		if j.Type == jobType {
			out = append(out, j)
		}
	}
	return out
}

// countingRepo counts writes and can interleave a competing write before
// a task save.
type countingRepo struct {
	repositories.ProjectRepository
	writes     int
	beforeSave func(project *models.Project)
}

func (r *countingRepo) Create(ctx context.Context, p *models.Project) error {
	r.writes++
	return r.ProjectRepository.Create(ctx, p)
}

func (r *countingRepo) SaveTaskChanges(ctx context.Context, p *models.Project) error {
	r.writes++
	if r.beforeSave != nil {
		r.beforeSave(p)
	}
	return r.ProjectRepository.SaveTaskChanges(ctx, p)
}
