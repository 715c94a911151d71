package services

import (
	"context"
	"log"

	"taskpilot/backend/internal/cache"
	"taskpilot/backend/internal/worker"
)

// viewRefresher drops cached views after a write and, for views derived
// from the project list, asks the worker to rebuild them.
type viewRefresher struct {
	views cache.Invalidator
	jobs  worker.Enqueuer
}

func newViewRefresher(views cache.Invalidator, jobs worker.Enqueuer) viewRefresher {
	if views == nil {
		views = cache.NopInvalidator{}
	}
	return viewRefresher{views: views, jobs: jobs}
}

func (r viewRefresher) invalidate(ctx context.Context, views ...string) {
	r.views.Invalidate(ctx, views...)
}

func (r viewRefresher) invalidateAndWarm(ctx context.Context, views ...string) {
	r.views.Invalidate(ctx, views...)
	r.enqueue(ctx, worker.QueueDefault, worker.JobTypeWarmViews, nil)
}

func (r viewRefresher) enqueue(ctx context.Context, queue string, jobType worker.JobType, payload map[string]interface{}) {
	if r.jobs == nil {
		return
	}
	if err := r.jobs.Enqueue(ctx, queue, jobType, payload); err != nil {
		log.Printf("Failed to enqueue %s job: %v", jobType, err)
	}
}
