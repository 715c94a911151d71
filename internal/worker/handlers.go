package worker

import (
	"context"
	"fmt"
	"strings"

	"taskpilot/backend/internal/storage"
)

const payloadPrefix = "prefix"

// CleanupFilesPayload asks the cleanup job to delete every object under prefix.
func CleanupFilesPayload(prefix string) map[string]interface{} {
	return map[string]interface{}{payloadPrefix: prefix}
}

// CleanupFilesHandler removes the stored objects of a deleted project.
func CleanupFilesHandler(store storage.ObjectStore) JobHandler {
	return func(ctx context.Context, job *Job) error {
		prefix, err := job.PayloadString(payloadPrefix)
		if err != nil {
			return err
		}
		if !strings.HasPrefix(prefix, "projects/") {
			return fmt.Errorf("refusing to clean up prefix %q", prefix)
		}
		return store.DeletePrefix(ctx, prefix)
	}
}

// WarmViewsHandler recomputes cached views after a write.
func WarmViewsHandler(warm func(ctx context.Context) error) JobHandler {
	return func(ctx context.Context, job *Job) error {
		return warm(ctx)
	}
}
