// Package progress holds the per-job progress snapshots polled by clients.
// It is the only cross-request shared state in the service.
package progress

import (
	"context"
	"errors"

	"social-insights-service/internal/entity"
)

var ErrNotFound = errors.New("progress: job not found")

// Store is a keyed snapshot store. One writer per job id (the owning
// background task); readers are polling clients.
type Store interface {
	Set(ctx context.Context, job *entity.AnalysisJob) error
	Get(ctx context.Context, jobID string) (*entity.AnalysisJob, error)
	Delete(ctx context.Context, jobID string) error
}
