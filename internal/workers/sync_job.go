package workers

import (
	"context"
	"time"

	"github.com/ashirkhanov/syncwell/internal/service"
)

// SyncJobWorker adapts the periodic sync job to the Worker interface.
type SyncJobWorker struct {
	job      service.SyncJob
	interval time.Duration
}

func NewSyncJobWorker(job service.SyncJob, interval time.Duration) *SyncJobWorker {
	return &SyncJobWorker{job: job, interval: interval}
}

// Run implements Worker.
func (w *SyncJobWorker) Run(ctx context.Context) {
	w.job.Start(ctx, w.interval)
}

// Stop implements Worker.
func (w *SyncJobWorker) Stop() {
	w.job.Stop()
}
