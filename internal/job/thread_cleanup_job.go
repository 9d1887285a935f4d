package job

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/askbase/askbase/internal/repo"
	"github.com/askbase/askbase/internal/service"
)

// ThreadCleanupJob removes threads idle longer than the retention window,
// along with their messages and scoped documents.
type ThreadCleanupJob struct {
	threads   *repo.ThreadRepo
	svc       *service.ThreadService
	retention time.Duration
	batchSize int
}

func NewThreadCleanupJob(threads *repo.ThreadRepo, svc *service.ThreadService, retention time.Duration, batchSize int) *ThreadCleanupJob {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &ThreadCleanupJob{
		threads:   threads,
		svc:       svc,
		retention: retention,
		batchSize: batchSize,
	}
}

func (j *ThreadCleanupJob) Name() string {
	return "thread_cleanup"
}

func (j *ThreadCleanupJob) Run(ctx context.Context) error {
	if j.retention <= 0 {
		return nil
	}
	cutoff := time.Now().Add(-j.retention).UnixMilli()
	idle, err := j.threads.ListIdle(ctx, cutoff, j.batchSize)
	if err != nil {
		return err
	}
	logger := logutil.GetLogger(ctx)
	removed := 0
	for _, thread := range idle {
		if ctx.Err() != nil {
			break
		}
		if err := j.svc.Delete(ctx, thread.ID); err != nil {
			logger.Error("cleanup thread failed",
				zap.String("thread_id", thread.ID), zap.Error(err))
			continue
		}
		removed++
	}
	if len(idle) > 0 {
		logger.Info("thread cleanup pass",
			zap.Int("idle", len(idle)), zap.Int("removed", removed))
	}
	return nil
}
