package job

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/concierge/internal/session"
)

type SessionCleanupJob struct {
	sessions session.Store
	maxAge   time.Duration
}

func NewSessionCleanupJob(sessions session.Store, maxAge time.Duration) *SessionCleanupJob {
	return &SessionCleanupJob{sessions: sessions, maxAge: maxAge}
}

func (j *SessionCleanupJob) Name() string {
	return "session_cleanup"
}

func (j *SessionCleanupJob) Run(ctx context.Context) error {
	removed, err := j.sessions.Cleanup(ctx, j.maxAge)
	if err != nil {
		return err
	}
	if removed > 0 {
		logutil.GetLogger(ctx).Info("idle sessions removed", zap.Int("removed", removed))
	}
	return nil
}
