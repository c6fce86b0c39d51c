package sweeper

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/BoneTheDeveloper/Electronic-Contact-Contact-Book-sub003/internal/domain/enums"
	sessionsvc "github.com/BoneTheDeveloper/Electronic-Contact-Contact-Book-sub003/internal/services/session"
)

type SessionStore interface {
	TerminateIdle(ctx context.Context, cutoff, at time.Time) ([]sessionsvc.IdleTermination, error)
}

type Notifier interface {
	NotifyTerminated(ctx context.Context, userID int64, reason enums.TerminationReason)
}

// Job periodically times out idle sessions and keeps the in-process
// liveness cache from accumulating entries for dead sessions.
type Job struct {
	sessions    SessionStore
	notifier    Notifier
	liveness    *sessionsvc.LivenessCache
	idleTimeout time.Duration
	now         func() time.Time
	logger      *zap.Logger
}

func New(sessions SessionStore, notifier Notifier, liveness *sessionsvc.LivenessCache, idleTimeout time.Duration, logger *zap.Logger) *Job {
	if idleTimeout <= 0 {
		idleTimeout = 30 * 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Job{
		sessions:    sessions,
		notifier:    notifier,
		liveness:    liveness,
		idleTimeout: idleTimeout,
		now:         time.Now,
		logger:      logger,
	}
}

func (j *Job) Run(ctx context.Context) error {
	now := j.now()
	cutoff := now.Add(-j.idleTimeout)

	if j.sessions != nil {
		terminated, err := j.sessions.TerminateIdle(ctx, cutoff, now)
		if err != nil {
			return fmt.Errorf("terminate idle sessions: %w", err)
		}

		if len(terminated) > 0 {
			if j.notifier != nil {
				// One notice per user: the channel is per-user, not
				// per-session.
				notified := make(map[int64]struct{}, len(terminated))
				for _, item := range terminated {
					if _, ok := notified[item.UserID]; ok {
						continue
					}
					notified[item.UserID] = struct{}{}
					j.notifier.NotifyTerminated(ctx, item.UserID, enums.TerminationTimeout)
				}
			}
			j.logger.Info("idle sessions terminated", zap.Int("count", len(terminated)))
		}
	}

	if j.liveness != nil {
		if removed := j.liveness.SweepOlderThan(cutoff); removed > 0 {
			j.logger.Info("liveness cache swept", zap.Int("removed", removed))
		}
	}

	return nil
}

// RunEvery runs the job on a fixed interval until ctx is cancelled. The
// first run happens immediately; a failed run is logged and the loop
// keeps going.
func (j *Job) RunEvery(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := j.Run(ctx); err != nil {
			j.logger.Error("sweep run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
