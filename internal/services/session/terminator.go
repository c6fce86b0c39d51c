package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/BoneTheDeveloper/Electronic-Contact-Contact-Book-sub003/internal/domain/enums"
)

// TerminatorStore is the slice of the session store the terminator needs.
type TerminatorStore interface {
	Terminate(ctx context.Context, sessionID string, userID int64, reason enums.TerminationReason, at time.Time) error
	TerminateOthers(ctx context.Context, userID int64, keepSessionID string, reason enums.TerminationReason, at time.Time) ([]string, error)
}

// Terminator ends sessions and notifies the owner's connected clients.
// The store update is authoritative; the publish is a latency
// optimization and never fails the operation.
type Terminator struct {
	store  TerminatorStore
	broker Broker
	now    func() time.Time
	logger *zap.Logger
}

func NewTerminator(store TerminatorStore, broker Broker, logger *zap.Logger) *Terminator {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Terminator{
		store:  store,
		broker: broker,
		now:    time.Now,
		logger: logger,
	}
}

// Terminate deactivates a session the requesting user owns, then
// publishes a termination notice on the user's channel. The store update
// always precedes the publish.
func (t *Terminator) Terminate(ctx context.Context, sessionID string, userID int64, reason enums.TerminationReason) error {
	if strings.TrimSpace(sessionID) == "" || userID <= 0 || !reason.Valid() {
		return ErrInvalidInput
	}

	if err := t.store.Terminate(ctx, sessionID, userID, reason, t.now()); err != nil {
		return err
	}

	t.publish(ctx, userID, reason)
	return nil
}

// TerminateOthers deactivates every active session of the user except
// keepSessionID, publishing a single notice when anything was ended.
// A new login elsewhere shows up to old devices through this path.
func (t *Terminator) TerminateOthers(ctx context.Context, userID int64, keepSessionID string, reason enums.TerminationReason) (int, error) {
	if userID <= 0 || !reason.Valid() {
		return 0, ErrInvalidInput
	}

	ids, err := t.store.TerminateOthers(ctx, userID, keepSessionID, reason, t.now())
	if err != nil {
		return 0, fmt.Errorf("terminate other sessions: %w", err)
	}

	if len(ids) > 0 {
		t.publish(ctx, userID, reason)
	}
	return len(ids), nil
}

// NotifyTerminated publishes a notice for a session that was already
// deactivated elsewhere (the idle sweeper uses this).
func (t *Terminator) NotifyTerminated(ctx context.Context, userID int64, reason enums.TerminationReason) {
	if userID <= 0 {
		return
	}
	t.publish(ctx, userID, reason)
}

func (t *Terminator) publish(ctx context.Context, userID int64, reason enums.TerminationReason) {
	if t.broker == nil {
		return
	}

	payload, err := json.Marshal(NewTerminationNotice(reason, t.now()))
	if err != nil {
		t.logger.Warn("encode termination notice", zap.Error(err))
		return
	}

	if err := t.broker.Publish(ctx, UserTopic(userID), payload); err != nil {
		// Best effort: offline clients discover termination on their
		// next request through the validator.
		t.logger.Warn("publish termination notice",
			zap.Error(err),
			zap.Int64("user_id", userID),
			zap.String("reason", string(reason)),
		)
	}
}
