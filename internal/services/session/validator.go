package session

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/BoneTheDeveloper/Electronic-Contact-Contact-Book-sub003/internal/domain/model"
)

const DefaultRefreshWindow = 5 * time.Minute

// ValidatorStore is the slice of the session store the validator needs.
type ValidatorStore interface {
	GetActive(ctx context.Context, token string, userID int64) (model.Session, error)
	Touch(ctx context.Context, sessionID string, at time.Time) error
}

// Verdict is what a valid request gets back.
type Verdict struct {
	Session  model.Session
	Identity Identity
}

// Validator decides whether a request's claimed session is still valid
// and keeps the liveness timestamp fresh without excessive write load.
// All of its failures mean "treat as unauthenticated", never a fault of
// the calling process.
type Validator struct {
	store         ValidatorStore
	identities    IdentityParser
	liveness      *LivenessCache
	refreshWindow time.Duration
	now           func() time.Time
	logger        *zap.Logger
}

func NewValidator(store ValidatorStore, identities IdentityParser, liveness *LivenessCache, refreshWindow time.Duration, logger *zap.Logger) *Validator {
	if liveness == nil {
		liveness = NewLivenessCache(0)
	}
	if refreshWindow <= 0 {
		refreshWindow = DefaultRefreshWindow
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Validator{
		store:         store,
		identities:    identities,
		liveness:      liveness,
		refreshWindow: refreshWindow,
		now:           time.Now,
		logger:        logger,
	}
}

// Validate checks the two request credentials: the opaque session token
// and the signed identity payload. Store-access failures are treated the
// same as "not found" (fail closed).
func (v *Validator) Validate(ctx context.Context, sessionToken, identityPayload string) (Verdict, error) {
	if sessionToken == "" || identityPayload == "" {
		return Verdict{}, ErrNoSession
	}

	identity, err := v.identities.ParseIdentity(identityPayload)
	if err != nil {
		return Verdict{}, ErrInvalidCredential
	}

	record, err := v.store.GetActive(ctx, sessionToken, identity.UserID)
	if err != nil {
		if !errors.Is(err, ErrSessionNotFound) {
			v.logger.Warn("session store lookup failed, failing closed", zap.Error(err))
		}
		return Verdict{}, ErrSessionNotFound
	}

	now := v.now()
	if v.liveness.ShouldRefresh(sessionToken, now, v.refreshWindow) {
		if err := v.store.Touch(ctx, record.ID, now); err != nil {
			// At-least-once refresh: a missed cycle is acceptable.
			v.logger.Warn("liveness refresh failed",
				zap.Error(err),
				zap.String("session_id", record.ID),
			)
		}
	}

	return Verdict{Session: record, Identity: identity}, nil
}
