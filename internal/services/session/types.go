package session

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/BoneTheDeveloper/Electronic-Contact-Contact-Book-sub003/internal/domain/enums"
)

var (
	ErrInvalidInput = errors.New("invalid input")

	// ErrNoSession: one of the two request credentials is absent.
	ErrNoSession = errors.New("no session credentials")
	// ErrInvalidCredential: the identity payload is present but malformed.
	ErrInvalidCredential = errors.New("invalid credential")
	// ErrSessionNotFound: the store has no matching active session, the
	// session belongs to someone else, or the store could not be reached.
	ErrSessionNotFound = errors.New("session not found")
)

// Identity is the parsed form of the opaque identity payload a request
// carries next to its session token.
type Identity struct {
	UserID int64
	Role   enums.Role
}

type IdentityParser interface {
	ParseIdentity(raw string) (Identity, error)
}

// TerminationNotice is the ephemeral message published on the owning
// user's channel when a session ends. It is fire-and-forget: clients
// offline at publish time discover termination on their next request.
type TerminationNotice struct {
	Reason    enums.TerminationReason `json:"reason"`
	Timestamp string                  `json:"timestamp"`
}

func NewTerminationNotice(reason enums.TerminationReason, at time.Time) TerminationNotice {
	return TerminationNotice{
		Reason:    reason,
		Timestamp: at.UTC().Format(time.RFC3339),
	}
}

// Unsubscribe tears a subscription down. Safe to call more than once.
type Unsubscribe func() error

// Broker is the capability the terminator and monitor share. Any
// real-time transport can implement it.
type Broker interface {
	Publish(ctx context.Context, topic string, payload []byte) error
	Subscribe(ctx context.Context, topic string, handler func(payload []byte)) (Unsubscribe, error)
}

// UserTopic names the per-user termination channel.
func UserTopic(userID int64) string {
	return "sessions:terminated:" + strconv.FormatInt(userID, 10)
}

// IdleTermination identifies a session the sweeper deactivated.
type IdleTermination struct {
	SessionID string
	UserID    int64
}

// ReasonCode maps a validation failure to the code the caller attaches
// to its login redirect.
func ReasonCode(err error) string {
	switch {
	case errors.Is(err, ErrNoSession):
		return "no_session"
	case errors.Is(err, ErrInvalidCredential):
		return "invalid_credential"
	case errors.Is(err, ErrSessionNotFound):
		return "session_not_found"
	default:
		return "unauthorized"
	}
}
