// Package monitor gives a logged-in client near-real-time awareness that
// its own session was terminated elsewhere, and forces it out cleanly.
package monitor

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/BoneTheDeveloper/Electronic-Contact-Contact-Book-sub003/internal/domain/enums"
	sessionsvc "github.com/BoneTheDeveloper/Electronic-Contact-Contact-Book-sub003/internal/services/session"
)

const DefaultRedirectDelay = 2 * time.Second

// CredentialStore holds the client's session-identifying state.
type CredentialStore interface {
	Clear()
}

// Navigator moves the client to another view.
type Navigator interface {
	NavigateTo(url string)
}

// Notice is what the monitor surfaces before redirecting.
type Notice struct {
	Reason  enums.TerminationReason
	Message string
}

// Monitor subscribes to the current user's termination channel. At most
// one subscription is live at a time: Start tears the previous one down
// first, and Stop cancels both the subscription and any pending
// redirect. Notices from a torn-down subscription are dropped before any
// processing: the broker delivers on its own goroutine, so a message can
// already be in flight when Stop or a remount runs.
type Monitor struct {
	broker sessionsvc.Broker
	creds  CredentialStore
	nav    Navigator
	delay  time.Duration
	logger *zap.Logger

	onNotice func(Notice)

	mu sync.Mutex
	// gen identifies the current subscription. Start and Stop both bump
	// it, so a handler holding an older value is stale.
	gen         uint64
	unsubscribe sessionsvc.Unsubscribe
	redirect    *time.Timer
}

func New(broker sessionsvc.Broker, creds CredentialStore, nav Navigator, delay time.Duration, logger *zap.Logger) *Monitor {
	if delay <= 0 {
		delay = DefaultRedirectDelay
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Monitor{
		broker: broker,
		creds:  creds,
		nav:    nav,
		delay:  delay,
		logger: logger,
	}
}

// OnNotice registers a hook invoked with the user-facing message before
// the redirect delay starts. Must be set before Start.
func (m *Monitor) OnNotice(fn func(Notice)) {
	m.onNotice = fn
}

// Start subscribes for the given user. Safe to call again on a user
// change: the old subscription is torn down before the new one is
// established, never leaving two live at once.
func (m *Monitor) Start(ctx context.Context, userID int64) error {
	if userID <= 0 {
		return sessionsvc.ErrInvalidInput
	}

	if err := m.Stop(); err != nil {
		m.logger.Warn("tear down previous monitor subscription", zap.Error(err))
	}

	m.mu.Lock()
	m.gen++
	gen := m.gen
	m.mu.Unlock()

	unsubscribe, err := m.broker.Subscribe(ctx, sessionsvc.UserTopic(userID), func(payload []byte) {
		m.handle(gen, payload)
	})
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.unsubscribe = unsubscribe
	m.mu.Unlock()
	return nil
}

// Stop unsubscribes and cancels a pending redirect. Idempotent.
func (m *Monitor) Stop() error {
	m.mu.Lock()
	m.gen++
	unsubscribe := m.unsubscribe
	m.unsubscribe = nil
	if m.redirect != nil {
		m.redirect.Stop()
		m.redirect = nil
	}
	m.mu.Unlock()

	if unsubscribe == nil {
		return nil
	}
	return unsubscribe()
}

func (m *Monitor) handle(gen uint64, payload []byte) {
	if m.stale(gen) {
		// The subscription this notice arrived on was torn down.
		return
	}

	var notice sessionsvc.TerminationNotice
	if err := json.Unmarshal(payload, &notice); err != nil {
		m.logger.Warn("decode termination notice", zap.Error(err))
		notice.Reason = ""
	}

	reason := notice.Reason
	message := MessageForReason(reason)
	if m.onNotice != nil {
		m.onNotice(Notice{Reason: reason, Message: message})
	}

	if m.creds != nil {
		m.creds.Clear()
	}

	target := loginURL(reason)
	m.mu.Lock()
	if gen != m.gen {
		// Torn down while the notice was being processed.
		m.mu.Unlock()
		return
	}
	if m.redirect != nil {
		m.redirect.Stop()
	}
	m.redirect = time.AfterFunc(m.delay, func() {
		m.nav.NavigateTo(target)
	})
	m.mu.Unlock()
}

func (m *Monitor) stale(gen uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return gen != m.gen
}

func loginURL(reason enums.TerminationReason) string {
	if reason == "" {
		return "/login?reason=unknown"
	}
	return "/login?reason=" + string(reason)
}
