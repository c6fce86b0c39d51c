package monitor

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/BoneTheDeveloper/Electronic-Contact-Contact-Book-sub003/internal/domain/enums"
	redrepo "github.com/BoneTheDeveloper/Electronic-Contact-Contact-Book-sub003/internal/repo/redis"
	sessionsvc "github.com/BoneTheDeveloper/Electronic-Contact-Contact-Book-sub003/internal/services/session"
)

type memoryBroker struct {
	mu       sync.Mutex
	handlers map[string]map[int]func([]byte)
	// latest keeps the most recently registered handler per topic even
	// after unsubscribe, to replay a delivery that was already in flight
	// when the subscription went down.
	latest map[string]func([]byte)
	nextID int
}

func newMemoryBroker() *memoryBroker {
	return &memoryBroker{
		handlers: make(map[string]map[int]func([]byte)),
		latest:   make(map[string]func([]byte)),
	}
}

func (b *memoryBroker) Publish(_ context.Context, topic string, payload []byte) error {
	b.mu.Lock()
	var fns []func([]byte)
	for _, fn := range b.handlers[topic] {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(payload)
	}
	return nil
}

func (b *memoryBroker) Subscribe(_ context.Context, topic string, handler func([]byte)) (sessionsvc.Unsubscribe, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.handlers[topic] == nil {
		b.handlers[topic] = make(map[int]func([]byte))
	}
	id := b.nextID
	b.nextID++
	b.handlers[topic][id] = handler
	b.latest[topic] = handler

	var once sync.Once
	return func() error {
		once.Do(func() {
			b.mu.Lock()
			delete(b.handlers[topic], id)
			b.mu.Unlock()
		})
		return nil
	}, nil
}

func (b *memoryBroker) activeSubscriptions(topic string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.handlers[topic])
}

func (b *memoryBroker) latestHandler(topic string) func([]byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.latest[topic]
}

type fakeCreds struct {
	mu      sync.Mutex
	cleared int
}

func (f *fakeCreds) Clear() {
	f.mu.Lock()
	f.cleared++
	f.mu.Unlock()
}

func (f *fakeCreds) clearedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cleared
}

type fakeNavigator struct {
	mu   sync.Mutex
	urls []string
	seen chan string
}

func newFakeNavigator() *fakeNavigator {
	return &fakeNavigator{seen: make(chan string, 4)}
}

func (f *fakeNavigator) NavigateTo(url string) {
	f.mu.Lock()
	f.urls = append(f.urls, url)
	f.mu.Unlock()
	f.seen <- url
}

func publishNotice(t *testing.T, broker *memoryBroker, userID int64, reason enums.TerminationReason) {
	t.Helper()
	payload, err := json.Marshal(sessionsvc.NewTerminationNotice(reason, time.Now()))
	if err != nil {
		t.Fatalf("encode notice: %v", err)
	}
	if err := broker.Publish(context.Background(), sessionsvc.UserTopic(userID), payload); err != nil {
		t.Fatalf("publish notice: %v", err)
	}
}

func TestMonitorReactsToTermination(t *testing.T) {
	broker := newMemoryBroker()
	creds := &fakeCreds{}
	nav := newFakeNavigator()
	m := New(broker, creds, nav, 5*time.Millisecond, nil)

	var notices []Notice
	m.OnNotice(func(n Notice) { notices = append(notices, n) })

	if err := m.Start(context.Background(), 42); err != nil {
		t.Fatalf("start monitor: %v", err)
	}
	defer func() { _ = m.Stop() }()

	publishNotice(t, broker, 42, enums.TerminationManual)

	select {
	case url := <-nav.seen:
		if url != "/login?reason=manual" {
			t.Fatalf("unexpected redirect: %s", url)
		}
	case <-time.After(time.Second):
		t.Fatalf("monitor never navigated")
	}

	if creds.clearedCount() != 1 {
		t.Fatalf("credentials must be cleared once, got %d", creds.clearedCount())
	}
	if len(notices) != 1 || notices[0].Message != MessageForReason(enums.TerminationManual) {
		t.Fatalf("unexpected notices: %+v", notices)
	}
}

func TestMonitorUnknownReasonFallsBack(t *testing.T) {
	broker := newMemoryBroker()
	nav := newFakeNavigator()
	m := New(broker, &fakeCreds{}, nav, 5*time.Millisecond, nil)

	var got Notice
	m.OnNotice(func(n Notice) { got = n })

	if err := m.Start(context.Background(), 7); err != nil {
		t.Fatalf("start monitor: %v", err)
	}
	defer func() { _ = m.Stop() }()

	publishNotice(t, broker, 7, enums.TerminationReason("revoked_by_aliens"))

	select {
	case <-nav.seen:
	case <-time.After(time.Second):
		t.Fatalf("monitor never navigated")
	}

	if got.Message != fallbackMessage {
		t.Fatalf("unknown reason must map to the generic message, got %q", got.Message)
	}
}

func TestMonitorRemountKeepsSingleSubscription(t *testing.T) {
	broker := newMemoryBroker()
	creds := &fakeCreds{}
	nav := newFakeNavigator()
	m := New(broker, creds, nav, 5*time.Millisecond, nil)

	topic := sessionsvc.UserTopic(42)
	for i := 0; i < 3; i++ {
		if err := m.Start(context.Background(), 42); err != nil {
			t.Fatalf("start monitor (round %d): %v", i, err)
		}
		if got := broker.activeSubscriptions(topic); got != 1 {
			t.Fatalf("expected exactly 1 live subscription, got %d", got)
		}
	}

	publishNotice(t, broker, 42, enums.TerminationNewLogin)

	select {
	case <-nav.seen:
	case <-time.After(time.Second):
		t.Fatalf("monitor never navigated")
	}

	// A single event must be delivered exactly once.
	if creds.clearedCount() != 1 {
		t.Fatalf("duplicate delivery detected: cleared %d times", creds.clearedCount())
	}

	if err := m.Stop(); err != nil {
		t.Fatalf("stop monitor: %v", err)
	}
	if got := broker.activeSubscriptions(topic); got != 0 {
		t.Fatalf("expected no live subscription after stop, got %d", got)
	}
}

func TestMonitorStopCancelsPendingRedirect(t *testing.T) {
	broker := newMemoryBroker()
	nav := newFakeNavigator()
	m := New(broker, &fakeCreds{}, nav, 50*time.Millisecond, nil)

	if err := m.Start(context.Background(), 42); err != nil {
		t.Fatalf("start monitor: %v", err)
	}

	publishNotice(t, broker, 42, enums.TerminationTimeout)
	if err := m.Stop(); err != nil {
		t.Fatalf("stop monitor: %v", err)
	}

	select {
	case url := <-nav.seen:
		t.Fatalf("navigation after stop: %s", url)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestMonitorDropsNoticeInFlightDuringStop(t *testing.T) {
	broker := newMemoryBroker()
	creds := &fakeCreds{}
	nav := newFakeNavigator()
	m := New(broker, creds, nav, 5*time.Millisecond, nil)

	var notices int
	m.OnNotice(func(Notice) { notices++ })

	if err := m.Start(context.Background(), 42); err != nil {
		t.Fatalf("start monitor: %v", err)
	}
	handler := broker.latestHandler(sessionsvc.UserTopic(42))
	if err := m.Stop(); err != nil {
		t.Fatalf("stop monitor: %v", err)
	}

	// The broker goroutine had already dequeued this message when the
	// subscription went down.
	payload, err := json.Marshal(sessionsvc.NewTerminationNotice(enums.TerminationManual, time.Now()))
	if err != nil {
		t.Fatalf("encode notice: %v", err)
	}
	handler(payload)

	if notices != 0 {
		t.Fatalf("notice processed against a torn-down subscription")
	}
	if creds.clearedCount() != 0 {
		t.Fatalf("credentials cleared after stop")
	}
	select {
	case url := <-nav.seen:
		t.Fatalf("navigation after stop: %s", url)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMonitorDropsStaleNoticeAfterRemount(t *testing.T) {
	broker := newMemoryBroker()
	creds := &fakeCreds{}
	nav := newFakeNavigator()
	m := New(broker, creds, nav, 5*time.Millisecond, nil)

	if err := m.Start(context.Background(), 1); err != nil {
		t.Fatalf("start monitor: %v", err)
	}
	oldHandler := broker.latestHandler(sessionsvc.UserTopic(1))
	if err := m.Start(context.Background(), 2); err != nil {
		t.Fatalf("restart monitor for new user: %v", err)
	}
	defer func() { _ = m.Stop() }()

	// A notice for the old user delivered late must not be processed
	// against the new user's subscription.
	payload, err := json.Marshal(sessionsvc.NewTerminationNotice(enums.TerminationAdmin, time.Now()))
	if err != nil {
		t.Fatalf("encode notice: %v", err)
	}
	oldHandler(payload)

	if creds.clearedCount() != 0 {
		t.Fatalf("stale notice cleared the new user's credentials")
	}
	select {
	case url := <-nav.seen:
		t.Fatalf("stale notice navigated: %s", url)
	case <-time.After(50 * time.Millisecond):
	}

	// The current subscription still works.
	publishNotice(t, broker, 2, enums.TerminationManual)
	select {
	case <-nav.seen:
	case <-time.After(time.Second):
		t.Fatalf("monitor never navigated for the current user")
	}
}

func TestMonitorUserChangeSwitchesChannel(t *testing.T) {
	broker := newMemoryBroker()
	creds := &fakeCreds{}
	nav := newFakeNavigator()
	m := New(broker, creds, nav, 5*time.Millisecond, nil)

	if err := m.Start(context.Background(), 1); err != nil {
		t.Fatalf("start monitor: %v", err)
	}
	if err := m.Start(context.Background(), 2); err != nil {
		t.Fatalf("restart monitor for new user: %v", err)
	}
	defer func() { _ = m.Stop() }()

	if got := broker.activeSubscriptions(sessionsvc.UserTopic(1)); got != 0 {
		t.Fatalf("old user subscription leaked: %d", got)
	}

	// A notice for the old user must not reach the monitor.
	publishNotice(t, broker, 1, enums.TerminationManual)
	publishNotice(t, broker, 2, enums.TerminationManual)

	select {
	case <-nav.seen:
	case <-time.After(time.Second):
		t.Fatalf("monitor never navigated for the new user")
	}
	if creds.clearedCount() != 1 {
		t.Fatalf("expected exactly one reaction, got %d", creds.clearedCount())
	}
}

type singleOwnerStore struct {
	sessionID string
	userID    int64
}

func (s *singleOwnerStore) Terminate(_ context.Context, sessionID string, userID int64, _ enums.TerminationReason, _ time.Time) error {
	if sessionID != s.sessionID || userID != s.userID {
		return sessionsvc.ErrSessionNotFound
	}
	return nil
}

func (s *singleOwnerStore) TerminateOthers(context.Context, int64, string, enums.TerminationReason, time.Time) ([]string, error) {
	return nil, nil
}

// Full path: admin kicks a session through the terminator, the notice
// travels over redis, the monitor clears credentials and redirects.
func TestMonitorReceivesTerminatorNoticeOverRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	broker := redrepo.NewTerminationBroker(client)
	terminator := sessionsvc.NewTerminator(&singleOwnerStore{sessionID: "sess-1", userID: 42}, broker, nil)

	creds := &fakeCreds{}
	nav := newFakeNavigator()
	m := New(broker, creds, nav, 5*time.Millisecond, nil)

	if err := m.Start(context.Background(), 42); err != nil {
		t.Fatalf("start monitor: %v", err)
	}
	defer func() { _ = m.Stop() }()

	if err := terminator.Terminate(context.Background(), "sess-1", 42, enums.TerminationAdmin); err != nil {
		t.Fatalf("terminate session: %v", err)
	}

	select {
	case url := <-nav.seen:
		if url != "/login?reason=admin" {
			t.Fatalf("unexpected redirect: %s", url)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("notice never reached the monitor")
	}
	if creds.clearedCount() != 1 {
		t.Fatalf("credentials must be cleared once, got %d", creds.clearedCount())
	}
}

func TestMessageTableCoversAllReasons(t *testing.T) {
	reasons := []enums.TerminationReason{
		enums.TerminationNewLogin,
		enums.TerminationTimeout,
		enums.TerminationManual,
		enums.TerminationAdmin,
	}
	seen := make(map[string]struct{}, len(reasons))
	for _, reason := range reasons {
		msg := MessageForReason(reason)
		if msg == fallbackMessage {
			t.Fatalf("known reason %q mapped to the fallback message", reason)
		}
		seen[msg] = struct{}{}
	}
	if len(seen) != len(reasons) {
		t.Fatalf("termination messages are not distinct")
	}
}
