package redis

import (
	"context"
	"fmt"
	"sync"

	goredis "github.com/redis/go-redis/v9"

	sessionsvc "github.com/BoneTheDeveloper/Electronic-Contact-Contact-Book-sub003/internal/services/session"
)

// TerminationBroker carries termination notices over Redis Pub/Sub.
// Delivery is fire-and-forget: subscribers connected at publish time get
// the message, nobody else does.
type TerminationBroker struct {
	client *goredis.Client
}

func NewTerminationBroker(client *goredis.Client) *TerminationBroker {
	return &TerminationBroker{client: client}
}

func (b *TerminationBroker) Publish(ctx context.Context, topic string, payload []byte) error {
	if b.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if topic == "" {
		return sessionsvc.ErrInvalidInput
	}

	if err := b.client.Publish(ctx, topic, payload).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

// Subscribe delivers each published payload to handler on a dedicated
// goroutine until the returned Unsubscribe is called. It does not return
// before the subscription is confirmed by the server.
func (b *TerminationBroker) Subscribe(ctx context.Context, topic string, handler func(payload []byte)) (sessionsvc.Unsubscribe, error) {
	if b.client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	if topic == "" || handler == nil {
		return nil, sessionsvc.ErrInvalidInput
	}

	pubsub := b.client.Subscribe(ctx, topic)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe to %s: %w", topic, err)
	}

	messages := pubsub.Channel()
	done := make(chan struct{})
	go func() {
		for {
			select {
			case msg, ok := <-messages:
				if !ok {
					return
				}
				handler([]byte(msg.Payload))
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	unsubscribe := func() error {
		var err error
		once.Do(func() {
			close(done)
			err = pubsub.Close()
		})
		return err
	}
	return unsubscribe, nil
}
