package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MKhiriev/profile-sync/internal/logger"
	"github.com/MKhiriev/profile-sync/models"
)

const maxResubscribeDelay = 30 * time.Second

// RedisNotifier broadcasts peer events over a Redis pub/sub channel shared
// by every instance. Messages of other users and the instance's own
// messages are dropped on receipt.
type RedisNotifier struct {
	client     *redis.Client
	channel    string
	instanceID string
	userID     string

	handlers handlers
	logger   *logger.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	closed bool
	done   chan struct{}
}

func NewRedisNotifier(client *redis.Client, channel, instanceID, userID string, log *logger.Logger) *RedisNotifier {
	return &RedisNotifier{
		client:     client,
		channel:    channel,
		instanceID: instanceID,
		userID:     userID,
		logger:     log.Component("notifier"),
		done:       make(chan struct{}),
	}
}

// Run starts the subscription loop. It returns immediately; the loop
// resubscribes with backoff until ctx is cancelled or Close is called.
func (n *RedisNotifier) Run(ctx context.Context) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed || n.cancel != nil {
		return
	}

	ctx, n.cancel = context.WithCancel(ctx)
	go n.run(ctx)
}

func (n *RedisNotifier) run(ctx context.Context) {
	defer close(n.done)

	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return
		}

		pubsub := n.client.Subscribe(ctx, n.channel)
		if err := n.consume(ctx, pubsub); err != nil && !errors.Is(err, context.Canceled) {
			n.logger.Warn().Err(err).Str("func", "*RedisNotifier.run").
				Dur("backoff", backoff).Msg("redis subscription interrupted; retrying")
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
			backoff = min(backoff*2, maxResubscribeDelay)
		}
	}
}

func (n *RedisNotifier) consume(ctx context.Context, pubsub *redis.PubSub) error {
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return errors.New("pubsub channel closed")
			}
			if err := n.process(ctx, []byte(msg.Payload)); err != nil {
				n.logger.Warn().Err(err).Str("func", "*RedisNotifier.consume").Msg("failed to process peer message")
			}
		}
	}
}

func (n *RedisNotifier) process(ctx context.Context, payload []byte) error {
	var msg models.PeerMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	if msg.Event == "" || msg.InstanceID == "" {
		return errors.New("incomplete payload")
	}
	if msg.InstanceID == n.instanceID || msg.UserID != n.userID {
		return nil
	}

	n.handlers.dispatch(ctx, msg)
	return nil
}

// Notify publishes event once. Failures are returned, not retried: peers
// fall back to their periodic refresh.
func (n *RedisNotifier) Notify(ctx context.Context, event models.PeerEvent) error {
	encoded, err := n.encode(event)
	if err != nil {
		return err
	}
	if err = n.client.Publish(ctx, n.channel, encoded).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

func (n *RedisNotifier) encode(event models.PeerEvent) ([]byte, error) {
	encoded, err := json.Marshal(models.PeerMessage{
		InstanceID: n.instanceID,
		UserID:     n.userID,
		Event:      event,
		SentAt:     time.Now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("encode peer message: %w", err)
	}
	return encoded, nil
}

func (n *RedisNotifier) OnNotify(h Handler) func() {
	return n.handlers.add(h)
}

// Close stops the subscription loop and waits for it to exit. The Redis
// client is owned by the caller.
func (n *RedisNotifier) Close() error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil
	}
	n.closed = true
	cancel := n.cancel
	n.mu.Unlock()

	if cancel == nil {
		close(n.done)
		return nil
	}
	cancel()
	<-n.done
	return nil
}
