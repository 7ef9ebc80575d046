package websocket

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"vibely/pkg/logger"

	"github.com/go-redis/redis/v8"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Envelope is a room frame in transit between server instances.
type Envelope struct {
	RoomID string `json:"room"`
	Origin string `json:"origin"`
	Frame  []byte `json:"frame"`
}

// Broker fans room frames out to every subscribed server instance,
// including the publishing one.
type Broker interface {
	Publish(ctx context.Context, env Envelope) error
	Subscribe(ctx context.Context, handler func(Envelope)) error
	Close() error
}

// LocalBroker delivers in process; it serves single-instance deployments.
type LocalBroker struct {
	mu       sync.RWMutex
	handlers []func(Envelope)
}

func NewLocalBroker() *LocalBroker {
	return &LocalBroker{}
}

func (b *LocalBroker) Publish(_ context.Context, env Envelope) error {
	b.mu.RLock()
	handlers := b.handlers
	b.mu.RUnlock()
	for _, h := range handlers {
		h(env)
	}
	return nil
}

func (b *LocalBroker) Subscribe(_ context.Context, handler func(Envelope)) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, handler)
	return nil
}

func (b *LocalBroker) Close() error {
	return nil
}

const redisChannelPrefix = "vibely:room:"

// RedisBroker shares room traffic between server instances over Redis pub/sub.
type RedisBroker struct {
	client *redis.Client
	pubsub *redis.PubSub
	wg     sync.WaitGroup
}

// NewRedisBroker connects to the Redis server at url (redis://host:port/db).
func NewRedisBroker(ctx context.Context, url string) (*RedisBroker, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisBroker{client: client}, nil
}

func (b *RedisBroker) Publish(ctx context.Context, env Envelope) error {
	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	if err := b.client.Publish(ctx, redisChannelPrefix+env.RoomID, payload).Err(); err != nil {
		return fmt.Errorf("publish to redis: %w", err)
	}
	return nil
}

// Subscribe listens on every room channel and calls handler for each envelope
// until Close.
func (b *RedisBroker) Subscribe(ctx context.Context, handler func(Envelope)) error {
	pubsub := b.client.PSubscribe(ctx, redisChannelPrefix+"*")
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return fmt.Errorf("subscribe to redis: %w", err)
	}
	b.pubsub = pubsub

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for msg := range pubsub.Channel() {
			var env Envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				logger.Error("Dropping malformed broker message on %s: %v", msg.Channel, err)
				continue
			}
			if env.RoomID == "" {
				env.RoomID = strings.TrimPrefix(msg.Channel, redisChannelPrefix)
			}
			handler(env)
		}
	}()
	return nil
}

func (b *RedisBroker) Close() error {
	if b.pubsub != nil {
		b.pubsub.Close()
	}
	b.wg.Wait()
	return b.client.Close()
}
