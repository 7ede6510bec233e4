package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
)

// ErrStoreUnavailable is returned when the backing store cannot be reached.
var ErrStoreUnavailable = errors.New("session store unavailable")

// Store is the persisted, string-keyed client store. Each client owns one
// namespace.
type Store interface {
	Get(ctx context.Context, namespace, key string) (string, bool, error)
	Set(ctx context.Context, namespace, key, value string) error
	Delete(ctx context.Context, namespace string, keys ...string) error
}

// Notifier delivers "namespace changed" signals after Set or Delete.
type Notifier interface {
	Subscribe(ctx context.Context, namespace string, fn func()) (cancel func(), err error)
}

// RedisStore keeps client namespaces in Redis under prefix:namespace:key and
// publishes a change message on prefix:changed:namespace for every write.
//
//	Performance: Get is 1 GET; Set and Delete are one write plus one PUBLISH.
type RedisStore struct {
	redis  redis.UniversalClient
	prefix string

	mu     sync.Mutex
	subs   map[string]map[uint64]func()
	nextID uint64
	pubsub *redis.PubSub
	done   chan struct{}
}

// NewRedisStore creates a [RedisStore] with the given key prefix.
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	return &RedisStore{
		redis:  client,
		prefix: prefix,
		subs:   make(map[string]map[uint64]func()),
	}
}

func (s *RedisStore) key(namespace, key string) string {
	return s.prefix + ":" + namespace + ":" + key
}

func (s *RedisStore) channelPrefix() string {
	return s.prefix + ":changed:"
}

// Get returns the value stored under key. A missing key reports ok=false
// with a nil error.
func (s *RedisStore) Get(ctx context.Context, namespace, key string) (string, bool, error) {
	v, err := s.redis.Get(ctx, s.key(namespace, key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return v, true, nil
}

// Set writes value under key and publishes a change message.
func (s *RedisStore) Set(ctx context.Context, namespace, key, value string) error {
	if err := s.redis.Set(ctx, s.key(namespace, key), value, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return s.publish(ctx, namespace)
}

// Delete removes keys from namespace. Deleting missing keys is a no-op and
// publishes nothing.
func (s *RedisStore) Delete(ctx context.Context, namespace string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, 0, len(keys))
	for _, k := range keys {
		full = append(full, s.key(namespace, k))
	}

	n, err := s.redis.Del(ctx, full...).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if n == 0 {
		return nil
	}
	return s.publish(ctx, namespace)
}

func (s *RedisStore) publish(ctx context.Context, namespace string) error {
	if err := s.redis.Publish(ctx, s.channelPrefix()+namespace, "changed").Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Subscribe registers fn for change messages on namespace. The first call
// opens a single pattern subscription shared by all namespaces and waits for
// Redis to confirm it.
func (s *RedisStore) Subscribe(ctx context.Context, namespace string, fn func()) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pubsub == nil {
		ps := s.redis.PSubscribe(ctx, s.channelPrefix()+"*")
		if _, err := ps.Receive(ctx); err != nil {
			_ = ps.Close()
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		s.pubsub = ps
		s.done = make(chan struct{})
		go s.dispatch(ps, s.done)
	}

	s.nextID++
	id := s.nextID
	if s.subs[namespace] == nil {
		s.subs[namespace] = make(map[uint64]func())
	}
	s.subs[namespace][id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs[namespace], id)
		if len(s.subs[namespace]) == 0 {
			delete(s.subs, namespace)
		}
	}, nil
}

func (s *RedisStore) dispatch(ps *redis.PubSub, done chan struct{}) {
	defer close(done)

	for msg := range ps.Channel() {
		namespace := strings.TrimPrefix(msg.Channel, s.channelPrefix())

		s.mu.Lock()
		fns := make([]func(), 0, len(s.subs[namespace]))
		for _, fn := range s.subs[namespace] {
			fns = append(fns, fn)
		}
		s.mu.Unlock()

		for _, fn := range fns {
			fn()
		}
	}
}

// Close stops the change subscription, if any. The Redis client is owned by
// the caller and stays open.
func (s *RedisStore) Close() error {
	s.mu.Lock()
	ps, done := s.pubsub, s.done
	s.pubsub, s.done = nil, nil
	s.mu.Unlock()

	if ps == nil {
		return nil
	}
	err := ps.Close()
	<-done
	return err
}
