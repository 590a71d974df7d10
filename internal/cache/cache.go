package cache

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rishirajshrivastava/Lynk-Backend/internal/config"
)

var ErrLockHeld = errors.New("lock is held by another owner")

// Cache is the small key/value surface the service needs: short lived keys
// for throttles and locks.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	// CompareAndDelete removes key only while it still holds value.
	CompareAndDelete(ctx context.Context, key, value string) (bool, error)
	// CompareAndExpire resets the ttl of key only while it still holds value.
	CompareAndExpire(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	Ping(ctx context.Context) error
}

// Message is a received pub/sub message.
type Message struct {
	Channel string
	Payload string
}

// PubSub fans messages out to every subscriber of a channel, across
// instances when backed by Redis.
type PubSub interface {
	Publish(ctx context.Context, channel, message string) error
	Subscribe(ctx context.Context, channels ...string) (<-chan *Message, func(), error)
}

// New returns Redis backed implementations when REDIS_ADDR is set and
// in-process ones otherwise.
func New(cfg *config.Config) (Cache, PubSub, error) {
	if cfg.RedisAddr == "" {
		return NewLocalCache(), NewLocalPubSub(256), nil
	}
	rdb, err := NewRedisClient(cfg)
	if err != nil {
		return nil, nil, err
	}
	return NewRedisCache(rdb), NewRedisPubSub(rdb), nil
}

// Lock is a held lock taken by TryLock.
type Lock struct {
	c     Cache
	key   string
	token string
	ttl   time.Duration
}

// TryLock takes key for ttl.
func TryLock(ctx context.Context, c Cache, key string, ttl time.Duration) (*Lock, error) {
	token := newToken()
	ok, err := c.SetNX(ctx, key, token, ttl)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLockHeld
	}
	return &Lock{c: c, key: key, token: token, ttl: ttl}, nil
}

// Extend pushes the expiry out by another ttl. It returns ErrLockHeld when
// the lock expired and someone else took it.
func (l *Lock) Extend(ctx context.Context) error {
	ok, err := l.c.CompareAndExpire(ctx, l.key, l.token, l.ttl)
	if err != nil {
		return err
	}
	if !ok {
		return ErrLockHeld
	}
	return nil
}

// Unlock releases the lock only if this owner still holds it.
func (l *Lock) Unlock() {
	_, _ = l.c.CompareAndDelete(context.Background(), l.key, l.token)
}

func newToken() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// IsNil reports whether err is the Redis "key does not exist" reply.
func IsNil(err error) bool {
	return errors.Is(err, redis.Nil)
}
