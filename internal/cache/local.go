package cache

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	value    string
	expireAt time.Time
}

func (e entry) expired(now time.Time) bool {
	return !e.expireAt.IsZero() && now.After(e.expireAt)
}

// LocalCache is an in-process Cache used when Redis is not configured. Keys
// expire lazily on access.
type LocalCache struct {
	mu      sync.Mutex
	entries map[string]entry
}

func NewLocalCache() *LocalCache {
	return &LocalCache{entries: make(map[string]entry)}
}

func (c *LocalCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || e.expired(time.Now()) {
		delete(c.entries, key)
		return "", false, nil
	}
	return e.value, true, nil
}

func (c *LocalCache) SetNX(_ context.Context, key, value string, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	if e, ok := c.entries[key]; ok && !e.expired(now) {
		return false, nil
	}
	e := entry{value: value}
	if ttl > 0 {
		e.expireAt = now.Add(ttl)
	}
	c.entries[key] = e
	return true, nil
}

func (c *LocalCache) CompareAndDelete(_ context.Context, key, value string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || e.value != value {
		return false, nil
	}
	delete(c.entries, key)
	return true, nil
}

func (c *LocalCache) CompareAndExpire(_ context.Context, key, value string, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	e, ok := c.entries[key]
	if !ok || e.expired(now) || e.value != value {
		return false, nil
	}
	e.expireAt = time.Time{}
	if ttl > 0 {
		e.expireAt = now.Add(ttl)
	}
	c.entries[key] = e
	return true, nil
}

func (c *LocalCache) Del(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.entries, k)
	}
	return nil
}

func (c *LocalCache) Ping(context.Context) error {
	return nil
}

type subscriber struct {
	ch       chan *Message
	channels []string
}

// LocalPubSub delivers messages to subscribers in the same process. A full
// subscriber buffer drops the message instead of blocking the publisher.
type LocalPubSub struct {
	mu      sync.RWMutex
	subs    map[string][]*subscriber
	bufSize int
}

func NewLocalPubSub(bufSize int) *LocalPubSub {
	if bufSize <= 0 {
		bufSize = 256
	}
	return &LocalPubSub{subs: make(map[string][]*subscriber), bufSize: bufSize}
}

func (p *LocalPubSub) Publish(_ context.Context, channel, message string) error {
	msg := &Message{Channel: channel, Payload: message}
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, s := range p.subs[channel] {
		select {
		case s.ch <- msg:
		default:
		}
	}
	return nil
}

func (p *LocalPubSub) Subscribe(_ context.Context, channels ...string) (<-chan *Message, func(), error) {
	s := &subscriber{ch: make(chan *Message, p.bufSize), channels: channels}

	p.mu.Lock()
	for _, c := range channels {
		p.subs[c] = append(p.subs[c], s)
	}
	p.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			p.mu.Lock()
			for _, c := range s.channels {
				list := p.subs[c]
				for i, other := range list {
					if other == s {
						p.subs[c] = append(list[:i], list[i+1:]...)
						break
					}
				}
			}
			p.mu.Unlock()
			close(s.ch)
		})
	}
	return s.ch, cancel, nil
}
