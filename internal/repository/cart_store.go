package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"foodie/internal/model"

	"github.com/redis/go-redis/v9"
)

// CartStore keeps one cart per session. Update runs fn as a serialised
// read-modify-write for that session; Get never returns nil.
type CartStore interface {
	Get(ctx context.Context, sessionID string) (*model.Cart, error)
	Put(ctx context.Context, cart *model.Cart) error
	Update(ctx context.Context, sessionID string, fn func(*model.Cart) error) (*model.Cart, error)
	Delete(ctx context.Context, sessionID string) error
}

// ErrCartContention is returned when a Redis optimistic update keeps losing
// against concurrent writers of the same session.
var ErrCartContention = errors.New("cart is being modified concurrently, retry")

const (
	cartKeyPrefix     = "cart:"
	cartUpdateRetries = 5
)

// ── Redis ────────────────────────────────────────────────────────────────────

type redisCartStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisCartStore stores carts as JSON under cart:<session> with a sliding
// TTL refreshed on every write.
func NewRedisCartStore(rdb *redis.Client, ttl time.Duration) CartStore {
	return &redisCartStore{rdb: rdb, ttl: ttl}
}

func cartKey(sessionID string) string { return cartKeyPrefix + sessionID }

func decodeCart(sessionID string, raw []byte) (*model.Cart, error) {
	cart := model.NewCart(sessionID)
	if len(raw) == 0 {
		return cart, nil
	}
	if err := json.Unmarshal(raw, cart); err != nil {
		return nil, fmt.Errorf("decode cart %s: %w", sessionID, err)
	}
	if cart.Lines == nil {
		cart.Lines = []model.CartItem{}
	}
	return cart, nil
}

func (s *redisCartStore) Get(ctx context.Context, sessionID string) (*model.Cart, error) {
	raw, err := s.rdb.Get(ctx, cartKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.NewCart(sessionID), nil
	}
	if err != nil {
		return nil, err
	}
	return decodeCart(sessionID, raw)
}

func (s *redisCartStore) Put(ctx context.Context, cart *model.Cart) error {
	cart.UpdatedAt = time.Now()
	data, err := json.Marshal(cart)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, cartKey(cart.SessionID), data, s.ttl).Err()
}

func (s *redisCartStore) Update(ctx context.Context, sessionID string, fn func(*model.Cart) error) (*model.Cart, error) {
	key := cartKey(sessionID)
	var result *model.Cart

	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		cart, err := decodeCart(sessionID, raw)
		if err != nil {
			return err
		}
		if err := fn(cart); err != nil {
			return err
		}
		cart.UpdatedAt = time.Now()
		data, err := json.Marshal(cart)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, s.ttl)
			return nil
		})
		if err == nil {
			result = cart
		}
		return err
	}

	for i := 0; i < cartUpdateRetries; i++ {
		err := s.rdb.Watch(ctx, txf, key)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return nil, err
	}
	return nil, ErrCartContention
}

func (s *redisCartStore) Delete(ctx context.Context, sessionID string) error {
	return s.rdb.Del(ctx, cartKey(sessionID)).Err()
}

// ── In-memory ────────────────────────────────────────────────────────────────

// memorySweepEvery is how many store calls pass between sweeps of expired
// sessions.
const memorySweepEvery = 256

// memoryCartEntry is guarded by mu; refs is guarded by the store mutex and
// counts callers that hold the entry outside that mutex.
type memoryCartEntry struct {
	mu      sync.Mutex
	cart    *model.Cart
	expires time.Time
	refs    int
}

type memoryCartStore struct {
	mu       sync.Mutex
	sessions map[string]*memoryCartEntry
	calls    int
	ttl      time.Duration
	now      func() time.Time
}

// NewMemoryCartStore keeps carts in process memory. Expired and deleted
// sessions are unlinked by a sweep that runs every memorySweepEvery calls.
// ttl <= 0 disables expiry.
func NewMemoryCartStore(ttl time.Duration) CartStore {
	return &memoryCartStore{
		sessions: make(map[string]*memoryCartEntry),
		ttl:      ttl,
		now:      time.Now,
	}
}

// acquire returns the entry for sessionID pinned against the sweep. Every
// acquire must be paired with a release.
func (s *memoryCartStore) acquire(sessionID string) *memoryCartEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.calls%memorySweepEvery == 0 {
		s.sweepLocked()
	}
	e, ok := s.sessions[sessionID]
	if !ok {
		e = &memoryCartEntry{}
		s.sessions[sessionID] = e
	}
	e.refs++
	return e
}

func (s *memoryCartStore) release(e *memoryCartEntry) {
	s.mu.Lock()
	e.refs--
	s.mu.Unlock()
}

func (s *memoryCartStore) expired(e *memoryCartEntry) bool {
	return s.ttl > 0 && s.now().After(e.expires)
}

// sweep drops every session whose cart is gone or expired.
func (s *memoryCartStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
}

// sweepLocked must be called with s.mu held. An entry with no refs cannot be
// reached by any other goroutine, so its fields are read without e.mu.
func (s *memoryCartStore) sweepLocked() {
	for id, e := range s.sessions {
		if e.refs > 0 {
			continue
		}
		if e.cart == nil || s.expired(e) {
			delete(s.sessions, id)
		}
	}
}

// live returns the stored cart or nil when there is none. Must be called
// with e.mu held.
func (s *memoryCartStore) live(e *memoryCartEntry) *model.Cart {
	if e.cart == nil || s.expired(e) {
		e.cart = nil
	}
	return e.cart
}

func (s *memoryCartStore) touch(e *memoryCartEntry) {
	e.expires = s.now().Add(s.ttl)
}

func cloneCart(c *model.Cart) *model.Cart {
	out := *c
	out.Lines = c.Items()
	return &out
}

// Get does not materialise a cart for an unknown session, so reads alone
// leave nothing behind for the sweep to keep.
func (s *memoryCartStore) Get(_ context.Context, sessionID string) (*model.Cart, error) {
	e := s.acquire(sessionID)
	defer s.release(e)
	e.mu.Lock()
	defer e.mu.Unlock()
	cart := s.live(e)
	if cart == nil {
		return model.NewCart(sessionID), nil
	}
	return cloneCart(cart), nil
}

func (s *memoryCartStore) Put(_ context.Context, cart *model.Cart) error {
	e := s.acquire(cart.SessionID)
	defer s.release(e)
	e.mu.Lock()
	defer e.mu.Unlock()
	cart.UpdatedAt = s.now()
	e.cart = cloneCart(cart)
	s.touch(e)
	return nil
}

func (s *memoryCartStore) Update(_ context.Context, sessionID string, fn func(*model.Cart) error) (*model.Cart, error) {
	e := s.acquire(sessionID)
	defer s.release(e)
	e.mu.Lock()
	defer e.mu.Unlock()

	working := model.NewCart(sessionID)
	if cart := s.live(e); cart != nil {
		working = cloneCart(cart)
	}
	if err := fn(working); err != nil {
		return nil, err
	}
	working.UpdatedAt = s.now()
	e.cart = working
	s.touch(e)
	return cloneCart(working), nil
}

// Delete resets the entry and leaves unlinking to the sweep, so an Update
// racing with it cannot write into an orphaned entry.
func (s *memoryCartStore) Delete(_ context.Context, sessionID string) error {
	e := s.acquire(sessionID)
	defer s.release(e)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cart = nil
	return nil
}
