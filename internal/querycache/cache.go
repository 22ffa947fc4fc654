// Package querycache is an in-process key/value cache for remote query
// results. Entries are addressed by structured keys, carry their own
// staleness window and can be invalidated (marked stale) or removed by key
// prefix. It plays the role a query-cache library plays in a browser client.
package querycache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

var (
	// ErrDisabled is returned by Fetch when the query is disabled. No
	// fetcher runs and nothing is stored.
	ErrDisabled = errors.New("querycache: query disabled")
	// ErrUnknownKey is returned by Refetch for a key that was never fetched.
	ErrUnknownKey = errors.New("querycache: unknown key")
)

// DefaultSize bounds the number of entries when New is given a size <= 0.
const DefaultSize = 512

// Status is the observable state of a single key.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusError
	StatusDisabled
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	case StatusDisabled:
		return "disabled"
	default:
		return "idle"
	}
}

// Fetcher loads the payload for a key from the remote source.
type Fetcher func(ctx context.Context) (any, error)

// Options control a single Fetch.
type Options struct {
	// StaleTime is how long a stored payload may be served without
	// revalidation. Zero means every read goes to the fetcher.
	StaleTime time.Duration
	// Disabled makes Fetch return ErrDisabled without side effects.
	Disabled bool
}

type entry struct {
	key         Key
	data        any
	hasData     bool
	err         error
	fetchedAt   time.Time
	staleTime   time.Duration
	invalidated bool
	seq         uint64
	fetcher     Fetcher
}

type pending struct {
	key         Key
	seq         uint64
	invalidated bool
	removed     bool
}

// Cache is safe for concurrent use. Entries under a pinned prefix live
// outside the LRU and are only dropped by Remove.
type Cache struct {
	mu      sync.Mutex
	entries *lru.Cache[string, *entry]
	pinned  map[string]*entry
	pins    []Key
	pending map[string][]*pending
	group   singleflight.Group
	seq     uint64
	now     func() time.Time
	log     zerolog.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithLogger attaches a logger for invalidation and eviction events.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Cache) { c.log = log }
}

// WithPinned exempts entries under each prefix from LRU eviction.
func WithPinned(prefixes ...Key) Option {
	return func(c *Cache) { c.pins = append(c.pins, prefixes...) }
}

// New creates a cache holding at most size entries, evicting the least
// recently used one when full.
func New(size int, opts ...Option) (*Cache, error) {
	if size <= 0 {
		size = DefaultSize
	}
	entries, err := lru.New[string, *entry](size)
	if err != nil {
		return nil, fmt.Errorf("querycache: create lru: %w", err)
	}
	c := &Cache{
		entries: entries,
		pinned:  make(map[string]*entry),
		pending: make(map[string][]*pending),
		now:     time.Now,
		log:     zerolog.Nop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Fetch returns the payload stored under key when it is still fresh, and
// otherwise runs fetch and stores its result. Concurrent fetches of the
// same key share one call to fetch.
func (c *Cache) Fetch(ctx context.Context, key Key, fetch Fetcher, opts Options) (any, error) {
	if opts.Disabled {
		return nil, ErrDisabled
	}
	enc := key.encode()

	c.mu.Lock()
	if e, ok := c.lookupLocked(enc, true); ok && c.freshLocked(e) {
		data := e.data
		c.mu.Unlock()
		return data, nil
	}
	c.mu.Unlock()

	return c.load(ctx, key, enc, fetch, opts.StaleTime)
}

func (c *Cache) freshLocked(e *entry) bool {
	if !e.hasData || e.invalidated || e.err != nil || e.staleTime <= 0 {
		return false
	}
	return c.now().Sub(e.fetchedAt) < e.staleTime
}

func (c *Cache) load(ctx context.Context, key Key, enc string, fetch Fetcher, staleTime time.Duration) (any, error) {
	v, err, _ := c.group.Do(enc, func() (any, error) {
		c.mu.Lock()
		c.seq++
		p := &pending{key: key, seq: c.seq}
		c.pending[enc] = append(c.pending[enc], p)
		c.mu.Unlock()

		data, err := fetch(ctx)

		c.mu.Lock()
		defer c.mu.Unlock()
		c.donePendingLocked(enc, p)
		if p.removed {
			// The key was evicted while the fetch was in flight; the result
			// belongs to a scope that no longer exists.
			return data, err
		}

		e, ok := c.lookupLocked(enc, false)
		if !ok {
			e = &entry{key: key}
		} else if e.seq > p.seq {
			// A newer load already landed.
			return data, err
		}
		e.fetcher = fetch
		e.staleTime = staleTime
		e.seq = p.seq
		if err != nil {
			e.err = err
			e.invalidated = true
			c.storeLocked(enc, e)
			return nil, err
		}
		e.data = data
		e.hasData = true
		e.err = nil
		e.fetchedAt = c.now()
		e.invalidated = p.invalidated
		c.storeLocked(enc, e)
		return data, nil
	})
	return v, err
}

// Peek returns the last payload stored under key, fresh or stale, without
// fetching.
func (c *Cache) Peek(key Key) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.lookupLocked(key.encode(), false)
	if !ok || !e.hasData {
		return nil, false
	}
	return e.data, true
}

// IsStale reports whether a read of key would go to the fetcher. Unknown
// keys are stale.
func (c *Cache) IsStale(key Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.lookupLocked(key.encode(), false)
	return !ok || !c.freshLocked(e)
}

// State reports the observable status of key.
func (c *Cache) State(key Key) Status {
	enc := key.encode()
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.pending[enc]) > 0 {
		return StatusLoading
	}
	e, ok := c.lookupLocked(enc, false)
	switch {
	case !ok:
		return StatusIdle
	case e.err != nil:
		return StatusError
	case e.hasData:
		return StatusSuccess
	default:
		return StatusIdle
	}
}

// Invalidate marks every entry under prefix stale so the next read
// refetches. It returns the number of entries matched.
func (c *Cache) Invalidate(prefix Key) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.invalidateLocked(prefix)
}

// Remove drops every entry under prefix. It returns the number removed.
func (c *Cache) Remove(prefix Key) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.removeLocked(prefix)
}

// Refetch runs the fetcher last used for key, ignoring staleness.
func (c *Cache) Refetch(ctx context.Context, key Key) (any, error) {
	enc := key.encode()
	c.mu.Lock()
	e, ok := c.lookupLocked(enc, false)
	if !ok || e.fetcher == nil {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	fetch, staleTime := e.fetcher, e.staleTime
	e.invalidated = true
	c.group.Forget(enc)
	c.mu.Unlock()

	return c.load(ctx, key, enc, fetch, staleTime)
}

// Len returns the number of stored entries, pinned ones included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Len() + len(c.pinned)
}

// Tx applies cache mutations inside one critical section. It is only
// valid during the Mutate call that created it.
type Tx struct {
	c *Cache
}

// Mutate runs fn while holding the cache lock, so no reader can observe a
// state in between the mutations fn performs.
func (c *Cache) Mutate(fn func(tx *Tx)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&Tx{c: c})
}

// Set stores data under key as if it had just been fetched.
func (tx *Tx) Set(key Key, data any, staleTime time.Duration) {
	c := tx.c
	enc := key.encode()
	e, ok := c.lookupLocked(enc, false)
	if !ok {
		e = &entry{key: key}
	}
	c.seq++
	e.data = data
	e.hasData = true
	e.err = nil
	e.fetchedAt = c.now()
	e.staleTime = staleTime
	e.invalidated = false
	e.seq = c.seq
	c.storeLocked(enc, e)
}

// Invalidate is Cache.Invalidate inside a transaction.
func (tx *Tx) Invalidate(prefix Key) int { return tx.c.invalidateLocked(prefix) }

// Remove is Cache.Remove inside a transaction.
func (tx *Tx) Remove(prefix Key) int { return tx.c.removeLocked(prefix) }

// Pin exempts entries under prefix from LRU eviction from now on and moves
// the matching entries already stored out of the LRU.
func (c *Cache) Pin(prefix Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range c.pins {
		if p.Equal(prefix) {
			return
		}
	}
	c.pins = append(c.pins, prefix)
	for _, enc := range c.entries.Keys() {
		if e, ok := c.entries.Peek(enc); ok && e.key.HasPrefix(prefix) {
			c.entries.Remove(enc)
			c.pinned[enc] = e
		}
	}
}

func (c *Cache) isPinned(k Key) bool {
	for _, p := range c.pins {
		if k.HasPrefix(p) {
			return true
		}
	}
	return false
}

// lookupLocked finds an entry; touch refreshes its LRU position.
func (c *Cache) lookupLocked(enc string, touch bool) (*entry, bool) {
	if e, ok := c.pinned[enc]; ok {
		return e, true
	}
	if touch {
		return c.entries.Get(enc)
	}
	return c.entries.Peek(enc)
}

func (c *Cache) storeLocked(enc string, e *entry) {
	if c.isPinned(e.key) {
		c.pinned[enc] = e
		return
	}
	c.entries.Add(enc, e)
}

// matchLocked returns the encoded keys of every stored entry under prefix.
func (c *Cache) matchLocked(prefix Key) []string {
	var out []string
	for enc, e := range c.pinned {
		if e.key.HasPrefix(prefix) {
			out = append(out, enc)
		}
	}
	for _, enc := range c.entries.Keys() {
		if e, ok := c.entries.Peek(enc); ok && e.key.HasPrefix(prefix) {
			out = append(out, enc)
		}
	}
	return out
}

func (c *Cache) donePendingLocked(enc string, p *pending) {
	loads := c.pending[enc]
	for i, q := range loads {
		if q == p {
			loads = append(loads[:i], loads[i+1:]...)
			break
		}
	}
	if len(loads) == 0 {
		delete(c.pending, enc)
		return
	}
	c.pending[enc] = loads
}

func (c *Cache) invalidateLocked(prefix Key) int {
	matched := c.matchLocked(prefix)
	for _, enc := range matched {
		e, _ := c.lookupLocked(enc, false)
		e.invalidated = true
	}
	// Every outstanding load under prefix stores its result stale, including
	// loads a Refetch has already superseded.
	for enc, loads := range c.pending {
		if len(loads) == 0 || !loads[0].key.HasPrefix(prefix) {
			continue
		}
		for _, p := range loads {
			p.invalidated = true
		}
		c.group.Forget(enc)
	}
	c.log.Debug().Str("prefix", prefix.String()).Int("entries", len(matched)).Msg("query cache invalidated")
	return len(matched)
}

func (c *Cache) removeLocked(prefix Key) int {
	matched := c.matchLocked(prefix)
	for _, enc := range matched {
		delete(c.pinned, enc)
		c.entries.Remove(enc)
	}
	for enc, loads := range c.pending {
		if len(loads) == 0 || !loads[0].key.HasPrefix(prefix) {
			continue
		}
		for _, p := range loads {
			p.removed = true
		}
		delete(c.pending, enc)
		c.group.Forget(enc)
	}
	c.log.Debug().Str("prefix", prefix.String()).Int("entries", len(matched)).Msg("query cache entries removed")
	return len(matched)
}

// Get is a typed Fetch.
func Get[T any](ctx context.Context, c *Cache, key Key, fetch func(ctx context.Context) (T, error), opts Options) (T, error) {
	var zero T
	v, err := c.Fetch(ctx, key, func(ctx context.Context) (any, error) { return fetch(ctx) }, opts)
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("querycache: %s holds %T", key, v)
	}
	return t, nil
}

// PeekAs is a typed Peek.
func PeekAs[T any](c *Cache, key Key) (T, bool) {
	var zero T
	v, ok := c.Peek(key)
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}
