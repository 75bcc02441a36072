package panel

import "sync"

// Keyed is a resource with a stable identity.
type Keyed interface {
	Key() string
}

// ListCache holds the cached list and active id for one resource class.
//
// Wholesale replacements come from either an explicit fetch (Load) or a
// push event (ReplaceFromPush). Every replacement bumps the snapshot
// version; a Load whose fetch was issued before a push replacement landed
// drops its result instead of resurrecting the stale list.
type ListCache[T Keyed] struct {
	mu       sync.Mutex
	items    []T
	activeID string
	version  uint64

	onChange  []func()
	onDiscard []func()
}

// NewListCache creates an empty cache.
func NewListCache[T Keyed]() *ListCache[T] {
	return &ListCache[T]{}
}

// OnChange registers a listener fired after every observable change
// (replacement or active-id change), in registration order.
func (c *ListCache[T]) OnChange(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = append(c.onChange, fn)
}

// OnDiscard registers a hook fired when a push replacement invalidates
// in-flight edits for this resource class (ids may have shifted).
func (c *ListCache[T]) OnDiscard(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onDiscard = append(c.onDiscard, fn)
}

// Load fetches the full list plus active id and replaces the cache
// wholesale. The fetch runs without the lock; if a push replacement lands
// while it is in flight, the fetched result is dropped.
func (c *ListCache[T]) Load(fetch func() ([]T, string, error)) error {
	c.mu.Lock()
	issuedAt := c.version
	c.mu.Unlock()

	items, activeID, err := fetch()
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.version != issuedAt {
		// Push data replaced the list while the fetch was in flight;
		// the push channel is authoritative.
		c.mu.Unlock()
		return nil
	}
	c.version++
	c.items = items
	c.activeID = activeID
	c.notifyLocked(nil)
	return nil
}

// ReplaceFromPush performs a wholesale replacement from push data and
// discards any edit session for this class, since ids may no longer be
// valid.
func (c *ListCache[T]) ReplaceFromPush(items []T, activeID string) {
	c.mu.Lock()
	c.version++
	c.items = items
	c.activeID = activeID
	discard := make([]func(), len(c.onDiscard))
	copy(discard, c.onDiscard)
	c.notifyLocked(discard)
}

// SetActiveByID updates only the active id, without a round trip. Used
// when a push event already carries the authoritative selection. A no-op
// when id is empty or already active, so a repeated push produces no
// redundant change notification.
func (c *ListCache[T]) SetActiveByID(id string) {
	c.mu.Lock()
	if id == "" || id == c.activeID {
		c.mu.Unlock()
		return
	}
	c.activeID = id
	c.notifyLocked(nil)
}

// notifyLocked fires pre-change hooks then change listeners. Expects
// c.mu held; releases it before the callbacks run.
func (c *ListCache[T]) notifyLocked(pre []func()) {
	listeners := make([]func(), len(c.onChange))
	copy(listeners, c.onChange)
	c.mu.Unlock()

	for _, fn := range pre {
		fn()
	}
	for _, fn := range listeners {
		fn()
	}
}

// Items returns a copy of the cached list.
func (c *ListCache[T]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

// ActiveID returns the cached active id, which may be empty before the
// first load.
func (c *ListCache[T]) ActiveID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeID
}

// Get returns the resource with the given id.
func (c *ListCache[T]) Get(id string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, item := range c.items {
		if item.Key() == id {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// Active returns the active resource, if the active id references one.
// After a mutation that removed the active entry, the active concept is
// undefined until the next authoritative push.
func (c *ListCache[T]) Active() (T, bool) {
	return c.Get(c.ActiveID())
}

// Len returns the number of cached resources.
func (c *ListCache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
