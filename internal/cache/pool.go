package cache

import "sync"

// Purgeable is memory that a Pool may reclaim while nobody holds it locked.
type Purgeable interface {
	comparable

	// Size returns the number of bytes released by a successful purge.
	Size() int

	// TryPurge drops the backing memory unless the item is locked.
	// It reports whether the memory was released. Once purged, an item
	// stays purged.
	TryPurge() bool
}

// Pool is a budgeted LRU of purgeable items.
//
// Pool is safe for concurrent use.
// Pool must not be copied after creation (has mutex).
type Pool[T Purgeable] struct {
	mu      sync.Mutex
	entries map[T]*poolEntry[T]
	lru     *lruList[T]
	budget  int
	used    int
	purged  uint64
	skipped uint64
}

type poolEntry[T comparable] struct {
	node *lruNode[T]
	size int
}

// NewPool creates a pool that starts purging once the tracked size exceeds
// budget bytes. A budget of 0 means unlimited: items are only purged by
// PurgeAll.
func NewPool[T Purgeable](budget int) *Pool[T] {
	if budget < 0 {
		budget = 0
	}
	return &Pool[T]{
		entries: make(map[T]*poolEntry[T]),
		lru:     newLRUList[T](),
		budget:  budget,
	}
}

// Add starts tracking item as most recently used and trims the pool if
// the budget is exceeded. Adding an item twice only refreshes its recency.
func (p *Pool[T]) Add(item T) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if e, ok := p.entries[item]; ok {
		p.lru.MoveToFront(e.node)
		return
	}

	size := item.Size()
	p.entries[item] = &poolEntry[T]{
		node: p.lru.PushFront(item),
		size: size,
	}
	p.used += size
	p.trimLocked()
}

// Touch marks item as most recently used.
// Returns false if the pool does not track item.
func (p *Pool[T]) Touch(item T) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	e, ok := p.entries[item]
	if !ok {
		return false
	}
	p.lru.MoveToFront(e.node)
	return true
}

// Remove stops tracking item without purging it.
// Returns true if the item was tracked.
func (p *Pool[T]) Remove(item T) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	e, ok := p.entries[item]
	if !ok {
		return false
	}
	p.forget(item, e)
	return true
}

// Trim purges least recently used items until the pool is within budget.
// Locked items are skipped. Returns the number of items purged.
func (p *Pool[T]) Trim() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.trimLocked()
}

// PurgeAll purges every unlocked item regardless of budget.
// Returns the number of items purged.
func (p *Pool[T]) PurgeAll() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.purgeWhile(func() bool { return true })
}

// Len returns the number of tracked items.
func (p *Pool[T]) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lru.Len()
}

// Stats returns pool statistics.
func (p *Pool[T]) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	return Stats{
		Len:       p.lru.Len(),
		Budget:    p.budget,
		UsedBytes: p.used,
		Purged:    p.purged,
		Skipped:   p.skipped,
	}
}

// trimLocked purges until used <= budget.
// Caller must hold p.mu.
func (p *Pool[T]) trimLocked() int {
	if p.budget == 0 {
		return 0
	}
	return p.purgeWhile(func() bool { return p.used > p.budget })
}

// purgeWhile walks from the least recently used item towards the most
// recently used one, purging while cond holds.
// Caller must hold p.mu.
func (p *Pool[T]) purgeWhile(cond func() bool) int {
	n := 0
	for node := p.lru.Back(); node != nil && cond(); {
		prev := node.prev
		item := node.key
		if item.TryPurge() {
			p.forget(item, p.entries[item])
			p.purged++
			n++
		} else {
			p.skipped++
		}
		node = prev
	}
	return n
}

// forget drops the bookkeeping for item.
// Caller must hold p.mu.
func (p *Pool[T]) forget(item T, e *poolEntry[T]) {
	p.lru.Remove(e.node)
	p.used -= e.size
	delete(p.entries, item)
}

// Stats contains pool statistics.
type Stats struct {
	// Len is the current number of tracked items.
	Len int
	// Budget is the configured budget in bytes (0 = unlimited).
	Budget int
	// UsedBytes is the total size of tracked items.
	UsedBytes int
	// Purged is the number of items purged since creation.
	Purged uint64
	// Skipped is the number of purge attempts refused by locked items.
	Skipped uint64
}
