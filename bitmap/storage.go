package bitmap

import (
	"sync"
	"sync/atomic"

	"github.com/gogpu/mailbox/internal/cache"
)

// Storage is reference-counted pixel memory shared by any number of
// bitmaps.
//
// Storage is write-once: the producer fills the bytes, calls SetImmutable,
// and only then shares it. After that the bytes are read-only, which is
// what makes concurrent locking from many bitmaps safe. The lock is not a
// mutual-exclusion primitive; it pins the memory so that a discardable
// [Pool] cannot purge it while pixels are being read.
//
// Storage is safe for concurrent use.
type Storage struct {
	mu     sync.Mutex
	data   []byte
	locks  int
	purged bool
	freed  bool

	size      int
	immutable atomic.Bool
	refs      atomic.Int32
	pool      *Pool
}

// NewStorage wraps data without copying. The caller owns the returned
// reference and must call Unref when done with it.
func NewStorage(data []byte) *Storage {
	s := &Storage{
		data: data,
		size: len(data),
	}
	s.refs.Store(1)
	return s
}

// Bytes returns the underlying memory for the producer to fill.
// It returns nil once the storage is immutable: from then on pixels are
// only reachable through a PixelLock.
func (s *Storage) Bytes() []byte {
	if s.immutable.Load() {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data
}

// SetImmutable freezes the storage. It may be called more than once;
// only the first call has an effect. Discardable storage becomes eligible
// for purging once it is immutable.
func (s *Storage) SetImmutable() {
	if s.immutable.Swap(true) {
		return
	}
	if s.pool != nil {
		s.pool.p.Add(s)
	}
}

// IsImmutable reports whether SetImmutable was called.
func (s *Storage) IsImmutable() bool {
	return s.immutable.Load()
}

// Size returns the size of the storage in bytes as allocated. It does not
// change when the memory is purged.
func (s *Storage) Size() int {
	return s.size
}

// Ref adds a reference.
func (s *Storage) Ref() {
	s.refs.Add(1)
}

// Unref drops a reference. When the last reference goes the memory is
// released and the storage leaves its pool.
func (s *Storage) Unref() {
	n := s.refs.Add(-1)
	switch {
	case n > 0:
		return
	case n < 0:
		slogger().Error("bitmap: storage unreferenced too many times", "refs", n)
		return
	}

	s.mu.Lock()
	if s.locks > 0 {
		slogger().Warn("bitmap: storage freed while locked", "locks", s.locks)
	}
	s.data = nil
	s.freed = true
	s.mu.Unlock()

	if s.pool != nil {
		s.pool.p.Remove(s)
	}
}

// RefCount returns the current number of references.
func (s *Storage) RefCount() int {
	return int(s.refs.Load())
}

// LockCount returns the number of outstanding pixel locks.
func (s *Storage) LockCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locks
}

// IsPurged reports whether a discardable pool reclaimed the memory.
func (s *Storage) IsPurged() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.purged
}

// TryPurge releases the memory unless it is locked or still mutable.
// It is called by the discardable pool and reports whether the memory was
// released.
func (s *Storage) TryPurge() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.locks > 0 || s.purged || s.freed || !s.immutable.Load() {
		return false
	}
	s.data = nil
	s.purged = true
	slogger().Debug("bitmap: storage purged", "bytes", s.size)
	return true
}

// lock pins the memory and returns it.
func (s *Storage) lock() ([]byte, error) {
	s.mu.Lock()
	switch {
	case s.freed:
		s.mu.Unlock()
		return nil, ErrFreed
	case s.purged:
		s.mu.Unlock()
		return nil, ErrPurged
	}
	s.locks++
	data := s.data
	s.mu.Unlock()

	// Touch outside s.mu: the pool holds its own mutex while calling
	// TryPurge, which takes s.mu.
	if s.pool != nil {
		s.pool.p.Touch(s)
	}
	return data, nil
}

// unlock releases one pin.
func (s *Storage) unlock() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.locks == 0 {
		slogger().Error("bitmap: unbalanced storage unlock")
		return
	}
	s.locks--
}

// Pool is a discardable memory pool for pixel storage. Unlocked immutable
// storage in the pool may be purged, least recently locked first, once
// the pool grows beyond its budget.
//
// Pool is safe for concurrent use.
type Pool struct {
	p *cache.Pool[*Storage]
}

// PoolStats contains discardable pool statistics.
type PoolStats = cache.Stats

// NewPool creates a discardable pool with the given budget in bytes.
// A budget of 0 means the pool never purges on its own; call PurgeAll.
func NewPool(budgetBytes int) *Pool {
	return &Pool{p: cache.NewPool[*Storage](budgetBytes)}
}

// NewStorage wraps data in storage owned by the pool. Like the package
// level NewStorage, the caller owns the returned reference. The storage
// joins the pool when it is made immutable.
func (p *Pool) NewStorage(data []byte) *Storage {
	s := NewStorage(data)
	s.pool = p
	return s
}

// Trim purges unlocked storage until the pool is within budget.
// Returns the number of storages purged.
func (p *Pool) Trim() int {
	return p.p.Trim()
}

// PurgeAll purges every unlocked storage, as under memory pressure.
// Returns the number of storages purged.
func (p *Pool) PurgeAll() int {
	n := p.p.PurgeAll()
	if n > 0 {
		slogger().Info("bitmap: purged discardable storage", "count", n)
	}
	return n
}

// Stats returns pool statistics.
func (p *Pool) Stats() PoolStats {
	return p.p.Stats()
}
