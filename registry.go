package mailbox

import (
	"bytes"
	"cmp"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/gogpu/mailbox/texture"
)

// RegistryStats is a snapshot of registry state.
type RegistryStats struct {
	Bindings int
	Textures int
	Refs     int

	Produced uint64
	Hits     uint64
	Misses   uint64
	Purged   uint64
}

// String returns a one-line summary.
func (s RegistryStats) String() string {
	return fmt.Sprintf("mailboxes: %d bindings over %d textures, %d produced, %d hits, %d misses, %d purged",
		s.Bindings, s.Textures, s.Produced, s.Hits, s.Misses, s.Purged)
}

// Registry maps (target, mailbox) pairs to textures.
//
// The forward index resolves one TargetName to at most one texture. The
// reverse index groups every TargetName bound to a texture so that all of
// them can be dropped when the texture is deleted. Every forward entry has
// exactly one reverse entry.
//
// The registry references textures but never retains them.
//
// Registry is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	forward map[TargetName]*texture.Texture
	reverse map[*texture.Texture]map[TargetName]struct{}
	closed  bool

	refs atomic.Int32

	produced atomic.Uint64
	hits     atomic.Uint64
	misses   atomic.Uint64
	purged   atomic.Uint64
}

var _ texture.DeletionObserver = (*Registry)(nil)

// NewRegistry returns an empty registry holding one reference.
func NewRegistry() *Registry {
	r := &Registry{
		forward: make(map[TargetName]*texture.Texture),
		reverse: make(map[*texture.Texture]map[TargetName]struct{}),
	}
	r.refs.Store(1)
	return r
}

// Ref adds a reference and returns r.
func (r *Registry) Ref() *Registry {
	r.refs.Add(1)
	return r
}

// Release drops a reference. When the last reference goes every binding
// is dropped and the registry stops accepting new ones.
func (r *Registry) Release() {
	n := r.refs.Add(-1)
	switch {
	case n > 0:
		return
	case n < 0:
		Logger().Error("mailbox: registry released too many times", "refs", n)
		return
	}

	r.mu.Lock()
	bindings := len(r.forward)
	r.forward = make(map[TargetName]*texture.Texture)
	r.reverse = make(map[*texture.Texture]map[TargetName]struct{})
	r.closed = true
	r.mu.Unlock()

	Logger().Debug("mailbox registry closed", "dropped", bindings)
}

// IsClosed reports whether the last reference has been released.
func (r *Registry) IsClosed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.closed
}

// Produce binds tex under (target, m). An existing binding for the same
// pair is replaced; the last producer wins. Producing a nil texture
// erases the binding.
func (r *Registry) Produce(target Target, m Mailbox, tex *texture.Texture) {
	key := TargetName{Target: target, Mailbox: m}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		Logger().Warn("mailbox: produce into closed registry", "name", key)
		return
	}
	if tex == nil {
		r.removeLocked(key)
		return
	}
	if tex.IsReleased() {
		Logger().Warn("mailbox: produce of destroyed texture ignored", "name", key, "texture", tex.ID())
		return
	}

	if old, ok := r.forward[key]; ok {
		if old == tex {
			return
		}
		r.unlinkLocked(old, key)
	}

	r.forward[key] = tex
	group := r.reverse[tex]
	if group == nil {
		group = make(map[TargetName]struct{}, 1)
		r.reverse[tex] = group
	}
	group[key] = struct{}{}
	r.produced.Add(1)

	Logger().Debug("mailbox produced", "name", key, "texture", tex.ID())
}

// Consume returns the texture bound to (target, m), or nil if none is.
// Consume never changes registry state or texture lifetime.
func (r *Registry) Consume(target Target, m Mailbox) *texture.Texture {
	key := TargetName{Target: target, Mailbox: m}

	r.mu.RLock()
	tex := r.forward[key]
	r.mu.RUnlock()

	if tex == nil {
		r.misses.Add(1)
		return nil
	}
	r.hits.Add(1)
	return tex
}

// Remove drops the binding for (target, m). It reports whether one
// existed.
func (r *Registry) Remove(target Target, m Mailbox) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.removeLocked(TargetName{Target: target, Mailbox: m})
}

// OnTextureDeleted drops every binding that refers to tex. The texture
// manager calls it before the texture's memory is freed.
func (r *Registry) OnTextureDeleted(tex *texture.Texture) {
	r.mu.Lock()
	defer r.mu.Unlock()

	group, ok := r.reverse[tex]
	if !ok {
		return
	}
	for key := range group {
		delete(r.forward, key)
	}
	delete(r.reverse, tex)
	r.purged.Add(uint64(len(group)))

	Logger().Debug("mailboxes purged", "texture", tex.ID(), "count", len(group))
}

// Names returns every TargetName bound to tex, ordered by target then
// mailbox bytes.
func (r *Registry) Names(tex *texture.Texture) []TargetName {
	r.mu.RLock()
	group := r.reverse[tex]
	names := make([]TargetName, 0, len(group))
	for key := range group {
		names = append(names, key)
	}
	r.mu.RUnlock()

	slices.SortFunc(names, func(a, b TargetName) int {
		if c := cmp.Compare(a.Target, b.Target); c != 0 {
			return c
		}
		return bytes.Compare(a.Mailbox[:], b.Mailbox[:])
	})
	return names
}

// Len returns the number of bindings.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.forward)
}

// Stats returns a snapshot of registry state.
func (r *Registry) Stats() RegistryStats {
	r.mu.RLock()
	s := RegistryStats{
		Bindings: len(r.forward),
		Textures: len(r.reverse),
	}
	r.mu.RUnlock()

	s.Refs = int(r.refs.Load())
	s.Produced = r.produced.Load()
	s.Hits = r.hits.Load()
	s.Misses = r.misses.Load()
	s.Purged = r.purged.Load()
	return s
}

func (r *Registry) removeLocked(key TargetName) bool {
	tex, ok := r.forward[key]
	if !ok {
		return false
	}
	delete(r.forward, key)
	r.unlinkLocked(tex, key)
	return true
}

// unlinkLocked removes key from tex's reverse group.
func (r *Registry) unlinkLocked(tex *texture.Texture, key TargetName) {
	group := r.reverse[tex]
	delete(group, key)
	if len(group) == 0 {
		delete(r.reverse, tex)
	}
}
