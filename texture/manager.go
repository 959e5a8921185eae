package texture

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

var (
	// ErrManagerClosed is returned by a closed manager.
	ErrManagerClosed = errors.New("texture: manager closed")

	// ErrMemoryBudgetExceeded is returned when a texture would not fit in
	// the manager's memory budget.
	ErrMemoryBudgetExceeded = errors.New("texture: memory budget exceeded")
)

// DeletionObserver is notified when a texture is destroyed, before its
// backing memory is released. Observers are called without the manager
// lock held and may call back into the manager.
type DeletionObserver interface {
	OnTextureDeleted(t *Texture)
}

// Config configures a Manager.
type Config struct {
	// MaxMemoryMB limits the total texel memory. Zero means unlimited.
	MaxMemoryMB int

	// Allocator provides texel memory. Defaults to DefaultAllocator().
	Allocator Allocator
}

// Stats is a snapshot of manager state.
type Stats struct {
	Live        int
	Created     uint64
	Destroyed   uint64
	UsedBytes   uint64
	BudgetBytes uint64
	Allocator   string
}

// String returns a one-line summary.
func (s Stats) String() string {
	return fmt.Sprintf("textures: %d live, %d created, %d destroyed, %d bytes (%s)",
		s.Live, s.Created, s.Destroyed, s.UsedBytes, s.Allocator)
}

type slot struct {
	gen uint32
	tex *Texture
}

// Manager owns textures and their backing memory.
//
// Manager is safe for concurrent use.
type Manager struct {
	alloc  Allocator
	budget uint64

	mu        sync.Mutex
	slots     []slot
	free      []uint32
	live      int
	used      uint64
	created   uint64
	destroyed uint64
	observers []DeletionObserver
	closed    bool
}

var _ gpucontext.TextureCreator = (*Manager)(nil)

// NewManager creates a texture manager.
func NewManager(cfg Config) *Manager {
	alloc := cfg.Allocator
	if alloc == nil {
		alloc = DefaultAllocator()
	}
	var budget uint64
	if cfg.MaxMemoryMB > 0 {
		budget = uint64(cfg.MaxMemoryMB) << 20
	}
	slogger().Debug("texture manager created",
		"allocator", alloc.Name(),
		"budget_mb", cfg.MaxMemoryMB)
	return &Manager{alloc: alloc, budget: budget}
}

// Allocator returns the allocator backing this manager.
func (m *Manager) Allocator() Allocator { return m.alloc }

// AddObserver registers o for deletion notifications. Adding the same
// observer twice has no effect.
func (m *Manager) AddObserver(o DeletionObserver) {
	if o == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if slices.Contains(m.observers, o) {
		return
	}
	m.observers = append(m.observers, o)
}

// RemoveObserver unregisters o.
func (m *Manager) RemoveObserver(o DeletionObserver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers = slices.DeleteFunc(m.observers, func(x DeletionObserver) bool { return x == o })
}

// Create allocates a texture. The caller holds the first reference.
func (m *Manager) Create(desc Descriptor) (*Texture, error) {
	if !validDimensions(desc.Width, desc.Height) {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, desc.Width, desc.Height)
	}
	layout, ok := layoutFor(desc.Format)
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, desc.Format)
	}
	if desc.Dimension == gputypes.TextureViewDimensionUndefined {
		desc.Dimension = gputypes.TextureViewDimension2D
	}
	if desc.Usage == 0 {
		desc.Usage = DefaultUsage
	}
	size := uint64(layout.rowBytes(desc.Width)) * uint64(layout.rows(desc.Height))
	if desc.Dimension == gputypes.TextureViewDimensionCube {
		size *= 6
	}

	// Reserve the memory before allocating so concurrent creates cannot
	// overshoot the budget.
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrManagerClosed
	}
	if m.budget > 0 && m.used+size > m.budget {
		used := m.used
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: need %d bytes, %d of %d in use",
			ErrMemoryBudgetExceeded, size, used, m.budget)
	}
	m.used += size
	m.mu.Unlock()

	backing, err := m.alloc.Allocate(desc)
	if err != nil {
		m.mu.Lock()
		m.used -= size
		m.mu.Unlock()
		return nil, fmt.Errorf("texture: allocate %dx%d %v: %w", desc.Width, desc.Height, desc.Format, err)
	}

	t := &Texture{
		desc:      desc,
		layout:    layout,
		sizeBytes: size,
		manager:   m,
		backing:   backing,
		refs:      1,
	}

	m.mu.Lock()
	if m.closed {
		m.used -= size
		m.mu.Unlock()
		backing.Release()
		return nil, ErrManagerClosed
	}
	t.id = m.insertLocked(t)
	m.live++
	m.created++
	m.mu.Unlock()

	slogger().Debug("texture created",
		"id", t.id,
		"label", desc.Label,
		"width", desc.Width,
		"height", desc.Height,
		"format", desc.Format,
		"bytes", size)
	return t, nil
}

// NewTextureFromRGBA creates an RGBA8 texture filled with data.
func (m *Manager) NewTextureFromRGBA(width, height int, data []byte) (gpucontext.Texture, error) {
	t, err := m.Create(Descriptor{
		Width:  width,
		Height: height,
		Format: gputypes.TextureFormatRGBA8Unorm,
	})
	if err != nil {
		return nil, err
	}
	if err := t.UpdateData(data); err != nil {
		t.Release()
		return nil, err
	}
	return t, nil
}

// Lookup returns the live texture for id.
func (m *Manager) Lookup(id ID) (*Texture, bool) {
	if !id.IsValid() {
		return nil, false
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := id.Index()
	if int(idx) >= len(m.slots) {
		return nil, false
	}
	s := m.slots[idx]
	if s.gen != id.Generation() || s.tex == nil {
		return nil, false
	}
	return s.tex, true
}

// Len returns the number of live textures.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.live
}

// Destroy destroys t regardless of outstanding references. It reports
// whether t was live.
func (m *Manager) Destroy(t *Texture) bool {
	if t == nil || t.manager != m {
		return false
	}
	m.mu.Lock()
	if t.released.Load() {
		m.mu.Unlock()
		return false
	}
	observers := m.destroyLocked(t)
	m.mu.Unlock()

	m.finish(t, observers)
	return true
}

// Close destroys every live texture and rejects further creates.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true

	var doomed []*Texture
	for _, s := range m.slots {
		if s.tex != nil {
			doomed = append(doomed, s.tex)
		}
	}
	var observers []DeletionObserver
	for _, t := range doomed {
		observers = m.destroyLocked(t)
	}
	m.mu.Unlock()

	for _, t := range doomed {
		m.finish(t, observers)
	}
	slogger().Debug("texture manager closed", "destroyed", len(doomed))
}

// Stats returns a snapshot of manager state.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Stats{
		Live:        m.live,
		Created:     m.created,
		Destroyed:   m.destroyed,
		UsedBytes:   m.used,
		BudgetBytes: m.budget,
		Allocator:   m.alloc.Name(),
	}
}

func (m *Manager) retain(t *Texture) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.released.Load() {
		return ErrTextureReleased
	}
	t.refs++
	return nil
}

func (m *Manager) release(t *Texture) {
	m.mu.Lock()
	if t.released.Load() {
		m.mu.Unlock()
		slogger().Warn("release of destroyed texture", "id", t.id)
		return
	}
	t.refs--
	if t.refs > 0 {
		m.mu.Unlock()
		return
	}
	observers := m.destroyLocked(t)
	m.mu.Unlock()

	m.finish(t, observers)
}

// insertLocked places t in a free slot and returns its ID.
func (m *Manager) insertLocked(t *Texture) ID {
	if n := len(m.free); n > 0 {
		idx := m.free[n-1]
		m.free = m.free[:n-1]
		m.slots[idx].tex = t
		return makeID(idx, m.slots[idx].gen)
	}
	idx := uint32(len(m.slots))
	m.slots = append(m.slots, slot{gen: 1, tex: t})
	return makeID(idx, 1)
}

// destroyLocked removes t from the arena and returns the observers to
// notify.
func (m *Manager) destroyLocked(t *Texture) []DeletionObserver {
	t.released.Store(true)
	t.refs = 0

	idx := t.id.Index()
	s := &m.slots[idx]
	s.tex = nil
	s.gen++
	if s.gen == 0 {
		s.gen = 1
	}
	m.free = append(m.free, idx)

	m.live--
	m.destroyed++
	m.used -= t.sizeBytes
	return slices.Clone(m.observers)
}

func (m *Manager) finish(t *Texture, observers []DeletionObserver) {
	for _, o := range observers {
		o.OnTextureDeleted(t)
	}
	t.destroyBacking()
	slogger().Debug("texture destroyed", slog.Any("id", t.id), slog.String("label", t.desc.Label))
}
