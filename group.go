package mailbox

import (
	"sync"

	"github.com/gogpu/mailbox/texture"
)

// Group is a set of contexts that share a texture manager. Textures
// created by any context in the group are visible to all of them by
// pointer; other groups reach them only through mailboxes.
//
// A group holds one registry reference. It is torn down when Release has
// been called and its last context is closed: every texture it still owns
// is destroyed, which purges their mailboxes, and the registry reference
// is dropped. Contexts in other groups that consumed one of those textures
// see it as released.
type Group struct {
	registry *Registry
	textures *texture.Manager

	mu       sync.Mutex
	contexts map[*Context]struct{}
	released bool
	shutdown bool
}

// NewGroup creates a context group.
func NewGroup(opts ...GroupOption) *Group {
	var o groupOptions
	for _, opt := range opts {
		opt(&o)
	}

	reg := o.registry
	if reg == nil {
		reg = NewRegistry()
	} else {
		reg.Ref()
	}

	g := &Group{
		registry: reg,
		textures: texture.NewManager(texture.Config{
			MaxMemoryMB: o.budgetMB,
			Allocator:   o.allocator,
		}),
		contexts: make(map[*Context]struct{}),
	}
	g.textures.AddObserver(reg)
	return g
}

// Registry returns the mailbox registry the group uses.
func (g *Group) Registry() *Registry { return g.registry }

// Textures returns the group's texture manager.
func (g *Group) Textures() *texture.Manager { return g.textures }

// NewContext creates a context in the group. It returns nil once the
// group has been released.
func (g *Group) NewContext() *Context {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.released {
		Logger().Error("mailbox: NewContext on released group", "err", ErrGroupReleased)
		return nil
	}
	c := &Context{
		group: g,
		held:  make(map[*texture.Texture]int),
	}
	g.contexts[c] = struct{}{}
	return c
}

// Contexts returns the number of open contexts.
func (g *Group) Contexts() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.contexts)
}

// Release drops the caller's handle on the group. Calling it twice is
// logged and ignored.
func (g *Group) Release() {
	g.mu.Lock()
	if g.released {
		g.mu.Unlock()
		Logger().Warn("mailbox: group released twice")
		return
	}
	g.released = true
	done := g.tryShutdownLocked()
	g.mu.Unlock()

	if done {
		g.teardown()
	}
}

func (g *Group) contextClosed(c *Context) {
	g.mu.Lock()
	delete(g.contexts, c)
	done := g.tryShutdownLocked()
	g.mu.Unlock()

	if done {
		g.teardown()
	}
}

func (g *Group) tryShutdownLocked() bool {
	if !g.released || len(g.contexts) > 0 || g.shutdown {
		return false
	}
	g.shutdown = true
	return true
}

func (g *Group) teardown() {
	g.textures.Close()
	g.textures.RemoveObserver(g.registry)
	g.registry.Release()
	Logger().Debug("mailbox group torn down")
}
