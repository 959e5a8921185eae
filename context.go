package mailbox

import (
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/mailbox/bitmap"
	"github.com/gogpu/mailbox/texture"
)

// Context is one rendering context in a Group. It holds a reference on
// every texture it created or consumed until it deletes the texture or is
// closed.
//
// A Context is not meant for concurrent use, but calls from different
// goroutines are serialized.
type Context struct {
	group *Group

	mu     sync.Mutex
	held   map[*texture.Texture]int
	closed bool
}

// Group returns the context's group.
func (c *Context) Group() *Group { return c.group }

// GenMailbox returns a fresh mailbox name.
func (c *Context) GenMailbox() (Mailbox, error) {
	return GenerateMailbox()
}

// CreateTexture creates a texture for target. The context holds the first
// reference.
func (c *Context) CreateTexture(target Target, width, height int, format gputypes.TextureFormat) (*texture.Texture, error) {
	return c.createTexture("CreateTexture", target, texture.Descriptor{
		Width:  width,
		Height: height,
		Format: format,
	})
}

// CreateTextureFromBitmap creates a texture matching bmp and uploads its
// pixels.
func (c *Context) CreateTextureFromBitmap(target Target, bmp bitmap.Bitmap) (*texture.Texture, error) {
	if !bmp.IsValid() {
		return nil, fail("CreateTextureFromBitmap", fmt.Errorf("%w: invalid bitmap", bitmap.ErrPrecondition))
	}
	tex, err := c.createTexture("CreateTextureFromBitmap", target, texture.Descriptor{
		Label:  bmp.String(),
		Width:  bmp.Width(),
		Height: bmp.Height(),
		Format: bmp.Format().TextureFormat(),
	})
	if err != nil {
		return nil, err
	}
	if err := Upload(tex, bmp); err != nil {
		_ = c.DeleteTexture(tex)
		return nil, err
	}
	return tex, nil
}

func (c *Context) createTexture(op string, target Target, desc texture.Descriptor) (*texture.Texture, error) {
	if !target.IsValid() {
		return nil, fail(op, fmt.Errorf("%w: %v", ErrInvalidTarget, target))
	}
	desc.Dimension = target.ViewDimension()
	desc.Target = uint32(target)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrContextClosed
	}

	tex, err := c.group.textures.Create(desc)
	if err != nil {
		return nil, err
	}
	c.held[tex]++
	return tex, nil
}

// ProduceTexture binds tex under (target, m) in the group's registry.
// The context must hold tex, and tex must have been created for target.
// A nil tex erases the binding.
func (c *Context) ProduceTexture(target Target, m Mailbox, tex *texture.Texture) error {
	const op = "ProduceTexture"
	if !target.IsValid() {
		return fail(op, fmt.Errorf("%w: %v", ErrInvalidTarget, target))
	}
	if m.IsZero() {
		return fail(op, ErrZeroMailbox)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrContextClosed
	}
	if tex == nil {
		c.group.registry.Produce(target, m, nil)
		return nil
	}
	if c.held[tex] == 0 {
		return fail(op, fmt.Errorf("%w: %v", ErrUnknownTexture, tex.ID()))
	}
	if got := Target(tex.Target()); got != target {
		return fail(op, fmt.Errorf("%w: texture is %v, produced as %v", ErrTargetMismatch, got, target))
	}

	c.group.registry.Produce(target, m, tex)
	return nil
}

// ConsumeTexture returns the texture bound to (target, m) and takes a
// reference on it for this context. It returns false when nothing is
// bound, which callers treat as "not available yet".
func (c *Context) ConsumeTexture(target Target, m Mailbox) (*texture.Texture, bool) {
	if m.IsZero() {
		_ = fail("ConsumeTexture", ErrZeroMailbox)
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		Logger().Warn("mailbox: consume on closed context", "target", target)
		return nil, false
	}

	tex := c.group.registry.Consume(target, m)
	if tex == nil {
		Logger().Debug("mailbox consume miss", "name", TargetName{target, m})
		return nil, false
	}
	// The texture may be destroyed between lookup and retain; its
	// mailboxes are then already being purged.
	if err := tex.Retain(); err != nil {
		return nil, false
	}
	c.held[tex]++
	Logger().Debug("mailbox consumed", "name", TargetName{target, m}, "texture", tex.ID())
	return tex, true
}

// DeleteTexture drops one of this context's references on tex. The
// texture is destroyed, and its mailboxes forgotten, once no context
// holds it.
func (c *Context) DeleteTexture(tex *texture.Texture) error {
	c.mu.Lock()
	n := c.held[tex]
	if n == 0 {
		c.mu.Unlock()
		if tex == nil {
			return fail("DeleteTexture", ErrNilTexture)
		}
		return fail("DeleteTexture", fmt.Errorf("%w: %v", ErrUnknownTexture, tex.ID()))
	}
	if n == 1 {
		delete(c.held, tex)
	} else {
		c.held[tex] = n - 1
	}
	c.mu.Unlock()

	tex.Release()
	return nil
}

// UploadBitmap copies bmp's pixels into tex, which the context must hold.
func (c *Context) UploadBitmap(tex *texture.Texture, bmp bitmap.Bitmap) error {
	c.mu.Lock()
	closed, held := c.closed, c.held[tex] > 0
	c.mu.Unlock()

	switch {
	case closed:
		return ErrContextClosed
	case tex == nil:
		return fail("UploadBitmap", ErrNilTexture)
	case !held:
		return fail("UploadBitmap", fmt.Errorf("%w: %v", ErrUnknownTexture, tex.ID()))
	}
	return Upload(tex, bmp)
}

// Holds reports how many references the context holds on tex.
func (c *Context) Holds(tex *texture.Texture) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.held[tex]
}

// Close releases every texture reference the context holds. Further
// calls return ErrContextClosed.
func (c *Context) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	held := c.held
	c.held = nil
	c.mu.Unlock()

	for tex, n := range held {
		for range n {
			tex.Release()
		}
	}
	c.group.contextClosed(c)
}
