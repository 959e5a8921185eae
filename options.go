package mailbox

import (
	"github.com/gogpu/mailbox/texture"
)

// GroupOption configures a Group during creation.
//
// Example:
//
//	reg := mailbox.NewRegistry()
//	g := mailbox.NewGroup(
//	    mailbox.WithRegistry(reg),
//	    mailbox.WithTextureBudget(256),
//	)
type GroupOption func(*groupOptions)

type groupOptions struct {
	registry  *Registry
	budgetMB  int
	allocator texture.Allocator
}

// WithRegistry makes the group share reg with other groups. The group
// takes its own reference; the caller keeps theirs.
// Without this option each group gets a private registry.
func WithRegistry(reg *Registry) GroupOption {
	return func(o *groupOptions) {
		o.registry = reg
	}
}

// WithTextureBudget limits the texel memory of the group's texture
// manager, in megabytes. Zero means unlimited.
func WithTextureBudget(mb int) GroupOption {
	return func(o *groupOptions) {
		o.budgetMB = mb
	}
}

// WithAllocator sets the allocator for the group's textures.
// Defaults to texture.DefaultAllocator().
func WithAllocator(a texture.Allocator) GroupOption {
	return func(o *groupOptions) {
		o.allocator = a
	}
}
