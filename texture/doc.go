// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package texture is the texture manager the mailbox registry observes.
//
// A [Manager] owns textures. Each [Texture] is identified by a
// generation-counted [ID]: when a texture is destroyed its slot may be
// reused, but the new texture gets a new generation, so a stale ID never
// aliases a live texture.
//
// Textures are reference counted. The creator holds the first reference;
// other holders (for example a context that consumed the texture through a
// mailbox) call Retain. When the last reference is released the manager
// notifies every [DeletionObserver] and then frees the backing memory.
//
// Texel memory comes from an [Allocator]. The software allocator keeps a
// CPU copy and is always available; GPU allocators register themselves
// with [RegisterAllocator] and are preferred when present.
package texture
