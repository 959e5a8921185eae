// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package mailbox shares GPU textures between isolated rendering contexts
// without exposing raw handles.
//
// # Overview
//
// A [Mailbox] is a 64-byte random token. A context that owns a texture
// produces it into the shared [Registry] under a (target, mailbox) pair;
// any other context holding the same registry consumes the pair to get the
// same texture back. Only the token crosses the context boundary.
//
//	reg := mailbox.NewRegistry()
//	defer reg.Release()
//
//	producer := mailbox.NewGroup(mailbox.WithRegistry(reg))
//	consumer := mailbox.NewGroup(mailbox.WithRegistry(reg))
//
//	ctx := producer.NewContext()
//	tex, _ := ctx.CreateTexture(mailbox.Target2D, 256, 256, gputypes.TextureFormatRGBA8Unorm)
//	name, _ := ctx.GenMailbox()
//	_ = ctx.ProduceTexture(mailbox.Target2D, name, tex)
//
//	other := consumer.NewContext()
//	shared, ok := other.ConsumeTexture(mailbox.Target2D, name)
//
// # Lifetime
//
// The registry never owns textures. When the texture manager destroys a
// texture the registry is notified and forgets every mailbox bound to it,
// so a consume never returns a destroyed texture. Contexts that consume a
// texture take their own reference, so the texture stays alive while
// either side uses it.
//
// The registry itself is reference counted. Each [Group] holds one
// reference; the registry closes when the last one is released.
//
// # Uploading bitmaps
//
// Decoded images are represented by the bitmap package. [Upload] and
// [Context.UploadBitmap] pin the bitmap's pixels for the duration of the
// copy and push them into any gpucontext.TextureUpdater.
//
// # Logging
//
// The package is silent by default. [SetLogger] enables structured logging
// for this package and its sub-packages.
//
// # Thread safety
//
// [Registry] is safe for concurrent use; Produce, Consume and
// OnTextureDeleted are serialized by a read-write mutex. A [Context] is
// meant to be used from one goroutine at a time, like the command stream
// it models.
package mailbox
