// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package wgpu backs textures with real GPU memory using gogpu/wgpu.
//
// The allocator creates one wgpu texture per managed texture and uploads
// updates with Queue.WriteTexture. Register installs it into the texture
// package's allocator registry, where it takes priority over the software
// allocator:
//
//	dev, err := wgpu.OpenDevice("mailbox")
//	if err != nil {
//	    return err
//	}
//	defer dev.Release()
//	wgpu.Register(dev.Device())
//	defer wgpu.Unregister()
//
// Cube map textures are allocated with six array layers; updates write
// layer zero.
package wgpu
