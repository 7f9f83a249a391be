// Copyright 2011 Evan Shaw. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE-MMAP-GO file.

// Modifications (c) 2017 The Memory Authors.

//go:build darwin || dragonfly || freebsd || linux || openbsd || solaris || netbsd

package uheap

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// mmapPages requests a fresh, zero-filled, page-aligned anonymous
// mapping of size bytes from the OS. size must already be a multiple
// of the page size.
func mmapPages(size int) ([]byte, error) {
	b, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_ANON)
	if err != nil {
		return nil, err
	}

	if uintptr(unsafe.Pointer(&b[0]))&uintptr(osPageMask) != 0 {
		panic("uheap: mmap returned a non-page-aligned address")
	}

	return b, nil
}

// unmapPages releases a mapping previously returned by mmapPages.
func unmapPages(b []byte) error {
	return unix.Munmap(b)
}

// protectPagesRaw calls set_page_protection (spec.md §1) on the page
// range [addr, addr+size).
func protectPagesRaw(addr uintptr, size int, prot Prot) error {
	var osProt int
	if prot&ProtRead != 0 {
		osProt |= unix.PROT_READ
	}
	if prot&ProtWrite != 0 {
		osProt |= unix.PROT_WRITE
	}
	if prot&ProtExec != 0 {
		osProt |= unix.PROT_EXEC
	}

	b := unsafe.Slice((*byte)(unsafe.Pointer(addr)), size)
	return unix.Mprotect(b, osProt)
}
