// Copyright 2011 Evan Shaw. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE-MMAP-GO file.

// Modifications (c) 2017 The Memory Authors.

package uheap

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

// mmapPages requests a fresh, zero-filled, page-aligned anonymous
// mapping of size bytes via VirtualAlloc. Unlike the teacher's
// CreateFileMapping/MapViewOfFile approach, VirtualAlloc gives us a
// plain committed region whose protection VirtualProtect can change in
// place, which the page-file-view approach cannot do portably.
func mmapPages(size int) ([]byte, error) {
	addr, err := windows.VirtualAlloc(0, uintptr(size), windows.MEM_COMMIT|windows.MEM_RESERVE, windows.PAGE_READWRITE)
	if err != nil {
		return nil, err
	}

	if addr&uintptr(osPageMask) != 0 {
		panic("uheap: VirtualAlloc returned a non-page-aligned address")
	}

	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), size), nil
}

// unmapPages releases a mapping previously returned by mmapPages.
func unmapPages(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	return windows.VirtualFree(uintptr(unsafe.Pointer(&b[0])), 0, windows.MEM_RELEASE)
}

// protectPagesRaw calls set_page_protection (spec.md §1) on the page
// range [addr, addr+size).
func protectPagesRaw(addr uintptr, size int, prot Prot) error {
	var osProt uint32
	switch {
	case prot&ProtExec != 0 && prot&ProtWrite != 0:
		osProt = windows.PAGE_EXECUTE_READWRITE
	case prot&ProtExec != 0 && prot&ProtRead != 0:
		osProt = windows.PAGE_EXECUTE_READ
	case prot&ProtExec != 0:
		osProt = windows.PAGE_EXECUTE
	case prot&ProtWrite != 0:
		osProt = windows.PAGE_READWRITE
	case prot&ProtRead != 0:
		osProt = windows.PAGE_READONLY
	default:
		osProt = windows.PAGE_NOACCESS
	}

	var old uint32
	return windows.VirtualProtect(addr, uintptr(size), osProt, &old)
}
