//go:build unix && !darwin

package a64hook

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// calcBoundaries rounds [addr, addr+size) out to the enclosing
// PageSize-aligned range, since mprotect operates on whole pages.
func calcBoundaries(addr uintptr, size int) (pageAddr uintptr, pageLen int) {
	end := addr + uintptr(size)
	pageAddr = addr &^ uintptr(PageSize-1)
	pageEnd := (end + uintptr(PageSize-1)) &^ uintptr(PageSize-1)
	return pageAddr, int(pageEnd - pageAddr)
}

func makePageRWX(addr unsafe.Pointer, size int) error {
	pageAddr, pageLen := calcBoundaries(uintptr(addr), size)
	page := unsafe.Slice((*byte)(unsafe.Pointer(pageAddr)), pageLen)
	return unix.Mprotect(page, unix.PROT_READ|unix.PROT_WRITE|unix.PROT_EXEC)
}
