//go:build windows

package a64hook

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

func calcBoundaries(addr uintptr, size int) (pageAddr uintptr, pageLen int) {
	end := addr + uintptr(size)
	pageAddr = addr &^ uintptr(PageSize-1)
	pageEnd := (end + uintptr(PageSize-1)) &^ uintptr(PageSize-1)
	return pageAddr, int(pageEnd - pageAddr)
}

func makePageRWX(addr unsafe.Pointer, size int) error {
	pageAddr, pageLen := calcBoundaries(uintptr(addr), size)
	var old uint32
	return windows.VirtualProtect(pageAddr, uintptr(pageLen), windows.PAGE_EXECUTE_READWRITE, &old)
}
