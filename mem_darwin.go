//go:build darwin

package a64hook

/*
#include <sys/mman.h>
#include <stdint.h>

static int a64hook_mprotect(uintptr_t addr, size_t len) {
	return mprotect((void *)addr, len, PROT_READ | PROT_WRITE | PROT_EXEC);
}
*/
import "C"

import (
	"fmt"
	"runtime"
	"unsafe"
)

func init() {
	// Mirrors the source library's convention of pinning the calling
	// goroutine to its OS thread before touching page protection on
	// Darwin, where thread-local JIT write-protection state exists on
	// Apple Silicon.
	runtime.LockOSThread()
}

func calcBoundaries(addr uintptr, size int) (pageAddr uintptr, pageLen int) {
	end := addr + uintptr(size)
	pageAddr = addr &^ uintptr(PageSize-1)
	pageEnd := (end + uintptr(PageSize-1)) &^ uintptr(PageSize-1)
	return pageAddr, int(pageEnd - pageAddr)
}

func makePageRWX(addr unsafe.Pointer, size int) error {
	pageAddr, pageLen := calcBoundaries(uintptr(addr), size)
	if rc := C.a64hook_mprotect(C.uintptr_t(pageAddr), C.size_t(pageLen)); rc != 0 {
		return fmt.Errorf("mprotect: rc=%d", int(rc))
	}
	return nil
}
