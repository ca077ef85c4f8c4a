//go:build arm64 && !windows

package a64hook

/*
static void a64hook_clear_cache(void *start, void *end) {
	__builtin___clear_cache((char *)start, (char *)end);
}
*/
import "C"

import "unsafe"

// flushICache invalidates the I-cache (and ensures D-cache writebacks
// are visible) for [addr, addr+size) via the compiler builtin, the
// same mechanism the source library's arm64 override path uses.
func flushICache(addr uintptr, size uintptr) {
	start := unsafe.Pointer(addr)
	end := unsafe.Pointer(addr + size)
	C.a64hook_clear_cache(start, end)
}
