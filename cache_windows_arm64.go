//go:build windows && arm64

package a64hook

import (
	"golang.org/x/sys/windows"
)

var modkernel32 = windows.NewLazySystemDLL("kernel32.dll")
var procFlushInstructionCache = modkernel32.NewProc("FlushInstructionCache")

// flushICache invalidates the I-cache for [addr, addr+size) via the
// Win32 FlushInstructionCache API, the Windows/ARM64 equivalent of the
// cgo __builtin___clear_cache path used elsewhere.
func flushICache(addr uintptr, size uintptr) {
	curProcess := windows.CurrentProcess()
	_, _, _ = procFlushInstructionCache.Call(
		uintptr(curProcess),
		addr,
		size,
	)
}
