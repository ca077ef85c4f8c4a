package a64hook

import "errors"

// Sentinel errors returned by the installer. None of these ever
// propagate as a panic; a caller distinguishes failure modes with
// errors.Is.
var (
	// ErrPoolExhausted is returned when the trampoline pool has handed
	// out every slot and a caller asked for a pool-allocated trampoline.
	ErrPoolExhausted = errors.New("a64hook: trampoline pool exhausted")

	// ErrBufferTooSmall is returned by HookV when the caller-supplied
	// RWX buffer cannot hold the worst-case relocated expansion.
	ErrBufferTooSmall = errors.New("a64hook: rwx buffer too small")

	// ErrProtect wraps a page-protection syscall failure (mprotect on
	// unix, VirtualProtect on Windows).
	ErrProtect = errors.New("a64hook: page protection change failed")

	// ErrNotFunction is returned when symbol or replace is nil.
	ErrNotFunction = errors.New("a64hook: symbol and replace must be non-nil function addresses")
)
