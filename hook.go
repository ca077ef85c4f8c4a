//go:build arm64

package a64hook

import (
	"fmt"
	"sync/atomic"
	"unsafe"

	"github.com/apex/log"
)

// Hook installs an inline hook at symbol that diverts every future call
// to replace, allocating the trampoline from the process-wide pool.
// Both symbol and replace must be live function addresses.
func Hook(symbol, replace unsafe.Pointer) (unsafe.Pointer, error) {
	if symbol == nil || replace == nil {
		return nil, ErrNotFunction
	}
	n := instructionCount(symbol, replace)
	slot, err := allocateSlot()
	if err != nil {
		return nil, err
	}
	out := newOutputCursor(slot[:], uintptr(unsafe.Pointer(&slot[0])))
	if err := install(symbol, replace, n, out); err != nil {
		return nil, err
	}
	return unsafe.Pointer(&slot[0]), nil
}

// HookV is Hook using a caller-owned RWX buffer instead of the pool.
// The returned trampoline address equals unsafe.Pointer(&rwx[0]) on
// success.
func HookV(symbol, replace unsafe.Pointer, rwx []byte) (unsafe.Pointer, error) {
	if symbol == nil || replace == nil {
		return nil, ErrNotFunction
	}
	n := instructionCount(symbol, replace)
	if len(rwx) < n*10*4 {
		log.Errorf("a64hook: rwx buffer too small: need %d bytes, have %d", n*10*4, len(rwx))
		return nil, ErrBufferTooSmall
	}
	words := unsafe.Slice((*uint32)(unsafe.Pointer(&rwx[0])), len(rwx)/4)
	out := newOutputCursor(words, uintptr(unsafe.Pointer(&rwx[0])))
	if err := install(symbol, replace, n, out); err != nil {
		return nil, err
	}
	return unsafe.Pointer(&rwx[0]), nil
}

// instructionCount decides how many prologue words must be displaced:
// 1 if a single B can reach replace, otherwise 4 or 5 depending on
// whether the long-patch literal would land 8-aligned.
func instructionCount(symbol, replace unsafe.Pointer) int {
	disp := (int64(uintptr(replace)) - int64(uintptr(symbol))) >> 2
	if abs64(disp) < (1 << signBitB) {
		return 1
	}
	if (uintptr(symbol)+8)&7 == 0 {
		return 4
	}
	return 5
}

// install is C7's core: relocate the displaced prologue into out, then
// atomically (short patch) or non-atomically (long patch) overwrite the
// live prologue at symbol to divert to replace.
func install(symbol, replace unsafe.Pointer, n int, out *outputCursor) error {
	w := newWindow(symbol, n)
	relocate(&w, out)
	flushICache(out.base, uintptr(out.pos*4))

	disp := (int64(uintptr(replace)) - int64(uintptr(symbol))) >> 2

	if n == 1 {
		if err := makePageRWX(symbol, 4); err != nil {
			return fmt.Errorf("%w: %v", ErrProtect, err)
		}
		word := ptrWord(uintptr(symbol))
		newWord := opB | (uint32(disp) & immMaskB)
		atomic.CompareAndSwapUint32(word, *word, newWord)
		flushICache(uintptr(symbol), 4)
		return nil
	}

	if err := makePageRWX(symbol, 5*4); err != nil {
		return fmt.Errorf("%w: %v", ErrProtect, err)
	}
	words := unsafe.Slice((*uint32)(symbol), 5)
	idx := 0
	if n == 5 {
		words[idx] = nopWord
		idx++
	}
	words[idx] = ldrX17Imm8
	words[idx+1] = brX17
	lo := uint32(uintptr(replace))
	hi := uint32(uint64(uintptr(replace)) >> 32)
	words[idx+2] = lo
	words[idx+3] = hi
	flushICache(uintptr(symbol), 20)
	return nil
}

func ptrWord(addr uintptr) *uint32 {
	return (*uint32)(unsafe.Pointer(addr))
}
