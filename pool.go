package a64hook

import (
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/apex/log"
)

// trampolinePool is the process-wide array of fixed-size trampoline
// slots of TrampolineSlotWords words each. The array and its slots are
// not page-aligned; makePageRWX rounds the pool's range out to whole
// pages. It is mapped RWX exactly once, lazily, the first
// time Hook is called without a caller-supplied buffer; slots are
// handed out by a single atomic increment and are never reclaimed.
var trampolinePool [MaxBackups][TrampolineSlotWords]uint32

var (
	poolInitOnce sync.Once
	poolInitErr  error
	poolNext     int32
)

func preparePool() error {
	poolInitOnce.Do(func() {
		size := MaxBackups * TrampolineSlotWords * 4
		poolInitErr = makePageRWX(unsafe.Pointer(&trampolinePool[0][0]), size)
		if poolInitErr != nil {
			log.WithError(poolInitErr).Error("a64hook: failed to map trampoline pool RWX")
		}
	})
	return poolInitErr
}

// allocateSlot hands out the next trampoline slot via a lock-free
// fetch-and-increment, matching the source library's
// __atomic_increase-based allocator. Deallocation is not supported, the
// same tradeoff the source makes for a hooking core whose hooks
// typically live for the remainder of the process.
func allocateSlot() (*[TrampolineSlotWords]uint32, error) {
	if err := preparePool(); err != nil {
		return nil, err
	}
	idx := atomic.AddInt32(&poolNext, 1) - 1
	if idx >= MaxBackups {
		log.Error("a64hook: trampoline pool exhausted")
		return nil, ErrPoolExhausted
	}
	return &trampolinePool[idx], nil
}
