//go:build arm64 && !windows

package a64hook

import (
	"reflect"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

// These tests patch the prologue of a real, live function, so inlining
// must be disabled for them to mean anything:
//
//	go test -gcflags="all=-N -l" [<path>]

var hookCounter int

//go:noinline
func hookedAdd(a, b int) int {
	hookCounter++
	return a + b
}

//go:noinline
func hookReplacementAdd(a, b int) int {
	return a * b
}

//go:noinline
func hookedSub(a, b int) int {
	return a - b
}

//go:noinline
func hookReplacementSub(a, b int) int {
	return b - a
}

func funcAddr(fn interface{}) unsafe.Pointer {
	return reflect.ValueOf(fn).UnsafePointer()
}

func TestHook_DivertsCalls(t *testing.T) {
	before := hookedAdd(2, 3)
	require.Equal(t, 5, before)

	_, err := Hook(funcAddr(hookedAdd), funcAddr(hookReplacementAdd))
	require.NoError(t, err)

	after := hookedAdd(2, 3)
	require.Equal(t, 6, after) // replacement multiplies instead of adding
}

func TestHook_RejectsNilArguments(t *testing.T) {
	_, err := Hook(nil, funcAddr(hookReplacementAdd))
	require.ErrorIs(t, err, ErrNotFunction)

	_, err = Hook(funcAddr(hookedAdd), nil)
	require.ErrorIs(t, err, ErrNotFunction)
}

func TestHookV_RejectsUndersizedBuffer(t *testing.T) {
	buf := make([]byte, 4)
	_, err := HookV(funcAddr(hookedSub), funcAddr(hookReplacementSub), buf)
	require.ErrorIs(t, err, ErrBufferTooSmall)
}

func TestHookV_WithCallerBuffer(t *testing.T) {
	before := hookedSub(5, 2)
	require.Equal(t, 3, before)

	buf := make([]byte, TrampolineSlotWords*4)
	tramp, err := HookV(funcAddr(hookedSub), funcAddr(hookReplacementSub), buf)
	require.NoError(t, err)
	require.Equal(t, unsafe.Pointer(&buf[0]), tramp)

	after := hookedSub(5, 2)
	require.Equal(t, -3, after) // replacement reverses the subtraction
}
