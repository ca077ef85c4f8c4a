package a64hook

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRelocate_DispatchOrderAndOpaqueCopy(t *testing.T) {
	// word 0: B in range (C2); word 1: not recognized by anything, copied
	// verbatim (opaque fallback).
	words := []uint32{
		opB | (uint32(0x40/4) & immMaskB),
		0xd2800000, // MOVZ X0, #0 - not a branch/cond/literal/pcrel form
	}
	w := window{words: words, base: 0x1000}
	buf := make([]uint32, 16)
	out := newOutputCursor(buf, uintptr(0x2000))

	relocate(&w, out)

	wantOff0 := int32((int64(0x1040) - int64(0x2000)) >> 2)
	require.Equal(t, opB|(uint32(wantOff0)&immMaskB), buf[0])
	require.Equal(t, uint32(0xd2800000), buf[1])
}

func TestRelocate_BackwardSelfReference(t *testing.T) {
	// word 0: NOP (opaque); word 1: B back to word 0 (S6-style backward
	// in-window reference, driven end-to-end through the dispatcher).
	negOff := int32(-4) / 4
	words := []uint32{nopWord, opB | (uint32(negOff) & immMaskB)}
	w := window{words: words, base: 0x10000000}
	buf := make([]uint32, 16)
	out := newOutputCursor(buf, uintptr(0x20000000))

	relocate(&w, out)

	require.Equal(t, nopWord, buf[0])
	wantOff := int32((int64(0x20000000) - int64(0x20000004)) >> 2)
	require.Equal(t, opB|(uint32(wantOff)&immMaskB), buf[1])
}

func TestRelocate_TailJumpShort(t *testing.T) {
	w := window{words: []uint32{nopWord}, base: 0x1000}
	buf := make([]uint32, 8)
	out := newOutputCursor(buf, uintptr(0x2000))

	relocate(&w, out)

	require.Equal(t, nopWord, buf[0])
	wantOff := int32((int64(0x1004) - int64(0x2004)) >> 2)
	require.Equal(t, opB|(uint32(wantOff)&immMaskB), buf[1])
	require.Equal(t, 2, out.pos)
}

func TestRelocate_TailJumpLong(t *testing.T) {
	w := window{words: []uint32{nopWord}, base: 0x10000000}
	buf := make([]uint32, 8)
	out := newOutputCursor(buf, uintptr(0x80000000))

	relocate(&w, out)

	require.Equal(t, nopWord, buf[0])
	// The tail jump starts at 0x80000004; its literal would sit at
	// 0x8000000C, so an alignment NOP comes first.
	require.Equal(t, nopWord, buf[1])
	require.Equal(t, ldrX17Imm8, buf[2])
	require.Equal(t, brX17, buf[3])
	tgt := uint64(buf[4]) | uint64(buf[5])<<32
	require.Equal(t, uint64(0x10000004), tgt)
}
