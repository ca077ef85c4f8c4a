package a64hook

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func cbzWord(rt uint32, byteOff int32) uint32 {
	imm19 := uint32(byteOff/4) & 0x7ffff
	return opCBZ | (imm19 << lsbCond) | (rt & 0x1f)
}

func tbzWord(bitAndRt uint32, byteOff int32) uint32 {
	imm14 := uint32(byteOff/4) & 0x3fff
	return opTBZ | (imm14 << lsbCond) | bitAndRt
}

func TestTryRewriteCondBranch_NotRecognized(t *testing.T) {
	w := window{words: []uint32{nopWord}, base: 0x1000}
	ctx := newFixupContext(&w)
	out := newOutputCursor(make([]uint32, 8), 0x8000)
	require.False(t, tryRewriteCondBranch(ctx, 0, out))
}

func TestTryRewriteCondBranch_CBZInRange(t *testing.T) {
	ins := cbzWord(0, 0x40) // CBZ W0, #0x40
	w := window{words: []uint32{ins}, base: 0x1000}
	ctx := newFixupContext(&w)
	buf := make([]uint32, 8)
	out := newOutputCursor(buf, uintptr(0x2000))

	require.True(t, tryRewriteCondBranch(ctx, 0, out))
	tgt := uintptr(0x1000 + 0x40)
	wantOff := int32((int64(tgt) - int64(0x2000)) >> 2)
	gotImm := signExtend((buf[0]&^lowFieldCB)>>lsbCond, 19)
	require.Equal(t, wantOff, gotImm)
	require.Equal(t, ins&lowFieldCB, buf[0]&lowFieldCB) // Rt preserved
}

func TestTryRewriteCondBranch_TBZOverflow(t *testing.T) {
	// TBZ W0, #0, #+8 at 0x10000000, trampoline at 0x80000000: the
	// 14-bit field cannot hold that displacement, so the 6-word
	// conditional-long-branch sequence is synthesized.
	ins := tbzWord(0, 8) // Rt=0; bit-index bits left zero, irrelevant to this test

	w := window{words: []uint32{ins}, base: 0x10000000}
	ctx := newFixupContext(&w)
	buf := make([]uint32, 8)
	out := newOutputCursor(buf, uintptr(0x80000000))

	require.True(t, tryRewriteCondBranch(ctx, 0, out))
	require.Equal(t, 6, out.pos)
	require.Equal(t, bWord(20), buf[1])
	require.Equal(t, ldrX17Imm8, buf[2])
	require.Equal(t, brX17, buf[3])
	tgt := uint64(buf[4]) | uint64(buf[5])<<32
	require.Equal(t, uint64(0x10000008), tgt)
}
