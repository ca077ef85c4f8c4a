package a64hook

import (
	"unsafe"

	"github.com/apex/log"
)

// window is the immutable input to the relocator: exactly N 32-bit
// instruction words starting at a live address in the hooked function.
type window struct {
	words []uint32
	base  uintptr
}

func newWindow(addr unsafe.Pointer, n int) window {
	return window{
		words: unsafe.Slice((*uint32)(addr), n),
		base:  uintptr(addr),
	}
}

func (w *window) n() int { return len(w.words) }

func (w *window) end() uintptr { return w.base + uintptr(4*len(w.words)) }

func (w *window) addr(i int) uintptr { return w.base + uintptr(4*i) }

func (w *window) indexOf(addr uintptr) int { return int((addr - w.base) / 4) }

func (w *window) inWindow(addr uintptr) bool { return addr >= w.base && addr < w.end() }

// outputCursor is the monotonically advancing write position into a
// caller-owned, writable, executable word buffer.
type outputCursor struct {
	buf  []uint32
	base uintptr
	pos  int
}

func newOutputCursor(buf []uint32, base uintptr) *outputCursor {
	return &outputCursor{buf: buf, base: base}
}

func (o *outputCursor) addr() uintptr { return o.base + uintptr(4*o.pos) }

func (o *outputCursor) addrAt(i int) uintptr { return o.base + uintptr(4*i) }

func (o *outputCursor) emit(word uint32) {
	o.buf[o.pos] = word
	o.pos++
}

func (o *outputCursor) emitNOP() { o.emit(nopWord) }

// emitBytes writes raw bytes (a literal snapshot) at the current
// position, which must already be aligned to len(b). Returns the
// number of words consumed.
func (o *outputCursor) emitBytes(b []byte) int {
	words := len(b) / 4
	for i := 0; i < words; i++ {
		o.buf[o.pos+i] = *(*uint32)(unsafe.Pointer(&b[i*4]))
	}
	o.pos += words
	return words
}

// fixup is a single deferred cross-reference: the output word at
// patchAddr must later have
// (((targetOutAddr-patchAddr)>>preShift)<<shift) & mask OR-combined
// into it. Every caller passes preShift 2: the branch families (C2/C3)
// have word-granular fields, and an in-window ADR target (C5) is an
// instruction address, so its offset is a whole number of words that
// goes into immhi while immlo stays zero.
type fixup struct {
	patchAddr uintptr
	preShift  uint
	shift     uint32
	mask      uint32
}

// fixupContext is C1: it tracks, for each of the up to MaxInstructions
// displaced input words, where its primary translation begins in the
// output stream, and any deferred fix-ups filed against it by
// instructions processed earlier that referenced it before its output
// address was known.
type fixupContext struct {
	w          *window
	outAddr    [MaxInstructions]uintptr
	began      [MaxInstructions]bool
	pending    [MaxInstructions][MaxReferences]fixup
	pendingLen [MaxInstructions]int
}

func newFixupContext(w *window) *fixupContext {
	return &fixupContext{w: w}
}

func (c *fixupContext) indexOf(addr uintptr) int { return c.w.indexOf(addr) }

func (c *fixupContext) inWindow(addr uintptr) bool { return c.w.inWindow(addr) }

// begin records the output address at which input instruction i's
// primary translated form starts. Must be called before any word of
// i's translation is emitted.
func (c *fixupContext) begin(i int, out *outputCursor) int {
	c.outAddr[i] = out.addr()
	c.began[i] = true
	return i
}

// realign updates out_addr[i] after leading NOPs were inserted for
// literal-pool alignment, so later resolve() calls patch against the
// true primary-form address rather than the alignment padding.
func (c *fixupContext) realign(i int, out *outputCursor) {
	c.outAddr[i] = out.addr()
}

// deferFixup files a forward reference: input i has not yet been
// translated, so the OR-patch at patchAddr must wait until i is
// visited and resolve(i) drains it. A full pending list is structurally
// unreachable given MaxReferences = 2*MaxInstructions; the entry is
// dropped rather than panicking, matching And64InlineHook.cpp's
// documented defensive behavior, and an error is logged.
func (c *fixupContext) deferFixup(j int, patchAddr uintptr, preShift uint, shift, mask uint32) {
	n := c.pendingLen[j]
	if n >= MaxReferences {
		log.Errorf("a64hook: pending fix-up list for instruction %d is full, dropping fix-up", j)
		return
	}
	c.pending[j][n] = fixup{patchAddr: patchAddr, preShift: preShift, shift: shift, mask: mask}
	c.pendingLen[j] = n + 1
}

// resolve drains every fix-up filed against instruction i now that its
// final output address is known, OR-combining the recomputed
// displacement into the instruction word already sitting at each
// patchAddr.
func (c *fixupContext) resolve(out *outputCursor, i int) {
	target := c.outAddr[i]
	for k := 0; k < c.pendingLen[i]; k++ {
		f := c.pending[i][k]
		off := (int64(target) - int64(f.patchAddr)) >> f.preShift
		field := (uint32(off) << f.shift) & f.mask
		idx := int((f.patchAddr - out.base) / 4)
		out.buf[idx] |= field
	}
	c.pendingLen[i] = 0
}

// resolveOrDefer is the common C2/C3/C5 pattern for a branch target
// that falls inside the displaced window: i is the index of the
// instruction currently being translated, and targetAddr's index j is
// a backward reference (already translated, outAddr[j] known) when
// j <= i, otherwise a forward reference resolved later when j is
// reached. preShift is 2 for every caller (see fixup).
func (c *fixupContext) resolveOrDefer(i int, targetAddr, patchAddr uintptr, preShift uint, shift, mask uint32) (immediate uint32, deferred bool) {
	j := c.indexOf(targetAddr)
	if j <= i {
		off := (int64(c.outAddr[j]) - int64(patchAddr)) >> preShift
		return (uint32(off) << shift) & mask, false
	}
	c.deferFixup(j, patchAddr, preShift, shift, mask)
	return 0, true
}
