package a64hook

// tryRewriteBranch is C2: the unconditional branch-immediate rewriter
// for B and BL. Returns false if ins isn't one of those two forms.
func tryRewriteBranch(ctx *fixupContext, i int, out *outputCursor) bool {
	ins := ctx.w.words[i]
	op := ins & maskB26
	if op != opB && op != opBL {
		return false
	}
	isBL := op == opBL

	byteOff := int64(signExtend(ins&immMaskB, 26)) * 4
	pc := ctx.w.addr(i)
	tgt := uintptr(int64(pc) + byteOff)

	ctx.begin(i, out)
	patchAddr := out.addr()

	switch {
	case ctx.inWindow(tgt):
		imm, _ := ctx.resolveOrDefer(i, tgt, patchAddr, 2, 0, immMaskB)
		out.emit(op | imm)

	default:
		outOff := (int64(tgt) - int64(patchAddr)) >> 2
		if abs64(outOff) < (1 << signBitB) {
			out.emit(op | (uint32(outOff) & immMaskB))
		} else {
			emitAbsoluteJump(ctx, i, out, isBL, tgt)
		}
	}
	ctx.resolve(out, i)
	return true
}

// emitAbsoluteJump synthesizes the literal-pool indirect jump used
// whenever a rewritten branch's new displacement no longer fits its
// immediate field. The BL form additionally restores X30 via ADR so
// the callee observes the correct return address; the B form does not
// touch the link register.
func emitAbsoluteJump(ctx *fixupContext, i int, out *outputCursor, isBL bool, tgt uintptr) {
	literalOffsetWords := 2
	if isBL {
		literalOffsetWords = 3
	}
	if out.addrAt(out.pos+literalOffsetWords)&7 != 0 {
		out.emitNOP()
		ctx.realign(i, out)
	}

	if isBL {
		out.emit(ldrX17Imm12)
		out.emit(adrX30Imm16)
	} else {
		out.emit(ldrX17Imm8)
	}
	out.emit(brX17)
	emitAddress(out, tgt)
}

// emitAddress writes an 8-byte absolute address as two little-endian
// words, the inline literal every absolute-indirect-jump sequence ends
// with.
func emitAddress(out *outputCursor, addr uintptr) {
	out.emit(uint32(addr))
	out.emit(uint32(uint64(addr) >> 32))
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
