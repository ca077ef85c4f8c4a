package a64hook

// tryRewriteCondBranch is C3: B.cond, CBZ/CBNZ, and TBZ/TBNZ. The three
// forms share a decode shape (word-granular immediate at lsb 5,
// opcode/condition/register bits living outside the immediate field)
// and differ only in the immediate's width and the mask that isolates
// it, so one function drives all three.
func tryRewriteCondBranch(ctx *fixupContext, i int, out *outputCursor) bool {
	ins := ctx.w.words[i]

	var lowField uint32
	var immBits uint
	switch {
	case ins&maskBCond == opBCond:
		lowField, immBits = lowFieldCB, 19
	case ins&maskCmpBranch == opCBZ || ins&maskCmpBranch == opCBNZ:
		lowField, immBits = lowFieldCB, 19
	case ins&maskTestBranch == opTBZ || ins&maskTestBranch == opTBNZ:
		lowField, immBits = lowFieldTB, 14
	default:
		return false
	}
	immMask := ^lowField

	fieldRaw := (ins &^ lowField) >> lsbCond
	byteOff := int64(signExtend(fieldRaw, immBits)) * 4
	pc := ctx.w.addr(i)
	tgt := uintptr(int64(pc) + byteOff)

	ctx.begin(i, out)
	patchAddr := out.addr()
	keep := ins & lowField

	switch {
	case ctx.inWindow(tgt):
		imm, _ := ctx.resolveOrDefer(i, tgt, patchAddr, 2, lsbCond, immMask)
		out.emit(keep | imm)

	default:
		outOff := (int64(tgt) - int64(patchAddr)) >> 2
		if abs64(outOff) < (1 << (immBits - 1)) {
			out.emit(keep | ((uint32(outOff) << lsbCond) & immMask))
		} else {
			emitCondLongBranch(ctx, i, out, keep, immMask, tgt)
		}
	}
	ctx.resolve(out, i)
	return true
}

// emitCondLongBranch builds the 6-word conditional-long-branch
// sequence: take the branch to skip 8 bytes ahead over a B that itself
// skips the absolute-jump literal, so the architectural effect matches
// "branch if condition else fall through" with an arbitrarily distant
// target.
func emitCondLongBranch(ctx *fixupContext, i int, out *outputCursor, keep, immMask uint32, tgt uintptr) {
	if out.addrAt(out.pos+4)&7 != 0 {
		out.emitNOP()
		ctx.realign(i, out)
	}
	out.emit(keep | ((uint32(2) << lsbCond) & immMask)) // original condition, displacement +8
	out.emit(bWord(20))                                 // unconditional fall-through skip
	out.emit(ldrX17Imm8)
	out.emit(brX17)
	emitAddress(out, tgt)
}
