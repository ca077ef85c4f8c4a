package a64hook

import "unsafe"

// tryRewriteLiteralLoad is C4: PC-relative LDR (Wt/Xt, St/Dt/Qt,
// signed-word) and PRFM literal. PRFM is a hint with no register
// destination to preserve continuity for, so it is simply dropped.
func tryRewriteLiteralLoad(ctx *fixupContext, i int, out *outputCursor) bool {
	ins := ctx.w.words[i]

	if ins&maskPRFM == opPRFM {
		ctx.begin(i, out)
		ctx.resolve(out, i)
		return true
	}

	var alignMask uint32
	switch {
	case ins&maskLDR == opLDR:
		if ins&bit30LDR != 0 {
			alignMask = 7
		} else {
			alignMask = 3
		}
	case ins&maskLDRV == opLDRV:
		switch {
		case ins&bit31LDRV != 0:
			alignMask = 15
		case ins&bit30LDR != 0:
			alignMask = 7
		default:
			alignMask = 3
		}
	case ins&maskLDRSW == opLDRSW:
		alignMask = 7
	default:
		return false
	}

	imm19 := (ins &^ lowFieldLit) >> lsbLit
	byteOff := int64(signExtend(imm19, 19)) * 4
	pc := ctx.w.addr(i)
	tgt := uintptr(int64(pc) + byteOff)

	ctx.begin(i, out)
	keep := ins & lowFieldLit

	const imm19Limit = 1 << 18
	slackWords := int64(alignMask+1-4) / 4
	outOff := (int64(tgt) - int64(out.addr())) >> 2

	if ctx.inWindow(tgt) || abs64(outOff)+slackWords >= imm19Limit {
		inlineLiteral(out, keep, alignMask, tgt)
	} else {
		for out.addr()&uintptr(alignMask) != 0 {
			out.emitNOP()
		}
		newOff := (int64(tgt) - int64(out.addr())) >> 2
		out.emit(keep | ((uint32(newOff) << lsbLit) &^ lowFieldLit))
	}
	ctx.resolve(out, i)
	return true
}

// inlineLiteral snapshots the literal's bytes directly into the
// trampoline: LDR <Rt>, #8 loads from the very next aligned position,
// a B skips over the K data words, then the raw bytes follow. The
// snapshot is taken at relocation time; if the source program later
// mutates the literal in place, the trampoline's copy diverges — an
// accepted limitation for what is overwhelmingly used for constants.
func inlineLiteral(out *outputCursor, keep uint32, alignMask uint32, tgt uintptr) {
	for out.addrAt(out.pos+2)&uintptr(alignMask) != 0 {
		out.emitNOP()
	}
	size := int(alignMask) + 1
	k := size / 4
	out.emit(keep | (uint32(2) << lsbLit))
	out.emit(bWord(int32(4 + 4*k)))
	out.emitBytes(unsafe.Slice((*byte)(unsafe.Pointer(tgt)), size))
}
