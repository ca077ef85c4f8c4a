package a64hook

import "github.com/apex/log"

// tryRewritePCRelAddr is C5: ADR and ADRP. Both compute an address from
// the 21-bit immhi:immlo field; ADR's offset is byte-granular, ADRP's
// is a 4KiB page count.
func tryRewritePCRelAddr(ctx *fixupContext, i int, out *outputCursor) bool {
	ins := ctx.w.words[i]
	op := ins & maskAdr
	if op != opADR && op != opADRP {
		return false
	}

	lsbBytes := (ins << 1) >> 30
	immHi := uint32(int32(ins<<msbAdr) >> (msbAdr + lsbAdr - 2))
	combined := (immHi &^ 3) | lsbBytes
	byteOff := int64(int32(combined))

	pc := ctx.w.addr(i)
	rd := ins & rdMaskAdr
	keep := ins & lowFieldAdr

	ctx.begin(i, out)
	patchAddr := out.addr()

	if op == opADRP {
		pageBase := pc &^ 0xfff
		tgt := uintptr(int64(pageBase) + byteOff<<12)
		if ctx.inWindow(tgt) {
			log.Warnf("a64hook: ADRP target 0x%x falls inside the displaced window; copying verbatim", tgt)
			out.emit(ins)
		} else {
			emitAdrAbsolute(ctx, i, out, rd, tgt)
		}
		ctx.resolve(out, i)
		return true
	}

	// ADR
	tgt := uintptr(int64(pc) + byteOff)
	switch {
	case ctx.inWindow(tgt):
		imm, _ := ctx.resolveOrDefer(i, tgt, patchAddr, 2, lsbAdr, fieldMaskAdr)
		out.emit(keep | imm)

	default:
		outOff := int64(tgt) - int64(patchAddr)
		if abs64(outOff) < int64(maxAdr21>>1) {
			off := uint32(outOff)
			immLo := (off & 3) << 29
			immHi := ((off >> 2) << lsbAdr) & fieldMaskAdr
			out.emit(keep&^(3<<29) | immLo | immHi)
		} else {
			emitAdrAbsolute(ctx, i, out, rd, tgt)
		}
	}
	ctx.resolve(out, i)
	return true
}

// emitAdrAbsolute is the literal-load fallback shared by ADR-overflow
// and every ADRP-outside-the-window case: materialize the precomputed
// absolute address (or page base) via an inline literal rather than
// attempting to re-encode an out-of-range immhi:immlo field.
func emitAdrAbsolute(ctx *fixupContext, i int, out *outputCursor, rd uint32, tgt uintptr) {
	if out.addrAt(out.pos+2)&7 != 0 {
		out.emitNOP()
		ctx.realign(i, out)
	}
	out.emit(ldrLiteralImm8(rd))
	out.emit(bWord(12))
	emitAddress(out, tgt)
}
