package a64hook

// relocate is C6, the driver: it walks every instruction in the
// displaced window, dispatching each to C2 → C3 → C4 → C5 in turn,
// copying anything none of them recognize verbatim, then appends a
// jump back into the original function at the word immediately past
// the window.
func relocate(w *window, out *outputCursor) {
	ctx := newFixupContext(w)
	for i := 0; i < w.n(); i++ {
		switch {
		case tryRewriteBranch(ctx, i, out):
		case tryRewriteCondBranch(ctx, i, out):
		case tryRewriteLiteralLoad(ctx, i, out):
		case tryRewritePCRelAddr(ctx, i, out):
		default:
			ctx.begin(i, out)
			out.emit(w.words[i])
			ctx.resolve(out, i)
		}
	}
	emitTailJump(out, w.end())
}

// emitTailJump appends the jump from the end of the relocated window
// back to the uninterrupted tail of the original function.
func emitTailJump(out *outputCursor, target uintptr) {
	byteOff := int64(target) - int64(out.addr())
	if abs64(byteOff>>2) < (1 << signBitB) {
		out.emit(bWord(int32(byteOff)))
		return
	}
	if out.addrAt(out.pos+2)&7 != 0 {
		out.emitNOP()
	}
	out.emit(ldrX17Imm8)
	out.emit(brX17)
	emitAddress(out, target)
}
