// Package a64hook implements an AArch64 inline-hooking core: given the
// address of a live function and a replacement, it rewrites the
// function's prologue so future calls divert to the replacement, while
// producing a trampoline that faithfully replays the displaced
// instructions and falls through to the uninterrupted remainder of the
// original function.
//
// The hard part, and the one this package spends most of its code on,
// is the instruction relocator (relocate.go and its four dispatch
// targets: branch.go, condbranch.go, literal.go, pcrel.go). Moving a
// handful of instructions to a new address changes the effective
// target of every PC-relative operand among them — branches, literal
// loads, and address-forming ADR/ADRP — and the relocator has to
// either recompute those targets in place or, when the new
// displacement no longer fits the instruction's immediate field,
// synthesize an absolute indirect jump through a small inline literal
// pool.
//
//	tramp, err := a64hook.Hook(symbolAddr, replaceAddr)
//	if err != nil {
//		// symbolAddr's prologue has not been touched
//	}
//	// tramp now calls symbolAddr's original behavior
//
// Hook pulls a trampoline slot from a process-wide pool mapped RWX on
// first use; HookV lets the caller supply its own RWX buffer instead.
//
// Known limitations, preserved from the algorithm this package is
// based on: an ADRP in the displaced window whose computed page
// address also falls inside that window is copied verbatim with a
// warning rather than fixed up (see pcrel.go); inlined literals are
// snapshotted at relocation time, so a function whose literal pool is
// mutated at runtime will see the trampoline diverge; and the
// long-patch prologue write is not atomic, so installing a hook while
// the target is being entered concurrently is undefined, as it is for
// essentially every inline hooking technique.
package a64hook
