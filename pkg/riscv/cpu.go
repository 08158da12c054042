package riscv

import (
	"github.com/bassosimone/risc-v-emu/pkg/exception"
)

// Step fetches, decodes, and executes exactly one instruction against
// s, then advances the bookkeeping CSRs. It is the sole entry point
// the emulator driver calls once per cycle.
//
// Grounded on original_source/src/cpu.rs's execute() dispatch and the
// teacher's VM.Step single-instruction-per-call loop body
// (bassosimone/risc32 pkg/vm/vm.go), generalized from the teacher's
// single flat opcode switch to RISC-V's two-level opcode/funct3/funct7
// dispatch.
func Step(s *State) error {
	word, err := fetch(s)
	if err != nil {
		return err
	}
	d := Decode(word)
	err = dispatch(s, d)
	s.Tick()
	return err
}

// fetch reads the 32-bit instruction word at pc. The core does not
// implement a misaligned-fetch fault (§3: "misaligned PCs are a
// programming error"), so this is a plain bus read.
func fetch(s *State) (uint32, error) {
	return s.Bus.Read32(s.PC)
}

// dispatch routes a decoded instruction to its executing extension.
// Every branch either sets s.PC directly (jumps and taken branches)
// and returns, or falls through to the unconditional pc += 4 at the
// end — the "subtract 4 inside taken branches" convention is not
// used here; instead each path explicitly decides whether it already
// advanced pc.
func dispatch(s *State, d Decoded) error {
	pcBefore := s.PC
	advanced, err := execute(s, d)
	if err != nil {
		return err
	}
	if !advanced {
		s.PC = pcBefore + 4
	}
	return nil
}

// execute performs the semantics of one decoded instruction. It
// returns advanced=true when it has already set s.PC itself (jumps,
// taken branches, JALR); the caller adds 4 otherwise.
func execute(s *State, d Decoded) (advanced bool, err error) {
	switch d.Opcode {
	case opLUI, opAUIPC, opJAL, opJALR, opBranch, opLoad, opStore, opOpImm, opOp, opOpImm32, opOp32:
		return executeBase(s, d)
	case opMiscMem:
		return executeFence(s, d)
	case opSystem:
		return executeSystem(s, d)
	case opAMO:
		return executeAtomic(s, d)
	case opLoadFP, opStoreFP, opOpFP, opMADD, opMSUB, opNMSUB, opNMADD:
		return executeFloat(s, d)
	default:
		return false, exception.IllegalInstruction(d.Word)
	}
}

// executeFence implements FENCE (funct3 == 0b000) and FENCE.I
// (funct3 == 0b001), both no-ops in this single-hart, single-threaded
// core. Any other funct3 under the MISC-MEM opcode is not a defined
// instruction.
func executeFence(s *State, d Decoded) (bool, error) {
	switch d.Funct3 {
	case 0b000, 0b001:
		return false, nil
	default:
		return false, exception.IllegalInstruction(d.Word)
	}
}
