// Package exception defines the closed set of fault kinds that can be
// raised by any layer of the emulator core: the bus on an out-of-range
// or read-only access, the interpreter on a misaligned atomic access
// or an undecodable instruction, and ECALL/EBREAK as the two
// recoverable "environment attention" exceptions.
//
// Grounded on original_source/src/exception.rs (a closed Rust enum),
// translated into the idiomatic Go shape used across the retrieval
// pack's own RISC-V interpreters: sentinel errors plus fmt.Errorf's
// %w wrapping, so callers can use errors.Is/errors.As instead of a
// type switch on an enum.
package exception

import (
	"errors"
	"fmt"
)

// The following sentinels identify each member of the closed fault set.
// Use errors.Is against these to classify an error returned from the
// bus or the interpreter.
var (
	// ErrLoadAccessFault indicates a load from an address the bus does
	// not map to any region.
	ErrLoadAccessFault = errors.New("riscv: load access fault")

	// ErrStoreAccessFault indicates a store to an address the bus does
	// not map to any writable region (including any store to ROM).
	ErrStoreAccessFault = errors.New("riscv: store access fault")

	// ErrLoadAddressMisaligned indicates an LR/SC/AMO address that is
	// not naturally aligned to its access width. This exception is
	// used exclusively by the A extension.
	ErrLoadAddressMisaligned = errors.New("riscv: load address misaligned")

	// ErrIllegalInstruction indicates the decoder or interpreter
	// rejected an instruction word (an unknown opcode/funct
	// combination, a reserved FRM encoding, or an undefined CSR
	// sub-op).
	ErrIllegalInstruction = errors.New("riscv: illegal instruction")

	// ErrEnvironmentCall indicates that ECALL retired.
	ErrEnvironmentCall = errors.New("riscv: environment call")

	// ErrBreakpoint indicates that EBREAK retired.
	ErrBreakpoint = errors.New("riscv: breakpoint")
)

// LoadAccessFault returns an error wrapping ErrLoadAccessFault with the
// faulting address for diagnostics.
func LoadAccessFault(addr uint64) error {
	return fmt.Errorf("%w: 0x%x", ErrLoadAccessFault, addr)
}

// StoreAccessFault returns an error wrapping ErrStoreAccessFault with
// the faulting address for diagnostics.
func StoreAccessFault(addr uint64) error {
	return fmt.Errorf("%w: 0x%x", ErrStoreAccessFault, addr)
}

// LoadAddressMisaligned returns an error wrapping
// ErrLoadAddressMisaligned with the faulting address for diagnostics.
func LoadAddressMisaligned(addr uint64) error {
	return fmt.Errorf("%w: 0x%x", ErrLoadAddressMisaligned, addr)
}

// IllegalInstruction returns an error wrapping ErrIllegalInstruction,
// carrying the offending instruction word for diagnostics.
func IllegalInstruction(word uint32) error {
	return fmt.Errorf("%w: 0x%08x", ErrIllegalInstruction, word)
}

// Recoverable reports whether err is one of the two exceptions the
// emulator driver treats as benign (program requested attention) and
// resumes execution after: EnvironmentCall and Breakpoint.
func Recoverable(err error) bool {
	return errors.Is(err, ErrEnvironmentCall) || errors.Is(err, ErrBreakpoint)
}
