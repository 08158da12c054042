// Package riscv implements the RISC-V instruction interpreter: the
// architectural state it mutates, the decoder, and the per-opcode
// execution semantics for the base integer ISA together with the M,
// F, A, Zicsr and Zifencei extensions.
//
// Grounded on original_source/src/cpu.rs (the CPU struct and its
// execute method) and the teacher's VM struct (bassosimone/risc32
// pkg/vm/vm.go), generalized from the teacher's fixed 32-bit RiSC-32
// word to the RISC-V RV32/RV64 register file.
package riscv

import (
	"time"

	"github.com/bassosimone/risc-v-emu/pkg/bus"
)

// XLen is the integer register width an instance of State targets.
type XLen int

const (
	// XLEN32 targets the 32-bit base integer ISA.
	XLEN32 XLen = 32

	// XLEN64 targets the 64-bit base integer ISA.
	XLEN64 XLen = 64
)

// NumRegisters is the number of integer (and float) registers.
const NumRegisters = 32

// CSR addresses required by the core (spec.md §3).
const (
	CSRFcsr  = 0x003
	CSRCycle = 0xC00
	CSRTime  = 0xC01
)

// fcsr bit layout.
const (
	fcsrDZBit   = 1 << 3 // divide-by-zero flag
	fcsrFRMMask = 0b111
	fcsrFRMPos  = 5
)

// State is the complete architectural state of one hart: the integer
// and float register files, the CSR space, the program counter, and
// the load-reserved/store-conditional reservation set. It owns the bus
// through which all memory traffic flows.
type State struct {
	XLen XLen

	X    [NumRegisters]uint64 // integer registers; x[0] always reads 0
	F    [NumRegisters]uint32 // float registers, IEEE-754 binary32 bit patterns
	CSR  [4096]uint64         // control and status registers
	PC   uint64

	Bus *bus.Bus

	reservations []uint64
	lastTimeTick time.Time
	timeArmed    bool
}

// NewState constructs architectural state wired to bus b. The stack
// pointer (x2) is set to sp and the program counter to pc, both as
// given: the caller (the emulator driver) computes them from the bus
// layout (RAMBase+ramSize for sp; ROMBase or RAMBase for pc).
func NewState(xlen XLen, b *bus.Bus, sp, pc uint64) *State {
	s := &State{XLen: xlen, Bus: b, PC: pc}
	s.X[2] = sp
	return s
}

// mask returns the bitmask of the bits meaningful at the configured
// XLEN: all 64 bits for XLEN64, the low 32 bits for XLEN32.
func (s *State) mask() uint64 {
	if s.XLen == XLEN32 {
		return 0xFFFF_FFFF
	}
	return ^uint64(0)
}

// GetX reads integer register reg. x[0] always reads as zero.
func (s *State) GetX(reg uint32) uint64 {
	if reg == 0 {
		return 0
	}
	return s.X[reg&0x1F] & s.mask()
}

// SetX writes integer register reg, wrapping the stored value to the
// configured XLEN. Writes to x[0] are discarded, satisfying invariant
// P1 (x[0] reads as zero after every instruction retires) without
// requiring a separate end-of-cycle zeroing step.
func (s *State) SetX(reg uint32, v uint64) {
	if reg == 0 {
		return
	}
	s.X[reg&0x1F] = v & s.mask()
}

// SetXSext32 writes integer register reg with the 64-bit
// sign-extension of the low 32 bits of v. This is the write path used
// by every *W instruction and by the F-extension word-width integer
// conversions, satisfying invariant P2/P4: on XLEN64 the destination's
// upper 32 bits are the sign-extension of bit 31 of the 32-bit result.
func (s *State) SetXSext32(reg uint32, v uint32) {
	s.SetX(reg, uint64(int64(int32(v))))
}

// GetF reads float register reg as its IEEE-754 binary32 bit pattern.
func (s *State) GetF(reg uint32) uint32 {
	return s.F[reg&0x1F]
}

// SetF writes float register reg with an IEEE-754 binary32 bit pattern.
func (s *State) SetF(reg uint32, bits uint32) {
	s.F[reg&0x1F] = bits
}

// CSRRead reads a CSR. The full 0..4095 space is backed; there is no
// out-of-range error in this core.
func (s *State) CSRRead(addr uint32) uint64 {
	return s.CSR[addr&0xFFF] & s.csrMask()
}

// CSRWrite writes a CSR.
func (s *State) CSRWrite(addr uint32, v uint64) {
	s.CSR[addr&0xFFF] = v & s.csrMask()
}

// csrMask mirrors the XLEN width of the integer registers: CSRs are
// "XLEN-wide cells" per spec.md §3.
func (s *State) csrMask() uint64 {
	return s.mask()
}

// SetDivideByZero sets the DZ (divide-by-zero) flag in fcsr.
func (s *State) SetDivideByZero() {
	s.CSR[CSRFcsr] |= fcsrDZBit
}

// RoundingMode returns the current FRM field (fcsr[7:5]) and whether
// it is one of the six legal encodings (0..4, 7).
func (s *State) RoundingMode() (mode uint32, ok bool) {
	mode = uint32(s.CSR[CSRFcsr]>>fcsrFRMPos) & fcsrFRMMask
	ok = mode <= 4 || mode == 7
	return
}

// Reserve inserts addr into the reservation set, deduplicating on
// insert per the design note in spec.md §9.
func (s *State) Reserve(addr uint64) {
	for _, a := range s.reservations {
		if a == addr {
			return
		}
	}
	s.reservations = append(s.reservations, addr)
}

// Reserved reports whether addr currently holds a reservation.
func (s *State) Reserved(addr uint64) bool {
	for _, a := range s.reservations {
		if a == addr {
			return true
		}
	}
	return false
}

// InvalidateReservation removes addr from the reservation set, if
// present. Every store path (normal stores, successful SCs, AMOs) must
// call this for the address it writes.
func (s *State) InvalidateReservation(addr uint64) {
	for i, a := range s.reservations {
		if a == addr {
			s.reservations = append(s.reservations[:i], s.reservations[i+1:]...)
			return
		}
	}
}

// Tick advances the cycle-accurate bookkeeping CSRs: cycle increments
// by one every retired instruction (invariant P3/I4); time increments
// by one whenever at least one second of wall-clock time has elapsed
// since the previous increment, with the first call only arming the
// clock. Grounded on original_source/src/cpu.rs's update() method.
func (s *State) Tick() {
	s.CSR[CSRCycle]++
	if !s.timeArmed {
		s.lastTimeTick = time.Now()
		s.timeArmed = true
		return
	}
	if time.Since(s.lastTimeTick) >= time.Second {
		s.CSR[CSRTime]++
		s.lastTimeTick = time.Now()
	}
}
