package riscv

import (
	"github.com/bassosimone/risc-v-emu/pkg/exception"
)

// A-extension funct5 encodings (instruction bits [31:27]; bits [26:25]
// are the aq/rl ordering bits, ignored by this single-hart core).
const (
	amoLR      = 0b00010
	amoSC      = 0b00011
	amoSwap    = 0b00001
	amoAdd     = 0b00000
	amoXor     = 0b00100
	amoAnd     = 0b01100
	amoOr      = 0b01000
	amoMin     = 0b10000
	amoMax     = 0b10100
	amoMinU    = 0b11000
	amoMaxU    = 0b11100
)

// executeAtomic implements LR.W/LR.D, SC.W/SC.D, and the
// AMO{SWAP,ADD,XOR,AND,OR,MIN,MAX,MINU,MAXU}.{W,D} family.
//
// Grounded on original_source/src/cpu.rs's atomic match arms
// (reservation-set insert/check/remove around a read-modify-write),
// adapted to funct5 dispatch per the RISC-V ISA manual's A-extension
// encoding table.
func executeAtomic(s *State, d Decoded) (bool, error) {
	width := 4
	if d.Funct3 == 0b011 {
		width = 8
	}
	addr := s.GetX(d.RS1)
	if addr%uint64(width) != 0 {
		return false, exception.LoadAddressMisaligned(addr)
	}
	funct5 := d.Funct7 >> 2

	switch funct5 {
	case amoLR:
		old, err := loadSext(s, addr, width)
		if err != nil {
			return false, err
		}
		s.Reserve(addr)
		s.SetX(d.RD, old)
		return false, nil

	case amoSC:
		if s.Reserved(addr) {
			if err := storeWidth(s, addr, s.GetX(d.RS2), width); err != nil {
				return false, err
			}
			s.InvalidateReservation(addr)
			s.SetX(d.RD, 0)
		} else {
			s.SetX(d.RD, 1)
		}
		return false, nil

	default:
		return false, executeAMORMW(s, d, funct5, addr, width)
	}
}

func executeAMORMW(s *State, d Decoded, funct5 uint32, addr uint64, width int) error {
	old, err := loadSext(s, addr, width)
	if err != nil {
		return err
	}
	operand := s.GetX(d.RS2)
	var result uint64
	switch funct5 {
	case amoSwap:
		result = operand
	case amoAdd:
		result = old + operand
	case amoXor:
		result = old ^ operand
	case amoAnd:
		result = old & operand
	case amoOr:
		result = old | operand
	case amoMin:
		result = selectMin(old, operand, width, true)
	case amoMax:
		result = selectMax(old, operand, width, true)
	case amoMinU:
		result = selectMin(old, operand, width, false)
	case amoMaxU:
		result = selectMax(old, operand, width, false)
	default:
		return exception.IllegalInstruction(d.Word)
	}
	if err := storeWidth(s, addr, result, width); err != nil {
		return err
	}
	s.InvalidateReservation(addr)
	s.SetX(d.RD, old)
	return nil
}

func selectMin(a, b uint64, width int, signed bool) uint64 {
	if less(a, b, width, signed) {
		return a
	}
	return b
}

func selectMax(a, b uint64, width int, signed bool) uint64 {
	if less(a, b, width, signed) {
		return b
	}
	return a
}

func less(a, b uint64, width int, signed bool) bool {
	if !signed {
		return a < b
	}
	if width == 4 {
		return int32(a) < int32(b)
	}
	return int64(a) < int64(b)
}

// loadSext reads width bytes at addr and sign-extends them to XLEN,
// matching the "sign-extend to XLEN" rule the A extension shares with
// the base integer loads.
func loadSext(s *State, addr uint64, width int) (uint64, error) {
	if width == 4 {
		v, err := s.Bus.Read32(addr)
		if err != nil {
			return 0, err
		}
		return uint64(int64(int32(v))), nil
	}
	return s.Bus.Read64(addr)
}

func storeWidth(s *State, addr uint64, v uint64, width int) error {
	if width == 4 {
		return s.Bus.Write32(addr, uint32(v))
	}
	return s.Bus.Write64(addr, v)
}
