package riscv

import (
	"math/bits"

	"github.com/bassosimone/risc-v-emu/pkg/exception"
)

// executeM implements the M extension: MUL/MULH/MULHSU/MULHU and
// DIV/DIVU/REM/REMU, plus their RV64 32-bit-result *W counterparts
// when word32 is set. All paths are non-trapping: the division table
// of spec.md §4.G is implemented exactly, including the divide-by-zero
// and signed-overflow (MIN / -1) special cases.
//
// Grounded on original_source/src/cpu.rs's M-extension match arms,
// cross-checked against other_examples' zkvm RVCPU.executeMExt split
// for the divide-by-zero/overflow table shape.
func executeM(s *State, d Decoded, word32 bool) error {
	if word32 {
		return executeMWord(s, d)
	}
	a, b := s.GetX(d.RS1), s.GetX(d.RS2)
	switch d.Funct3 {
	case 0b000: // MUL
		s.SetX(d.RD, a*b)
	case 0b001: // MULH
		s.SetX(d.RD, mulhSigned(s, a, b))
	case 0b010: // MULHSU
		s.SetX(d.RD, mulhSignedUnsigned(s, a, b))
	case 0b011: // MULHU
		s.SetX(d.RD, mulhUnsigned(s, a, b))
	case 0b100: // DIV
		s.SetX(d.RD, divSigned(s, a, b))
	case 0b101: // DIVU
		s.SetX(d.RD, divUnsigned(s, a, b))
	case 0b110: // REM
		s.SetX(d.RD, remSigned(s, a, b))
	case 0b111: // REMU
		s.SetX(d.RD, remUnsigned(s, a, b))
	default:
		return exception.IllegalInstruction(d.Word)
	}
	return nil
}

func executeMWord(s *State, d Decoded) error {
	a, b := int32(uint32(s.GetX(d.RS1))), int32(uint32(s.GetX(d.RS2)))
	switch d.Funct3 {
	case 0b000: // MULW
		s.SetXSext32(d.RD, uint32(a*b))
	case 0b100: // DIVW
		s.SetXSext32(d.RD, divSigned32(s, a, b))
	case 0b101: // DIVUW
		s.SetXSext32(d.RD, divUnsigned32(s, uint32(a), uint32(b)))
	case 0b110: // REMW
		s.SetXSext32(d.RD, remSigned32(s, a, b))
	case 0b111: // REMUW
		s.SetXSext32(d.RD, remUnsigned32(s, uint32(a), uint32(b)))
	default:
		return exception.IllegalInstruction(d.Word)
	}
	return nil
}

func mulhSigned(s *State, a, b uint64) uint64 {
	if s.XLen == XLEN32 {
		p := int64(int32(a)) * int64(int32(b))
		return uint64(uint32(p >> 32))
	}
	return uint64(mulh64(int64(a), int64(b)))
}

func mulhSignedUnsigned(s *State, a, b uint64) uint64 {
	if s.XLen == XLEN32 {
		p := int64(int32(a)) * int64(uint32(b))
		return uint64(uint32(p >> 32))
	}
	return uint64(mulhsu64(int64(a), b))
}

func mulhUnsigned(s *State, a, b uint64) uint64 {
	if s.XLen == XLEN32 {
		p := uint64(uint32(a)) * uint64(uint32(b))
		return uint64(uint32(p >> 32))
	}
	hi, _ := bits.Mul64(a, b)
	return hi
}

// mulh64 computes the high 64 bits of the signed 128-bit product of
// two int64 operands.
func mulh64(a, b int64) int64 {
	hi, lo := bits.Mul64(uint64(a), uint64(b))
	hi -= uint64(a>>63) & uint64(b)
	hi -= uint64(b>>63) & uint64(a)
	_ = lo
	return int64(hi)
}

// mulhsu64 computes the high 64 bits of the product of a signed a and
// unsigned b.
func mulhsu64(a int64, b uint64) int64 {
	hi, _ := bits.Mul64(uint64(a), b)
	hi -= uint64(a>>63) & b
	return int64(hi)
}

func divSigned(s *State, a, b uint64) uint64 {
	if s.XLen == XLEN32 {
		return uint64(uint32(divSigned32(s, int32(a), int32(b))))
	}
	da, db := int64(a), int64(b)
	if db == 0 {
		s.SetDivideByZero()
		return ^uint64(0)
	}
	if da == minInt64 && db == -1 {
		return uint64(da)
	}
	return uint64(da / db)
}

func divUnsigned(s *State, a, b uint64) uint64 {
	if s.XLen == XLEN32 {
		return uint64(divUnsigned32(s, uint32(a), uint32(b)))
	}
	if b == 0 {
		s.SetDivideByZero()
		return ^uint64(0)
	}
	return a / b
}

func remSigned(s *State, a, b uint64) uint64 {
	if s.XLen == XLEN32 {
		return uint64(uint32(remSigned32(s, int32(a), int32(b))))
	}
	da, db := int64(a), int64(b)
	if db == 0 {
		return uint64(da)
	}
	if da == minInt64 && db == -1 {
		return 0
	}
	return uint64(da % db)
}

func remUnsigned(s *State, a, b uint64) uint64 {
	if s.XLen == XLEN32 {
		return uint64(remUnsigned32(s, uint32(a), uint32(b)))
	}
	if b == 0 {
		return a
	}
	return a % b
}

const minInt64 = int64(-1) << 63

func divSigned32(s *State, a, b int32) uint32 {
	if b == 0 {
		s.SetDivideByZero()
		return ^uint32(0)
	}
	if a == minInt32 && b == -1 {
		return uint32(a)
	}
	return uint32(a / b)
}

func divUnsigned32(s *State, a, b uint32) uint32 {
	if b == 0 {
		s.SetDivideByZero()
		return ^uint32(0)
	}
	return a / b
}

func remSigned32(s *State, a, b int32) uint32 {
	if b == 0 {
		return uint32(a)
	}
	if a == minInt32 && b == -1 {
		return 0
	}
	return uint32(a % b)
}

func remUnsigned32(s *State, a, b uint32) uint32 {
	if b == 0 {
		return a
	}
	return a % b
}

const minInt32 = int32(-1) << 31
