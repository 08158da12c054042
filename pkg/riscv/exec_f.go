package riscv

import (
	"math"

	"github.com/bassosimone/risc-v-emu/pkg/exception"
)

// OP-FP funct7 encodings (instruction bits [31:25]).
const (
	fFunct7Add      = 0b0000000
	fFunct7Sub      = 0b0000100
	fFunct7Mul      = 0b0001000
	fFunct7Div      = 0b0001100
	fFunct7Sqrt     = 0b0101100
	fFunct7SgnInj   = 0b0010000
	fFunct7MinMax   = 0b0010100
	fFunct7CvtToInt = 0b1100000
	fFunct7CvtToFlt = 0b1101000
	fFunct7MvXOrCls = 0b1110000
	fFunct7Compare  = 0b1010000
	fFunct7MvWFromX = 0b1111000
)

// RS3 extracts the fused-multiply-add third source register from
// instruction bits [31:27].
func (d Decoded) RS3() uint32 {
	return (d.Word >> 27) & 0x1F
}

// executeFloat implements the F extension: FLW/FSW, the arithmetic
// and fused multiply-add families, sign injection, min/max, the three
// comparisons, the float<->integer conversions, and the two bit-move
// instructions FMV.X.W/FMV.W.X plus FCLASS.S.
//
// Grounded on original_source/src/cpu.rs's F-extension match arms;
// this core carries binary32 values as the bit pattern math/math32
// would use, matching spec.md §3's "instructions read/write them as
// bit patterns; NaN-boxing into 64 bits is not required."
func executeFloat(s *State, d Decoded) (bool, error) {
	switch d.Opcode {
	case opLoadFP:
		return false, executeFLW(s, d)
	case opStoreFP:
		return false, executeFSW(s, d)
	case opMADD:
		return false, executeFusedMA(s, d, false, false)
	case opMSUB:
		return false, executeFusedMA(s, d, true, false)
	case opNMSUB:
		return false, executeFusedMA(s, d, false, true)
	case opNMADD:
		return false, executeFusedMA(s, d, true, true)
	case opOpFP:
		return false, executeOpFP(s, d)
	default:
		return false, exception.IllegalInstruction(d.Word)
	}
}

func executeFLW(s *State, d Decoded) error {
	addr := s.GetX(d.RS1) + uint64(d.ImmI)
	v, err := s.Bus.Read32(addr)
	if err != nil {
		return err
	}
	s.SetF(d.RD, v)
	return nil
}

func executeFSW(s *State, d Decoded) error {
	addr := s.GetX(d.RS1) + uint64(d.ImmS)
	if err := s.Bus.Write32(addr, s.GetF(d.RS2)); err != nil {
		return err
	}
	s.InvalidateReservation(addr)
	return nil
}

// executeFusedMA implements FMADD.S/FMSUB.S/FNMADD.S/FNMSUB.S:
// rd := ±(rs1*rs2) ± rs3, per the N-variants negating the product as
// in the RISC-V manual.
func executeFusedMA(s *State, d Decoded, negateAddend, negateProduct bool) error {
	a := f32(s.GetF(d.RS1))
	b := f32(s.GetF(d.RS2))
	c := f32(s.GetF(d.RS3()))
	prod := a * b
	if negateProduct {
		prod = -prod
	}
	if negateAddend {
		c = -c
	}
	s.SetF(d.RD, bits32(prod+c))
	return nil
}

func executeOpFP(s *State, d Decoded) error {
	if _, ok := s.RoundingMode(); !ok {
		return exception.IllegalInstruction(d.Word)
	}
	switch d.Funct7 {
	case fFunct7Add:
		s.SetF(d.RD, bits32(f32(s.GetF(d.RS1))+f32(s.GetF(d.RS2))))
	case fFunct7Sub:
		s.SetF(d.RD, bits32(f32(s.GetF(d.RS1))-f32(s.GetF(d.RS2))))
	case fFunct7Mul:
		s.SetF(d.RD, bits32(f32(s.GetF(d.RS1))*f32(s.GetF(d.RS2))))
	case fFunct7Div:
		s.SetF(d.RD, bits32(f32(s.GetF(d.RS1))/f32(s.GetF(d.RS2))))
	case fFunct7Sqrt:
		s.SetF(d.RD, bits32(float32(math.Sqrt(float64(f32(s.GetF(d.RS1)))))))
	case fFunct7SgnInj:
		return executeSignInject(s, d)
	case fFunct7MinMax:
		return executeFMinMax(s, d)
	case fFunct7Compare:
		return executeFCompare(s, d)
	case fFunct7CvtToInt:
		return executeFCvtToInt(s, d)
	case fFunct7CvtToFlt:
		executeFCvtToFloat(s, d)
		return nil
	case fFunct7MvXOrCls:
		return executeFMvXOrClass(s, d)
	case fFunct7MvWFromX:
		s.SetF(d.RD, uint32(s.GetX(d.RS1)))
		return nil
	default:
		return exception.IllegalInstruction(d.Word)
	}
	return nil
}

func executeSignInject(s *State, d Decoded) error {
	a, b := s.GetF(d.RS1), s.GetF(d.RS2)
	const signBit = uint32(1) << 31
	switch d.Funct3 {
	case 0b000: // FSGNJ.S
		s.SetF(d.RD, (a&^signBit)|(b&signBit))
	case 0b001: // FSGNJN.S
		s.SetF(d.RD, (a&^signBit)|(^b&signBit))
	case 0b010: // FSGNJX.S
		s.SetF(d.RD, a^(b&signBit))
	default:
		return exception.IllegalInstruction(d.Word)
	}
	return nil
}

func executeFMinMax(s *State, d Decoded) error {
	a, b := f32(s.GetF(d.RS1)), f32(s.GetF(d.RS2))
	switch d.Funct3 {
	case 0b000: // FMIN.S
		s.SetF(d.RD, bits32(fmin32(a, b)))
	case 0b001: // FMAX.S
		s.SetF(d.RD, bits32(fmax32(a, b)))
	default:
		return exception.IllegalInstruction(d.Word)
	}
	return nil
}

func fmin32(a, b float32) float32 {
	if a != a {
		return b
	}
	if b != b {
		return a
	}
	if a < b {
		return a
	}
	return b
}

func fmax32(a, b float32) float32 {
	if a != a {
		return b
	}
	if b != b {
		return a
	}
	if a > b {
		return a
	}
	return b
}

// executeFCompare implements FEQ.S/FLT.S/FLE.S, writing 0/1 into rd.
func executeFCompare(s *State, d Decoded) error {
	a, b := f32(s.GetF(d.RS1)), f32(s.GetF(d.RS2))
	switch d.Funct3 {
	case 0b010: // FEQ.S
		s.SetX(d.RD, boolToU64(a == b))
	case 0b001: // FLT.S
		s.SetX(d.RD, boolToU64(a < b))
	case 0b000: // FLE.S
		s.SetX(d.RD, boolToU64(a <= b))
	default:
		return exception.IllegalInstruction(d.Word)
	}
	return nil
}

// executeFCvtToInt implements FCVT.W.S/FCVT.WU.S/FCVT.L.S/FCVT.LU.S,
// selected by rs2, using the current FRM. The caller (executeOpFP) has
// already rejected any reserved FRM encoding.
func executeFCvtToInt(s *State, d Decoded) error {
	v := float64(f32(s.GetF(d.RS1)))
	mode, _ := s.RoundingMode()
	switch mode {
	case 0: // RNE
		v = math.RoundToEven(v)
	case 1: // RTZ
		v = math.Trunc(v)
	case 2: // RDN
		v = math.Floor(v)
	case 3: // RUP
		v = math.Ceil(v)
	default: // RMM (4), and 7
		v = math.Round(v)
	}
	switch d.RS2 {
	case 0b00000: // FCVT.W.S
		s.SetXSext32(d.RD, uint32(int32(v)))
	case 0b00001: // FCVT.WU.S
		s.SetXSext32(d.RD, uint32(v))
	case 0b00010: // FCVT.L.S
		s.SetX(d.RD, uint64(int64(v)))
	case 0b00011: // FCVT.LU.S
		s.SetX(d.RD, uint64(v))
	default:
		return exception.IllegalInstruction(d.Word)
	}
	return nil
}

// executeFCvtToFloat implements FCVT.S.W/FCVT.S.WU/FCVT.S.L/FCVT.S.LU.
func executeFCvtToFloat(s *State, d Decoded) {
	switch d.RS2 {
	case 0b00000: // FCVT.S.W
		s.SetF(d.RD, bits32(float32(int32(s.GetX(d.RS1)))))
	case 0b00001: // FCVT.S.WU
		s.SetF(d.RD, bits32(float32(uint32(s.GetX(d.RS1)))))
	case 0b00010: // FCVT.S.L
		s.SetF(d.RD, bits32(float32(int64(s.GetX(d.RS1)))))
	case 0b00011: // FCVT.S.LU
		s.SetF(d.RD, bits32(float32(s.GetX(d.RS1))))
	}
}

// executeFMvXOrClass implements FMV.X.W (funct3==0), which copies the
// raw F-register bits to an integer register, and FCLASS.S
// (funct3==1), which writes the F-register value's classification mask.
func executeFMvXOrClass(s *State, d Decoded) error {
	switch d.Funct3 {
	case 0b000: // FMV.X.W
		s.SetXSext32(d.RD, s.GetF(d.RS1))
	case 0b001: // FCLASS.S
		s.SetX(d.RD, uint64(classify(s.GetF(d.RS1))))
	default:
		return exception.IllegalInstruction(d.Word)
	}
	return nil
}

// classify produces the one-hot classification word defined by the
// RISC-V F extension: bit 0 = -inf, 1 = negative normal, 2 = negative
// subnormal, 3 = -0, 4 = +0, 5 = positive subnormal, 6 = positive
// normal, 7 = +inf, 8 = signaling NaN, 9 = quiet NaN.
func classify(raw uint32) uint32 {
	const (
		expMask  = 0xFF
		fracMask = 0x7FFFFF
	)
	sign := raw>>31 != 0
	exp := (raw >> 23) & expMask
	frac := raw & fracMask

	switch {
	case exp == expMask && frac != 0:
		if frac&(1<<22) == 0 {
			return 1 << 8 // signaling NaN
		}
		return 1 << 9 // quiet NaN
	case exp == expMask:
		if sign {
			return 1 << 0
		}
		return 1 << 7
	case exp == 0 && frac == 0:
		if sign {
			return 1 << 3
		}
		return 1 << 4
	case exp == 0:
		if sign {
			return 1 << 2
		}
		return 1 << 5
	default:
		if sign {
			return 1 << 1
		}
		return 1 << 6
	}
}

func f32(bits uint32) float32 {
	return math.Float32frombits(bits)
}

func bits32(v float32) uint32 {
	return math.Float32bits(v)
}
