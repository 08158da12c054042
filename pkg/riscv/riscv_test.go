package riscv

import (
	"errors"
	"testing"

	"github.com/bassosimone/risc-v-emu/pkg/bus"
	"github.com/bassosimone/risc-v-emu/pkg/exception"
	"github.com/bassosimone/risc-v-emu/pkg/riscv/riscvtest"
)

const (
	opOpImmTest = 0b001_0011
	opOpTest    = 0b011_0011
	opLUITest   = 0b011_0111
	opJALTest   = 0b110_1111
	opAMOTest   = 0b010_1111
)

func newTestState(xlen XLen, words ...uint32) *State {
	b := bus.New(0, 0x2000)
	b.InitRAM(riscvtest.Image(words...))
	return NewState(xlen, b, 0, bus.RAMBase)
}

// runUntilHalt steps s until pc stops advancing (jump-to-self) or an
// error is raised, failing the test if neither happens within a
// generous instruction budget.
func runUntilHalt(t *testing.T, s *State) {
	t.Helper()
	for i := 0; i < 64; i++ {
		before := s.PC
		if err := Step(s); err != nil {
			t.Fatalf("Step: unexpected error: %v", err)
		}
		if s.PC == before {
			return
		}
	}
	t.Fatalf("program did not halt within 64 instructions")
}

func addi(rd, rs1 uint32, imm int32) uint32 {
	return riscvtest.AssembleI(opOpImmTest, rd, 0b000, rs1, imm)
}

func jalSelf() uint32 {
	return riscvtest.AssembleJ(opJALTest, 0, 0)
}

func TestScenarioADDSmallPositives(t *testing.T) {
	s := newTestState(XLEN64,
		addi(1, 0, 3),
		addi(2, 0, 7),
		riscvtest.AssembleR(opOpTest, 14, 0b000, 1, 2, 0),
		jalSelf(),
	)
	runUntilHalt(t, s)
	if got := s.GetX(14); got != 0xA {
		t.Fatalf("x14 = 0x%x, want 0xA", got)
	}
}

func TestScenarioADDSignExtendedUpperImmediate(t *testing.T) {
	luiUpper := uint32(0x80000) << 12
	luiImm := int32(luiUpper)
	s := newTestState(XLEN64,
		riscvtest.AssembleU(opLUITest, 1, luiImm),
		addi(2, 0, 0),
		riscvtest.AssembleR(opOpTest, 14, 0b000, 1, 2, 0),
		jalSelf(),
	)
	runUntilHalt(t, s)
	if got, want := s.GetX(14), uint64(0xFFFF_FFFF_8000_0000); got != want {
		t.Fatalf("x14 = 0x%x, want 0x%x", got, want)
	}
}

func TestScenarioADDIWrapAround(t *testing.T) {
	s := newTestState(XLEN64,
		addi(1, 0, -1),
		addi(14, 1, 1),
		jalSelf(),
	)
	runUntilHalt(t, s)
	if got := s.GetX(14); got != 0 {
		t.Fatalf("x14 = 0x%x, want 0", got)
	}
}

func TestScenarioUnconditionalJump(t *testing.T) {
	s := newTestState(XLEN64,
		addi(16, 0, 3),
		addi(17, 0, 5),
		riscvtest.AssembleJ(opJALTest, 18, 12),
		addi(0, 0, 0), // skipped
		addi(0, 0, 0), // skipped
		jalSelf(),
	)
	runUntilHalt(t, s)
	if got := s.GetX(16); got != 3 {
		t.Fatalf("x16 = %d, want 3", got)
	}
	if got := s.GetX(17); got != 5 {
		t.Fatalf("x17 = %d, want 5", got)
	}
	if got, want := s.GetX(18), bus.RAMBase+12; got != want {
		t.Fatalf("x18 = 0x%x, want 0x%x", got, want)
	}
}

func TestScenarioSRAISignFill(t *testing.T) {
	const funct7Arith = 0b0100000
	srai := riscvtest.AssembleI(opOpImmTest, 17, 0b101, 16, int32(funct7Arith<<5|2))
	s := newTestState(XLEN64,
		addi(16, 0, -8),
		srai,
		jalSelf(),
	)
	runUntilHalt(t, s)
	if got, want := s.GetX(17), uint64(0xFFFF_FFFF_FFFF_FFFE); got != want {
		t.Fatalf("x17 = 0x%x, want 0x%x", got, want)
	}
}

func TestScenarioLRSCSuccessThenFailure(t *testing.T) {
	const funct3W = 0b010
	lrw := riscvtest.AssembleR(opAMOTest, 5, funct3W, 10, 0, 0b00010<<2)
	scw := riscvtest.AssembleR(opAMOTest, 6, funct3W, 10, 11, 0b00011<<2)
	s := newTestState(XLEN64,
		lrw,
		scw,
		scw, // second SC, no intervening LR
		jalSelf(),
	)
	ramWordAddr := bus.RAMBase + uint64(4*4) // first free word after the 4-instruction program
	if err := s.Bus.Write32(ramWordAddr, 0x1234); err != nil {
		t.Fatalf("seed memory: %v", err)
	}
	s.SetX(10, ramWordAddr)
	s.SetX(11, 0xAAAA)

	// Step LR.W.
	if err := Step(s); err != nil {
		t.Fatalf("LR.W: %v", err)
	}
	if got := s.GetX(5); got != 0x1234 {
		t.Fatalf("LR.W result = 0x%x, want 0x1234", got)
	}

	// Step first SC.W: should succeed (writes 0, updates memory).
	if err := Step(s); err != nil {
		t.Fatalf("SC.W (first): %v", err)
	}
	if got := s.GetX(6); got != 0 {
		t.Fatalf("first SC.W rd = %d, want 0", got)
	}
	v, err := s.Bus.Read32(ramWordAddr)
	if err != nil {
		t.Fatalf("Read32: %v", err)
	}
	if v != 0xAAAA {
		t.Fatalf("memory after successful SC.W = 0x%x, want 0xAAAA", v)
	}

	// Step second SC.W: no reservation remains, should fail (writes 1).
	s.SetX(6, 0xFF) // clobber so we can tell it was actually rewritten
	if err := Step(s); err != nil {
		t.Fatalf("SC.W (second): %v", err)
	}
	if got := s.GetX(6); got != 1 {
		t.Fatalf("second SC.W rd = %d, want 1", got)
	}
	v, err = s.Bus.Read32(ramWordAddr)
	if err != nil {
		t.Fatalf("Read32: %v", err)
	}
	if v != 0xAAAA {
		t.Fatalf("memory after failed SC.W changed unexpectedly: 0x%x", v)
	}
}

// TestLawALUIdentity covers L1: ADD rd, rs, x0 leaves x[rd] = x[rs].
func TestLawALUIdentity(t *testing.T) {
	s := newTestState(XLEN64,
		addi(5, 0, 123),
		riscvtest.AssembleR(opOpTest, 6, 0b000, 5, 0, 0),
		jalSelf(),
	)
	runUntilHalt(t, s)
	if s.GetX(6) != s.GetX(5) {
		t.Fatalf("x6 = %d, want x5 = %d", s.GetX(6), s.GetX(5))
	}
}

// TestLawStoreLoadRoundTrip covers L2 across all four widths.
func TestLawStoreLoadRoundTrip(t *testing.T) {
	const opLoad = 0b000_0011
	const opStore = 0b010_0011
	cases := []struct {
		name    string
		funct3S uint32
		funct3L uint32
		value   uint64
		want    uint64
	}{
		{"byte unsigned", 0b000, 0b100, 0xFF, 0xFF},
		{"byte signed", 0b000, 0b000, 0xFF, 0xFFFF_FFFF_FFFF_FFFF},
		{"half unsigned", 0b001, 0b101, 0xFFFF, 0xFFFF},
		{"word signed", 0b010, 0b010, 0xFFFF_FFFF, 0xFFFF_FFFF_FFFF_FFFF},
		{"doubleword", 0b011, 0b011, 0xFFFF_FFFF_FFFF_FFFF, 0xFFFF_FFFF_FFFF_FFFF},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := riscvtest.AssembleS(opStore, tc.funct3S, 1, 2, 0)
			load := riscvtest.AssembleI(opLoad, 3, tc.funct3L, 1, 0)
			s := newTestState(XLEN64, store, load, jalSelf())
			s.SetX(1, bus.RAMBase+64)
			s.SetX(2, tc.value)
			runUntilHalt(t, s)
			if got := s.GetX(3); got != tc.want {
				t.Fatalf("got 0x%x, want 0x%x", got, tc.want)
			}
		})
	}
}

// TestLawDivideByZero covers L5.
func TestLawDivideByZero(t *testing.T) {
	const div = 0b100
	const rem = 0b110
	divInstr := riscvtest.AssembleR(opOpTest, 5, div, 1, 2, mFunct7)
	remInstr := riscvtest.AssembleR(opOpTest, 6, rem, 1, 2, mFunct7)
	s := newTestState(XLEN64, divInstr, remInstr, jalSelf())
	s.SetX(1, 42)
	s.SetX(2, 0)
	runUntilHalt(t, s)
	if got := s.GetX(5); got != ^uint64(0) {
		t.Fatalf("DIV by zero = 0x%x, want all-ones", got)
	}
	if got := s.GetX(6); got != 42 {
		t.Fatalf("REM by zero = %d, want dividend 42", got)
	}
	if s.CSR[CSRFcsr]&fcsrDZBit == 0 {
		t.Fatalf("fcsr DZ flag not set after divide by zero")
	}
}

// TestInvariantX0AlwaysZero covers P1.
func TestInvariantX0AlwaysZero(t *testing.T) {
	s := newTestState(XLEN64, addi(0, 0, 77), jalSelf())
	runUntilHalt(t, s)
	if s.GetX(0) != 0 {
		t.Fatalf("x0 = %d, want 0", s.GetX(0))
	}
}

// TestInvariantCycleAdvances covers P3.
func TestInvariantCycleAdvances(t *testing.T) {
	s := newTestState(XLEN64, addi(1, 0, 1), addi(2, 0, 1), jalSelf())
	before := s.CSR[CSRCycle]
	if err := Step(s); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if s.CSR[CSRCycle] != before+1 {
		t.Fatalf("cycle = %d, want %d", s.CSR[CSRCycle], before+1)
	}
}

// TestWVariantSignExtension covers P2/P4: ADDIW sign-extends a
// negative 32-bit result into the upper 32 bits of the destination.
func TestWVariantSignExtension(t *testing.T) {
	const opOpImm32Test = 0b001_1011
	addiw := riscvtest.AssembleI(opOpImm32Test, 10, 0b000, 0, -1)
	s := newTestState(XLEN64, addiw, jalSelf())
	runUntilHalt(t, s)
	if got := s.GetX(10); got != ^uint64(0) {
		t.Fatalf("ADDIW x0,-1 = 0x%x, want all-ones", got)
	}
}

func TestIllegalInstructionOnUnknownOpcode(t *testing.T) {
	s := newTestState(XLEN64, 0x0000_0000)
	err := Step(s)
	if !errors.Is(err, exception.ErrIllegalInstruction) {
		t.Fatalf("got %v, want ErrIllegalInstruction", err)
	}
}

func TestECALLRaisesEnvironmentCall(t *testing.T) {
	const opSystemTest = 0b111_0011
	ecall := riscvtest.AssembleI(opSystemTest, 0, 0, 0, 0)
	s := newTestState(XLEN64, ecall)
	err := Step(s)
	if !errors.Is(err, exception.ErrEnvironmentCall) {
		t.Fatalf("got %v, want ErrEnvironmentCall", err)
	}
}

func TestEBREAKRaisesBreakpoint(t *testing.T) {
	const opSystemTest = 0b111_0011
	ebreak := riscvtest.AssembleI(opSystemTest, 0, 0, 0, 1)
	s := newTestState(XLEN64, ebreak)
	err := Step(s)
	if !errors.Is(err, exception.ErrBreakpoint) {
		t.Fatalf("got %v, want ErrBreakpoint", err)
	}
}

func TestCSRRWRoundTrip(t *testing.T) {
	const opSystemTest = 0b111_0011
	const csrrw = 0b001
	const targetCSR = 0x300
	instr := (uint32(targetCSR) << 20) | (1 << 15) | (csrrw << 12) | (2 << 7) | opSystemTest
	s := newTestState(XLEN64, instr)
	s.SetX(1, 0xCAFE)
	s.CSRWrite(targetCSR, 0xBEEF)
	if err := Step(s); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if got := s.GetX(2); got != 0xBEEF {
		t.Fatalf("CSRRW old value = 0x%x, want 0xBEEF", got)
	}
	if got := s.CSRRead(targetCSR); got != 0xCAFE {
		t.Fatalf("CSR after write = 0x%x, want 0xCAFE", got)
	}
}

func TestFADDSingle(t *testing.T) {
	const opOpFPTest = 0b101_0011
	faddS := riscvtest.AssembleR(opOpFPTest, 3, 0, 1, 2, fFunct7Add)
	s := newTestState(XLEN64, faddS, jalSelf())
	s.SetF(1, bits32(1.5))
	s.SetF(2, bits32(2.25))
	runUntilHalt(t, s)
	if got := f32(s.GetF(3)); got != 3.75 {
		t.Fatalf("FADD.S = %v, want 3.75", got)
	}
}

func TestFCLASSPositiveZero(t *testing.T) {
	const opOpFPTest = 0b101_0011
	fclass := riscvtest.AssembleR(opOpFPTest, 5, 0b001, 1, 0, fFunct7MvXOrCls)
	s := newTestState(XLEN64, fclass, jalSelf())
	s.SetF(1, 0)
	runUntilHalt(t, s)
	if got := s.GetX(5); got != 1<<4 {
		t.Fatalf("FCLASS.S(+0.0) = 0b%b, want bit 4 set", got)
	}
}

func TestXLEN32Masking(t *testing.T) {
	s := newTestState(XLEN32,
		addi(1, 0, -1),
		addi(14, 1, 1),
		jalSelf(),
	)
	runUntilHalt(t, s)
	if got := s.GetX(14); got != 0 {
		t.Fatalf("x14 = 0x%x, want 0 (32-bit wraparound)", got)
	}
	if got := s.GetX(1); got != 0xFFFF_FFFF {
		t.Fatalf("x1 = 0x%x, want 0xFFFFFFFF (masked to 32 bits)", got)
	}
}
