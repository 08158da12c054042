package emulator

import (
	"errors"
	"testing"

	"github.com/bassosimone/risc-v-emu/pkg/exception"
	"github.com/bassosimone/risc-v-emu/pkg/riscv"
	"github.com/bassosimone/risc-v-emu/pkg/riscv/riscvtest"
)

const (
	opOpImm = 0b001_0011
	opOp    = 0b011_0011
	opJAL   = 0b110_1111
)

func addi(rd, rs1 uint32, imm int32) uint32 {
	return riscvtest.AssembleI(opOpImm, rd, 0b000, rs1, imm)
}

func TestRunHaltsOnJumpToSelf(t *testing.T) {
	emu := New(riscv.XLEN64, 0, 0x1000)
	emu.InitRAM(riscvtest.Image(
		addi(1, 0, 3),
		addi(2, 0, 7),
		riscvtest.AssembleR(opOp, 14, 0b000, 1, 2, 0),
		riscvtest.AssembleJ(opJAL, 0, 0),
	))
	if err := emu.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := emu.State().GetX(14); got != 10 {
		t.Fatalf("x14 = %d, want 10", got)
	}
}

func TestRunStopsOnUnmappedFetch(t *testing.T) {
	emu := New(riscv.XLEN64, 0, 0x10)
	emu.InitRAM(riscvtest.Image(addi(1, 0, 1), addi(1, 1, 1), addi(1, 1, 1), addi(1, 1, 1)))
	err := emu.Run()
	if !errors.Is(err, exception.ErrLoadAccessFault) {
		t.Fatalf("Run: expected an error once pc walks off the mapped RAM region")
	}
}

func TestRunRecoversFromECALL(t *testing.T) {
	const opSystem = 0b111_0011
	ecall := riscvtest.AssembleI(opSystem, 0, 0, 0, 0)
	emu := New(riscv.XLEN64, 0, 0x1000)
	emu.InitRAM(riscvtest.Image(
		ecall,
		addi(1, 0, 5),
		riscvtest.AssembleJ(opJAL, 0, 0),
	))
	if err := emu.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := emu.State().GetX(1); got != 5 {
		t.Fatalf("x1 = %d, want 5: ECALL should be recoverable and execution should continue", got)
	}
}

func TestNewSetsInitialStackPointerAndPC(t *testing.T) {
	emu := New(riscv.XLEN64, 0x1000, 0x5000)
	if got, want := emu.State().PC, uint64(0x1000); got != want {
		t.Fatalf("pc = 0x%x, want 0x%x (boot from ROM)", got, want)
	}
	if got := emu.State().GetX(2); got != 0x8000_0000+0x5000 {
		t.Fatalf("sp (x2) = 0x%x, want RAMBase+ramSize", got)
	}
}
