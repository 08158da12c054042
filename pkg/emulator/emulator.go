// Package emulator owns the architectural state and bus for one run
// of a RISC-V program: it loads ROM/RAM images at their fixed bases
// and drives the fetch-decode-execute loop to completion.
//
// Grounded on original_source/src/emulator.rs's Emulator struct/run
// loop and the teacher's cmd/interp/main.go fetch-execute loop
// (bassosimone/risc32), generalized from a print-every-cycle CLI tool
// into a reusable driver the CLI wraps.
package emulator

import (
	"errors"
	"fmt"
	"log"

	"github.com/bassosimone/risc-v-emu/pkg/bus"
	"github.com/bassosimone/risc-v-emu/pkg/exception"
	"github.com/bassosimone/risc-v-emu/pkg/riscv"
)

// TraceFunc is invoked before every fetch-decode-execute cycle. It
// lets a CLI front-end print per-instruction state without the core
// depending on any logging or CLI package.
type TraceFunc func(pc uint64)

// Emulator owns one hart's architectural state and the bus it runs
// against.
type Emulator struct {
	state *riscv.State
	bus   *bus.Bus

	// Trace, if set, runs before every cycle.
	Trace TraceFunc
}

// New constructs an Emulator with a RAM region of ramSize bytes and
// a ROM region of romSize bytes (0 disables ROM). The stack pointer
// (x2) is initialized to RAMBase+ramSize, and pc starts at ROMBase if
// romSize > 0, else at RAMBase, per spec.md §6.
func New(xlen riscv.XLen, romSize, ramSize int) *Emulator {
	b := bus.New(romSize, ramSize)
	sp := bus.RAMBase + uint64(ramSize)
	pc := bus.RAMBase
	if romSize > 0 {
		pc = bus.ROMBase
	}
	return &Emulator{
		state: riscv.NewState(xlen, b, sp, pc),
		bus:   b,
	}
}

// InitROM overwrites the prefix of the ROM region with data.
func (e *Emulator) InitROM(data []byte) {
	e.bus.InitROM(data)
}

// InitRAM overwrites the prefix of the RAM region with data.
func (e *Emulator) InitRAM(data []byte) {
	e.bus.InitRAM(data)
}

// State exposes the architectural state for tests and diagnostics.
func (e *Emulator) State() *riscv.State {
	return e.state
}

// Snapshot returns a read-only view over the bus's memory, for
// diagnostics and tests that need to inspect memory without a handle
// to the bus itself.
func (e *Emulator) Snapshot() bus.View {
	return e.bus.Snapshot()
}

// Run drives the fetch-decode-execute loop until either the program
// counter stops advancing (a jump-to-self, the conventional halt for
// assembled test programs) or an unrecoverable exception is raised.
//
// Grounded on spec.md §4.H's five-step run state machine.
func (e *Emulator) Run() error {
	for {
		lastPC := e.state.PC
		if e.Trace != nil {
			e.Trace(lastPC)
		}
		if err := riscv.Step(e.state); err != nil {
			log.Printf("%s @ 0x%x", exceptionName(err), lastPC)
			if exception.Recoverable(err) {
				e.state.PC = lastPC + 4
				continue
			}
			return fmt.Errorf("emulator: unrecoverable fault at pc 0x%x: %w", lastPC, err)
		}
		if e.state.PC == lastPC {
			return nil
		}
	}
}

// exceptionName reports the closed fault-kind name for a diagnostic
// line, matching the "<Exception> @ 0x<pc>" format spec.md §6 requires.
func exceptionName(err error) string {
	switch {
	case errors.Is(err, exception.ErrEnvironmentCall):
		return "EnvironmentCall"
	case errors.Is(err, exception.ErrBreakpoint):
		return "Breakpoint"
	case errors.Is(err, exception.ErrLoadAccessFault):
		return "LoadAccessFault"
	case errors.Is(err, exception.ErrStoreAccessFault):
		return "StoreAccessFault"
	case errors.Is(err, exception.ErrLoadAddressMisaligned):
		return "LoadAddressMisaligned"
	case errors.Is(err, exception.ErrIllegalInstruction):
		return "IllegalInstruction"
	default:
		return "Fault"
	}
}
