// Package bus routes a global guest address to the owning memory
// region — read-only boot ROM or writable RAM — and translates
// out-of-range accesses into the bus-level faults of package
// exception.
//
// Grounded on original_source/src/bus.rs (the Bus/Device pair) and the
// teacher's VM.Memory address-routing method (bassosimone/risc32
// pkg/vm/vm.go), generalized from a single flat array to two
// independently-sized, independently-owned regions.
package bus

import (
	"github.com/bassosimone/risc-v-emu/pkg/exception"
	"github.com/bassosimone/risc-v-emu/pkg/memory"
)

const (
	// ROMBase is the fixed base address of the ROM region.
	ROMBase uint64 = 0x1000

	// RAMBase is the fixed base address of the RAM region.
	RAMBase uint64 = 0x8000_0000

	// DefaultROMSize is the ROM size used when none is configured.
	DefaultROMSize = 0x1000

	// DefaultRAMSize is the RAM size used when none is configured.
	DefaultRAMSize = 0x5000
)

// Bus owns exactly one RAM region and (optionally) one ROM region and
// exclusively mediates all guest-visible memory access to them.
type Bus struct {
	ram *memory.RAM
	rom *memory.ROM
}

// New constructs a bus with a RAM region of ramSize bytes and a ROM
// region of romSize bytes. A romSize of zero constructs a bus with no
// ROM region; any access to the ROM address range then faults exactly
// like any other unmapped address.
func New(romSize, ramSize int) *Bus {
	b := &Bus{ram: memory.NewRAM(ramSize)}
	if romSize > 0 {
		b.rom = memory.NewROM(romSize)
	}
	return b
}

// InitROM overwrites the prefix of the ROM region with data.
func (b *Bus) InitROM(data []byte) {
	if b.rom != nil {
		b.rom.Initialize(data)
	}
}

// InitRAM overwrites the prefix of the RAM region with data.
func (b *Bus) InitRAM(data []byte) {
	b.ram.Initialize(data)
}

// RAMSize returns the size in bytes of the RAM region.
func (b *Bus) RAMSize() int {
	return b.ram.Size()
}

// HasROM reports whether this bus has a ROM region configured.
func (b *Bus) HasROM() bool {
	return b.rom != nil
}

// region identifies which owned region, if any, contains addr, and
// returns the region-local offset.
func (b *Bus) region(addr uint64) (isRAM bool, isROM bool, off uint64) {
	if addr >= RAMBase && addr < RAMBase+uint64(b.ram.Size()) {
		return true, false, addr - RAMBase
	}
	if b.rom != nil && addr >= ROMBase && addr < ROMBase+uint64(b.rom.Size()) {
		return false, true, addr - ROMBase
	}
	return false, false, 0
}

// Read8 reads a single byte at the given guest address.
func (b *Bus) Read8(addr uint64) (uint8, error) {
	isRAM, isROM, off := b.region(addr)
	switch {
	case isRAM:
		v, err := b.ram.Read8(off)
		return v, faultRead(err, addr)
	case isROM:
		v, err := b.rom.Read8(off)
		return v, faultRead(err, addr)
	default:
		return 0, exception.LoadAccessFault(addr)
	}
}

// Read16 reads a little-endian 16-bit word at the given guest address.
func (b *Bus) Read16(addr uint64) (uint16, error) {
	isRAM, isROM, off := b.region(addr)
	switch {
	case isRAM:
		v, err := b.ram.Read16(off)
		return v, faultRead(err, addr)
	case isROM:
		v, err := b.rom.Read16(off)
		return v, faultRead(err, addr)
	default:
		return 0, exception.LoadAccessFault(addr)
	}
}

// Read32 reads a little-endian 32-bit word at the given guest address.
func (b *Bus) Read32(addr uint64) (uint32, error) {
	isRAM, isROM, off := b.region(addr)
	switch {
	case isRAM:
		v, err := b.ram.Read32(off)
		return v, faultRead(err, addr)
	case isROM:
		v, err := b.rom.Read32(off)
		return v, faultRead(err, addr)
	default:
		return 0, exception.LoadAccessFault(addr)
	}
}

// Read64 reads a little-endian 64-bit word at the given guest address.
func (b *Bus) Read64(addr uint64) (uint64, error) {
	isRAM, isROM, off := b.region(addr)
	switch {
	case isRAM:
		v, err := b.ram.Read64(off)
		return v, faultRead(err, addr)
	case isROM:
		v, err := b.rom.Read64(off)
		return v, faultRead(err, addr)
	default:
		return 0, exception.LoadAccessFault(addr)
	}
}

// Write8 writes a single byte at the given guest address. Only RAM is
// writable; a store to any other address, including ROM, faults.
func (b *Bus) Write8(addr uint64, v uint8) error {
	isRAM, _, off := b.region(addr)
	if !isRAM {
		return exception.StoreAccessFault(addr)
	}
	return faultWrite(b.ram.Write8(off, v), addr)
}

// Write16 writes a little-endian 16-bit word at the given guest address.
func (b *Bus) Write16(addr uint64, v uint16) error {
	isRAM, _, off := b.region(addr)
	if !isRAM {
		return exception.StoreAccessFault(addr)
	}
	return faultWrite(b.ram.Write16(off, v), addr)
}

// Write32 writes a little-endian 32-bit word at the given guest address.
func (b *Bus) Write32(addr uint64, v uint32) error {
	isRAM, _, off := b.region(addr)
	if !isRAM {
		return exception.StoreAccessFault(addr)
	}
	return faultWrite(b.ram.Write32(off, v), addr)
}

// Write64 writes a little-endian 64-bit word at the given guest address.
func (b *Bus) Write64(addr uint64, v uint64) error {
	isRAM, _, off := b.region(addr)
	if !isRAM {
		return exception.StoreAccessFault(addr)
	}
	return faultWrite(b.ram.Write64(off, v), addr)
}

func faultRead(err error, addr uint64) error {
	if err != nil {
		return exception.LoadAccessFault(addr)
	}
	return nil
}

func faultWrite(err error, addr uint64) error {
	if err != nil {
		return exception.StoreAccessFault(addr)
	}
	return nil
}

// View is a read-only capability over the bus's two regions, handed to
// diagnostics and tests instead of the underlying byte slices. Per the
// bus-ownership design note: the bus exclusively owns its regions, and
// any outside consumer gets a narrow read path instead of a handle to
// the storage itself.
type View struct {
	b *Bus
}

// Snapshot returns a read-only view over the bus.
func (b *Bus) Snapshot() View {
	return View{b: b}
}

// ReadByte reads a single byte at the given guest address.
func (v View) ReadByte(addr uint64) (uint8, error) {
	return v.b.Read8(addr)
}

// RAMSize returns the size in bytes of the RAM region.
func (v View) RAMSize() int {
	return v.b.RAMSize()
}
