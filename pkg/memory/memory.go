// Package memory contains the byte-addressed storage regions backing
// the bus: a writable RAM region and a read-only ROM region.
//
// Both regions store bytes little-endian and expose typed 1/2/4/8-byte
// accessors. Go has no generic-over-width unsafe reinterpretation, so
// each width gets its own accessor method instead of a single unsafe
// transmute, per the "closed set of width-tagged entry points" design
// note for memory accesses.
package memory

import (
	"fmt"
)

// ErrOutOfRange indicates that an access falls outside the region.
var ErrOutOfRange = fmt.Errorf("memory: access out of range")

// RAM is a fixed-size, byte-addressed, writable memory region.
type RAM struct {
	bytes []byte
}

// NewRAM allocates a zeroed RAM region of the given size in bytes.
func NewRAM(size int) *RAM {
	return &RAM{bytes: make([]byte, size)}
}

// Size returns the size of the region in bytes.
func (m *RAM) Size() int {
	return len(m.bytes)
}

// Initialize overwrites the prefix of the region with data. Data must
// be no longer than Size().
func (m *RAM) Initialize(data []byte) {
	copy(m.bytes, data)
}

// Read8 reads a single byte at the given offset.
func (m *RAM) Read8(off uint64) (uint8, error) {
	if off >= uint64(len(m.bytes)) {
		return 0, ErrOutOfRange
	}
	return m.bytes[off], nil
}

// Read16 reads a little-endian 16-bit word at the given offset.
func (m *RAM) Read16(off uint64) (uint16, error) {
	if off+2 > uint64(len(m.bytes)) {
		return 0, ErrOutOfRange
	}
	b := m.bytes[off : off+2]
	return uint16(b[0]) | uint16(b[1])<<8, nil
}

// Read32 reads a little-endian 32-bit word at the given offset.
func (m *RAM) Read32(off uint64) (uint32, error) {
	if off+4 > uint64(len(m.bytes)) {
		return 0, ErrOutOfRange
	}
	b := m.bytes[off : off+4]
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24, nil
}

// Read64 reads a little-endian 64-bit word at the given offset.
func (m *RAM) Read64(off uint64) (uint64, error) {
	if off+8 > uint64(len(m.bytes)) {
		return 0, ErrOutOfRange
	}
	b := m.bytes[off : off+8]
	return uint64(b[0]) | uint64(b[1])<<8 | uint64(b[2])<<16 | uint64(b[3])<<24 |
		uint64(b[4])<<32 | uint64(b[5])<<40 | uint64(b[6])<<48 | uint64(b[7])<<56, nil
}

// Write8 writes a single byte at the given offset.
func (m *RAM) Write8(off uint64, v uint8) error {
	if off >= uint64(len(m.bytes)) {
		return ErrOutOfRange
	}
	m.bytes[off] = v
	return nil
}

// Write16 writes a little-endian 16-bit word at the given offset.
func (m *RAM) Write16(off uint64, v uint16) error {
	if off+2 > uint64(len(m.bytes)) {
		return ErrOutOfRange
	}
	b := m.bytes[off : off+2]
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	return nil
}

// Write32 writes a little-endian 32-bit word at the given offset.
func (m *RAM) Write32(off uint64, v uint32) error {
	if off+4 > uint64(len(m.bytes)) {
		return ErrOutOfRange
	}
	b := m.bytes[off : off+4]
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
	return nil
}

// Write64 writes a little-endian 64-bit word at the given offset.
func (m *RAM) Write64(off uint64, v uint64) error {
	if off+8 > uint64(len(m.bytes)) {
		return ErrOutOfRange
	}
	b := m.bytes[off : off+8]
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
	b[4] = byte(v >> 32)
	b[5] = byte(v >> 40)
	b[6] = byte(v >> 48)
	b[7] = byte(v >> 56)
	return nil
}

// ROM is a fixed-size, byte-addressed, read-only memory region. Reads
// behave exactly like RAM; writes always fail without modifying the
// region.
type ROM struct {
	ram RAM
}

// NewROM allocates a zeroed ROM region of the given size in bytes.
func NewROM(size int) *ROM {
	return &ROM{ram: RAM{bytes: make([]byte, size)}}
}

// Size returns the size of the region in bytes.
func (m *ROM) Size() int {
	return m.ram.Size()
}

// Initialize overwrites the prefix of the region with data, before the
// ROM is attached to a running core. Data must be no longer than Size().
func (m *ROM) Initialize(data []byte) {
	m.ram.Initialize(data)
}

// Read8 reads a single byte at the given offset.
func (m *ROM) Read8(off uint64) (uint8, error) { return m.ram.Read8(off) }

// Read16 reads a little-endian 16-bit word at the given offset.
func (m *ROM) Read16(off uint64) (uint16, error) { return m.ram.Read16(off) }

// Read32 reads a little-endian 32-bit word at the given offset.
func (m *ROM) Read32(off uint64) (uint32, error) { return m.ram.Read32(off) }

// Read64 reads a little-endian 64-bit word at the given offset.
func (m *ROM) Read64(off uint64) (uint64, error) { return m.ram.Read64(off) }

// ErrReadOnly indicates that a write to the ROM region was attempted.
var ErrReadOnly = fmt.Errorf("memory: region is read-only")

// Write8 always fails: the ROM region is read-only.
func (m *ROM) Write8(off uint64, v uint8) error { return ErrReadOnly }

// Write16 always fails: the ROM region is read-only.
func (m *ROM) Write16(off uint64, v uint16) error { return ErrReadOnly }

// Write32 always fails: the ROM region is read-only.
func (m *ROM) Write32(off uint64, v uint32) error { return ErrReadOnly }

// Write64 always fails: the ROM region is read-only.
func (m *ROM) Write64(off uint64, v uint64) error { return ErrReadOnly }
