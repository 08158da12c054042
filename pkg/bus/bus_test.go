package bus

import (
	"errors"
	"testing"

	"github.com/bassosimone/risc-v-emu/pkg/exception"
)

func TestBusRoutesRAM(t *testing.T) {
	b := New(DefaultROMSize, DefaultRAMSize)
	if err := b.Write32(RAMBase+8, 0x11223344); err != nil {
		t.Fatalf("Write32: %v", err)
	}
	v, err := b.Read32(RAMBase + 8)
	if err != nil {
		t.Fatalf("Read32: %v", err)
	}
	if v != 0x11223344 {
		t.Fatalf("got 0x%x, want 0x11223344", v)
	}
}

func TestBusRoutesROM(t *testing.T) {
	b := New(DefaultROMSize, DefaultRAMSize)
	b.InitROM([]byte{0xEF, 0xBE, 0xAD, 0xDE})
	v, err := b.Read32(ROMBase)
	if err != nil {
		t.Fatalf("Read32: %v", err)
	}
	if v != 0xDEADBEEF {
		t.Fatalf("got 0x%x, want 0xDEADBEEF", v)
	}
}

func TestBusStoreToROMFaults(t *testing.T) {
	b := New(DefaultROMSize, DefaultRAMSize)
	err := b.Write8(ROMBase, 1)
	if !errors.Is(err, exception.ErrStoreAccessFault) {
		t.Fatalf("got %v, want ErrStoreAccessFault", err)
	}
}

func TestBusUnmappedReadFaults(t *testing.T) {
	b := New(DefaultROMSize, DefaultRAMSize)
	_, err := b.Read8(0xFFFF_FFFF)
	if !errors.Is(err, exception.ErrLoadAccessFault) {
		t.Fatalf("got %v, want ErrLoadAccessFault", err)
	}
}

func TestBusNoROMRegion(t *testing.T) {
	b := New(0, DefaultRAMSize)
	if b.HasROM() {
		t.Fatalf("HasROM: expected false when romSize==0")
	}
	_, err := b.Read8(ROMBase)
	if !errors.Is(err, exception.ErrLoadAccessFault) {
		t.Fatalf("got %v, want ErrLoadAccessFault", err)
	}
}

func TestBusSnapshotReadOnly(t *testing.T) {
	b := New(DefaultROMSize, DefaultRAMSize)
	b.InitRAM([]byte{0x42})
	view := b.Snapshot()
	v, err := view.ReadByte(RAMBase)
	if err != nil {
		t.Fatalf("ReadByte: %v", err)
	}
	if v != 0x42 {
		t.Fatalf("got 0x%x, want 0x42", v)
	}
	if view.RAMSize() != DefaultRAMSize {
		t.Fatalf("RAMSize: got %d, want %d", view.RAMSize(), DefaultRAMSize)
	}
}
