package memory

import "testing"

func TestRAMReadWriteRoundTrip(t *testing.T) {
	m := NewRAM(16)
	if err := m.Write32(4, 0xDEADBEEF); err != nil {
		t.Fatalf("Write32: %v", err)
	}
	v, err := m.Read32(4)
	if err != nil {
		t.Fatalf("Read32: %v", err)
	}
	if v != 0xDEADBEEF {
		t.Fatalf("got 0x%x, want 0xDEADBEEF", v)
	}
}

func TestRAMLittleEndian(t *testing.T) {
	m := NewRAM(8)
	if err := m.Write32(0, 0x01020304); err != nil {
		t.Fatalf("Write32: %v", err)
	}
	b, err := m.Read8(0)
	if err != nil {
		t.Fatalf("Read8: %v", err)
	}
	if b != 0x04 {
		t.Fatalf("byte 0: got 0x%x, want 0x04", b)
	}
}

func TestRAMOutOfRange(t *testing.T) {
	m := NewRAM(4)
	if _, err := m.Read32(2); err != ErrOutOfRange {
		t.Fatalf("Read32 at offset 2 size 4: got %v, want ErrOutOfRange", err)
	}
	if err := m.Write64(0, 0); err != ErrOutOfRange {
		t.Fatalf("Write64 on a 4-byte region: got %v, want ErrOutOfRange", err)
	}
}

func TestRAMInitialize(t *testing.T) {
	m := NewRAM(4)
	m.Initialize([]byte{1, 2})
	v, err := m.Read16(0)
	if err != nil {
		t.Fatalf("Read16: %v", err)
	}
	if v != 0x0201 {
		t.Fatalf("got 0x%x, want 0x0201", v)
	}
	// The prefix beyond the initializer stays zeroed.
	v, err = m.Read16(2)
	if err != nil {
		t.Fatalf("Read16: %v", err)
	}
	if v != 0 {
		t.Fatalf("tail got 0x%x, want 0", v)
	}
}

func TestROMWritesFail(t *testing.T) {
	r := NewROM(8)
	r.Initialize([]byte{0xAA, 0xBB})
	if err := r.Write8(0, 0xFF); err != ErrReadOnly {
		t.Fatalf("Write8: got %v, want ErrReadOnly", err)
	}
	v, err := r.Read8(0)
	if err != nil {
		t.Fatalf("Read8: %v", err)
	}
	if v != 0xAA {
		t.Fatalf("write should not have modified ROM, got 0x%x", v)
	}
}
