// Package riscvtest assembles single RISC-V instruction words for use
// in table-driven tests, without pulling in a full assembler. Each
// encoder mirrors one instruction format from the decoder it is
// testing against.
//
// Grounded on the end-to-end byte sequences of spec.md §8 and on the
// teacher's own hand-encoded test fixtures style (bassosimone/risc32
// pkg/asm/instruction.go builds words the same bit-shifted way, just
// for the RiSC-32 format instead of RISC-V's six formats).
package riscvtest

// AssembleR encodes an R-type instruction: funct7 | rs2 | rs1 | funct3 | rd | opcode.
func AssembleR(opcode, rd, funct3, rs1, rs2, funct7 uint32) uint32 {
	return (funct7&0x7F)<<25 | (rs2&0x1F)<<20 | (rs1&0x1F)<<15 | (funct3&0x7)<<12 | (rd&0x1F)<<7 | (opcode & 0x7F)
}

// AssembleI encodes an I-type instruction: imm[11:0] | rs1 | funct3 | rd | opcode.
func AssembleI(opcode, rd, funct3, rs1 uint32, imm int32) uint32 {
	return (uint32(imm)&0xFFF)<<20 | (rs1&0x1F)<<15 | (funct3&0x7)<<12 | (rd&0x1F)<<7 | (opcode & 0x7F)
}

// AssembleS encodes an S-type instruction (stores).
func AssembleS(opcode, funct3, rs1, rs2 uint32, imm int32) uint32 {
	u := uint32(imm)
	return ((u>>5)&0x7F)<<25 | (rs2&0x1F)<<20 | (rs1&0x1F)<<15 | (funct3&0x7)<<12 | (u&0x1F)<<7 | (opcode & 0x7F)
}

// AssembleB encodes a B-type instruction (branches). imm must be even.
func AssembleB(opcode, funct3, rs1, rs2 uint32, imm int32) uint32 {
	u := uint32(imm)
	bit12 := (u >> 12) & 0x1
	bit11 := (u >> 11) & 0x1
	bits10_5 := (u >> 5) & 0x3F
	bits4_1 := (u >> 1) & 0xF
	return bit12<<31 | bits10_5<<25 | (rs2&0x1F)<<20 | (rs1&0x1F)<<15 | (funct3&0x7)<<12 | bits4_1<<8 | bit11<<7 | (opcode & 0x7F)
}

// AssembleU encodes a U-type instruction (LUI/AUIPC). imm holds the value
// already shifted into bits [31:12].
func AssembleU(opcode, rd uint32, imm int32) uint32 {
	return uint32(imm)&0xFFFF_F000 | (rd&0x1F)<<7 | (opcode & 0x7F)
}

// AssembleJ encodes a J-type instruction (JAL). imm must be even.
func AssembleJ(opcode, rd uint32, imm int32) uint32 {
	u := uint32(imm)
	bit20 := (u >> 20) & 0x1
	bits10_1 := (u >> 1) & 0x3FF
	bit11 := (u >> 11) & 0x1
	bits19_12 := (u >> 12) & 0xFF
	return bit20<<31 | bits10_1<<21 | bit11<<20 | bits19_12<<12 | (rd&0x1F)<<7 | (opcode & 0x7F)
}

// AssembleR4 encodes an R4-type instruction: the fused multiply-add family.
// rs3 occupies bits [31:27]; funct2 (usually 00 for single precision)
// occupies bits [26:25].
func AssembleR4(opcode, rd, funct3, rs1, rs2, rs3, funct2 uint32) uint32 {
	return (rs3&0x1F)<<27 | (funct2&0x3)<<25 | (rs2&0x1F)<<20 | (rs1&0x1F)<<15 | (funct3&0x7)<<12 | (rd&0x1F)<<7 | (opcode & 0x7F)
}

// Bytes returns the little-endian 4-byte encoding of a word, ready to
// append to a flat test image.
func Bytes(word uint32) []byte {
	return []byte{byte(word), byte(word >> 8), byte(word >> 16), byte(word >> 24)}
}

// Image concatenates the little-endian encodings of a sequence of
// instruction words into one flat byte slice suitable for
// bus.InitRAM/InitROM.
func Image(words ...uint32) []byte {
	out := make([]byte, 0, len(words)*4)
	for _, w := range words {
		out = append(out, Bytes(w)...)
	}
	return out
}
