package cpu

// AddressingMode enumerates every operand-fetch strategy the opcode table
// can reference. Tagged-variant style per the addressing-mode record in the
// opcode table, not a class hierarchy.
type AddressingMode uint8

const (
	Accumulator AddressingMode = iota
	Absolute
	AbsoluteX
	AbsoluteY
	Immediate
	Implied
	Indirect
	IndirectX // pre-indexed: (zp,X)
	IndirectY // post-indexed: (zp),Y
	Relative
	ZeroPage
	ZeroPageX
	ZeroPageY
	ZeroPageIndirect // CMOS-only (zp)
	ZeroPageRelative // CMOS-only BBR/BBS two-byte branch-extended form
)

// OpcodeEntry is one row of the opcode table: mnemonic, addressing mode,
// instruction length in bytes, base cycle cost, and whether an indexed
// address crossing a page boundary adds one extra cycle.
type OpcodeEntry struct {
	Mnemonic    string
	Mode        AddressingMode
	Length      uint8
	BaseCycles  uint8
	PageCross   bool
	Illegal     bool
	CMOSOnly    bool
}

// opcodeTable is the NMOS 6502 opcode matrix (documented opcodes). CMOS
// variants layer overrides and additions onto it in cmosOverrides.
var opcodeTable [256]OpcodeEntry

func op(code uint8, mnemonic string, mode AddressingMode, length, cycles uint8, pageCross bool) {
	opcodeTable[code] = OpcodeEntry{Mnemonic: mnemonic, Mode: mode, Length: length, BaseCycles: cycles, PageCross: pageCross}
}

func init() {
	// Fill every slot with a 1-byte, 2-cycle illegal NOP as a placeholder;
	// applyNMOSIllegalOpcodes below gives every undocumented slot its real
	// documented length and cycle cost, and the op() calls that follow
	// overwrite the 151 documented opcodes.
	for i := range opcodeTable {
		opcodeTable[i] = OpcodeEntry{Mnemonic: "NOP", Mode: Implied, Length: 1, BaseCycles: 2, Illegal: true}
	}
	applyNMOSIllegalOpcodes()

	// --- Load/Store ---
	op(0xA9, "LDA", Immediate, 2, 2, false)
	op(0xA5, "LDA", ZeroPage, 2, 3, false)
	op(0xB5, "LDA", ZeroPageX, 2, 4, false)
	op(0xAD, "LDA", Absolute, 3, 4, false)
	op(0xBD, "LDA", AbsoluteX, 3, 4, true)
	op(0xB9, "LDA", AbsoluteY, 3, 4, true)
	op(0xA1, "LDA", IndirectX, 2, 6, false)
	op(0xB1, "LDA", IndirectY, 2, 5, true)

	op(0xA2, "LDX", Immediate, 2, 2, false)
	op(0xA6, "LDX", ZeroPage, 2, 3, false)
	op(0xB6, "LDX", ZeroPageY, 2, 4, false)
	op(0xAE, "LDX", Absolute, 3, 4, false)
	op(0xBE, "LDX", AbsoluteY, 3, 4, true)

	op(0xA0, "LDY", Immediate, 2, 2, false)
	op(0xA4, "LDY", ZeroPage, 2, 3, false)
	op(0xB4, "LDY", ZeroPageX, 2, 4, false)
	op(0xAC, "LDY", Absolute, 3, 4, false)
	op(0xBC, "LDY", AbsoluteX, 3, 4, true)

	op(0x85, "STA", ZeroPage, 2, 3, false)
	op(0x95, "STA", ZeroPageX, 2, 4, false)
	op(0x8D, "STA", Absolute, 3, 4, false)
	op(0x9D, "STA", AbsoluteX, 3, 5, false)
	op(0x99, "STA", AbsoluteY, 3, 5, false)
	op(0x81, "STA", IndirectX, 2, 6, false)
	op(0x91, "STA", IndirectY, 2, 6, false)

	op(0x86, "STX", ZeroPage, 2, 3, false)
	op(0x96, "STX", ZeroPageY, 2, 4, false)
	op(0x8E, "STX", Absolute, 3, 4, false)

	op(0x84, "STY", ZeroPage, 2, 3, false)
	op(0x94, "STY", ZeroPageX, 2, 4, false)
	op(0x8C, "STY", Absolute, 3, 4, false)

	// --- Transfers ---
	op(0xAA, "TAX", Implied, 1, 2, false)
	op(0xA8, "TAY", Implied, 1, 2, false)
	op(0xBA, "TSX", Implied, 1, 2, false)
	op(0x8A, "TXA", Implied, 1, 2, false)
	op(0x9A, "TXS", Implied, 1, 2, false)
	op(0x98, "TYA", Implied, 1, 2, false)

	// --- Stack ---
	op(0x48, "PHA", Implied, 1, 3, false)
	op(0x68, "PLA", Implied, 1, 4, false)
	op(0x08, "PHP", Implied, 1, 3, false)
	op(0x28, "PLP", Implied, 1, 4, false)

	// --- Arithmetic/logic ---
	op(0x69, "ADC", Immediate, 2, 2, false)
	op(0x65, "ADC", ZeroPage, 2, 3, false)
	op(0x75, "ADC", ZeroPageX, 2, 4, false)
	op(0x6D, "ADC", Absolute, 3, 4, false)
	op(0x7D, "ADC", AbsoluteX, 3, 4, true)
	op(0x79, "ADC", AbsoluteY, 3, 4, true)
	op(0x61, "ADC", IndirectX, 2, 6, false)
	op(0x71, "ADC", IndirectY, 2, 5, true)

	op(0xE9, "SBC", Immediate, 2, 2, false)
	op(0xE5, "SBC", ZeroPage, 2, 3, false)
	op(0xF5, "SBC", ZeroPageX, 2, 4, false)
	op(0xED, "SBC", Absolute, 3, 4, false)
	op(0xFD, "SBC", AbsoluteX, 3, 4, true)
	op(0xF9, "SBC", AbsoluteY, 3, 4, true)
	op(0xE1, "SBC", IndirectX, 2, 6, false)
	op(0xF1, "SBC", IndirectY, 2, 5, true)

	op(0x29, "AND", Immediate, 2, 2, false)
	op(0x25, "AND", ZeroPage, 2, 3, false)
	op(0x35, "AND", ZeroPageX, 2, 4, false)
	op(0x2D, "AND", Absolute, 3, 4, false)
	op(0x3D, "AND", AbsoluteX, 3, 4, true)
	op(0x39, "AND", AbsoluteY, 3, 4, true)
	op(0x21, "AND", IndirectX, 2, 6, false)
	op(0x31, "AND", IndirectY, 2, 5, true)

	op(0x09, "ORA", Immediate, 2, 2, false)
	op(0x05, "ORA", ZeroPage, 2, 3, false)
	op(0x15, "ORA", ZeroPageX, 2, 4, false)
	op(0x0D, "ORA", Absolute, 3, 4, false)
	op(0x1D, "ORA", AbsoluteX, 3, 4, true)
	op(0x19, "ORA", AbsoluteY, 3, 4, true)
	op(0x01, "ORA", IndirectX, 2, 6, false)
	op(0x11, "ORA", IndirectY, 2, 5, true)

	op(0x49, "EOR", Immediate, 2, 2, false)
	op(0x45, "EOR", ZeroPage, 2, 3, false)
	op(0x55, "EOR", ZeroPageX, 2, 4, false)
	op(0x4D, "EOR", Absolute, 3, 4, false)
	op(0x5D, "EOR", AbsoluteX, 3, 4, true)
	op(0x59, "EOR", AbsoluteY, 3, 4, true)
	op(0x41, "EOR", IndirectX, 2, 6, false)
	op(0x51, "EOR", IndirectY, 2, 5, true)

	op(0x24, "BIT", ZeroPage, 2, 3, false)
	op(0x2C, "BIT", Absolute, 3, 4, false)

	op(0xC9, "CMP", Immediate, 2, 2, false)
	op(0xC5, "CMP", ZeroPage, 2, 3, false)
	op(0xD5, "CMP", ZeroPageX, 2, 4, false)
	op(0xCD, "CMP", Absolute, 3, 4, false)
	op(0xDD, "CMP", AbsoluteX, 3, 4, true)
	op(0xD9, "CMP", AbsoluteY, 3, 4, true)
	op(0xC1, "CMP", IndirectX, 2, 6, false)
	op(0xD1, "CMP", IndirectY, 2, 5, true)

	op(0xE0, "CPX", Immediate, 2, 2, false)
	op(0xE4, "CPX", ZeroPage, 2, 3, false)
	op(0xEC, "CPX", Absolute, 3, 4, false)

	op(0xC0, "CPY", Immediate, 2, 2, false)
	op(0xC4, "CPY", ZeroPage, 2, 3, false)
	op(0xCC, "CPY", Absolute, 3, 4, false)

	// --- Inc/Dec ---
	op(0xE6, "INC", ZeroPage, 2, 5, false)
	op(0xF6, "INC", ZeroPageX, 2, 6, false)
	op(0xEE, "INC", Absolute, 3, 6, false)
	op(0xFE, "INC", AbsoluteX, 3, 7, false)
	op(0xE8, "INX", Implied, 1, 2, false)
	op(0xC8, "INY", Implied, 1, 2, false)

	op(0xC6, "DEC", ZeroPage, 2, 5, false)
	op(0xD6, "DEC", ZeroPageX, 2, 6, false)
	op(0xCE, "DEC", Absolute, 3, 6, false)
	op(0xDE, "DEC", AbsoluteX, 3, 7, false)
	op(0xCA, "DEX", Implied, 1, 2, false)
	op(0x88, "DEY", Implied, 1, 2, false)

	// --- Shifts/rotates ---
	op(0x0A, "ASL", Accumulator, 1, 2, false)
	op(0x06, "ASL", ZeroPage, 2, 5, false)
	op(0x16, "ASL", ZeroPageX, 2, 6, false)
	op(0x0E, "ASL", Absolute, 3, 6, false)
	op(0x1E, "ASL", AbsoluteX, 3, 7, false)

	op(0x4A, "LSR", Accumulator, 1, 2, false)
	op(0x46, "LSR", ZeroPage, 2, 5, false)
	op(0x56, "LSR", ZeroPageX, 2, 6, false)
	op(0x4E, "LSR", Absolute, 3, 6, false)
	op(0x5E, "LSR", AbsoluteX, 3, 7, false)

	op(0x2A, "ROL", Accumulator, 1, 2, false)
	op(0x26, "ROL", ZeroPage, 2, 5, false)
	op(0x36, "ROL", ZeroPageX, 2, 6, false)
	op(0x2E, "ROL", Absolute, 3, 6, false)
	op(0x3E, "ROL", AbsoluteX, 3, 7, false)

	op(0x6A, "ROR", Accumulator, 1, 2, false)
	op(0x66, "ROR", ZeroPage, 2, 5, false)
	op(0x76, "ROR", ZeroPageX, 2, 6, false)
	op(0x6E, "ROR", Absolute, 3, 6, false)
	op(0x7E, "ROR", AbsoluteX, 3, 7, false)

	// --- Jumps/calls ---
	op(0x4C, "JMP", Absolute, 3, 3, false)
	op(0x6C, "JMP", Indirect, 3, 5, false)
	op(0x20, "JSR", Absolute, 3, 6, false)
	op(0x60, "RTS", Implied, 1, 6, false)
	op(0x40, "RTI", Implied, 1, 6, false)

	// --- Branches (length 2, base 2 cycles; +1 taken, +1 more page-cross) ---
	op(0x90, "BCC", Relative, 2, 2, false)
	op(0xB0, "BCS", Relative, 2, 2, false)
	op(0xF0, "BEQ", Relative, 2, 2, false)
	op(0xD0, "BNE", Relative, 2, 2, false)
	op(0x30, "BMI", Relative, 2, 2, false)
	op(0x10, "BPL", Relative, 2, 2, false)
	op(0x50, "BVC", Relative, 2, 2, false)
	op(0x70, "BVS", Relative, 2, 2, false)

	// --- Flags ---
	op(0x18, "CLC", Implied, 1, 2, false)
	op(0x38, "SEC", Implied, 1, 2, false)
	op(0x58, "CLI", Implied, 1, 2, false)
	op(0x78, "SEI", Implied, 1, 2, false)
	op(0xB8, "CLV", Implied, 1, 2, false)
	op(0xD8, "CLD", Implied, 1, 2, false)
	op(0xF8, "SED", Implied, 1, 2, false)

	// --- Misc ---
	op(0xEA, "NOP", Implied, 1, 2, false)
	op(0x00, "BRK", Implied, 1, 7, false)

	applyCMOSOverrides()
}

func illegal(code uint8, mnemonic string, mode AddressingMode, length, cycles uint8, pageCross bool) {
	opcodeTable[code] = OpcodeEntry{Mnemonic: mnemonic, Mode: mode, Length: length, BaseCycles: cycles, PageCross: pageCross, Illegal: true}
}

// applyNMOSIllegalOpcodes fills every undocumented opcode slot with its
// real hardware-measured length and cycle cost. ExecuteNext skips execute
// for every entry marked Illegal, so they all run as no-ops, including the
// SBC duplicate at 0xEB; the point
// is that a program relying on undocumented-opcode timing, as some real
// 8-bit software does, advances the cycle-driven devices by the same
// amount real NMOS hardware would rather than a flat 2.
func applyNMOSIllegalOpcodes() {
	// SLO/RLA/SRE/RRA/DCP/ISC: read-modify-write pairs sharing one
	// addressing-mode layout across four opcode rows.
	rmwPair := func(col03, col07, col0F, col13, col17, col1B, col1F uint8, mnemonic string) {
		illegal(col03, mnemonic, IndirectX, 2, 8, false)
		illegal(col07, mnemonic, ZeroPage, 2, 5, false)
		illegal(col0F, mnemonic, Absolute, 3, 6, false)
		illegal(col13, mnemonic, IndirectY, 2, 8, false)
		illegal(col17, mnemonic, ZeroPageX, 2, 6, false)
		illegal(col1B, mnemonic, AbsoluteY, 3, 7, false)
		illegal(col1F, mnemonic, AbsoluteX, 3, 7, false)
	}
	rmwPair(0x03, 0x07, 0x0F, 0x13, 0x17, 0x1B, 0x1F, "SLO")
	rmwPair(0x23, 0x27, 0x2F, 0x33, 0x37, 0x3B, 0x3F, "RLA")
	rmwPair(0x43, 0x47, 0x4F, 0x53, 0x57, 0x5B, 0x5F, "SRE")
	rmwPair(0x63, 0x67, 0x6F, 0x73, 0x77, 0x7B, 0x7F, "RRA")
	rmwPair(0xC3, 0xC7, 0xCF, 0xD3, 0xD7, 0xDB, 0xDF, "DCP")
	rmwPair(0xE3, 0xE7, 0xEF, 0xF3, 0xF7, 0xFB, 0xFF, "ISC")

	// SAX: store A AND X.
	illegal(0x83, "SAX", IndirectX, 2, 6, false)
	illegal(0x87, "SAX", ZeroPage, 2, 3, false)
	illegal(0x8F, "SAX", Absolute, 3, 4, false)
	illegal(0x97, "SAX", ZeroPageY, 2, 4, false)

	// LAX: load A and X together.
	illegal(0xA3, "LAX", IndirectX, 2, 6, false)
	illegal(0xA7, "LAX", ZeroPage, 2, 3, false)
	illegal(0xAF, "LAX", Absolute, 3, 4, false)
	illegal(0xB3, "LAX", IndirectY, 2, 5, true)
	illegal(0xB7, "LAX", ZeroPageY, 2, 4, false)
	illegal(0xBF, "LAX", AbsoluteY, 3, 4, true)
	illegal(0xAB, "LAX", Immediate, 2, 2, false) // unstable on real silicon

	// Single-byte-operand combined ALU ops.
	illegal(0x0B, "ANC", Immediate, 2, 2, false)
	illegal(0x2B, "ANC", Immediate, 2, 2, false)
	illegal(0x4B, "ALR", Immediate, 2, 2, false)
	illegal(0x6B, "ARR", Immediate, 2, 2, false)
	illegal(0x8B, "XAA", Immediate, 2, 2, false) // highly unstable, included for completeness
	illegal(0xCB, "SBX", Immediate, 2, 2, false)
	illegal(0xEB, "SBC", Immediate, 2, 2, false) // duplicate of the documented SBC #imm

	// Unstable high-byte stores; page-boundary behavior on real hardware is
	// erratic and not reproduced here, only the documented width/timing.
	illegal(0x93, "SHA", IndirectY, 2, 6, false)
	illegal(0x9F, "SHA", AbsoluteY, 3, 5, false)
	illegal(0x9E, "SHX", AbsoluteY, 3, 5, false)
	illegal(0x9C, "SHY", AbsoluteX, 3, 5, false)
	illegal(0x9B, "TAS", AbsoluteY, 3, 5, false)
	illegal(0xBB, "LAS", AbsoluteY, 3, 4, true)

	// NOPs proper, grouped by operand width.
	for _, code := range []uint8{0x1A, 0x3A, 0x5A, 0x7A, 0xDA, 0xFA} {
		illegal(code, "NOP", Implied, 1, 2, false)
	}
	for _, code := range []uint8{0x80, 0x82, 0x89, 0xC2, 0xE2} {
		illegal(code, "NOP", Immediate, 2, 2, false)
	}
	for _, code := range []uint8{0x04, 0x44, 0x64} {
		illegal(code, "NOP", ZeroPage, 2, 3, false)
	}
	for _, code := range []uint8{0x14, 0x34, 0x54, 0x74, 0xD4, 0xF4} {
		illegal(code, "NOP", ZeroPageX, 2, 4, false)
	}
	illegal(0x0C, "NOP", Absolute, 3, 4, false)
	for _, code := range []uint8{0x1C, 0x3C, 0x5C, 0x7C, 0xDC, 0xFC} {
		illegal(code, "NOP", AbsoluteX, 3, 4, true)
	}

	// JAM/KIL: lock the bus on real hardware. Not reproduced: like the
	// other undocumented opcodes they run as 1-byte, 2-cycle no-ops and
	// execution continues with the next byte.
	for _, code := range []uint8{0x02, 0x12, 0x22, 0x32, 0x42, 0x52, 0x62, 0x72, 0x92, 0xB2, 0xD2, 0xF2} {
		illegal(code, "JAM", Implied, 1, 2, false)
	}
}

// cmosTable is derived from opcodeTable by applying the CMOS-specific
// overrides and additions: new opcodes are added, while the indirect-JMP
// page bug fix lives in indirectRead16, not the table. Read-modify-write
// instructions behave the same in both tables; the NMOS extra RMW bus cycle
// is not modelled for either variant.
var cmosTable [256]OpcodeEntry

func applyCMOSOverrides() {
	cmosTable = opcodeTable

	set := func(code uint8, mnemonic string, mode AddressingMode, length, cycles uint8, pageCross bool) {
		cmosTable[code] = OpcodeEntry{Mnemonic: mnemonic, Mode: mode, Length: length, BaseCycles: cycles, PageCross: pageCross, CMOSOnly: true}
	}

	// STZ - store zero
	set(0x64, "STZ", ZeroPage, 2, 3, false)
	set(0x74, "STZ", ZeroPageX, 2, 4, false)
	set(0x9C, "STZ", Absolute, 3, 4, false)
	set(0x9E, "STZ", AbsoluteX, 3, 5, false)

	// PHX/PHY/PLX/PLY
	set(0xDA, "PHX", Implied, 1, 3, false)
	set(0xFA, "PLX", Implied, 1, 4, false)
	set(0x5A, "PHY", Implied, 1, 3, false)
	set(0x7A, "PLY", Implied, 1, 4, false)

	// BRA - unconditional branch always
	set(0x80, "BRA", Relative, 2, 2, false)

	// TRB/TSB - test-and-reset/set bits
	set(0x14, "TRB", ZeroPage, 2, 5, false)
	set(0x1C, "TRB", Absolute, 3, 6, false)
	set(0x04, "TSB", ZeroPage, 2, 5, false)
	set(0x0C, "TSB", Absolute, 3, 6, false)

	// (zp) addressing added to several ops
	set(0x12, "ORA", ZeroPageIndirect, 2, 5, false)
	set(0x32, "AND", ZeroPageIndirect, 2, 5, false)
	set(0x52, "EOR", ZeroPageIndirect, 2, 5, false)
	set(0x72, "ADC", ZeroPageIndirect, 2, 5, false)
	set(0x92, "STA", ZeroPageIndirect, 2, 5, false)
	set(0xB2, "LDA", ZeroPageIndirect, 2, 5, false)
	set(0xD2, "CMP", ZeroPageIndirect, 2, 5, false)
	set(0xF2, "SBC", ZeroPageIndirect, 2, 5, false)

	// INC/DEC accumulator
	set(0x1A, "INC", Accumulator, 1, 2, false)
	set(0x3A, "DEC", Accumulator, 1, 2, false)

	// BIT immediate/indexed
	set(0x89, "BIT", Immediate, 2, 2, false)
	set(0x34, "BIT", ZeroPageX, 2, 4, false)
	set(0x3C, "BIT", AbsoluteX, 3, 4, true)

	// JMP (abs,X) indirect indexed
	set(0x7C, "JMP", Indirect, 3, 6, false)

	// RMB/SMB/BBR/BBS: bit-number is encoded in the opcode nibble.
	for bit := uint8(0); bit < 8; bit++ {
		set(0x07+bit*0x10, "RMB"+string(rune('0'+bit)), ZeroPage, 2, 5, false)
		set(0x87+bit*0x10, "SMB"+string(rune('0'+bit)), ZeroPage, 2, 5, false)
		set(0x0F+bit*0x10, "BBR"+string(rune('0'+bit)), ZeroPageRelative, 3, 5, false)
		set(0x8F+bit*0x10, "BBS"+string(rune('0'+bit)), ZeroPageRelative, 3, 5, false)
	}

	// CMOS undefined opcodes are all 1-byte, 2-cycle NOPs (not the NMOS
	// per-opcode illegal table), except the widths documented above.
	for i := range cmosTable {
		if cmosTable[i].Illegal {
			cmosTable[i] = OpcodeEntry{Mnemonic: "NOP", Mode: Implied, Length: 1, BaseCycles: 2, Illegal: true, CMOSOnly: true}
		}
	}
}

func tableFor(v Variant) *[256]OpcodeEntry {
	if v == CMOS {
		return &cmosTable
	}
	return &opcodeTable
}

// NMOSOpcode looks up an opcode's entry in the NMOS table, for callers
// outside the package (disassemblers, code relocators) that need an
// instruction's real length without running it.
func NMOSOpcode(code uint8) OpcodeEntry { return opcodeTable[code] }
