package rom

import (
	"fmt"

	"github.com/barryw/novavm/internal/bus"
)

// Exported opcode aliases. internal/corelx's code generator assembles 6502
// machine code against this same Assembler, so the byte values stay private
// to this file's constants while the names become part of the package's
// public surface.
const (
	OpLDAImm  = opLDAImm
	OpLDAZp   = opLDAZp
	OpLDAZpX  = opLDAZpX
	OpLDAAbs  = opLDAAbs
	OpLDAIndY = opLDAIndY
	OpSTAZp   = opSTAZp
	OpSTAAbs  = opSTAAbs
	OpSTAIndY = opSTAIndY
	OpLDXImm  = opLDXImm
	OpLDXZp   = opLDXZp
	OpLDYImm  = opLDYImm
	OpLDYZp   = opLDYZp
	OpSTXZp   = opSTXZp
	OpSTYZp   = opSTYZp
	OpINX     = opINX
	OpINY     = opINY
	OpDEX     = opDEX
	OpDEY     = opDEY
	OpINCZp   = opINCZp
	OpDECZp   = opDECZp
	OpCLC     = opCLC
	OpSEC     = opSEC
	OpADCImm  = opADCImm
	OpADCZp   = opADCZp
	OpSBCImm  = opSBCImm
	OpSBCZp   = opSBCZp
	OpCMPImm  = opCMPImm
	OpCMPZp   = opCMPZp
	OpCPXImm  = opCPXImm
	OpCPYImm  = opCPYImm
	OpBEQ     = opBEQ
	OpBNE     = opBNE
	OpBCC     = opBCC
	OpBCS     = opBCS
	OpBMI     = opBMI
	OpBPL     = opBPL
	OpJMPAbs  = opJMPAbs
	OpJSRAbs  = opJSRAbs
	OpRTS     = opRTS
	OpRTI     = opRTI
	OpASLA    = opASLA
	OpASLZp   = opASLZp
	OpLSRA    = opLSRA
	OpLSRZp   = opLSRZp
	OpROLZp   = opROLZp
	OpRORZp   = opRORZp
	OpANDImm  = opANDImm
	OpANDZp   = opANDZp
	OpORAImm  = opORAImm
	OpORAZp   = opORAZp
	OpEORImm  = opEORImm
	OpEORZp   = opEORZp
	OpPHA     = opPHA
	OpPLA     = opPLA
	OpTAX     = opTAX
	OpTXA     = opTXA
	OpTAY     = opTAY
	OpTYA     = opTYA
	OpTXS     = opTXS
	OpSEI     = opSEI
	OpNOP     = opNOP
)

// Exported zero-page scratch aliases, published so compiled programs can
// place operands where the jump-table helpers expect them.
const (
	ZPArg0   = zpArg0
	ZPArg0Hi = zpArg0Hi
	ZPArg1   = zpArg1
	ZPArg1Hi = zpArg1Hi
	ZPResLo  = zpResLo
	ZPResHi  = zpResHi
	ZPRemLo  = zpRemLo
	ZPRemHi  = zpRemHi
	ZPCnt    = zpCnt
	ZPLenLo  = zpLenLo
	ZPLenHi  = zpLenHi
)

// Imm8 emits "opcode #value".
func (a *Assembler) Imm8(opcode, value byte) { a.imm8(opcode, value) }

// ZeroPage emits "opcode zp-addr".
func (a *Assembler) ZeroPage(opcode, addr byte) { a.zp(opcode, addr) }

// Abs emits "opcode abs-addr".
func (a *Assembler) Abs(opcode byte, addr uint16) { a.abs(opcode, addr) }

// AbsLabel emits "opcode label", resolved once the caller's Resolve runs.
func (a *Assembler) AbsLabel(opcode byte, label string) { a.absLabel(opcode, label) }

// Branch emits a relative branch to label, resolved once Resolve runs.
func (a *Assembler) Branch(opcode byte, label string) { a.branch(opcode, label) }

// ImmLabelLow emits "opcode #<label", the low byte of label's address.
func (a *Assembler) ImmLabelLow(opcode byte, label string) { a.immLabelLow(opcode, label) }

// ImmLabelHigh emits "opcode #>label", the high byte of label's address.
func (a *Assembler) ImmLabelHigh(opcode byte, label string) { a.immLabelHigh(opcode, label) }

// HelperAddress returns the fixed, address-stable JMP-stub address a
// published jump-table slot occupies (bus.ROMBase+3*index). Compiled
// programs JSR to this address directly; it never changes across ROM
// rebuilds even when a helper's body does.
func HelperAddress(name string) (uint16, error) {
	for i, slot := range jumpTableSlots {
		if slot == name {
			return bus.ROMBase + uint16(i*3), nil
		}
	}
	return 0, fmt.Errorf("rom: unknown jump-table helper %q", name)
}
