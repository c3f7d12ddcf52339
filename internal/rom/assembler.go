// Package rom builds the runtime ROM image: a 16Ki byte array holding the
// published jump table, the helper routines each slot points to, and the
// reset/NMI/IRQ vectors in the last six bytes. The assembler is a
// label-and-fixup design: it tracks a program counter, lets callers mark
// labels, and patches forward references once the whole image is emitted,
// producing real 6502 opcode bytes directly, little-endian.
package rom

import "fmt"

// fixupKind distinguishes the two address-reference shapes 6502 code needs
// patched after the target label is known.
type fixupKind uint8

const (
	fixupAbsolute16 fixupKind = iota // two bytes, little-endian, absolute address
	fixupRelative8                   // one byte, signed, relative to the byte after it
	fixupImmediateLow                // one byte, label address' low byte
	fixupImmediateHigh                // one byte, label address' high byte
)

type fixup struct {
	offset int // index into Assembler.code of the first patched byte
	label  string
	kind   fixupKind
}

// Assembler accumulates 6502 machine code for one contiguous region of the
// address space, starting at origin, with label-based forward references
// resolved by Resolve once every instruction has been emitted.
type Assembler struct {
	origin uint16
	code   []byte
	labels map[string]uint16
	fixups []fixup
}

// NewAssembler returns an assembler whose first emitted byte lands at origin.
func NewAssembler(origin uint16) *Assembler {
	return &Assembler{origin: origin, labels: make(map[string]uint16)}
}

// PC returns the address the next emitted byte will occupy.
func (a *Assembler) PC() uint16 { return a.origin + uint16(len(a.code)) }

// Label records name as meaning the current PC.
func (a *Assembler) Label(name string) {
	a.labels[name] = a.PC()
}

// Emit appends raw bytes.
func (a *Assembler) Emit(b ...byte) {
	a.code = append(a.code, b...)
}

// imm8 emits a two-byte "opcode #value" sequence.
func (a *Assembler) imm8(opcode, value byte) { a.Emit(opcode, value) }

func (a *Assembler) zp(opcode, addr byte) { a.Emit(opcode, addr) }

func (a *Assembler) abs(opcode byte, addr uint16) {
	a.Emit(opcode, byte(addr), byte(addr>>8))
}

// absLabel emits opcode followed by a two-byte placeholder resolved to
// label's address once Resolve runs.
func (a *Assembler) absLabel(opcode byte, label string) {
	a.Emit(opcode, 0, 0)
	a.fixups = append(a.fixups, fixup{offset: len(a.code) - 2, label: label, kind: fixupAbsolute16})
}

// branch emits a relative-branch opcode targeting label.
func (a *Assembler) branch(opcode byte, label string) {
	a.Emit(opcode, 0)
	a.fixups = append(a.fixups, fixup{offset: len(a.code) - 1, label: label, kind: fixupRelative8})
}

// immLabelLow emits "opcode #<label", the low byte of label's eventual
// address, patched once Resolve runs.
func (a *Assembler) immLabelLow(opcode byte, label string) {
	a.Emit(opcode, 0)
	a.fixups = append(a.fixups, fixup{offset: len(a.code) - 1, label: label, kind: fixupImmediateLow})
}

// immLabelHigh emits "opcode #>label", the high byte of label's eventual
// address, patched once Resolve runs.
func (a *Assembler) immLabelHigh(opcode byte, label string) {
	a.Emit(opcode, 0)
	a.fixups = append(a.fixups, fixup{offset: len(a.code) - 1, label: label, kind: fixupImmediateHigh})
}

// Resolve patches every forward reference recorded by absLabel/branch. It
// must run after every Label call the program needs has been made.
func (a *Assembler) Resolve() error {
	for _, f := range a.fixups {
		target, ok := a.labels[f.label]
		if !ok {
			return fmt.Errorf("rom: undefined label %q", f.label)
		}
		switch f.kind {
		case fixupAbsolute16:
			a.code[f.offset] = byte(target)
			a.code[f.offset+1] = byte(target >> 8)
		case fixupRelative8:
			// Relative to the address of the byte after the offset byte.
			rel := int(target) - int(a.origin+uint16(f.offset)+1)
			if rel < -128 || rel > 127 {
				return fmt.Errorf("rom: branch to %q out of range (%d)", f.label, rel)
			}
			a.code[f.offset] = byte(int8(rel))
		case fixupImmediateLow:
			a.code[f.offset] = byte(target)
		case fixupImmediateHigh:
			a.code[f.offset] = byte(target >> 8)
		}
	}
	return nil
}

// Bytes returns the assembled code. Call after Resolve.
func (a *Assembler) Bytes() []byte { return a.code }

// Resolved returns the address a previously marked label was assigned.
func (a *Assembler) Resolved(name string) (uint16, error) {
	addr, ok := a.labels[name]
	if !ok {
		return 0, fmt.Errorf("rom: undefined label %q", name)
	}
	return addr, nil
}

// Len returns the number of bytes emitted so far.
func (a *Assembler) Len() int { return len(a.code) }
