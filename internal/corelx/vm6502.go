package corelx

import (
	"fmt"

	"github.com/barryw/novavm/internal/rom"
)

// Eight 16-bit virtual registers, R0-R7, backed by zero-page cells rather
// than a hardware register file — the 6502 has only A/X/Y, so a
// register-named calling convention (params and return value in R0-R7) is
// built on top of zero page instead. $00-$DF is
// documented in internal/rom/zeropage.go as belonging to user programs and
// the compiler's own locals; this package claims the low end of that band.
const (
	regBase  = 0x10 // R0 low byte; R{n} = regBase + 2n (lo), +1 (hi)
	regCount = 8

	cmpFlag = 0x20 // tri-state compare result: 0 eq, 1 lt, 2 gt (unsigned)
	ptrLo   = 0x21 // scratch pointer, lo byte, for struct member addressing
	ptrHi   = 0x22
)

func regLo(r uint8) byte { return byte(regBase + int(r)*2) }
func regHi(r uint8) byte { return byte(regBase + int(r)*2 + 1) }

// dataAllocator bump-allocates fixed RAM addresses for compiled variables
// and struct instances. There is no runtime stack frame: each declaration
// gets one address for the lifetime of the compiled program, the same
// non-reentrant tradeoff a single-pass bump allocator makes: recursion and
// re-entrant calls are not supported.
type dataAllocator struct {
	next uint16
}

// dataSegStart sits above the 6502 hardware stack page (0x0100-0x01FF) and
// well below any device's memory-mapped window, which machine configs place
// much higher in the address space.
const dataSegStart = 0x0300

func newDataAllocator() *dataAllocator { return &dataAllocator{next: dataSegStart} }

func (d *dataAllocator) alloc(size uint16) uint16 {
	addr := d.next
	d.next += size
	return addr
}

// asm6502 is the small instruction-emission layer generateExpr/generateStmt
// call into. It owns no control flow of its own — callers still drive
// if/while/for structure with Label/Branch/AbsLabel the same way
// internal/rom's own helper routines do — it only knows how to move 16-bit
// values between virtual registers, memory, and the jump-table ABI.
type asm6502 struct {
	a *rom.Assembler
}

func (m *asm6502) movImm(reg uint8, value uint16) {
	m.a.Imm8(rom.OpLDAImm, byte(value))
	m.a.ZeroPage(rom.OpSTAZp, regLo(reg))
	m.a.Imm8(rom.OpLDAImm, byte(value>>8))
	m.a.ZeroPage(rom.OpSTAZp, regHi(reg))
}

func (m *asm6502) movReg(dst, src uint8) {
	if dst == src {
		return
	}
	m.a.ZeroPage(rom.OpLDAZp, regLo(src))
	m.a.ZeroPage(rom.OpSTAZp, regLo(dst))
	m.a.ZeroPage(rom.OpLDAZp, regHi(src))
	m.a.ZeroPage(rom.OpSTAZp, regHi(dst))
}

// loadAbs loads the 16-bit value at addr into reg.
func (m *asm6502) loadAbs(reg uint8, addr uint16) {
	m.a.Abs(rom.OpLDAAbs, addr)
	m.a.ZeroPage(rom.OpSTAZp, regLo(reg))
	m.a.Abs(rom.OpLDAAbs, addr+1)
	m.a.ZeroPage(rom.OpSTAZp, regHi(reg))
}

// storeAbs stores reg's 16-bit value to addr.
func (m *asm6502) storeAbs(addr uint16, reg uint8) {
	m.a.ZeroPage(rom.OpLDAZp, regLo(reg))
	m.a.Abs(rom.OpSTAAbs, addr)
	m.a.ZeroPage(rom.OpLDAZp, regHi(reg))
	m.a.Abs(rom.OpSTAAbs, addr+1)
}

// loadAbsByte loads a single byte at addr into reg's low byte, zeroing the
// high byte.
func (m *asm6502) loadAbsByte(reg uint8, addr uint16) {
	m.a.Abs(rom.OpLDAAbs, addr)
	m.a.ZeroPage(rom.OpSTAZp, regLo(reg))
	m.a.Imm8(rom.OpLDAImm, 0)
	m.a.ZeroPage(rom.OpSTAZp, regHi(reg))
}

// storeAbsByte stores reg's low byte to addr.
func (m *asm6502) storeAbsByte(addr uint16, reg uint8) {
	m.a.ZeroPage(rom.OpLDAZp, regLo(reg))
	m.a.Abs(rom.OpSTAAbs, addr)
}

func (m *asm6502) add(dst, src uint8) {
	m.a.Emit(rom.OpCLC)
	m.a.ZeroPage(rom.OpLDAZp, regLo(dst))
	m.a.ZeroPage(rom.OpADCZp, regLo(src))
	m.a.ZeroPage(rom.OpSTAZp, regLo(dst))
	m.a.ZeroPage(rom.OpLDAZp, regHi(dst))
	m.a.ZeroPage(rom.OpADCZp, regHi(src))
	m.a.ZeroPage(rom.OpSTAZp, regHi(dst))
}

func (m *asm6502) sub(dst, src uint8) {
	m.a.Emit(rom.OpSEC)
	m.a.ZeroPage(rom.OpLDAZp, regLo(dst))
	m.a.ZeroPage(rom.OpSBCZp, regLo(src))
	m.a.ZeroPage(rom.OpSTAZp, regLo(dst))
	m.a.ZeroPage(rom.OpLDAZp, regHi(dst))
	m.a.ZeroPage(rom.OpSBCZp, regHi(src))
	m.a.ZeroPage(rom.OpSTAZp, regHi(dst))
}

func (m *asm6502) bitwise(op byte, dst, src uint8) {
	m.a.ZeroPage(rom.OpLDAZp, regLo(dst))
	m.a.ZeroPage(op, regLo(src))
	m.a.ZeroPage(rom.OpSTAZp, regLo(dst))
	m.a.ZeroPage(rom.OpLDAZp, regHi(dst))
	m.a.ZeroPage(op, regHi(src))
	m.a.ZeroPage(rom.OpSTAZp, regHi(dst))
}

// shiftLeft/shiftRight shift dst by the count held in countReg's low byte,
// one bit per loop iteration, since the 6502 has no variable-shift-count
// opcode — a small runtime loop stands in for the single instruction a
// register machine would use.
func (cg *CodeGenerator) shiftLeft(dst, countReg uint8) {
	m := cg.vm
	loop := cg.newLabelName("shl")
	done := cg.newLabelName("shl_done")
	m.a.ZeroPage(rom.OpLDXZp, regLo(countReg))
	m.a.Label(loop)
	m.a.Imm8(rom.OpCPXImm, 0)
	m.a.Branch(rom.OpBEQ, done)
	m.a.ZeroPage(rom.OpASLZp, regLo(dst))
	m.a.ZeroPage(rom.OpROLZp, regHi(dst))
	m.a.Emit(rom.OpDEX)
	m.a.AbsLabel(rom.OpJMPAbs, loop)
	m.a.Label(done)
}

func (cg *CodeGenerator) shiftRight(dst, countReg uint8) {
	m := cg.vm
	loop := cg.newLabelName("shr")
	done := cg.newLabelName("shr_done")
	m.a.ZeroPage(rom.OpLDXZp, regLo(countReg))
	m.a.Label(loop)
	m.a.Imm8(rom.OpCPXImm, 0)
	m.a.Branch(rom.OpBEQ, done)
	m.a.ZeroPage(rom.OpLSRZp, regHi(dst))
	m.a.ZeroPage(rom.OpRORZp, regLo(dst))
	m.a.Emit(rom.OpDEX)
	m.a.AbsLabel(rom.OpJMPAbs, loop)
	m.a.Label(done)
}

// mulInt, divInt and modInt hand off to the runtime jump table's general
// 16-bit multiply/divide routines rather than special-casing power-of-2
// operands with shifts, since the 6502 has no hardware multiply and the
// jump table already carries a correct shift-and-add/restoring-division
// implementation every compiled program can share (internal/rom/helpers.go).
func (cg *CodeGenerator) mulInt(dst, src uint8) error {
	return cg.callArithmeticHelper("mul-int", dst, src, false)
}

func (cg *CodeGenerator) divInt(dst, src uint8) error {
	return cg.callArithmeticHelper("div-int", dst, src, false)
}

func (cg *CodeGenerator) modInt(dst, src uint8) error {
	return cg.callArithmeticHelper("div-int", dst, src, true)
}

func (cg *CodeGenerator) callArithmeticHelper(slot string, dst, src uint8, wantRemainder bool) error {
	addr, err := rom.HelperAddress(slot)
	if err != nil {
		return err
	}
	m := cg.vm
	m.a.ZeroPage(rom.OpLDAZp, regLo(dst))
	m.a.ZeroPage(rom.OpSTAZp, rom.ZPArg0)
	m.a.ZeroPage(rom.OpLDAZp, regHi(dst))
	m.a.ZeroPage(rom.OpSTAZp, rom.ZPArg0Hi)
	m.a.ZeroPage(rom.OpLDAZp, regLo(src))
	m.a.ZeroPage(rom.OpSTAZp, rom.ZPArg1)
	m.a.ZeroPage(rom.OpLDAZp, regHi(src))
	m.a.ZeroPage(rom.OpSTAZp, rom.ZPArg1Hi)
	m.a.Abs(rom.OpJSRAbs, addr)
	if wantRemainder {
		m.a.ZeroPage(rom.OpLDAZp, rom.ZPRemLo)
		m.a.ZeroPage(rom.OpSTAZp, regLo(dst))
		m.a.ZeroPage(rom.OpLDAZp, rom.ZPRemHi)
		m.a.ZeroPage(rom.OpSTAZp, regHi(dst))
		return nil
	}
	m.a.ZeroPage(rom.OpSTAZp, regLo(dst))
	m.a.Emit(rom.OpTXA)
	m.a.ZeroPage(rom.OpSTAZp, regHi(dst))
	return nil
}

// compare computes dst-src as an unsigned 16-bit subtraction and leaves a
// tri-state verdict (0 eq, 1 lt, 2 gt) in cmpFlag, the only fact every
// comparison operator needs.
func (cg *CodeGenerator) compare(dst, src uint8) {
	m := cg.vm
	a := m.a
	lt := cg.newLabelName("cmp_lt")
	eq := cg.newLabelName("cmp_eq")
	done := cg.newLabelName("cmp_done")

	a.Emit(rom.OpSEC)
	a.ZeroPage(rom.OpLDAZp, regLo(dst))
	a.ZeroPage(rom.OpSBCZp, regLo(src))
	a.ZeroPage(rom.OpSTAZp, ptrLo)
	a.ZeroPage(rom.OpLDAZp, regHi(dst))
	a.ZeroPage(rom.OpSBCZp, regHi(src))
	a.Branch(rom.OpBCC, lt) // carry clear: borrow occurred, dst < src
	a.ZeroPage(rom.OpSTAZp, ptrHi)
	a.ZeroPage(rom.OpLDAZp, ptrLo)
	a.ZeroPage(rom.OpORAZp, ptrHi)
	a.Branch(rom.OpBEQ, eq)

	a.Imm8(rom.OpLDAImm, 2)
	a.ZeroPage(rom.OpSTAZp, cmpFlag)
	a.AbsLabel(rom.OpJMPAbs, done)

	a.Label(eq)
	a.Imm8(rom.OpLDAImm, 0)
	a.ZeroPage(rom.OpSTAZp, cmpFlag)
	a.AbsLabel(rom.OpJMPAbs, done)

	a.Label(lt)
	a.Imm8(rom.OpLDAImm, 1)
	a.ZeroPage(rom.OpSTAZp, cmpFlag)

	a.Label(done)
}

// boolFromCompare turns the tri-state cmpFlag into a 0/1 result in destReg
// for the given relational operator.
func (cg *CodeGenerator) boolFromCompare(op TokenType, destReg uint8) error {
	m := cg.vm
	a := m.a
	trueLbl := cg.newLabelName("relop_true")
	done := cg.newLabelName("relop_done")

	a.ZeroPage(rom.OpLDAZp, cmpFlag)
	switch op {
	case TOKEN_EQUAL_EQUAL:
		a.Imm8(rom.OpCMPImm, 0)
		a.Branch(rom.OpBEQ, trueLbl)
	case TOKEN_BANG_EQUAL:
		a.Imm8(rom.OpCMPImm, 0)
		a.Branch(rom.OpBNE, trueLbl)
	case TOKEN_LESS:
		a.Imm8(rom.OpCMPImm, 1)
		a.Branch(rom.OpBEQ, trueLbl)
	case TOKEN_LESS_EQUAL:
		a.Imm8(rom.OpCMPImm, 2)
		a.Branch(rom.OpBNE, trueLbl)
	case TOKEN_GREATER:
		a.Imm8(rom.OpCMPImm, 2)
		a.Branch(rom.OpBEQ, trueLbl)
	case TOKEN_GREATER_EQUAL:
		a.Imm8(rom.OpCMPImm, 1)
		a.Branch(rom.OpBNE, trueLbl)
	default:
		return fmt.Errorf("unsupported relational operator: %v", op)
	}
	cg.vm.movImm(destReg, 0)
	a.AbsLabel(rom.OpJMPAbs, done)
	a.Label(trueLbl)
	cg.vm.movImm(destReg, 1)
	a.Label(done)
	return nil
}

// branchIfZero/branchIfNonZero test whether reg's 16-bit value is zero by
// OR-ing its two bytes into a single CMP-against-0 test across the full
// 16-bit register width.
func (m *asm6502) testZero(reg uint8) {
	m.a.ZeroPage(rom.OpLDAZp, regLo(reg))
	m.a.ZeroPage(rom.OpORAZp, regHi(reg))
}

func (m *asm6502) branchIfZero(reg uint8, label string) {
	m.testZero(reg)
	m.a.Branch(rom.OpBEQ, label)
}

func (m *asm6502) branchIfNonZero(reg uint8, label string) {
	m.testZero(reg)
	m.a.Branch(rom.OpBNE, label)
}

// movLabelAddr loads the address a data label will resolve to into reg —
// the two-immediate-load shape 6502 code uses in place of a single
// load-effective-address instruction (which the 6502 doesn't have).
func (m *asm6502) movLabelAddr(reg uint8, label string) {
	m.a.ImmLabelLow(rom.OpLDAImm, label)
	m.a.ZeroPage(rom.OpSTAZp, regLo(reg))
	m.a.ImmLabelHigh(rom.OpLDAImm, label)
	m.a.ZeroPage(rom.OpSTAZp, regHi(reg))
}
