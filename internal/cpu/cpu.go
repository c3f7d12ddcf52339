package cpu

// CPU drives a State through a Memory bus: an explicit state struct plus
// interface-injected memory and logger, cycles returned from the step
// function, and a halted predicate instead of a panic/exception path.
type CPU struct {
	State   State
	Variant Variant
	Mem     Memory
	Log     Logger

	NMIPending bool
	IRQPending bool

	halted     bool
	haltedAddr uint16
}

func NewCPU(mem Memory, variant Variant) *CPU {
	return &CPU{State: NewState(), Variant: variant, Mem: mem}
}

// Boot initializes the program counter. With no explicit entry, it is read
// from the reset vector, matching real hardware; an explicit entry point
// bypasses the vector (used by test harnesses that want to boot straight
// into a routine).
func (c *CPU) Boot(entry *uint16) {
	c.State = NewState()
	c.halted = false
	if entry != nil {
		c.State.PC = *entry
		return
	}
	c.State.PC = c.read16(VectorRESET)
}

func (c *CPU) Halted() bool { return c.halted }

func (c *CPU) read16(addr uint16) uint16 {
	lo := uint16(c.Mem.Read(addr))
	hi := uint16(c.Mem.Read(addr + 1))
	return lo | hi<<8
}

// indirectRead16 reproduces the NMOS JMP (addr) page-wrap bug: if the low
// byte of the pointer is 0xFF, the high byte is fetched from the start of
// the same page rather than the next page. CMOS fixes this.
func (c *CPU) indirectRead16(addr uint16) uint16 {
	lo := uint16(c.Mem.Read(addr))
	var hiAddr uint16
	if c.Variant != CMOS && addr&0xFF == 0xFF {
		hiAddr = addr &^ 0xFF
	} else {
		hiAddr = addr + 1
	}
	hi := uint16(c.Mem.Read(hiAddr))
	return lo | hi<<8
}

func (c *CPU) push(v uint8) {
	c.Mem.Write(0x0100|uint16(c.State.SP), v)
	c.State.SP--
}

func (c *CPU) pop() uint8 {
	c.State.SP++
	return c.Mem.Read(0x0100 | uint16(c.State.SP))
}

func (c *CPU) push16(v uint16) {
	c.push(uint8(v >> 8))
	c.push(uint8(v))
}

func (c *CPU) pop16() uint16 {
	lo := uint16(c.pop())
	hi := uint16(c.pop())
	return lo | hi<<8
}

// samePage reports whether two addresses share the high byte.
func samePage(a, b uint16) bool { return a&0xFF00 == b&0xFF00 }

// operand resolves the effective address for the current instruction,
// returning the address, whether an indexed access crossed a page boundary,
// and the raw immediate/relative operand byte count already consumed from
// Length (the caller advances PC by Length separately).
type operandResult struct {
	addr       uint16
	pageCross  bool
	isAccum    bool
	isImplied  bool
	immediate  uint8
	bitNumber  uint8 // for ZeroPageRelative (BBR/BBS)
}

func (c *CPU) resolveOperand(entry OpcodeEntry, opPC uint16) operandResult {
	switch entry.Mode {
	case Implied:
		return operandResult{isImplied: true}
	case Accumulator:
		return operandResult{isAccum: true}
	case Immediate:
		return operandResult{immediate: c.Mem.Read(opPC + 1)}
	case ZeroPage:
		return operandResult{addr: uint16(c.Mem.Read(opPC + 1))}
	case ZeroPageX:
		return operandResult{addr: uint16(uint8(c.Mem.Read(opPC+1) + c.State.X))}
	case ZeroPageY:
		return operandResult{addr: uint16(uint8(c.Mem.Read(opPC+1) + c.State.Y))}
	case Absolute:
		return operandResult{addr: c.read16(opPC + 1)}
	case AbsoluteX:
		base := c.read16(opPC + 1)
		addr := base + uint16(c.State.X)
		return operandResult{addr: addr, pageCross: !samePage(base, addr)}
	case AbsoluteY:
		base := c.read16(opPC + 1)
		addr := base + uint16(c.State.Y)
		return operandResult{addr: addr, pageCross: !samePage(base, addr)}
	case Indirect:
		ptr := c.read16(opPC + 1)
		if c.Variant == CMOS && c.Mem.Read(opPC) == 0x7C { // JMP (abs,X)
			ptr += uint16(c.State.X)
		}
		return operandResult{addr: c.indirectRead16(ptr)}
	case IndirectX:
		zp := uint8(c.Mem.Read(opPC+1) + c.State.X)
		addr := uint16(c.Mem.Read(uint16(zp))) | uint16(c.Mem.Read(uint16(uint8(zp+1))))<<8
		return operandResult{addr: addr}
	case IndirectY:
		zp := c.Mem.Read(opPC + 1)
		base := uint16(c.Mem.Read(uint16(zp))) | uint16(c.Mem.Read(uint16(zp+1)))<<8
		addr := base + uint16(c.State.Y)
		return operandResult{addr: addr, pageCross: !samePage(base, addr)}
	case ZeroPageIndirect:
		zp := c.Mem.Read(opPC + 1)
		addr := uint16(c.Mem.Read(uint16(zp))) | uint16(c.Mem.Read(uint16(zp+1)))<<8
		return operandResult{addr: addr}
	case Relative:
		return operandResult{immediate: c.Mem.Read(opPC + 1)}
	case ZeroPageRelative:
		return operandResult{addr: uint16(c.Mem.Read(opPC + 1)), immediate: c.Mem.Read(opPC + 2)}
	}
	return operandResult{}
}

// signExtendBranch converts an 8-bit relative offset into a signed 16-bit
// delta the way real hardware does: values >= 0x80 are negative.
func signExtendBranch(offset uint8) int16 {
	if offset >= 0x80 {
		return int16(offset) - 256
	}
	return int16(offset)
}

// CyclesForNext peeks the cycle cost of the instruction at PC without
// executing it.
func (c *CPU) CyclesForNext() int {
	opcode := c.Mem.Read(c.State.PC)
	entry := tableFor(c.Variant)[opcode]
	return int(entry.BaseCycles)
}

// ExecuteNext fetches, decodes and executes one instruction, mutating state,
// and returns the number of cycles consumed (base + penalties + interrupt
// sequencing, per spec). If the CPU is halted (PC pointing at a jump to
// itself), it consumes zero cycles and does nothing further.
func (c *CPU) ExecuteNext() int {
	if nmi, irq := c.NMIPending, c.IRQPending; nmi || (irq && !c.State.GetFlag(FlagI)) {
		return c.handleInterrupt(nmi)
	}

	if c.halted {
		return 0
	}

	pc := c.State.PC
	opcode := c.Mem.Read(pc)
	entry := tableFor(c.Variant)[opcode]
	operand := c.resolveOperand(entry, pc)

	cycles := int(entry.BaseCycles)
	if entry.PageCross && operand.pageCross {
		cycles++
	}

	nextPC := pc + uint16(entry.Length)
	branchTaken := false

	// Undocumented opcodes cost their listed length and cycles and have no
	// other effect.
	if !entry.Illegal {
		c.execute(entry, operand, pc, &nextPC, &branchTaken, &cycles)
	}

	c.State.PC = nextPC
	c.State.Cycles += uint64(cycles)

	if c.Log != nil {
		c.Log.LogCPU(pc, opcode, entry.Mnemonic, cycles, c.State)
	}

	// A jump-to-self is the documented way this CPU halts.
	if entry.Mnemonic == "JMP" && operand.addr == pc {
		c.halted = true
		c.haltedAddr = pc
	}

	return cycles
}

func (c *CPU) handleInterrupt(nmi bool) int {
	c.push16(c.State.PC)
	c.push(c.State.P &^ FlagB | FlagU)
	c.State.SetFlag(FlagI, true)
	if nmi {
		c.State.PC = c.read16(VectorNMI)
		c.NMIPending = false
	} else {
		c.State.PC = c.read16(VectorIRQ)
		c.IRQPending = false
	}
	c.State.Cycles += 7
	return 7
}

// TriggerNMI / TriggerIRQ latch a pending interrupt for the next instruction
// boundary.
func (c *CPU) TriggerNMI() { c.NMIPending = true }
func (c *CPU) TriggerIRQ() { c.IRQPending = true }

// Disassemble returns a text rendering of the instruction at addr plus its
// length in bytes.
func (c *CPU) Disassemble(addr uint16) (string, int) {
	opcode := c.Mem.Read(addr)
	entry := tableFor(c.Variant)[opcode]
	return entry.Mnemonic, int(entry.Length)
}
