package cpu

// execute dispatches on mnemonic and mutates c.State accordingly. It may
// rewrite *nextPC (jumps, branches, calls, returns) and *cycles (branch
// taken/page-cross penalties, BRK's extra push overhead).
func (c *CPU) execute(entry OpcodeEntry, o operandResult, pc uint16, nextPC *uint16, branchTaken *bool, cycles *int) {
	s := &c.State

	load := func() uint8 {
		if o.isAccum {
			return s.A
		}
		if entry.Mode == Immediate {
			return o.immediate
		}
		return c.Mem.Read(o.addr)
	}
	store := func(v uint8) {
		if o.isAccum {
			s.A = v
			return
		}
		c.Mem.Write(o.addr, v)
	}

	branch := func(cond bool) {
		if !cond {
			return
		}
		*branchTaken = true
		*cycles++
		target := uint16(int32(pc) + int32(entry.Length) + int32(signExtendBranch(o.immediate)))
		if !samePage(*nextPC, target) {
			*cycles++
		}
		*nextPC = target
	}

	switch entry.Mnemonic {
	case "LDA":
		s.A = load()
		s.updateNZ(s.A)
	case "LDX":
		s.X = load()
		s.updateNZ(s.X)
	case "LDY":
		s.Y = load()
		s.updateNZ(s.Y)
	case "STA":
		store(s.A)
	case "STX":
		store(s.X)
	case "STY":
		store(s.Y)
	case "STZ":
		store(0)

	case "TAX":
		s.X = s.A
		s.updateNZ(s.X)
	case "TAY":
		s.Y = s.A
		s.updateNZ(s.Y)
	case "TXA":
		s.A = s.X
		s.updateNZ(s.A)
	case "TYA":
		s.A = s.Y
		s.updateNZ(s.A)
	case "TSX":
		s.X = s.SP
		s.updateNZ(s.X)
	case "TXS":
		s.SP = s.X

	case "PHA":
		c.push(s.A)
	case "PLA":
		s.A = c.pop()
		s.updateNZ(s.A)
	case "PHX":
		c.push(s.X)
	case "PLX":
		s.X = c.pop()
		s.updateNZ(s.X)
	case "PHY":
		c.push(s.Y)
	case "PLY":
		s.Y = c.pop()
		s.updateNZ(s.Y)
	case "PHP":
		c.push(s.P | FlagB | FlagU)
	case "PLP":
		s.P = c.pop()&^FlagB | FlagU

	case "ADC":
		c.adc(load())
	case "SBC":
		c.sbc(load())

	case "AND":
		s.A &= load()
		s.updateNZ(s.A)
	case "ORA":
		s.A |= load()
		s.updateNZ(s.A)
	case "EOR":
		s.A ^= load()
		s.updateNZ(s.A)
	case "BIT":
		v := load()
		s.SetFlag(FlagZ, s.A&v == 0)
		if entry.Mode != Immediate {
			s.SetFlag(FlagV, v&0x40 != 0)
			s.SetFlag(FlagN, v&0x80 != 0)
		}
	case "TRB":
		v := load()
		s.SetFlag(FlagZ, s.A&v == 0)
		store(v &^ s.A)
	case "TSB":
		v := load()
		s.SetFlag(FlagZ, s.A&v == 0)
		store(v | s.A)

	case "CMP":
		c.compare(s.A, load())
	case "CPX":
		c.compare(s.X, load())
	case "CPY":
		c.compare(s.Y, load())

	case "INC":
		v := load() + 1
		store(v)
		s.updateNZ(v)
	case "DEC":
		v := load() - 1
		store(v)
		s.updateNZ(v)
	case "INX":
		s.X++
		s.updateNZ(s.X)
	case "INY":
		s.Y++
		s.updateNZ(s.Y)
	case "DEX":
		s.X--
		s.updateNZ(s.X)
	case "DEY":
		s.Y--
		s.updateNZ(s.Y)

	case "ASL":
		v := load()
		s.SetFlag(FlagC, v&0x80 != 0)
		v <<= 1
		store(v)
		s.updateNZ(v)
	case "LSR":
		v := load()
		s.SetFlag(FlagC, v&0x01 != 0)
		v >>= 1
		store(v)
		s.updateNZ(v)
	case "ROL":
		v := load()
		carryIn := uint8(0)
		if s.GetFlag(FlagC) {
			carryIn = 1
		}
		s.SetFlag(FlagC, v&0x80 != 0)
		v = v<<1 | carryIn
		store(v)
		s.updateNZ(v)
	case "ROR":
		v := load()
		carryIn := uint8(0)
		if s.GetFlag(FlagC) {
			carryIn = 0x80
		}
		s.SetFlag(FlagC, v&0x01 != 0)
		v = v>>1 | carryIn
		store(v)
		s.updateNZ(v)

	case "JMP":
		*nextPC = o.addr
	case "JSR":
		c.push16(pc + 2)
		*nextPC = o.addr
	case "RTS":
		*nextPC = c.pop16() + 1
	case "RTI":
		s.P = c.pop()&^FlagB | FlagU
		*nextPC = c.pop16()

	case "BCC":
		branch(!s.GetFlag(FlagC))
	case "BCS":
		branch(s.GetFlag(FlagC))
	case "BEQ":
		branch(s.GetFlag(FlagZ))
	case "BNE":
		branch(!s.GetFlag(FlagZ))
	case "BMI":
		branch(s.GetFlag(FlagN))
	case "BPL":
		branch(!s.GetFlag(FlagN))
	case "BVC":
		branch(!s.GetFlag(FlagV))
	case "BVS":
		branch(s.GetFlag(FlagV))
	case "BRA":
		branch(true)

	case "CLC":
		s.SetFlag(FlagC, false)
	case "SEC":
		s.SetFlag(FlagC, true)
	case "CLI":
		s.SetFlag(FlagI, false)
	case "SEI":
		s.SetFlag(FlagI, true)
	case "CLV":
		s.SetFlag(FlagV, false)
	case "CLD":
		s.SetFlag(FlagD, false)
	case "SED":
		s.SetFlag(FlagD, true)

	case "BRK":
		c.push16(pc + 2)
		c.push(s.P | FlagB | FlagU)
		s.SetFlag(FlagI, true)
		*nextPC = c.read16(VectorIRQ)

	case "NOP":
		// documented and undocumented NOPs: consume operand bytes only.

	default:
		if len(entry.Mnemonic) >= 3 {
			switch entry.Mnemonic[:3] {
			case "RMB":
				bit := entry.Mnemonic[3] - '0'
				store(load() &^ (1 << bit))
			case "SMB":
				bit := entry.Mnemonic[3] - '0'
				store(load() | (1 << bit))
			case "BBR":
				bit := entry.Mnemonic[3] - '0'
				c.branchBitTest(o, pc, entry, nextPC, cycles, (load()>>bit)&1 == 0)
			case "BBS":
				bit := entry.Mnemonic[3] - '0'
				c.branchBitTest(o, pc, entry, nextPC, cycles, (load()>>bit)&1 == 1)
			}
		}
	}
}

func (c *CPU) branchBitTest(o operandResult, pc uint16, entry OpcodeEntry, nextPC *uint16, cycles *int, cond bool) {
	if !cond {
		return
	}
	*cycles++
	target := uint16(int32(pc) + int32(entry.Length) + int32(signExtendBranch(o.immediate)))
	*nextPC = target
}

func (c *CPU) compare(reg, v uint8) {
	s := &c.State
	result := reg - v
	s.SetFlag(FlagC, reg >= v)
	s.updateNZ(result)
}

// adc implements ADC including BCD decimal mode when the D flag is set.
// Decimal mode is applied the same way for every Variant.
func (c *CPU) adc(v uint8) {
	s := &c.State
	carry := uint16(0)
	if s.GetFlag(FlagC) {
		carry = 1
	}
	if s.GetFlag(FlagD) {
		lo := uint16(s.A&0x0F) + uint16(v&0x0F) + carry
		hi := uint16(s.A>>4) + uint16(v>>4)
		if lo > 9 {
			lo += 6
			hi++
		}
		result8 := uint8((hi << 4) | (lo & 0x0F))
		s.SetFlag(FlagV, (s.A^v)&0x80 == 0 && (s.A^result8)&0x80 != 0)
		if hi > 9 {
			hi += 6
		}
		s.SetFlag(FlagC, hi > 15)
		s.A = uint8((hi << 4) | (lo & 0x0F))
		s.updateNZ(s.A)
		return
	}
	sum := uint16(s.A) + uint16(v) + carry
	s.SetFlag(FlagV, (s.A^v)&0x80 == 0 && (uint16(s.A)^sum)&0x80 != 0)
	s.SetFlag(FlagC, sum > 0xFF)
	s.A = uint8(sum)
	s.updateNZ(s.A)
}

func (c *CPU) sbc(v uint8) {
	s := &c.State
	borrow := uint16(0)
	if !s.GetFlag(FlagC) {
		borrow = 1
	}
	if s.GetFlag(FlagD) {
		lo := int16(s.A&0x0F) - int16(v&0x0F) - int16(borrow)
		hi := int16(s.A>>4) - int16(v>>4)
		if lo < 0 {
			lo -= 6
			hi--
		}
		if hi < 0 {
			hi -= 6
		}
		sum := uint16(s.A) - uint16(v) - borrow
		s.SetFlag(FlagV, (s.A^v)&0x80 != 0 && (s.A^uint8(sum))&0x80 != 0)
		s.SetFlag(FlagC, sum < 0x100)
		s.A = uint8((hi<<4)&0xF0) | uint8(lo&0x0F)
		s.updateNZ(s.A)
		return
	}
	sum := uint16(s.A) - uint16(v) - borrow
	s.SetFlag(FlagV, (s.A^v)&0x80 != 0 && (s.A^uint8(sum))&0x80 != 0)
	s.SetFlag(FlagC, sum < 0x100)
	s.A = uint8(sum)
	s.updateNZ(s.A)
}
