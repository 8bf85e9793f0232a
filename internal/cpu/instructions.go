package cpu

// branch is the shared implementation for the eight conditional branches:
// add 1 cycle if taken, +1 more if the branch target crosses a page.
func (c *CPU) branch(taken bool) uint8 {
	if !taken {
		return 0
	}
	c.pending++
	target := uint16(int32(c.PC) + int32(c.addrRel))
	if target&0xFF00 != c.PC&0xFF00 {
		c.pending++
	}
	c.PC = target
	return 0
}

func (c *CPU) opADC(v *CPU) uint8 {
	m := uint16(v.fetch())
	sum := uint16(v.A) + m
	if v.getFlag(FlagC) {
		sum++
	}
	result := uint8(sum)
	v.setFlag(FlagC, sum > 0xFF)
	v.setFlag(FlagV, (^(uint16(v.A)^m)&(uint16(v.A)^sum))&0x80 != 0)
	v.A = result
	v.setZN(v.A)
	return 1
}

func (c *CPU) opSBC(v *CPU) uint8 {
	m := uint16(v.fetch()) ^ 0x00FF
	sum := uint16(v.A) + m
	if v.getFlag(FlagC) {
		sum++
	}
	result := uint8(sum)
	v.setFlag(FlagC, sum > 0xFF)
	v.setFlag(FlagV, (^(uint16(v.A)^m)&(uint16(v.A)^sum))&0x80 != 0)
	v.A = result
	v.setZN(v.A)
	return 1
}

func (c *CPU) opAND(v *CPU) uint8 { v.A &= v.fetch(); v.setZN(v.A); return 1 }
func (c *CPU) opORA(v *CPU) uint8 { v.A |= v.fetch(); v.setZN(v.A); return 1 }
func (c *CPU) opEOR(v *CPU) uint8 { v.A ^= v.fetch(); v.setZN(v.A); return 1 }

func (c *CPU) opBIT(v *CPU) uint8 {
	m := v.fetch()
	v.setFlag(FlagZ, (v.A&m) == 0)
	v.setFlag(FlagV, m&0x40 != 0)
	v.setFlag(FlagN, m&0x80 != 0)
	return 0
}

func (c *CPU) compare(reg uint8) uint8 {
	m := c.fetch()
	r := reg - m
	c.setFlag(FlagC, reg >= m)
	c.setFlag(FlagZ, reg == m)
	c.setFlag(FlagN, r&0x80 != 0)
	return 1
}
func (c *CPU) opCMP(v *CPU) uint8 { return v.compare(v.A) }
func (c *CPU) opCPX(v *CPU) uint8 { return v.compare(v.X) }
func (c *CPU) opCPY(v *CPU) uint8 { return v.compare(v.Y) }

func (c *CPU) opASL(v *CPU) uint8 {
	m := v.fetch()
	v.setFlag(FlagC, m&0x80 != 0)
	r := m << 1
	if v.mode == IMP {
		v.A = r
	} else {
		v.write(v.addrAbs, r)
	}
	v.setZN(r)
	return 0
}

func (c *CPU) opLSR(v *CPU) uint8 {
	m := v.fetch()
	v.setFlag(FlagC, m&0x01 != 0)
	r := m >> 1
	if v.mode == IMP {
		v.A = r
	} else {
		v.write(v.addrAbs, r)
	}
	v.setZN(r)
	return 0
}

func (c *CPU) opROL(v *CPU) uint8 {
	m := v.fetch()
	carryIn := uint8(0)
	if v.getFlag(FlagC) {
		carryIn = 1
	}
	v.setFlag(FlagC, m&0x80 != 0)
	r := (m << 1) | carryIn
	if v.mode == IMP {
		v.A = r
	} else {
		v.write(v.addrAbs, r)
	}
	v.setZN(r)
	return 0
}

func (c *CPU) opROR(v *CPU) uint8 {
	m := v.fetch()
	carryIn := uint8(0)
	if v.getFlag(FlagC) {
		carryIn = 0x80
	}
	v.setFlag(FlagC, m&0x01 != 0)
	r := (m >> 1) | carryIn
	if v.mode == IMP {
		v.A = r
	} else {
		v.write(v.addrAbs, r)
	}
	v.setZN(r)
	return 0
}

func (c *CPU) opINC(v *CPU) uint8 {
	r := v.read(v.addrAbs) + 1
	v.write(v.addrAbs, r)
	v.setZN(r)
	return 0
}
func (c *CPU) opDEC(v *CPU) uint8 {
	r := v.read(v.addrAbs) - 1
	v.write(v.addrAbs, r)
	v.setZN(r)
	return 0
}

func (c *CPU) opINX(v *CPU) uint8 { v.X++; v.setZN(v.X); return 0 }
func (c *CPU) opINY(v *CPU) uint8 { v.Y++; v.setZN(v.Y); return 0 }
func (c *CPU) opDEX(v *CPU) uint8 { v.X--; v.setZN(v.X); return 0 }
func (c *CPU) opDEY(v *CPU) uint8 { v.Y--; v.setZN(v.Y); return 0 }

func (c *CPU) opLDA(v *CPU) uint8 { v.A = v.fetch(); v.setZN(v.A); return 1 }
func (c *CPU) opLDX(v *CPU) uint8 { v.X = v.fetch(); v.setZN(v.X); return 1 }
func (c *CPU) opLDY(v *CPU) uint8 { v.Y = v.fetch(); v.setZN(v.Y); return 1 }

func (c *CPU) opSTA(v *CPU) uint8 { v.write(v.addrAbs, v.A); return 0 }
func (c *CPU) opSTX(v *CPU) uint8 { v.write(v.addrAbs, v.X); return 0 }
func (c *CPU) opSTY(v *CPU) uint8 { v.write(v.addrAbs, v.Y); return 0 }

func (c *CPU) opTAX(v *CPU) uint8 { v.X = v.A; v.setZN(v.X); return 0 }
func (c *CPU) opTAY(v *CPU) uint8 { v.Y = v.A; v.setZN(v.Y); return 0 }
func (c *CPU) opTXA(v *CPU) uint8 { v.A = v.X; v.setZN(v.A); return 0 }
func (c *CPU) opTYA(v *CPU) uint8 { v.A = v.Y; v.setZN(v.A); return 0 }
func (c *CPU) opTSX(v *CPU) uint8 { v.X = v.SP; v.setZN(v.X); return 0 }
func (c *CPU) opTXS(v *CPU) uint8 { v.SP = v.X; return 0 }

func (c *CPU) opPHA(v *CPU) uint8 { v.push(v.A); return 0 }
func (c *CPU) opPLA(v *CPU) uint8 { v.A = v.pop(); v.setZN(v.A); return 0 }
func (c *CPU) opPHP(v *CPU) uint8 { v.push(v.Status | FlagB | FlagU); return 0 }
func (c *CPU) opPLP(v *CPU) uint8 {
	v.Status = v.pop()
	v.setFlag(FlagU, true)
	return 0
}

func (c *CPU) opCLC(v *CPU) uint8 { v.setFlag(FlagC, false); return 0 }
func (c *CPU) opSEC(v *CPU) uint8 { v.setFlag(FlagC, true); return 0 }
func (c *CPU) opCLI(v *CPU) uint8 { v.setFlag(FlagI, false); return 0 }
func (c *CPU) opSEI(v *CPU) uint8 { v.setFlag(FlagI, true); return 0 }
func (c *CPU) opCLV(v *CPU) uint8 { v.setFlag(FlagV, false); return 0 }
func (c *CPU) opCLD(v *CPU) uint8 { v.setFlag(FlagD, false); return 0 }
func (c *CPU) opSED(v *CPU) uint8 { v.setFlag(FlagD, true); return 0 }

func (c *CPU) opJMP(v *CPU) uint8 { v.PC = v.addrAbs; return 0 }
func (c *CPU) opJSR(v *CPU) uint8 {
	v.pushWord(v.PC - 1)
	v.PC = v.addrAbs
	return 0
}
func (c *CPU) opRTS(v *CPU) uint8 { v.PC = v.popWord() + 1; return 0 }

func (c *CPU) opBCC(v *CPU) uint8 { return v.branch(!v.getFlag(FlagC)) }
func (c *CPU) opBCS(v *CPU) uint8 { return v.branch(v.getFlag(FlagC)) }
func (c *CPU) opBEQ(v *CPU) uint8 { return v.branch(v.getFlag(FlagZ)) }
func (c *CPU) opBNE(v *CPU) uint8 { return v.branch(!v.getFlag(FlagZ)) }
func (c *CPU) opBMI(v *CPU) uint8 { return v.branch(v.getFlag(FlagN)) }
func (c *CPU) opBPL(v *CPU) uint8 { return v.branch(!v.getFlag(FlagN)) }
func (c *CPU) opBVC(v *CPU) uint8 { return v.branch(!v.getFlag(FlagV)) }
func (c *CPU) opBVS(v *CPU) uint8 { return v.branch(v.getFlag(FlagV)) }

func (c *CPU) opBRK(v *CPU) uint8 {
	v.PC++
	v.pushWord(v.PC)
	v.push(v.Status | FlagB | FlagU)
	v.setFlag(FlagB, false)
	v.PC = v.read16(0xFFFE)
	v.setFlag(FlagI, true)
	return 0
}

func (c *CPU) opRTI(v *CPU) uint8 {
	v.Status = v.pop()
	v.setFlag(FlagB, false)
	v.setFlag(FlagU, true)
	v.PC = v.popWord()
	return 0
}

func (c *CPU) opNOP(v *CPU) uint8 { return 0 }

// buildTable fills the 256-entry dispatch table. Every official opcode
// gets its canonical addressing mode and cycle count; every remaining
// (undocumented) opcode maps to a no-op, per spec: the dispatch table
// always has exactly 256 entries and every entry has a defined cycle
// count.
func (c *CPU) buildTable() {
	for i := range c.table {
		c.table[i] = instruction{name: "NOP", mode: IMP, execute: func(x *CPU) uint8 { return x.opNOP(x) }, cycles: 2}
	}

	type row struct {
		op      uint8
		name    string
		mode    AddressingMode
		execute func(*CPU, *CPU) uint8
		cycles  uint8
	}

	rows := []row{
		{0x00, "BRK", IMP, (*CPU).opBRK, 7},
		{0x01, "ORA", IZX, (*CPU).opORA, 6},
		{0x05, "ORA", ZP0, (*CPU).opORA, 3},
		{0x06, "ASL", ZP0, (*CPU).opASL, 5},
		{0x08, "PHP", IMP, (*CPU).opPHP, 3},
		{0x09, "ORA", IMM, (*CPU).opORA, 2},
		{0x0A, "ASL", IMP, (*CPU).opASL, 2},
		{0x0D, "ORA", ABS, (*CPU).opORA, 4},
		{0x0E, "ASL", ABS, (*CPU).opASL, 6},

		{0x10, "BPL", REL, (*CPU).opBPL, 2},
		{0x11, "ORA", IZY, (*CPU).opORA, 5},
		{0x15, "ORA", ZPX, (*CPU).opORA, 4},
		{0x16, "ASL", ZPX, (*CPU).opASL, 6},
		{0x18, "CLC", IMP, (*CPU).opCLC, 2},
		{0x19, "ORA", ABY, (*CPU).opORA, 4},
		{0x1D, "ORA", ABX, (*CPU).opORA, 4},
		{0x1E, "ASL", ABX, (*CPU).opASL, 7},

		{0x20, "JSR", ABS, (*CPU).opJSR, 6},
		{0x21, "AND", IZX, (*CPU).opAND, 6},
		{0x24, "BIT", ZP0, (*CPU).opBIT, 3},
		{0x25, "AND", ZP0, (*CPU).opAND, 3},
		{0x26, "ROL", ZP0, (*CPU).opROL, 5},
		{0x28, "PLP", IMP, (*CPU).opPLP, 4},
		{0x29, "AND", IMM, (*CPU).opAND, 2},
		{0x2A, "ROL", IMP, (*CPU).opROL, 2},
		{0x2C, "BIT", ABS, (*CPU).opBIT, 4},
		{0x2D, "AND", ABS, (*CPU).opAND, 4},
		{0x2E, "ROL", ABS, (*CPU).opROL, 6},

		{0x30, "BMI", REL, (*CPU).opBMI, 2},
		{0x31, "AND", IZY, (*CPU).opAND, 5},
		{0x35, "AND", ZPX, (*CPU).opAND, 4},
		{0x36, "ROL", ZPX, (*CPU).opROL, 6},
		{0x38, "SEC", IMP, (*CPU).opSEC, 2},
		{0x39, "AND", ABY, (*CPU).opAND, 4},
		{0x3D, "AND", ABX, (*CPU).opAND, 4},
		{0x3E, "ROL", ABX, (*CPU).opROL, 7},

		{0x40, "RTI", IMP, (*CPU).opRTI, 6},
		{0x41, "EOR", IZX, (*CPU).opEOR, 6},
		{0x45, "EOR", ZP0, (*CPU).opEOR, 3},
		{0x46, "LSR", ZP0, (*CPU).opLSR, 5},
		{0x48, "PHA", IMP, (*CPU).opPHA, 3},
		{0x49, "EOR", IMM, (*CPU).opEOR, 2},
		{0x4A, "LSR", IMP, (*CPU).opLSR, 2},
		{0x4C, "JMP", ABS, (*CPU).opJMP, 3},
		{0x4D, "EOR", ABS, (*CPU).opEOR, 4},
		{0x4E, "LSR", ABS, (*CPU).opLSR, 6},

		{0x50, "BVC", REL, (*CPU).opBVC, 2},
		{0x51, "EOR", IZY, (*CPU).opEOR, 5},
		{0x55, "EOR", ZPX, (*CPU).opEOR, 4},
		{0x56, "LSR", ZPX, (*CPU).opLSR, 6},
		{0x58, "CLI", IMP, (*CPU).opCLI, 2},
		{0x59, "EOR", ABY, (*CPU).opEOR, 4},
		{0x5D, "EOR", ABX, (*CPU).opEOR, 4},
		{0x5E, "LSR", ABX, (*CPU).opLSR, 7},

		{0x60, "RTS", IMP, (*CPU).opRTS, 6},
		{0x61, "ADC", IZX, (*CPU).opADC, 6},
		{0x65, "ADC", ZP0, (*CPU).opADC, 3},
		{0x66, "ROR", ZP0, (*CPU).opROR, 5},
		{0x68, "PLA", IMP, (*CPU).opPLA, 4},
		{0x69, "ADC", IMM, (*CPU).opADC, 2},
		{0x6A, "ROR", IMP, (*CPU).opROR, 2},
		{0x6C, "JMP", IND, (*CPU).opJMP, 5},
		{0x6D, "ADC", ABS, (*CPU).opADC, 4},
		{0x6E, "ROR", ABS, (*CPU).opROR, 6},

		{0x70, "BVS", REL, (*CPU).opBVS, 2},
		{0x71, "ADC", IZY, (*CPU).opADC, 5},
		{0x75, "ADC", ZPX, (*CPU).opADC, 4},
		{0x76, "ROR", ZPX, (*CPU).opROR, 6},
		{0x78, "SEI", IMP, (*CPU).opSEI, 2},
		{0x79, "ADC", ABY, (*CPU).opADC, 4},
		{0x7D, "ADC", ABX, (*CPU).opADC, 4},
		{0x7E, "ROR", ABX, (*CPU).opROR, 7},

		{0x81, "STA", IZX, (*CPU).opSTA, 6},
		{0x84, "STY", ZP0, (*CPU).opSTY, 3},
		{0x85, "STA", ZP0, (*CPU).opSTA, 3},
		{0x86, "STX", ZP0, (*CPU).opSTX, 3},
		{0x88, "DEY", IMP, (*CPU).opDEY, 2},
		{0x8A, "TXA", IMP, (*CPU).opTXA, 2},
		{0x8C, "STY", ABS, (*CPU).opSTY, 4},
		{0x8D, "STA", ABS, (*CPU).opSTA, 4},
		{0x8E, "STX", ABS, (*CPU).opSTX, 4},

		{0x90, "BCC", REL, (*CPU).opBCC, 2},
		{0x91, "STA", IZY, (*CPU).opSTA, 6},
		{0x94, "STY", ZPX, (*CPU).opSTY, 4},
		{0x95, "STA", ZPX, (*CPU).opSTA, 4},
		{0x96, "STX", ZPY, (*CPU).opSTX, 4},
		{0x98, "TYA", IMP, (*CPU).opTYA, 2},
		{0x99, "STA", ABY, (*CPU).opSTA, 5},
		{0x9A, "TXS", IMP, (*CPU).opTXS, 2},
		{0x9D, "STA", ABX, (*CPU).opSTA, 5},

		{0xA0, "LDY", IMM, (*CPU).opLDY, 2},
		{0xA1, "LDA", IZX, (*CPU).opLDA, 6},
		{0xA2, "LDX", IMM, (*CPU).opLDX, 2},
		{0xA4, "LDY", ZP0, (*CPU).opLDY, 3},
		{0xA5, "LDA", ZP0, (*CPU).opLDA, 3},
		{0xA6, "LDX", ZP0, (*CPU).opLDX, 3},
		{0xA8, "TAY", IMP, (*CPU).opTAY, 2},
		{0xA9, "LDA", IMM, (*CPU).opLDA, 2},
		{0xAA, "TAX", IMP, (*CPU).opTAX, 2},
		{0xAC, "LDY", ABS, (*CPU).opLDY, 4},
		{0xAD, "LDA", ABS, (*CPU).opLDA, 4},
		{0xAE, "LDX", ABS, (*CPU).opLDX, 4},

		{0xB0, "BCS", REL, (*CPU).opBCS, 2},
		{0xB1, "LDA", IZY, (*CPU).opLDA, 5},
		{0xB4, "LDY", ZPX, (*CPU).opLDY, 4},
		{0xB5, "LDA", ZPX, (*CPU).opLDA, 4},
		{0xB6, "LDX", ZPY, (*CPU).opLDX, 4},
		{0xB8, "CLV", IMP, (*CPU).opCLV, 2},
		{0xB9, "LDA", ABY, (*CPU).opLDA, 4},
		{0xBA, "TSX", IMP, (*CPU).opTSX, 2},
		{0xBC, "LDY", ABX, (*CPU).opLDY, 4},
		{0xBD, "LDA", ABX, (*CPU).opLDA, 4},
		{0xBE, "LDX", ABY, (*CPU).opLDX, 4},

		{0xC0, "CPY", IMM, (*CPU).opCPY, 2},
		{0xC1, "CMP", IZX, (*CPU).opCMP, 6},
		{0xC4, "CPY", ZP0, (*CPU).opCPY, 3},
		{0xC5, "CMP", ZP0, (*CPU).opCMP, 3},
		{0xC6, "DEC", ZP0, (*CPU).opDEC, 5},
		{0xC8, "INY", IMP, (*CPU).opINY, 2},
		{0xC9, "CMP", IMM, (*CPU).opCMP, 2},
		{0xCA, "DEX", IMP, (*CPU).opDEX, 2},
		{0xCC, "CPY", ABS, (*CPU).opCPY, 4},
		{0xCD, "CMP", ABS, (*CPU).opCMP, 4},
		{0xCE, "DEC", ABS, (*CPU).opDEC, 6},

		{0xD0, "BNE", REL, (*CPU).opBNE, 2},
		{0xD1, "CMP", IZY, (*CPU).opCMP, 5},
		{0xD5, "CMP", ZPX, (*CPU).opCMP, 4},
		{0xD6, "DEC", ZPX, (*CPU).opDEC, 6},
		{0xD8, "CLD", IMP, (*CPU).opCLD, 2},
		{0xD9, "CMP", ABY, (*CPU).opCMP, 4},
		{0xDD, "CMP", ABX, (*CPU).opCMP, 4},
		{0xDE, "DEC", ABX, (*CPU).opDEC, 7},

		{0xE0, "CPX", IMM, (*CPU).opCPX, 2},
		{0xE1, "SBC", IZX, (*CPU).opSBC, 6},
		{0xE4, "CPX", ZP0, (*CPU).opCPX, 3},
		{0xE5, "SBC", ZP0, (*CPU).opSBC, 3},
		{0xE6, "INC", ZP0, (*CPU).opINC, 5},
		{0xE8, "INX", IMP, (*CPU).opINX, 2},
		{0xE9, "SBC", IMM, (*CPU).opSBC, 2},
		{0xEA, "NOP", IMP, (*CPU).opNOP, 2},
		{0xEC, "CPX", ABS, (*CPU).opCPX, 4},
		{0xED, "SBC", ABS, (*CPU).opSBC, 4},
		{0xEE, "INC", ABS, (*CPU).opINC, 6},

		{0xF0, "BEQ", REL, (*CPU).opBEQ, 2},
		{0xF1, "SBC", IZY, (*CPU).opSBC, 5},
		{0xF5, "SBC", ZPX, (*CPU).opSBC, 4},
		{0xF6, "INC", ZPX, (*CPU).opINC, 6},
		{0xF8, "SED", IMP, (*CPU).opSED, 2},
		{0xF9, "SBC", ABY, (*CPU).opSBC, 4},
		{0xFD, "SBC", ABX, (*CPU).opSBC, 4},
		{0xFE, "INC", ABX, (*CPU).opINC, 7},
	}

	for _, r := range rows {
		exec := r.execute
		c.table[r.op] = instruction{name: r.name, mode: r.mode, execute: func(x *CPU) uint8 { return exec(x, x) }, cycles: r.cycles}
	}
}
