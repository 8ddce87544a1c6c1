// Completion: 100% - Module complete
package asm

// movTb0, movTb1 and movTb2 are the three compact-immediate lookup tables
// MOV consults before falling back to a full A16 address encoding. Each
// maps a 6-bit index (the opcode word's low bits) to the exact 16-bit
// immediate it produces.
var movTb0 = [64]uint16{
	0x0280, 0xFF0F, 0xF0FF, 0x0180, 0x0300, 0x01C0, 0x0F00, 0x0118,
	0x0140, 0x0168, 0x0190, 0x01B8, 0x01E0, 0x0208, 0x0230, 0x0258,
	0x0010, 0x0011, 0x0012, 0x0013, 0x0014, 0x0015, 0x0016, 0x0017,
	0x0018, 0x0019, 0x001A, 0x001B, 0x001C, 0x001D, 0x001E, 0x001F,
	0x0020, 0x0021, 0x0022, 0x0023, 0x0024, 0x0025, 0x0026, 0x0027,
	0x0028, 0x0029, 0x002A, 0x002B, 0x002C, 0x002D, 0x002E, 0x002F,
	0x0030, 0x0031, 0x0032, 0x0033, 0x0034, 0x0035, 0x0036, 0x0037,
	0x0038, 0x0039, 0x003A, 0x003B, 0x003C, 0x003D, 0x003E, 0x003F,
}

var movTb1 = [64]uint16{
	0x0040, 0x0041, 0x0042, 0x0043, 0x0044, 0x0045, 0x0046, 0x0047,
	0x0048, 0x0049, 0x004A, 0x004B, 0x004C, 0x004D, 0x004E, 0x004F,
	0x0050, 0x0051, 0x0052, 0x0053, 0x0054, 0x0055, 0x0056, 0x0057,
	0x0058, 0x0059, 0x005A, 0x005B, 0x005C, 0x005D, 0x005E, 0x005F,
	0x0060, 0x0061, 0x0062, 0x0063, 0x0064, 0x0065, 0x0066, 0x0067,
	0x0068, 0x0069, 0x006A, 0x006B, 0x006C, 0x006D, 0x006E, 0x006F,
	0x0070, 0x0071, 0x0072, 0x0073, 0x0074, 0x0075, 0x0076, 0x0077,
	0x0078, 0x0079, 0x007A, 0x007B, 0x007C, 0x007D, 0x007E, 0x007F,
}

var movTb2 = [64]uint16{
	0x0080, 0x0088, 0x0090, 0x0098, 0x0010, 0x0020, 0x0040, 0x0080,
	0x0100, 0x0200, 0x0400, 0x0800, 0x1000, 0x2000, 0x4000, 0x8000,
	0x00A0, 0x00A8, 0x00B0, 0x00B8, 0xFFEF, 0xFFDF, 0xFFBF, 0xFF7F,
	0xFEFF, 0xFDFF, 0xFBFF, 0xF7FF, 0xEFFF, 0xDFFF, 0xBFFF, 0x7FFF,
	0x00C0, 0x00C8, 0x00D0, 0x00D8, 0xFFE0, 0xFFC0, 0xFF80, 0xFF00,
	0xFE00, 0xFC00, 0xF800, 0xF000, 0xE000, 0xC000, 0x8000, 0x0000,
	0x00E0, 0x00E8, 0x00F0, 0x00F8, 0x001F, 0x003F, 0x007F, 0x00FF,
	0x01FF, 0x03FF, 0x07FF, 0x0FFF, 0x1FFF, 0x3FFF, 0x7FFF, 0xFFFF,
}

// isImmCode reports whether op's address-mode code falls in the "bare
// immediate" group (AddrImm or AddrStackImm) that MOV's compact encodings
// and the function-parameter compactor may special-case.
func isImmCode(op Operand) bool {
	code, ok := addrCode(op)
	return ok && code&0x38 == 0x20
}

// encodeMov implements MOV's order selection, compact-immediate forms and
// special-register targets.
func (e *encoder) encodeMov(instr *DecodedInstr) bool {
	if !e.nofunc(instr) {
		return false
	}
	if !e.opcount(instr, 2) {
		return false
	}
	if !e.nocy(instr) {
		return false
	}

	sec := e.store.Current()
	off := e.store.OffsetWords()
	if !e.pushWord(0x0000, instr.Pos) {
		return false
	}

	reg, adr := instr.Ops[1], instr.Ops[0]
	if adr.Mode == AddrSpecial || (reg.Mode != AddrSpecial && !isRegOperand(reg)) {
		e.store.SetWord(sec, off, 0x0200)
		reg, adr = instr.Ops[0], instr.Ops[1]
	} else {
		if isImmCode(adr) {
			e.rep.Fail("Immediate as target in MOV is not supported", instr.Pos)
			return false
		}
		if reg.Mode != AddrSpecial && !isRegOperand(reg) {
			e.rep.Fail("One of the operands must be register", instr.Pos)
			return false
		}
	}
	if adr.Mode == AddrSpecial {
		e.rep.Fail("Both operands can not be special registers", instr.Pos)
		return false
	}

	if isRegOperand(reg) {
		idx := regIndex(reg)
		if isImmCode(adr) && !adr.IsSymbol {
			v := adr.Imm & 0xFFFF
			if v >= 0xFFF0 {
				w := uint32(0x2000) | (idx&0x7)<<6 | ((^v) & 0xFFFF)
				e.store.SetWord(sec, off, uint16(w))
				return true
			}
			for i, t := range movTb0 {
				if uint16(v) == t {
					e.store.SetWord(sec, off, uint16(0x0600|(idx&0x7)<<6)|uint16(i))
					return true
				}
			}
			for i, t := range movTb1 {
				if uint16(v) == t {
					e.store.SetWord(sec, off, uint16(0x4600|(idx&0x7)<<6)|uint16(i))
					return true
				}
			}
			for i, t := range movTb2 {
				if uint16(v) == t {
					e.store.SetWord(sec, off, uint16(0x8600|(idx&0x7)<<6)|uint16(i))
					return true
				}
			}
		}
		e.store.SetWord(sec, off, uint16(idx&0x7)<<6)
		return e.addr(adr, A16, instr.Pos)
	}

	if reg.Mode == AddrSpecial {
		return e.encodeMovSpecial(reg, adr, sec, off, instr.Pos)
	}

	e.rep.Fail("Invalid MOV", instr.Pos)
	return false
}

// encodeMovSpecial handles a MOV whose target is a special register: sp
// (with its own imm7 short form), xm/xh (single-register group) or an
// indexed xmN/xhN (indexed group).
func (e *encoder) encodeMovSpecial(reg, adr Operand, sec SectionID, off int, pos Position) bool {
	if reg.Reg == "sp" && isImmCode(adr) && !adr.IsSymbol && adr.Imm < 128 {
		e.store.SetWord(sec, off, uint16(0x8380|adr.Imm))
		return true
	}

	switch reg.Reg {
	case "sp":
		e.store.SetWord(sec, off, 0x8000|uint16(0<<6))
		return e.addr(adr, A16, pos)
	case "xm":
		e.store.SetWord(sec, off, 0x8000|uint16(1<<6))
		return e.addr(adr, A16, pos)
	case "xh":
		e.store.SetWord(sec, off, 0x8000|uint16(2<<6))
		return e.addr(adr, A16, pos)
	case "xm0", "xm1", "xm2", "xm3":
		idx := uint16(reg.Reg[2] - '0')
		e.store.SetWord(sec, off, 0x4000|idx<<6)
		return e.addr(adr, A16, pos)
	case "xh0", "xh1", "xh2", "xh3":
		idx := uint16(reg.Reg[2]-'0') + 4
		e.store.SetWord(sec, off, 0x4000|idx<<6)
		return e.addr(adr, A16, pos)
	}

	e.rep.Fail("Invalid MOV", pos)
	return false
}
