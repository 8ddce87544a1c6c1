// Completion: 100% - Module complete
package asm

// stackCommon implements PSH/POP: an opcode mask plus a bitset of which
// registers participate. XM and XB may only appear when every other
// register participates too (the all-registers form collapses to bits=0).
func (e *encoder) stackCommon(instr *DecodedInstr, mask uint16) bool {
	if !e.nofunc(instr) {
		return false
	}
	if !e.nocy(instr) {
		return false
	}
	if len(instr.Ops) == 0 {
		e.rep.Fail("Needs at least one register parameter", instr.Pos)
		return false
	}

	const badReg = "Only registers A, B, D, X0, X1, X2, XM and XB can be used"
	var bits uint16
	for _, op := range instr.Ops {
		switch op.Mode {
		case AddrReg:
			switch op.Reg {
			case "a":
				bits |= 0x20
			case "b":
				bits |= 0x10
			case "d":
				bits |= 0x04
			default:
				e.rep.Fail(badReg, instr.Pos)
				return false
			}
		case AddrPtrReg:
			switch op.Reg {
			case "x0":
				bits |= 0x02
			case "x1":
				bits |= 0x01
			case "x2":
				bits |= 0x08
			default:
				e.rep.Fail(badReg, instr.Pos)
				return false
			}
		case AddrSpecial:
			switch op.Reg {
			case "xm":
				bits |= 0x40
			case "xh":
				bits |= 0x80
			default:
				e.rep.Fail(badReg, instr.Pos)
				return false
			}
		default:
			e.rep.Fail(badReg, instr.Pos)
			return false
		}
	}

	if bits&0xC0 != 0 {
		if bits != 0xFF {
			e.rep.Fail("XM and XB must be used in an all register operation", instr.Pos)
			return false
		}
		bits = 0
	}

	return e.pushWord(mask|bits, instr.Pos)
}

func (e *encoder) encodePush(instr *DecodedInstr) bool { return e.stackCommon(instr, 0x80C0) }
func (e *encoder) encodePop(instr *DecodedInstr) bool  { return e.stackCommon(instr, 0x82C0) }
