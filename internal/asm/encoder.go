// Completion: 100% - Module complete
package asm

import "fmt"

// encoder is the instruction encoder: it consumes a DecodedInstr and emits
// opcode words (plus patch requests) into the active section. One instance
// is shared by the whole pass-1 parser chain.
type encoder struct {
	store *Store
	sym   *Symtab
	rep   *Reporter
}

// newEncoder creates an encoder bound to the compile's section store, symbol
// table and reporter.
func newEncoder(store *Store, sym *Symtab, rep *Reporter) *encoder {
	return &encoder{store: store, sym: sym, rep: rep}
}

// Encode dispatches a decoded instruction to its class's encode routine.
func (e *encoder) Encode(instr *DecodedInstr) bool {
	switch instr.Class {
	case ClassRegular:
		return e.encodeRegular(instr)
	case ClassRegularS:
		return e.encodeRegularS(instr)
	case ClassBit:
		return e.encodeBit(instr)
	case ClassMov:
		return e.encodeMov(instr)
	case ClassNop:
		return e.encodeNop(instr)
	case ClassJumpShort:
		return e.encodeJMS(instr)
	case ClassJumpReg:
		return e.encodeJMR(instr)
	case ClassJumpAbs:
		return e.encodeJMA(instr)
	case ClassCallReg:
		return e.encodeJFR(instr)
	case ClassCallAbs:
		return e.encodeJFA(instr)
	case ClassCallSV:
		return e.encodeJSV(instr)
	case ClassReturn:
		return e.encodeRFN(instr)
	case ClassSkipEQ:
		return e.encodeXEQ(instr)
	case ClassSkipNE:
		return e.encodeXNE(instr)
	case ClassSkipUG:
		return e.encodeXUG(instr)
	case ClassSkipNZ:
		return e.encodeJNZ(instr)
	case ClassPush:
		return e.encodePush(instr)
	case ClassPop:
		return e.encodePop(instr)
	default:
		e.rep.Fail("Unrecognized instruction class", instr.Pos)
		return false
	}
}

// pushWord emits one word to the active section, reporting the well-known
// "no space for opcode" fault on overflow.
func (e *encoder) pushWord(v uint16, pos Position) bool {
	if r := e.store.PushWord(v); r != SectOK {
		e.rep.Fail("No space for opcode", pos)
		return false
	}
	return true
}

// opcount checks the operand count for the given value.
func (e *encoder) opcount(instr *DecodedInstr, n int) bool {
	if len(instr.Ops) == n {
		return true
	}
	e.rep.Fail(fmt.Sprintf("Instruction requires %d operands", n), instr.Pos)
	return false
}

// nofunc checks that the instruction carries no parameter list.
func (e *encoder) nofunc(instr *DecodedInstr) bool {
	if len(instr.Params) == 0 {
		return true
	}
	e.rep.Fail("Instruction is not a function call", instr.Pos)
	return false
}

// nocy rejects an instruction that requested the carry-destination variant
// but whose class can't produce one.
func (e *encoder) nocy(instr *DecodedInstr) bool {
	if !instr.Carry {
		return true
	}
	e.rep.Fail("Instruction can not produce carry", instr.Pos)
	return false
}

// isRegOperand reports whether op addresses a bare register (normal a-d or
// pointer x0-x3), the condition opcpr_eops checks via "(adr>>ADR)&0x38==0x30".
func isRegOperand(op Operand) bool {
	return op.Mode == AddrReg || op.Mode == AddrPtrReg
}

// regIndex returns an operand's 3-bit register index: a-d are 0-3, x0-x3 are
// 4-7, matching the shared opcode register field (bits 6-8).
func regIndex(op Operand) uint32 {
	switch op.Mode {
	case AddrReg:
		switch op.Reg {
		case "a":
			return 0
		case "b":
			return 1
		case "c":
			return 2
		case "d":
			return 3
		}
	case AddrPtrReg:
		switch op.Reg {
		case "x0":
			return 4
		case "x1":
			return 5
		case "x2":
			return 6
		case "x3":
			return 7
		}
	}
	return 0
}

// ptrIndex returns a pointer register's 2-bit index (x0-x3 -> 0-3), used by
// the indirect-addressing forms ([ptr-reg], [bp+ptr-reg]).
func ptrIndex(reg string) uint32 {
	switch reg {
	case "x0":
		return 0
	case "x1":
		return 1
	case "x2":
		return 2
	case "x3":
		return 3
	}
	return 0
}

// addrCode computes the 6-bit address-mode field for an operand, following
// the original encoder's addressing-mode assignment: 0x20 bare immediate,
// 0x24 bare stack-relative immediate (bp+/$), 0x28/0x2C absolute data/stack
// memory, 0x30-0x37 direct registers, 0x38-0x3B/0x3C-0x3F indirect through a
// pointer register. Returns ok=false for a special-register operand, which
// is never a valid address-field source.
func addrCode(op Operand) (code uint32, ok bool) {
	switch op.Mode {
	case AddrReg, AddrPtrReg:
		return 0x30 | regIndex(op), true
	case AddrStackImm:
		return 0x24, true
	case AddrImm:
		return 0x20, true
	case AddrDataMem:
		if op.Reg != "" {
			return 0x38 | ptrIndex(op.Reg), true
		}
		return 0x28, true
	case AddrStackMem:
		if op.Reg != "" {
			return 0x3C | ptrIndex(op.Reg), true
		}
		return 0x2C, true
	default:
		return 0, false
	}
}

// addr writes the address field into the just-pushed opcode word, encoding a
// short immediate form inline where possible, else pushing a placeholder NOP
// word and registering a patch of the given shape against it.
func (e *encoder) addr(op Operand, shape Shape, pos Position) bool {
	sec := e.store.Current()
	off := e.store.OffsetWords() - 1

	code, ok := addrCode(op)
	if !ok {
		e.rep.Fail("Invalid operand format in addressing mode", pos)
		return false
	}

	if !op.IsSymbol && shape != R16 && op.Imm < 0x10 && (code == 0x20 || code == 0x2C) {
		short := uint32(0x00)
		if code == 0x2C {
			short = 0x10
		}
		e.store.SetWord(sec, off, uint16(short|(op.Imm&0xF)))
		return true
	}

	if (code & 0x30) != 0x20 {
		e.store.SetWord(sec, off, uint16(code))
		return true
	}

	e.store.SetWord(sec, off, uint16(code))
	if !e.pushWord(0xC000, pos) {
		return false
	}
	if op.IsSymbol {
		e.sym.Use(op.SymID, sec, off, shape, pos)
		return true
	}
	return Write(e.store, sec, off, shape, op.Imm, e.rep, pos)
}

// eops encodes a two-operand instruction selecting between "adr, rx" and
// "rx, adr" encodings; swp indicates whether the order is selectable at all
// (an RS-class instruction passes swp=false and requires the fixed order).
func (e *encoder) eops(instr *DecodedInstr, swp bool) bool {
	sec := e.store.Current()
	off := e.store.OffsetWords() - 1
	if !e.opcount(instr, 2) {
		return false
	}

	reg, adr := instr.Ops[1], instr.Ops[0]
	if !isRegOperand(reg) {
		if swp {
			e.store.SetWord(sec, off, 0x0200)
		}
		reg, adr = instr.Ops[0], instr.Ops[1]
		if !isRegOperand(reg) {
			e.rep.Fail("One of the operands must be register", instr.Pos)
			return false
		}
	}

	e.store.SetWord(sec, off, uint16(regIndex(reg))<<6)
	return e.addr(adr, A16, instr.Pos)
}
