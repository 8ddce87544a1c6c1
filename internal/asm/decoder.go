// Completion: 100% - Module complete
package asm

import "strings"

// mnemonicInfo maps a mnemonic to its class, its fixed opcode-word mask (for
// ClassRegular/ClassRegularS/ClassBit; ignored for classes with a dedicated
// encoder) and whether a "c:" carry-destination prefix is legal for it.
type mnemonicInfo struct {
	class      InstrClass
	mask       uint16
	allowCarry bool
}

var mnemonics = map[string]mnemonicInfo{
	"add": {ClassRegular, 0x0800, true}, "adc": {ClassRegular, 0x1800, true},
	"sub": {ClassRegular, 0x0C00, true}, "sbc": {ClassRegular, 0x1C00, true},
	"and": {ClassRegular, 0x8800, false}, "or": {ClassRegular, 0x1000, false}, "xor": {ClassRegular, 0x5000, false},
	"asr": {ClassRegular, 0x3000, true}, "shl": {ClassRegular, 0x2C00, true}, "shr": {ClassRegular, 0x2800, true},
	"slc": {ClassRegular, 0x3C00, true}, "src": {ClassRegular, 0x3800, true},
	"mac": {ClassRegular, 0x3400, true}, "mul": {ClassRegular, 0x2400, true}, "div": {ClassRegular, 0x1400, true},
	"neg": {ClassRegular, 0x6000, false}, "not": {ClassRegular, 0x2000, false},
	"xsg": {ClassRegular, 0xB400, false},
	"btc": {ClassBit, 0xA000, false}, "bts": {ClassBit, 0xA800, false},
	"xbc": {ClassBit, 0xA400, false}, "xbs": {ClassBit, 0xAC00, false},
	"xch": {ClassRegularS, 0x0400, false},
	"xsl": {ClassRegular, 0xB400, false}, // alias of xsg, operands swapped post-decode
	"xug": {ClassSkipUG, 0, false},
	"xul": {ClassSkipUG, 0, false}, // alias of xug, operands swapped post-decode
	"xeq": {ClassSkipEQ, 0, false}, "xne": {ClassSkipNE, 0, false},
	"mov": {ClassMov, 0, false},
	"nop": {ClassNop, 0, false},
	"jms": {ClassJumpShort, 0, false},
	"jmr": {ClassJumpReg, 0, false}, "jma": {ClassJumpAbs, 0, false},
	"jfr": {ClassCallReg, 0, false}, "jfa": {ClassCallAbs, 0, false}, "jsv": {ClassCallSV, 0, false},
	"rfn": {ClassReturn, 0, true},
	"jnz": {ClassSkipNZ, 0, false},
	"psh": {ClassPush, 0, false}, "pop": {ClassPop, 0, false},
}

// aliasSwap lists mnemonics that are decoded as another mnemonic's class
// with operands swapped after decode (xsl/xul alias xsg/xug).
var aliasSwap = map[string]string{
	"xsl": "xsg",
	"xul": "xug",
}

var registerNames = map[string]bool{"a": true, "b": true, "c": true, "d": true}
var ptrRegisterNames = map[string]bool{"x0": true, "x1": true, "x2": true, "x3": true}
var specialRegisterNames = map[string]bool{
	"sp": true, "xm": true, "xh": true,
	"xm0": true, "xm1": true, "xm2": true, "xm3": true,
	"xh0": true, "xh1": true, "xh2": true, "xh3": true,
}

// Decoder recognizes a mnemonic and parses its operand/parameter lists into
// a DecodedInstr. It consults the symbol table only to register/resolve
// immediates via the literal parser.
type Decoder struct {
	sym *Symtab
	rep *Reporter
}

// NewDecoder creates a Decoder bound to the compile's symbol table and
// reporter.
func NewDecoder(sym *Symtab, rep *Reporter) *Decoder {
	return &Decoder{sym: sym, rep: rep}
}

// Decode attempts to parse one instruction starting at line[i]. It returns
// (nil, i, false) if the leading token is not a recognized mnemonic (the
// caller then tries the next parser in the chain); otherwise it returns the
// decoded instruction and the index just past the parsed line content.
func (d *Decoder) Decode(line string, i int, pos Position) (*DecodedInstr, int, bool) {
	start := i
	for i < len(line) && IsSymbolChar(line[i]) {
		i++
	}
	if i == start {
		return nil, start, false
	}
	word := strings.ToLower(line[start:i])
	info, ok := mnemonics[word]
	if !ok {
		return nil, start, false
	}

	instr := &DecodedInstr{Mnemonic: word, Class: info.class, Mask: info.mask, Pos: pos}
	i = SkipWhitespace(line, i)

	// The "c:" carry-destination prefix is recognized for every mnemonic
	// here; whether a given class actually permits it is an encoder-level
	// contract check (nocy), since "c" doubles as a register name and the
	// ambiguity needs the full class table to resolve correctly.
	if i+1 < len(line) && line[i] == 'c' && line[i+1] == ':' {
		instr.Carry = true
		i = SkipWhitespace(line, i+2)
	}

	for !atLineEnd(line, i) && line[i] != '{' {
		op, next, ok := d.parseOperand(line, i, pos, false)
		if !ok {
			d.rep.Fail("Bad operand", pos)
			return instr, next, true
		}
		instr.Ops = append(instr.Ops, op)
		i = SkipWhitespace(line, next)
		if i < len(line) && line[i] == ',' {
			i = SkipWhitespace(line, i+1)
			continue
		}
		break
	}

	i = SkipWhitespace(line, i)
	if i < len(line) && line[i] == '{' {
		i++
		for {
			i = SkipWhitespace(line, i)
			if i < len(line) && line[i] == '}' {
				i++
				break
			}
			if len(instr.Params) >= maxParams {
				d.rep.Fail("Too many parameters", pos)
				break
			}
			op, next, ok := d.parseOperand(line, i, pos, true)
			if !ok {
				d.rep.Fail("Bad parameter", pos)
				break
			}
			instr.Params = append(instr.Params, op)
			i = SkipWhitespace(line, next)
			if i < len(line) && line[i] == ',' {
				i++
				continue
			}
		}
	}

	if alias, ok := aliasSwap[word]; ok {
		instr.Mnemonic = alias
		instr.Class = mnemonics[alias].class
		if len(instr.Ops) == 2 {
			instr.Ops[0], instr.Ops[1] = instr.Ops[1], instr.Ops[0]
		}
	}

	return instr, i, true
}

func atLineEnd(line string, i int) bool {
	return i >= len(line) || IsLineEnd(line[i])
}

// parseOperand parses one address expression. noSpecial disables special
// register forms, as required inside a {...} parameter list.
func (d *Decoder) parseOperand(line string, i int, pos Position, noSpecial bool) (Operand, int, bool) {
	i = SkipWhitespace(line, i)
	if i >= len(line) {
		return Operand{}, i, false
	}

	switch line[i] {
	case '[':
		return d.parseBracket(line, i, pos)
	case '$':
		return d.parseImmExpr(line, i+1, pos, AddrStackImm)
	}

	// bp+imm
	if strings.HasPrefix(line[i:], "bp+") {
		return d.parseImmExpr(line, i+3, pos, AddrStackImm)
	}

	// identifier-led: register name, special register, or immediate literal
	j := i
	for j < len(line) && IsSymbolChar(line[j]) {
		j++
	}
	word := strings.ToLower(line[i:j])

	switch {
	case registerNames[word]:
		return Operand{Mode: AddrReg, Reg: word}, j, true
	case ptrRegisterNames[word]:
		return Operand{Mode: AddrPtrReg, Reg: word}, j, true
	case !noSpecial && specialRegisterNames[word]:
		return Operand{Mode: AddrSpecial, Reg: word, SpecBits: specialBits(word)}, j, true
	}

	return d.parseImmExpr(line, i, pos, AddrImm)
}

// parseBracket parses "[imm]", "[ptr-reg]", "[bp+imm]" or "[bp+ptr-reg]".
func (d *Decoder) parseBracket(line string, i int, pos Position) (Operand, int, bool) {
	i++ // past '['
	i = SkipWhitespace(line, i)
	mode := AddrDataMem
	if strings.HasPrefix(line[i:], "bp+") {
		mode = AddrStackMem
		i += 3
		i = SkipWhitespace(line, i)
	}

	j := i
	for j < len(line) && IsSymbolChar(line[j]) {
		j++
	}
	word := strings.ToLower(line[i:j])
	if ptrRegisterNames[word] {
		i = j
		i = SkipWhitespace(line, i)
		if i >= len(line) || line[i] != ']' {
			return Operand{}, i, false
		}
		return Operand{Mode: mode, Reg: word}, i + 1, true
	}

	op, next, ok := d.parseImmExpr(line, i, pos, mode)
	if !ok {
		return Operand{}, next, false
	}
	next = SkipWhitespace(line, next)
	if next >= len(line) || line[next] != ']' {
		return Operand{}, next, false
	}
	return op, next + 1, true
}

// parseImmExpr parses a literal/symbol value for the given address mode via
// the literal parser.
func (d *Decoder) parseImmExpr(line string, i int, pos Position, mode AddrMode) (Operand, int, bool) {
	res := ParseValue(line[i:], d.sym, pos)
	if res.Outcome == Inv {
		return Operand{}, i, false
	}
	next := i + res.Consumed
	if res.Outcome&Und != 0 {
		return Operand{Mode: mode, IsSymbol: true, SymID: int(res.Value)}, next, true
	}
	return Operand{Mode: mode, Imm: res.Value}, next, true
}

// specialBits derives the low-16-bit special-register flag word for a
// special-register operand name.
func specialBits(name string) uint16 {
	switch name {
	case "sp":
		return 0x0001
	case "xm":
		return 0x0002
	case "xh":
		return 0x0003
	case "xm0", "xm1", "xm2", "xm3":
		return 0x0004 | uint16(name[2]-'0')
	case "xh0", "xh1", "xh2", "xh3":
		return 0x0008 | uint16(name[2]-'0')
	default:
		return 0
	}
}
