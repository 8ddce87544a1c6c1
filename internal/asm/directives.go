// Completion: 100% - Module complete
package asm

import "strings"

var sectionNames = map[string]SectionID{
	"code": SectCode, "data": SectData, "head": SectHead,
	"desc": SectDesc, "zero": SectZero, "file": SectFile,
}

// headerFieldOffsets gives the fixed HEAD-section word offset each header
// alias directive seeks to before falling through to a following db/dw.
var headerFieldOffsets = map[string]int{
	"AppAuth": 0x07,
	"AppName": 0x14,
	"Version": 0x2A,
	"EngSpec": 0x34,
	"License": 0x45,
}

// DirectiveResult mirrors the pass-1 parser chain's tri-state contract.
type DirectiveResult int

const (
	DirNotMatched DirectiveResult = iota // not a directive; try the next parser
	DirContinue                          // directive handled, keep parsing the line
	DirEndLine                           // directive handled, nothing more on this line
	DirError                             // directive failed; fault already reported
)

// Directives implements the pass-1 directive handlers of spec section 4.7.
type Directives struct {
	store *Store
	sym   *Symtab
	rep   *Reporter
}

// NewDirectives creates a Directives bound to the compile's section store,
// symbol table and reporter.
func NewDirectives(store *Store, sym *Symtab, rep *Reporter) *Directives {
	return &Directives{store: store, sym: sym, rep: rep}
}

// Parse attempts to recognize and execute one directive at line[i].
func (d *Directives) Parse(line string, i int, pos Position) (DirectiveResult, int) {
	start := i
	j := i
	for j < len(line) && IsSymbolChar(line[j]) {
		j++
	}
	if j == start {
		return DirNotMatched, start
	}
	word := line[start:j]

	if off, ok := headerFieldOffsets[word]; ok {
		d.store.Select(SectHead)
		d.store.SetOffsetWords(off)
		return DirContinue, SkipWhitespace(line, j)
	}

	switch strings.ToLower(word) {
	case "section":
		return d.doSection(line, j, pos)
	case "org":
		return d.doOrg(line, j, pos)
	case "ds":
		return d.doDS(line, j, pos)
	case "db":
		return d.doData(line, j, pos, 1)
	case "dw":
		return d.doData(line, j, pos, 2)
	case "include":
		// include is handled by the driver, which owns the include stack;
		// surface it unmatched here so the driver's chain can special-case
		// it ahead of the rest of the directive set.
		return DirNotMatched, start
	default:
		return DirNotMatched, start
	}
}

func (d *Directives) doSection(line string, i int, pos Position) (DirectiveResult, int) {
	i = SkipWhitespace(line, i)
	j := i
	for j < len(line) && IsSymbolChar(line[j]) {
		j++
	}
	name := strings.ToLower(line[i:j])
	id, ok := sectionNames[name]
	if !ok {
		d.rep.Fail("Unknown section: "+name, pos)
		return DirError, j
	}
	d.store.Select(id)
	return DirEndLine, j
}

func (d *Directives) doOrg(line string, i int, pos Position) (DirectiveResult, int) {
	i = SkipWhitespace(line, i)
	res := ParseValue(line[i:], d.sym, pos)
	if res.Outcome != Val {
		d.rep.Fail("org requires a resolved literal", pos)
		return DirError, i
	}
	d.store.SetOffsetWords(int(res.Value))
	return DirEndLine, i + res.Consumed
}

func (d *Directives) doDS(line string, i int, pos Position) (DirectiveResult, int) {
	if d.store.Current() != SectZero {
		d.rep.Fail("ds is only valid in the zero section", pos)
		return DirError, i
	}
	i = SkipWhitespace(line, i)
	res := ParseValue(line[i:], d.sym, pos)
	if res.Outcome != Val {
		d.rep.Fail("ds requires a resolved literal count", pos)
		return DirError, i
	}
	for k := uint32(0); k < res.Value; k++ {
		if r := d.store.PushWord(0); r != SectOK {
			d.rep.Fail(describeResult(r), pos)
			return DirError, i
		}
	}
	return DirEndLine, i + res.Consumed
}

// doData implements db (width 1) and dw (width 2): a comma-separated list of
// literals, strings (bytes only, one char per byte, not null-terminated) or
// undefined symbols (registering C8L/C8H/C16 patches).
func (d *Directives) doData(line string, i int, pos Position, width int) (DirectiveResult, int) {
	for {
		i = SkipWhitespace(line, i)
		if i >= len(line) || IsLineEnd(line[i]) {
			break
		}
		res := ParseValue(line[i:], d.sym, pos)
		switch {
		case res.Outcome == Inv:
			d.rep.Fail("Bad value in data directive", pos)
			return DirError, i
		case res.Outcome&Str != 0:
			// A quoted string is always a byte sequence, one char per byte,
			// regardless of whether it also happens to pack into a literal
			// (ParseValue sets Val too for strings of 1-4 chars).
			if width != 1 {
				d.rep.Fail("db is required for string data", pos)
				return DirError, i
			}
			for k := 0; k < len(res.Text); k++ {
				if r := d.store.PushByte(res.Text[k]); r != SectOK {
					d.rep.Fail(describeResult(r), pos)
					return DirError, i
				}
			}
		case res.Outcome&Val != 0:
			if width == 1 {
				if r := d.store.PushByte(byte(res.Value)); r != SectOK {
					d.rep.Fail(describeResult(r), pos)
					return DirError, i
				}
			} else {
				if r := d.store.PushWord(uint16(res.Value)); r != SectOK {
					d.rep.Fail(describeResult(r), pos)
					return DirError, i
				}
			}
		case res.Outcome&Und != 0:
			if width == 1 {
				off := d.store.OffsetBytes()
				if r := d.store.PushByte(0); r != SectOK {
					d.rep.Fail(describeResult(r), pos)
					return DirError, i
				}
				shape := C8L
				if off%2 == 1 {
					shape = C8H
				}
				d.sym.Use(int(res.Value), d.store.Current(), off/2, shape, pos)
			} else {
				off := d.store.OffsetWords()
				if r := d.store.PushWord(0); r != SectOK {
					d.rep.Fail(describeResult(r), pos)
					return DirError, i
				}
				d.sym.Use(int(res.Value), d.store.Current(), off, C16, pos)
			}
		}
		i += res.Consumed
		i = SkipWhitespace(line, i)
		if i < len(line) && line[i] == ',' {
			i++
			continue
		}
		if i < len(line) && !IsLineEnd(line[i]) {
			d.rep.Fail("Unexpected text after data directive", pos)
			return DirError, i
		}
		break
	}
	return DirEndLine, i
}
