// Completion: 100% - Module complete
package asm

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

const maxIncludeDepth = 256

// Compile aggregates every subsystem needed for one compile session: the
// section store, symbol table, cursor, include stack and reporter, plus the
// pass-1 parser chain built on top of them. One Compile instance lives for
// the lifetime of a single `rrpgeasm` invocation.
type Compile struct {
	out     io.Writer
	store   *Store
	sym     *Symtab
	cursor  *Cursor
	include *IncludeStack
	rep     *Reporter

	labels     *Labels
	directives *Directives
	bindata    *Bindata
	decoder    *Decoder
	encoder    *encoder
}

// NewCompile wires up a fresh Compile session against out (diagnostics and
// pass-progress banners).
func NewCompile(out io.Writer) *Compile {
	rep := NewReporter(out)
	store := NewStore()
	sym := NewSymtab(rep)
	cursor := NewCursor()

	c := &Compile{
		out:     out,
		store:   store,
		sym:     sym,
		cursor:  cursor,
		include: NewIncludeStack(maxIncludeDepth),
		rep:     rep,
	}
	c.labels = NewLabels(store, sym, cursor, rep)
	c.directives = NewDirectives(store, sym, rep)
	c.bindata = NewBindata(store, rep)
	c.decoder = NewDecoder(sym, rep)
	c.encoder = newEncoder(store, sym, rep)
	return c
}

// Run executes all three passes against root, writing the assembled binary
// to output. It returns false if any pass failed, in which case output has
// already been removed.
func (c *Compile) Run(root, output string) bool {
	fmt.Fprintln(c.out, "Compilation pass1")
	if !c.pass1(root) {
		os.Remove(output)
		return false
	}

	fmt.Fprintln(c.out, "Compilation pass2")
	if !c.pass2() {
		os.Remove(output)
		return false
	}

	fmt.Fprintln(c.out, "Compilation pass3")
	if !c.pass3(output) {
		os.Remove(output)
		return false
	}

	fmt.Fprintln(c.out, "Compilation complete")
	return true
}

// pass1 reads root line by line, offering each to the parser chain: label
// recognizer, directive parser, bindata parser, instruction decoder/encoder.
// `include "<path>"` is special-cased ahead of the directive parser since it
// alone owns the include stack.
func (c *Compile) pass1(root string) bool {
	c.rep.ResetPass()
	if err := c.include.Open(root); err != nil {
		c.rep.Fail(err.Error(), Position{File: root, Line: 0, Column: 1})
		return false
	}
	c.cursor.SetFile(root)

	for {
		line, ok := c.include.NextLine()
		if !ok {
			if c.include.Pop() {
				c.cursor.SetFile(c.include.CurrentName())
				c.cursor.SetLine(c.include.CurrentLine())
				continue
			}
			break
		}

		c.cursor.SetLine(c.include.CurrentLine())
		c.cursor.SetSourceLine(line, c.rep)
		c.processLine()
	}

	return !c.rep.PassFailed()
}

// processLine runs the parser chain over the cursor's buffered line. i is a
// byte offset into a local copy of the line; the cursor's column is kept in
// sync (via SetColumn) so that each stage's fault positions point at where
// that stage actually started reading.
func (c *Compile) processLine() {
	buf := c.cursor.Line()
	i := 0
	pos := c.cursor.Pos()

	if next, ok := c.labels.Parse(buf, i, pos); ok {
		i = next
		c.cursor.SetColumn(i)
		pos = c.cursor.Pos()
	}

	i = SkipWhitespace(buf, i)
	c.cursor.SetColumn(i)
	pos = c.cursor.Pos()
	if atLineEnd(buf, i) {
		return
	}

	if c.tryInclude(buf, i, pos) {
		return
	}

	res, next := c.directives.Parse(buf, i, pos)
	for res == DirContinue {
		// A header-field alias only seeks; the db/dw after it is itself a
		// directive, so offer the rest of the line to the directive parser.
		i = SkipWhitespace(buf, next)
		c.cursor.SetColumn(i)
		pos = c.cursor.Pos()
		if atLineEnd(buf, i) {
			return
		}
		res, next = c.directives.Parse(buf, i, pos)
	}
	if res == DirEndLine || res == DirError {
		return
	}

	res, next = c.bindata.Parse(buf, i, pos)
	if res != DirNotMatched {
		return
	}

	failBefore := c.rep.FailCount()
	instr, next, ok := c.decoder.Decode(buf, i, pos)
	if !ok {
		c.rep.Fail("Unrecognized instruction", pos)
		return
	}
	// Decode reports its own faults (e.g. a bad operand) and may return with
	// next short of the line's end in that case; only demand full
	// consumption when it didn't already fail, so we don't double-report.
	if c.rep.FailCount() == failBefore {
		next = SkipWhitespace(buf, next)
		if !atLineEnd(buf, next) {
			c.rep.Fail("Unexpected text after instruction", pos)
			return
		}
	}
	c.encoder.Encode(instr)
}

// tryInclude recognizes "include \"path\"" ahead of the directive chain,
// since only the driver may push/pop the include stack. It reports whether
// the line led with "include" at all (whether or not the include itself
// succeeded).
func (c *Compile) tryInclude(line string, i int, pos Position) bool {
	j := i
	for j < len(line) && IsSymbolChar(line[j]) {
		j++
	}
	if strings.ToLower(line[i:j]) != "include" {
		return false
	}

	k := SkipWhitespace(line, j)
	if k >= len(line) || (line[k] != '\'' && line[k] != '"') {
		c.rep.Fail("Malformed include", pos)
		return true
	}
	path, n, ok := ExtractString(line[k:])
	if !ok {
		c.rep.Fail("Malformed include", pos)
		return true
	}
	end := SkipWhitespace(line, k+n)
	if !atLineEnd(line, end) {
		c.rep.Fail("Malformed include", pos)
		return true
	}

	if err := c.include.Open(path); err != nil {
		c.rep.Fail(err.Error(), pos)
		return true
	}
	c.cursor.SetFile(c.include.CurrentName())
	return true
}

// headAutofillOffsets and headAutofillData together plant the 32-entry
// fixed header string template (section 4.11). Offset/data pairs follow
// the original one-to-one; data packs two ASCII bytes big-endian per word.
var headAutofillOffsets = [32]int{
	0x00, 0x01,
	0x02, 0x03, 0x04, 0x05, 0x06,
	0x0F, 0x10, 0x11, 0x12, 0x13,
	0x25, 0x26, 0x27, 0x28, 0x29,
	0x2F, 0x30, 0x31, 0x32, 0x33,
	0x39, 0x3A, 0x3B, 0x3C, 0x3D,
	0x40, 0x41, 0x42, 0x43, 0x44,
}

func packASCII(hi, lo byte) uint16 { return uint16(hi)<<8 | uint16(lo) }

var headAutofillData = [32]uint16{
	packASCII('R', 'P'), packASCII('A', '\n'),
	packASCII('\n', 'A'), packASCII('p', 'p'), packASCII('A', 'u'), packASCII('t', 'h'), packASCII(':', ' '),
	packASCII('\n', 'A'), packASCII('p', 'p'), packASCII('N', 'a'), packASCII('m', 'e'), packASCII(':', ' '),
	packASCII('\n', 'V'), packASCII('e', 'r'), packASCII('s', 'i'), packASCII('o', 'n'), packASCII(':', ' '),
	packASCII('\n', 'E'), packASCII('n', 'g'), packASCII('S', 'p'), packASCII('e', 'c'), packASCII(':', ' '),
	packASCII('\n', 'D'), packASCII('e', 's'), packASCII('c', 'O'), packASCII('f', 'f'), packASCII(':', ' '),
	packASCII('\n', 'L'), packASCII('i', 'c'), packASCII('e', 'n'), packASCII('s', 'e'), packASCII(':', ' '),
}

// pass2 finalizes the symbol table: header/descriptor autofill, section
// base assignment, base-symbol planting, descriptor totals, and resolution.
func (c *Compile) pass2() bool {
	c.rep.ResetPass()
	pos := Position{File: "<pass2>", Line: 0, Column: 1}

	c.store.Select(SectHead)
	for i := 0; i < 32; i++ {
		c.store.ForceSetWord(SectHead, headAutofillOffsets[i], headAutofillData[i])
	}
	for i := 0; i < 64; i++ {
		c.store.StringPad(SectHead, i)
	}
	if c.store.Size(SectHead) == 0x45 {
		c.store.SetOffsetWords(0x45)
		if r := c.store.PushWord(packASCII('\n', 0x00)); r != SectOK {
			c.rep.Fail("Unable to autofill header", pos)
			return false
		}
	}

	c.store.Select(SectDesc)
	descSize := c.store.Size(SectDesc)
	if descSize < 0x09 {
		c.store.ForceSetWord(SectDesc, 0x08, 0x0000) // separate 32Kword stack
	}
	if descSize < 0x0B {
		c.store.ForceSetWord(SectDesc, 0x0A, 0x0000) // no input controllers
	}
	if descSize < 0x0C {
		c.store.ForceSetWord(SectDesc, 0x0B, 0xCC00) // only important A/V, multi-streaming
	}

	var size [sectCount]int
	for id := SectionID(0); id < sectCount; id++ {
		size[id] = c.store.Size(id)
	}

	var base [sectCount]int
	base[SectCode] = 0
	base[SectData] = 0x40
	base[SectHead] = 0
	base[SectDesc] = 0
	base[SectZero] = 0x40 + size[SectData]
	base[SectFile] = size[SectHead] + size[SectDesc] + size[SectCode] + size[SectData]

	for id := SectionID(0); id < sectCount; id++ {
		c.store.SetBase(id, base[id])
		defID := c.sym.Add(CMov, LiteralSource(uint32(base[id])), source{}, pos)
		if !c.sym.Bind(id.BaseSymbolName(), defID, pos) {
			return false
		}
	}

	if size[SectData]+size[SectZero] > SectMaxRAM {
		c.rep.Fail(fmt.Sprintf("CPU RAM limit (%04X words) overran", SectMaxRAM), pos)
		return false
	}
	if size[SectHead]+size[SectDesc] > 0x10000 {
		c.rep.Fail(fmt.Sprintf("Application Header too large (%04X words)", size[SectHead]), pos)
		return false
	}

	t := size[SectHead]
	c.store.ForceSetWord(SectHead, 0x3E, packHex(t, 3, 2))
	c.store.ForceSetWord(SectHead, 0x3F, packHex(t, 1, 0))

	total := base[SectFile] + size[SectFile]
	c.store.ForceSetWord(SectDesc, 0x00, uint16(total>>16))
	c.store.ForceSetWord(SectDesc, 0x01, uint16(total&0xFFFF))
	codeOff := size[SectHead] + size[SectDesc]
	c.store.ForceSetWord(SectDesc, 0x02, uint16(codeOff>>16))
	c.store.ForceSetWord(SectDesc, 0x03, uint16(codeOff&0xFFFF))
	dataOff := codeOff + size[SectCode]
	c.store.ForceSetWord(SectDesc, 0x04, uint16(dataOff>>16))
	c.store.ForceSetWord(SectDesc, 0x05, uint16(dataOff&0xFFFF))
	c.store.ForceSetWord(SectDesc, 0x06, uint16(size[SectCode]&0xFFFF))
	c.store.ForceSetWord(SectDesc, 0x07, uint16(size[SectData]&0xFFFF))

	return c.sym.ResolveAll(c.store)
}

// packHex renders the digit-pair [hiDigit, loDigit] of v (nibble indices
// counted from the low end) as one big-endian ASCII-hex word.
func packHex(v, hiDigit, loDigit int) uint16 {
	return packASCII(hexDigit(v, hiDigit), hexDigit(v, loDigit))
}

func hexDigit(v, nibble int) byte {
	d := byte((v >> (nibble * 4)) & 0xF)
	if d < 10 {
		return '0' + d
	}
	return 'A' + d - 10
}

// pass3 concatenates HEAD, DESC, CODE, DATA, FILE in order (ZERO has no
// on-disk representation) and streams every recorded bindata blob.
func (c *Compile) pass3(output string) bool {
	c.rep.ResetPass()
	pos := Position{File: "<pass3>", Line: 0, Column: 1}

	f, err := os.Create(output)
	if err != nil {
		c.rep.Fail("Failed to open target binary: "+err.Error(), pos)
		return false
	}
	defer f.Close()
	w := bufio.NewWriter(f)

	for _, id := range []SectionID{SectHead, SectDesc, SectCode, SectData, SectFile} {
		for _, word := range c.store.Data(id) {
			if err := w.WriteByte(byte(word >> 8)); err != nil {
				c.rep.Fail("Failed to write target binary: "+err.Error(), pos)
				return false
			}
			if err := w.WriteByte(byte(word & 0xFF)); err != nil {
				c.rep.Fail("Failed to write target binary: "+err.Error(), pos)
				return false
			}
		}
	}

	for _, blob := range c.store.FileBlobs() {
		data, err := os.ReadFile(blob.Path)
		if err != nil {
			c.rep.Fail("Cannot open bindata file: "+blob.Path, pos)
			return false
		}
		if _, err := w.Write(data); err != nil {
			c.rep.Fail("Failed to write target binary: "+err.Error(), pos)
			return false
		}
	}

	if err := w.Flush(); err != nil {
		c.rep.Fail("Failed to write target binary: "+err.Error(), pos)
		return false
	}
	return true
}
