// Completion: 100% - Module complete
package asm

import "strings"

// combinatorOps maps an infix symbol-definition operator's spelling to its
// combinator.
var combinatorOps = map[string]Combinator{
	"+": CAdd, "-": CSub, "*": CMul, "/": CDiv, "%": CMod,
	"&": CAnd, "|": COr, "^": CXor, ">>": CShr, "<<": CShl,
}

// Labels implements the pass-1 label and symbol-definition parser: a leading
// identifier followed by ':' (label, bound to the current section cursor),
// or followed by the keyword `equ` (a definition over one or two
// literal/symbol sources combined by an infix operator). Local labels
// beginning with '.' are expanded against the cursor's last global label
// before lookup.
type Labels struct {
	store  *Store
	sym    *Symtab
	cursor *Cursor
	rep    *Reporter
}

// NewLabels creates a Labels bound to the compile's section store, symbol
// table, cursor and reporter.
func NewLabels(store *Store, sym *Symtab, cursor *Cursor, rep *Reporter) *Labels {
	return &Labels{store: store, sym: sym, cursor: cursor, rep: rep}
}

// Parse attempts to recognize a label or symbol definition at line[i].
// It returns ok=false (without consuming anything) if line[i] is not led by
// an identifier followed by ':' or the keyword `equ`.
func (l *Labels) Parse(line string, i int, pos Position) (next int, ok bool) {
	start := i
	j := i
	local := j < len(line) && line[j] == '.'
	if local {
		j++
	}
	for j < len(line) && IsSymbolChar(line[j]) {
		j++
	}
	if j == start || (local && j == start+1) {
		return start, false
	}
	name := line[start:j]
	k := SkipWhitespace(line, j)
	if k >= len(line) {
		return start, false
	}

	full := l.expand(name)
	full = NormalizeIdent(full, l.rep, pos)

	if line[k] == ':' {
		id := l.defineLabel(full, pos)
		if id < 0 {
			return k + 1, true
		}
		if !local {
			l.cursor.SetLastGlobal(name)
		}
		return k + 1, true
	}

	if isEquKeyword(line, k) {
		l.defineEqu(full, line, k+3, pos)
		return len(line), true
	}

	return start, false
}

// isEquKeyword reports whether line[i:] begins with the keyword "equ"
// (case-insensitive) followed by whitespace or end of content.
func isEquKeyword(line string, i int) bool {
	if i+3 > len(line) {
		return false
	}
	if !strings.EqualFold(line[i:i+3], "equ") {
		return false
	}
	end := i + 3
	return end >= len(line) || IsWhitespace(line[end]) || IsLineEnd(line[end])
}

// expand resolves a ".foo" local label against the cursor's last global
// label, producing "global.foo". Non-local names pass through unchanged.
func (l *Labels) expand(name string) string {
	if !strings.HasPrefix(name, ".") {
		return name
	}
	return l.cursor.LastGlobal() + name
}

// defineLabel binds full to a fresh {ADD, @.section, cursor-offset}
// definition, returning its id (or -1 on a reported redefinition fault).
func (l *Labels) defineLabel(full string, pos Position) int {
	base := l.store.Current().BaseSymbolName()
	baseID := l.sym.GetByName(base, pos)
	off := LiteralSource(uint32(l.store.OffsetWords()))
	id := l.sym.Add(CAdd, IDSource(baseID), off, pos)
	if !l.sym.Bind(full, id, pos) {
		return -1
	}
	return id
}

// defineEqu parses "name equ source [op source]" starting at i (just past
// the `equ` keyword), producing a definition bound to name.
func (l *Labels) defineEqu(full string, line string, i int, pos Position) {
	i = SkipWhitespace(line, i)
	s0, next, ok := l.parseSource(line, i, pos)
	if !ok {
		l.rep.Fail("Bad symbol definition", pos)
		return
	}
	i = SkipWhitespace(line, next)
	if i >= len(line) || IsLineEnd(line[i]) {
		id := l.sym.Add(CMov, s0, source{}, pos)
		l.sym.Bind(full, id, pos)
		return
	}

	opStart := i
	for i < len(line) && !IsWhitespace(line[i]) && !IsLineEnd(line[i]) {
		i++
	}
	cmd, ok := combinatorOps[line[opStart:i]]
	if !ok {
		l.rep.Fail("Unknown symbol-definition operator", pos)
		return
	}
	i = SkipWhitespace(line, i)
	s1, _, ok := l.parseSource(line, i, pos)
	if !ok {
		l.rep.Fail("Bad symbol definition", pos)
		return
	}
	id := l.sym.Add(cmd, s0, s1, pos)
	l.sym.Bind(full, id, pos)
}

// parseSource parses one combinator operand: a literal/hex/binary/string
// value, or a symbol name reference. It uses ParseEquOperand rather than
// ParseValue so that a following infix operator (the start of the next
// combinator term) terminates the operand instead of invalidating it.
func (l *Labels) parseSource(line string, i int, pos Position) (source, int, bool) {
	res := ParseEquOperand(line[i:], l.sym, pos)
	switch {
	case res.Outcome&Val != 0:
		return LiteralSource(res.Value), i + res.Consumed, true
	case res.Outcome&Und != 0:
		return IDSource(int(res.Value)), i + res.Consumed, true
	default:
		return source{}, i, false
	}
}
