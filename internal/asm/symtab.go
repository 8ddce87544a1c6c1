// Completion: 100% - Module complete
package asm

import "fmt"

// Combinator is the arithmetic operator combining a definition's two
// sources into its value.
type Combinator int

const (
	CMov Combinator = iota
	CAdd
	CSub
	CMul
	CDiv
	CMod
	CAnd
	COr
	CXor
	CShr
	CShl
)

// srcTag distinguishes what a definition's source slot currently holds.
type srcTag int

const (
	srcLiteral srcTag = iota // value holds a literal
	srcID                    // value holds a definition id
	srcName                  // value holds a name-pool offset
)

type source struct {
	tag   srcTag
	value uint32
}

// definition is one symbol table entry: a combinator over two sources, plus
// an optional binding to a name and the origin for diagnostics. The zero id
// is reserved and never valid.
type definition struct {
	cmd     Combinator
	s0, s1  source
	bound   int // name-pool offset this definition is bound to, 0 = unbound
	pos     Position
}

// use is a deferred patch: (section, offset, shape) against a definition.
type use struct {
	sec   SectionID
	off   int
	shape Shape
	def   int
	pos   Position
}

const maxHops = 16

// Symtab is the symbol table: definitions, uses, and a packed name pool.
// Resolution (recres) is the central algorithm: it converts by-name source
// references to by-id ones via a linear scan over bindings, then evaluates
// each definition's combinator recursively with cycle detection by hop
// count, memoizing every resolved definition into {MOV, literal} in place.
type Symtab struct {
	defs []definition // index 0 unused/sentinel
	uses []use
	pool []byte // packed null-terminated names; offset 0 reserved
	rep  *Reporter
}

// NewSymtab creates an empty Symtab. rep receives all diagnostics raised
// during add/bind/use/resolve.
func NewSymtab(rep *Reporter) *Symtab {
	return &Symtab{
		defs: make([]definition, 1),
		uses: make([]use, 1),
		pool: []byte{0},
		rep:  rep,
	}
}

// poolFind returns the byte offset of name in the pool, or 0 if absent.
// Membership is determined by a linear scan starting at each record
// boundary, per spec.
func (t *Symtab) poolFind(name string) int {
	i := 1
	for i < len(t.pool) {
		start := i
		for i < len(t.pool) && t.pool[i] != 0 {
			i++
		}
		if string(t.pool[start:i]) == name {
			return start
		}
		i++ // skip NUL
	}
	return 0
}

// poolAdd appends name (NUL-terminated) to the pool and returns its offset.
func (t *Symtab) poolAdd(name string) int {
	off := len(t.pool)
	t.pool = append(t.pool, name...)
	t.pool = append(t.pool, 0)
	return off
}

// poolFindAdd returns name's existing offset, or adds it if absent.
func (t *Symtab) poolFindAdd(name string) int {
	if off := t.poolFind(name); off != 0 {
		return off
	}
	return t.poolAdd(name)
}

func (t *Symtab) poolString(off int) string {
	i := off
	for i < len(t.pool) && t.pool[i] != 0 {
		i++
	}
	return string(t.pool[off:i])
}

// Add appends a new definition with the given combinator and sources,
// returning its id. Sources are supplied already tagged.
func (t *Symtab) Add(cmd Combinator, s0, s1 source, pos Position) int {
	t.defs = append(t.defs, definition{cmd: cmd, s0: s0, s1: s1, pos: pos})
	return len(t.defs) - 1
}

// AddNameSource is a convenience for a source tagged by a not-yet-resolved
// name (e.g. building a dangling MOV definition).
func AddNameSource(t *Symtab, name string) source {
	return source{tag: srcName, value: uint32(t.poolFindAdd(name))}
}

// LiteralSource tags a plain literal source value.
func LiteralSource(v uint32) source { return source{tag: srcLiteral, value: v} }

// IDSource tags a source referring to another definition's id.
func IDSource(id int) source { return source{tag: srcID, value: uint32(id)} }

// GetByName returns the id of a definition already bound to name, or creates
// a fresh dangling {MOV, name-reference} definition and returns that.
func (t *Symtab) GetByName(name string, pos Position) int {
	if off := t.poolFind(name); off != 0 {
		for j := 1; j < len(t.defs); j++ {
			if t.defs[j].bound == off {
				return j
			}
		}
	}
	return t.Add(CMov, AddNameSource(t, name), source{}, pos)
}

// Bind attaches name to id. It fails (reporting redefinition with both
// locations) if name is already bound to any other definition.
func (t *Symtab) Bind(name string, id int, pos Position) bool {
	if off := t.poolFind(name); off != 0 {
		for j := 1; j < len(t.defs); j++ {
			if t.defs[j].bound == off {
				t.rep.Fail(fmt.Sprintf("Redefinition of symbol %s", name), pos)
				t.rep.Note("Location of previous definition", t.defs[j].pos)
				return false
			}
		}
		t.defs[id].bound = off
		return true
	}
	t.defs[id].bound = t.poolAdd(name)
	return true
}

// Use appends a patch record against def, to be applied once its value is
// known.
func (t *Symtab) Use(def int, sec SectionID, off int, shape Shape, pos Position) {
	t.uses = append(t.uses, use{sec: sec, off: off, shape: shape, def: def, pos: pos})
}

// recres is the recursive resolver. It returns (value, undefinedName, err):
// err is non-nil for a hard fault (cycle, division by zero) already
// reported; undefinedName is non-empty when resolution hit a name with no
// binding (not itself an error to report here — callers decide).
func (t *Symtab) recres(id, hops int) (uint32, string, error) {
	if hops >= maxHops {
		t.rep.Fail(fmt.Sprintf("Hop count (%d) during resolution exceed", maxHops), t.defs[id].pos)
		return 0, "", fmt.Errorf("hop count exceeded")
	}

	def := &t.defs[id]

	resolveSrc := func(s *source) (string, error) {
		if s.tag == srcName {
			off := int(s.value)
			found := false
			for j := 1; j < len(t.defs); j++ {
				if t.defs[j].bound == off {
					s.tag = srcID
					s.value = uint32(j)
					found = true
					break
				}
			}
			if !found {
				return t.poolString(off), nil
			}
		}
		if s.tag == srcID {
			v, undef, err := t.recres(int(s.value), hops+1)
			if err != nil {
				return "", err
			}
			if undef != "" {
				return undef, nil
			}
			s.tag = srcLiteral
			s.value = v
		}
		return "", nil
	}

	if undef, err := resolveSrc(&def.s0); err != nil {
		return 0, "", err
	} else if undef != "" {
		return 0, undef, nil
	}
	if undef, err := resolveSrc(&def.s1); err != nil {
		return 0, "", err
	} else if undef != "" {
		return 0, undef, nil
	}

	var r uint32
	switch def.cmd {
	case CAdd:
		r = def.s0.value + def.s1.value
	case CSub:
		r = def.s0.value - def.s1.value
	case CMul:
		r = def.s0.value * def.s1.value
	case CDiv:
		if def.s1.value == 0 {
			t.rep.Fail("Division by zero", def.pos)
			return 0, "", fmt.Errorf("division by zero")
		}
		r = def.s0.value / def.s1.value
	case CMod:
		if def.s1.value == 0 {
			t.rep.Fail("Division by zero", def.pos)
			return 0, "", fmt.Errorf("division by zero")
		}
		r = def.s0.value % def.s1.value
	case CAnd:
		r = def.s0.value & def.s1.value
	case COr:
		r = def.s0.value | def.s1.value
	case CXor:
		r = def.s0.value ^ def.s1.value
	case CShr:
		r = def.s0.value >> (def.s1.value & 31)
	case CShl:
		r = def.s0.value << (def.s1.value & 31)
	default: // CMov
		r = def.s0.value
	}

	def.cmd = CMov
	def.s0 = source{tag: srcLiteral, value: r}
	return r, "", nil
}

// TryResolveOne attempts to resolve id without treating an undefined name as
// fatal. Used during pass 1 to elide immediates that already fit a short
// form. ok is false if the value is not yet available (undefined name) or
// on a hard fault (already reported).
func (t *Symtab) TryResolveOne(id int) (val uint32, ok bool) {
	v, undef, err := t.recres(id, 0)
	if err != nil || undef != "" {
		return 0, false
	}
	return v, true
}

// ResolveAll is pass-2 finalization: it resolves every definition, failing
// with the offending symbol name on the first undefined one found, then
// walks every use record and writes the resolved value through Write.
func (t *Symtab) ResolveAll(store *Store) bool {
	for i := 1; i < len(t.defs); i++ {
		_, undef, err := t.recres(i, 0)
		if err != nil {
			return false
		}
		if undef != "" {
			t.rep.Fail(fmt.Sprintf("Undefined symbol: %s", undef), t.defs[i].pos)
			return false
		}
	}
	for i := 1; i < len(t.uses); i++ {
		u := &t.uses[i]
		val := t.defs[u.def].s0.value
		if !Write(store, u.sec, u.off, u.shape, val, t.rep, u.pos) {
			return false
		}
	}
	return true
}
