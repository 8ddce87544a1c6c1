package asm

import (
	"bytes"
	"testing"
)

func newTestEncoder() (*encoder, *Store) {
	store := NewStore()
	store.Select(SectCode)
	sym := newTestSymtab()
	rep := NewReporter(&bytes.Buffer{})
	return newEncoder(store, sym, rep), store
}

func regOp(name string) Operand  { return Operand{Mode: AddrReg, Reg: name} }
func ptrOp(name string) Operand  { return Operand{Mode: AddrPtrReg, Reg: name} }
func specOp(name string) Operand { return Operand{Mode: AddrSpecial, Reg: name, SpecBits: specialBits(name)} }
func immOp(v uint32) Operand     { return Operand{Mode: AddrImm, Imm: v} }

func TestEncodeNopIsExactlyC000(t *testing.T) {
	e, store := newTestEncoder()
	instr := &DecodedInstr{Mnemonic: "nop", Class: ClassNop}
	if !e.Encode(instr) {
		t.Fatal("nop encode: want success")
	}
	if got := store.Data(SectCode)[0]; got != 0xC000 {
		t.Fatalf("nop: got %#04x, want 0xC000", got)
	}
}

func TestEncodeRegularTwoRegistersStructural(t *testing.T) {
	e, store := newTestEncoder()
	instr := &DecodedInstr{Mnemonic: "add", Class: ClassRegular, Mask: mnemonics["add"].mask,
		Ops: []Operand{regOp("a"), regOp("b")}}
	if !e.Encode(instr) {
		t.Fatal("add a, b: want success")
	}
	got := store.Data(SectCode)[0]
	want := mnemonics["add"].mask | uint16(regIndex(regOp("b")))<<6 | 0x30 // addrCode(a) = 0x30|0
	if got != want {
		t.Fatalf("add a, b: got %#04x, want %#04x", got, want)
	}
}

func TestEncodeRegularCarryBitSet(t *testing.T) {
	e, store := newTestEncoder()
	instr := &DecodedInstr{Mnemonic: "add", Class: ClassRegular, Mask: mnemonics["add"].mask,
		Carry: true, Ops: []Operand{regOp("a"), regOp("b")}}
	if !e.Encode(instr) {
		t.Fatal("c:add a, b: want success")
	}
	if got := store.Data(SectCode)[0]; got&0x4000 == 0 {
		t.Fatalf("carry bit: got %#04x, want bit 0x4000 set", got)
	}
}

func TestEncodeRegularRejectsCarryWhenDisallowed(t *testing.T) {
	e, _ := newTestEncoder()
	instr := &DecodedInstr{Mnemonic: "and", Class: ClassRegular, Mask: mnemonics["and"].mask,
		Carry: true, Ops: []Operand{regOp("a"), regOp("b")}}
	if e.Encode(instr) {
		t.Fatal("c:and: want failure, 'and' does not allow a carry-destination variant")
	}
}

func TestEncodeRegularSwapsWhenSecondOperandIsNotRegister(t *testing.T) {
	e, store := newTestEncoder()
	// add a, [100]  -- eops always tries Ops[1] as the register operand
	// first; since Ops[1] here is memory, it swaps and sets bit 0x0200.
	instr := &DecodedInstr{Mnemonic: "add", Class: ClassRegular, Mask: mnemonics["add"].mask,
		Ops: []Operand{regOp("a"), {Mode: AddrDataMem, Imm: 100}}}
	if !e.Encode(instr) {
		t.Fatal("add a, [100]: want success")
	}
	got := store.Data(SectCode)[0]
	if got&0x0200 == 0 {
		t.Fatalf("swap bit: got %#04x, want bit 0x0200 set", got)
	}
}

func TestEncodeBitStructural(t *testing.T) {
	e, store := newTestEncoder()
	instr := &DecodedInstr{Mnemonic: "btc", Class: ClassBit, Mask: mnemonics["btc"].mask,
		Ops: []Operand{immOp(200), immOp(3)}}
	if !e.Encode(instr) {
		t.Fatal("btc 200, 3: want success")
	}
	got := store.Data(SectCode)[0]
	if got&0x3C0 != 0x3<<6 {
		t.Fatalf("bit-select field: got %#04x, want bits 6-9 = 3", got)
	}
}

func TestEncodePushRegisterBitset(t *testing.T) {
	e, store := newTestEncoder()
	instr := &DecodedInstr{Mnemonic: "psh", Class: ClassPush,
		Ops: []Operand{regOp("a"), regOp("b"), ptrOp("x0")}}
	if !e.Encode(instr) {
		t.Fatal("psh a, b, x0: want success")
	}
	want := uint16(0x80C0 | 0x20 | 0x10 | 0x02)
	if got := store.Data(SectCode)[0]; got != want {
		t.Fatalf("psh bitset: got %#04x, want %#04x", got, want)
	}
}

func TestEncodePopAllRegistersCollapsesToZeroBits(t *testing.T) {
	e, store := newTestEncoder()
	instr := &DecodedInstr{Mnemonic: "pop", Class: ClassPop,
		Ops: []Operand{regOp("a"), regOp("b"), regOp("d"), ptrOp("x0"), ptrOp("x1"), ptrOp("x2"), specOp("xm"), specOp("xh")}}
	if !e.Encode(instr) {
		t.Fatal("pop all registers: want success")
	}
	if got := store.Data(SectCode)[0]; got != 0x82C0 {
		t.Fatalf("pop all-registers form: got %#04x, want 0x82C0 (bits collapsed to 0)", got)
	}
}

func TestEncodePushRejectsXMAloneWithoutAllRegisters(t *testing.T) {
	e, _ := newTestEncoder()
	instr := &DecodedInstr{Mnemonic: "psh", Class: ClassPush, Ops: []Operand{specOp("xm")}}
	if e.Encode(instr) {
		t.Fatal("psh xm alone: want failure, XM requires the all-registers form")
	}
}

func TestEncodeRegularSFixedOrderNeverCarries(t *testing.T) {
	e, _ := newTestEncoder()
	instr := &DecodedInstr{Mnemonic: "xch", Class: ClassRegularS, Mask: mnemonics["xch"].mask,
		Carry: true, Ops: []Operand{regOp("a"), regOp("b")}}
	if e.Encode(instr) {
		t.Fatal("c:xch: want failure, xch never allows a carry-destination variant")
	}
}
