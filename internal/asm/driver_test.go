package asm

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTempSource(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing temp source %s: %v", name, err)
	}
	return path
}

func TestCompileMinimalProgramStartsWithRPAHeader(t *testing.T) {
	dir := t.TempDir()
	src := writeTempSource(t, dir, "main.asm", "nop\n")
	out := filepath.Join(dir, "app.rpa")

	var buf bytes.Buffer
	c := NewCompile(&buf)
	if !c.Run(src, out) {
		t.Fatalf("Run failed: %s", buf.String())
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if len(data) < 4 {
		t.Fatalf("output too short: %d bytes", len(data))
	}
	want := []byte{'R', 'P', 'A', '\n'}
	if !bytes.Equal(data[:4], want) {
		t.Fatalf("header prefix: got %v, want %v", data[:4], want)
	}
}

func TestCompileReportsCorrectLineNumberOnFault(t *testing.T) {
	dir := t.TempDir()
	src := writeTempSource(t, dir, "main.asm", "nop\nnop\nbogus_mnemonic\n")
	out := filepath.Join(dir, "app.rpa")

	var buf bytes.Buffer
	c := NewCompile(&buf)
	if c.Run(src, out) {
		t.Fatal("Run with an unrecognized mnemonic: want failure")
	}
	if !strings.Contains(buf.String(), "Line 3") {
		t.Fatalf("diagnostic output missing correct line number: %s", buf.String())
	}
}

func TestCompileForwardReferenceChainResolvesEndToEnd(t *testing.T) {
	dir := t.TempDir()
	src := writeTempSource(t, dir, "main.asm", "section data\ndw x\nx equ y\ny equ 7\n")
	out := filepath.Join(dir, "app.rpa")

	var buf bytes.Buffer
	c := NewCompile(&buf)
	if !c.Run(src, out) {
		t.Fatalf("Run failed: %s", buf.String())
	}
	data := c.store.Data(SectData)
	if len(data) != 1 || data[0] != 7 {
		t.Fatalf("forward-referenced dw x: got %v, want [7]", data)
	}
}

func TestCompileSelfReferenceFailsWithHopCount(t *testing.T) {
	dir := t.TempDir()
	src := writeTempSource(t, dir, "main.asm", "x equ x + 1\nnop\n")
	out := filepath.Join(dir, "app.rpa")

	var buf bytes.Buffer
	c := NewCompile(&buf)
	if c.Run(src, out) {
		t.Fatal("self-referencing equ: want Run to fail")
	}
	if !strings.Contains(buf.String(), "Hop count") {
		t.Fatalf("self-referencing equ: want a Hop count diagnostic, got: %s", buf.String())
	}
	if _, err := os.Stat(out); err == nil {
		t.Fatal("failed compile: want output file removed")
	}
}

func TestCompileIncludePreservesOuterLineNumberOnReturn(t *testing.T) {
	dir := t.TempDir()
	inc := writeTempSource(t, dir, "inc.asm", "nop\nnop\n")
	src := writeTempSource(t, dir, "main.asm", "nop\ninclude \""+inc+"\"\nbogus_mnemonic\n")
	out := filepath.Join(dir, "app.rpa")

	var buf bytes.Buffer
	c := NewCompile(&buf)
	if c.Run(src, out) {
		t.Fatal("Run with an unrecognized mnemonic after an include: want failure")
	}
	// main.asm line 1 is "nop", line 2 is "include ...", line 3 is the
	// bogus mnemonic -- the included file's own two lines must not leak
	// into main.asm's line count when control returns.
	if !strings.Contains(buf.String(), "Line 3") {
		t.Fatalf("diagnostic output missing correct post-include line number: %s", buf.String())
	}
}

func TestCompileTrailingTextAfterInstructionFails(t *testing.T) {
	dir := t.TempDir()
	// "5 6" is not a valid literal ("6" is not a literal terminator), so
	// Decode reports a bad operand; the line must fail rather than compile
	// with the "6" silently dropped.
	src := writeTempSource(t, dir, "main.asm", "mov a, 5 6\n")
	out := filepath.Join(dir, "app.rpa")

	var buf bytes.Buffer
	c := NewCompile(&buf)
	if c.Run(src, out) {
		t.Fatal("mov a, 5 6: want Run to fail on unconsumed trailing text")
	}
}

func TestCompileDataZeroSharedRAMOverflowFails(t *testing.T) {
	dir := t.TempDir()
	src := writeTempSource(t, dir, "main.asm", "section zero\nds 0xFFFF\nnop\n")
	out := filepath.Join(dir, "app.rpa")

	var buf bytes.Buffer
	c := NewCompile(&buf)
	if c.Run(src, out) {
		t.Fatal("zero section reservation exceeding the RAM budget: want Run to fail")
	}
}
