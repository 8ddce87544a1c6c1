// Completion: 100% - Error handling complete, clear and helpful messages
package asm

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Severity classifies a diagnostic. FAIL marks the current pass as having
// failed; NOTE and WARN are informational and never halt compilation on
// their own.
type Severity int

const (
	NOTE Severity = iota
	WARN
	FAIL
)

func (s Severity) String() string {
	switch s {
	case NOTE:
		return "Note"
	case WARN:
		return "Warning"
	case FAIL:
		return "Fail"
	default:
		return "Unknown"
	}
}

// Position is a deep-copied source location: (file, line, column). Capturing
// a Position takes a snapshot that remains valid after the cursor that
// produced it has moved on.
type Position struct {
	File   string
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("Line %d, Character %d", p.Line, p.Column)
}

// Reporter collects and prints diagnostics and tracks whether the current
// pass has failed. One Reporter is owned by the driver for the lifetime of
// a compile.
type Reporter struct {
	out       io.Writer
	UseColor  bool
	passFail  bool
	failCount int
	warnCount int
	noteCount int
}

// NewReporter creates a Reporter writing to out.
func NewReporter(out io.Writer) *Reporter {
	return &Reporter{out: out}
}

// ResetPass clears the sticky failure flag at the start of a new pass. Fault
// counts are cumulative across the whole compile.
func (r *Reporter) ResetPass() {
	r.passFail = false
}

// PassFailed reports whether any FAIL has been emitted since the last
// ResetPass.
func (r *Reporter) PassFailed() bool {
	return r.passFail
}

// FailCount, WarnCount and NoteCount return cumulative counts for the whole
// compile session.
func (r *Reporter) FailCount() int { return r.failCount }
func (r *Reporter) WarnCount() int { return r.warnCount }
func (r *Reporter) NoteCount() int { return r.noteCount }

// Emit prints a three-line diagnostic for pos and records its severity.
// FAIL does not itself halt the compile; it only sets PassFailed() and
// increments the fault count, leaving propagation to the caller.
func (r *Reporter) Emit(sev Severity, message string, pos Position) {
	switch sev {
	case FAIL:
		r.passFail = true
		r.failCount++
	case WARN:
		r.warnCount++
	case NOTE:
		r.noteCount++
	}

	label := sev.String() + ": "
	if r.UseColor {
		switch sev {
		case FAIL:
			label = color.New(color.FgRed, color.Bold).Sprint(label)
		case WARN:
			label = color.New(color.FgYellow, color.Bold).Sprint(label)
		case NOTE:
			label = color.New(color.FgCyan).Sprint(label)
		}
	}

	fmt.Fprintf(r.out, "%s%s\n", label, message)
	fmt.Fprintf(r.out, "File ..: %s\n", pos.File)
	fmt.Fprintf(r.out, "At ....: %s\n", pos.String())
}

// Fail is shorthand for Emit(FAIL, ...).
func (r *Reporter) Fail(message string, pos Position) {
	r.Emit(FAIL, message, pos)
}

// Warn is shorthand for Emit(WARN, ...).
func (r *Reporter) Warn(message string, pos Position) {
	r.Emit(WARN, message, pos)
}

// Note is shorthand for Emit(NOTE, ...).
func (r *Reporter) Note(message string, pos Position) {
	r.Emit(NOTE, message, pos)
}
