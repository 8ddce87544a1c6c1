// Completion: 100% - Utility module complete
package asm

// Character classification and small text helpers shared by the literal
// parser, the directive parser and the instruction decoder.

// IsSymbolChar reports whether c may appear inside a symbol name.
func IsSymbolChar(c byte) bool {
	return (c >= '0' && c <= '9') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= 'a' && c <= 'z') ||
		c == '_' || c == '.'
}

// IsWhitespace reports whether c is a space or tab.
func IsWhitespace(c byte) bool {
	return c == ' ' || c == '\t'
}

// IsLineEnd reports whether c terminates meaningful content on a line:
// NUL, LF, CR, or the start of a comment (';' or '#').
func IsLineEnd(c byte) bool {
	return c == 0 || c == '\n' || c == '\r' || c == ';' || c == '#'
}

// SkipWhitespace advances i past a run of whitespace in src and returns the
// new index. It never reads past len(src).
func SkipWhitespace(src string, i int) int {
	for i < len(src) && IsWhitespace(src[i]) {
		i++
	}
	return i
}

var escapeTable = map[byte]byte{
	'n':  '\n',
	't':  '\t',
	'r':  '\r',
	'\'': '\'',
	'"':  '"',
	'\\': '\\',
}

// ExtractString parses a single- or double-quote-delimited string starting
// at src[0] (which must be the opening quote), honoring the escape set
// \n \t \r \' \" \\. It returns the unescaped text, the index in src just
// past the closing quote, and true on success. Any raw control byte other
// than TAB inside the string is malformed input. A false return means the
// string is malformed (unterminated, bad escape, or stray control byte);
// the caller must not use the returned text.
func ExtractString(src string) (string, int, bool) {
	if len(src) == 0 {
		return "", 0, false
	}
	quote := src[0]
	if quote != '\'' && quote != '"' {
		return "", 0, false
	}
	var out []byte
	i := 1
	for {
		if i >= len(src) {
			return "", 0, false
		}
		c := src[i]
		if c == quote {
			i++
			return string(out), i, true
		}
		if c == '\\' {
			if i+1 >= len(src) {
				return "", 0, false
			}
			e, ok := escapeTable[src[i+1]]
			if !ok {
				return "", 0, false
			}
			out = append(out, e)
			i += 2
			continue
		}
		if c < 0x20 && c != '\t' {
			return "", 0, false
		}
		out = append(out, c)
		i++
	}
}

// BoundedCopy copies up to max-1 bytes of s into a fresh string, always
// leaving room for (and guaranteeing) a conceptual terminator, and reports
// whether truncation occurred.
func BoundedCopy(s string, max int) (string, bool) {
	if max <= 0 {
		return "", len(s) > 0
	}
	if len(s) < max {
		return s, false
	}
	return s[:max-1], true
}
