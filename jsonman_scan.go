package jsonman

import (
	"strings"
)

//------------------------------------------------------------------------------
// STRING-AWARE SCANNER
//------------------------------------------------------------------------------

// scanner walks JSON-shaped text byte by byte and tracks whether the current
// position sits inside a double-quoted string literal. Every normalization
// pass relies on it to keep structural corrections away from string contents.
//
// A backslash inside a string always consumes exactly the next byte, so
// invalid escape sequences are tolerated here and corrected by a dedicated
// pass. The scanner never fails: an unterminated string simply scans to the
// end of input with the inString flag still set.
type scanner struct {
	src      string
	pos      int
	inString bool
	escaped  bool
}

func newScanner(src string) *scanner {
	return &scanner{src: src}
}

func (s *scanner) more() bool {
	return s.pos < len(s.src)
}

// next returns the current byte, its offset, and whether it is string
// content. The delimiting quotes themselves report inString false so passes
// that look for string boundaries can still see them.
func (s *scanner) next() (int, byte, bool) {
	i := s.pos
	c := s.src[i]
	in := s.inString
	switch {
	case s.escaped:
		s.escaped = false
	case s.inString:
		switch c {
		case '\\':
			s.escaped = true
		case '"':
			s.inString = false
			in = false
		}
	case c == '"':
		s.inString = true
		in = false
	}
	s.pos++
	return i, c, in
}

// unterminated reports whether the scan ended inside an open string.
func (s *scanner) unterminated() bool {
	return s.inString
}

//------------------------------------------------------------------------------
// BRACKET STACK
//------------------------------------------------------------------------------

// delimFrame records one open container delimiter and the closer it expects.
type delimFrame struct {
	closer byte
	open   int
}

// scanDelims scans the whole text and returns the frames still open at end of
// input, whether a string literal is unterminated, and the offset of the
// unterminated string's opening quote (-1 when none).
func scanDelims(text string) ([]delimFrame, bool, int) {
	var stack []delimFrame
	openQuote := -1
	s := newScanner(text)
	for s.more() {
		i, c, in := s.next()
		if in {
			continue
		}
		switch c {
		case '"':
			if s.inString {
				openQuote = i
			} else {
				openQuote = -1
			}
		case '{':
			stack = append(stack, delimFrame{closer: '}', open: i})
		case '[':
			stack = append(stack, delimFrame{closer: ']', open: i})
		case '}', ']':
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}
	if !s.unterminated() {
		openQuote = -1
	}
	return stack, s.unterminated(), openQuote
}

// completeDelimiters appends whatever the text needs to become delimiter
// balanced: a closing quote for an unterminated string, a null for a value
// that was cut off after its key, and the expected closers in LIFO order.
// log may be nil.
func completeDelimiters(text string, log *fixLog) string {
	frames, unterm, openQuote := scanDelims(text)
	if unterm {
		// Decide whether the open string was a key or a value by looking at
		// the last structural byte before its opening quote.
		prev := lastNonSpaceByte(text[:openQuote])
		if len(frames) == 0 && prev == ':' && strings.TrimSpace(text[openQuote+1:]) == "" {
			// A lone quote after a colon that ends a complete document is a
			// dangling artifact, not a truncated string. Left for the
			// artifact trim.
			return text
		}
		tail := `"`
		if prev == '{' || (prev == ',' && len(frames) > 0 && frames[len(frames)-1].closer == '}') {
			tail = `": null`
		}
		log.add(KindString, "closed unterminated string literal", len(text), len(text), "", tail)
		text += tail
	}
	if len(frames) == 0 {
		return text
	}
	trimmed := strings.TrimRight(text, " \t\r\n")
	if trimmed != "" {
		switch trimmed[len(trimmed)-1] {
		case ':':
			log.add(KindOther, "appended null for value cut off after key", len(trimmed), len(trimmed), "", "null")
			trimmed += "null"
		case ',':
			log.add(KindComma, "removed comma dangling at end of input", len(trimmed)-1, len(trimmed), ",", "")
			trimmed = trimmed[:len(trimmed)-1]
		}
	}
	closers := make([]byte, 0, len(frames))
	for i := len(frames) - 1; i >= 0; i-- {
		closers = append(closers, frames[i].closer)
	}
	log.add(KindBracket, "appended missing closing delimiters", len(trimmed), len(trimmed), "", string(closers))
	return trimmed + string(closers)
}

func lastNonSpaceByte(s string) byte {
	for i := len(s) - 1; i >= 0; i-- {
		if !isSpaceByte(s[i]) {
			return s[i]
		}
	}
	return 0
}

//------------------------------------------------------------------------------
// BYTE CLASSES
//------------------------------------------------------------------------------

func isSpaceByte(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isDigitByte(c byte) bool {
	return c >= '0' && c <= '9'
}

func isHexByte(c byte) bool {
	return isDigitByte(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isAlphaByte(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentStart(c byte) bool {
	return isAlphaByte(c) || c == '_' || c == '$'
}

func isIdentByte(c byte) bool {
	return isIdentStart(c) || isDigitByte(c) || c == '-'
}
