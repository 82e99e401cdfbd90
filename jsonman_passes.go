package jsonman

import (
	"strconv"
	"strings"
)

// fixLog is the append-only audit trail shared by a single repair invocation.
type fixLog struct {
	fixes []Fix
}

// add is nil-safe so detection helpers can run passes without auditing.
func (l *fixLog) add(kind Kind, desc string, start, end int, before, after string) {
	if l == nil {
		return
	}
	l.fixes = append(l.fixes, Fix{
		Kind:        kind,
		Description: desc,
		Start:       start,
		End:         end,
		Before:      before,
		After:       after,
	})
}

// repairer holds the per-invocation state of the normalization pipeline.
// It is created fresh for every Repair call; the engine keeps no state
// between invocations.
type repairer struct {
	log      *fixLog
	depth    int
	maxDepth int
}

func newRepairer(maxDepth int) *repairer {
	if maxDepth <= 0 {
		maxDepth = defaultMaxNestedDepth
	}
	return &repairer{log: &fixLog{}, maxDepth: maxDepth}
}

// run applies the sixteen normalization passes in their fixed order, exactly
// once each. Order matters: later passes assume earlier ones already ran.
func (r *repairer) run(text string) string {
	for _, pass := range []func(string) string{
		r.stripBOM,                // 1
		r.stripComments,           // 2
		r.substituteLiterals,      // 3
		r.convertHexNumbers,       // 4
		r.collapseDuplicateDelims, // 5
		r.normalizeQuotes,         // 6
		r.escapeInnerQuotes,       // 7
		r.repairEscapes,           // 8
		r.quoteKeys,               // 9
		r.insertMissingCommas,     // 10
		r.collapseDoubleCommas,    // 11
		r.removeTrailingCommas,    // 12
		r.balanceBrackets,         // 13
		r.wrapMultiRoot,           // 14
		r.trimDanglingArtifacts,   // 15
		r.unescapeNestedJSON,      // 16
	} {
		text = pass(text)
	}
	return text
}

//------------------------------------------------------------------------------
// PASS 1: BOM STRIP
//------------------------------------------------------------------------------

func (r *repairer) stripBOM(src string) string {
	const bom = "\uFEFF"
	if !strings.HasPrefix(src, bom) {
		return src
	}
	r.log.add(KindWhitespace, "removed leading byte-order mark", 0, len(bom), bom, "")
	return src[len(bom):]
}

//------------------------------------------------------------------------------
// PASS 2: COMMENT STRIP
//------------------------------------------------------------------------------

// stripComments removes // line comments and /* block comments */ that occur
// outside string literals. A string containing a literal "//" is left alone.
func (r *repairer) stripComments(src string) string {
	var b strings.Builder
	b.Grow(len(src))
	inString, escaped := false, false
	for i := 0; i < len(src); i++ {
		c := src[i]
		if inString {
			b.WriteByte(c)
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			} else if c == '\n' {
				// A string literal cannot contain a raw newline, so an
				// unterminated string on an earlier line must not suppress
				// comment detection on this one.
				inString = false
				escaped = false
			}
			continue
		}
		if c == '"' {
			inString = true
			b.WriteByte(c)
			continue
		}
		if c == '/' && i+1 < len(src) {
			switch src[i+1] {
			case '/':
				end := i
				for end < len(src) && src[end] != '\n' {
					end++
				}
				r.log.add(KindOther, "removed line comment", i, end, src[i:end], "")
				i = end - 1 // keep the newline
				continue
			case '*':
				end := strings.Index(src[i+2:], "*/")
				if end == -1 {
					r.log.add(KindOther, "removed unterminated block comment", i, len(src), src[i:], "")
					i = len(src)
					continue
				}
				stop := i + 2 + end + 2
				r.log.add(KindOther, "removed block comment", i, stop, src[i:stop], "")
				i = stop - 1
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}

//------------------------------------------------------------------------------
// PASS 3: LITERAL SUBSTITUTION
//------------------------------------------------------------------------------

// literalSubs maps foreign bare-word literals to their JSON equivalents.
// Matching is case-sensitive and word-boundary aware.
var literalSubs = map[string]string{
	"None":      "null",
	"undefined": "null",
	"NULL":      "null",
	"True":      "true",
	"False":     "false",
}

func (r *repairer) substituteLiterals(src string) string {
	var b strings.Builder
	b.Grow(len(src))
	inString, escaped := false, false
	for i := 0; i < len(src); i++ {
		c := src[i]
		if inString {
			b.WriteByte(c)
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
			continue
		}
		if c == '"' {
			inString = true
			b.WriteByte(c)
			continue
		}
		if isIdentStart(c) {
			j := i
			for j < len(src) && isIdentByte(src[j]) {
				j++
			}
			word := src[i:j]
			if rep, ok := literalSubs[word]; ok {
				r.log.add(KindLiteral, "replaced literal "+word+" with "+rep, i, j, word, rep)
				b.WriteString(rep)
			} else {
				b.WriteString(word)
			}
			i = j - 1
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

//------------------------------------------------------------------------------
// PASS 4: HEX NUMBER CONVERSION
//------------------------------------------------------------------------------

func (r *repairer) convertHexNumbers(src string) string {
	var b strings.Builder
	b.Grow(len(src))
	inString, escaped := false, false
	prevIdent := false
	for i := 0; i < len(src); i++ {
		c := src[i]
		if inString {
			b.WriteByte(c)
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
			continue
		}
		if c == '"' {
			inString = true
			prevIdent = false
			b.WriteByte(c)
			continue
		}
		if c == '0' && !prevIdent && i+1 < len(src) && (src[i+1] == 'x' || src[i+1] == 'X') {
			j := i + 2
			for j < len(src) && isHexByte(src[j]) {
				j++
			}
			if j > i+2 {
				if n, err := strconv.ParseUint(src[i+2:j], 16, 64); err == nil {
					dec := strconv.FormatUint(n, 10)
					r.log.add(KindOther, "converted hex literal to decimal", i, j, src[i:j], dec)
					b.WriteString(dec)
					prevIdent = true
					i = j - 1
					continue
				}
			}
		}
		prevIdent = isIdentByte(c)
		b.WriteByte(c)
	}
	return b.String()
}

//------------------------------------------------------------------------------
// PASS 5: DUPLICATE DELIMITER COLLAPSE
//------------------------------------------------------------------------------

// collapseDuplicateDelims collapses immediately repeated runs of the same
// opening or closing delimiter to a single character.
func (r *repairer) collapseDuplicateDelims(src string) string {
	var b strings.Builder
	b.Grow(len(src))
	s := newScanner(src)
	for s.more() {
		i, c, in := s.next()
		b.WriteByte(c)
		if in || (c != '{' && c != '}' && c != '[' && c != ']') {
			continue
		}
		start := i
		for s.more() && s.pos < len(src) && src[s.pos] == c && !s.inString {
			s.next()
		}
		if s.pos > start+1 {
			r.log.add(KindBracket, "collapsed repeated delimiter run", start, s.pos, src[start:s.pos], string(c))
		}
	}
	return b.String()
}

//------------------------------------------------------------------------------
// PASS 6: QUOTE NORMALIZATION
//------------------------------------------------------------------------------

// normalizeQuotes converts single-quoted string literals to double-quoted
// ones. An unterminated single quote is copied through untouched rather than
// guessed at.
func (r *repairer) normalizeQuotes(src string) string {
	var b strings.Builder
	b.Grow(len(src))
	inDouble, escaped := false, false
	for i := 0; i < len(src); i++ {
		c := src[i]
		if inDouble {
			b.WriteByte(c)
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				inDouble = false
			}
			continue
		}
		if c == '"' {
			inDouble = true
			b.WriteByte(c)
			continue
		}
		if c != '\'' {
			b.WriteByte(c)
			continue
		}
		end := -1
		for j := i + 1; j < len(src); j++ {
			if src[j] == '\\' {
				j++
				continue
			}
			if src[j] == '\'' {
				end = j
				break
			}
		}
		if end == -1 {
			b.WriteByte(c)
			continue
		}
		var lit strings.Builder
		lit.WriteByte('"')
		for j := i + 1; j < end; j++ {
			switch {
			case src[j] == '\\' && j+1 < end && src[j+1] == '\'':
				lit.WriteByte('\'')
				j++
			case src[j] == '\\' && j+1 < end:
				lit.WriteByte('\\')
				lit.WriteByte(src[j+1])
				j++
			case src[j] == '"':
				lit.WriteString(`\"`)
			default:
				lit.WriteByte(src[j])
			}
		}
		lit.WriteByte('"')
		r.log.add(KindQuote, "converted single-quoted string to double quotes", i, end+1, src[i:end+1], lit.String())
		b.WriteString(lit.String())
		i = end
	}
	return b.String()
}

//------------------------------------------------------------------------------
// PASS 7: UNESCAPED INNER QUOTE REPAIR
//------------------------------------------------------------------------------

// escapeInnerQuotes merges the pattern "seg1"middle"seg2" into one string
// literal when the middle segment carries no structural characters and the
// whole run sits before a terminator. This targets values like
// "text with "quotes"" whose inner quotes were never escaped. The rule is a
// heuristic with a deliberately narrow scope; strings with structural
// characters in the middle segment are never touched.
func (r *repairer) escapeInnerQuotes(src string) string {
	for {
		p1, p2, ok := findInnerQuotePair(src)
		if !ok {
			return src
		}
		r.log.add(KindQuote, "escaped unescaped quotes inside string literal",
			p1, p2+1, src[p1:p2+1], `\`+src[p1:p2]+`\"`)
		// Insert backslashes right-to-left so the first offset stays valid.
		src = src[:p2] + `\` + src[p2:]
		src = src[:p1] + `\` + src[p1:]
	}
}

// findInnerQuotePair returns the offsets of the closing quote of the first
// segment and the opening quote of the trailing segment for the first match
// of the inner-quote pattern.
func findInnerQuotePair(src string) (int, int, bool) {
	var quotes []int
	s := newScanner(src)
	for s.more() {
		i, c, in := s.next()
		if c == '"' && !in {
			quotes = append(quotes, i)
		}
	}
	// Quotes pair up as (open, close). Look for close(k) bare-text open(k+1)
	// where the bare text has no structural characters and the segment after
	// open(k+1) closes before a terminator.
	for k := 1; k+2 < len(quotes); k += 2 {
		q1, q2, q3 := quotes[k], quotes[k+1], quotes[k+2]
		middle := src[q1+1 : q2]
		if middle == "" || strings.ContainsAny(middle, ":{[,}]\\") || strings.TrimSpace(middle) == "" {
			continue
		}
		after := strings.TrimLeft(src[q3+1:], " \t\r\n")
		if after != "" && after[0] != ',' && after[0] != '}' && after[0] != ']' {
			continue
		}
		return q1, q2, true
	}
	return 0, 0, false
}

//------------------------------------------------------------------------------
// PASS 8: ESCAPE SEQUENCE REPAIR
//------------------------------------------------------------------------------

// repairEscapes strips \xNN hex escapes (not valid JSON) and drops \uNNNN
// unicode escapes that do not carry four hex digits. Runs inside string
// literals only; a decode failure leaves the occurrence unchanged.
func (r *repairer) repairEscapes(src string) string {
	var b strings.Builder
	b.Grow(len(src))
	inString := false
	for i := 0; i < len(src); i++ {
		c := src[i]
		if !inString {
			if c == '"' {
				inString = true
			}
			b.WriteByte(c)
			continue
		}
		if c == '"' {
			inString = false
			b.WriteByte(c)
			continue
		}
		if c != '\\' || i+1 >= len(src) {
			b.WriteByte(c)
			continue
		}
		switch src[i+1] {
		case 'x':
			j := i + 2
			for j < len(src) && j < i+4 && isHexByte(src[j]) {
				j++
			}
			if j == i+4 {
				r.log.add(KindString, "stripped invalid hex escape", i, j, src[i:j], "")
				i = j - 1
				continue
			}
			b.WriteByte(c)
		case 'u':
			j := i + 2
			for j < len(src) && j < i+6 && isHexByte(src[j]) {
				j++
			}
			if j < i+6 {
				r.log.add(KindString, "dropped malformed unicode escape", i, j, src[i:j], "")
				i = j - 1
				continue
			}
			b.WriteString(src[i:j])
			i = j - 1
		default:
			// Any other escape consumes exactly the next byte.
			b.WriteByte(c)
			b.WriteByte(src[i+1])
			i++
		}
	}
	return b.String()
}

//------------------------------------------------------------------------------
// PASS 9: UNQUOTED KEY QUOTING
//------------------------------------------------------------------------------

// quoteKeys wraps identifier-shaped bare words in double quotes when they
// appear after a structural { or , and are followed by a colon.
func (r *repairer) quoteKeys(src string) string {
	var b strings.Builder
	b.Grow(len(src))
	inString, escaped := false, false
	for i := 0; i < len(src); i++ {
		c := src[i]
		if inString {
			b.WriteByte(c)
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
			continue
		}
		if c == '"' {
			inString = true
			b.WriteByte(c)
			continue
		}
		b.WriteByte(c)
		if c != '{' && c != ',' {
			continue
		}
		k := i + 1
		for k < len(src) && isSpaceByte(src[k]) {
			k++
		}
		if k >= len(src) || !isIdentStart(src[k]) {
			continue
		}
		m := k
		for m < len(src) && isIdentByte(src[m]) {
			m++
		}
		n := m
		for n < len(src) && isSpaceByte(src[n]) {
			n++
		}
		if n >= len(src) || src[n] != ':' {
			continue
		}
		b.WriteString(src[i+1 : k])
		word := src[k:m]
		r.log.add(KindKey, "quoted bare object key "+word, k, m, word, `"`+word+`"`)
		b.WriteByte('"')
		b.WriteString(word)
		b.WriteByte('"')
		i = m - 1
	}
	return b.String()
}

//------------------------------------------------------------------------------
// PASS 10: MISSING COMMA INSERTION
//------------------------------------------------------------------------------

type tokenClass uint8

const (
	tokNone tokenClass = iota
	tokString
	tokScalar
	tokCloser
	tokOther
)

// insertMissingCommas inserts a comma between adjacent tokens that strict
// JSON requires a separator for: a value followed by the next key, adjacent
// containers (}{, ][, }[, ]{) and a scalar followed by another key. Tokens
// separated by anything other than whitespace are never touched.
func (r *repairer) insertMissingCommas(src string) string {
	var b strings.Builder
	b.Grow(len(src))
	prev := tokNone
	var pending string

	flush := func(insert bool, at int) {
		if insert {
			r.log.add(KindComma, "inserted missing comma between values", at, at, "", ",")
			b.WriteByte(',')
		}
		b.WriteString(pending)
		pending = ""
	}

	for i := 0; i < len(src); i++ {
		c := src[i]
		if isSpaceByte(c) {
			pending += string(c)
			continue
		}
		switch {
		case c == '"':
			end := stringEnd(src, i)
			keyLike := followedByColon(src, end+1)
			flush((prev == tokString || prev == tokScalar || prev == tokCloser) && keyLike, i)
			if end < len(src) {
				b.WriteString(src[i : end+1])
				i = end
			} else {
				b.WriteString(src[i:])
				i = len(src)
			}
			prev = tokString
		case c == '{' || c == '[':
			flush(prev == tokCloser, i)
			b.WriteByte(c)
			prev = tokOther
		case c == '}' || c == ']':
			flush(false, i)
			b.WriteByte(c)
			prev = tokCloser
		case isIdentStart(c) || isDigitByte(c) || c == '-':
			m := i
			for m < len(src) && (isIdentByte(src[m]) || src[m] == '.' || src[m] == '+') {
				m++
			}
			keyLike := followedByColon(src, m)
			flush((prev == tokScalar || prev == tokString || prev == tokCloser) && keyLike, i)
			b.WriteString(src[i:m])
			i = m - 1
			prev = tokScalar
		default:
			flush(false, i)
			b.WriteByte(c)
			prev = tokOther
		}
	}
	b.WriteString(pending)
	return b.String()
}

// stringEnd returns the offset of the closing quote of the string literal
// opening at from, or len(src) when unterminated.
func stringEnd(src string, from int) int {
	for j := from + 1; j < len(src); j++ {
		if src[j] == '\\' {
			j++
			continue
		}
		if src[j] == '"' {
			return j
		}
	}
	return len(src)
}

func followedByColon(src string, from int) bool {
	for j := from; j < len(src); j++ {
		if isSpaceByte(src[j]) {
			continue
		}
		return src[j] == ':'
	}
	return false
}

//------------------------------------------------------------------------------
// PASS 11: DOUBLE COMMA / EMPTY SLOT REPAIR
//------------------------------------------------------------------------------

// collapseDoubleCommas collapses repeated commas to one and drops a comma
// that leads a container.
func (r *repairer) collapseDoubleCommas(src string) string {
	var b strings.Builder
	b.Grow(len(src))
	s := newScanner(src)
	var lastStructural byte
	for s.more() {
		i, c, in := s.next()
		if in {
			b.WriteByte(c)
			continue
		}
		if c == ',' {
			switch lastStructural {
			case ',':
				r.log.add(KindComma, "collapsed repeated comma", i, i+1, ",", "")
				continue
			case '[', '{':
				r.log.add(KindComma, "removed comma leading a container", i, i+1, ",", "")
				continue
			}
		}
		if !isSpaceByte(c) {
			lastStructural = c
		}
		b.WriteByte(c)
	}
	return b.String()
}

//------------------------------------------------------------------------------
// PASS 12: TRAILING COMMA REMOVAL
//------------------------------------------------------------------------------

func (r *repairer) removeTrailingCommas(src string) string {
	var b strings.Builder
	b.Grow(len(src))
	s := newScanner(src)
	for s.more() {
		i, c, in := s.next()
		if in || c != ',' {
			b.WriteByte(c)
			continue
		}
		j := i + 1
		for j < len(src) && isSpaceByte(src[j]) {
			j++
		}
		if j < len(src) && (src[j] == '}' || src[j] == ']') {
			r.log.add(KindComma, "removed trailing comma before closing delimiter", i, i+1, ",", "")
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

//------------------------------------------------------------------------------
// PASS 13: BRACKET BALANCING
//------------------------------------------------------------------------------

// balanceBrackets corrects mismatched closers against the expected closer of
// the innermost open frame, drops closers with no matching opener, and then
// completes whatever remains open at end of input.
func (r *repairer) balanceBrackets(src string) string {
	type edit struct {
		pos  int
		repl byte
		drop bool
	}
	var edits []edit
	var stack []delimFrame
	s := newScanner(src)
	for s.more() {
		i, c, in := s.next()
		if in {
			continue
		}
		switch c {
		case '{':
			stack = append(stack, delimFrame{closer: '}', open: i})
		case '[':
			stack = append(stack, delimFrame{closer: ']', open: i})
		case '}', ']':
			if len(stack) == 0 {
				edits = append(edits, edit{pos: i, drop: true})
				continue
			}
			top := stack[len(stack)-1]
			if c != top.closer {
				edits = append(edits, edit{pos: i, repl: top.closer})
			}
			stack = stack[:len(stack)-1]
		}
	}
	// Apply highest offset first so earlier replacements cannot invalidate
	// later-computed offsets.
	out := []byte(src)
	for k := len(edits) - 1; k >= 0; k-- {
		e := edits[k]
		if e.drop {
			r.log.add(KindBracket, "removed closer with no matching opener", e.pos, e.pos+1, string(out[e.pos]), "")
			out = append(out[:e.pos], out[e.pos+1:]...)
			continue
		}
		r.log.add(KindBracket, "replaced mismatched closer", e.pos, e.pos+1, string(out[e.pos]), string(e.repl))
		out[e.pos] = e.repl
	}
	return completeDelimiters(string(out), r.log)
}

//------------------------------------------------------------------------------
// PASS 14: MULTI-ROOT SEGMENTATION
//------------------------------------------------------------------------------

// wrapMultiRoot joins multiple complete top-level {...} spans into one JSON
// array. Covers both concatenated objects and the line-delimited variant
// where every line holds its own object, optionally comma-terminated.
func (r *repairer) wrapMultiRoot(src string) string {
	type span struct{ start, end int }
	var spans []span
	depth := 0
	start := -1
	s := newScanner(src)
	for s.more() {
		i, c, in := s.next()
		if in {
			continue
		}
		if depth == 0 {
			switch {
			case c == '{':
				start = i
				depth++
			case isSpaceByte(c) || c == ',' || c == ';':
				// separators between spans
			default:
				return src
			}
			continue
		}
		switch c {
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				spans = append(spans, span{start: start, end: i + 1})
				start = -1
			}
		}
	}
	if len(spans) < 2 || depth != 0 {
		return src
	}
	parts := make([]string, len(spans))
	for i, sp := range spans {
		parts[i] = src[sp.start:sp.end]
		if !validJSON(parts[i]) {
			return src
		}
	}
	joined := "[" + strings.Join(parts, ",") + "]"
	r.log.add(KindOther, "wrapped "+strconv.Itoa(len(spans))+" top-level values in an array", 0, len(src), src, joined)
	return joined
}

//------------------------------------------------------------------------------
// PASS 15: DANGLING ARTIFACT REMOVAL
//------------------------------------------------------------------------------

// trimDanglingArtifacts strips a trailing lone colon, optionally followed by
// a stray quote, and stray trailing comma/colon/semicolon characters at end
// of input.
func (r *repairer) trimDanglingArtifacts(src string) string {
	t := src
	_, unterm, openQuote := scanDelims(t)
	if unterm {
		// Only a quote that opens an empty tail after a colon is stray.
		if strings.TrimSpace(t[openQuote+1:]) != "" {
			return t
		}
		before := strings.TrimRight(t[:openQuote], " \t\r\n")
		if before == "" || before[len(before)-1] != ':' {
			return t
		}
		r.log.add(KindQuote, "removed stray trailing quote", openQuote, len(t), t[openQuote:], "")
		t = before
	}
	for {
		trimmed := strings.TrimRight(t, " \t\r\n")
		if trimmed == "" {
			break
		}
		last := trimmed[len(trimmed)-1]
		if last != ',' && last != ':' && last != ';' {
			break
		}
		// A lone scalar like "12:30" never reaches here: the byte is known
		// to be structural because the text scans to a terminated state.
		r.log.add(KindOther, "removed dangling "+string(last)+" at end of input", len(trimmed)-1, len(trimmed), string(last), "")
		t = trimmed[:len(trimmed)-1]
	}
	return t
}
