package jsonman

import (
	"strings"
)

//------------------------------------------------------------------------------
// PASS 16: NESTED STRINGIFIED JSON UNESCAPING
//------------------------------------------------------------------------------

// unescapeNestedJSON replaces string literals that hold an escaped JSON
// payload with the payload itself. A literal qualifies when its content
// carries \" together with { or [ and, once unescaped, parses as JSON either
// directly or after a bounded recursive repair. The whole-text loop and the
// recursion share one cap so crafted inputs cannot run away.
func (r *repairer) unescapeNestedJSON(src string) string {
	text := src
	for iter := 0; iter < r.maxDepth; iter++ {
		replaced := false
		open := -1
		s := newScanner(text)
		for s.more() {
			i, c, in := s.next()
			if c != '"' || in {
				continue
			}
			if open == -1 {
				open = i
				continue
			}
			content := text[open+1 : i]
			if strings.Contains(content, `\"`) && strings.ContainsAny(content, "{[") {
				if rep, ok := r.tryUnescape(content); ok {
					r.log.add(KindString, "unescaped stringified JSON payload", open, i+1, text[open:i+1], rep)
					text = text[:open] + rep + text[i+1:]
					replaced = true
					break
				}
			}
			open = -1
		}
		if !replaced {
			break
		}
	}
	return text
}

// tryUnescape undoes one level of stringification and reports whether the
// result is (or can be repaired into) valid JSON.
func (r *repairer) tryUnescape(content string) (string, bool) {
	un := strings.TrimSpace(unescapeQuoted(content))
	if !strings.HasPrefix(un, "{") && !strings.HasPrefix(un, "[") {
		return "", false
	}
	if validJSON(un) {
		return un, true
	}
	if r.depth+1 >= r.maxDepth {
		return "", false
	}
	sub := &repairer{log: nil, depth: r.depth + 1, maxDepth: r.maxDepth}
	fixed := sub.run(un)
	if validJSON(fixed) {
		return fixed, true
	}
	return "", false
}

// unescapeQuoted reverses the escaping applied when JSON is embedded in a
// string literal: \" becomes " and \\ becomes \. Other escapes are kept.
func unescapeQuoted(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			switch s[i+1] {
			case '"':
				b.WriteByte('"')
				i++
				continue
			case '\\':
				b.WriteByte('\\')
				i++
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
