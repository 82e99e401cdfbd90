package jsonman

import (
	"errors"
	"fmt"
)

// Diagnose runs a strict parse and, on failure, reports the concrete
// syntactic defects it can identify without ever mutating the input. One
// Finding is emitted per pattern type, carrying the number of occurrences.
func Diagnose(text string) Report {
	if validJSON(text) {
		return Report{IsValid: true}
	}

	var findings []Finding
	add := func(kind Kind, count int, message, suggestion string) {
		if count == 0 {
			return
		}
		findings = append(findings, Finding{
			Kind:            kind,
			Message:         message,
			Suggestion:      suggestion,
			OccurrenceCount: count,
		})
	}

	add(KindQuote, detectCount(text, (*repairer).normalizeQuotes),
		"single-quoted strings found",
		"use double quotes for all string literals")
	add(KindKey, detectCount(text, (*repairer).quoteKeys),
		"unquoted object keys found",
		"wrap all object keys in double quotes")
	add(KindComma, detectCount(text, (*repairer).insertMissingCommas),
		"values appear to be missing separating commas",
		"separate adjacent values and members with commas")
	add(KindComma, detectCount(text, (*repairer).removeTrailingCommas),
		"trailing commas found",
		"remove commas before closing braces and brackets")
	add(KindLiteral, detectCount(text, (*repairer).substituteLiterals),
		"non-JSON literals found",
		"use null, true and false instead of None, NULL, True, False or undefined")

	frames, unterm, _ := scanDelims(text)
	braces, brackets := 0, 0
	for _, f := range frames {
		if f.closer == '}' {
			braces++
		} else {
			brackets++
		}
	}
	add(KindBrace, braces,
		"unclosed braces found",
		"close every { with a matching }")
	add(KindBracket, brackets,
		"unclosed brackets found",
		"close every [ with a matching ]")
	if unterm {
		add(KindString, 1,
			"unterminated string literal at end of input",
			"terminate the string with a closing double quote")
	}

	if len(findings) == 0 {
		msg := "the document does not parse as strict JSON"
		if _, err := StrictParse(text); err != nil {
			var pe *ParseError
			if errors.As(err, &pe) {
				msg = pe.Msg
			} else {
				msg = err.Error()
			}
		}
		add(KindSyntax, 1, msg, "inspect the reported position and correct the syntax by hand")
	}

	return Report{IsValid: false, Findings: findings}
}

// detectCount runs a single normalization pass against the raw text with a
// scratch audit log and reports how many changes it would have made. The
// detection logic is therefore exactly the pass's own; the input is never
// replaced.
func detectCount(text string, pass func(*repairer, string) string) int {
	r := newRepairer(0)
	pass(r, text)
	return len(r.log.fixes)
}

// suggestionsFor feeds the Diagnose pattern catalogue into ParseError.
func suggestionsFor(text string) []string {
	var out []string
	if n := detectCount(text, (*repairer).normalizeQuotes); n > 0 {
		out = append(out, fmt.Sprintf("replace %d single-quoted string(s) with double quotes", n))
	}
	if n := detectCount(text, (*repairer).quoteKeys); n > 0 {
		out = append(out, fmt.Sprintf("quote %d bare object key(s)", n))
	}
	if n := detectCount(text, (*repairer).removeTrailingCommas); n > 0 {
		out = append(out, fmt.Sprintf("remove %d trailing comma(s)", n))
	}
	if n := detectCount(text, (*repairer).insertMissingCommas); n > 0 {
		out = append(out, fmt.Sprintf("insert %d missing comma(s)", n))
	}
	if n := detectCount(text, (*repairer).substituteLiterals); n > 0 {
		out = append(out, fmt.Sprintf("replace %d non-JSON literal(s)", n))
	}
	return out
}
