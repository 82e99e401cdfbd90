// Package jsonman provides tolerant JSON parsing, repair and diagnostics.
//
// The package ingests text that is intended to be JSON but may be malformed
// (trailing commas, single quotes, unquoted keys, comments, unbalanced
// delimiters, concatenated root values, doubly-stringified payloads) and
// either parses it strictly, repairs it into valid JSON using the minimal
// transformations necessary, or reports the concrete defects found without
// mutating the input.
package jsonman

// Kind classifies a repair fix or a diagnostic pattern.
type Kind uint8

const (
	KindOther Kind = iota
	KindQuote
	KindComma
	KindBracket
	KindBrace
	KindKey
	KindLiteral
	KindString
	KindSyntax
	KindWhitespace
)

func (k Kind) String() string {
	switch k {
	case KindQuote:
		return "quote"
	case KindComma:
		return "comma"
	case KindBracket:
		return "bracket"
	case KindBrace:
		return "brace"
	case KindKey:
		return "key"
	case KindLiteral:
		return "literal"
	case KindString:
		return "string"
	case KindSyntax:
		return "syntax"
	case KindWhitespace:
		return "whitespace"
	}
	return "other"
}

// Fix is one audited change applied by a normalization pass. Start and End
// are byte offsets into the text the pass received, before the change was
// applied. Fixes are append-only and ordered by pass execution.
type Fix struct {
	Kind        Kind
	Description string
	Start       int
	End         int
	Before      string
	After       string
}

// Outcome is the result of a repair attempt. Repair never returns a Go error
// directly; unrepairable input is reported through Succeeded and Err.
type Outcome struct {
	// Succeeded reports whether the final text parses as strict JSON.
	Succeeded bool

	// Repaired holds the final text when Succeeded is true.
	Repaired string

	// Fixes is the ordered audit trail of every transformation applied.
	Fixes []Fix

	// Recovered is true when at least one fix was applied and the final
	// strict parse succeeded. Valid input repairs with Recovered false.
	Recovered bool

	// Err carries the last strict-parse error (or a sentinel) when
	// Succeeded is false.
	Err error
}

// Finding is a read-only diagnostic observation. One Finding is emitted per
// pattern type matched, not per occurrence.
type Finding struct {
	Kind            Kind
	Message         string
	Suggestion      string
	OccurrenceCount int
}

// Report is the result of Diagnose.
type Report struct {
	IsValid  bool
	Findings []Finding
}
