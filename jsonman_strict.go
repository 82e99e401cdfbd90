package jsonman

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/valyala/fastjson"
)

// Error definitions for parse and repair operations
var (
	ErrInvalidJSON        = errors.New("invalid json document")
	ErrUnrepairable       = errors.New("json could not be repaired")
	ErrNotJSONShaped      = errors.New("input is not json-shaped")
	ErrEmptyInput         = errors.New("empty input")
	ErrValidationMismatch = errors.New("decoded value rejected by validator")
)

// ParseError wraps a strict-parse failure with a resolved position, a window
// of the surrounding input, and repair suggestions derived from the same
// pattern catalogue the Diagnostic Reporter uses.
type ParseError struct {
	Msg         string
	Offset      int64 // byte offset into the input, -1 when unknown
	Line        int   // 1-based, 0 when unknown
	Column      int   // 1-based, 0 when unknown
	Context     string
	Suggestions []string
	cause       error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse error at line %d column %d: %s", e.Line, e.Column, e.Msg)
	}
	if e.Offset >= 0 {
		return fmt.Sprintf("parse error at offset %d: %s", e.Offset, e.Msg)
	}
	return "parse error: " + e.Msg
}

func (e *ParseError) Unwrap() error {
	return e.cause
}

// validJSON is the engine's cheap strict-validity gate; it never allocates a
// value tree.
func validJSON(text string) bool {
	return fastjson.Validate(text) == nil
}

// StrictParse parses text per the JSON specification with no tolerance for
// deviations. Numbers decode as json.Number. Trailing data after the first
// top-level value is an error.
func StrictParse(text string) (any, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, newParseError(text, err)
	}
	if dec.More() {
		perr := newParseError(text, errors.New("unexpected data after top-level value"))
		perr.Offset = dec.InputOffset()
		perr.fillPosition(text)
		return nil, perr
	}
	return v, nil
}

// StrictParseBytes is StrictParse for byte slices.
func StrictParseBytes(data []byte) (any, error) {
	return StrictParse(string(data))
}

// offsetPattern recovers a position from collaborators that only expose the
// offset inside the error text.
var offsetPattern = regexp.MustCompile(`offset (\d+)`)

func newParseError(text string, err error) *ParseError {
	pe := &ParseError{Msg: err.Error(), Offset: -1, cause: err}
	var syn *json.SyntaxError
	var typ *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syn):
		pe.Offset = syn.Offset
	case errors.As(err, &typ):
		pe.Offset = typ.Offset
	default:
		if m := offsetPattern.FindStringSubmatch(err.Error()); m != nil {
			if n, perr := strconv.ParseInt(m[1], 10, 64); perr == nil {
				pe.Offset = n
			}
		}
	}
	pe.fillPosition(text)
	pe.Suggestions = suggestionsFor(text)
	return pe
}

// fillPosition derives line/column and a context window from the offset.
func (e *ParseError) fillPosition(text string) {
	if e.Offset < 0 || e.Offset > int64(len(text)) {
		return
	}
	off := int(e.Offset)
	e.Line = 1 + strings.Count(text[:off], "\n")
	if nl := strings.LastIndexByte(text[:off], '\n'); nl >= 0 {
		e.Column = off - nl
	} else {
		e.Column = off + 1
	}
	const window = 20
	start := off - window
	if start < 0 {
		start = 0
	}
	end := off + window
	if end > len(text) {
		end = len(text)
	}
	e.Context = text[start:end]
}
