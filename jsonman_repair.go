package jsonman

import (
	"fmt"
	"strconv"
	"strings"
)

// defaultMaxNestedDepth bounds the stringified-JSON unescape pass.
const defaultMaxNestedDepth = 10

// RepairOptions represents additional options for repair operations.
type RepairOptions struct {
	// MaxNestedDepth caps how many times the stringified-JSON unescape pass
	// may rescan the document. Zero means the default of 10.
	MaxNestedDepth int

	// Format, when set, reformats the repaired document before it is
	// returned. An empty Indent minifies.
	Format *FormatOptions

	// Validate, when set, is applied by DecodeWithRecovery to the decoded
	// value. A non-nil result is reported as ErrValidationMismatch.
	Validate func(v any) error
}

// Repair attempts to turn malformed JSON into valid JSON using the minimal
// transformations necessary. It is a total function: unrepairable input is
// reported through the Outcome, never through a panic or a raw error.
func Repair(text string) Outcome {
	return RepairWithOptions(text, nil)
}

// RepairWithOptions is Repair with explicit options.
//
// The engine first attempts a strict parse; if that fails it applies the
// sixteen normalization passes in order exactly once, retries, and finally
// applies one bounded last-resort heuristic before giving up. The pipeline is
// never looped against a fixed point, so worst-case work stays a small
// constant multiple of the input length.
func RepairWithOptions(text string, opts *RepairOptions) Outcome {
	if validJSON(text) {
		return finishOutcome(Outcome{Succeeded: true, Repaired: text}, opts)
	}

	maxDepth := defaultMaxNestedDepth
	if opts != nil && opts.MaxNestedDepth > 0 {
		maxDepth = opts.MaxNestedDepth
	}
	r := newRepairer(maxDepth)
	out := r.run(text)
	if validJSON(out) {
		return finishOutcome(Outcome{
			Succeeded: true,
			Repaired:  out,
			Fixes:     r.log.fixes,
			Recovered: len(r.log.fixes) > 0,
		}, opts)
	}

	final, shaped := finalAttempt(out)
	if shaped && validJSON(final) {
		return finishOutcome(Outcome{
			Succeeded: true,
			Repaired:  final,
			Fixes:     r.log.fixes,
			Recovered: len(r.log.fixes) > 0,
		}, opts)
	}

	failure := Outcome{Fixes: r.log.fixes}
	if !shaped {
		failure.Err = fmt.Errorf("%w: %w", ErrUnrepairable, ErrNotJSONShaped)
		return failure
	}
	_, perr := StrictParse(final)
	if perr == nil {
		perr = ErrInvalidJSON
	}
	failure.Err = fmt.Errorf("%w: %w", ErrUnrepairable, perr)
	return failure
}

func finishOutcome(out Outcome, opts *RepairOptions) Outcome {
	if opts != nil && opts.Format != nil {
		out.Repaired = string(formatBytes([]byte(out.Repaired), opts.Format))
	}
	return out
}

// finalAttempt is the last-resort heuristic applied when the pipeline output
// still does not parse. It is deliberately not audited. The second return
// value is false when the input is plain prose and no result should be
// fabricated.
func finalAttempt(text string) (string, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "null", true
	}
	if !strings.ContainsAny(trimmed, `{}[]:,"'`) {
		if isBareScalar(trimmed) {
			return trimmed, true
		}
		if strings.ContainsAny(trimmed, " \t\r\n") {
			return "", false
		}
		return strconv.Quote(trimmed), true
	}
	if strings.Contains(trimmed, ":") &&
		!strings.HasPrefix(trimmed, "{") && !strings.HasPrefix(trimmed, "[") {
		trimmed = "{" + trimmed + "}"
	}
	return completeDelimiters(trimmed, nil), true
}

// isBareScalar reports whether the token is a standalone JSON scalar.
func isBareScalar(s string) bool {
	switch s {
	case "true", "false", "null":
		return true
	}
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		// ParseFloat is laxer than JSON; rule out forms JSON rejects.
		return !strings.ContainsAny(s, "xXpP_") && !strings.HasPrefix(s, "+") &&
			!strings.HasPrefix(s, ".") && !strings.HasSuffix(s, ".")
	}
	return false
}
