package jsonman

import (
	"encoding/json"
	"fmt"

	"github.com/Jeffail/gabs/v2"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

//------------------------------------------------------------------------------
// PARSE-WITH-RECOVERY FACADE
//------------------------------------------------------------------------------

// ParseWithRecovery parses text strictly and falls back to the repair engine
// only when the direct parse fails. The returned Outcome is nil when no
// recovery was needed; otherwise its Fixes list is the change log.
func ParseWithRecovery(text string) (any, *Outcome, error) {
	if v, err := StrictParse(text); err == nil {
		return v, nil, nil
	}
	out := Repair(text)
	if !out.Succeeded {
		return nil, &out, out.Err
	}
	v, err := StrictParse(out.Repaired)
	if err != nil {
		return nil, &out, err
	}
	return v, &out, nil
}

// DecodeWithRecovery decodes text into v, repairing the document first when
// it does not parse strictly. When opts carries a Validate hook, a decoded
// value the hook rejects yields ErrValidationMismatch, distinguishable from
// parse and repair failures.
func DecodeWithRecovery(text string, v any, opts *RepairOptions) (*Outcome, error) {
	repaired := text
	var outcome *Outcome
	if !validJSON(text) {
		o := RepairWithOptions(text, opts)
		outcome = &o
		if !o.Succeeded {
			return outcome, o.Err
		}
		repaired = o.Repaired
	}
	if err := json.Unmarshal([]byte(repaired), v); err != nil {
		return outcome, newParseError(repaired, err)
	}
	if opts != nil && opts.Validate != nil {
		if err := opts.Validate(v); err != nil {
			return outcome, fmt.Errorf("%w: %w", ErrValidationMismatch, err)
		}
	}
	return outcome, nil
}

// GetWithRecovery queries a path from a document, repairing it first when
// necessary.
func GetWithRecovery(text, path string) (gjson.Result, *Outcome, error) {
	repaired, outcome, err := repairIfNeeded(text)
	if err != nil {
		return gjson.Result{}, outcome, err
	}
	return gjson.Get(repaired, path), outcome, nil
}

// SetWithRecovery sets a value at a path, repairing the document first when
// necessary.
func SetWithRecovery(text, path string, value any) (string, *Outcome, error) {
	repaired, outcome, err := repairIfNeeded(text)
	if err != nil {
		return "", outcome, err
	}
	updated, err := sjson.Set(repaired, path, value)
	if err != nil {
		return "", outcome, err
	}
	return updated, outcome, nil
}

// MergeWithRecovery deep-merges src into dst, repairing both documents first
// when necessary. Both roots must be objects or arrays.
func MergeWithRecovery(dst, src string) (string, *Outcome, *Outcome, error) {
	dstRepaired, dstOutcome, err := repairIfNeeded(dst)
	if err != nil {
		return "", dstOutcome, nil, err
	}
	srcRepaired, srcOutcome, err := repairIfNeeded(src)
	if err != nil {
		return "", dstOutcome, srcOutcome, err
	}
	dstC, err := gabs.ParseJSON([]byte(dstRepaired))
	if err != nil {
		return "", dstOutcome, srcOutcome, newParseError(dstRepaired, err)
	}
	srcC, err := gabs.ParseJSON([]byte(srcRepaired))
	if err != nil {
		return "", dstOutcome, srcOutcome, newParseError(srcRepaired, err)
	}
	if err := dstC.Merge(srcC); err != nil {
		return "", dstOutcome, srcOutcome, err
	}
	return dstC.String(), dstOutcome, srcOutcome, nil
}

// repairIfNeeded returns text unchanged when it is already valid and the repaired
// form otherwise.
func repairIfNeeded(text string) (string, *Outcome, error) {
	if validJSON(text) {
		return text, nil, nil
	}
	out := Repair(text)
	if !out.Succeeded {
		return "", &out, out.Err
	}
	return out.Repaired, &out, nil
}
