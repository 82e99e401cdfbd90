package jsonman

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/tidwall/gjson"
)

func TestParseWithRecoveryValid(t *testing.T) {
	v, outcome, err := ParseWithRecovery(`{"a": 1}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != nil {
		t.Errorf("valid input produced an outcome: %+v", outcome)
	}
	obj, ok := v.(map[string]any)
	if !ok || obj["a"] != json.Number("1") {
		t.Errorf("got %T %v", v, v)
	}
}

func TestParseWithRecoveryMalformed(t *testing.T) {
	v, outcome, err := ParseWithRecovery(`{a: 1, b: 'x',}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome == nil || !outcome.Recovered {
		t.Fatalf("recovery not reported: %+v", outcome)
	}
	obj := v.(map[string]any)
	if obj["a"] != json.Number("1") || obj["b"] != "x" {
		t.Errorf("got %v", obj)
	}
}

func TestParseWithRecoveryUnrepairable(t *testing.T) {
	_, outcome, err := ParseWithRecovery("plain prose with no structure whatsoever")
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, ErrUnrepairable) {
		t.Errorf("error = %v, want ErrUnrepairable", err)
	}
	if outcome == nil || outcome.Succeeded {
		t.Errorf("outcome = %+v", outcome)
	}
}

func TestDecodeWithRecovery(t *testing.T) {
	type person struct {
		Name string `json:"name"`
		Age  int    `json:"age"`
	}

	var p person
	outcome, err := DecodeWithRecovery(`{name: 'Amy', age: 30,}`, &p, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome == nil || !outcome.Recovered {
		t.Errorf("recovery not reported: %+v", outcome)
	}
	if p.Name != "Amy" || p.Age != 30 {
		t.Errorf("decoded %+v", p)
	}

	// Valid input decodes without an outcome.
	var q person
	outcome, err = DecodeWithRecovery(`{"name": "Bo", "age": 7}`, &q, nil)
	if err != nil || outcome != nil {
		t.Errorf("outcome %+v err %v", outcome, err)
	}
}

func TestDecodeWithRecoveryValidate(t *testing.T) {
	type person struct {
		Name string `json:"name"`
		Age  int    `json:"age"`
	}
	opts := &RepairOptions{
		Validate: func(v any) error {
			if v.(*person).Age <= 0 {
				return errors.New("age must be positive")
			}
			return nil
		},
	}

	var p person
	if _, err := DecodeWithRecovery(`{name: 'Amy', age: 30}`, &p, opts); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var q person
	_, err := DecodeWithRecovery(`{name: 'Amy'}`, &q, opts)
	if !errors.Is(err, ErrValidationMismatch) {
		t.Errorf("error = %v, want ErrValidationMismatch", err)
	}
}

func TestGetWithRecovery(t *testing.T) {
	res, outcome, err := GetWithRecovery(`{user: {name: 'Amy', age: 30}}`, "user.name")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.String() != "Amy" {
		t.Errorf("got %q", res.String())
	}
	if outcome == nil || !outcome.Recovered {
		t.Errorf("recovery not reported: %+v", outcome)
	}

	res, outcome, err = GetWithRecovery(`{"user": {"age": 30}}`, "user.age")
	if err != nil || outcome != nil {
		t.Fatalf("outcome %+v err %v", outcome, err)
	}
	if res.Int() != 30 {
		t.Errorf("got %d", res.Int())
	}
}

func TestSetWithRecovery(t *testing.T) {
	updated, outcome, err := SetWithRecovery(`{a: 1,}`, "b", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome == nil {
		t.Error("recovery not reported")
	}
	if !validJSON(updated) {
		t.Fatalf("updated document invalid: %q", updated)
	}
	if gjson.Get(updated, "a").Int() != 1 || gjson.Get(updated, "b").Int() != 2 {
		t.Errorf("got %q", updated)
	}
}

func TestMergeWithRecovery(t *testing.T) {
	merged, dstOutcome, srcOutcome, err := MergeWithRecovery(`{a: 1}`, `{b: 2,}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if merged != `{"a":1,"b":2}` {
		t.Errorf("got %q", merged)
	}
	if dstOutcome == nil || srcOutcome == nil {
		t.Errorf("outcomes missing: %+v %+v", dstOutcome, srcOutcome)
	}

	// Disjoint nested objects merge recursively.
	merged, _, _, err = MergeWithRecovery(`{a: {x: 1}}`, `{a: {y: 2}}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gjson.Get(merged, "a.x").Int() != 1 || gjson.Get(merged, "a.y").Int() != 2 {
		t.Errorf("got %q", merged)
	}
}

func TestMergeWithRecoveryUnrepairable(t *testing.T) {
	_, dstOutcome, _, err := MergeWithRecovery("hopeless prose input here", `{}`)
	if !errors.Is(err, ErrUnrepairable) {
		t.Errorf("error = %v, want ErrUnrepairable", err)
	}
	if dstOutcome == nil {
		t.Error("failing outcome not returned")
	}
}
