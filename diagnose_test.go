package jsonman

import (
	"testing"
)

func findingsByKind(r Report) map[Kind][]Finding {
	m := map[Kind][]Finding{}
	for _, f := range r.Findings {
		m[f.Kind] = append(m[f.Kind], f)
	}
	return m
}

func TestDiagnoseValid(t *testing.T) {
	report := Diagnose(`{"a": 1, "b": [true, "x"]}`)
	if !report.IsValid {
		t.Fatal("valid document reported invalid")
	}
	if len(report.Findings) != 0 {
		t.Errorf("valid document carries findings: %+v", report.Findings)
	}
}

func TestDiagnoseSingleUnquotedKey(t *testing.T) {
	report := Diagnose(`{name: "John"}`)
	if report.IsValid {
		t.Fatal("invalid document reported valid")
	}
	if len(report.Findings) != 1 {
		t.Fatalf("expected exactly 1 finding, got %d: %+v", len(report.Findings), report.Findings)
	}
	f := report.Findings[0]
	if f.Kind != KindKey {
		t.Errorf("finding kind = %v, want %v", f.Kind, KindKey)
	}
	if f.OccurrenceCount != 1 {
		t.Errorf("occurrence count = %d, want 1", f.OccurrenceCount)
	}
	if f.Message == "" || f.Suggestion == "" {
		t.Errorf("finding missing text: %+v", f)
	}
}

func TestDiagnosePatternCatalogue(t *testing.T) {
	report := Diagnose(`{name: 'John', age: 30,}`)
	if report.IsValid {
		t.Fatal("invalid document reported valid")
	}
	byKind := findingsByKind(report)

	if fs := byKind[KindQuote]; len(fs) != 1 || fs[0].OccurrenceCount != 1 {
		t.Errorf("quote findings: %+v", fs)
	}
	if fs := byKind[KindKey]; len(fs) != 1 || fs[0].OccurrenceCount != 2 {
		t.Errorf("key findings: %+v", fs)
	}
	if fs := byKind[KindComma]; len(fs) != 1 || fs[0].OccurrenceCount != 1 {
		t.Errorf("comma findings: %+v", fs)
	}
}

func TestDiagnoseMissingCommas(t *testing.T) {
	report := Diagnose(`{"a":1 "b":2}`)
	byKind := findingsByKind(report)
	if fs := byKind[KindComma]; len(fs) != 1 || fs[0].OccurrenceCount != 1 {
		t.Errorf("comma findings: %+v", fs)
	}
}

func TestDiagnoseLiterals(t *testing.T) {
	report := Diagnose(`{"a": None, "b": True}`)
	byKind := findingsByKind(report)
	if fs := byKind[KindLiteral]; len(fs) != 1 || fs[0].OccurrenceCount != 2 {
		t.Errorf("literal findings: %+v", fs)
	}
}

func TestDiagnoseUnclosedDelimiters(t *testing.T) {
	report := Diagnose(`{"a":{"b":[1,2`)
	byKind := findingsByKind(report)
	if fs := byKind[KindBrace]; len(fs) != 1 || fs[0].OccurrenceCount != 2 {
		t.Errorf("brace findings: %+v", fs)
	}
	if fs := byKind[KindBracket]; len(fs) != 1 || fs[0].OccurrenceCount != 1 {
		t.Errorf("bracket findings: %+v", fs)
	}
}

func TestDiagnoseUnterminatedString(t *testing.T) {
	report := Diagnose(`{"a":"b`)
	byKind := findingsByKind(report)
	if fs := byKind[KindString]; len(fs) != 1 {
		t.Errorf("string findings: %+v", fs)
	}
	if fs := byKind[KindBrace]; len(fs) != 1 {
		t.Errorf("brace findings: %+v", fs)
	}
}

func TestDiagnoseSyntaxFallback(t *testing.T) {
	report := Diagnose(`{"a":1} x`)
	if report.IsValid {
		t.Fatal("invalid document reported valid")
	}
	if len(report.Findings) != 1 || report.Findings[0].Kind != KindSyntax {
		t.Fatalf("expected a single syntax finding, got %+v", report.Findings)
	}
	if report.Findings[0].Message == "" {
		t.Error("syntax finding without message")
	}
}

func TestDiagnoseDoesNotMutate(t *testing.T) {
	src := `{name: 'John',}`
	cp := string([]byte(src))
	_ = Diagnose(src)
	if src != cp {
		t.Error("input mutated")
	}

	// Repeated calls agree.
	first := Diagnose(src)
	second := Diagnose(src)
	if len(first.Findings) != len(second.Findings) {
		t.Errorf("nondeterministic findings: %d vs %d", len(first.Findings), len(second.Findings))
	}
}
