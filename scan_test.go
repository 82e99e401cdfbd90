package jsonman

import (
	"testing"
)

// TestScannerStringAwareness verifies the scanner flags string content and
// keeps the delimiting quotes visible as structural positions.
func TestScannerStringAwareness(t *testing.T) {
	src := `{"a":"b\"c"}`
	want := []bool{
		false, // {
		false, // " open
		true,  // a
		false, // " close
		false, // :
		false, // " open
		true,  // b
		true,  // backslash
		true,  // escaped quote
		true,  // c
		false, // " close
		false, // }
	}
	s := newScanner(src)
	for s.more() {
		i, _, in := s.next()
		if in != want[i] {
			t.Errorf("position %d (%q): insideString = %v, want %v", i, src[i], in, want[i])
		}
	}
	if s.unterminated() {
		t.Error("expected terminated scan")
	}
}

// TestScannerQuoteParity checks the even-quote property: the number of
// structural quotes is even unless the input ends inside a string.
func TestScannerQuoteParity(t *testing.T) {
	cases := []struct {
		src    string
		unterm bool
	}{
		{`{"a":"b"}`, false},
		{`["x","y","z"]`, false},
		{`{"a":"b`, true},
		{`"esc \" still open`, true},
		{`{}`, false},
	}
	for _, tc := range cases {
		count := 0
		s := newScanner(tc.src)
		for s.more() {
			_, c, in := s.next()
			if c == '"' && !in {
				count++
			}
		}
		if s.unterminated() != tc.unterm {
			t.Errorf("%q: unterminated = %v, want %v", tc.src, s.unterminated(), tc.unterm)
		}
		if !tc.unterm && count%2 != 0 {
			t.Errorf("%q: odd structural quote count %d in terminated input", tc.src, count)
		}
		if tc.unterm && count%2 == 0 {
			t.Errorf("%q: even structural quote count %d in unterminated input", tc.src, count)
		}
	}
}

func TestScanDelims(t *testing.T) {
	frames, unterm, _ := scanDelims(`{"a":[1,2`)
	if unterm {
		t.Fatal("unexpected unterminated string")
	}
	if len(frames) != 2 || frames[0].closer != '}' || frames[1].closer != ']' {
		t.Fatalf("unexpected frames: %+v", frames)
	}

	frames, unterm, open := scanDelims(`{"a":"b`)
	if !unterm {
		t.Fatal("expected unterminated string")
	}
	if open != 5 {
		t.Errorf("open quote offset = %d, want 5", open)
	}
	if len(frames) != 1 || frames[0].closer != '}' {
		t.Fatalf("unexpected frames: %+v", frames)
	}

	// Structural characters inside strings must not affect the stack.
	frames, _, _ = scanDelims(`{"a":"}]["}`)
	if len(frames) != 0 {
		t.Fatalf("string contents leaked into the stack: %+v", frames)
	}
}

func TestCompleteDelimiters(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{`{"a":[1,2`, `{"a":[1,2]}`},
		{`{"c":`, `{"c":null}`},
		{`{"a":1,`, `{"a":1}`},
		{`{"a":"b`, `{"a":"b"}`},
		{`{"a`, `{"a": null}`},
		{`["x`, `["x"]`},
		{`{"a":1}`, `{"a":1}`},
		{`[[1,2`, `[[1,2]]`},
		// A lone quote trailing a complete document stays open here; the
		// artifact trim owns it.
		{`{"a":1}: "`, `{"a":1}: "`},
	}
	for _, tc := range cases {
		got := completeDelimiters(tc.in, nil)
		if got != tc.want {
			t.Errorf("completeDelimiters(%q) = %q, want %q", tc.in, got, tc.want)
		}
		if !validJSON(got) && tc.in != tc.want {
			t.Errorf("completeDelimiters(%q) produced invalid JSON %q", tc.in, got)
		}
	}
}
