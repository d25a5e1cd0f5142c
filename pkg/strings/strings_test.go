package strings

import (
	"testing"
)

func TestTrimDelimiter(t *testing.T) {
	tests := []struct {
		input, delimiter, expected string
	}{
		{"0.1;0.2;0.3;", ";", "0.1;0.2;0.3"},
		{"0.1;0.2;0.3", ";", "0.1;0.2;0.3"},
		{";;0.1;0.2;;", ";", "0.1;0.2"},
		{";;;", ";", ""},
		{"", ";", ""},
		{"0.1||0.2||", "||", "0.1||0.2"},
		{"||0.1|", "||", "0.1|"},
		{"0.1;", "", "0.1;"},
	}

	for _, test := range tests {
		result := TrimDelimiter(test.input, test.delimiter)
		if result != test.expected {
			t.Errorf("TrimDelimiter(%q, %q) = %q, expected %q", test.input, test.delimiter, result, test.expected)
		}
	}
}

func TestTokens(t *testing.T) {
	withTrailing := Tokens("0.1;0.2;0.3;", ";")
	without := Tokens("0.1;0.2;0.3", ";")
	if len(withTrailing) != 3 || len(without) != 3 {
		t.Fatalf("expected 3 tokens each, got %d and %d", len(withTrailing), len(without))
	}
	for i := range without {
		if withTrailing[i] != without[i] {
			t.Errorf("token %d differs: %q vs %q", i, withTrailing[i], without[i])
		}
	}

	if toks := Tokens("", ";"); toks != nil {
		t.Errorf("expected no tokens for empty cell, got %v", toks)
	}
	if toks := Tokens(";;", ";"); toks != nil {
		t.Errorf("expected no tokens for delimiter-only cell, got %v", toks)
	}
	if toks := Tokens("0.1;;0.3", ";"); len(toks) != 3 || toks[1] != "" {
		t.Errorf("expected interior empty token to be kept, got %v", toks)
	}
}

func TestTokensWithMultiCharDelimiter(t *testing.T) {
	toks := Tokens("||0.1||0.2||", "||")
	if len(toks) != 2 || toks[0] != "0.1" || toks[1] != "0.2" {
		t.Errorf("expected [0.1 0.2], got %v", toks)
	}
	if toks := Tokens("0.1;0.2", ""); len(toks) != 1 || toks[0] != "0.1;0.2" {
		t.Errorf("expected the whole cell for an empty delimiter, got %v", toks)
	}
}
