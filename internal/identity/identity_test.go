package identity

import "testing"

func TestFromAccount(t *testing.T) {
	a := FromAccount("anna")
	if len(a) != Len || !a.Valid() {
		t.Fatalf("FromAccount(anna) = %q, want %d hex chars", a, Len)
	}
	if a != "55579b557896d0ce" {
		t.Fatalf("FromAccount(anna) = %q", a)
	}
	if FromAccount("anna") != a {
		t.Fatal("derivation must be deterministic")
	}
	if FromAccount("  anna ") != a {
		t.Fatal("surrounding whitespace must not change the key")
	}
	if FromAccount("ben") == a {
		t.Fatal("different accounts must get different keys")
	}
}

func TestFromAccount_KnownValue(t *testing.T) {
	// sha256("") = e3b0c44298fc1c149afbf4c8996fb924...
	if got := FromAccount(""); got != "e3b0c44298fc1c14" {
		t.Fatalf("FromAccount(\"\") = %q", got)
	}
}

func TestValid(t *testing.T) {
	tests := []struct {
		in   Learner
		want bool
	}{
		{"e3b0c44298fc1c14", true},
		{"E3B0C44298FC1C14", false},
		{"e3b0c44298fc1c1", false},
		{"e3b0c44298fc1c1z", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := tt.in.Valid(); got != tt.want {
			t.Errorf("Valid(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
