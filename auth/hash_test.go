package auth

import "testing"

func TestHashToken(t *testing.T) {
	tests := map[string]string{
		"abc": "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad",
		"":    "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
	}
	for in, want := range tests {
		if got := HashToken(in); got != want {
			t.Errorf("HashToken(%q) = %q, want %q", in, got, want)
		}
	}
}
