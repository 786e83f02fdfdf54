package redlock

import "testing"

func TestNewTokenEntropyAndUniqueness(t *testing.T) {
	a, err := newToken()
	if err != nil {
		t.Fatalf("newToken: %v", err)
	}
	b, err := newToken()
	if err != nil {
		t.Fatalf("newToken: %v", err)
	}
	if a == b {
		t.Fatal("two tokens collided, entropy source is broken")
	}
	// base64 RawURLEncoding of 20 bytes (160 bits) is 27 characters, no padding.
	if len(a) != 27 {
		t.Fatalf("unexpected token length %d, want 27", len(a))
	}
}
