package redlock

import (
	"crypto/rand"
	"encoding/base64"
)

// tokenBytes gives 160 bits of entropy, the floor spec.md demands for a
// lock value. google/uuid's v4 (122 bits) falls short, so lock tokens are
// drawn straight from crypto/rand rather than reusing the uuid dependency
// used elsewhere for event correlation IDs.
const tokenBytes = 20

func newToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
