package models

import (
	"crypto/rand"
	"encoding/hex"
)

// shortIDOffset is where the user-facing short id starts inside the long id.
// A long id is 40 lowercase hex characters (20 random bytes); the short id is
// the final 7 of them.
const shortIDOffset = 33

// NewID generates a 40-character lowercase hex identifier
func NewID() string {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms
		panic(err)
	}
	return hex.EncodeToString(buf)
}

// ShortID returns the 7-character user-facing slice of a long id.
// Ids shorter than the full 40 characters are returned unchanged.
func ShortID(id string) string {
	if len(id) < shortIDOffset+7 {
		return id
	}
	return id[shortIDOffset : shortIDOffset+7]
}
