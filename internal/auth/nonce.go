package auth

import (
	"encoding/hex"

	"github.com/google/uuid"
)

// NonceLength matches the length of the state values the login page has always issued.
const NonceLength = 16

// NonceGenerator produces unpredictable opaque state values.
type NonceGenerator interface {
	Generate() string
}

// UUIDNonces draws nonces from random (v4) UUIDs.
type UUIDNonces struct{}

// Generate returns [NonceLength] lowercase hex characters.
//
// Bytes 6 and 8 of a v4 UUID carry the version and variant bits, so only the remaining random bytes are encoded.
func (UUIDNonces) Generate() string {
	u := uuid.New()
	var b [NonceLength / 2]byte
	copy(b[:6], u[:6])
	b[6], b[7] = u[7], u[9]
	return hex.EncodeToString(b[:])
}

// NonceFunc adapts a function to [NonceGenerator].
type NonceFunc func() string

func (f NonceFunc) Generate() string { return f() }
