package engine

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// ID is an opaque 128-bit identifier, hex-encoded for storage and wire
// transport. The zero value is not a valid id.
type ID string

// NewID generates a random 128-bit id. Rooms, hands, and users are all
// identified this way; nothing derives an id from client input.
func NewID() ID {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand.Read on the standard reader does not fail in
		// practice; a panic here indicates a broken entropy source.
		panic(fmt.Sprintf("engine: failed to generate id: %v", err))
	}
	return ID(hex.EncodeToString(b[:]))
}

func (id ID) String() string {
	return string(id)
}

// Empty reports whether id is the zero value.
func (id ID) Empty() bool {
	return id == ""
}
