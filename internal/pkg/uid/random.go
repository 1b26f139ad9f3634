package uid

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/binary"
	"time"
)

const minRandomBytes = 16

// RandomID generates unguessable URL-safe identifiers prefixed with a
// millisecond timestamp, suitable for server-side session keys.
type RandomID struct {
	size int
}

// NewRandomID returns a generator producing size random bytes per ID.
// Sizes below 16 are raised to 16.
func NewRandomID(size int) *RandomID {
	if size < minRandomBytes {
		size = minRandomBytes
	}
	return &RandomID{size: size}
}

// Generate returns a base64url (no padding) encoded ID.
func (g *RandomID) Generate() string {
	buf := make([]byte, 6+g.size)

	ms := uint64(time.Now().UnixMilli())
	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], ms)
	copy(buf[:6], ts[2:])

	// crypto/rand.Read never returns an error on supported platforms.
	_, _ = rand.Read(buf[6:])

	return base64.RawURLEncoding.EncodeToString(buf)
}
