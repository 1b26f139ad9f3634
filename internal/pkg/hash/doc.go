// Package hash derives deterministic digests for short secrets such as OTP
// codes, so the stored value can be matched without keeping the plain code.
package hash

// Hash derives and checks digests.
type Hash interface {
	Hash(str string) ([]byte, error)
	Verify(hashed, str string) bool
}
