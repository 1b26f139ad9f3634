package entity

import "time"

// OTPType tags the purpose of a one-time code.
type OTPType string

const (
	OTPTypeVerification OTPType = "verification"
)

func (t OTPType) String() string {
	return string(t)
}

// OTP is an issued one-time code. Only the digest of the code is kept.
type OTP struct {
	ID          int64
	PhoneNumber string
	CodeHash    string
	Type        OTPType
	ExpiresAt   time.Time
}
