// Package session keeps the server-side state correlated with a client by a
// signed cookie.
//
// A session is in exactly one of three states. The persisted document only
// ever carries the fields of its current state: promoting a session rewrites
// the whole document, so onboarding fields and the authenticated flag can not
// coexist.
package session

import (
	"context"
	"time"
)

// State classifies a session.
type State string

const (
	// StateAnonymous is a client without a verified phone number.
	StateAnonymous State = "anonymous"
	// StateOnboardingPending is a verified phone number without a facilitator.
	StateOnboardingPending State = "onboarding_pending"
	// StateAuthenticated is a logged in facilitator.
	StateAuthenticated State = "authenticated"
)

func (s State) String() string {
	return string(s)
}

// Data is the document persisted for a session.
type Data struct {
	TempPhoneNumber       string     `json:"temp_phone_number,omitempty"`
	OTPVerified           bool       `json:"otp_verified,omitempty"`
	VerificationTimestamp *time.Time `json:"verification_timestamp,omitempty"`

	FacilitatorID   int64      `json:"facilitator_id,omitempty"`
	PhoneNumber     string     `json:"phone_number,omitempty"`
	IsAuthenticated bool       `json:"is_authenticated,omitempty"`
	LoginTimestamp  *time.Time `json:"login_timestamp,omitempty"`
}

// State derives the session state from the stored fields.
func (d Data) State() State {
	switch {
	case d.IsAuthenticated && d.FacilitatorID > 0:
		return StateAuthenticated
	case d.OTPVerified && d.TempPhoneNumber != "":
		return StateOnboardingPending
	default:
		return StateAnonymous
	}
}

func onboardingData(phone string, at time.Time) Data {
	return Data{
		TempPhoneNumber:       phone,
		OTPVerified:           true,
		VerificationTimestamp: &at,
	}
}

func authenticatedData(facilitatorID int64, phone string, at time.Time) Data {
	return Data{
		FacilitatorID:   facilitatorID,
		PhoneNumber:     phone,
		IsAuthenticated: true,
		LoginTimestamp:  &at,
	}
}

// Session is the request scoped handle of a client session.
type Session struct {
	id   string
	data Data

	// issue asks the transport to (re)send the cookie, expire to clear it.
	issue  bool
	expire bool
}

// ID returns the storage key, empty for a session never persisted.
func (s *Session) ID() string { return s.id }

// Data returns a copy of the stored document.
func (s *Session) Data() Data { return s.data }

// State returns the current session state.
func (s *Session) State() State { return s.data.State() }

type contextKey struct{}

type facilitatorKey struct{}

// NewContext binds s to ctx.
func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session bound to ctx, or nil.
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(contextKey{}).(*Session)
	return s
}

// WithFacilitatorID stores the authenticated facilitator id in ctx.
func WithFacilitatorID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, facilitatorKey{}, id)
}

// GetFacilitatorID returns the authenticated facilitator id stored in ctx.
func GetFacilitatorID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(facilitatorKey{}).(int64)
	return id, ok && id > 0
}
