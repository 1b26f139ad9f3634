package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/ahoum/internal/pkg/goerror"
	"github.com/shandysiswandi/ahoum/internal/pkg/session"
)

type SessionStatusOutput struct {
	State           session.State
	FacilitatorID   int64
	PhoneNumber     string
	TempPhoneNumber string
}

func (s *Usecase) SessionStatus(ctx context.Context) *SessionStatusOutput {
	_, span := s.startSpan(ctx, "SessionStatus")
	defer span.End()

	data := s.sessions.Status(ctx)
	out := &SessionStatusOutput{State: data.State()}

	switch out.State {
	case session.StateAuthenticated:
		out.FacilitatorID = data.FacilitatorID
		out.PhoneNumber = data.PhoneNumber
	case session.StateOnboardingPending:
		out.TempPhoneNumber = data.TempPhoneNumber
	}

	return out
}

// Logout clears any session, calling it without one is not an error.
func (s *Usecase) Logout(ctx context.Context) error {
	ctx, span := s.startSpan(ctx, "Logout")
	defer span.End()

	if err := s.sessions.Destroy(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to destroy session", "error", err)
		return goerror.NewServer(err)
	}

	return nil
}
