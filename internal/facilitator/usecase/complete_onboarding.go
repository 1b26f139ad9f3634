package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/ahoum/internal/facilitator/entity"
	"github.com/shandysiswandi/ahoum/internal/pkg/goerror"
	"github.com/shandysiswandi/ahoum/internal/pkg/session"
)

type CompleteOnboardingInput struct {
	Name     string                             `validate:"required,min=2,max=100"`
	Email    string                             `validate:"required,email,max=255"`
	Sections map[entity.Section]json.RawMessage `validate:"-"`
}

type CompleteOnboardingOutput struct {
	Facilitator entity.Summary
	RedirectTo  string
}

// CompleteOnboarding creates the facilitator of the phone number verified by
// the onboarding session and logs it in. The unique phone number decides
// concurrent attempts: the loser keeps its onboarding session.
func (s *Usecase) CompleteOnboarding(ctx context.Context, in CompleteOnboardingInput) (*CompleteOnboardingOutput, error) {
	ctx, span := s.startSpan(ctx, "CompleteOnboarding")
	defer span.End()

	data := s.sessions.Status(ctx)
	if data.State() != session.StateOnboardingPending {
		return nil, goerror.NewBusiness("Invalid session. Please verify OTP again.", goerror.CodeUnauthorized)
	}

	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	sections := make(map[entity.Section]json.RawMessage, len(in.Sections))
	for sec, raw := range in.Sections {
		v, ok, err := sectionValue(sec, raw)
		if err != nil {
			return nil, err
		}
		if ok {
			sections[sec] = v
		}
	}

	f, err := s.repoDB.CreateFacilitator(ctx, entity.NewFacilitator{
		ID:          s.uid.Generate(),
		PhoneNumber: data.TempPhoneNumber,
		Name:        in.Name,
		Email:       in.Email,
		Sections:    sections,
	})
	if errors.Is(err, goerror.ErrConflict) {
		slog.WarnContext(ctx, "facilitator already exists for phone", "phone_number", data.TempPhoneNumber)
		return nil, goerror.NewBusiness("User already exists. Please login instead.", goerror.CodeAlreadyExists)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo create facilitator", "phone_number", data.TempPhoneNumber, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.sessions.StartAuthenticated(ctx, f.ID, f.PhoneNumber); err != nil {
		slog.ErrorContext(ctx, "failed to start authenticated session", "facilitator_id", f.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.repoMessaging.PublishFacilitatorOnboarded(ctx, FacilitatorOnboardedEvent{
		FacilitatorID: f.ID,
		PhoneNumber:   f.PhoneNumber,
		Name:          f.Name,
		Email:         f.Email,
		OnboardedAt:   f.CreatedAt,
	}); err != nil {
		slog.WarnContext(ctx, "failed to publish facilitator onboarded", "facilitator_id", f.ID, "error", err)
	}

	return &CompleteOnboardingOutput{
		Facilitator: f.Summary(),
		RedirectTo:  RedirectDashboard,
	}, nil
}
