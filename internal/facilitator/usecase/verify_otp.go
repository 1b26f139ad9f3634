package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/ahoum/internal/facilitator/entity"
	"github.com/shandysiswandi/ahoum/internal/pkg/goerror"
	"github.com/shandysiswandi/ahoum/internal/pkg/session"
)

const (
	RedirectDashboard  = "dashboard"
	RedirectOnboarding = "onboarding"
)

type VerifyOTPInput struct {
	PhoneNumber string `validate:"required,phone"`
	OTP         string `validate:"required,number,len=6"`
}

type VerifyOTPOutput struct {
	IsNewUser   bool
	RedirectTo  string
	Facilitator *entity.Summary
}

// VerifyOTP consumes the code and routes the caller: a known facilitator is
// logged in, an unknown number starts onboarding.
func (s *Usecase) VerifyOTP(ctx context.Context, in VerifyOTPInput) (*VerifyOTPOutput, error) {
	ctx, span := s.startSpan(ctx, "VerifyOTP")
	defer span.End()

	in.PhoneNumber = strings.TrimSpace(in.PhoneNumber)
	in.OTP = strings.TrimSpace(in.OTP)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	codeHash, err := s.hmac.Hash(in.OTP)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash otp code", "error", err)
		return nil, goerror.NewServer(err)
	}

	ok, err := s.repoDB.ConsumeOTP(ctx, in.PhoneNumber, entity.OTPTypeVerification, string(codeHash), s.clock.Now())
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo consume otp", "phone_number", in.PhoneNumber, "error", err)
		return nil, goerror.NewServer(err)
	}
	if !ok {
		count(ctx, s.otpRejected)
		slog.WarnContext(ctx, "otp rejected", "phone_number", in.PhoneNumber)
		return nil, goerror.NewBusiness("Invalid or expired OTP", goerror.CodeInvalidFormat)
	}
	count(ctx, s.otpVerified)

	f, err := s.repoDB.FindFacilitatorByPhone(ctx, in.PhoneNumber)
	if errors.Is(err, goerror.ErrNotFound) {
		return s.startOnboarding(ctx, in.PhoneNumber)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo find facilitator by phone", "phone_number", in.PhoneNumber, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.sessions.StartAuthenticated(ctx, f.ID, f.PhoneNumber); err != nil {
		slog.ErrorContext(ctx, "failed to start authenticated session", "facilitator_id", f.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	summary := f.Summary()
	return &VerifyOTPOutput{
		IsNewUser:   false,
		RedirectTo:  RedirectDashboard,
		Facilitator: &summary,
	}, nil
}

func (s *Usecase) startOnboarding(ctx context.Context, phone string) (*VerifyOTPOutput, error) {
	err := s.sessions.StartOnboarding(ctx, phone)
	if errors.Is(err, session.ErrAlreadyAuthenticated) {
		slog.WarnContext(ctx, "new phone verified on an authenticated session", "phone_number", phone)
		return nil, goerror.NewBusiness("Already authenticated. Please logout first.", goerror.CodeAlreadyExists)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to start onboarding session", "phone_number", phone, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &VerifyOTPOutput{
		IsNewUser:  true,
		RedirectTo: RedirectOnboarding,
	}, nil
}
