package usecase

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/shandysiswandi/ahoum/internal/facilitator/entity"
	"github.com/shandysiswandi/ahoum/internal/pkg/goerror"
	"github.com/shandysiswandi/ahoum/internal/pkg/sms"
)

const (
	defaultOTPTTL = 10 * time.Minute
	otpSMSFormat  = "Your verification code is: %s. Valid for %d minutes."
)

//nolint:gochecknoglobals // upper bound of a six digit code
var otpSpace = big.NewInt(1_000_000)

type RequestOTPInput struct {
	PhoneNumber string `validate:"required,phone"`
}

type RequestOTPOutput struct {
	PhoneNumber string
}

// RequestOTP issues a code for the phone number and texts it. Delivery
// failures are logged only; the code stays valid for a retry of verify.
func (s *Usecase) RequestOTP(ctx context.Context, in RequestOTPInput) (*RequestOTPOutput, error) {
	ctx, span := s.startSpan(ctx, "RequestOTP")
	defer span.End()

	in.PhoneNumber = strings.TrimSpace(in.PhoneNumber)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	code, err := generateCode()
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate otp code", "error", err)
		return nil, goerror.NewServer(err)
	}

	codeHash, err := s.hmac.Hash(code)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash otp code", "error", err)
		return nil, goerror.NewServer(err)
	}

	ttl := s.otpTTL()
	id, err := s.repoDB.IssueOTP(ctx, entity.OTP{
		ID:          s.uid.Generate(),
		PhoneNumber: in.PhoneNumber,
		CodeHash:    string(codeHash),
		Type:        entity.OTPTypeVerification,
		ExpiresAt:   s.clock.Now().Add(ttl),
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo issue otp", "phone_number", in.PhoneNumber, "error", err)
		return nil, goerror.NewServer(err)
	}
	count(ctx, s.otpIssued)

	if err := s.sms.Send(ctx, sms.Message{
		To:   in.PhoneNumber,
		Body: fmt.Sprintf(otpSMSFormat, code, int(ttl.Minutes())),
		Code: code,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to send otp sms", "otp_id", id, "phone_number", in.PhoneNumber, "error", err)
	}

	return &RequestOTPOutput{PhoneNumber: in.PhoneNumber}, nil
}

func (s *Usecase) otpTTL() time.Duration {
	if ttl := s.cfg.GetMinute("modules.facilitator.otp.ttl_minutes"); ttl > 0 {
		return ttl
	}
	return defaultOTPTTL
}

// generateCode returns a uniformly random, zero padded six digit code.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, otpSpace)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
