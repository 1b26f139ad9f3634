package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/shandysiswandi/ahoum/internal/notification/entity"
	"github.com/shandysiswandi/ahoum/internal/pkg/idempotency"
)

type ConsumeFacilitatorOnboardedInput struct {
	FacilitatorID int64  `validate:"required,gt=0"`
	Email         string `validate:"required,email"`
	Name          string `validate:"required,min=2,max=100"`
	PhoneNumber   string
}

// ConsumeFacilitatorOnboarded sends the welcome email once per facilitator.
// A failed send is returned so the broker redelivers the message.
func (s *Usecase) ConsumeFacilitatorOnboarded(ctx context.Context, in ConsumeFacilitatorOnboardedInput) error {
	ctx, span := s.startSpan(ctx, "ConsumeFacilitatorOnboarded")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "Validation failed", "facilitator_id", in.FacilitatorID, "error", err)
		return nil
	}

	key := "welcome:" + strconv.FormatInt(in.FacilitatorID, 10)
	err := s.idempotency.Exec(ctx, key, func(ctx context.Context) error {
		return s.sendWelcomeEmail(ctx, in)
	})
	switch {
	case errors.Is(err, idempotency.ErrAlreadyCompleted):
		slog.InfoContext(ctx, "welcome email already sent", "facilitator_id", in.FacilitatorID)
		return nil
	case errors.Is(err, idempotency.ErrAlreadyInProgress):
		slog.InfoContext(ctx, "welcome email in progress elsewhere", "facilitator_id", in.FacilitatorID)
		return nil
	case err != nil:
		slog.ErrorContext(ctx, "failed to send welcome email", "facilitator_id", in.FacilitatorID, "error", err)
		return err
	}

	return nil
}

func (s *Usecase) sendWelcomeEmail(ctx context.Context, in ConsumeFacilitatorOnboardedInput) error {
	data := s.baseEmailTemplateData()
	data["name"] = in.Name

	return s.sendEmailNotification(ctx, emailNotificationInput{
		FacilitatorID: in.FacilitatorID,
		Email:         in.Email,
		Subject:       "Welcome to " + s.cfg.GetString("app.name"),
		TriggerKey:    entity.TriggerKeyFacilitatorWelcome,
		TemplateData:  data,
		NotificationData: map[string]any{
			"facilitator_id": in.FacilitatorID,
			"name":           in.Name,
			"phone_number":   in.PhoneNumber,
		},
	})
}
