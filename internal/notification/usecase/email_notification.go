package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/ahoum/internal/notification/entity"
	"github.com/shandysiswandi/ahoum/internal/pkg/mail"
	"github.com/shandysiswandi/ahoum/internal/pkg/valueobject"
)

type emailNotificationInput struct {
	FacilitatorID    int64
	Email            string
	Subject          string
	TriggerKey       entity.TriggerKey
	TemplateData     map[string]any
	NotificationData valueobject.JSONMap
}

// sendEmailNotification renders, logs and sends one email. A missing
// delivery log does not block the send.
func (s *Usecase) sendEmailNotification(ctx context.Context, in emailNotificationInput) error {
	html, text, err := s.render(in.TriggerKey.String(), in.TemplateData)
	if err != nil {
		slog.ErrorContext(ctx, "failed to render email", "facilitator_id", in.FacilitatorID, "trigger_key", in.TriggerKey.String(), "error", err)
		return err
	}

	logID := s.uid.Generate()
	logged := true
	if err := s.repoDB.CreateDeliveryLog(ctx, entity.CreateDeliveryLog{
		ID:            logID,
		FacilitatorID: in.FacilitatorID,
		TriggerKey:    in.TriggerKey,
		Channel:       entity.ChannelEmail,
		Recipient:     in.Email,
		Status:        entity.DeliveryStatusQueued,
		Data:          in.NotificationData,
	}); err != nil {
		slog.WarnContext(ctx, "failed to repo create delivery log", "facilitator_id", in.FacilitatorID, "error", err)
		logged = false
	}

	mailErr := s.repoMail.Send(ctx, mail.Message{
		To:       []string{in.Email},
		Subject:  in.Subject,
		TextBody: text,
		HTMLBody: html,
	})

	if logged {
		u := entity.UpdateDeliveryLog{ID: logID, Status: entity.DeliveryStatusSent}
		if mailErr != nil {
			u.Status = entity.DeliveryStatusFailed
			u.ProviderResponse = valueobject.JSONMap{"error": mailErr.Error()}
		}
		if err := s.repoDB.UpdateDeliveryLogStatus(ctx, u); err != nil {
			slog.WarnContext(ctx, "failed to repo update delivery log", "delivery_log_id", logID, "error", err)
		}
	}

	return mailErr
}
