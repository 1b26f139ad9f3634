package inbound

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/shandysiswandi/ahoum/internal/notification/usecase"
	"github.com/shandysiswandi/ahoum/internal/pkg/instrument"
	"github.com/shandysiswandi/ahoum/internal/pkg/messaging"
	"github.com/shandysiswandi/ahoum/internal/pkg/uid"
	"github.com/shandysiswandi/ahoum/internal/shared/event"
)

const keyOfCorrelationID string = "cID"

type MQHandler struct {
	uc   uc
	uuid uid.StringID
	ins  instrument.Instrumentation
}

func (h *MQHandler) ensureCorrelationID(ctx context.Context, msg messaging.Message) context.Context {
	if cID := msg.Header(keyOfCorrelationID); cID != "" {
		return instrument.SetCorrelationID(ctx, cID)
	}
	return instrument.SetCorrelationID(ctx, h.uuid.Generate())
}

// FacilitatorOnboardedNotification drops undecodable messages and returns
// usecase errors so the message is nacked.
func (h *MQHandler) FacilitatorOnboardedNotification(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg)

	ctx, span := h.ins.Tracer("notification.inbound.mq").Start(ctx, "FacilitatorOnboardedNotification")
	defer span.End()

	body := msg.Body()
	slog.InfoContext(ctx, "consume: facilitator onboarded notification", "msg_key", string(msg.Key()))

	var payload event.FacilitatorOnboardedMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of facilitator onboarded notification", "msg_body", string(body), "error", err)
		return nil
	}

	if err := h.uc.ConsumeFacilitatorOnboarded(ctx, usecase.ConsumeFacilitatorOnboardedInput{
		FacilitatorID: payload.FacilitatorID,
		Email:         payload.Email,
		Name:          payload.Name,
		PhoneNumber:   payload.PhoneNumber,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to consume facilitator onboarded", "facilitator_id", payload.FacilitatorID, "error", err)
		return err
	}

	return nil
}
