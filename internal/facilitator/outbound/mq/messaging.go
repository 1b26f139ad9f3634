package mq

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/shandysiswandi/ahoum/internal/facilitator/usecase"
	"github.com/shandysiswandi/ahoum/internal/pkg/instrument"
	"github.com/shandysiswandi/ahoum/internal/pkg/messaging"
	"github.com/shandysiswandi/ahoum/internal/shared/event"
	"go.opentelemetry.io/otel/codes"
)

const keyOfCorrelationID string = "cID"

type Messaging struct {
	client messaging.Publisher
	ins    instrument.Instrumentation
}

func NewMessaging(client messaging.Publisher, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, ins: ins}
}

func (m *Messaging) PublishFacilitatorOnboarded(ctx context.Context, msg usecase.FacilitatorOnboardedEvent) error {
	ctx, span := m.ins.Tracer("facilitator.outbound.mq").Start(ctx, "PublishFacilitatorOnboarded")
	defer span.End()

	body, err := json.Marshal(event.FacilitatorOnboardedMessage{
		FacilitatorID: msg.FacilitatorID,
		PhoneNumber:   msg.PhoneNumber,
		Name:          msg.Name,
		Email:         msg.Email,
		OnboardedAt:   msg.OnboardedAt,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if err := m.client.Publish(ctx, event.FacilitatorOnboardedDestination, messaging.OutgoingMessage{
		Key:     []byte(strconv.FormatInt(msg.FacilitatorID, 10)),
		Body:    body,
		Headers: map[string]string{keyOfCorrelationID: instrument.GetCorrelationID(ctx)},
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
