package mq

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shandysiswandi/ahoum/internal/facilitator/usecase"
	"github.com/shandysiswandi/ahoum/internal/pkg/instrument"
	"github.com/shandysiswandi/ahoum/internal/pkg/messaging"
	"github.com/shandysiswandi/ahoum/internal/shared/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessaging_PublishFacilitatorOnboarded(t *testing.T) {
	broker := messaging.NewMemory()
	t.Cleanup(func() { _ = broker.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	got := make(chan messaging.Message, 1)
	ready := make(chan struct{})
	go func() {
		close(ready)
		_ = broker.Consume(ctx, event.FacilitatorOnboardedDestination, func(_ context.Context, msg messaging.Message) error {
			got <- msg
			return nil
		}, messaging.WithGroup("test"), messaging.WithAutoAck(true))
	}()
	<-ready

	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	pub := NewMessaging(broker, instrument.NewNoop())
	in := usecase.FacilitatorOnboardedEvent{
		FacilitatorID: 42,
		PhoneNumber:   "+15551234567",
		Name:          "Jane Doe",
		Email:         "jane@example.com",
		OnboardedAt:   at,
	}

	require.Eventually(t, func() bool {
		if err := pub.PublishFacilitatorOnboarded(instrument.SetCorrelationID(ctx, "cid-1"), in); err != nil {
			return false
		}
		select {
		case msg := <-got:
			var body event.FacilitatorOnboardedMessage
			assert.NoError(t, json.Unmarshal(msg.Body(), &body))
			assert.Equal(t, int64(42), body.FacilitatorID)
			assert.Equal(t, "jane@example.com", body.Email)
			assert.True(t, at.Equal(body.OnboardedAt))
			assert.Equal(t, "42", string(msg.Key()))
			assert.Equal(t, "cid-1", msg.Header(keyOfCorrelationID))
			return true
		case <-time.After(50 * time.Millisecond):
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
}
