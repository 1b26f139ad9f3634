package inbound

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/ahoum/internal/notification/usecase"
	"github.com/shandysiswandi/ahoum/internal/pkg/config"
	"github.com/shandysiswandi/ahoum/internal/pkg/goroutine"
	"github.com/shandysiswandi/ahoum/internal/pkg/instrument"
	"github.com/shandysiswandi/ahoum/internal/pkg/messaging"
	"github.com/shandysiswandi/ahoum/internal/shared/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUC struct {
	mu   sync.Mutex
	got  []usecase.ConsumeFacilitatorOnboardedInput
	cIDs []string
	err  error
}

func (f *fakeUC) ConsumeFacilitatorOnboarded(ctx context.Context, in usecase.ConsumeFacilitatorOnboardedInput) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = append(f.got, in)
	f.cIDs = append(f.cIDs, instrument.GetCorrelationID(ctx))
	return f.err
}

func (f *fakeUC) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.got)
}

type fixedUUID string

func (f fixedUUID) Generate() string { return string(f) }

type stubMessage struct {
	body    []byte
	headers map[string]string
}

func (m stubMessage) Topic() string              { return event.FacilitatorOnboardedDestination }
func (m stubMessage) Key() []byte                { return []byte("42") }
func (m stubMessage) Body() []byte               { return m.body }
func (m stubMessage) Header(key string) string   { return m.headers[key] }
func (m stubMessage) Ack(context.Context) error  { return nil }
func (m stubMessage) Nack(context.Context) error { return nil }

const payload = `{"facilitator_id":42,"phone_number":"+15551234567","name":"Jane Doe","email":"jane@example.com","onboarded_at":"2026-01-01T10:00:00Z"}`

func TestMQHandler_FacilitatorOnboardedNotification(t *testing.T) {
	t.Run("decodes and keeps correlation id", func(t *testing.T) {
		f := &fakeUC{}
		h := &MQHandler{uc: f, uuid: fixedUUID("generated"), ins: instrument.NewNoop()}

		err := h.FacilitatorOnboardedNotification(context.Background(), stubMessage{
			body:    []byte(payload),
			headers: map[string]string{"cID": "from-publisher"},
		})
		require.NoError(t, err)

		require.Len(t, f.got, 1)
		assert.Equal(t, usecase.ConsumeFacilitatorOnboardedInput{
			FacilitatorID: 42,
			Email:         "jane@example.com",
			Name:          "Jane Doe",
			PhoneNumber:   "+15551234567",
		}, f.got[0])
		assert.Equal(t, "from-publisher", f.cIDs[0])
	})

	t.Run("generates correlation id", func(t *testing.T) {
		f := &fakeUC{}
		h := &MQHandler{uc: f, uuid: fixedUUID("generated"), ins: instrument.NewNoop()}

		require.NoError(t, h.FacilitatorOnboardedNotification(context.Background(), stubMessage{body: []byte(payload)}))
		assert.Equal(t, []string{"generated"}, f.cIDs)
	})

	t.Run("bad body is dropped", func(t *testing.T) {
		f := &fakeUC{}
		h := &MQHandler{uc: f, uuid: fixedUUID("generated"), ins: instrument.NewNoop()}

		require.NoError(t, h.FacilitatorOnboardedNotification(context.Background(), stubMessage{body: []byte("{")}))
		assert.Zero(t, f.calls())
	})

	t.Run("usecase error is returned", func(t *testing.T) {
		f := &fakeUC{err: errors.New("relay refused")}
		h := &MQHandler{uc: f, uuid: fixedUUID("generated"), ins: instrument.NewNoop()}

		err := h.FacilitatorOnboardedNotification(context.Background(), stubMessage{body: []byte(payload)})
		assert.EqualError(t, err, "relay refused")
	})
}

func TestRegisterMQConsumer(t *testing.T) {
	newConfig := func(t *testing.T, yaml string) config.Config {
		t.Helper()
		cfg, err := config.NewViperFromBytes("yaml", []byte(yaml))
		require.NoError(t, err)
		t.Cleanup(func() { _ = cfg.Close() })
		return cfg
	}

	t.Run("enabled consumer receives events", func(t *testing.T) {
		cfg := newConfig(t, `
modules:
  notification:
    consumer_names: [facilitator_onboarded_notification]
    consumer_concurrency: 2
`)
		broker := messaging.NewMemory()
		routine := goroutine.NewManager(4)
		ctx, cancel := context.WithCancel(context.Background())
		f := &fakeUC{}

		RegisterMQConsumer(ctx, cfg, routine, broker, fixedUUID("generated"), f, instrument.NewNoop())

		// The consumer subscribes asynchronously; publish until it is listening.
		require.Eventually(t, func() bool {
			_ = broker.Publish(ctx, event.FacilitatorOnboardedDestination, messaging.OutgoingMessage{Body: []byte(payload)})
			return f.calls() > 0
		}, 2*time.Second, 20*time.Millisecond)

		cancel()
		require.NoError(t, routine.Wait())
		assert.Equal(t, int64(42), f.got[0].FacilitatorID)
	})

	t.Run("disabled consumer is not started", func(t *testing.T) {
		cfg := newConfig(t, `
modules:
  notification:
    consumer_names: []
`)
		broker := messaging.NewMemory()
		routine := goroutine.NewManager(4)
		f := &fakeUC{}

		RegisterMQConsumer(context.Background(), cfg, routine, broker, fixedUUID("generated"), f, instrument.NewNoop())

		require.NoError(t, broker.Publish(context.Background(), event.FacilitatorOnboardedDestination, messaging.OutgoingMessage{Body: []byte(payload)}))
		require.NoError(t, routine.Wait())
		assert.Zero(t, f.calls())
	})
}
