package sms

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/sethvargo/go-retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHTTP(t *testing.T, url string, cfg HTTPConfig) *HTTP {
	t.Helper()

	cfg.URL = url
	h, err := NewHTTP(cfg)
	require.NoError(t, err)

	retries := h.cfg.MaxRetries
	h.backoff = func() retry.Backoff {
		return retry.WithMaxRetries(retries, retry.NewConstant(time.Millisecond))
	}
	return h
}

func TestHTTP_Send(t *testing.T) {
	var got httpPayload
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	h := newTestHTTP(t, srv.URL, HTTPConfig{APIKey: "k", Sender: "AHOUM"})
	err := h.Send(context.Background(), Message{To: "+15551234567", Body: "hello"})
	require.NoError(t, err)

	assert.Equal(t, "Bearer k", auth)
	assert.Equal(t, httpPayload{From: "AHOUM", To: "+15551234567", Body: "hello"}, got)
}

func TestHTTP_RetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	h := newTestHTTP(t, srv.URL, HTTPConfig{MaxRetries: 3})
	require.NoError(t, h.Send(context.Background(), Message{To: "+15551234567", Body: "x"}))
	assert.Equal(t, int32(3), hits.Load())
}

func TestHTTP_DoesNotRetryClientErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		http.Error(w, "bad number", http.StatusBadRequest)
	}))
	defer srv.Close()

	h := newTestHTTP(t, srv.URL, HTTPConfig{})
	err := h.Send(context.Background(), Message{To: "+15551234567", Body: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
	assert.Equal(t, int32(1), hits.Load())
}

func TestHTTP_BreakerOpens(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	h := newTestHTTP(t, srv.URL, HTTPConfig{MaxRetries: 1, BreakerFailures: 1, BreakerTimeout: time.Minute})
	msg := Message{To: "+15551234567", Body: "x"}

	require.Error(t, h.Send(context.Background(), msg))
	assert.Equal(t, int32(2), hits.Load())

	err := h.Send(context.Background(), msg)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, int32(2), hits.Load())
}

func TestNewHTTP_RequiresURL(t *testing.T) {
	_, err := NewHTTP(HTTPConfig{})
	assert.Error(t, err)
}

type fakeSNS struct {
	in  *sns.PublishInput
	err error
}

func (f *fakeSNS) Publish(_ context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.in = in
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{MessageId: aws.String("m-1")}, nil
}

func TestSNS_Send(t *testing.T) {
	fake := &fakeSNS{}
	s := &SNS{client: fake, senderID: "AHOUM"}

	require.NoError(t, s.Send(context.Background(), Message{To: "+15551234567", Body: "hi"}))
	assert.Equal(t, "+15551234567", aws.ToString(fake.in.PhoneNumber))
	assert.Equal(t, "hi", aws.ToString(fake.in.Message))
	assert.Equal(t, "Transactional", aws.ToString(fake.in.MessageAttributes["AWS.SNS.SMS.SMSType"].StringValue))
	assert.Equal(t, "AHOUM", aws.ToString(fake.in.MessageAttributes["AWS.SNS.SMS.SenderID"].StringValue))

	fake.err = errors.New("throttled")
	assert.ErrorContains(t, s.Send(context.Background(), Message{To: "+15551234567", Body: "hi"}), "throttled")
}

func TestLog_Send(t *testing.T) {
	l := NewLog()
	assert.NoError(t, l.Send(context.Background(), Message{To: "+15551234567", Body: "x", Code: "123456"}))
	assert.ErrorIs(t, l.Send(context.Background(), Message{Body: "x"}), ErrRecipientRequired)
}

func TestNewFromDriver(t *testing.T) {
	s, err := NewFromDriver(context.Background(), "", FactoryOptions{})
	require.NoError(t, err)
	assert.IsType(t, &Log{}, s)

	_, err = NewFromDriver(context.Background(), "twilio", FactoryOptions{})
	assert.ErrorIs(t, err, ErrUnknownDriver)
}
