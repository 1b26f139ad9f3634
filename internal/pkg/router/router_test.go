package router

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/ahoum/internal/pkg/clock"
	"github.com/shandysiswandi/ahoum/internal/pkg/config"
	"github.com/shandysiswandi/ahoum/internal/pkg/goerror"
	"github.com/shandysiswandi/ahoum/internal/pkg/instrument"
	"github.com/shandysiswandi/ahoum/internal/pkg/jwt"
	"github.com/shandysiswandi/ahoum/internal/pkg/session"
	"github.com/shandysiswandi/ahoum/internal/pkg/uid"
	"github.com/shandysiswandi/ahoum/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu   sync.Mutex
	docs map[string]session.Data
}

func (s *memStore) Get(_ context.Context, id string, _ time.Duration) (session.Data, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.docs[id]
	if !ok {
		return session.Data{}, session.ErrNotFound
	}
	return d, nil
}

func (s *memStore) Set(_ context.Context, id string, data session.Data, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[id] = data
	return nil
}

func (s *memStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, id)
	return nil
}

func newTestConfig(t *testing.T, yaml string) config.Config {
	t.Helper()
	cfg, err := config.NewViperFromBytes("yaml", []byte(yaml))
	require.NoError(t, err)
	return cfg
}

func newTestRouter(t *testing.T, yaml string) (*Router, *session.Manager) {
	t.Helper()

	clk := clock.NewFixed(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	signer, err := jwt.NewHS512(jwt.Config{
		Secret: []byte(strings.Repeat("s", 64)),
		Issuer: "ahoum-test",
		TTL:    time.Hour,
		Clock:  clk,
	})
	require.NoError(t, err)

	mgr := session.NewManager(session.Config{
		Store:      &memStore{docs: map[string]session.Data{}},
		JWT:        signer,
		ID:         uid.NewRandomID(16),
		Clock:      clk,
		Instrument: instrument.NewNoop(),
		TTL:        time.Hour,
	})

	return NewRouter(Config{
		Config:     newTestConfig(t, yaml),
		UUID:       uid.NewUUID(),
		Instrument: instrument.NewNoop(),
		Sessions:   mgr,
	}), mgr
}

func do(t *testing.T, h http.Handler, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == "ahoum_session" {
			return c
		}
	}
	return nil
}

type flatResp struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (flatResp) Flat() bool { return true }

type envelopeResp struct {
	ID int64 `json:"id"`
}

func (envelopeResp) Message() string { return "Profile retrieved" }

func TestRouter_RootAndNotFound(t *testing.T) {
	r, _ := newTestRouter(t, "app: {}")

	rec := do(t, r, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Welcome to API Ahoum"}`, rec.Body.String())

	rec = do(t, r, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_Encoding(t *testing.T) {
	r, _ := newTestRouter(t, "app: {}")
	r.GET("/flat", func(*Request) (any, error) { return flatResp{Success: true, Message: "ok"}, nil })
	r.GET("/envelope", func(*Request) (any, error) { return envelopeResp{ID: 7}, nil })
	r.GET("/empty", func(*Request) (any, error) { return nil, nil })
	r.GET("/business", func(*Request) (any, error) {
		return nil, goerror.NewBusiness("Invalid or expired OTP", goerror.CodeInvalidFormat)
	})
	r.GET("/server", func(*Request) (any, error) { return nil, goerror.NewServer(errors.New("db down")) })
	r.GET("/plain", func(*Request) (any, error) { return nil, errors.New("boom") })
	r.GET("/fields", func(*Request) (any, error) {
		return nil, goerror.NewInvalidInput(nil, "file", "file is required")
	})

	tests := []struct {
		path     string
		wantCode int
		wantBody string
	}{
		{"/flat", http.StatusOK, `{"success":true,"message":"ok"}`},
		{"/envelope", http.StatusOK, `{"message":"Profile retrieved","data":{"id":7}}`},
		{"/empty", http.StatusNoContent, ``},
		{"/business", http.StatusBadRequest, `{"message":"Invalid or expired OTP"}`},
		{"/server", http.StatusInternalServerError, `{"message":"Internal server error"}`},
		{"/plain", http.StatusInternalServerError, `{"message":"Internal server error"}`},
		{"/fields", http.StatusBadRequest, `{"message":"Validation error","error":{"file":"file is required"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := do(t, r, http.MethodGet, tt.path, "")
			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantBody == "" {
				assert.Empty(t, rec.Body.String())
				return
			}
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
		})
	}
}

func TestRouter_ValidationError(t *testing.T) {
	v, err := validator.NewV10Validator()
	require.NoError(t, err)

	r, _ := newTestRouter(t, "app: {}")
	r.POST("/send-otp", func(req *Request) (any, error) {
		var in struct {
			PhoneNumber string `json:"phone_number" validate:"required,phone"`
		}
		if err := req.DecodeBody(&in); err != nil {
			return nil, err
		}
		if err := v.Validate(in); err != nil {
			return nil, goerror.NewInvalidInput(err)
		}
		return flatResp{Success: true}, nil
	})

	rec := do(t, r, http.MethodPost, "/send-otp", `{"phone_number":"12345"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"phone_number":"phone_number must be in international format (+1234567890)"`)

	rec = do(t, r, http.MethodPost, "/send-otp", `{"phone_number":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"message":"Invalid request body"}`, rec.Body.String())

	rec = do(t, r, http.MethodPost, "/send-otp", ``)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"phone_number":"phone_number is a required field"`)
}

func TestRouter_SessionGuards(t *testing.T) {
	r, mgr := newTestRouter(t, "app: {}")

	r.POST("/verify-new", func(req *Request) (any, error) {
		return flatResp{Success: true}, mgr.StartOnboarding(req.Context(), "+15550001111")
	})
	r.POST("/complete", func(req *Request) (any, error) {
		return flatResp{Success: true}, mgr.StartAuthenticated(req.Context(), 42, "+15550001111")
	}, RequireOnboarding)
	r.GET("/me", func(req *Request) (any, error) {
		id, ok := session.GetFacilitatorID(req.Context())
		require.True(t, ok)
		return envelopeResp{ID: id}, nil
	}, RequireAuthenticated)
	r.POST("/logout", func(req *Request) (any, error) {
		return flatResp{Success: true}, mgr.Destroy(req.Context())
	})

	// anonymous
	rec := do(t, r, http.MethodPost, "/complete", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"message":"Invalid session. Please verify OTP again."}`, rec.Body.String())

	rec = do(t, r, http.MethodGet, "/me", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"message":"Authentication required"}`, rec.Body.String())

	// onboarding
	rec = do(t, r, http.MethodPost, "/verify-new", "")
	require.Equal(t, http.StatusOK, rec.Code)
	onboarding := sessionCookie(t, rec)
	require.NotNil(t, onboarding)
	assert.True(t, onboarding.HttpOnly)
	assert.Equal(t, 3600, onboarding.MaxAge)

	rec = do(t, r, http.MethodGet, "/me", "", onboarding)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, r, http.MethodPost, "/complete", "", onboarding)
	require.Equal(t, http.StatusOK, rec.Code)
	authed := sessionCookie(t, rec)
	require.NotNil(t, authed)
	assert.NotEqual(t, onboarding.Value, authed.Value)

	// the rotated-away onboarding cookie no longer works
	rec = do(t, r, http.MethodPost, "/complete", "", onboarding)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// authenticated
	rec = do(t, r, http.MethodGet, "/me", "", authed)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Profile retrieved","data":{"id":42}}`, rec.Body.String())
	assert.NotNil(t, sessionCookie(t, rec), "sliding refresh re-issues the cookie")

	rec = do(t, r, http.MethodPost, "/complete", "", authed)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"message":"Already authenticated"}`, rec.Body.String())

	// logout expires the cookie and is idempotent
	rec = do(t, r, http.MethodPost, "/logout", "", authed)
	assert.Equal(t, http.StatusOK, rec.Code)
	expired := sessionCookie(t, rec)
	require.NotNil(t, expired)
	assert.Negative(t, expired.MaxAge)

	rec = do(t, r, http.MethodGet, "/me", "", authed)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, r, http.MethodPost, "/logout", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_Maintenance(t *testing.T) {
	r, _ := newTestRouter(t, `
app:
  maintenance:
    endpoints:
      - /facilitator/profile/:section
`)
	r.PUT("/facilitator/profile/:section", func(*Request) (any, error) { return flatResp{}, nil })
	r.GET("/open", func(*Request) (any, error) { return flatResp{}, nil })

	rec := do(t, r, http.MethodPut, "/facilitator/profile/bio_about", `{}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = do(t, r, http.MethodGet, "/open", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_Recoverer(t *testing.T) {
	r, _ := newTestRouter(t, "app: {}")
	r.GET("/panic", func(*Request) (any, error) { panic("kaboom") })

	rec := do(t, r, http.MethodGet, "/panic", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"message":"Internal server error"}`, rec.Body.String())
}

func TestRouter_CorrelationID(t *testing.T) {
	r, _ := newTestRouter(t, "app: {}")
	var seen string
	r.GET("/cid", func(req *Request) (any, error) {
		seen = instrument.GetCorrelationID(req.Context())
		return flatResp{}, nil
	})

	req := httptest.NewRequest(http.MethodGet, "/cid", nil)
	req.Header.Set(HeaderRequestID, "req-123")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, "req-123", seen)
	assert.Equal(t, "req-123", rec.Header().Get(HeaderCorrelationID))

	req = httptest.NewRequest(http.MethodGet, "/cid", nil)
	req.Header.Set(HeaderCorrelationID, "bad value\twith spaces")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.NotEqual(t, "bad value\twith spaces", seen)
	assert.NotEmpty(t, seen)
}

func TestChain_Order(t *testing.T) {
	var order []string
	mw := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { order = append(order, "handler") }),
		mw("outer"), nil, mw("inner"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"outer", "inner", "handler"}, order)
}

func TestClientIP(t *testing.T) {
	cfg := newTestConfig(t, `
http:
  trusted_proxies: "10.0.0.0/8, 192.168.1.1, nonsense"
`)

	tests := []struct {
		name    string
		remote  string
		headers map[string]string
		want    string
	}{
		{
			name:    "untrusted peer ignores headers",
			remote:  "203.0.113.9:5000",
			headers: map[string]string{"X-Forwarded-For": "1.2.3.4"},
			want:    "203.0.113.9",
		},
		{
			name:    "trusted peer real ip",
			remote:  "10.1.2.3:5000",
			headers: map[string]string{"X-Real-IP": "198.51.100.7"},
			want:    "198.51.100.7",
		},
		{
			name:    "trusted peer right-most untrusted hop",
			remote:  "192.168.1.1:5000",
			headers: map[string]string{"X-Forwarded-For": "6.6.6.6, 198.51.100.7, 10.0.0.2"},
			want:    "198.51.100.7",
		},
		{
			name:   "trusted peer no headers",
			remote: "10.0.0.5:80",
			want:   "10.0.0.5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := middlewareIP(cfg)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) { got = r.RemoteAddr }))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRateLimiter(t *testing.T) {
	clk := clock.NewFixed(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	rl := NewRateLimiter(6, 2, clk)

	r, _ := newTestRouter(t, "app: {}")
	r.POST("/send-otp", func(*Request) (any, error) { return flatResp{Success: true}, nil }, rl.Middleware())

	send := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/send-otp", nil)
		req.RemoteAddr = ip + ":1234"
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, send("203.0.113.1").Code)
	assert.Equal(t, http.StatusOK, send("203.0.113.1").Code)

	rec := send("203.0.113.1")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "10", rec.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"message":"Too many requests"}`, rec.Body.String())

	assert.Equal(t, http.StatusOK, send("203.0.113.2").Code, "other clients keep their own bucket")

	clk.Advance(10 * time.Second)
	assert.Equal(t, http.StatusOK, send("203.0.113.1").Code)

	clk.Advance(time.Hour)
	assert.Equal(t, 2, rl.Prune(time.Minute))

	var nilLimiter *RateLimiter
	assert.Nil(t, nilLimiter.Middleware())
}
