package inbound

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shandysiswandi/ahoum/internal/facilitator/entity"
	"github.com/shandysiswandi/ahoum/internal/facilitator/outbound/mq"
	"github.com/shandysiswandi/ahoum/internal/facilitator/usecase"
	"github.com/shandysiswandi/ahoum/internal/pkg/clock"
	"github.com/shandysiswandi/ahoum/internal/pkg/config"
	"github.com/shandysiswandi/ahoum/internal/pkg/goerror"
	"github.com/shandysiswandi/ahoum/internal/pkg/hash"
	"github.com/shandysiswandi/ahoum/internal/pkg/instrument"
	"github.com/shandysiswandi/ahoum/internal/pkg/jwt"
	"github.com/shandysiswandi/ahoum/internal/pkg/messaging"
	"github.com/shandysiswandi/ahoum/internal/pkg/router"
	"github.com/shandysiswandi/ahoum/internal/pkg/session"
	"github.com/shandysiswandi/ahoum/internal/pkg/sms"
	"github.com/shandysiswandi/ahoum/internal/pkg/storage"
	"github.com/shandysiswandi/ahoum/internal/pkg/uid"
	"github.com/shandysiswandi/ahoum/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memRepo keeps OTPs and facilitators in memory with the same semantics as
// the SQL repository.
type memRepo struct {
	mu           sync.Mutex
	otps         []*memOTP
	facilitators map[int64]*entity.Facilitator
}

type memOTP struct {
	entity.OTP
	consumed bool
}

func newMemRepo() *memRepo {
	return &memRepo{facilitators: map[int64]*entity.Facilitator{}}
}

func (m *memRepo) IssueOTP(_ context.Context, in entity.OTP) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.otps = append(m.otps, &memOTP{OTP: in})
	return in.ID, nil
}

func (m *memRepo) ConsumeOTP(_ context.Context, phone string, typ entity.OTPType, codeHash string, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.otps) - 1; i >= 0; i-- {
		o := m.otps[i]
		if o.PhoneNumber == phone && o.Type == typ && o.CodeHash == codeHash && !o.consumed && o.ExpiresAt.After(now) {
			o.consumed = true
			return true, nil
		}
	}
	return false, nil
}

func (m *memRepo) PurgeExpiredOTP(context.Context, time.Time) (int64, error) { return 0, nil }

func (m *memRepo) FindFacilitatorByPhone(_ context.Context, phone string) (*entity.Facilitator, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range m.facilitators {
		if f.PhoneNumber == phone {
			cp := *f
			return &cp, nil
		}
	}
	return nil, goerror.ErrNotFound
}

func (m *memRepo) GetFacilitatorByID(_ context.Context, id int64) (*entity.Facilitator, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.facilitators[id]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	cp := *f
	return &cp, nil
}

func (m *memRepo) CreateFacilitator(_ context.Context, in entity.NewFacilitator) (*entity.Facilitator, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range m.facilitators {
		if f.PhoneNumber == in.PhoneNumber || f.Email == in.Email {
			return nil, goerror.ErrConflict
		}
	}

	f := &entity.Facilitator{
		ID:          in.ID,
		PhoneNumber: in.PhoneNumber,
		Name:        in.Name,
		Email:       in.Email,
		IsActive:    true,
	}
	for sec, v := range in.Sections {
		setSection(f, sec, v)
	}
	m.facilitators[f.ID] = f
	cp := *f
	return &cp, nil
}

func (m *memRepo) UpdateSection(_ context.Context, id int64, sec entity.Section, value json.RawMessage) (*entity.Facilitator, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.facilitators[id]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	setSection(f, sec, value)
	cp := *f
	return &cp, nil
}

func (m *memRepo) UpdateAvatar(_ context.Context, id int64, avatarURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.facilitators[id]
	if !ok {
		return goerror.ErrNotFound
	}
	f.AvatarURL = avatarURL
	return nil
}

func setSection(f *entity.Facilitator, sec entity.Section, v json.RawMessage) {
	switch sec {
	case entity.SectionBasicInfo:
		f.BasicInfo = v
	case entity.SectionProfessionalDetails:
		f.ProfessionalDetails = v
	case entity.SectionBioAbout:
		f.BioAbout = v
	case entity.SectionExperience:
		f.Experience = v
	case entity.SectionCertifications:
		f.Certifications = v
	case entity.SectionVisualProfile:
		f.VisualProfile = v
	}
}

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

// inbox captures the codes texted to each phone.
type inbox struct {
	mu    sync.Mutex
	codes map[string]string
}

func (i *inbox) Send(_ context.Context, msg sms.Message) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.codes[msg.To] = msg.Code
	return nil
}

func (i *inbox) last(phone string) string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.codes[phone]
}

type seqID struct{ n atomic.Int64 }

func (s *seqID) Generate() int64 { return s.n.Add(100) }

type server struct {
	t       *testing.T
	handler http.Handler
	inbox   *inbox
	repo    *memRepo
	storage *storage.Memory
	clock   *clock.Fixed
}

func newServer(t *testing.T) *server {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(`
modules:
  facilitator:
    otp:
      ttl_minutes: 10
    avatar:
      max_size_bytes: 1048576
`))
	require.NoError(t, err)
	t.Cleanup(func() { _ = cfg.Close() })

	v, err := validator.NewV10Validator()
	require.NoError(t, err)

	clk := clock.NewFixed(time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC))
	signer, err := jwt.NewHS512(jwt.Config{
		Secret: []byte(strings.Repeat("k", 64)),
		Issuer: "ahoum-test",
		TTL:    24 * time.Hour,
		Clock:  clk,
	})
	require.NoError(t, err)

	sessions := session.NewManager(session.Config{
		Store:      &memStore{docs: map[string]session.Data{}},
		JWT:        signer,
		ID:         uid.NewRandomID(16),
		Clock:      clk,
		Instrument: instrument.NewNoop(),
		TTL:        24 * time.Hour,
	})

	r := router.NewRouter(router.Config{
		Config:     cfg,
		UUID:       uid.NewUUID(),
		Instrument: instrument.NewNoop(),
		Sessions:   sessions,
	})

	s := &server{
		t:       t,
		inbox:   &inbox{codes: map[string]string{}},
		repo:    newMemRepo(),
		storage: storage.NewMemory("http://cdn.test"),
		clock:   clk,
	}

	uc := usecase.New(usecase.Dependency{
		RepoDB:        s.repo,
		RepoMessaging: mq.NewMessaging(messaging.NewMemory(), instrument.NewNoop()),
		Sessions:      sessions,
		SMS:           s.inbox,
		Storage:       s.storage,
		Validator:     v,
		Config:        cfg,
		HMAC:          hash.NewHMACSHA256([]byte("test-secret")),
		UID:           &seqID{},
		UUID:          uid.NewUUID(),
		Clock:         clk,
		Instrument:    instrument.NewNoop(),
	})

	RegisterHTTPEndpoint(r, uc, router.NewRateLimiter(600, 100, clk))
	s.handler = r

	return s
}

// client holds the session cookie between requests.
type client struct {
	s      *server
	cookie *http.Cookie
}

func (s *server) client() *client { return &client{s: s} }

func (c *client) do(req *http.Request) (int, map[string]any) {
	c.s.t.Helper()

	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	rec := httptest.NewRecorder()
	c.s.handler.ServeHTTP(rec, req)

	for _, ck := range rec.Result().Cookies() {
		if ck.Name != "ahoum_session" {
			continue
		}
		if ck.MaxAge < 0 {
			c.cookie = nil
		} else {
			c.cookie = ck
		}
	}

	var body map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(c.s.t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	}
	return rec.Code, body
}

func (c *client) json(method, path, body string) (int, map[string]any) {
	c.s.t.Helper()

	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *client) login(phone string) map[string]any {
	c.s.t.Helper()

	code, _ := c.json(http.MethodPost, "/send-otp", `{"phone_number":"`+phone+`"}`)
	require.Equal(c.s.t, http.StatusOK, code)

	code, body := c.json(http.MethodPost, "/verify-otp", `{"phone_number":"`+phone+`","otp":"`+c.s.inbox.last(phone)+`"}`)
	require.Equal(c.s.t, http.StatusOK, code, body)
	return body
}

const phone = "+15551234567"

func TestHTTP_NewFacilitatorJourney(t *testing.T) {
	s := newServer(t)
	c := s.client()

	code, body := c.json(http.MethodGet, "/session-status", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, map[string]any{"authenticated": false, "status": "not_authenticated"}, body)

	code, body = c.json(http.MethodPost, "/send-otp", `{"phone_number":"`+phone+`"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, map[string]any{"success": true, "message": "OTP sent successfully", "phone_number": phone}, body)
	require.Len(t, s.inbox.last(phone), 6)

	code, body = c.json(http.MethodPost, "/verify-otp", `{"phone_number":"`+phone+`","otp":"`+s.inbox.last(phone)+`"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["is_new_user"])
	assert.Equal(t, "onboarding", body["redirect_to"])
	assert.NotContains(t, body, "facilitator")
	require.NotNil(t, c.cookie)

	code, body = c.json(http.MethodGet, "/session-status", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, map[string]any{"authenticated": false, "temp_phone_number": phone, "status": "onboarding_pending"}, body)

	code, _ = c.json(http.MethodGet, "/facilitator/profile", "")
	assert.Equal(t, http.StatusUnauthorized, code)

	code, body = c.json(http.MethodPost, "/complete-onboarding", `{"name":"  Jane Doe ","email":"Jane@Example.com","experience":[{"years":3}]}`)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "dashboard", body["redirect_to"])
	f := body["facilitator"].(map[string]any)
	assert.Equal(t, "Jane Doe", f["name"])
	assert.Equal(t, "jane@example.com", f["email"])
	id := f["id"].(string)

	code, body = c.json(http.MethodGet, "/session-status", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, map[string]any{"authenticated": true, "facilitator_id": id, "phone_number": phone, "status": "authenticated"}, body)

	code, body = c.json(http.MethodPost, "/complete-onboarding", `{"name":"Jane Doe","email":"jane@example.com"}`)
	assert.Equal(t, http.StatusBadRequest, code, body)

	code, body = c.json(http.MethodGet, "/facilitator/profile", "")
	require.Equal(t, http.StatusOK, code)
	profile := body["data"].(map[string]any)
	assert.Equal(t, []any{map[string]any{"years": float64(3)}}, profile["experience"])
	assert.Equal(t, []any{}, profile["certifications"])
	assert.Equal(t, map[string]any{}, profile["basic_info"])

	code, body = c.json(http.MethodPut, "/facilitator/profile/basic-info", `{"city":"Pune"}`)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "Profile basic_info updated successfully", body["message"])
	assert.Equal(t, map[string]any{"city": "Pune"}, body["data"].(map[string]any)["basic_info"])

	code, _ = c.json(http.MethodPut, "/facilitator/profile/payments", `{}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = c.json(http.MethodPost, "/logout", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, map[string]any{"success": true, "message": "Logged out successfully"}, body)
	assert.Nil(t, c.cookie)

	code, body = c.json(http.MethodGet, "/session-status", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "not_authenticated", body["status"])
}

func TestHTTP_ReturningFacilitator(t *testing.T) {
	s := newServer(t)

	first := s.client()
	first.login(phone)
	code, _ := first.json(http.MethodPost, "/complete-onboarding", `{"name":"Jane Doe","email":"jane@example.com"}`)
	require.Equal(t, http.StatusOK, code)

	second := s.client()
	body := second.login(phone)
	assert.Equal(t, false, body["is_new_user"])
	assert.Equal(t, "dashboard", body["redirect_to"])
	assert.Equal(t, "Login successful", body["message"])
	assert.Equal(t, "jane@example.com", body["facilitator"].(map[string]any)["email"])

	code, body = second.json(http.MethodGet, "/session-status", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["authenticated"])
}

func TestHTTP_VerifyOTP(t *testing.T) {
	t.Run("code works once", func(t *testing.T) {
		s := newServer(t)
		c := s.client()
		c.login(phone)
		otp := s.inbox.last(phone)

		other := s.client()
		code, body := other.json(http.MethodPost, "/verify-otp", `{"phone_number":"`+phone+`","otp":"`+otp+`"}`)
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "Invalid or expired OTP", body["message"])
	})

	t.Run("expired code", func(t *testing.T) {
		s := newServer(t)
		c := s.client()
		code, _ := c.json(http.MethodPost, "/send-otp", `{"phone_number":"`+phone+`"}`)
		require.Equal(t, http.StatusOK, code)

		s.clock.Advance(10*time.Minute + time.Second)

		code, body := c.json(http.MethodPost, "/verify-otp", `{"phone_number":"`+phone+`","otp":"`+s.inbox.last(phone)+`"}`)
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "Invalid or expired OTP", body["message"])
	})

	t.Run("malformed input", func(t *testing.T) {
		s := newServer(t)
		c := s.client()

		code, body := c.json(http.MethodPost, "/send-otp", `{"phone_number":"5551234"}`)
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Contains(t, body["error"], "phone_number")
		assert.Empty(t, s.repo.otps)

		code, _ = c.json(http.MethodPost, "/verify-otp", `{"phone_number":"`+phone+`","otp":"12ab56"}`)
		assert.Equal(t, http.StatusBadRequest, code)
	})

	t.Run("complete onboarding without session", func(t *testing.T) {
		s := newServer(t)
		code, body := s.client().json(http.MethodPost, "/complete-onboarding", `{"name":"Jane Doe","email":"jane@example.com"}`)
		assert.Equal(t, http.StatusUnauthorized, code)
		assert.Equal(t, "Invalid session. Please verify OTP again.", body["message"])
	})
}

func TestHTTP_ProfileUpdateAvatar(t *testing.T) {
	s := newServer(t)
	c := s.client()
	c.login(phone)
	code, _ := c.json(http.MethodPost, "/complete-onboarding", `{"name":"Jane Doe","email":"jane@example.com"}`)
	require.Equal(t, http.StatusOK, code)

	upload := func(content []byte) (int, map[string]any) {
		buf := &bytes.Buffer{}
		w := multipart.NewWriter(buf)
		part, err := w.CreateFormFile("file", "me.png")
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
		require.NoError(t, w.Close())

		req := httptest.NewRequest(http.MethodPut, "/facilitator/avatar", buf)
		req.Header.Set("Content-Type", w.FormDataContentType())
		return c.do(req)
	}

	png := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 32)...)
	code, body := upload(png)
	require.Equal(t, http.StatusOK, code, body)
	url := body["data"].(map[string]any)["avatar_url"].(string)
	assert.True(t, strings.HasPrefix(url, "http://cdn.test/avatars/"), url)

	code, _ = upload([]byte("plain text is not an image"))
	assert.Equal(t, http.StatusBadRequest, code)
}
