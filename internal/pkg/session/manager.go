package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/shandysiswandi/ahoum/internal/pkg/clock"
	"github.com/shandysiswandi/ahoum/internal/pkg/instrument"
	"github.com/shandysiswandi/ahoum/internal/pkg/jwt"
	"github.com/shandysiswandi/ahoum/internal/pkg/uid"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	// ErrNotFound is returned by a Store when the session key does not exist.
	ErrNotFound = errors.New("session: not found")
	// ErrNoSession is returned when no session is bound to the context.
	ErrNoSession = errors.New("session: no session bound to context")
	// ErrAlreadyAuthenticated is returned when onboarding starts on an authenticated session.
	ErrAlreadyAuthenticated = errors.New("session: already authenticated")
)

// Store persists session documents.
type Store interface {
	// Get returns the document and extends its expiry to ttl.
	Get(ctx context.Context, id string, ttl time.Duration) (Data, error)
	// Set writes the whole document with the given ttl.
	Set(ctx context.Context, id string, data Data, ttl time.Duration) error
	// Delete removes the document; deleting a missing key is not an error.
	Delete(ctx context.Context, id string) error
}

// CookieConfig configures the session cookie.
type CookieConfig struct {
	Name     string
	Domain   string
	Path     string
	Secure   bool
	SameSite http.SameSite
}

// Config holds the Manager dependencies.
type Config struct {
	Store      Store
	JWT        jwt.JWT
	ID         uid.StringID
	Clock      clock.Clocker
	Instrument instrument.Instrumentation
	// TTL is the sliding session lifetime.
	TTL    time.Duration
	Cookie CookieConfig
}

// Manager implements the session lifecycle on top of a Store.
type Manager struct {
	store  Store
	jwt    jwt.JWT
	id     uid.StringID
	clock  clock.Clocker
	ins    instrument.Instrumentation
	ttl    time.Duration
	cookie CookieConfig
}

// NewManager builds a Manager.
func NewManager(cfg Config) *Manager {
	if cfg.Cookie.Name == "" {
		cfg.Cookie.Name = "ahoum_session"
	}
	if cfg.Cookie.Path == "" {
		cfg.Cookie.Path = "/"
	}
	if cfg.Cookie.SameSite == 0 {
		cfg.Cookie.SameSite = http.SameSiteLaxMode
	}

	return &Manager{
		store:  cfg.Store,
		jwt:    cfg.JWT,
		id:     cfg.ID,
		clock:  cfg.Clock,
		ins:    cfg.Instrument,
		ttl:    cfg.TTL,
		cookie: cfg.Cookie,
	}
}

func (m *Manager) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return m.ins.Tracer("pkg.session").Start(ctx, name)
}

func endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, ErrAlreadyAuthenticated) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// Load resolves the session carried by r. Missing, invalid or unknown cookies
// yield an anonymous session; only store failures are returned as errors.
func (m *Manager) Load(ctx context.Context, r *http.Request) (_ *Session, err error) {
	ctx, span := m.startSpan(ctx, "Load")
	defer func() { endSpan(span, err) }()

	c, err := r.Cookie(m.cookie.Name)
	if err != nil || c.Value == "" {
		return &Session{}, nil
	}

	claims, err := m.jwt.Verify(c.Value)
	if err != nil {
		slog.WarnContext(ctx, "session cookie rejected", "error", err)
		return &Session{expire: true}, nil
	}

	data, err := m.store.Get(ctx, claims.ID, m.ttl)
	if errors.Is(err, ErrNotFound) {
		return &Session{expire: true}, nil
	}
	if err != nil {
		return nil, err
	}

	// sliding window: the store already extended the key, re-send the cookie.
	return &Session{id: claims.ID, data: data, issue: true}, nil
}

// Cookie returns the Set-Cookie value the response must carry for s, or nil.
func (m *Manager) Cookie(s *Session) (*http.Cookie, error) {
	if s == nil {
		return nil, nil
	}

	c := &http.Cookie{
		Name:     m.cookie.Name,
		Path:     m.cookie.Path,
		Domain:   m.cookie.Domain,
		Secure:   m.cookie.Secure,
		HttpOnly: true,
		SameSite: m.cookie.SameSite,
	}

	switch {
	case s.id != "" && s.issue:
		token, err := m.jwt.Generate(s.id)
		if err != nil {
			return nil, err
		}
		c.Value = token
		c.MaxAge = int(m.ttl.Seconds())
		return c, nil

	case s.expire:
		c.MaxAge = -1
		return c, nil

	default:
		return nil, nil
	}
}

// StartOnboarding moves the session bound to ctx to onboarding-pending.
func (m *Manager) StartOnboarding(ctx context.Context, phone string) (err error) {
	ctx, span := m.startSpan(ctx, "StartOnboarding")
	defer func() { endSpan(span, err) }()

	s := FromContext(ctx)
	if s == nil {
		return ErrNoSession
	}

	if s.State() == StateAuthenticated {
		return ErrAlreadyAuthenticated
	}

	return m.write(ctx, s, onboardingData(phone, m.clock.Now()))
}

// StartAuthenticated moves the session bound to ctx to authenticated,
// dropping any onboarding fields.
func (m *Manager) StartAuthenticated(ctx context.Context, facilitatorID int64, phone string) (err error) {
	ctx, span := m.startSpan(ctx, "StartAuthenticated")
	defer func() { endSpan(span, err) }()

	s := FromContext(ctx)
	if s == nil {
		return ErrNoSession
	}

	return m.write(ctx, s, authenticatedData(facilitatorID, phone, m.clock.Now()))
}

// Status returns the document of the session bound to ctx.
func (m *Manager) Status(ctx context.Context) Data {
	if s := FromContext(ctx); s != nil {
		return s.data
	}
	return Data{}
}

// Destroy clears the session bound to ctx. It is idempotent.
func (m *Manager) Destroy(ctx context.Context) (err error) {
	ctx, span := m.startSpan(ctx, "Destroy")
	defer func() { endSpan(span, err) }()

	s := FromContext(ctx)
	if s == nil {
		return nil
	}

	if s.id != "" {
		if err := m.store.Delete(ctx, s.id); err != nil {
			return err
		}
	}

	*s = Session{expire: true}
	return nil
}

// write persists data under a fresh id so a promoted session never reuses the
// key a client held before the promotion.
func (m *Manager) write(ctx context.Context, s *Session, data Data) error {
	id := m.id.Generate()
	if err := m.store.Set(ctx, id, data, m.ttl); err != nil {
		return err
	}

	if s.id != "" {
		if err := m.store.Delete(ctx, s.id); err != nil {
			slog.WarnContext(ctx, "failed to delete rotated session", "error", err)
		}
	}

	*s = Session{id: id, data: data, issue: true}
	return nil
}
