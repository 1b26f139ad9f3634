package router

import (
	"bufio"
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"

	"github.com/shandysiswandi/ahoum/internal/pkg/session"
)

// sessionWriter emits the session cookie right before the response header is
// committed, so handlers may change the session anywhere before writing.
type sessionWriter struct {
	http.ResponseWriter
	ctx     context.Context
	manager *session.Manager
	session *session.Session
	written bool
}

func (w *sessionWriter) writeCookie() {
	if w.written {
		return
	}
	w.written = true

	c, err := w.manager.Cookie(w.session)
	if err != nil {
		slog.ErrorContext(w.ctx, "failed to build session cookie", "error", err)
		return
	}
	if c != nil {
		http.SetCookie(w.ResponseWriter, c)
	}
}

func (w *sessionWriter) WriteHeader(code int) {
	w.writeCookie()
	w.ResponseWriter.WriteHeader(code)
}

func (w *sessionWriter) Write(p []byte) (int, error) {
	w.writeCookie()
	return w.ResponseWriter.Write(p)
}

func (w *sessionWriter) SetError(err error) {
	if setter, ok := w.ResponseWriter.(interface{ SetError(error) }); ok {
		setter.SetError(err)
	}
}

func (w *sessionWriter) Flush() {
	w.writeCookie()
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

//nolint:err113 // it use dynamic error
func (w *sessionWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("hijack not supported")
	}
	return h.Hijack()
}

func middlewareSession(m *session.Manager) Middleware {
	if m == nil {
		return nil
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, err := m.Load(r.Context(), r)
			if err != nil {
				slog.ErrorContext(r.Context(), "failed to load session", "error", err)
				writeJSON(w, errorResponse{Message: "Internal server error"}, http.StatusInternalServerError)
				return
			}

			sw := &sessionWriter{ResponseWriter: w, ctx: r.Context(), manager: m, session: s}
			next.ServeHTTP(sw, r.WithContext(session.NewContext(r.Context(), s)))

			// the handler wrote nothing, net/http still sends our header map.
			sw.writeCookie()
		})
	}
}

// RequireAuthenticated rejects requests whose session is not authenticated and
// exposes the facilitator id through session.GetFacilitatorID.
func RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := session.FromContext(r.Context())
		if s == nil || s.State() != session.StateAuthenticated {
			writeJSON(w, errorResponse{Message: "Authentication required"}, http.StatusUnauthorized)
			return
		}

		ctx := session.WithFacilitatorID(r.Context(), s.Data().FacilitatorID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireOnboarding admits only sessions waiting for onboarding completion.
func RequireOnboarding(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := session.FromContext(r.Context())

		switch {
		case s != nil && s.State() == session.StateAuthenticated:
			writeJSON(w, errorResponse{Message: "Already authenticated"}, http.StatusBadRequest)
		case s == nil || s.State() != session.StateOnboardingPending:
			writeJSON(w, errorResponse{Message: "Invalid session. Please verify OTP again."}, http.StatusUnauthorized)
		default:
			next.ServeHTTP(w, r)
		}
	})
}
