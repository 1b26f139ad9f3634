package router

import (
	"net/http"
	"regexp"

	"github.com/shandysiswandi/ahoum/internal/pkg/instrument"
	"github.com/shandysiswandi/ahoum/internal/pkg/uid"
)

const (
	// HeaderCorrelationID carries the correlation id in and out.
	HeaderCorrelationID = "X-Correlation-ID"
	// HeaderRequestID is accepted from proxies that only set this one.
	HeaderRequestID = "X-Request-ID"
)

var reCorrelationID = regexp.MustCompile(`^[A-Za-z0-9._:-]{1,128}$`)

// incomingCID returns the first acceptable id sent by the client.
func incomingCID(r *http.Request) string {
	for _, h := range [...]string{HeaderCorrelationID, HeaderRequestID} {
		if v := r.Header.Get(h); reCorrelationID.MatchString(v) {
			return v
		}
	}
	return ""
}

func middlewareCorrelationID(gen uid.StringID) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cid := incomingCID(r)
			if cid == "" && gen != nil {
				cid = gen.Generate()
			}

			if cid != "" {
				w.Header().Set(HeaderCorrelationID, cid)
				r = r.WithContext(instrument.SetCorrelationID(r.Context(), cid))
			}

			next.ServeHTTP(w, r)
		})
	}
}
