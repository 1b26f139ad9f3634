package router

import (
	"net/http"
	"strings"

	"github.com/samber/lo"
	"github.com/shandysiswandi/ahoum/internal/pkg/config"
)

// configList reads a string list from cfg, trimmed and without blanks or duplicates.
func configList(cfg config.Config, key string, normalize func(string) string) []string {
	if cfg == nil {
		return nil
	}

	values := lo.Map(cfg.GetArray(key), func(v string, _ int) string {
		return normalize(strings.TrimSpace(v))
	})

	return lo.Uniq(lo.Compact(values))
}

func middlewareMaintenance(cfg config.Config) Middleware {
	endpoints := lo.SliceToMap(
		configList(cfg, "app.maintenance.endpoints", func(s string) string { return s }),
		func(e string) (string, struct{}) { return e, struct{}{} },
	)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, blocked := endpoints[matchedRoutePath(r)]; blocked {
				writeJSON(w, errorResponse{Message: "service is under maintenance"}, http.StatusServiceUnavailable)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
