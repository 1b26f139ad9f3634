package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shandysiswandi/ahoum/internal/pkg/goerror"
	"github.com/shandysiswandi/ahoum/internal/pkg/router"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

type healthResponse struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services"`
}

func (healthResponse) Message() string { return "service is healthy" }

// checkHealth pings every dependency and fails when one of them does not answer.
func checkHealth(ctx context.Context, deps map[string]pinger) (healthResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	resp := healthResponse{Status: "ok", Services: make(map[string]string, len(deps))}
	var errs []error
	for name, dep := range deps {
		if err := dep.Ping(ctx); err != nil {
			slog.ErrorContext(ctx, "health check failed", "service", name, "error", err)
			resp.Services[name] = "down"
			errs = append(errs, err)
			continue
		}
		resp.Services[name] = "up"
	}

	if len(errs) > 0 {
		return resp, errors.Join(goerror.NewBusiness("Service unavailable", goerror.CodeUnavailable), errors.Join(errs...))
	}

	return resp, nil
}

// health pings Postgres and Redis.
//
// @Summary Health check
// @Tags System
// @Produce json
// @Success 200 {object} healthResponse
// @Failure 503 {object} router.errorResponse "Service unavailable"
// @Router /health [get]
func (a *App) health(r *router.Request) (any, error) {
	resp, err := checkHealth(r.Context(), map[string]pinger{
		"database": a.dbConn,
		"redis": pingerFunc(func(ctx context.Context) error {
			return a.cacheConn.Ping(ctx).Err()
		}),
	})
	if err != nil {
		return nil, err
	}

	return resp, nil
}
