package app

import (
	"log/slog"
	"os"

	"github.com/shandysiswandi/ahoum/internal/facilitator"
	"github.com/shandysiswandi/ahoum/internal/notification"
)

func (a *App) initModules() {
	if a.config.GetBool("modules.facilitator.enabled") {
		if err := facilitator.New(facilitator.Dependency{
			Ctx:         a.ctx,
			DBConn:      a.dbConn,
			Goroutine:   a.goroutine,
			Router:      a.router,
			Sessions:    a.sessions,
			Messaging:   a.messaging,
			Storage:     a.storage,
			SMS:         a.sms,
			Config:      a.config,
			Instrument:  a.ins,
			UID:         a.uid,
			UUID:        a.uuid,
			HMAC:        a.hmac,
			Clock:       a.clock,
			Validator:   a.validator,
			RateLimiter: a.limiter,
		}); err != nil {
			slog.Error("failed to init module facilitator", "error", err)
			os.Exit(1)
		}
	}

	if a.config.GetBool("modules.notification.enabled") {
		if err := notification.New(notification.Dependency{
			Ctx:         a.ctx,
			DBConn:      a.dbConn,
			Messaging:   a.messaging,
			Config:      a.config,
			Instrument:  a.ins,
			UID:         a.uid,
			UUID:        a.uuid,
			Clock:       a.clock,
			Goroutine:   a.goroutine,
			Validator:   a.validator,
			Mail:        a.mail,
			Idempotency: a.idemp,
		}); err != nil {
			slog.Error("failed to init module notification", "error", err)
			os.Exit(1)
		}
	}
}
