package facilitator

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/ahoum/internal/facilitator/inbound"
	"github.com/shandysiswandi/ahoum/internal/facilitator/outbound/db"
	"github.com/shandysiswandi/ahoum/internal/facilitator/outbound/mq"
	"github.com/shandysiswandi/ahoum/internal/facilitator/usecase"
	"github.com/shandysiswandi/ahoum/internal/pkg/clock"
	"github.com/shandysiswandi/ahoum/internal/pkg/config"
	"github.com/shandysiswandi/ahoum/internal/pkg/goroutine"
	"github.com/shandysiswandi/ahoum/internal/pkg/hash"
	"github.com/shandysiswandi/ahoum/internal/pkg/instrument"
	"github.com/shandysiswandi/ahoum/internal/pkg/messaging"
	"github.com/shandysiswandi/ahoum/internal/pkg/router"
	"github.com/shandysiswandi/ahoum/internal/pkg/session"
	"github.com/shandysiswandi/ahoum/internal/pkg/sms"
	"github.com/shandysiswandi/ahoum/internal/pkg/storage"
	"github.com/shandysiswandi/ahoum/internal/pkg/uid"
	"github.com/shandysiswandi/ahoum/internal/pkg/validator"
)

type Dependency struct {
	Ctx        context.Context            `validate:"required"`
	DBConn     *pgxpool.Pool              `validate:"required"`
	Goroutine  *goroutine.Manager         `validate:"required"`
	Router     *router.Router             `validate:"required"`
	Sessions   *session.Manager           `validate:"required"`
	Messaging  messaging.Messaging        `validate:"required"`
	Storage    storage.Storage            `validate:"required"`
	SMS        sms.Sender                 `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	UID        uid.NumberID               `validate:"required"`
	UUID       uid.StringID               `validate:"required"`
	HMAC       hash.Hash                  `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Validator  validator.Validator        `validate:"required"`

	// RateLimiter throttles the OTP routes; nil disables it.
	RateLimiter *router.RateLimiter
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	repoDB := db.NewDB(dep.DBConn, dep.Instrument)
	repoMsg := mq.NewMessaging(dep.Messaging, dep.Instrument)

	uc := usecase.New(usecase.Dependency{
		RepoDB:        repoDB,
		RepoMessaging: repoMsg,
		Sessions:      dep.Sessions,
		SMS:           dep.SMS,
		Storage:       dep.Storage,
		Validator:     dep.Validator,
		Config:        dep.Config,
		HMAC:          dep.HMAC,
		UID:           dep.UID,
		UUID:          dep.UUID,
		Clock:         dep.Clock,
		Instrument:    dep.Instrument,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc, dep.RateLimiter)

	dep.Goroutine.Every(dep.Ctx, "facilitator.otp.purge",
		dep.Config.GetSecond("modules.facilitator.otp.purge_interval_seconds"),
		func(ctx context.Context) error {
			_, err := uc.PurgeExpiredOTP(ctx)
			return err
		},
	)

	return nil
}
