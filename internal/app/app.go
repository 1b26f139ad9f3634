package app

import (
	"context"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/ahoum/internal/pkg/clock"
	"github.com/shandysiswandi/ahoum/internal/pkg/config"
	"github.com/shandysiswandi/ahoum/internal/pkg/goroutine"
	"github.com/shandysiswandi/ahoum/internal/pkg/hash"
	"github.com/shandysiswandi/ahoum/internal/pkg/idempotency"
	"github.com/shandysiswandi/ahoum/internal/pkg/instrument"
	"github.com/shandysiswandi/ahoum/internal/pkg/jwt"
	"github.com/shandysiswandi/ahoum/internal/pkg/mail"
	"github.com/shandysiswandi/ahoum/internal/pkg/messaging"
	"github.com/shandysiswandi/ahoum/internal/pkg/router"
	"github.com/shandysiswandi/ahoum/internal/pkg/session"
	"github.com/shandysiswandi/ahoum/internal/pkg/sms"
	"github.com/shandysiswandi/ahoum/internal/pkg/storage"
	"github.com/shandysiswandi/ahoum/internal/pkg/uid"
	"github.com/shandysiswandi/ahoum/internal/pkg/validator"
)

// App wires dependencies and manages service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	goroutine *goroutine.Manager
	validator validator.Validator
	clock     clock.Clocker
	hmac      hash.Hash
	uid       uid.NumberID
	uuid      uid.StringID
	jwt       jwt.JWT

	// resources
	dbConn    *pgxpool.Pool
	cacheConn *redis.Client
	idemp     idempotency.Idempotency
	sessions  *session.Manager
	mail      mail.Mail
	messaging messaging.Messaging
	storage   storage.Storage
	sms       sms.Sender

	// server
	router     *router.Router
	limiter    *router.RateLimiter
	httpServer *http.Server

	//
	closers []struct {
		name string
		fn   func(context.Context) error
	}
}

// New initializes the application with default wiring and returns an App instance.
func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
	}

	app.initConfig()
	app.initInstrument()
	app.initLibraries()
	app.initJWT()
	app.initDatabase()
	app.initCache()
	app.initSession()
	app.initMail()
	app.initStorage()
	app.initMessaging()
	app.initSMS()
	app.initHTTPServer()
	app.initModules()
	app.initClosers()

	return app
}
