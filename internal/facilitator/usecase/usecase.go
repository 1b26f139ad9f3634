package usecase

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/shandysiswandi/ahoum/internal/facilitator/entity"
	"github.com/shandysiswandi/ahoum/internal/pkg/clock"
	"github.com/shandysiswandi/ahoum/internal/pkg/config"
	"github.com/shandysiswandi/ahoum/internal/pkg/hash"
	"github.com/shandysiswandi/ahoum/internal/pkg/instrument"
	"github.com/shandysiswandi/ahoum/internal/pkg/session"
	"github.com/shandysiswandi/ahoum/internal/pkg/sms"
	"github.com/shandysiswandi/ahoum/internal/pkg/storage"
	"github.com/shandysiswandi/ahoum/internal/pkg/uid"
	"github.com/shandysiswandi/ahoum/internal/pkg/validator"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

type FacilitatorOnboardedEvent struct {
	FacilitatorID int64
	PhoneNumber   string
	Name          string
	Email         string
	OnboardedAt   time.Time
}

type repoMessaging interface {
	PublishFacilitatorOnboarded(ctx context.Context, msg FacilitatorOnboardedEvent) error
}

type repoDB interface {
	IssueOTP(ctx context.Context, in entity.OTP) (int64, error)
	ConsumeOTP(ctx context.Context, phone string, typ entity.OTPType, codeHash string, now time.Time) (bool, error)
	PurgeExpiredOTP(ctx context.Context, now time.Time) (int64, error)

	FindFacilitatorByPhone(ctx context.Context, phone string) (*entity.Facilitator, error)
	GetFacilitatorByID(ctx context.Context, id int64) (*entity.Facilitator, error)
	CreateFacilitator(ctx context.Context, in entity.NewFacilitator) (*entity.Facilitator, error)
	UpdateSection(ctx context.Context, id int64, sec entity.Section, value json.RawMessage) (*entity.Facilitator, error)
	UpdateAvatar(ctx context.Context, id int64, avatarURL string) error
}

type sessions interface {
	StartOnboarding(ctx context.Context, phone string) error
	StartAuthenticated(ctx context.Context, facilitatorID int64, phone string) error
	Status(ctx context.Context) session.Data
	Destroy(ctx context.Context) error
}

type Usecase struct {
	repoDB        repoDB
	repoMessaging repoMessaging
	sessions      sessions
	sms           sms.Sender
	storage       storage.Storage
	validator     validator.Validator
	cfg           config.Config
	hmac          hash.Hash
	uid           uid.NumberID
	uuid          uid.StringID
	clock         clock.Clocker
	ins           instrument.Instrumentation

	otpIssued   metric.Int64Counter
	otpVerified metric.Int64Counter
	otpRejected metric.Int64Counter
}

type Dependency struct {
	RepoDB        repoDB
	RepoMessaging repoMessaging
	Sessions      sessions
	SMS           sms.Sender
	Storage       storage.Storage
	Validator     validator.Validator
	Config        config.Config
	HMAC          hash.Hash
	UID           uid.NumberID
	UUID          uid.StringID
	Clock         clock.Clocker
	Instrument    instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	s := &Usecase{
		repoDB:        dep.RepoDB,
		repoMessaging: dep.RepoMessaging,
		sessions:      dep.Sessions,
		sms:           dep.SMS,
		storage:       dep.Storage,
		validator:     dep.Validator,
		cfg:           dep.Config,
		hmac:          dep.HMAC,
		uid:           dep.UID,
		uuid:          dep.UUID,
		clock:         dep.Clock,
		ins:           dep.Instrument,
	}

	meter := s.ins.Meter("facilitator.usecase")
	s.otpIssued = newCounter(meter, "facilitator.otp.issued", "Number of OTP codes issued")
	s.otpVerified = newCounter(meter, "facilitator.otp.verified", "Number of OTP codes verified")
	s.otpRejected = newCounter(meter, "facilitator.otp.rejected", "Number of OTP verifications rejected")

	return s
}

func newCounter(meter metric.Meter, name, desc string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(desc))
	if err != nil {
		slog.Error("failed to create counter", "name", name, "error", err)
		return nil
	}
	return c
}

func count(ctx context.Context, c metric.Int64Counter) {
	if c != nil {
		c.Add(ctx, 1)
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("facilitator.usecase").Start(ctx, name)
}
