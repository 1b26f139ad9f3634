package usecase

import (
	"bytes"
	"context"
	"embed"
	htmltemplate "html/template"
	texttemplate "text/template"

	"github.com/shandysiswandi/ahoum/internal/notification/entity"
	"github.com/shandysiswandi/ahoum/internal/pkg/clock"
	"github.com/shandysiswandi/ahoum/internal/pkg/config"
	"github.com/shandysiswandi/ahoum/internal/pkg/idempotency"
	"github.com/shandysiswandi/ahoum/internal/pkg/instrument"
	"github.com/shandysiswandi/ahoum/internal/pkg/mail"
	"github.com/shandysiswandi/ahoum/internal/pkg/uid"
	"github.com/shandysiswandi/ahoum/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

//go:embed template/*
var templates embed.FS

type repoDB interface {
	CreateDeliveryLog(ctx context.Context, dl entity.CreateDeliveryLog) error
	UpdateDeliveryLogStatus(ctx context.Context, u entity.UpdateDeliveryLog) error
}

type repoMail interface {
	Send(ctx context.Context, msg mail.Message) error
}

type Usecase struct {
	repoDB      repoDB
	repoMail    repoMail
	idempotency idempotency.Idempotency
	cfg         config.Config
	uid         uid.NumberID
	clock       clock.Clocker
	validator   validator.Validator
	ins         instrument.Instrumentation
	html        *htmltemplate.Template
	text        *texttemplate.Template
}

type Dependency struct {
	RepoDB      repoDB
	RepoMail    repoMail
	Idempotency idempotency.Idempotency
	Config      config.Config
	UID         uid.NumberID
	Clock       clock.Clocker
	Validator   validator.Validator
	Instrument  instrument.Instrumentation
}

func NewNotification(dep Dependency) (*Usecase, error) {
	html, err := htmltemplate.New("").Option("missingkey=zero").ParseFS(templates, "template/*.html")
	if err != nil {
		return nil, err
	}

	text, err := texttemplate.New("").Option("missingkey=zero").ParseFS(templates, "template/*.txt")
	if err != nil {
		return nil, err
	}

	return &Usecase{
		repoDB:      dep.RepoDB,
		repoMail:    dep.RepoMail,
		idempotency: dep.Idempotency,
		cfg:         dep.Config,
		uid:         dep.UID,
		clock:       dep.Clock,
		validator:   dep.Validator,
		ins:         dep.Instrument,
		html:        html,
		text:        text,
	}, nil
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("notification.usecase").Start(ctx, name)
}

// render executes the html and text variants of the named template.
func (s *Usecase) render(name string, data map[string]any) (html, text string, err error) {
	var hb, tb bytes.Buffer
	if err := s.html.ExecuteTemplate(&hb, name+".html", data); err != nil {
		return "", "", err
	}
	if err := s.text.ExecuteTemplate(&tb, name+".txt", data); err != nil {
		return "", "", err
	}

	return hb.String(), tb.String(), nil
}

func (s *Usecase) baseEmailTemplateData() map[string]any {
	return map[string]any{
		"support_email": s.cfg.GetString("modules.notification.support_email"),
		"company_name":  s.cfg.GetString("app.name"),
		"dashboard_url": s.cfg.GetString("app.web") + "/dashboard",
		"year":          s.clock.Now().Format("2006"),
	}
}
