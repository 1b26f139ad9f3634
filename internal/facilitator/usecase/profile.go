package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/ahoum/internal/facilitator/entity"
	"github.com/shandysiswandi/ahoum/internal/pkg/goerror"
	"github.com/shandysiswandi/ahoum/internal/pkg/session"
)

func (s *Usecase) authenticated(ctx context.Context) (int64, error) {
	id, ok := session.GetFacilitatorID(ctx)
	if !ok {
		return 0, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}
	return id, nil
}

func (s *Usecase) Profile(ctx context.Context) (*entity.Facilitator, error) {
	ctx, span := s.startSpan(ctx, "Profile")
	defer span.End()

	id, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	f, err := s.repoDB.GetFacilitatorByID(ctx, id)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "facilitator of session not found", "facilitator_id", id)
		return nil, goerror.NewBusiness("Facilitator not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get facilitator by id", "facilitator_id", id, "error", err)
		return nil, goerror.NewServer(err)
	}

	return f, nil
}

type ProfileUpdateSectionInput struct {
	Section string
	Value   json.RawMessage
}

// ProfileUpdateSection replaces one profile document of the logged in facilitator.
func (s *Usecase) ProfileUpdateSection(ctx context.Context, in ProfileUpdateSectionInput) (*entity.Facilitator, error) {
	ctx, span := s.startSpan(ctx, "ProfileUpdateSection")
	defer span.End()

	id, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	sec, ok := entity.ParseSection(in.Section)
	if !ok {
		return nil, goerror.NewInvalidInput(nil, "section", "unknown profile section")
	}

	value, ok, err := sectionValue(sec, in.Value)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, goerror.NewInvalidInput(nil, sec.String(), sec.String()+" is required")
	}

	f, err := s.repoDB.UpdateSection(ctx, id, sec, value)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "facilitator of session not found", "facilitator_id", id)
		return nil, goerror.NewBusiness("Facilitator not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo update profile section", "facilitator_id", id, "section", sec.String(), "error", err)
		return nil, goerror.NewServer(err)
	}

	return f, nil
}
