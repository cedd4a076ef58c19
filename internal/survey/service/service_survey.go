package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"surveydir/internal/survey/model"
	"surveydir/internal/survey/repository"
	"surveydir/internal/survey/workflow"
)

func (s *Service) CreateSurvey(ctx context.Context, actor *model.Actor, req model.CreateSurveyReq) (*model.Survey, error) {
	if err := s.requireActor(actor); err != nil {
		return nil, err
	}
	if actor.Role != model.RoleSurveyor && !s.Engine.Bypassed(actor) {
		return nil, &PermissionError{Required: "the SURVEYOR role or an admin"}
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := s.now()
	survey := &model.Survey{
		ID:                 uuid.NewString(),
		ServiceID:          req.ServiceID,
		SurveyDate:         req.SurveyDate,
		SurveyorID:         actor.ID,
		SurveyorNotes:      req.SurveyorNotes,
		VerificationStatus: model.StatusDraft,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.Repo.CreateSurvey(ctx, survey); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrConflict
		}
		return nil, err
	}

	slog.Info("survey created", "survey_id", survey.ID, "service_id", survey.ServiceID, "surveyor_id", actor.ID)
	return survey, nil
}

func (s *Service) GetSurvey(ctx context.Context, actor *model.Actor, id string) (*model.Survey, error) {
	if err := s.requireActor(actor); err != nil {
		return nil, err
	}
	survey, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}

	ok, err := s.Surveys.CanAccess(actor, survey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &PermissionError{Required: "a role with access to this survey"}
	}
	return survey, nil
}

func (s *Service) ListSurveys(ctx context.Context, actor *model.Actor, req model.ListSurveysReq) ([]*model.Survey, error) {
	if err := s.requireActor(actor); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	access, err := s.Surveys.FilterFor(actor)
	if err != nil {
		return nil, err
	}
	return s.Repo.FindSurveys(ctx, access, req.ToFilter())
}

func (s *Service) UpdateSurvey(ctx context.Context, actor *model.Actor, id string, req model.UpdateSurveyReq) (*model.Survey, error) {
	if err := s.requireActor(actor); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	survey, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}

	ok, err := s.Surveys.CanAccess(actor, survey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &PermissionError{Required: "a role with access to this survey"}
	}
	if actor.ID != survey.SurveyorID && !s.Engine.Bypassed(actor) {
		return nil, &PermissionError{Required: "the survey's surveyor or an admin"}
	}
	if survey.VerificationStatus != model.StatusDraft {
		return nil, &workflow.ValidationError{Field: "verification_status", Reason: "only draft surveys can be edited"}
	}

	set := map[string]interface{}{"updated_at": s.now()}
	if req.ServiceID != "" {
		set["service_id"] = req.ServiceID
	}
	if req.SurveyDate != "" {
		set["survey_date"] = req.SurveyDate
	}
	if req.SurveyorNotes != "" {
		set["surveyor_notes"] = req.SurveyorNotes
	}

	updated, err := s.Repo.UpdateSurveyFields(ctx, id, set)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	slog.Info("survey updated", "survey_id", id, "actor_id", actor.ID)
	return updated, nil
}

func (s *Service) DeleteSurvey(ctx context.Context, actor *model.Actor, id string) error {
	if err := s.requireActor(actor); err != nil {
		return err
	}
	if !s.Engine.Bypassed(actor) {
		return &PermissionError{Required: "an admin"}
	}

	err := s.Repo.DeleteSurvey(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	slog.Info("survey deleted", "survey_id", id, "actor_id", actor.ID)
	return nil
}
