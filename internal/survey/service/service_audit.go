package service

import (
	"context"

	"surveydir/internal/survey/model"
)

// AuditFor returns a survey's audit trail, newest first. Access is decided
// against the parent survey with the audit rule table, so a verifier sees
// only trails of surveys assigned to them.
func (s *Service) AuditFor(ctx context.Context, actor *model.Actor, surveyID string) ([]*model.AuditEntry, error) {
	if err := s.requireActor(actor); err != nil {
		return nil, err
	}
	survey, err := s.fetch(ctx, surveyID)
	if err != nil {
		return nil, err
	}

	ok, err := s.AuditAuth.CanAccess(actor, survey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &PermissionError{Required: "the assigned verifier, the surveyor, or an admin"}
	}

	return s.Audit.FindBySurvey(ctx, surveyID, 0)
}
