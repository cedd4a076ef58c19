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

func (s *Service) SubmitSurvey(ctx context.Context, actor *model.Actor, id string, req model.SubmitSurveyReq) (*model.Survey, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.transition(ctx, actor, id, func(survey *model.Survey) (*workflow.Outcome, error) {
		return s.Machine.Submit(actor, survey, &req)
	})
}

// VerifySurvey dispatches the verifier's decision: verify or reject.
func (s *Service) VerifySurvey(ctx context.Context, actor *model.Actor, id string, req model.VerifySurveyReq) (*model.Survey, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.transition(ctx, actor, id, func(survey *model.Survey) (*workflow.Outcome, error) {
		if req.Action == model.VerifyActionReject {
			return s.Machine.Reject(actor, survey, req.RejectionReason, req.Notes)
		}
		return s.Machine.Verify(actor, survey, req.Notes)
	})
}

func (s *Service) ResubmitSurvey(ctx context.Context, actor *model.Actor, id string) (*model.Survey, error) {
	return s.transition(ctx, actor, id, func(survey *model.Survey) (*workflow.Outcome, error) {
		return s.Machine.Resubmit(actor, survey)
	})
}

// AssignVerifier sets the verifier on a submitted survey. Admin-only; the
// compare-and-swap keeps the assignment from landing on a survey that left
// SUBMITTED concurrently. Not a status transition, so no audit entry.
func (s *Service) AssignVerifier(ctx context.Context, actor *model.Actor, id string, req model.AssignVerifierReq) (*model.Survey, error) {
	if err := s.requireActor(actor); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if !s.Engine.Bypassed(actor) {
		return nil, &PermissionError{Required: "an admin"}
	}

	survey, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	if survey.VerificationStatus != model.StatusSubmitted {
		return nil, &workflow.ValidationError{Field: "verification_status", Reason: "a verifier can only be assigned while the survey is submitted"}
	}

	now := s.now()
	set := map[string]interface{}{
		"assigned_verifier_id": req.VerifierID,
		"updated_at":           now,
	}
	err = s.Repo.UpdateSurveyStatus(ctx, id, model.StatusSubmitted, set)
	if err != nil {
		return nil, s.mapStoreErr(err)
	}

	survey.AssignedVerifierID = req.VerifierID
	survey.UpdatedAt = now
	slog.Info("verifier assigned", "survey_id", id, "verifier_id", req.VerifierID, "actor_id", actor.ID)
	return survey, nil
}

// transition runs the shared workflow path: access check, machine guard,
// compare-and-swap write, audit append. The status write and the audit entry
// are one logical unit: a failed status write aborts before any audit row
// exists, and a failed audit append reverts the status write.
func (s *Service) transition(ctx context.Context, actor *model.Actor, id string, stage func(*model.Survey) (*workflow.Outcome, error)) (*model.Survey, error) {
	if err := s.requireActor(actor); err != nil {
		return nil, err
	}
	survey, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}

	// Object-level access and the workflow guard are independent checks;
	// both must pass.
	ok, err := s.Surveys.CanAccess(actor, survey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &PermissionError{Required: "a role with access to this survey"}
	}

	outcome, err := stage(survey)
	if err != nil {
		return nil, err
	}

	if err := s.Repo.UpdateSurveyStatus(ctx, id, outcome.From, outcome.Changes); err != nil {
		return nil, s.mapStoreErr(err)
	}

	if s.auditPrivileged || !s.Engine.Bypassed(actor) {
		entry := &model.AuditEntry{
			ID:             uuid.NewString(),
			SurveyID:       id,
			Action:         outcome.AuditAction,
			PreviousStatus: outcome.From,
			NewStatus:      outcome.To,
			ActorID:        actor.ID,
			Notes:          outcome.Notes,
			Timestamp:      s.now(),
		}
		if err := s.Audit.AppendEntry(ctx, entry); err != nil {
			// Undo the status write so the trail never undercounts realized
			// transitions. A lost revert means another writer already moved
			// the survey on; that needs operator follow-up.
			if rerr := s.Repo.UpdateSurveyStatus(ctx, id, outcome.To, outcome.Revert()); rerr != nil {
				slog.Error("transition revert failed after audit append error",
					"survey_id", id,
					"action", string(outcome.Action),
					"error", rerr,
				)
			}
			return nil, err
		}
	}

	slog.Info("survey transition",
		"survey_id", id,
		"action", string(outcome.Action),
		"from", string(outcome.From),
		"to", string(outcome.To),
		"actor_id", actor.ID,
	)
	return outcome.Updated, nil
}

func (s *Service) mapStoreErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrStaleStatus):
		return ErrConflict
	default:
		return err
	}
}
