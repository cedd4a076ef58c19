package service

import (
	"context"
	"errors"
	"time"

	"surveydir/internal/survey/model"
	"surveydir/internal/survey/policy"
	"surveydir/internal/survey/repository"
	"surveydir/internal/survey/workflow"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict: survey was modified concurrently")
	ErrBadRequest   = errors.New("bad request")
)

// PermissionError carries the relationship that would have been required.
// errors.Is(err, ErrForbidden) holds for it.
type PermissionError struct {
	Required string
}

func (e *PermissionError) Error() string {
	return "permission denied: requires " + e.Required
}

func (e *PermissionError) Is(target error) bool {
	return target == ErrForbidden
}

type SurveyService interface {
	CreateSurvey(ctx context.Context, actor *model.Actor, req model.CreateSurveyReq) (*model.Survey, error)
	GetSurvey(ctx context.Context, actor *model.Actor, id string) (*model.Survey, error)
	ListSurveys(ctx context.Context, actor *model.Actor, req model.ListSurveysReq) ([]*model.Survey, error)
	UpdateSurvey(ctx context.Context, actor *model.Actor, id string, req model.UpdateSurveyReq) (*model.Survey, error)
	DeleteSurvey(ctx context.Context, actor *model.Actor, id string) error
	SubmitSurvey(ctx context.Context, actor *model.Actor, id string, req model.SubmitSurveyReq) (*model.Survey, error)
	VerifySurvey(ctx context.Context, actor *model.Actor, id string, req model.VerifySurveyReq) (*model.Survey, error)
	ResubmitSurvey(ctx context.Context, actor *model.Actor, id string) (*model.Survey, error)
	AssignVerifier(ctx context.Context, actor *model.Actor, id string, req model.AssignVerifierReq) (*model.Survey, error)
	AuditFor(ctx context.Context, actor *model.Actor, surveyID string) ([]*model.AuditEntry, error)
}

// Options are the deployment knobs for the decision engine and audit trail.
type Options struct {
	AdminSeesAll         bool
	AllowSuperuserBypass bool
	// AuditPrivileged controls whether transitions realized through the
	// admin/superuser bypass still append audit entries.
	AuditPrivileged bool
	Now             func() time.Time
}

type Service struct {
	Repo  repository.SurveyRepository
	Audit repository.AuditRepository

	Engine    *policy.Engine
	Surveys   *policy.Authorizer
	AuditAuth *policy.Authorizer
	Machine   *workflow.Machine

	auditPrivileged bool
	now             func() time.Time
}

func NewService(repo repository.SurveyRepository, auditRepo repository.AuditRepository, opts Options) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	engine := policy.NewEngine(opts.AdminSeesAll, opts.AllowSuperuserBypass)
	return &Service{
		Repo:            repo,
		Audit:           auditRepo,
		Engine:          engine,
		Surveys:         policy.NewAuthorizer(engine, policy.SurveyRules()),
		AuditAuth:       policy.NewAuthorizer(engine, policy.AuditRules()),
		Machine:         workflow.NewMachine(opts.Now, engine.Bypassed),
		auditPrivileged: opts.AuditPrivileged,
		now:             opts.Now,
	}
}

func (s *Service) requireActor(actor *model.Actor) error {
	if actor == nil || actor.ID == "" {
		return ErrUnauthorized
	}
	return nil
}

// fetch loads one survey, translating the repository's not-found.
func (s *Service) fetch(ctx context.Context, id string) (*model.Survey, error) {
	survey, err := s.Repo.GetSurvey(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return survey, nil
}
