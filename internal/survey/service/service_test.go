package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"surveydir/internal/survey/model"
	"surveydir/internal/survey/repository"
	"surveydir/internal/survey/workflow"
)

// fakeSurveyRepo is an in-memory SurveyRepository. It evaluates the access
// filter shapes the policy package produces so list tests exercise the real
// filters instead of stubbing them out.
type fakeSurveyRepo struct {
	surveys map[string]*model.Survey
	// beforeStatusUpdate simulates a concurrent writer racing the
	// compare-and-swap.
	beforeStatusUpdate func()
}

func newFakeSurveyRepo() *fakeSurveyRepo {
	return &fakeSurveyRepo{surveys: map[string]*model.Survey{}}
}

func (r *fakeSurveyRepo) CreateSurvey(_ context.Context, s *model.Survey) error {
	for _, existing := range r.surveys {
		if existing.ServiceID == s.ServiceID && existing.SurveyDate == s.SurveyDate {
			return repository.ErrDuplicate
		}
	}
	copied := *s
	r.surveys[s.ID] = &copied
	return nil
}

func (r *fakeSurveyRepo) GetSurvey(_ context.Context, id string) (*model.Survey, error) {
	s, ok := r.surveys[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *s
	return &copied, nil
}

func (r *fakeSurveyRepo) FindSurveys(_ context.Context, access bson.M, filter model.SurveyFilter) ([]*model.Survey, error) {
	var out []*model.Survey
	for _, s := range r.surveys {
		if !matchAccess(access, s) {
			continue
		}
		if filter.ServiceID != "" && s.ServiceID != filter.ServiceID {
			continue
		}
		if filter.SurveyorID != "" && s.SurveyorID != filter.SurveyorID {
			continue
		}
		if filter.Status != "" && s.VerificationStatus != filter.Status {
			continue
		}
		copied := *s
		out = append(out, &copied)
	}
	return out, nil
}

func (r *fakeSurveyRepo) UpdateSurveyFields(_ context.Context, id string, set map[string]interface{}) (*model.Survey, error) {
	s, ok := r.surveys[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	applySet(s, set)
	copied := *s
	return &copied, nil
}

func (r *fakeSurveyRepo) UpdateSurveyStatus(_ context.Context, id string, from model.Status, set map[string]interface{}) error {
	if r.beforeStatusUpdate != nil {
		r.beforeStatusUpdate()
	}
	s, ok := r.surveys[id]
	if !ok {
		return repository.ErrNotFound
	}
	if s.VerificationStatus != from {
		return repository.ErrStaleStatus
	}
	applySet(s, set)
	return nil
}

func (r *fakeSurveyRepo) DeleteSurvey(_ context.Context, id string) error {
	if _, ok := r.surveys[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.surveys, id)
	return nil
}

func (r *fakeSurveyRepo) EnsureIndexes(context.Context) error { return nil }

// matchAccess evaluates the filter shapes Authorizer.FilterFor produces:
// empty (unrestricted), single field equality, $or of equalities, and the
// match-nothing sentinel.
func matchAccess(access bson.M, s *model.Survey) bool {
	if len(access) == 0 {
		return true
	}
	if or, ok := access["$or"].([]bson.M); ok {
		for _, clause := range or {
			if matchAccess(clause, s) {
				return true
			}
		}
		return false
	}
	for key, want := range access {
		var got string
		switch key {
		case "_id":
			return false // the match-nothing sentinel
		case "surveyor_id":
			got = s.SurveyorID
		case "assigned_verifier_id":
			got = s.AssignedVerifierID
		case "verified_by_id":
			got = s.VerifiedByID
		case "verification_status":
			got = string(s.VerificationStatus)
		default:
			return false
		}
		if got != want.(string) {
			return false
		}
	}
	return true
}

func applySet(s *model.Survey, set map[string]interface{}) {
	for key, val := range set {
		switch key {
		case "verification_status":
			s.VerificationStatus = model.Status(val.(string))
		case "service_id":
			s.ServiceID = val.(string)
		case "survey_date":
			s.SurveyDate = val.(string)
		case "surveyor_notes":
			s.SurveyorNotes = val.(string)
		case "assigned_verifier_id":
			s.AssignedVerifierID = val.(string)
		case "verified_by_id":
			s.VerifiedByID = val.(string)
		case "verifier_notes":
			s.VerifierNotes = val.(string)
		case "rejection_reason":
			s.RejectionReason = val.(string)
		case "submitted_at":
			s.SubmittedAt = asTimePtr(val)
		case "verified_at":
			s.VerifiedAt = asTimePtr(val)
		case "updated_at":
			s.UpdatedAt = val.(time.Time)
		}
	}
}

// asTimePtr accepts the two shapes transition writes carry for time fields:
// concrete times going forward and possibly-nil pointers on revert.
func asTimePtr(val interface{}) *time.Time {
	switch ts := val.(type) {
	case time.Time:
		return &ts
	case *time.Time:
		return ts
	}
	return nil
}

type fakeAuditRepo struct {
	entries   []*model.AuditEntry
	appendErr error
}

func (r *fakeAuditRepo) AppendEntry(_ context.Context, entry *model.AuditEntry) error {
	if r.appendErr != nil {
		return r.appendErr
	}
	copied := *entry
	r.entries = append(r.entries, &copied)
	return nil
}

func (r *fakeAuditRepo) FindBySurvey(_ context.Context, surveyID string, _ int64) ([]*model.AuditEntry, error) {
	var out []*model.AuditEntry
	for _, e := range r.entries {
		if e.SurveyID == surveyID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeAuditRepo) EnsureAuditIndexes(context.Context) error { return nil }

var (
	admin    = &model.Actor{ID: "admin_1", Role: model.RoleAdmin}
	surveyor = &model.Actor{ID: "surveyor_1", Role: model.RoleSurveyor}
	verifier = &model.Actor{ID: "verifier_1", Role: model.RoleVerifier}
	viewer   = &model.Actor{ID: "viewer_1", Role: model.RoleViewer}
)

func newTestService(opts Options) (*Service, *fakeSurveyRepo, *fakeAuditRepo) {
	repo := newFakeSurveyRepo()
	audit := &fakeAuditRepo{}
	return NewService(repo, audit, opts), repo, audit
}

func defaultOpts() Options {
	return Options{AdminSeesAll: true, AllowSuperuserBypass: true, AuditPrivileged: true}
}

func createDraft(t *testing.T, svc *Service, serviceID string) *model.Survey {
	t.Helper()
	s, err := svc.CreateSurvey(context.Background(), surveyor, model.CreateSurveyReq{
		ServiceID:  serviceID,
		SurveyDate: "2026-03-14",
	})
	require.NoError(t, err)
	return s
}

func TestCreateSurvey(t *testing.T) {
	ctx := context.Background()

	t.Run("surveyor creates a draft", func(t *testing.T) {
		svc, _, _ := newTestService(defaultOpts())
		s := createDraft(t, svc, "svc1")

		assert.NotEmpty(t, s.ID)
		assert.Equal(t, model.StatusDraft, s.VerificationStatus)
		assert.Equal(t, "surveyor_1", s.SurveyorID)
	})

	t.Run("viewer may not create", func(t *testing.T) {
		svc, _, _ := newTestService(defaultOpts())
		_, err := svc.CreateSurvey(ctx, viewer, model.CreateSurveyReq{ServiceID: "svc1", SurveyDate: "2026-03-14"})
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("duplicate service and date is a conflict", func(t *testing.T) {
		svc, _, _ := newTestService(defaultOpts())
		createDraft(t, svc, "svc1")
		_, err := svc.CreateSurvey(ctx, surveyor, model.CreateSurveyReq{ServiceID: "svc1", SurveyDate: "2026-03-14"})
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("nil actor is unauthorized", func(t *testing.T) {
		svc, _, _ := newTestService(defaultOpts())
		_, err := svc.CreateSurvey(ctx, nil, model.CreateSurveyReq{ServiceID: "svc1", SurveyDate: "2026-03-14"})
		assert.ErrorIs(t, err, ErrUnauthorized)
	})
}

func TestVerificationWorkflow(t *testing.T) {
	ctx := context.Background()
	svc, _, audit := newTestService(defaultOpts())
	s := createDraft(t, svc, "svc1")

	t.Run("unassigned verifier cannot verify after submit", func(t *testing.T) {
		_, err := svc.SubmitSurvey(ctx, surveyor, s.ID, model.SubmitSurveyReq{})
		require.NoError(t, err)

		_, err = svc.VerifySurvey(ctx, verifier, s.ID, model.VerifySurveyReq{Action: "verify"})
		var guard *workflow.GuardError
		assert.ErrorAs(t, err, &guard)
	})

	t.Run("assigned verifier verifies", func(t *testing.T) {
		_, err := svc.AssignVerifier(ctx, admin, s.ID, model.AssignVerifierReq{VerifierID: verifier.ID})
		require.NoError(t, err)

		got, err := svc.VerifySurvey(ctx, verifier, s.ID, model.VerifySurveyReq{Action: "verify", Notes: "checked on site"})
		require.NoError(t, err)
		assert.Equal(t, model.StatusVerified, got.VerificationStatus)
		assert.Equal(t, verifier.ID, got.VerifiedByID)
	})

	t.Run("audit trail has one entry per realized transition", func(t *testing.T) {
		entries, err := svc.AuditFor(ctx, admin, s.ID)
		require.NoError(t, err)
		require.Len(t, entries, 2, "submit and verify; assignment is not a transition")

		actions := []string{entries[0].Action, entries[1].Action}
		assert.Contains(t, actions, model.AuditActionSubmitted)
		assert.Contains(t, actions, model.AuditActionVerified)
		assert.Len(t, audit.entries, 2)
	})
}

func TestRejectAndResubmit(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(defaultOpts())
	s := createDraft(t, svc, "svc1")

	_, err := svc.SubmitSurvey(ctx, surveyor, s.ID, model.SubmitSurveyReq{AssignedVerifierID: verifier.ID})
	require.NoError(t, err)

	t.Run("reject requires a reason", func(t *testing.T) {
		_, err := svc.VerifySurvey(ctx, verifier, s.ID, model.VerifySurveyReq{Action: "reject"})
		assert.Error(t, err)
	})

	t.Run("reject then resubmit", func(t *testing.T) {
		got, err := svc.VerifySurvey(ctx, verifier, s.ID, model.VerifySurveyReq{
			Action:          "reject",
			RejectionReason: "photos missing",
		})
		require.NoError(t, err)
		assert.Equal(t, model.StatusRejected, got.VerificationStatus)
		assert.Equal(t, "photos missing", got.RejectionReason)

		got, err = svc.ResubmitSurvey(ctx, surveyor, s.ID)
		require.NoError(t, err)
		assert.Equal(t, model.StatusSubmitted, got.VerificationStatus)
		assert.Empty(t, got.RejectionReason)
	})

	t.Run("trail covers submit reject resubmit", func(t *testing.T) {
		entries, err := svc.AuditFor(ctx, surveyor, s.ID)
		require.NoError(t, err)
		assert.Len(t, entries, 3)
	})
}

func TestConcurrentTransition(t *testing.T) {
	ctx := context.Background()
	svc, repo, audit := newTestService(defaultOpts())
	s := createDraft(t, svc, "svc1")

	t.Run("stale read before the write is a transition error", func(t *testing.T) {
		repo.surveys[s.ID].VerificationStatus = model.StatusVerified
		_, err := svc.SubmitSurvey(ctx, surveyor, s.ID, model.SubmitSurveyReq{})
		var te *workflow.TransitionError
		assert.ErrorAs(t, err, &te)
		repo.surveys[s.ID].VerificationStatus = model.StatusDraft
	})

	t.Run("lost compare-and-swap is a conflict and leaves no audit entry", func(t *testing.T) {
		// Another writer submits the survey between this caller's read and
		// write. The status write loses and nothing is audited.
		repo.beforeStatusUpdate = func() {
			repo.beforeStatusUpdate = nil
			repo.surveys[s.ID].VerificationStatus = model.StatusSubmitted
		}

		_, err := svc.SubmitSurvey(ctx, surveyor, s.ID, model.SubmitSurveyReq{})
		assert.ErrorIs(t, err, ErrConflict)
		assert.Empty(t, audit.entries)
	})
}

func TestAuditWriteFailureRevertsTransition(t *testing.T) {
	ctx := context.Background()
	svc, repo, audit := newTestService(defaultOpts())
	s := createDraft(t, svc, "svc1")

	t.Run("failed audit append undoes the status write", func(t *testing.T) {
		audit.appendErr = errors.New("audit sink unavailable")

		_, err := svc.SubmitSurvey(ctx, surveyor, s.ID, model.SubmitSurveyReq{AssignedVerifierID: verifier.ID})
		require.Error(t, err)

		stored := repo.surveys[s.ID]
		assert.Equal(t, model.StatusDraft, stored.VerificationStatus)
		assert.Nil(t, stored.SubmittedAt)
		assert.Empty(t, stored.AssignedVerifierID)
		assert.Empty(t, audit.entries)
	})

	t.Run("transition succeeds once the sink recovers", func(t *testing.T) {
		audit.appendErr = nil

		got, err := svc.SubmitSurvey(ctx, surveyor, s.ID, model.SubmitSurveyReq{})
		require.NoError(t, err)
		assert.Equal(t, model.StatusSubmitted, got.VerificationStatus)
		assert.Len(t, audit.entries, 1)
	})
}

func TestListSurveys(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestService(defaultOpts())

	seed := []*model.Survey{
		{ID: "s1", ServiceID: "svc1", SurveyorID: "surveyor_1", VerificationStatus: model.StatusDraft},
		{ID: "s2", ServiceID: "svc2", SurveyorID: "surveyor_1", AssignedVerifierID: "verifier_1", VerificationStatus: model.StatusSubmitted},
		{ID: "s3", ServiceID: "svc3", SurveyorID: "surveyor_2", AssignedVerifierID: "verifier_1", VerificationStatus: model.StatusVerified},
		{ID: "s4", ServiceID: "svc4", SurveyorID: "surveyor_2", VerificationStatus: model.StatusRejected},
	}
	for _, s := range seed {
		repo.surveys[s.ID] = s
	}

	cases := []struct {
		name  string
		actor *model.Actor
		want  int
	}{
		{"admin sees everything", admin, 4},
		{"surveyor sees own", surveyor, 2},
		{"verifier sees assigned or submitted", verifier, 2},
		{"viewer sees verified only", viewer, 1},
		{"unknown role sees nothing", &model.Actor{ID: "x1", Role: model.Role("AUDITOR")}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := svc.ListSurveys(ctx, tc.actor, model.ListSurveysReq{})
			require.NoError(t, err)
			assert.Len(t, got, tc.want)
		})
	}

	t.Run("status filter narrows within the access scope", func(t *testing.T) {
		got, err := svc.ListSurveys(ctx, surveyor, model.ListSurveysReq{Status: "DRAFT"})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "s1", got[0].ID)
	})
}

func TestGetSurveyAccess(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(defaultOpts())
	s := createDraft(t, svc, "svc1")

	t.Run("owner reads own draft", func(t *testing.T) {
		got, err := svc.GetSurvey(ctx, surveyor, s.ID)
		require.NoError(t, err)
		assert.Equal(t, s.ID, got.ID)
	})

	t.Run("viewer is denied a draft by direct id", func(t *testing.T) {
		_, err := svc.GetSurvey(ctx, viewer, s.ID)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("missing survey is not found", func(t *testing.T) {
		_, err := svc.GetSurvey(ctx, admin, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestUpdateSurvey(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(defaultOpts())
	s := createDraft(t, svc, "svc1")

	t.Run("owner edits a draft", func(t *testing.T) {
		got, err := svc.UpdateSurvey(ctx, surveyor, s.ID, model.UpdateSurveyReq{SurveyorNotes: "pole relocated"})
		require.NoError(t, err)
		assert.Equal(t, "pole relocated", got.SurveyorNotes)
	})

	t.Run("edits are blocked once submitted", func(t *testing.T) {
		_, err := svc.SubmitSurvey(ctx, surveyor, s.ID, model.SubmitSurveyReq{})
		require.NoError(t, err)

		_, err = svc.UpdateSurvey(ctx, surveyor, s.ID, model.UpdateSurveyReq{SurveyorNotes: "late edit"})
		var ve *workflow.ValidationError
		assert.ErrorAs(t, err, &ve)
	})
}

func TestDeleteSurvey(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(defaultOpts())
	s := createDraft(t, svc, "svc1")

	t.Run("surveyor may not delete", func(t *testing.T) {
		err := svc.DeleteSurvey(ctx, surveyor, s.ID)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("admin deletes", func(t *testing.T) {
		require.NoError(t, svc.DeleteSurvey(ctx, admin, s.ID))
		_, err := svc.GetSurvey(ctx, admin, s.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestAssignVerifier(t *testing.T) {
	ctx := context.Background()
	svc, _, audit := newTestService(defaultOpts())
	s := createDraft(t, svc, "svc1")

	t.Run("assignment needs a submitted survey", func(t *testing.T) {
		_, err := svc.AssignVerifier(ctx, admin, s.ID, model.AssignVerifierReq{VerifierID: verifier.ID})
		var ve *workflow.ValidationError
		assert.ErrorAs(t, err, &ve)
	})

	t.Run("admin assigns without adding an audit entry", func(t *testing.T) {
		_, err := svc.SubmitSurvey(ctx, surveyor, s.ID, model.SubmitSurveyReq{})
		require.NoError(t, err)
		before := len(audit.entries)

		got, err := svc.AssignVerifier(ctx, admin, s.ID, model.AssignVerifierReq{VerifierID: verifier.ID})
		require.NoError(t, err)
		assert.Equal(t, verifier.ID, got.AssignedVerifierID)
		assert.Len(t, audit.entries, before)
	})

	t.Run("non-admin may not assign", func(t *testing.T) {
		_, err := svc.AssignVerifier(ctx, verifier, s.ID, model.AssignVerifierReq{VerifierID: verifier.ID})
		assert.ErrorIs(t, err, ErrForbidden)
	})
}

func TestAuditForAccess(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(defaultOpts())
	s := createDraft(t, svc, "svc1")
	_, err := svc.SubmitSurvey(ctx, surveyor, s.ID, model.SubmitSurveyReq{AssignedVerifierID: verifier.ID})
	require.NoError(t, err)

	t.Run("assigned verifier reads the trail", func(t *testing.T) {
		entries, err := svc.AuditFor(ctx, verifier, s.ID)
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})

	t.Run("other verifiers and viewers are denied", func(t *testing.T) {
		_, err := svc.AuditFor(ctx, &model.Actor{ID: "verifier_2", Role: model.RoleVerifier}, s.ID)
		assert.ErrorIs(t, err, ErrForbidden)

		_, err = svc.AuditFor(ctx, viewer, s.ID)
		assert.ErrorIs(t, err, ErrForbidden)
	})
}

func TestAuditPrivilegedFlag(t *testing.T) {
	ctx := context.Background()

	t.Run("bypass transitions are audited by default", func(t *testing.T) {
		svc, _, audit := newTestService(defaultOpts())
		s := createDraft(t, svc, "svc1")
		_, err := svc.SubmitSurvey(ctx, admin, s.ID, model.SubmitSurveyReq{})
		require.NoError(t, err)
		assert.Len(t, audit.entries, 1)
	})

	t.Run("disabled flag skips audit only for bypass actors", func(t *testing.T) {
		opts := defaultOpts()
		opts.AuditPrivileged = false
		svc, _, audit := newTestService(opts)

		s := createDraft(t, svc, "svc1")
		_, err := svc.SubmitSurvey(ctx, admin, s.ID, model.SubmitSurveyReq{AssignedVerifierID: verifier.ID})
		require.NoError(t, err)
		assert.Empty(t, audit.entries)

		_, err = svc.VerifySurvey(ctx, verifier, s.ID, model.VerifySurveyReq{Action: "verify"})
		require.NoError(t, err)
		assert.Len(t, audit.entries, 1, "regular actors are always audited")
	})
}

func TestSuperuserBypass(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(defaultOpts())
	s := createDraft(t, svc, "svc1")

	super := &model.Actor{ID: "root_1", Role: model.RoleViewer, Superuser: true}
	got, err := svc.SubmitSurvey(ctx, super, s.ID, model.SubmitSurveyReq{})
	require.NoError(t, err)
	assert.Equal(t, model.StatusSubmitted, got.VerificationStatus)

	t.Run("bypass off demotes the superuser to their role", func(t *testing.T) {
		opts := defaultOpts()
		opts.AllowSuperuserBypass = false
		svc2, _, _ := newTestService(opts)
		s2 := createDraft(t, svc2, "svc2")

		_, err := svc2.SubmitSurvey(ctx, super, s2.ID, model.SubmitSurveyReq{})
		assert.ErrorIs(t, err, ErrForbidden)
	})
}
