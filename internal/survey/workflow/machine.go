package workflow

import (
	"time"

	"surveydir/internal/survey/model"
)

// Action is a workflow transition name.
type Action string

const (
	ActionSubmit   Action = "submit"
	ActionVerify   Action = "verify"
	ActionReject   Action = "reject"
	ActionResubmit Action = "resubmit"
)

// edge is one allowed transition with its audit action.
type edge struct {
	from  model.Status
	to    model.Status
	audit string
}

var edges = map[Action]edge{
	ActionSubmit:   {from: model.StatusDraft, to: model.StatusSubmitted, audit: model.AuditActionSubmitted},
	ActionVerify:   {from: model.StatusSubmitted, to: model.StatusVerified, audit: model.AuditActionVerified},
	ActionReject:   {from: model.StatusSubmitted, to: model.StatusRejected, audit: model.AuditActionRejected},
	ActionResubmit: {from: model.StatusRejected, to: model.StatusSubmitted, audit: model.AuditActionResubmitted},
}

// Outcome describes one realized transition. Changes holds the field writes
// keyed by storage field name; Updated is a copy of the survey with those
// writes applied. Nothing is persisted here.
type Outcome struct {
	Action      Action
	From        model.Status
	To          model.Status
	AuditAction string
	Notes       string
	Changes     map[string]interface{}
	Updated     *model.Survey

	prior *model.Survey
}

// Machine validates and stages survey verification transitions. It performs
// no I/O: callers persist the outcome and append the audit entry as one unit
// of work.
type Machine struct {
	now        func() time.Time
	privileged func(*model.Actor) bool
}

// NewMachine builds a state machine. now defaults to time.Now; privileged
// reports actors that skip relationship guards (admin bypass per deployment
// config).
func NewMachine(now func() time.Time, privileged func(*model.Actor) bool) *Machine {
	if now == nil {
		now = time.Now
	}
	if privileged == nil {
		privileged = func(*model.Actor) bool { return false }
	}
	return &Machine{now: now, privileged: privileged}
}

// Submit stages DRAFT → SUBMITTED. Guard: the survey's surveyor or a
// privileged actor. The payload may assign a verifier in the same step.
func (m *Machine) Submit(actor *model.Actor, s *model.Survey, req *model.SubmitSurveyReq) (*Outcome, error) {
	if err := m.check(ActionSubmit, actor, s); err != nil {
		return nil, err
	}
	if actor.ID != s.SurveyorID && !m.privileged(actor) {
		return nil, &GuardError{Action: ActionSubmit, Required: "the survey's surveyor or an admin"}
	}

	now := m.now()
	out := m.stage(ActionSubmit, s, "Survey submitted for verification")
	out.apply("verification_status", string(out.To))
	out.Updated.VerificationStatus = out.To
	out.apply("submitted_at", now)
	out.Updated.SubmittedAt = &now
	if req != nil && req.AssignedVerifierID != "" {
		out.apply("assigned_verifier_id", req.AssignedVerifierID)
		out.Updated.AssignedVerifierID = req.AssignedVerifierID
	}
	out.touch(now)
	return out, nil
}

// Verify stages SUBMITTED → VERIFIED. Guard: the assigned verifier or a
// privileged actor.
func (m *Machine) Verify(actor *model.Actor, s *model.Survey, notes string) (*Outcome, error) {
	if err := m.check(ActionVerify, actor, s); err != nil {
		return nil, err
	}
	if err := m.verifierGuard(ActionVerify, actor, s); err != nil {
		return nil, err
	}

	now := m.now()
	out := m.stage(ActionVerify, s, notes)
	out.apply("verification_status", string(out.To))
	out.Updated.VerificationStatus = out.To
	out.apply("verified_by_id", actor.ID)
	out.Updated.VerifiedByID = actor.ID
	out.apply("verified_at", now)
	out.Updated.VerifiedAt = &now
	out.apply("verifier_notes", notes)
	out.Updated.VerifierNotes = notes
	out.touch(now)
	return out, nil
}

// Reject stages SUBMITTED → REJECTED. Guard: the assigned verifier or a
// privileged actor; the reason is mandatory. verified_by stays unset.
func (m *Machine) Reject(actor *model.Actor, s *model.Survey, reason, notes string) (*Outcome, error) {
	if err := m.check(ActionReject, actor, s); err != nil {
		return nil, err
	}
	if err := m.verifierGuard(ActionReject, actor, s); err != nil {
		return nil, err
	}
	if reason == "" {
		return nil, &ValidationError{Field: "rejection_reason", Reason: "is required when rejecting"}
	}

	now := m.now()
	out := m.stage(ActionReject, s, notes)
	out.apply("verification_status", string(out.To))
	out.Updated.VerificationStatus = out.To
	out.apply("rejection_reason", reason)
	out.Updated.RejectionReason = reason
	out.apply("verifier_notes", notes)
	out.Updated.VerifierNotes = notes
	out.touch(now)
	return out, nil
}

// Resubmit stages REJECTED → SUBMITTED so a rejected survey can re-enter
// verification. Guard: the survey's surveyor or a privileged actor. The
// previous rejection reason is cleared; the assigned verifier is kept.
func (m *Machine) Resubmit(actor *model.Actor, s *model.Survey) (*Outcome, error) {
	if err := m.check(ActionResubmit, actor, s); err != nil {
		return nil, err
	}
	if actor.ID != s.SurveyorID && !m.privileged(actor) {
		return nil, &GuardError{Action: ActionResubmit, Required: "the survey's surveyor or an admin"}
	}

	now := m.now()
	out := m.stage(ActionResubmit, s, "Survey resubmitted after rejection")
	out.apply("verification_status", string(out.To))
	out.Updated.VerificationStatus = out.To
	out.apply("submitted_at", now)
	out.Updated.SubmittedAt = &now
	out.apply("rejection_reason", "")
	out.Updated.RejectionReason = ""
	out.touch(now)
	return out, nil
}

// check validates the edge exists for the survey's current state. State is
// checked before the actor guard so a stale caller learns the real problem.
func (m *Machine) check(action Action, actor *model.Actor, s *model.Survey) error {
	e := edges[action]
	if s.VerificationStatus != e.from {
		return &TransitionError{Current: s.VerificationStatus, Action: action}
	}
	if actor == nil || actor.ID == "" {
		return &GuardError{Action: action, Required: "an authenticated actor"}
	}
	return nil
}

func (m *Machine) verifierGuard(action Action, actor *model.Actor, s *model.Survey) error {
	if m.privileged(actor) {
		return nil
	}
	if s.AssignedVerifierID == "" || actor.ID != s.AssignedVerifierID {
		return &GuardError{Action: action, Required: "the assigned verifier or an admin"}
	}
	return nil
}

func (m *Machine) stage(action Action, s *model.Survey, notes string) *Outcome {
	e := edges[action]
	updated := *s
	prior := *s
	return &Outcome{
		Action:      action,
		From:        e.from,
		To:          e.to,
		AuditAction: e.audit,
		Notes:       notes,
		Changes:     map[string]interface{}{},
		Updated:     &updated,
		prior:       &prior,
	}
}

// Revert returns the writes that restore every changed field to its value at
// staging time. Callers use it to undo a landed status write when the rest of
// the transition's unit of work fails.
func (o *Outcome) Revert() map[string]interface{} {
	set := make(map[string]interface{}, len(o.Changes))
	for field := range o.Changes {
		switch field {
		case "verification_status":
			set[field] = string(o.prior.VerificationStatus)
		case "assigned_verifier_id":
			set[field] = o.prior.AssignedVerifierID
		case "verified_by_id":
			set[field] = o.prior.VerifiedByID
		case "verifier_notes":
			set[field] = o.prior.VerifierNotes
		case "rejection_reason":
			set[field] = o.prior.RejectionReason
		case "submitted_at":
			set[field] = o.prior.SubmittedAt
		case "verified_at":
			set[field] = o.prior.VerifiedAt
		case "updated_at":
			set[field] = o.prior.UpdatedAt
		}
	}
	return set
}

func (o *Outcome) apply(field string, value interface{}) {
	o.Changes[field] = value
}

func (o *Outcome) touch(now time.Time) {
	o.Changes["updated_at"] = now
	o.Updated.UpdatedAt = now
}
