package model

import "time"

// Actor is the authenticated identity for one request. Immutable once built
// by the auth middleware.
type Actor struct {
	ID        string `json:"id"`
	Role      Role   `json:"role"`
	Superuser bool   `json:"superuser"`
}

func (a *Actor) IsAdmin() bool {
	return a != nil && a.Role == RoleAdmin
}

// Survey is one field-survey record with its verification workflow fields.
// verification_status is written only by the workflow state machine; direct
// edits are limited to draft surveys.
type Survey struct {
	ID         string `bson:"_id,omitempty" json:"id"`
	ServiceID  string `bson:"service_id" json:"service_id"`
	SurveyDate string `bson:"survey_date" json:"survey_date"`

	SurveyorID    string `bson:"surveyor_id" json:"surveyor_id"`
	SurveyorNotes string `bson:"surveyor_notes,omitempty" json:"surveyor_notes,omitempty"`

	VerificationStatus Status     `bson:"verification_status" json:"verification_status"`
	AssignedVerifierID string     `bson:"assigned_verifier_id,omitempty" json:"assigned_verifier_id,omitempty"`
	VerifiedByID       string     `bson:"verified_by_id,omitempty" json:"verified_by_id,omitempty"`
	VerifiedAt         *time.Time `bson:"verified_at,omitempty" json:"verified_at,omitempty"`
	VerifierNotes      string     `bson:"verifier_notes,omitempty" json:"verifier_notes,omitempty"`
	RejectionReason    string     `bson:"rejection_reason,omitempty" json:"rejection_reason,omitempty"`

	CreatedAt   time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `bson:"updated_at" json:"updated_at"`
	SubmittedAt *time.Time `bson:"submitted_at,omitempty" json:"submitted_at,omitempty"`
}

// SurveyFilter narrows list queries on top of the access filter.
type SurveyFilter struct {
	ServiceID  string
	SurveyorID string
	Status     Status
	Limit      int64
}

// AuditEntry is one realized workflow event. Append-only: the repository
// exposes no update or delete for it.
type AuditEntry struct {
	ID             string    `bson:"_id,omitempty" json:"id"`
	SurveyID       string    `bson:"survey_id" json:"survey_id"`
	Action         string    `bson:"action" json:"action"`
	PreviousStatus Status    `bson:"previous_status,omitempty" json:"previous_status,omitempty"`
	NewStatus      Status    `bson:"new_status,omitempty" json:"new_status,omitempty"`
	ActorID        string    `bson:"actor_id" json:"actor_id"`
	Notes          string    `bson:"notes,omitempty" json:"notes,omitempty"`
	Timestamp      time.Time `bson:"timestamp" json:"timestamp"`
}

// ErrorResponse for consistent error handling
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func (e *ErrorDetail) Error() string {
	return e.Code + ": " + e.Message
}
