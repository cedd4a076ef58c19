package model

import "strings"

// Role is the closed set of user roles. Role checks go through this type so
// adding a role is a single compile-checked change.
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleSurveyor Role = "SURVEYOR"
	RoleVerifier Role = "VERIFIER"
	RoleViewer   Role = "VIEWER"
)

// ParseRole normalizes a role string. Unknown values come back as-is with
// ok=false; callers decide whether that is a hard error or a deny.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	switch r {
	case RoleAdmin, RoleSurveyor, RoleVerifier, RoleViewer:
		return r, true
	}
	return r, false
}

// Status is the survey verification lifecycle state.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusSubmitted Status = "SUBMITTED"
	StatusVerified  Status = "VERIFIED"
	StatusRejected  Status = "REJECTED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusSubmitted, StatusVerified, StatusRejected:
		return true
	}
	return false
}

// Audit actions
const (
	AuditActionCreated     = "CREATED"
	AuditActionUpdated     = "UPDATED"
	AuditActionSubmitted   = "SUBMITTED"
	AuditActionAssigned    = "ASSIGNED"
	AuditActionVerified    = "VERIFIED"
	AuditActionRejected    = "REJECTED"
	AuditActionResubmitted = "RESUBMITTED"
)

// Workflow actions accepted in verify payloads
const (
	VerifyActionVerify = "verify"
	VerifyActionReject = "reject"
)
