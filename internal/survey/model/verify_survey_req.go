package model

import "strings"

// VerifySurveyReq carries the verifier's decision. rejection_reason is
// mandatory for rejects and ignored for verifies.
type VerifySurveyReq struct {
	Action          string `json:"action" validate:"required,oneof=verify reject"`
	Notes           string `json:"notes"`
	RejectionReason string `json:"rejection_reason" validate:"required_if=Action reject"`
}

func (r *VerifySurveyReq) Validate() error {
	r.Action = strings.ToLower(strings.TrimSpace(r.Action))
	r.RejectionReason = strings.TrimSpace(r.RejectionReason)

	if err := GetValidator().Struct(r); err != nil {
		return FormatValidationError(err)
	}
	return nil
}
