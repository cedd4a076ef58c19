package model

import "strings"

// UpdateSurveyReq edits draft-only fields. Workflow fields are deliberately
// absent: status, verifier assignment and verification metadata move only
// through the state machine.
type UpdateSurveyReq struct {
	ServiceID     string `json:"service_id"`
	SurveyDate    string `json:"survey_date" validate:"omitempty,datetime=2006-01-02"`
	SurveyorNotes string `json:"surveyor_notes"`
}

func (r *UpdateSurveyReq) Validate() error {
	r.ServiceID = strings.TrimSpace(r.ServiceID)
	r.SurveyDate = strings.TrimSpace(r.SurveyDate)

	if r.ServiceID == "" && r.SurveyDate == "" && r.SurveyorNotes == "" {
		return &ErrorDetail{Code: "bad_request", Message: "no fields to update"}
	}
	if err := GetValidator().Struct(r); err != nil {
		return FormatValidationError(err)
	}
	return nil
}
