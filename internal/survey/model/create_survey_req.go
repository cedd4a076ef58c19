package model

import "strings"

type CreateSurveyReq struct {
	ServiceID     string `json:"service_id" validate:"required"`
	SurveyDate    string `json:"survey_date" validate:"required,datetime=2006-01-02"`
	SurveyorNotes string `json:"surveyor_notes"`
}

func (r *CreateSurveyReq) Validate() error {
	r.ServiceID = strings.TrimSpace(r.ServiceID)
	r.SurveyDate = strings.TrimSpace(r.SurveyDate)

	if err := GetValidator().Struct(r); err != nil {
		return FormatValidationError(err)
	}
	return nil
}
