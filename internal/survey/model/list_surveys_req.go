package model

import "strings"

type ListSurveysReq struct {
	ServiceID  string `query:"service_id"`
	SurveyorID string `query:"surveyor_id"`
	Status     string `query:"status"`
	Limit      int64  `query:"limit"`
}

func (r *ListSurveysReq) Validate() error {
	r.ServiceID = strings.TrimSpace(r.ServiceID)
	r.SurveyorID = strings.TrimSpace(r.SurveyorID)
	r.Status = strings.ToUpper(strings.TrimSpace(r.Status))

	if r.Status != "" && !Status(r.Status).Valid() {
		return &ErrorDetail{Code: "bad_request", Message: "invalid status: must be one of [DRAFT, SUBMITTED, VERIFIED, REJECTED]"}
	}
	if r.Limit < 0 {
		return &ErrorDetail{Code: "bad_request", Message: "limit must not be negative"}
	}
	if r.Limit == 0 || r.Limit > 500 {
		r.Limit = 100
	}
	return nil
}

func (r *ListSurveysReq) ToFilter() SurveyFilter {
	return SurveyFilter{
		ServiceID:  r.ServiceID,
		SurveyorID: r.SurveyorID,
		Status:     Status(r.Status),
		Limit:      r.Limit,
	}
}
