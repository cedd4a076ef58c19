package model

import "strings"

type SubmitSurveyReq struct {
	AssignedVerifierID string `json:"assigned_verifier_id"`
}

func (r *SubmitSurveyReq) Validate() error {
	r.AssignedVerifierID = strings.TrimSpace(r.AssignedVerifierID)
	return nil
}
