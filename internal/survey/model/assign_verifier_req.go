package model

import "strings"

type AssignVerifierReq struct {
	VerifierID string `json:"verifier_id" validate:"required"`
}

func (r *AssignVerifierReq) Validate() error {
	r.VerifierID = strings.TrimSpace(r.VerifierID)

	if err := GetValidator().Struct(r); err != nil {
		return FormatValidationError(err)
	}
	return nil
}
