package model

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

func GetValidator() *validator.Validate { return validate }

// FormatValidationError flattens validator errors into the shared ErrorDetail
// shape, naming every failed field.
func FormatValidationError(err error) *ErrorDetail {
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		parts := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			parts = append(parts, fe.Field()+" failed "+fe.Tag())
		}
		return &ErrorDetail{Code: "bad_request", Message: "invalid request: " + strings.Join(parts, "; ")}
	}

	return &ErrorDetail{Code: "bad_request", Message: err.Error()}
}
