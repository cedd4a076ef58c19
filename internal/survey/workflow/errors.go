package workflow

import "surveydir/internal/survey/model"

// TransitionError reports an action attempted from a state that has no edge
// for it. The survey is left untouched.
type TransitionError struct {
	Current model.Status
	Action  Action
}

func (e *TransitionError) Error() string {
	return "invalid transition: cannot " + string(e.Action) + " a " + string(e.Current) + " survey"
}

// GuardError reports a failed actor guard. Required names the relationship
// that would have allowed the transition.
type GuardError struct {
	Action   Action
	Required string
}

func (e *GuardError) Error() string {
	return "permission denied: " + string(e.Action) + " requires " + e.Required
}

// ValidationError reports a missing or malformed payload field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Field + " " + e.Reason
}
