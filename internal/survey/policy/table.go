package policy

import "surveydir/internal/survey/model"

// Table maps roles to rules. Built once at startup and read-only after; there
// is no runtime rule authoring.
type Table struct {
	rules map[model.Role]Rule
	def   Rule
}

// NewTable copies the given mapping. A nil default falls back to DenyAll so
// unlisted roles fail closed.
func NewTable(rules map[model.Role]Rule, def Rule) *Table {
	copied := make(map[model.Role]Rule, len(rules))
	for role, rule := range rules {
		copied[role] = rule
	}
	if def == nil {
		def = DenyAll()
	}
	return &Table{rules: copied, def: def}
}

// RuleFor returns the rule for a role, or the table default.
func (t *Table) RuleFor(role model.Role) Rule {
	if rule, ok := t.rules[role]; ok {
		return rule
	}
	return t.def
}

// SurveyRules is the deployment rule table for survey records: surveyors see
// their own surveys, verifiers see assigned plus submitted ones, viewers see
// verified results only. Admin access is handled by the engine bypass, not
// the table.
func SurveyRules() *Table {
	return NewTable(map[model.Role]Rule{
		model.RoleSurveyor: OwnedBy(FieldSurveyor),
		model.RoleVerifier: AnyOf(
			AssignedTo(FieldAssignedVerifier),
			StatusEquals(model.StatusSubmitted),
		),
		model.RoleViewer: StatusEquals(model.StatusVerified),
	}, DenyAll())
}

// AuditRules governs who may read a survey's audit trail, expressed against
// the parent survey: verifiers only for surveys assigned to them, surveyors
// for their own surveys. Everyone else is denied unless the engine bypass
// applies.
func AuditRules() *Table {
	return NewTable(map[model.Role]Rule{
		model.RoleVerifier: AssignedTo(FieldAssignedVerifier),
		model.RoleSurveyor: OwnedBy(FieldSurveyor),
	}, DenyAll())
}
