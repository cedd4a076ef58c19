package policy

import (
	"go.mongodb.org/mongo-driver/bson"

	"surveydir/internal/survey/model"
)

// Engine resolves which rule, if any, restricts an actor. Flags are fixed at
// construction from deployment config.
type Engine struct {
	adminSeesAll         bool
	allowSuperuserBypass bool
}

func NewEngine(adminSeesAll, allowSuperuserBypass bool) *Engine {
	return &Engine{
		adminSeesAll:         adminSeesAll,
		allowSuperuserBypass: allowSuperuserBypass,
	}
}

// Decision is the engine's resolution for one actor against one table:
// either unrestricted, or a rule to apply.
type Decision struct {
	Unrestricted bool
	Rule         Rule
}

// Resolve applies the bypass precedence, first match wins:
// unauthenticated deny, superuser bypass, admin bypass, table lookup. Both
// the list filter and the object check go through this same resolution so a
// record invisible in a list is also unreachable by direct id.
func (e *Engine) Resolve(actor *model.Actor, table *Table) Decision {
	if actor == nil || actor.ID == "" {
		return Decision{Rule: DenyAll()}
	}
	if e.allowSuperuserBypass && actor.Superuser {
		return Decision{Unrestricted: true}
	}
	if e.adminSeesAll && actor.Role == model.RoleAdmin {
		return Decision{Unrestricted: true}
	}
	return Decision{Rule: table.RuleFor(actor.Role)}
}

// Bypassed reports whether the actor would skip rule evaluation entirely.
// Used to decide whether a mutation was privileged for audit purposes.
func (e *Engine) Bypassed(actor *model.Actor) bool {
	if actor == nil {
		return false
	}
	if e.allowSuperuserBypass && actor.Superuser {
		return true
	}
	return e.adminSeesAll && actor.Role == model.RoleAdmin
}

// Authorizer binds the engine to one rule table. It answers the object-level
// question for single records and produces the equivalent collection filter
// for lists.
type Authorizer struct {
	engine *Engine
	table  *Table
}

func NewAuthorizer(engine *Engine, table *Table) *Authorizer {
	return &Authorizer{engine: engine, table: table}
}

// CanAccess evaluates the resolved rule against one record.
func (a *Authorizer) CanAccess(actor *model.Actor, s *model.Survey) (bool, error) {
	d := a.engine.Resolve(actor, a.table)
	if d.Unrestricted {
		return true, nil
	}
	return d.Rule.Match(actor, s)
}

// FilterFor translates the resolved rule into a mongo filter. Unknown roles
// resolve to the table default and fail closed to an empty result rather
// than an error.
func (a *Authorizer) FilterFor(actor *model.Actor) (bson.M, error) {
	d := a.engine.Resolve(actor, a.table)
	if d.Unrestricted {
		return bson.M{}, nil
	}
	return d.Rule.Filter(actor)
}
