package policy

import (
	"errors"

	"go.mongodb.org/mongo-driver/bson"

	"surveydir/internal/survey/model"
)

// ErrActorRequired is a rule configuration error: an actor-bound rule was
// evaluated without an authenticated actor.
var ErrActorRequired = errors.New("rule requires an actor")

// Field is one of the closed set of survey fields a rule may reference. The
// bson key drives collection filters and the getter drives single-record
// checks; every rule reads both from the same pair, so the list filter and
// the object check cannot diverge.
type Field struct {
	key string
	get func(*model.Survey) string
}

var (
	FieldSurveyor         = Field{key: "surveyor_id", get: func(s *model.Survey) string { return s.SurveyorID }}
	FieldAssignedVerifier = Field{key: "assigned_verifier_id", get: func(s *model.Survey) string { return s.AssignedVerifierID }}
	FieldVerifiedBy       = Field{key: "verified_by_id", get: func(s *model.Survey) string { return s.VerifiedByID }}
	FieldStatus           = Field{key: "verification_status", get: func(s *model.Survey) string { return string(s.VerificationStatus) }}
)

// Rule is an immutable predicate over an (actor, survey) pair. Match answers
// the object-level question; Filter translates the same predicate into a
// mongo query for listing. Evaluation never mutates state.
type Rule interface {
	Match(actor *model.Actor, s *model.Survey) (bool, error)
	Filter(actor *model.Actor) (bson.M, error)
}

// matchNone is a filter no document satisfies.
func matchNone() bson.M {
	return bson.M{"_id": bson.M{"$in": bson.A{}}}
}

type allowAll struct{}

// AllowAll matches every record.
func AllowAll() Rule { return allowAll{} }

func (allowAll) Match(*model.Actor, *model.Survey) (bool, error) { return true, nil }
func (allowAll) Filter(*model.Actor) (bson.M, error)             { return bson.M{}, nil }

type denyAll struct{}

// DenyAll matches nothing.
func DenyAll() Rule { return denyAll{} }

func (denyAll) Match(*model.Actor, *model.Survey) (bool, error) { return false, nil }
func (denyAll) Filter(*model.Actor) (bson.M, error)             { return matchNone(), nil }

type ownedBy struct{ field Field }

// OwnedBy matches records whose field equals the actor's id.
func OwnedBy(field Field) Rule { return ownedBy{field: field} }

func (r ownedBy) Match(actor *model.Actor, s *model.Survey) (bool, error) {
	if actor == nil || actor.ID == "" {
		return false, ErrActorRequired
	}
	return r.field.get(s) == actor.ID, nil
}

func (r ownedBy) Filter(actor *model.Actor) (bson.M, error) {
	if actor == nil || actor.ID == "" {
		return nil, ErrActorRequired
	}
	return bson.M{r.field.key: actor.ID}, nil
}

// AssignedTo matches records whose field equals the actor's id. Semantically
// distinct from OwnedBy (assignment vs authorship) but evaluated the same way.
func AssignedTo(field Field) Rule { return ownedBy{field: field} }

type fieldEquals struct {
	field Field
	value string
}

// FieldEquals matches records whose field equals a fixed value. No actor
// involved.
func FieldEquals(field Field, value string) Rule {
	return fieldEquals{field: field, value: value}
}

// StatusEquals is FieldEquals on the verification status field.
func StatusEquals(status model.Status) Rule {
	return fieldEquals{field: FieldStatus, value: string(status)}
}

func (r fieldEquals) Match(_ *model.Actor, s *model.Survey) (bool, error) {
	return r.field.get(s) == r.value, nil
}

func (r fieldEquals) Filter(*model.Actor) (bson.M, error) {
	return bson.M{r.field.key: r.value}, nil
}

type anyOf struct{ rules []Rule }

// AnyOf matches when at least one child rule matches. An empty list matches
// nothing.
func AnyOf(rules ...Rule) Rule { return anyOf{rules: rules} }

func (r anyOf) Match(actor *model.Actor, s *model.Survey) (bool, error) {
	for _, child := range r.rules {
		ok, err := child.Match(actor, s)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func (r anyOf) Filter(actor *model.Actor) (bson.M, error) {
	if len(r.rules) == 0 {
		return matchNone(), nil
	}
	clauses := make([]bson.M, 0, len(r.rules))
	for _, child := range r.rules {
		f, err := child.Filter(actor)
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, f)
	}
	return bson.M{"$or": clauses}, nil
}

type allOf struct{ rules []Rule }

// AllOf matches when every child rule matches. An empty list matches
// everything.
func AllOf(rules ...Rule) Rule { return allOf{rules: rules} }

func (r allOf) Match(actor *model.Actor, s *model.Survey) (bool, error) {
	for _, child := range r.rules {
		ok, err := child.Match(actor, s)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func (r allOf) Filter(actor *model.Actor) (bson.M, error) {
	if len(r.rules) == 0 {
		return bson.M{}, nil
	}
	clauses := make([]bson.M, 0, len(r.rules))
	for _, child := range r.rules {
		f, err := child.Filter(actor)
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, f)
	}
	return bson.M{"$and": clauses}, nil
}
