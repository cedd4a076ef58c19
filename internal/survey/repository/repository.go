package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"

	"surveydir/internal/survey/model"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
	// ErrStaleStatus signals a lost compare-and-swap: the survey's status
	// changed between read and write.
	ErrStaleStatus = errors.New("survey status changed concurrently")
)

type SurveyRepository interface {
	// Create a new survey record
	CreateSurvey(ctx context.Context, s *model.Survey) error
	// Fetch one survey by id
	GetSurvey(ctx context.Context, id string) (*model.Survey, error)
	// Find surveys matching the access filter combined with query params
	FindSurveys(ctx context.Context, access bson.M, filter model.SurveyFilter) ([]*model.Survey, error)
	// Update plain fields on one survey and return the updated record
	UpdateSurveyFields(ctx context.Context, id string, set map[string]interface{}) (*model.Survey, error)
	// Apply a workflow transition's writes iff the status still equals from
	UpdateSurveyStatus(ctx context.Context, id string, from model.Status, set map[string]interface{}) error
	// Hard delete (admin only)
	DeleteSurvey(ctx context.Context, id string) error
	// Initialize indexes
	EnsureIndexes(ctx context.Context) error
}

// AuditRepository is append-only by interface shape: no update or delete.
type AuditRepository interface {
	AppendEntry(ctx context.Context, entry *model.AuditEntry) error
	FindBySurvey(ctx context.Context, surveyID string, limit int64) ([]*model.AuditEntry, error)
	EnsureAuditIndexes(ctx context.Context) error
}
