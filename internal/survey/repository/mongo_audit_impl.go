package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"surveydir/internal/survey/model"
)

// MongoAuditRepository implements AuditRepository on an insert-only
// collection.
type MongoAuditRepository struct {
	Entries *mongo.Collection
}

func NewMongoAuditRepository(db *mongo.Database, collectionName string) *MongoAuditRepository {
	return &MongoAuditRepository{Entries: db.Collection(collectionName)}
}

func (r *MongoAuditRepository) EnsureAuditIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "survey_id", Value: 1},
				{Key: "timestamp", Value: -1},
			},
			Options: options.Index().SetName("idx_survey_timestamp"),
		},
		{
			Keys: bson.D{
				{Key: "action", Value: 1},
				{Key: "timestamp", Value: -1},
			},
			Options: options.Index().SetName("idx_action_timestamp"),
		},
	}

	_, err := r.Entries.Indexes().CreateMany(ctx, indexes)
	return err
}

func (r *MongoAuditRepository) AppendEntry(ctx context.Context, entry *model.AuditEntry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	_, err := r.Entries.InsertOne(ctx, entry)
	return err
}

func (r *MongoAuditRepository) FindBySurvey(ctx context.Context, surveyID string, limit int64) ([]*model.AuditEntry, error) {
	if limit <= 0 {
		limit = 200
	}
	findOptions := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(limit)

	cursor, err := r.Entries.Find(ctx, bson.M{"survey_id": surveyID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	results := []*model.AuditEntry{}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	return results, nil
}
