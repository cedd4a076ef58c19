package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"surveydir/internal/survey/model"
)

type MongoSurveyRepository struct {
	Surveys *mongo.Collection
}

func NewMongoSurveyRepository(db *mongo.Database, collectionName string) *MongoSurveyRepository {
	return &MongoSurveyRepository{Surveys: db.Collection(collectionName)}
}

func (r *MongoSurveyRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		// One survey per service per date
		{
			Keys: bson.D{
				{Key: "service_id", Value: 1},
				{Key: "survey_date", Value: 1},
			},
			Options: options.Index().SetUnique(true).SetName("uniq_service_survey_date"),
		},
		{
			Keys: bson.D{
				{Key: "surveyor_id", Value: 1},
				{Key: "survey_date", Value: -1},
			},
			Options: options.Index().SetName("idx_surveyor_date"),
		},
		{
			Keys: bson.D{
				{Key: "verification_status", Value: 1},
				{Key: "survey_date", Value: -1},
			},
			Options: options.Index().SetName("idx_status_date"),
		},
		{
			Keys: bson.D{
				{Key: "assigned_verifier_id", Value: 1},
				{Key: "verification_status", Value: 1},
			},
			Options: options.Index().SetName("idx_verifier_status"),
		},
	}

	_, err := r.Surveys.Indexes().CreateMany(ctx, indexes)
	return err
}

func (r *MongoSurveyRepository) CreateSurvey(ctx context.Context, s *model.Survey) error {
	_, err := r.Surveys.InsertOne(ctx, s)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}

func (r *MongoSurveyRepository) GetSurvey(ctx context.Context, id string) (*model.Survey, error) {
	var s model.Survey
	err := r.Surveys.FindOne(ctx, bson.M{"_id": id}).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// listQuery combines the access filter with the caller's query params. The
// two sides are joined under $and so params can only narrow the accessible
// set; a flat merge would let a caller's verification_status param replace
// the access restriction on the same key.
func listQuery(access bson.M, filter model.SurveyFilter) bson.M {
	params := bson.M{}
	if filter.ServiceID != "" {
		params["service_id"] = filter.ServiceID
	}
	if filter.SurveyorID != "" {
		params["surveyor_id"] = filter.SurveyorID
	}
	if filter.Status != "" {
		params["verification_status"] = string(filter.Status)
	}

	if len(access) == 0 {
		return params
	}
	if len(params) == 0 {
		return access
	}
	return bson.M{"$and": bson.A{access, params}}
}

func (r *MongoSurveyRepository) FindSurveys(ctx context.Context, access bson.M, filter model.SurveyFilter) ([]*model.Survey, error) {
	query := listQuery(access, filter)

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	findOptions := options.Find().
		SetSort(bson.D{{Key: "survey_date", Value: -1}}).
		SetLimit(limit)

	cursor, err := r.Surveys.Find(ctx, query, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	results := []*model.Survey{}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *MongoSurveyRepository) UpdateSurveyFields(ctx context.Context, id string, set map[string]interface{}) (*model.Survey, error) {
	after := options.After
	opts := options.FindOneAndUpdate().SetReturnDocument(after)

	var updated model.Survey
	err := r.Surveys.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M(set)}, opts).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// UpdateSurveyStatus applies a transition's writes with a compare-and-swap on
// the current status. A miss while the document exists means another request
// transitioned the survey first.
func (r *MongoSurveyRepository) UpdateSurveyStatus(ctx context.Context, id string, from model.Status, set map[string]interface{}) error {
	res, err := r.Surveys.UpdateOne(ctx,
		bson.M{"_id": id, "verification_status": string(from)},
		bson.M{"$set": bson.M(set)},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		count, err := r.Surveys.CountDocuments(ctx, bson.M{"_id": id})
		if err != nil {
			return err
		}
		if count == 0 {
			return ErrNotFound
		}
		return ErrStaleStatus
	}
	return nil
}

func (r *MongoSurveyRepository) DeleteSurvey(ctx context.Context, id string) error {
	res, err := r.Surveys.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
