package repository

import (
	"context"

	"decihire/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ResultRepo handles MongoDB operations for scored results
type ResultRepo interface {
	// Upsert overwrites any earlier result of the same session
	Upsert(ctx context.Context, result *model.Result) error
	Get(ctx context.Context, sessionID string) (*model.Result, error)
	Query(ctx context.Context, filter model.ResultFilter) ([]*model.Result, error)
}

type resultRepo struct {
	results *mongo.Collection
}

// NewResultRepo creates a new result repository
func NewResultRepo(db *mongo.Database) ResultRepo {
	repo := &resultRepo{
		results: db.Collection("results"),
	}
	repo.ensureIndexes(context.Background())
	return repo
}

func (r *resultRepo) ensureIndexes(ctx context.Context) {
	createIndex(ctx, r.results, rankSort, nil)
	createIndex(ctx, r.results, bson.D{{Key: "profile", Value: 1}, {Key: "totalScore", Value: -1}}, nil)
	createIndex(ctx, r.results, bson.D{{Key: "submittedAt", Value: 1}}, nil)
}

// rankSort matches scoring.Less
var rankSort = bson.D{
	{Key: "totalScore", Value: -1},
	{Key: "submittedAt", Value: 1},
	{Key: "_id", Value: 1},
}

func (r *resultRepo) Upsert(ctx context.Context, result *model.Result) error {
	opts := options.Replace().SetUpsert(true)
	_, err := r.results.ReplaceOne(ctx, bson.M{"_id": result.SessionID}, result, opts)
	return storeErr("save result", err)
}

func (r *resultRepo) Get(ctx context.Context, sessionID string) (*model.Result, error) {
	var result model.Result
	err := r.results.FindOne(ctx, bson.M{"_id": sessionID}).Decode(&result)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("get result", err)
	}
	return &result, nil
}

func (r *resultRepo) Query(ctx context.Context, filter model.ResultFilter) ([]*model.Result, error) {
	opts := options.Find().SetSort(rankSort)
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}

	cursor, err := r.results.Find(ctx, buildResultFilter(filter), opts)
	if err != nil {
		return nil, storeErr("query results", err)
	}
	defer cursor.Close(ctx)

	results := []*model.Result{}
	if err = cursor.All(ctx, &results); err != nil {
		return nil, storeErr("query results", err)
	}
	return results, nil
}

// buildResultFilter translates a ResultFilter into the equivalent of ResultFilter.Matches
func buildResultFilter(f model.ResultFilter) bson.M {
	q := bson.M{}
	if f.MinScore != nil {
		q["totalScore"] = bson.M{"$gte": *f.MinScore}
	}
	if f.Category != "" {
		q["subscores."+string(f.Category)] = bson.M{"$exists": true}
	}
	if !f.From.IsZero() || !f.To.IsZero() {
		rng := bson.M{}
		if !f.From.IsZero() {
			rng["$gte"] = f.From
		}
		if !f.To.IsZero() {
			rng["$lt"] = f.To
		}
		q["submittedAt"] = rng
	}
	if f.Profile != "" {
		q["profile"] = f.Profile
	}
	return q
}
