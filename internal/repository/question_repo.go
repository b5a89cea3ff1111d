package repository

import (
	"context"
	"time"

	"decihire/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type QuestionRepo interface {
	Create(ctx context.Context, question *model.Question) error
	GetByID(ctx context.Context, id string) (*model.Question, error)
	// Update replaces a draft; published questions are left untouched
	Update(ctx context.Context, question *model.Question) error
	Publish(ctx context.Context, id string, at time.Time) (*model.Question, error)

	List(ctx context.Context, profile string, status model.QuestionStatus) ([]*model.Question, error)
	ListPublished(ctx context.Context, profile string) ([]model.Question, error)
	Profiles(ctx context.Context) ([]string, error)
}

type questionRepo struct {
	collection *mongo.Collection
}

func NewQuestionRepo(db *mongo.Database) QuestionRepo {
	repo := &questionRepo{
		collection: db.Collection("questions"),
	}
	repo.ensureIndexes(context.Background())
	return repo
}

func (r *questionRepo) ensureIndexes(ctx context.Context) {
	createIndex(ctx, r.collection, bson.D{
		{Key: "profile", Value: 1},
		{Key: "status", Value: 1},
		{Key: "order", Value: 1},
	}, nil)
}

func (r *questionRepo) Create(ctx context.Context, question *model.Question) error {
	_, err := r.collection.InsertOne(ctx, question)
	return storeErr("create question", err)
}

func (r *questionRepo) GetByID(ctx context.Context, id string) (*model.Question, error) {
	var question model.Question
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&question)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("get question", err)
	}
	return &question, nil
}

func (r *questionRepo) Update(ctx context.Context, question *model.Question) error {
	res, err := r.collection.ReplaceOne(ctx,
		bson.M{"_id": question.ID, "status": model.QuestionDraft},
		question,
	)
	if err != nil {
		return storeErr("update question", err)
	}
	if res.MatchedCount == 0 {
		return model.ErrQuestionPublished
	}
	return nil
}

func (r *questionRepo) Publish(ctx context.Context, id string, at time.Time) (*model.Question, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var question model.Question
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": model.QuestionDraft},
		bson.M{"$set": bson.M{"status": model.QuestionPublished, "publishedAt": at}},
		opts,
	).Decode(&question)
	if err == mongo.ErrNoDocuments {
		return nil, model.ErrQuestionPublished
	}
	if err != nil {
		return nil, storeErr("publish question", err)
	}
	return &question, nil
}

func (r *questionRepo) List(ctx context.Context, profile string, status model.QuestionStatus) ([]*model.Question, error) {
	filter := bson.M{}
	if profile != "" {
		filter["profile"] = profile
	}
	if status != "" {
		filter["status"] = status
	}
	opts := options.Find().SetSort(bson.D{{Key: "profile", Value: 1}, {Key: "order", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, storeErr("list questions", err)
	}
	defer cursor.Close(ctx)

	var questions []*model.Question
	if err = cursor.All(ctx, &questions); err != nil {
		return nil, storeErr("list questions", err)
	}
	return questions, nil
}

func (r *questionRepo) ListPublished(ctx context.Context, profile string) ([]model.Question, error) {
	opts := options.Find().SetSort(bson.D{{Key: "order", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"profile": profile, "status": model.QuestionPublished}, opts)
	if err != nil {
		return nil, storeErr("list bank", err)
	}
	defer cursor.Close(ctx)

	var questions []model.Question
	if err = cursor.All(ctx, &questions); err != nil {
		return nil, storeErr("list bank", err)
	}
	return questions, nil
}

func (r *questionRepo) Profiles(ctx context.Context) ([]string, error) {
	values, err := r.collection.Distinct(ctx, "profile", bson.M{"status": model.QuestionPublished})
	if err != nil {
		return nil, storeErr("list profiles", err)
	}
	profiles := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			profiles = append(profiles, s)
		}
	}
	return profiles, nil
}
