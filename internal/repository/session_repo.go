package repository

import (
	"context"
	"time"

	"decihire/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type SessionRepo interface {
	// Create fails with DuplicateSessionError when the candidate has an open session
	Create(ctx context.Context, session *model.Session) error
	GetByID(ctx context.Context, id string) (*model.Session, error)
	FindOpenByCandidate(ctx context.Context, candidateID string) (*model.Session, error)
	// AppendAnswer pushes only onto an open session that has no answer for the question yet
	AppendAnswer(ctx context.Context, sessionID string, answer model.Answer) error
	Seal(ctx context.Context, sessionID string, at time.Time) error
}

type sessionRepo struct {
	collection *mongo.Collection
}

func NewSessionRepo(db *mongo.Database) SessionRepo {
	repo := &sessionRepo{
		collection: db.Collection("sessions"),
	}
	repo.ensureIndexes(context.Background())
	return repo
}

func (r *sessionRepo) ensureIndexes(ctx context.Context) {
	// At most one open session per candidate
	createIndex(ctx, r.collection, bson.D{{Key: "candidateId", Value: 1}},
		options.Index().
			SetUnique(true).
			SetName("one_open_session_per_candidate").
			SetPartialFilterExpression(bson.M{"status": model.SessionOpen}))
	createIndex(ctx, r.collection, bson.D{{Key: "profile", Value: 1}, {Key: "status", Value: 1}}, nil)
}

func (r *sessionRepo) Create(ctx context.Context, session *model.Session) error {
	if session.Answers == nil {
		session.Answers = []model.Answer{}
	}
	_, err := r.collection.InsertOne(ctx, session)
	if mongo.IsDuplicateKeyError(err) {
		return &model.DuplicateSessionError{CandidateID: session.CandidateID}
	}
	return storeErr("create session", err)
}

func (r *sessionRepo) GetByID(ctx context.Context, id string) (*model.Session, error) {
	return r.findOne(ctx, "get session", bson.M{"_id": id})
}

func (r *sessionRepo) FindOpenByCandidate(ctx context.Context, candidateID string) (*model.Session, error) {
	return r.findOne(ctx, "find open session", bson.M{"candidateId": candidateID, "status": model.SessionOpen})
}

func (r *sessionRepo) findOne(ctx context.Context, op string, filter bson.M) (*model.Session, error) {
	var session model.Session
	err := r.collection.FindOne(ctx, filter).Decode(&session)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr(op, err)
	}
	return &session, nil
}

func (r *sessionRepo) AppendAnswer(ctx context.Context, sessionID string, answer model.Answer) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{
			"_id":                sessionID,
			"status":             model.SessionOpen,
			"answers.questionId": bson.M{"$ne": answer.QuestionID},
		},
		bson.M{"$push": bson.M{"answers": answer}},
	)
	if err != nil {
		return storeErr("append answer", err)
	}
	if res.MatchedCount == 1 {
		return nil
	}

	// Nothing matched: work out which guard rejected the write
	current, err := r.GetByID(ctx, sessionID)
	if err != nil {
		return err
	}
	switch {
	case current == nil:
		return model.ErrSessionNotFound
	case current.IsSealed():
		return &model.SessionClosedError{SessionID: sessionID}
	default:
		return &model.DuplicateAnswerError{SessionID: sessionID, QuestionID: answer.QuestionID}
	}
}

func (r *sessionRepo) Seal(ctx context.Context, sessionID string, at time.Time) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": sessionID, "status": model.SessionOpen},
		bson.M{"$set": bson.M{"status": model.SessionSealed, "submittedAt": at}},
	)
	if err != nil {
		return storeErr("seal session", err)
	}
	if res.MatchedCount == 0 {
		return &model.SessionClosedError{SessionID: sessionID}
	}
	return nil
}
