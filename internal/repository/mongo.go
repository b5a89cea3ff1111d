package repository

import (
	"context"
	"errors"
	"fmt"

	"decihire/internal/model"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// TxRunner runs fn atomically. Repositories called with the ctx handed to fn
// take part in the transaction.
type TxRunner interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type mongoTx struct {
	client *mongo.Client
}

// NewTxRunner returns a TxRunner backed by MongoDB sessions (needs a replica set)
func NewTxRunner(client *mongo.Client) TxRunner {
	return &mongoTx{client: client}
}

func (t *mongoTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	sess, err := t.client.StartSession()
	if err != nil {
		return storeErr("start session", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return storeErr("transaction", err)
}

// storeErr wraps a driver error with the operation name. Connectivity and
// timeout failures become StoreUnavailableError so callers can retry them.
func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if isDomainError(err) {
		return err
	}
	if isUnavailable(err) {
		return &model.StoreUnavailableError{Op: op, Err: err}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isUnavailable(err error) bool {
	return mongo.IsNetworkError(err) ||
		mongo.IsTimeout(err) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, mongo.ErrClientDisconnected)
}

// Errors already raised by this package or the model pass through untouched
func isDomainError(err error) bool {
	for _, target := range []error{
		model.ErrStoreUnavailable,
		model.ErrDuplicateSession,
		model.ErrDuplicateAnswer,
		model.ErrSessionClosed,
		model.ErrSessionNotFound,
		model.ErrQuestionPublished,
		model.ErrIncompleteSession,
		model.ErrUnknownQuestion,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func createIndex(ctx context.Context, coll *mongo.Collection, keys bson.D, opts *options.IndexOptions) {
	if opts == nil {
		opts = options.Index()
	}
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: keys, Options: opts})
	if err != nil {
		log.Printf("Warning: failed to create index on %s: %v", coll.Name(), err)
	}
}
