package order

import (
	"context"
	"errors"
	"time"

	"storefront-be/internal/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const (
	collectionName = "orders"
	queryTimeout   = 5 * time.Second
)

type mongoRepository struct {
	coll *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) Repository {
	return &mongoRepository{coll: db.Collection(collectionName)}
}

func (r *mongoRepository) Create(ctx context.Context, o *Order) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if o.ID == "" {
		o.ID = primitive.NewObjectID().Hex()
	}

	if _, err := r.coll.InsertOne(ctx, o); err != nil {
		logger.FromCtx(ctx).Error("mongo: failed to insert order",
			zap.String("user_id", o.User),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (r *mongoRepository) FindByID(ctx context.Context, id string) (*Order, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var o Order
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&o); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &o, nil
}

func (r *mongoRepository) list(ctx context.Context, filter bson.M) ([]*Order, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	orders := []*Order{}
	if err := cur.All(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *mongoRepository) ListByUser(ctx context.Context, userID string) ([]*Order, error) {
	return r.list(ctx, bson.M{"user": userID})
}

func (r *mongoRepository) ListAll(ctx context.Context) ([]*Order, error) {
	return r.list(ctx, bson.M{})
}

func (r *mongoRepository) FindByPaymentID(ctx context.Context, paymentID string) (*Order, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var o Order
	if err := r.coll.FindOne(ctx, bson.M{"paymentResult.id": paymentID}).Decode(&o); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &o, nil
}

func (r *mongoRepository) MarkPaid(ctx context.Context, id string, result PaymentResult, at time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id, "isPaid": false},
		bson.M{"$set": bson.M{
			"isPaid":        true,
			"paidAt":        at,
			"paymentResult": result,
			"updatedAt":     at,
		}},
	)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, ErrPaymentReused
		}
		return false, err
	}
	return res.MatchedCount > 0, nil
}

func (r *mongoRepository) MarkDelivered(ctx context.Context, id string, at time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id, "isPaid": true, "isDelivered": false},
		bson.M{"$set": bson.M{
			"isDelivered": true,
			"deliveredAt": at,
			"updatedAt":   at,
		}},
	)
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}
