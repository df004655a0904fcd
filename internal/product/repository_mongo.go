package product

import (
	"context"
	"errors"
	"regexp"
	"time"

	"storefront-be/internal/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const (
	collectionName = "products"
	queryTimeout   = 5 * time.Second
)

type mongoRepository struct {
	coll *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) Repository {
	return &mongoRepository{coll: db.Collection(collectionName)}
}

func keywordFilter(keyword string) bson.M {
	if keyword == "" {
		return bson.M{}
	}
	return bson.M{"name": primitive.Regex{Pattern: regexp.QuoteMeta(keyword), Options: "i"}}
}

func (r *mongoRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*Product, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	products := []*Product{}
	if err := cur.All(ctx, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *mongoRepository) List(ctx context.Context, keyword string, limit, offset int) ([]*Product, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(int64(offset))
	return r.find(ctx, keywordFilter(keyword), opts)
}

func (r *mongoRepository) Count(ctx context.Context, keyword string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return r.coll.CountDocuments(ctx, keywordFilter(keyword))
}

func (r *mongoRepository) All(ctx context.Context) ([]*Product, error) {
	return r.find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
}

func (r *mongoRepository) Top(ctx context.Context, n int) ([]*Product, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "rating", Value: -1}}).
		SetLimit(int64(n))
	return r.find(ctx, bson.M{}, opts)
}

func (r *mongoRepository) FindByID(ctx context.Context, id string) (*Product, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var p Product
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *mongoRepository) Create(ctx context.Context, p *Product) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if p.ID == "" {
		p.ID = primitive.NewObjectID().Hex()
	}
	if p.Reviews == nil {
		p.Reviews = []Review{}
	}

	if _, err := r.coll.InsertOne(ctx, p); err != nil {
		logger.FromCtx(ctx).Error("mongo: failed to insert product", zap.Error(err))
		return err
	}
	return nil
}

func (r *mongoRepository) Update(ctx context.Context, p *Product) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": p.ID}, bson.M{"$set": bson.M{
		"name":         p.Name,
		"price":        p.Price,
		"description":  p.Description,
		"image":        p.Image,
		"brand":        p.Brand,
		"category":     p.Category,
		"countInStock": p.CountInStock,
		"updatedAt":    p.UpdatedAt,
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *mongoRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *mongoRepository) AppendReview(ctx context.Context, productID string, review Review) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if review.ID == "" {
		review.ID = primitive.NewObjectID().Hex()
	}

	filter := bson.M{"_id": productID, "reviews.user": bson.M{"$ne": review.User}}
	// $literal keeps user text such as "$price" from being read as a field path.
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"reviews": bson.M{"$concatArrays": bson.A{
				bson.M{"$ifNull": bson.A{"$reviews", bson.A{}}},
				bson.A{bson.M{"$literal": review}},
			}},
		}}},
		{{Key: "$set", Value: bson.M{
			"numReviews": bson.M{"$size": "$reviews"},
			"rating":     bson.M{"$avg": "$reviews.rating"},
			"updatedAt":  review.UpdatedAt,
		}}},
	}

	res, err := r.coll.UpdateOne(ctx, filter, pipeline)
	if err != nil {
		return err
	}
	if res.MatchedCount > 0 {
		return nil
	}

	n, err := r.coll.CountDocuments(ctx, bson.M{"_id": productID})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrProductNotFound
	}
	return ErrAlreadyReviewed
}
