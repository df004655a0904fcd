package db

import (
	"context"
	"fmt"

	"storefront-be/internal/config"
	"storefront-be/internal/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// NewMongo connects and pings the cluster at uri.
func NewMongo(ctx context.Context, uri, dbName string) (*mongo.Client, *mongo.Database, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("failed to ping mongo: %w", err)
	}
	return client, client.Database(dbName), nil
}

// InitMongo is NewMongo for binaries: a failure is fatal.
func InitMongo(ctx context.Context, cfg *config.Config) (*mongo.Client, *mongo.Database) {
	client, database, err := NewMongo(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		logger.L().Fatal("mongo unavailable", zap.Error(err))
	}

	logger.L().Info("Mongo connection established", zap.String("database", cfg.MongoDB))
	return client, database
}

// EnsureIndexes creates the indexes the repositories rely on. It is idempotent.
func EnsureIndexes(ctx context.Context, database *mongo.Database) error {
	specs := map[string][]mongo.IndexModel{
		"users": {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		"products": {
			{Keys: bson.D{{Key: "rating", Value: -1}}},
		},
		"orders": {
			{Keys: bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
			{
				Keys: bson.D{{Key: "paymentResult.id", Value: 1}},
				Options: options.Index().
					SetUnique(true).
					SetPartialFilterExpression(bson.M{"paymentResult.id": bson.M{"$exists": true}}),
			},
		},
	}

	for _, coll := range []string{"users", "products", "orders"} {
		names, err := database.Collection(coll).Indexes().CreateMany(ctx, specs[coll])
		if err != nil {
			return fmt.Errorf("create %s indexes: %w", coll, err)
		}
		logger.FromCtx(ctx).Debug("indexes ensured", zap.String("collection", coll), zap.Strings("indexes", names))
	}
	return nil
}
