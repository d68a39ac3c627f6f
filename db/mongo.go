package db

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/NataTusia/Haah-and-Cash/logger"
)

const (
	DefaultMongoDBName      = "hash_and_cash"
	GenerationLogCollection = "generation_logs"
)

// InitMongo connects to uri, verifies the connection and ensures indexes.
// The caller owns the returned client and must Disconnect it.
func InitMongo(ctx context.Context, uri, dbName string) (*mongo.Client, *mongo.Database, error) {
	if dbName == "" {
		dbName = DefaultMongoDBName
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cl, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, err
	}
	// Ping to verify connection
	if err := cl.Ping(ctx, readpref.Primary()); err != nil {
		_ = cl.Disconnect(context.Background())
		return nil, nil, err
	}

	d := cl.Database(dbName)
	if err := ensureIndexes(ctx, d); err != nil {
		_ = cl.Disconnect(context.Background())
		return nil, nil, err
	}
	logger.InfoWithFields("MongoDB connected and indexes ensured", logger.Fields{"database": dbName})
	return cl, d, nil
}

func ensureIndexes(ctx context.Context, d *mongo.Database) error {
	col := d.Collection(GenerationLogCollection)

	// lookups by draft, newest first
	if _, err := col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "draft_key", Value: 1}, {Key: "requested_at", Value: -1}},
		Options: options.Index().SetName("idx_draft_key_requested_at"),
	}); err != nil {
		return err
	}
	if _, err := col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "request_id", Value: 1}},
		Options: options.Index().SetName("uniq_request_id").SetUnique(true),
	}); err != nil {
		return err
	}
	return nil
}
