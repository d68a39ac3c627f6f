package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/NataTusia/Haah-and-Cash/db"
	"github.com/NataTusia/Haah-and-Cash/models"
)

type GenerationLogRepository struct {
	col *mongo.Collection
}

func NewGenerationLogRepository(d *mongo.Database) *GenerationLogRepository {
	return &GenerationLogRepository{col: d.Collection(db.GenerationLogCollection)}
}

// Record inserts one generation call.
func (r *GenerationLogRepository) Record(ctx context.Context, entry models.GenerationLog) error {
	if entry.RequestedAt.IsZero() {
		entry.RequestedAt = time.Now()
	}
	_, err := r.col.InsertOne(ctx, entry)
	return err
}

// CountFailuresSince counts failed calls since t.
func (r *GenerationLogRepository) CountFailuresSince(ctx context.Context, t time.Time) (int64, error) {
	return r.col.CountDocuments(ctx, bson.M{
		"requested_at":  bson.M{"$gte": t},
		"error_message": bson.M{"$exists": true},
	})
}
