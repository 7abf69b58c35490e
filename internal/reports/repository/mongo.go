package repository

import (
	"context"
	"errors"

	"github.com/cityassist/cityassist/go-web/internal/models"
	"github.com/cityassist/cityassist/go-web/internal/reports"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepo implements a MongoDB-backed repository for reports. Indexes on
// ticketId and (userId, createdAt) are created by database.EnsureIndexes.
type MongoRepo struct {
	col *mongo.Collection
}

func NewMongoRepo(col *mongo.Collection) *MongoRepo {
	return &MongoRepo{col: col}
}

func (m *MongoRepo) Create(ctx context.Context, r *models.Report) error {
	_, err := m.col.InsertOne(ctx, r)
	return err
}

func (m *MongoRepo) Get(ctx context.Context, ref string) (*models.Report, error) {
	var r models.Report
	filter := bson.M{"$or": bson.A{bson.M{"_id": ref}, bson.M{"ticketId": ref}}}
	if err := m.col.FindOne(ctx, filter).Decode(&r); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, reports.ErrNotFound
		}
		return nil, err
	}
	return &r, nil
}

func (m *MongoRepo) ListByUser(ctx context.Context, userID string, f reports.Filter) ([]models.Report, error) {
	filter := bson.M{"userId": userID}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64(f.Skip())).
		SetLimit(int64(f.Size))
	cur, err := m.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []models.Report{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (m *MongoRepo) AppendEvent(ctx context.Context, id, status string, ev models.TimelineEvent) error {
	update := bson.M{
		"$set":  bson.M{"status": status, "updatedAt": ev.Timestamp},
		"$push": bson.M{"timeline": ev},
	}
	res, err := m.col.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return reports.ErrNotFound
	}
	return nil
}
