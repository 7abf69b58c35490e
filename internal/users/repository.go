package users

import (
	"context"
	"errors"
	"time"

	"github.com/cityassist/cityassist/go-web/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Record is the stored form of a user: the public profile plus credentials
// and preferences that never leave the API.
type Record struct {
	models.User  `bson:",inline"`
	PasswordHash string             `bson:"passwordHash,omitempty"`
	Subject      string             `bson:"subject,omitempty"`
	Preferences  models.Preferences `bson:"preferences"`
}

// UserRepository defines persistence operations for users.
// Getters return (nil, nil) when nothing matches.
type UserRepository interface {
	Create(ctx context.Context, r *Record) error
	GetByID(ctx context.Context, id string) (*Record, error)
	GetByEmail(ctx context.Context, email string) (*Record, error)
	GetBySubject(ctx context.Context, sub string) (*Record, error)
	Update(ctx context.Context, r *Record) error
}

// MongoUserRepository implements UserRepository using MongoDB
type MongoUserRepository struct {
	col *mongo.Collection
}

// NewMongoUserRepository creates a new repository for the given collection
func NewMongoUserRepository(col *mongo.Collection) *MongoUserRepository {
	return &MongoUserRepository{col: col}
}

func (r *MongoUserRepository) Create(ctx context.Context, rec *Record) error {
	if _, err := r.col.InsertOne(ctx, rec); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateEmail
		}
		return err
	}
	return nil
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.M) (*Record, error) {
	var rec Record
	if err := r.col.FindOne(ctx, filter).Decode(&rec); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

func (r *MongoUserRepository) GetByID(ctx context.Context, id string) (*Record, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MongoUserRepository) GetByEmail(ctx context.Context, email string) (*Record, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *MongoUserRepository) GetBySubject(ctx context.Context, sub string) (*Record, error) {
	return r.findOne(ctx, bson.M{"subject": sub})
}

func (r *MongoUserRepository) Update(ctx context.Context, rec *Record) error {
	rec.UpdatedAt = time.Now().UTC()
	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": rec.ID}, rec)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateEmail
		}
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
