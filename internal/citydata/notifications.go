package citydata

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/cityassist/cityassist/go-web/internal/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotificationNotFound is returned when marking an unknown notification.
var ErrNotificationNotFound = errors.New("notification not found")

// NotificationQuery pages a user's notifications, newest first.
type NotificationQuery struct {
	UnreadOnly bool
	Page       int
	Size       int
}

func (q NotificationQuery) normalize() NotificationQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Size < 1 || q.Size > 100 {
		q.Size = 50
	}
	return q
}

// Notifications stores per-user notifications.
type Notifications interface {
	Notify(ctx context.Context, userID string, n models.Notification) error
	List(ctx context.Context, userID string, q NotificationQuery) ([]models.Notification, error)
	MarkRead(ctx context.Context, userID, id string) error
	MarkAllRead(ctx context.Context, userID string) error
}

func stamp(userID string, n *models.Notification) {
	n.UserID = userID
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now().UTC()
	}
}

// MemoryNotifications keeps notifications in process.
type MemoryNotifications struct {
	mu     sync.Mutex
	byUser map[string][]models.Notification
}

func NewMemoryNotifications() *MemoryNotifications {
	return &MemoryNotifications{byUser: map[string][]models.Notification{}}
}

func (m *MemoryNotifications) Notify(_ context.Context, userID string, n models.Notification) error {
	stamp(userID, &n)
	m.mu.Lock()
	m.byUser[userID] = append(m.byUser[userID], n)
	m.mu.Unlock()
	return nil
}

func (m *MemoryNotifications) List(_ context.Context, userID string, q NotificationQuery) ([]models.Notification, error) {
	q = q.normalize()
	m.mu.Lock()
	out := []models.Notification{}
	for _, n := range m.byUser[userID] {
		if q.UnreadOnly && n.Read {
			continue
		}
		out = append(out, n)
	}
	m.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	skip := (q.Page - 1) * q.Size
	if skip >= len(out) {
		return []models.Notification{}, nil
	}
	out = out[skip:]
	if len(out) > q.Size {
		out = out[:q.Size]
	}
	return out, nil
}

func (m *MemoryNotifications) MarkRead(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.byUser[userID]
	for i := range list {
		if list[i].ID == id {
			list[i].Read = true
			return nil
		}
	}
	return ErrNotificationNotFound
}

func (m *MemoryNotifications) MarkAllRead(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.byUser[userID]
	for i := range list {
		list[i].Read = true
	}
	return nil
}

// MongoNotifications stores notifications in a collection indexed on (userId, timestamp).
type MongoNotifications struct {
	col *mongo.Collection
}

func NewMongoNotifications(col *mongo.Collection) *MongoNotifications {
	return &MongoNotifications{col: col}
}

func (m *MongoNotifications) Notify(ctx context.Context, userID string, n models.Notification) error {
	stamp(userID, &n)
	_, err := m.col.InsertOne(ctx, n)
	return err
}

func (m *MongoNotifications) List(ctx context.Context, userID string, q NotificationQuery) ([]models.Notification, error) {
	q = q.normalize()
	filter := bson.M{"userId": userID}
	if q.UnreadOnly {
		filter["read"] = false
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetSkip(int64((q.Page - 1) * q.Size)).
		SetLimit(int64(q.Size))
	cur, err := m.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []models.Notification{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (m *MongoNotifications) MarkRead(ctx context.Context, userID, id string) error {
	res, err := m.col.UpdateOne(ctx, bson.M{"_id": id, "userId": userID}, bson.M{"$set": bson.M{"read": true}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (m *MongoNotifications) MarkAllRead(ctx context.Context, userID string) error {
	_, err := m.col.UpdateMany(ctx, bson.M{"userId": userID, "read": false}, bson.M{"$set": bson.M{"read": true}})
	return err
}
