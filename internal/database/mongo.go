package repository

import (
	"SourceHub/entity"
	"SourceHub/internal/config"
	"SourceHub/internal/lib/sl"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	adminsCollection        = "admins"
	projectsCollection      = "projects"
	conversationsCollection = "chats"

	connectTimeout = 10 * time.Second
)

type MongoDB struct {
	client   *mongo.Client
	database string
	log      *slog.Logger
}

func NewMongoClient(conf *config.Config, logger *slog.Logger) (*MongoDB, error) {
	connectionUri := fmt.Sprintf("mongodb://%s:%s", conf.Mongo.Host, conf.Mongo.Port)
	clientOptions := options.Client().ApplyURI(connectionUri)
	if conf.Mongo.User != "" {
		clientOptions.SetAuth(options.Credential{
			Username:   conf.Mongo.User,
			Password:   conf.Mongo.Password,
			AuthSource: conf.Mongo.Database,
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("mongodb connect error: %w", err)
	}
	if err = client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongodb ping error: %w", err)
	}

	return &MongoDB{
		client:   client,
		database: conf.Mongo.Database,
		log:      logger.With(sl.Module("mongodb")),
	}, nil
}

func (m *MongoDB) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

func (m *MongoDB) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, readpref.Primary())
}

// Status reports connection details for the db-status endpoint.
func (m *MongoDB) Status(ctx context.Context) map[string]interface{} {
	state := "connected"
	if err := m.Ping(ctx); err != nil {
		state = "disconnected"
	}
	return map[string]interface{}{
		"connectionState": state,
		"name":            m.database,
	}
}

func (m *MongoDB) collection(name string) *mongo.Collection {
	return m.client.Database(m.database).Collection(name)
}

func (m *MongoDB) findError(err error, what string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%s: %w", what, entity.ErrNotFound)
	}
	return fmt.Errorf("mongodb find %s: %w", what, err)
}

// objectID parses a hex id; ids that cannot exist are reported as not found.
func objectID(id, what string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%s %q: %w", what, id, entity.ErrNotFound)
	}
	return oid, nil
}

func pageOptions(page, limit int, sort bson.D) *options.FindOptions {
	return options.Find().
		SetSort(sort).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))
}

// EnsureIndexes creates the indexes used by listings and text search.
func (m *MongoDB) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		adminsCollection: {
			{Keys: bson.D{{"username", 1}}, Options: options.Index().SetUnique(true)},
		},
		projectsCollection: {
			{Keys: bson.D{{"name", "text"}, {"language", "text"}, {"tags", "text"}}},
			{Keys: bson.D{{"created_at", -1}}},
			{Keys: bson.D{{"likes", -1}}},
			{Keys: bson.D{{"downloads", -1}}},
			{Keys: bson.D{{"author_id", 1}}},
		},
		conversationsCollection: {
			{Keys: bson.D{{"visitor_id", 1}, {"updated_at", -1}}},
			{Keys: bson.D{{"admin_id", 1}, {"status", 1}, {"updated_at", -1}}},
			{Keys: bson.D{{"last_message_at", -1}}},
		},
	}

	for name, models := range indexes {
		if _, err := m.collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("mongodb create %s indexes: %w", name, err)
		}
	}
	return nil
}
