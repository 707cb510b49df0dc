package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Connect opens a client and pings the primary.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("bootstrap: connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("bootstrap: ping: %w", err)
	}
	return client, nil
}

// MongoTarget adapts a *mongo.Database to Target and AdminStore.
type MongoTarget struct {
	db *mongo.Database
}

// NewMongoTarget wraps db.
func NewMongoTarget(db *mongo.Database) *MongoTarget {
	return &MongoTarget{db: db}
}

// CollectionNames implements Target.
func (m *MongoTarget) CollectionNames(ctx context.Context) ([]string, error) {
	return m.db.ListCollectionNames(ctx, bson.D{})
}

// CreateCollection implements Target. A collection created concurrently by
// someone else is not an error.
func (m *MongoTarget) CreateCollection(ctx context.Context, name string) error {
	err := m.db.CreateCollection(ctx, name)
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) && cmdErr.Name == "NamespaceExists" {
		return nil
	}
	return err
}

// CreateIndexes implements Target.
func (m *MongoTarget) CreateIndexes(ctx context.Context, collection string, indexes []Index) error {
	models := make([]mongo.IndexModel, 0, len(indexes))
	for _, idx := range indexes {
		opts := options.Index().SetName(idx.Name)
		if idx.Unique {
			opts.SetUnique(true)
		}
		models = append(models, mongo.IndexModel{Keys: idx.Keys, Options: opts})
	}
	_, err := m.db.Collection(collection).Indexes().CreateMany(ctx, models)
	return err
}

// UserExists implements AdminStore.
func (m *MongoTarget) UserExists(ctx context.Context, email, username string) (bool, error) {
	n, err := m.db.Collection(UsersCollection).CountDocuments(ctx, bson.M{
		"$or": bson.A{bson.M{"email": email}, bson.M{"username": username}},
	})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// InsertUser implements AdminStore.
func (m *MongoTarget) InsertUser(ctx context.Context, doc bson.M) (string, error) {
	res, err := m.db.Collection(UsersCollection).InsertOne(ctx, doc)
	if err != nil {
		return "", err
	}
	return fmt.Sprint(res.InsertedID), nil
}
