package collections

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// mongoConnector implements Connector for MongoDB.
type mongoConnector struct {
	client *mongo.Client
	dbName string
}

func newMongoConnector(src Source) (*mongoConnector, error) {
	uri := src.Host
	if !strings.HasPrefix(uri, "mongodb://") && !strings.HasPrefix(uri, "mongodb+srv://") {
		port := src.Port
		if port == 0 {
			port = 27017
		}
		auth := ""
		if src.Username != "" {
			auth = src.Username + ":" + src.Password + "@"
		}
		uri = fmt.Sprintf("mongodb://%s%s:%d", auth, src.Host, port)
	}
	dbName := src.Database
	if dbName == "" {
		dbName = "test"
	}

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	return &mongoConnector{client: client, dbName: dbName}, nil
}

func (m *mongoConnector) TestConnection(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return m.client.Ping(ctx, nil)
}

func (m *mongoConnector) Collections(ctx context.Context) ([]string, error) {
	names, err := m.client.Database(m.dbName).ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	return names, nil
}

func (m *mongoConnector) Entries(ctx context.Context, collection string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 25
	}
	coll := m.client.Database(m.dbName).Collection(collection)
	cursor, err := coll.Find(ctx, bson.M{}, options.Find().SetLimit(int64(limit)))
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", collection, err)
	}
	defer cursor.Close(ctx)

	var entries []Entry
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		entries = append(entries, Entry(doc))
	}
	return entries, cursor.Err()
}

func (m *mongoConnector) Close() error {
	return m.client.Disconnect(context.Background())
}
