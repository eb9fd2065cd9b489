// Package mongostore keeps offline caches in MongoDB so they survive viewer restarts and can be
// shared between replicas.
package mongostore

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"chat-viewer/cmd/internal/logger"
	"chat-viewer/cmd/viewer/offline"
)

const (
	cachesCollection  = "caches"
	entriesCollection = "cache_entries"
)

// cacheDoc marks that a named cache exists, even while it is empty.
// Collection: caches
type cacheDoc struct {
	Name      string    `bson:"name"`
	CreatedAt time.Time `bson:"created_at"`
}

// entryDoc stores one cached response.
// Collection: cache_entries
type entryDoc struct {
	CacheName  string              `bson:"cache_name"`
	Key        string              `bson:"key"`
	StatusCode int                 `bson:"status_code"`
	Header     map[string][]string `bson:"header"`
	Body       []byte              `bson:"body"`
	StoredAt   time.Time           `bson:"stored_at"`
}

type Store struct {
	client  *mongo.Client
	caches  *mongo.Collection
	entries *mongo.Collection
}

// Connect dials MongoDB, verifies the connection and ensures the cache indexes.
func Connect(ctx context.Context, uri, dbName string) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cl, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	// Ping to verify connection
	if err := cl.Ping(ctx, readpref.Primary()); err != nil {
		_ = cl.Disconnect(context.Background())
		return nil, err
	}

	s := New(cl.Database(dbName))
	s.client = cl
	if err := s.ensureIndexes(ctx); err != nil {
		_ = cl.Disconnect(context.Background())
		return nil, err
	}
	logger.InfoWithFields("MongoDB cache store connected", logger.Fields{"db": dbName})
	return s, nil
}

// New wraps an already connected database.
func New(db *mongo.Database) *Store {
	return &Store{
		caches:  db.Collection(cachesCollection),
		entries: db.Collection(entriesCollection),
	}
}

func (s *Store) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	// caches: unique name
	if _, err := s.caches.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetName("uniq_name").SetUnique(true),
	}); err != nil {
		return err
	}
	// cache_entries: unique (cache_name, key)
	if _, err := s.entries.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "cache_name", Value: 1}, {Key: "key", Value: 1}},
		Options: options.Index().SetName("uniq_cache_key").SetUnique(true),
	}); err != nil {
		return err
	}
	return nil
}

// Open upserts the cache marker and returns a handle scoped to name.
func (s *Store) Open(ctx context.Context, name string) (offline.Cache, error) {
	filter := bson.M{"name": name}
	update := bson.M{"$setOnInsert": cacheDoc{Name: name, CreatedAt: time.Now()}}
	if _, err := s.caches.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
		return nil, err
	}
	return &cache{name: name, entries: s.entries}, nil
}

func (s *Store) Keys(ctx context.Context) ([]string, error) {
	cur, err := s.caches.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	names := []string{}
	for cur.Next(ctx) {
		var doc cacheDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		names = append(names, doc.Name)
	}
	return names, cur.Err()
}

// Delete removes the cache marker and all of its entries.
func (s *Store) Delete(ctx context.Context, name string) (bool, error) {
	res, err := s.caches.DeleteOne(ctx, bson.M{"name": name})
	if err != nil {
		return false, err
	}
	if _, err := s.entries.DeleteMany(ctx, bson.M{"cache_name": name}); err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

type cache struct {
	name    string
	entries *mongo.Collection
}

func (c *cache) Match(ctx context.Context, key string) (*offline.Entry, error) {
	var doc entryDoc
	err := c.entries.FindOne(ctx, bson.M{"cache_name": c.name, "key": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, offline.ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}
	return &offline.Entry{
		URL:        doc.Key,
		StatusCode: doc.StatusCode,
		Header:     http.Header(doc.Header),
		Body:       doc.Body,
		StoredAt:   doc.StoredAt,
	}, nil
}

func (c *cache) Put(ctx context.Context, key string, entry *offline.Entry) error {
	filter := bson.M{"cache_name": c.name, "key": key}
	update := bson.M{"$set": bson.M{
		"status_code": entry.StatusCode,
		"header":      map[string][]string(entry.Header),
		"body":        entry.Body,
		"stored_at":   entry.StoredAt,
	}}
	_, err := c.entries.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}
