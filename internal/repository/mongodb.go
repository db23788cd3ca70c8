// Package repository provides the MongoDB data access layer for bundles and audit logs.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	bundlesCollection = "bundles"
	logsCollection    = "logs"
	logsTTLIndex      = "logs_ttl"

	healthCheckTimeout = 2 * time.Second
)

// MongoOption tunes the client created by NewMongoDB.
type MongoOption func(*options.ClientOptions)

// WithPoolSize bounds the connection pool.
func WithPoolSize(minSize, maxSize uint64) MongoOption {
	return func(o *options.ClientOptions) {
		o.SetMinPoolSize(minSize).SetMaxPoolSize(maxSize)
	}
}

// WithConnectTimeout sets how long dialing and server selection may take.
func WithConnectTimeout(d time.Duration) MongoOption {
	return func(o *options.ClientOptions) {
		o.SetConnectTimeout(d).SetServerSelectionTimeout(d)
	}
}

// WithCompression negotiates wire compression with the server.
func WithCompression() MongoOption {
	return func(o *options.ClientOptions) {
		o.SetCompressors([]string{"zstd", "snappy", "zlib"})
	}
}

// MongoDB bundles the client with the collections the service uses.
type MongoDB struct {
	Client   *mongo.Client
	Database *mongo.Database
	Bundles  *mongo.Collection
	Logs     *mongo.Collection
}

// NewMongoDB connects, verifies the server answers and makes sure the log
// indexes exist. Bundles are keyed by _id and need no extra index.
func NewMongoDB(uri, databaseName string, opts ...MongoOption) (*MongoDB, error) {
	clientOpts := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(50).
		SetMinPoolSize(5).
		SetMaxConnIdleTime(10 * time.Minute).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetRetryReads(true).
		SetRetryWrites(true)
	for _, opt := range opts {
		opt(clientOpts)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *clientOpts.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("connecting to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("pinging MongoDB: %w", err)
	}

	db := client.Database(databaseName)
	m := &MongoDB{
		Client:   client,
		Database: db,
		Bundles:  db.Collection(bundlesCollection),
		Logs:     db.Collection(logsCollection),
	}
	if err := m.ensureLogIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return m, nil
}

func (m *MongoDB) ensureLogIndexes(ctx context.Context) error {
	_, err := m.Logs.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "request_id", Value: 1}}},
		{
			Keys:    bson.D{{Key: "bundle_id", Value: 1}, {Key: "action_type", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
	})
	if err != nil {
		return fmt.Errorf("creating log indexes: %w", err)
	}
	return nil
}

// SetLogsTTL makes log entries expire ttlDays after their timestamp. An
// existing TTL index is updated in place.
func (m *MongoDB) SetLogsTTL(ctx context.Context, ttlDays int) error {
	if ttlDays < 1 {
		return fmt.Errorf("logs ttl must be at least one day, got %d", ttlDays)
	}
	seconds := int32(ttlDays * 24 * 60 * 60)

	_, err := m.Logs.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "timestamp", Value: 1}},
		Options: options.Index().SetName(logsTTLIndex).SetExpireAfterSeconds(seconds),
	})
	if err == nil {
		return nil
	}
	var cmdErr mongo.CommandError
	if !errors.As(err, &cmdErr) || cmdErr.Name != "IndexOptionsConflict" {
		return fmt.Errorf("creating logs ttl index: %w", err)
	}

	err = m.Database.RunCommand(ctx, bson.D{
		{Key: "collMod", Value: logsCollection},
		{Key: "index", Value: bson.D{
			{Key: "name", Value: logsTTLIndex},
			{Key: "expireAfterSeconds", Value: seconds},
		}},
	}).Err()
	if err != nil {
		return fmt.Errorf("updating logs ttl: %w", err)
	}
	return nil
}

// Close disconnects the client.
func (m *MongoDB) Close(ctx context.Context) error {
	return m.Client.Disconnect(ctx)
}

// HealthCheck pings the primary with a short deadline.
func (m *MongoDB) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()
	return m.Client.Ping(ctx, nil)
}
