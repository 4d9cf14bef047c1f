// Package db manages the MongoDB connection and the collections the API uses.
package db

import (
	"context" // For connection timeout/cancellation
	"fmt"     // Error formatting
	"time"    // Duration for timeouts

	"go.mongodb.org/mongo-driver/v2/bson"           // Ordered index keys
	"go.mongodb.org/mongo-driver/v2/mongo"          // MongoDB driver
	"go.mongodb.org/mongo-driver/v2/mongo/options"  // MongoDB options
	"go.mongodb.org/mongo-driver/v2/mongo/readpref" // MongoDB read preference
)

const (
	usersCollection    = "users"
	listingsCollection = "listings"
)

// Client wraps mongo.Client and exposes collections.
type Client struct {
	// client is the underlying MongoDB connection (thread-safe, shared by every store)
	client *mongo.Client

	// db is the configured database (MONGODB_DATABASE)
	// Collections ("users", "listings") are accessed via this db reference
	db *mongo.Database
}

// New connects to MongoDB, verifies the connection with a ping and selects
// the named database.
func New(ctx context.Context, mongoURI, database string) (*Client, error) {
	// SetConnectTimeout: fail fast if MongoDB is unreachable
	opts := options.Client().
		ApplyURI(mongoURI).                 // Parse connection string
		SetConnectTimeout(10 * time.Second) // Max time to connect

	// Creates the client; no round trip to the server happens yet
	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// Ping is the actual connection test, bounded to 5 seconds
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel() // Ensure context is cancelled (cleanup)

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background()) // Release the pool before giving up
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	// Database is lazy: created on first write
	return &Client{
		client: client,                    // Keep reference to close connection later
		db:     client.Database(database), // Use this to access collections
	}, nil
}

// UsersCollection returns the users collection.
func (c *Client) UsersCollection() *mongo.Collection {
	return c.db.Collection(usersCollection)
}

// ListingsCollection returns the listings collection.
func (c *Client) ListingsCollection() *mongo.Collection {
	return c.db.Collection(listingsCollection)
}

// Ping checks that the primary is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx, readpref.Primary())
}

// Close disconnects from MongoDB.
func (c *Client) Close(ctx context.Context) error {
	// ctx bounds how long shutdown waits for in-flight operations
	return c.client.Disconnect(ctx)
}

// CreateIndexes creates the indexes the stores rely on. It is idempotent.
func (c *Client) CreateIndexes(ctx context.Context) error {
	// ===== USERS COLLECTION INDEX =====
	// Unique index on email
	// Used by: GetUserByEmail() lookups and the signup conflict check
	usersIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}}, // 1 = ascending
		Options: options.Index().SetUnique(true),  // Duplicate emails rejected by the server
	}
	if _, err := c.UsersCollection().Indexes().CreateOne(ctx, usersIndex); err != nil {
		return fmt.Errorf("failed to create users index: %w", err)
	}

	// ===== LISTINGS COLLECTION INDEXES =====
	listingIndexes := []mongo.IndexModel{
		{
			// list(): newest first, _id breaks ties within the same millisecond
			Keys: bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}},
		},
		{
			// ownership lookups
			Keys: bson.D{{Key: "owner.user_id", Value: 1}},
		},
	}
	if _, err := c.ListingsCollection().Indexes().CreateMany(ctx, listingIndexes); err != nil {
		return fmt.Errorf("failed to create listing indexes: %w", err)
	}

	// All indexes created successfully
	return nil
}
