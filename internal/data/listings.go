package data

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ListingsStore performs listing DB operations.
type ListingsStore struct {
	// coll is reference to "listings" collection in MongoDB
	// Messages live inside each listing document, there is no separate collection
	coll *mongo.Collection
}

// NewListingsStore returns a ListingsStore using the provided collection.
func NewListingsStore(coll *mongo.Collection) *ListingsStore {
	return &ListingsStore{coll: coll} // Store reference to MongoDB collection
}

var newestFirst = bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}

// CreateListing inserts l, assigning its id and creation time when unset.
func (s *ListingsStore) CreateListing(ctx context.Context, l *Listing) (*Listing, error) {
	if l.ID.IsZero() {
		l.ID = bson.NewObjectID()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	// BSON dates keep millisecond precision; match what a read returns.
	l.CreatedAt = l.CreatedAt.Truncate(time.Millisecond)

	// InsertOne stores the whole document, image and empty transcript included
	if _, err := s.coll.InsertOne(ctx, l); err != nil {
		return nil, fmt.Errorf("insert listing: %w", err)
	}
	return l, nil
}

// ListListings returns every listing, newest first, without messages.
func (s *ListingsStore) ListListings(ctx context.Context) ([]*Listing, error) {
	// Sort served by the created_at/_id index
	// Projection drops messages so summaries stay small
	opts := options.Find().
		SetSort(newestFirst).
		SetProjection(bson.D{{Key: "messages", Value: 0}})

	cursor, err := s.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find listings: %w", err)
	}

	// Start from an empty slice so an empty collection encodes as [] not null
	out := []*Listing{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode listings: %w", err)
	}
	return out, nil
}

// GetListing returns the full listing, messages included.
func (s *ListingsStore) GetListing(ctx context.Context, id bson.ObjectID) (*Listing, error) {
	var l Listing
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&l)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find listing: %w", err)
	}
	return &l, nil
}

// DeleteListing removes a listing permanently.
func (s *ListingsStore) DeleteListing(ctx context.Context, id bson.ObjectID) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete listing: %w", err)
	}
	// Nothing matched: unknown id or already deleted
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// AppendMessage pushes msg onto the end of the listing's transcript. The
// update is a single $push so concurrent appends never overwrite each other.
func (s *ListingsStore) AppendMessage(ctx context.Context, id bson.ObjectID, msg Message) error {
	msg.Timestamp = msg.Timestamp.Truncate(time.Millisecond)

	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$push": bson.M{"messages": msg}},
	)
	if err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	// MatchedCount, not ModifiedCount: a matched $push always modifies
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
