// Package data holds the persistence schema and the MongoDB-backed stores.
package data

import (
	"context" // Used for cancellation and timeouts
	"errors"  // Sentinel matching
	"fmt"     // Error wrapping
	"time"    // Timestamps

	"go.mongodb.org/mongo-driver/v2/bson"  // MongoDB document queries
	"go.mongodb.org/mongo-driver/v2/mongo" // MongoDB driver
)

// UsersStore performs user DB operations.
type UsersStore struct {
	// coll is reference to "users" collection in MongoDB
	// Set via NewUsersStore() and used in all methods below
	coll *mongo.Collection
}

// NewUsersStore returns a UsersStore using the provided collection.
func NewUsersStore(coll *mongo.Collection) *UsersStore {
	return &UsersStore{coll: coll} // Store reference to MongoDB collection
}

// CreateUser inserts a new user. The email must already be normalised and the
// password already hashed. A taken email yields ErrDuplicateEmail.
func (u *UsersStore) CreateUser(ctx context.Context, email, name, passwordHash string) (*User, error) {
	// Build the document; the hash comes from auth.Hasher, never the plaintext
	user := &User{
		Email:        email,            // Already lowercased and trimmed by the service
		Name:         name,             // Display name, copied into every listing the user creates
		PasswordHash: passwordHash,     // bcrypt or argon2id encoded string
		CreatedAt:    time.Now().UTC(), // Server time
	}

	// InsertOne adds the document to the "users" collection
	result, err := u.coll.InsertOne(ctx, user)
	if err != nil {
		// The unique email index is the source of truth, not a prior lookup,
		// so two concurrent signups for one address cannot both succeed
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateEmail
		}
		// Connection or server errors
		return nil, fmt.Errorf("insert user: %w", err)
	}

	// MongoDB generates the _id; it becomes the userId claim in the JWT
	user.ID = result.InsertedID.(bson.ObjectID)

	return user, nil
}

// GetUserByEmail finds a user by normalised email.
func (u *UsersStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	// Empty User struct to hold the query result
	var user User

	// bson.M{"email": email} is served by the unique email index
	err := u.coll.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		// No such account; login turns this into "invalid email or password"
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		// Database errors
		return nil, fmt.Errorf("find user by email: %w", err)
	}

	// PasswordHash is populated so the caller can verify the password
	return &user, nil
}
