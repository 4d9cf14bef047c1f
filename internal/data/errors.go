package data

import (
	"errors"

	"go.mongodb.org/mongo-driver/v2/bson"
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrDuplicateEmail = errors.New("user already exists")
)

// ParseID converts a hex id from a URL into an ObjectID. A malformed id can
// never match a document, so it is reported as ErrNotFound.
func ParseID(hex string) (bson.ObjectID, error) {
	id, err := bson.ObjectIDFromHex(hex)
	if err != nil {
		return bson.ObjectID{}, ErrNotFound
	}
	return id, nil
}
