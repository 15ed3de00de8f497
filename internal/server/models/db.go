// Package models defines server-side data models persisted by the
// repositories.
package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NewID returns a fresh 24-hex object id. Both storage backends use it so
// ids look the same whichever database is configured.
func NewID() string {
	return primitive.NewObjectID().Hex()
}

// IsValidID reports whether id has the 24-hex object id shape. Ids that fail
// this check are treated as "not found" by the services.
func IsValidID(id string) bool {
	_, err := primitive.ObjectIDFromHex(id)
	return err == nil
}
