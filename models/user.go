package models

import "time"

// RegisteredUser gates contribution eligibility: only registered identities
// may contribute. Records are never deleted.
type RegisteredUser struct {
	Identity     string    `bson:"_id" json:"identity"`
	Name         string    `bson:"name" json:"name"`
	Email        string    `bson:"email" json:"email"`
	PasswordHash string    `bson:"password_hash" json:"-"`
	RegisteredAt time.Time `bson:"registered_at" json:"registered_at"`
}
