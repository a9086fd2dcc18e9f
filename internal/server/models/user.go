// Package models defines server-side data models persisted in the database
// or in object storage.
package models

import "time"

// User is a registered account. PasswordHash is a bcrypt hash and is never
// serialised to clients.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}
