package models

import "time"

// User is an account of the calendar. PasswordHash holds the encoded digest
// produced by the configured credential hasher, never the plaintext.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}
