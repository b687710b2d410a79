package models

import "time"

// Session identifies the logged-in user. It is passed explicitly to every
// service call that is scoped to a user.
type Session struct {
	UserID   int64
	Username string
	Token    string
	IssuedAt time.Time
}
