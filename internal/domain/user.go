package domain

import "time"

// Identity is the durable record linking a backend session token to the
// shopper it was issued for.
type Identity struct {
	SessionToken string    `json:"-"`
	UserID       int64     `json:"user_id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	CreatedAt    time.Time `json:"created_at"`
}
