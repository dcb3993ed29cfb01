package models

import "time"

type User struct {
	ID        string    `json:"id" db:"id"`
	Username  string    `json:"username" db:"username"`
	First     string    `json:"first" db:"first_name"`
	Last      string    `json:"last" db:"last_name"`
	Email     string    `json:"email" db:"email"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// DisplayName is the user's full name.
func (u User) DisplayName() string {
	return u.First + " " + u.Last
}
