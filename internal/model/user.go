// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account.
//
// WHY Bio/Image *string?
// Both are optional and render as JSON null when unset. A nil pointer maps
// cleanly onto a NULL column; an empty string would be ambiguous between
// "never set" and "set to nothing".
//
// PasswordHash is tagged json:"-" so a User can never leak it, even if a
// handler serialises the struct by mistake.
type User struct {
	ID           string    `json:"-"         db:"id"`
	Username     string    `json:"username"  db:"username"`
	Email        string    `json:"email"     db:"email"`
	PasswordHash string    `json:"-"         db:"password_hash"`
	Bio          *string   `json:"bio"       db:"bio"`
	Image        *string   `json:"image"     db:"image"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// Profile is the public view of a user, relative to whoever is looking.
// Following is always false for anonymous viewers.
type Profile struct {
	Username  string  `json:"username"`
	Bio       *string `json:"bio"`
	Image     *string `json:"image"`
	Following bool    `json:"following"`
}

// Profile returns the public view of u with Following unset.
func (u *User) Profile() Profile {
	return Profile{
		Username: u.Username,
		Bio:      u.Bio,
		Image:    u.Image,
	}
}

// UserPatch is a partial update of the current user. A nil field is left
// unchanged. An empty Bio or Image clears that field.
type UserPatch struct {
	Username *string
	Email    *string
	Password *string
	Bio      *string
	Image    *string
}

// FollowEdge records that FollowerID receives FolloweeID's articles in their feed.
type FollowEdge struct {
	FollowerID string `json:"followerId"`
	FolloweeID string `json:"followeeId"`
}
