/*
Package user defines player identity and the user-store collaborator contract.
*/
package user

import (
	"context"
	"time"
)

// User is a registered player.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	Avatar    string    `json:"avatar,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Profile is the registration input handed to a Store.
type Profile struct {
	Username string
	Email    string
	Password string
}

// Store authenticates and registers players.
//
// Authenticate returns errs.ErrInvalidCredentials for an unknown user or a
// wrong password. Register returns errs.ErrUserAlreadyExists when the
// username is taken.
type Store interface {
	Authenticate(ctx context.Context, username, password string) (User, error)
	Register(ctx context.Context, profile Profile) (User, error)
	SetAvatar(ctx context.Context, username, avatarURL string) (User, error)
}
