package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"gardentrade/internal/app/user"
	"gardentrade/internal/pkg/errs"
	"gardentrade/internal/pkg/logx"
)

// Users implements user.Store.
type Users struct {
	pool *pgxpool.Pool
}

// NewUsers returns a user store over pool.
func NewUsers(pool *pgxpool.Pool) *Users {
	return &Users{pool: pool}
}

// Authenticate implements user.Store.
func (s *Users) Authenticate(ctx context.Context, username, password string) (user.User, error) {
	var (
		u    user.User
		hash string
	)

	err := s.pool.QueryRow(ctx, `
		SELECT id, username, email, avatar_url, created_at, password_hash
		FROM users
		WHERE lower(username) = lower($1)`, username).
		Scan(&u.ID, &u.Username, &u.Email, &u.Avatar, &u.CreatedAt, &hash)
	if errors.Is(err, pgx.ErrNoRows) {
		logx.Warn("login: unknown user", "username", username)
		return user.User{}, errs.NewError(errs.ErrInvalidCredentials)
	}
	if err != nil {
		return user.User{}, fmt.Errorf("fetch user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		logx.Warn("login: password mismatch", "username", username)
		return user.User{}, errs.NewError(errs.ErrInvalidCredentials)
	}

	return u, nil
}

// Register implements user.Store.
func (s *Users) Register(ctx context.Context, profile user.Profile) (user.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(profile.Password), bcrypt.DefaultCost)
	if err != nil {
		return user.User{}, errs.Wrap(errs.ErrUnknown, err)
	}

	u := user.User{
		ID:       uuid.New().String(),
		Username: profile.Username,
		Email:    profile.Email,
	}

	err = s.pool.QueryRow(ctx, `
		INSERT INTO users (id, username, email, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`,
		u.ID, u.Username, u.Email, string(hash)).Scan(&u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			logx.Warn("registration conflict: username already exists", "username", profile.Username)
			return user.User{}, errs.NewError(errs.ErrUserAlreadyExists)
		}
		return user.User{}, fmt.Errorf("insert user: %w", err)
	}

	return u, nil
}

// SetAvatar implements user.Store.
func (s *Users) SetAvatar(ctx context.Context, username, avatarURL string) (user.User, error) {
	var u user.User

	err := s.pool.QueryRow(ctx, `
		UPDATE users SET avatar_url = $2
		WHERE lower(username) = lower($1)
		RETURNING id, username, email, avatar_url, created_at`,
		username, avatarURL).
		Scan(&u.ID, &u.Username, &u.Email, &u.Avatar, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return user.User{}, errs.NewError(errs.ErrUserNotFound)
	}
	if err != nil {
		return user.User{}, fmt.Errorf("update avatar: %w", err)
	}

	return u, nil
}
