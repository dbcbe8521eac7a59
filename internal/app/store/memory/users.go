/*
Package memory provides in-process implementations of the user store, trade
backend and messaging backend. State is lost when the process exits.
*/
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"gardentrade/internal/app/user"
	"gardentrade/internal/pkg/errs"
)

type userRecord struct {
	user         user.User
	passwordHash []byte
}

// UserStore keeps accounts in a map keyed by lower-cased username.
type UserStore struct {
	mu         sync.RWMutex
	users      map[string]userRecord
	acceptAny  bool
	bcryptCost int
	now        func() time.Time
}

// UserOption customizes a UserStore.
type UserOption func(*UserStore)

// AcceptAnyCredentials makes Authenticate succeed for any username and
// password, provisioning unknown users on the fly. Demo mode only.
func AcceptAnyCredentials() UserOption {
	return func(s *UserStore) { s.acceptAny = true }
}

// WithBcryptCost sets the hashing cost; tests use bcrypt.MinCost.
func WithBcryptCost(cost int) UserOption {
	return func(s *UserStore) { s.bcryptCost = cost }
}

// NewUserStore returns an empty store.
func NewUserStore(opts ...UserOption) *UserStore {
	s := &UserStore{
		users:      make(map[string]userRecord),
		bcryptCost: bcrypt.DefaultCost,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func key(username string) string {
	return strings.ToLower(username)
}

// Authenticate implements user.Store.
func (s *UserStore) Authenticate(ctx context.Context, username, password string) (user.User, error) {
	if err := ctx.Err(); err != nil {
		return user.User{}, err
	}

	s.mu.RLock()
	rec, ok := s.users[key(username)]
	s.mu.RUnlock()

	if s.acceptAny {
		if ok {
			return rec.user, nil
		}
		return s.Register(ctx, user.Profile{Username: username, Password: password})
	}

	if !ok {
		return user.User{}, errs.NewError(errs.ErrInvalidCredentials)
	}

	if err := bcrypt.CompareHashAndPassword(rec.passwordHash, []byte(password)); err != nil {
		return user.User{}, errs.NewError(errs.ErrInvalidCredentials)
	}

	return rec.user, nil
}

// Register implements user.Store.
func (s *UserStore) Register(ctx context.Context, profile user.Profile) (user.User, error) {
	if err := ctx.Err(); err != nil {
		return user.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(profile.Password), s.bcryptCost)
	if err != nil {
		return user.User{}, errs.Wrap(errs.ErrUnknown, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(profile.Username)
	if _, exists := s.users[k]; exists {
		return user.User{}, errs.NewError(errs.ErrUserAlreadyExists)
	}

	u := user.User{
		ID:        uuid.New().String(),
		Username:  profile.Username,
		Email:     profile.Email,
		CreatedAt: s.now().UTC(),
	}
	s.users[k] = userRecord{user: u, passwordHash: hash}

	return u, nil
}

// SetAvatar implements user.Store.
func (s *UserStore) SetAvatar(ctx context.Context, username, avatarURL string) (user.User, error) {
	if err := ctx.Err(); err != nil {
		return user.User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.users[key(username)]
	if !ok {
		return user.User{}, errs.NewError(errs.ErrUserNotFound)
	}

	rec.user.Avatar = avatarURL
	s.users[key(username)] = rec

	return rec.user, nil
}
