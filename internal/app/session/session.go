/*
Package session holds the authentication state of one client and the Login,
Register and Logout transitions over a user.Store.
*/
package session

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"

	"gardentrade/internal/app/user"
	"gardentrade/internal/pkg/errs"
)

// Session is the authenticated identity of a client. Username is set iff
// IsAuthenticated.
type Session struct {
	IsAuthenticated bool   `json:"isAuthenticated"`
	Username        string `json:"username,omitempty"`
	Avatar          string `json:"avatar,omitempty"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

type registration struct {
	Username string `validate:"required"`
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

// Controller owns a Session. It is not safe for concurrent use.
type Controller struct {
	users   user.Store
	current Session
}

// NewController returns an unauthenticated controller over users.
func NewController(users user.Store) *Controller {
	return &Controller{users: users}
}

// Current returns the session.
func (c *Controller) Current() Session {
	return c.current
}

// Login authenticates against the user store. On any error the session is
// left unchanged.
func (c *Controller) Login(ctx context.Context, username, password string) (Session, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return c.current, errs.NewError(errs.ErrUsernameRequired)
	}
	if password == "" {
		return c.current, errs.NewError(errs.ErrPasswordRequired)
	}

	u, err := c.users.Authenticate(ctx, username, password)
	if err != nil {
		return c.current, authError(err)
	}

	c.current = Session{IsAuthenticated: true, Username: u.Username, Avatar: u.Avatar}
	return c.current, nil
}

// Register creates an account and signs it in.
func (c *Controller) Register(ctx context.Context, username, email, password string) (Session, error) {
	in := registration{
		Username: strings.TrimSpace(username),
		Email:    strings.TrimSpace(email),
		Password: password,
	}

	if err := validate.Struct(in); err != nil {
		return c.current, registrationError(err)
	}

	u, err := c.users.Register(ctx, user.Profile{
		Username: in.Username,
		Email:    in.Email,
		Password: in.Password,
	})
	if err != nil {
		return c.current, authError(err)
	}

	c.current = Session{IsAuthenticated: true, Username: u.Username, Avatar: u.Avatar}
	return c.current, nil
}

// SetAvatar updates the avatar of the signed-in user.
func (c *Controller) SetAvatar(ctx context.Context, avatarURL string) (Session, error) {
	if !c.current.IsAuthenticated {
		return c.current, errs.NewError(errs.ErrUnauthorized)
	}

	u, err := c.users.SetAvatar(ctx, c.current.Username, avatarURL)
	if err != nil {
		return c.current, authError(err)
	}

	c.current.Avatar = u.Avatar
	return c.current, nil
}

// Logout clears the session.
func (c *Controller) Logout() {
	c.current = Session{}
}

// registrationError maps the first failed field to its error code.
func registrationError(err error) error {
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok || len(fieldErrs) == 0 {
		return errs.Wrap(errs.ErrInvalidParams, err)
	}

	switch fieldErrs[0].Field() {
	case "Username":
		return errs.NewError(errs.ErrUsernameRequired)
	case "Email":
		return errs.NewError(errs.ErrEmailInvalid)
	case "Password":
		return errs.NewError(errs.ErrPasswordRequired)
	}
	return errs.Wrap(errs.ErrInvalidParams, err)
}

func authError(err error) error {
	if errs.Code(err) != 0 {
		return err
	}
	return errs.Wrap(errs.ErrBackendUnavailable, err)
}
