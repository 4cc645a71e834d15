package forms

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/geocoder89/microblog/internal/domain/user"
)

const (
	MsgUsernameTaken = "Please use a different username."
	MsgEmailTaken    = "Please use a different email address."
)

// UserLookup is the part of the credential store the registration form reads.
// Both methods return user.ErrNotFound when nothing matches.
type UserLookup interface {
	GetByUsername(ctx context.Context, username string) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
}

type RegistrationForm struct {
	Username  string
	Email     string
	Password  string
	Password2 string
}

func ParseRegistration(values url.Values) RegistrationForm {
	return RegistrationForm{
		Username:  field(values, "username"),
		Email:     field(values, "email"),
		Password:  values.Get("password"),
		Password2: values.Get("password2"),
	}
}

// Validate returns the field errors of the form. The error return is reserved
// for store failures during the uniqueness checks.
func (f RegistrationForm) Validate(ctx context.Context, users UserLookup) (Errors, error) {
	return run(ctx, []rule{
		{field: "username", value: f.Username, tag: "required", msg: "This field is required."},
		{field: "username", value: f.Username, tag: "min=3,max=15", msg: "Username must be between 3 and 15 characters long."},
		{field: "username", msg: MsgUsernameTaken, check: func(ctx context.Context) (bool, error) {
			return absent(users.GetByUsername(ctx, f.Username))
		}},

		{field: "email", value: f.Email, tag: "required", msg: "This field is required."},
		{field: "email", value: f.Email, tag: "email", msg: "Invalid email address."},
		{field: "email", msg: MsgEmailTaken, check: func(ctx context.Context) (bool, error) {
			return absent(users.GetByEmail(ctx, f.Email))
		}},

		{field: "password", value: strings.TrimSpace(f.Password), tag: "required", msg: "This field is required."},
		{field: "password", value: f.Password, tag: "min=8,max=15", msg: "Password must be between 8 and 15 characters long."},

		{field: "password2", value: f.Password2, other: f.Password, tag: "eqfield", msg: "Password mismatch"},
	})
}

func absent(_ user.User, err error) (bool, error) {
	if err == nil {
		return false, nil
	}

	if errors.Is(err, user.ErrNotFound) {
		return true, nil
	}

	return false, err
}
