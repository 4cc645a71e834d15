package forms

import (
	"context"
	"net/url"
	"strings"
)

// LoginForm never checks that the user exists; a wrong username and a wrong
// password must look the same to the caller.
type LoginForm struct {
	Username   string
	Password   string
	RememberMe bool
}

func ParseLogin(values url.Values) LoginForm {
	return LoginForm{
		Username:   field(values, "username"),
		Password:   values.Get("password"),
		RememberMe: truthy(values.Get("remember_me")),
	}
}

func (f LoginForm) Validate() Errors {
	errs, _ := run(context.Background(), []rule{
		{field: "username", value: f.Username, tag: "required", msg: "This field is required."},
		{field: "password", value: strings.TrimSpace(f.Password), tag: "required", msg: "This field is required."},
	})

	return errs
}
