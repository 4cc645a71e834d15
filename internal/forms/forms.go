// Package forms validates the login and registration forms.
//
// Each form is checked by an ordered list of (field, rule) pairs. Rules run
// top to bottom; once a field has an error its remaining rules are skipped,
// so store lookups only happen for structurally valid values.
package forms

import (
	"context"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Errors maps a form field to its error messages. An empty map means valid.
type Errors map[string][]string

func (e Errors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

func (e Errors) Has(field string) bool {
	return len(e[field]) > 0
}

// First returns the first message for field, or "".
func (e Errors) First(field string) string {
	if msgs := e[field]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

func (e Errors) Valid() bool {
	return len(e) == 0
}

type rule struct {
	field string
	value any

	// validator tag checked with validate.Var, or validate.VarWithValue when other is set
	tag   string
	other any

	// check runs instead of tag; an error aborts the whole pipeline
	check func(ctx context.Context) (bool, error)

	msg string
}

func run(ctx context.Context, rules []rule) (Errors, error) {
	errs := Errors{}

	for _, r := range rules {
		if errs.Has(r.field) {
			continue
		}

		if r.check != nil {
			ok, err := r.check(ctx)

			if err != nil {
				return nil, err
			}

			if !ok {
				errs.Add(r.field, r.msg)
			}
			continue
		}

		var err error

		if r.other != nil {
			err = validate.VarWithValue(r.value, r.other, r.tag)
		} else {
			err = validate.Var(r.value, r.tag)
		}

		if err != nil {
			errs.Add(r.field, r.msg)
		}
	}

	return errs, nil
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "y", "yes", "on", "true", "1":
		return true
	}
	return false
}

func field(values url.Values, name string) string {
	return strings.TrimSpace(values.Get(name))
}
