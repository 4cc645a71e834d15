package postgres

import (
	"errors"
	"strings"

	"github.com/geocoder89/microblog/internal/domain/user"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// duplicateUserErr maps a unique violation on users to the matching domain error,
// or returns nil for anything else.
func duplicateUserErr(err error) error {
	var pgErr *pgconn.PgError

	if !errors.As(err, &pgErr) || pgErr.Code != codeUniqueViolation {
		return nil
	}

	switch {
	case pgErr.ConstraintName == "users_username_key" || strings.Contains(pgErr.Detail, "(username)"):
		return user.ErrUsernameTaken
	case pgErr.ConstraintName == "users_email_key" || strings.Contains(pgErr.Detail, "(email)"):
		return user.ErrEmailTaken
	default:
		return nil
	}
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeForeignKeyViolation
}
