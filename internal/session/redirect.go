package session

import (
	"net/url"
	"strings"
)

const HomePath = "/"

// SafeNext returns next when it is a same-origin absolute path, and HomePath
// otherwise. Only "/" followed by anything but another slash is accepted.
// Browsers read a backslash as a slash, so any backslash is rejected too:
// "\\evil.example" and "/\evil.example" both mean "//evil.example".
func SafeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return HomePath
	}

	if strings.ContainsRune(next, '\\') {
		return HomePath
	}

	u, err := url.Parse(next)

	if err != nil || u.Host != "" || u.Scheme != "" || u.User != nil {
		return HomePath
	}

	return next
}

const LoginPath = "/login"

// LoginURL is the login entry point carrying next as the post-login target.
// Slashes stay readable: /login?next=/profile/alice
func LoginURL(next string) string {
	if next == "" {
		return LoginPath
	}

	return LoginPath + "?next=" + strings.ReplaceAll(url.QueryEscape(next), "%2F", "/")
}
