package session

import "testing"

func TestSafeNext(t *testing.T) {
	tests := []struct {
		next string
		want string
	}{
		{next: "", want: "/"},
		{next: "/profile/alice", want: "/profile/alice"},
		{next: "/?page=2", want: "/?page=2"},
		{next: "http://evil.example/x", want: "/"},
		{next: "https://evil.example", want: "/"},
		{next: "//evil.example/x", want: "/"},
		{next: "/\\evil.example", want: "/"},
		{next: "\\\\evil.example/x", want: "/"},
		{next: "\\/evil.example/x", want: "/"},
		{next: "/profile\\..\\x", want: "/"},
		{next: "profile/alice", want: "/"},
		{next: "javascript:alert(1)", want: "/"},
		{next: "http://[::1", want: "/"},
	}

	for _, tt := range tests {
		if got := SafeNext(tt.next); got != tt.want {
			t.Errorf("SafeNext(%q) = %q, want %q", tt.next, got, tt.want)
		}
	}
}

func TestLoginURL(t *testing.T) {
	tests := []struct {
		next string
		want string
	}{
		{next: "", want: "/login"},
		{next: "/", want: "/login?next=/"},
		{next: "/profile/alice", want: "/login?next=/profile/alice"},
		{next: "/?a=1&b=2", want: "/login?next=/%3Fa%3D1%26b%3D2"},
	}

	for _, tt := range tests {
		if got := LoginURL(tt.next); got != tt.want {
			t.Errorf("LoginURL(%q) = %q, want %q", tt.next, got, tt.want)
		}
	}
}
