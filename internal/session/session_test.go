package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signedToken(t *testing.T, expiresAt *time.Time) string {
	t.Helper()

	claims := jwt.RegisteredClaims{Subject: "runner@example.com"}
	if expiresAt != nil {
		claims.ExpiresAt = jwt.NewNumericDate(*expiresAt)
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("any-key"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestUnauthenticated(t *testing.T) {
	t.Parallel()

	if Unauthenticated.Authenticated() {
		t.Fatalf("zero session must be unauthenticated")
	}
	if Unauthenticated.Owner() != "" {
		t.Fatalf("unauthenticated session must not expose an owner")
	}

	flagOnly := Session{LoggedIn: true}
	if flagOnly.Authenticated() {
		t.Fatalf("a logged-in flag without e-mail is not an identity")
	}
}

func TestActive_DropsExpiredTokens(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name  string
		token string
		ok    bool
	}{
		{name: "no_token", token: "", ok: true},
		{name: "no_exp_claim", token: signedToken(t, nil), ok: true},
		{name: "valid", token: signedToken(t, &future), ok: true},
		{name: "expired", token: signedToken(t, &past), ok: false},
		{name: "garbage", token: "not-a-jwt", ok: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			current := New(" runner@example.com ", tc.token, "Jana")
			active := current.Active(now)
			if active.Authenticated() != tc.ok {
				t.Fatalf("Active().Authenticated() = %v, want %v", active.Authenticated(), tc.ok)
			}
			if tc.ok && active.Owner() != "runner@example.com" {
				t.Fatalf("owner = %q", active.Owner())
			}
		})
	}
}

func TestGreeting(t *testing.T) {
	t.Parallel()

	if got := Unauthenticated.Greeting(); got != "Not signed in" {
		t.Fatalf("Greeting() = %q", got)
	}
	if got := New("a@b.c", "", "").Greeting(); got != "Signed in as a@b.c" {
		t.Fatalf("Greeting() = %q", got)
	}
	if got := New("a@b.c", "", "Jana").Greeting(); got != "Signed in as Jana" {
		t.Fatalf("Greeting() = %q", got)
	}
}
