// Package session implements the client-side gate that protected views run
// before rendering. It only inspects the locally stored token's expiry; the
// server independently verifies the signature on every protected call, so
// nothing here is a security boundary.
package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Action int

const (
	// Allow lets the protected view load.
	Allow Action = iota
	// RedirectToLogin sends the user to the entry surface.
	RedirectToLogin
)

// Decision is the outcome of evaluating a stored token. ClearToken tells the
// caller to drop the stored value before redirecting.
type Decision struct {
	Action     Action
	ClearToken bool
}

// Evaluate decides what a protected view should do with a stored token at the
// given instant. The token is decoded WITHOUT signature verification: the
// client does not hold the secret, and this gate is a usability check only.
func Evaluate(raw string, now time.Time) Decision {
	if raw == "" {
		return Decision{Action: RedirectToLogin}
	}

	claims := jwt.RegisteredClaims{}
	parser := jwt.NewParser()

	_, _, err := parser.ParseUnverified(raw, &claims)

	if err != nil {
		return Decision{Action: RedirectToLogin, ClearToken: true}
	}

	if claims.ExpiresAt == nil || !claims.ExpiresAt.After(now) {
		return Decision{Action: RedirectToLogin, ClearToken: true}
	}

	return Decision{Action: Allow}
}

// TokenStore abstracts the client's persistent token slot (local storage in a
// browser, a file for a CLI).
type TokenStore interface {
	Token() string
	Clear()
}

// Guard binds a token store and clock so every protected view runs the same
// gate instead of re-implementing it.
type Guard struct {
	store TokenStore
	now   func() time.Time
}

func NewGuard(store TokenStore, now func() time.Time) *Guard {
	if now == nil {
		now = time.Now
	}

	return &Guard{store: store, now: now}
}

// Check evaluates the stored token and applies the clear side effect. The
// redirect itself stays with the caller.
func (g *Guard) Check() Decision {
	d := Evaluate(g.store.Token(), g.now())

	if d.ClearToken {
		g.store.Clear()
	}

	return d
}
